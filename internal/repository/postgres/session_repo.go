package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/domain"
	"gorm.io/gorm"
)

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// TransitionStatus performs the forward-only CAS every lifecycle step relies
// on. Concurrent duplicate callers race on the WHERE clause; the loser's
// update touches zero rows and is reported as a no-op, not an error.
func (r *sessionRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to domain.SessionStatus) (bool, error) {
	if !domain.CanTransition(from, to) {
		return false, nil
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepository) GetActive(ctx context.Context) ([]*domain.Session, error) {
	var sessions []*domain.Session
	err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.SessionStatus{
			domain.SessionStatusOpen,
			domain.SessionStatusLocked,
			domain.SessionStatusLive,
		}).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) GetByStatus(ctx context.Context, status domain.SessionStatus) ([]*domain.Session, error) {
	var sessions []*domain.Session
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) GetLatestOpen(ctx context.Context) (*domain.Session, error) {
	var session domain.Session
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.SessionStatusOpen).
		Order("created_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) GetArchived(ctx context.Context, limit int) ([]*domain.Session, error) {
	var sessions []*domain.Session
	err := r.db.WithContext(ctx).
		Where("status = ?", domain.SessionStatusArchived).
		Order("created_at DESC").
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
