package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/domain"
	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *messageRepository {
	return &messageRepository{db: db}
}

// Create enforces the submission contract: the insert only succeeds while
// the owning session is open. The status re-check and the insert share a
// transaction so a concurrent lock cannot slip between them.
func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session domain.Session
		err := tx.Clauses(lockForUpdate()).First(&session, "id = ?", msg.SessionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		if session.Status != domain.SessionStatusOpen {
			return domain.ErrSubmissionsClosed
		}
		return tx.Create(msg).Error
	})
}

func (r *messageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	var msg domain.Message
	if err := r.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) GetQueue(ctx context.Context, sessionID uuid.UUID) ([]*domain.Message, error) {
	var msgs []*domain.Message
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND used = false", sessionID).
		Order("created_at ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) CountUnused(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("session_id = ? AND used = false", sessionID).
		Count(&n).Error
	return n, err
}

func (r *messageRepository) CountAll(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("session_id = ?", sessionID).
		Count(&n).Error
	return n, err
}

// MarkUsed flips the used flag under the "owning session is live" condition
// and, when the flip happens, advances the global roast index in the same
// transaction. This is the only path that advances the index, so a racing
// duplicate caller can never double count: the loser's conditional update
// touches zero rows and skips the bump.
func (r *messageRepository) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	flipped := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE messages SET used = true
			WHERE id = ? AND used = false
			  AND session_id IN (SELECT id FROM sessions WHERE status = ?)`,
			id, domain.SessionStatusLive)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		flipped = true
		return tx.Exec(`
			UPDATE global_round_states
			SET current_roast_index = current_roast_index + 1, updated_at = NOW()
			WHERE active_session_id = (SELECT session_id FROM messages WHERE id = ?)`,
			id).Error
	})
	return flipped, err
}

func (r *messageRepository) MarkAllUsed(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("session_id = ? AND used = false", sessionID).
		Update("used", true)
	return res.RowsAffected, res.Error
}
