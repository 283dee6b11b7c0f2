package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *snapshotRepository {
	return &snapshotRepository{db: db}
}

// Put is last-writer-wins by design: the row is only ever read as "latest".
func (r *snapshotRepository) Put(ctx context.Context, snap *domain.PlaybackSnapshot) error {
	snap.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			UpdateAll: true,
		}).
		Create(snap).Error
}

func (r *snapshotRepository) Get(ctx context.Context, sessionID uuid.UUID) (*domain.PlaybackSnapshot, error) {
	var snap domain.PlaybackSnapshot
	err := r.db.WithContext(ctx).First(&snap, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
