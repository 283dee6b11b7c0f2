package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/domain"
	"gorm.io/gorm"
)

type roundStateRepository struct {
	db *gorm.DB
}

func NewRoundStateRepository(db *gorm.DB) *roundStateRepository {
	return &roundStateRepository{db: db}
}

// Get reads the most recently updated row. There should only ever be one;
// ordering by updated_at makes a stray duplicate harmless.
func (r *roundStateRepository) Get(ctx context.Context) (*domain.GlobalRoundState, error) {
	var state domain.GlobalRoundState
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Upsert overwrites the singleton row in place, creating it on first write.
// Writers are last-writer-wins; every caller derives the values from the
// session rows themselves, so racing writers converge.
func (r *roundStateRepository) Upsert(ctx context.Context, state *domain.GlobalRoundState) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.GlobalRoundState
		err := tx.Clauses(lockForUpdate()).
			Order("updated_at DESC").
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if state.ID == uuid.Nil {
				state.ID = uuid.New()
			}
			state.UpdatedAt = time.Now()
			return tx.Create(state).Error
		}
		if err != nil {
			return err
		}
		state.ID = existing.ID
		state.UpdatedAt = time.Now()
		return tx.Save(state).Error
	})
}
