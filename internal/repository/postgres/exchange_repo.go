package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/domain"
	"gorm.io/gorm"
)

type exchangeRepository struct {
	db *gorm.DB
}

func NewExchangeRepository(db *gorm.DB) *exchangeRepository {
	return &exchangeRepository{db: db}
}

// Create assigns seq = max(seq)+1 for the session inside the insert
// transaction. The unique index on (session_id, seq) backs this up: two
// racing writers cannot both land the same number.
func (r *exchangeRepository) Create(ctx context.Context, ex *domain.Exchange) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int
		err := tx.Model(&domain.Exchange{}).
			Where("session_id = ?", ex.SessionID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error
		if err != nil {
			return err
		}
		ex.Seq = maxSeq + 1
		return tx.Create(ex).Error
	})
}

func (r *exchangeRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*domain.Exchange, error) {
	var exchanges []*domain.Exchange
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&exchanges).Error
	if err != nil {
		return nil, err
	}
	return exchanges, nil
}

type usageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *usageRepository {
	return &usageRepository{db: db}
}

func (r *usageRepository) Create(ctx context.Context, rec *domain.UsageRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *usageRepository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*domain.UsageRecord, error) {
	var recs []*domain.UsageRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
