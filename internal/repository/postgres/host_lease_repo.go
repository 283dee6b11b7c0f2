package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/domain"
	"gorm.io/gorm"
)

type hostLeaseRepository struct {
	db *gorm.DB
}

func NewHostLeaseRepository(db *gorm.DB) *hostLeaseRepository {
	return &hostLeaseRepository{db: db}
}

// Acquire claims the host role if the lease row is absent, expired, or
// already ours. The row is locked for the duration of the decision so two
// instances cannot both win.
func (r *hostLeaseRepository) Acquire(ctx context.Context, sessionID, holderID uuid.UUID, ttl time.Duration) (bool, error) {
	acquired := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		var lease domain.HostLease
		err := tx.Clauses(lockForUpdate()).First(&lease, "session_id = ?", sessionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			acquired = true
			return tx.Create(&domain.HostLease{
				SessionID: sessionID,
				HolderID:  holderID,
				ExpiresAt: now.Add(ttl),
			}).Error
		}
		if err != nil {
			return err
		}
		if lease.HolderID != holderID && lease.ExpiresAt.After(now) {
			return nil
		}
		acquired = true
		lease.HolderID = holderID
		lease.ExpiresAt = now.Add(ttl)
		return tx.Save(&lease).Error
	})
	return acquired, err
}

func (r *hostLeaseRepository) Renew(ctx context.Context, sessionID, holderID uuid.UUID, ttl time.Duration) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.HostLease{}).
		Where("session_id = ? AND holder_id = ?", sessionID, holderID).
		Update("expires_at", time.Now().Add(ttl))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *hostLeaseRepository) Release(ctx context.Context, sessionID, holderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("session_id = ? AND holder_id = ?", sessionID, holderID).
		Delete(&domain.HostLease{}).Error
}
