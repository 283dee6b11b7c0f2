package domain

import (
	"time"

	"github.com/google/uuid"
)

// HostLease is the durable claim on the playback-driver role for one session.
// A holder renews it on every scheduler tick; once ExpiresAt passes, any other
// engine instance may take it over, so a crashed host stalls playback for at
// most the lease duration.
type HostLease struct {
	SessionID uuid.UUID `json:"sessionId" gorm:"type:uuid;primary_key"`
	HolderID  uuid.UUID `json:"holderId" gorm:"type:uuid;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"not null"`
	UpdatedAt time.Time `json:"updatedAt"`
}
