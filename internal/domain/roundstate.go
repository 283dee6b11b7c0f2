package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoundPhase string

const (
	RoundPhaseSubmitting RoundPhase = "submitting"
	RoundPhaseLive       RoundPhase = "live"
	RoundPhaseWaiting    RoundPhase = "waiting"
)

// GlobalRoundState is the single row every client polls or subscribes to for
// "what phase is the whole show in right now". Upserted by the lifecycle
// controller on phase transitions and bumped by the store whenever a message
// is consumed. Readers always take the most recently updated row.
type GlobalRoundState struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ActiveSessionID   *uuid.UUID `json:"activeSessionId" gorm:"type:uuid"`
	Phase             RoundPhase `json:"phase" gorm:"not null;default:'waiting'"`
	CurrentRoastIndex int        `json:"currentRoastIndex" gorm:"not null;default:0"`
	TotalRoasts       int        `json:"totalRoasts" gorm:"not null;default:0"`
	LiveStartedAt     *time.Time `json:"liveStartedAt"`
	SubmitEndsAt      *time.Time `json:"submitEndsAt"`
	UpdatedAt         time.Time  `json:"updatedAt" gorm:"index"`
}
