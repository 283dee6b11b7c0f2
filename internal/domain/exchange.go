package domain

import (
	"time"

	"github.com/google/uuid"
)

type HostID string

const (
	HostA         HostID = "a"
	HostB         HostID = "b"
	VoiceNarrator HostID = "narrator"
)

// HostForIndex applies the strict parity rule: even roast index answers with
// host A, odd with host B.
func HostForIndex(index int) HostID {
	if index%2 == 0 {
		return HostA
	}
	return HostB
}

// Exchange is one finalized (audience roast, host response) pair, written
// exactly once after both segments have fully played. Immutable once written.
type Exchange struct {
	ID               uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID        uuid.UUID  `json:"sessionId" gorm:"type:uuid;not null;uniqueIndex:idx_exchange_session_seq,priority:1"`
	MessageID        *uuid.UUID `json:"messageId" gorm:"type:uuid"`
	UserTranscript   string     `json:"userTranscript"`
	UserAudioURL     string     `json:"userAudioUrl"`
	Host             HostID     `json:"host" gorm:"not null"`
	ResponseText     string     `json:"responseText"`
	ResponseAudioURL string     `json:"responseAudioUrl"`
	Seq              int        `json:"seq" gorm:"not null;uniqueIndex:idx_exchange_session_seq,priority:2"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// UsageRecord tracks generation and synthesis cost per exchange.
type UsageRecord struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID        uuid.UUID `json:"sessionId" gorm:"type:uuid;not null;index"`
	ExchangeID       uuid.UUID `json:"exchangeId" gorm:"type:uuid;not null"`
	GeneratedChars   int       `json:"generatedChars"`
	SynthesizedChars int       `json:"synthesizedChars"`
	CreatedAt        time.Time `json:"createdAt"`
}
