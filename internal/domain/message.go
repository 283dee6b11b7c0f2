package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is one audience submission. AudioURL and Transcript are both
// optional but at least one is set by the submission path. Used flips
// false -> true exactly once, while the owning session is live.
type Message struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID  uuid.UUID `json:"sessionId" gorm:"type:uuid;not null;index"`
	AudioURL   string    `json:"audioUrl"`
	Transcript string    `json:"transcript"`
	Used       bool      `json:"used" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`

	Session *Session `json:"session,omitempty" gorm:"foreignKey:SessionID"`
}

// PlaceholderTranscript stands in when speech-to-text fails; submission
// still goes through.
const PlaceholderTranscript = "(unintelligible roast)"
