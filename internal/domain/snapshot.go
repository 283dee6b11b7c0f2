package domain

import (
	"time"

	"github.com/google/uuid"
)

type PlaybackPhase string

const (
	PlaybackPhaseIdle       PlaybackPhase = "idle"
	PlaybackPhaseRoast      PlaybackPhase = "roast"
	PlaybackPhaseTransition PlaybackPhase = "transition"
	PlaybackPhaseResponse   PlaybackPhase = "response"
)

// PlaybackSnapshot is the host's broadcast of what is on screen and on audio
// right now. One row per session, overwritten at high frequency and only ever
// read as "latest", never as history. A late joiner reconstructs its whole
// view from this row plus the wall clock.
type PlaybackSnapshot struct {
	SessionID      uuid.UUID     `json:"sessionId" gorm:"type:uuid;primary_key"`
	ItemIndex      int           `json:"itemIndex" gorm:"not null;default:0"`
	Phase          PlaybackPhase `json:"phase" gorm:"not null;default:'idle'"`
	Speaker        string        `json:"speaker"`
	Caption        string        `json:"caption"`
	AudioURL       string        `json:"audioUrl"`
	AudioStartedAt *time.Time    `json:"audioStartedAt"`
	NextHost       HostID        `json:"nextHost"`
	RoastCount     int           `json:"roastCount" gorm:"not null;default:0"`
	Playing        bool          `json:"playing" gorm:"not null;default:false"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}
