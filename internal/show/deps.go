package show

import (
	"context"
	"time"

	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/domain"
)

// ResponseGenerator produces one host comeback line. collab.Generator is the
// production implementation.
type ResponseGenerator interface {
	Respond(ctx context.Context, subject, persona, roast string, host domain.HostID) (string, error)
}

// SpeechSynthesizer turns a line into audio. collab.Synthesizer is the
// production implementation.
type SpeechSynthesizer interface {
	Speak(ctx context.Context, text string, voice domain.HostID) (*collab.Clip, error)
}

// AudioSaver persists a clip and returns its serving URL.
type AudioSaver interface {
	Save(audio []byte) (string, error)
}

// ChatterEvent is a low-priority filler line for the waiting room.
type ChatterEvent struct {
	SessionID string    `json:"sessionId"`
	Line      string    `json:"line"`
	AudioURL  string    `json:"audioUrl,omitempty"`
	Countdown int       `json:"countdown"` // seconds remaining, -1 for idle chatter
	At        time.Time `json:"at"`
}

// Publisher is the best-effort side-channel for snapshots and chatter.
// Delivery may drop or reorder; every consumer can rebuild from the store.
type Publisher interface {
	PublishSnapshot(ctx context.Context, snap *domain.PlaybackSnapshot) error
	PublishChatter(ctx context.Context, event ChatterEvent) error
}
