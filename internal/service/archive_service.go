package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository"
)

// transitionPause mirrors the live show's beat between segments.
const transitionPause = 500 * time.Millisecond

// ReplayCue is one scheduled segment of an archived round's timeline.
type ReplayCue struct {
	Seq          int           `json:"seq"`
	Speaker      string        `json:"speaker"`
	Host         domain.HostID `json:"host,omitempty"`
	Caption      string        `json:"caption"`
	AudioURL     string        `json:"audioUrl,omitempty"`
	StartsAtMs   int64         `json:"startsAtMs"`
	DurationMs   int64         `json:"durationMs"`
}

// ArchiveService re-walks finalized exchanges into a deterministic timeline.
// No network calls: cue durations are derived from transcript length the same
// way the live show budgets them.
type ArchiveService struct {
	sessionRepo  repository.SessionRepository
	exchangeRepo repository.ExchangeRepository
}

func NewArchiveService(repos *repository.Repositories) *ArchiveService {
	return &ArchiveService{
		sessionRepo:  repos.Session,
		exchangeRepo: repos.Exchange,
	}
}

func (s *ArchiveService) ListArchived(ctx context.Context, limit int) ([]*domain.Session, error) {
	return s.sessionRepo.GetArchived(ctx, limit)
}

// Replay returns the full cue sheet for an archived session: roast, then
// response, per exchange, with the live show's transition pauses in between.
func (s *ArchiveService) Replay(ctx context.Context, sessionID uuid.UUID) ([]ReplayCue, error) {
	if _, err := s.sessionRepo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}

	exchanges, err := s.exchangeRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cues := make([]ReplayCue, 0, len(exchanges)*2)
	var cursor time.Duration
	for _, ex := range exchanges {
		roastDur := collab.EstimateSpeechDuration(ex.UserTranscript)
		cues = append(cues, ReplayCue{
			Seq:        ex.Seq,
			Speaker:    "audience",
			Caption:    ex.UserTranscript,
			AudioURL:   ex.UserAudioURL,
			StartsAtMs: cursor.Milliseconds(),
			DurationMs: roastDur.Milliseconds(),
		})
		cursor += roastDur + transitionPause

		respDur := collab.EstimateSpeechDuration(ex.ResponseText)
		cues = append(cues, ReplayCue{
			Seq:        ex.Seq,
			Speaker:    "host",
			Host:       ex.Host,
			Caption:    ex.ResponseText,
			AudioURL:   ex.ResponseAudioURL,
			StartsAtMs: cursor.Milliseconds(),
			DurationMs: respDur.Milliseconds(),
		})
		cursor += respDur + transitionPause
	}
	return cues, nil
}
