package show

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/config"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository"
	"github.com/sirupsen/logrus"
)

// Engine watches the global round state and takes on the host role when a
// round goes live. The role is claimed through an expiring lease row, so a
// crashed engine's round is picked up by another instance within the lease
// TTL instead of stalling forever.
type Engine struct {
	holderID  uuid.UUID
	repos     *repository.Repositories
	generator ResponseGenerator
	synth     SpeechSynthesizer
	audio     AudioSaver
	publisher Publisher
	complete  func(ctx context.Context, sessionID uuid.UUID) error
	cfg       *config.Config
	log       *logrus.Logger

	chatter        *Chatter
	chatterSession uuid.UUID

	mu      sync.Mutex
	driving map[uuid.UUID]bool
}

func NewEngine(
	repos *repository.Repositories,
	generator ResponseGenerator,
	synth SpeechSynthesizer,
	audio AudioSaver,
	publisher Publisher,
	complete func(ctx context.Context, sessionID uuid.UUID) error,
	cfg *config.Config,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		holderID:  uuid.New(),
		repos:     repos,
		generator: generator,
		synth:     synth,
		audio:     audio,
		publisher: publisher,
		complete:  complete,
		cfg:       cfg,
		log:       log,
		chatter:   NewChatter(),
		driving:   make(map[uuid.UUID]bool),
	}
}

// HolderID identifies this engine instance in host leases.
func (e *Engine) HolderID() uuid.UUID {
	return e.holderID
}

// Run polls the round state once a second and reacts to the phase.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.tick(ctx); err != nil {
				e.log.WithError(err).Warn("engine tick failed")
			}
		}
	}
}

func (e *Engine) tick(ctx context.Context) error {
	state, err := e.repos.RoundState.Get(ctx)
	if err != nil {
		return err
	}
	if state == nil || state.ActiveSessionID == nil {
		return nil
	}

	switch state.Phase {
	case domain.RoundPhaseLive:
		return e.maybeHost(ctx, *state.ActiveSessionID)
	case domain.RoundPhaseSubmitting:
		e.waitingRoomChatter(ctx, state)
	}
	return nil
}

// maybeHost tries to claim the host lease for the live session and, on
// success, runs a scheduler for it in the background.
func (e *Engine) maybeHost(ctx context.Context, sessionID uuid.UUID) error {
	e.mu.Lock()
	already := e.driving[sessionID]
	e.mu.Unlock()
	if already {
		return nil
	}

	acquired, err := e.repos.HostLease.Acquire(ctx, sessionID, e.holderID, e.cfg.LeaseTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}

	session, err := e.repos.Session.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Status != domain.SessionStatusLive {
		return e.repos.HostLease.Release(ctx, sessionID, e.holderID)
	}

	e.mu.Lock()
	e.driving[sessionID] = true
	e.mu.Unlock()

	e.log.WithField("session", sessionID).Info("claimed host role")

	scheduler := NewScheduler(session, e.holderID, e.repos, e.generator, e.synth, e.audio, e.publisher, e.complete, e.cfg, e.log)
	go func() {
		defer func() {
			e.mu.Lock()
			delete(e.driving, sessionID)
			e.mu.Unlock()
			if err := e.repos.HostLease.Release(context.Background(), sessionID, e.holderID); err != nil {
				e.log.WithError(err).Warn("failed to release host lease")
			}
		}()
		if err := scheduler.Run(ctx); err != nil && err != context.Canceled {
			e.log.WithError(err).Warn("scheduler exited with error")
		}
	}()
	return nil
}

func (e *Engine) waitingRoomChatter(ctx context.Context, state *domain.GlobalRoundState) {
	if state.SubmitEndsAt == nil {
		return
	}
	if e.chatterSession != *state.ActiveSessionID {
		e.chatterSession = *state.ActiveSessionID
		e.chatter.Reset()
	}

	line, countdown := e.chatter.Next(time.Until(*state.SubmitEndsAt))
	if line == "" {
		return
	}

	event := ChatterEvent{
		SessionID: state.ActiveSessionID.String(),
		Line:      line,
		Countdown: countdown,
		At:        time.Now(),
	}
	if clip, err := e.synth.Speak(ctx, line, domain.VoiceNarrator); err == nil && e.audio != nil {
		if url, saveErr := e.audio.Save(clip.Audio); saveErr == nil {
			event.AudioURL = url
		}
	}
	if e.publisher != nil {
		if err := e.publisher.PublishChatter(ctx, event); err != nil {
			e.log.WithError(err).Warn("failed to publish chatter")
		}
	}
}

// Shutdown releases any leases this instance still holds.
func (e *Engine) Shutdown(ctx context.Context) {
	e.mu.Lock()
	sessions := make([]uuid.UUID, 0, len(e.driving))
	for id := range e.driving {
		sessions = append(sessions, id)
	}
	e.mu.Unlock()

	for _, id := range sessions {
		if err := e.repos.HostLease.Release(ctx, id, e.holderID); err != nil {
			e.log.WithError(err).Warn("failed to release host lease on shutdown")
		}
	}
}

// Ensure collab types satisfy the engine's collaborator interfaces.
var (
	_ ResponseGenerator = (*collab.Generator)(nil)
	_ SpeechSynthesizer = (*collab.Synthesizer)(nil)
	_ AudioSaver        = (*collab.AudioStore)(nil)
)
