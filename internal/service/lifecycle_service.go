package service

import (
	"context"
	"errors"
	"time"

	"github.com/roastlab/roast-arena/internal/config"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository"
	"github.com/sirupsen/logrus"
)

// TickReport counts the transitions one controller pass performed.
type TickReport struct {
	Locked           int `json:"locked"`
	WentLive         int `json:"wentLive"`
	SubmittingSynced int `json:"submittingSynced"`
	StalledArchived  int `json:"stalledArchived"`
}

// LifecycleService advances sessions through open -> locked -> live ->
// archived on a clock. Every write is conditioned on the row's current
// status, so any number of concurrent tickers converge on the same result;
// redundant invocations are no-ops after the first.
type LifecycleService struct {
	sessionRepo    repository.SessionRepository
	messageRepo    repository.MessageRepository
	roundStateRepo repository.RoundStateRepository
	cfg            *config.Config
	log            *logrus.Logger
	now            func() time.Time
}

func NewLifecycleService(repos *repository.Repositories, cfg *config.Config, log *logrus.Logger) *LifecycleService {
	return &LifecycleService{
		sessionRepo:    repos.Session,
		messageRepo:    repos.Message,
		roundStateRepo: repos.RoundState,
		cfg:            cfg,
		log:            log,
		now:            time.Now,
	}
}

// Run ticks until the context is canceled.
func (s *LifecycleService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				s.log.WithError(err).Warn("lifecycle tick finished with errors")
			}
		}
	}
}

// Tick runs the four controller sub-steps. Each is independent: an error in
// one is collected and the rest still run, so a wedged step cannot stall the
// whole show.
func (s *LifecycleService) Tick(ctx context.Context) (TickReport, error) {
	var report TickReport
	var errs []error

	if n, err := s.lockExpiredWindows(ctx); err != nil {
		errs = append(errs, err)
	} else {
		report.Locked = n
	}

	if n, err := s.promoteLockedToLive(ctx); err != nil {
		errs = append(errs, err)
	} else {
		report.WentLive = n
	}

	if n, err := s.syncSubmittingState(ctx); err != nil {
		errs = append(errs, err)
	} else {
		report.SubmittingSynced = n
	}

	if n, err := s.archiveStalledSessions(ctx); err != nil {
		errs = append(errs, err)
	} else {
		report.StalledArchived = n
	}

	return report, errors.Join(errs...)
}

// lockExpiredWindows closes submission windows whose deadline has passed.
// Playback does not start yet; the grace period comes next.
func (s *LifecycleService) lockExpiredWindows(ctx context.Context) (int, error) {
	sessions, err := s.sessionRepo.GetByStatus(ctx, domain.SessionStatusOpen)
	if err != nil {
		return 0, err
	}

	locked := 0
	now := s.now()
	for _, session := range sessions {
		if !session.LocksAt.Before(now) {
			continue
		}
		ok, err := s.sessionRepo.TransitionStatus(ctx, session.ID, domain.SessionStatusOpen, domain.SessionStatusLocked)
		if err != nil {
			return locked, err
		}
		if ok {
			locked++
			s.log.WithField("session", session.ID).Info("submission window locked")
		}
	}
	return locked, nil
}

// promoteLockedToLive flips locked sessions live once the grace period after
// the lock deadline has elapsed, and points the global round state at them.
func (s *LifecycleService) promoteLockedToLive(ctx context.Context) (int, error) {
	sessions, err := s.sessionRepo.GetByStatus(ctx, domain.SessionStatusLocked)
	if err != nil {
		return 0, err
	}

	promoted := 0
	now := s.now()
	for _, session := range sessions {
		if now.Sub(session.LocksAt) < s.cfg.LockGracePeriod {
			continue
		}
		ok, err := s.sessionRepo.TransitionStatus(ctx, session.ID, domain.SessionStatusLocked, domain.SessionStatusLive)
		if err != nil {
			return promoted, err
		}
		if !ok {
			continue
		}

		total, err := s.messageRepo.CountAll(ctx, session.ID)
		if err != nil {
			return promoted, err
		}

		liveStart := s.now()
		submitEnd := session.LocksAt
		sessionID := session.ID
		err = s.roundStateRepo.Upsert(ctx, &domain.GlobalRoundState{
			ActiveSessionID: &sessionID,
			Phase:           domain.RoundPhaseLive,
			TotalRoasts:     int(total),
			LiveStartedAt:   &liveStart,
			SubmitEndsAt:    &submitEnd,
		})
		if err != nil {
			return promoted, err
		}
		promoted++
		s.log.WithFields(logrus.Fields{"session": session.ID, "roasts": total}).Info("session went live")
	}
	return promoted, nil
}

// syncSubmittingState makes the global round state reflect the newest open
// session, if it does not already.
func (s *LifecycleService) syncSubmittingState(ctx context.Context) (int, error) {
	session, err := s.sessionRepo.GetLatestOpen(ctx)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	state, err := s.roundStateRepo.Get(ctx)
	if err != nil {
		return 0, err
	}
	if state != nil &&
		state.Phase == domain.RoundPhaseSubmitting &&
		state.ActiveSessionID != nil &&
		*state.ActiveSessionID == session.ID {
		return 0, nil
	}

	sessionID := session.ID
	submitEnd := session.LocksAt
	err = s.roundStateRepo.Upsert(ctx, &domain.GlobalRoundState{
		ActiveSessionID: &sessionID,
		Phase:           domain.RoundPhaseSubmitting,
		SubmitEndsAt:    &submitEnd,
	})
	if err != nil {
		return 0, err
	}
	return 1, nil
}

// archiveStalledSessions is the safety net against a host that never
// finalizes: a live session with an empty queue that has sat past the stall
// timeout is archived and the round state parked at waiting.
func (s *LifecycleService) archiveStalledSessions(ctx context.Context) (int, error) {
	sessions, err := s.sessionRepo.GetByStatus(ctx, domain.SessionStatusLive)
	if err != nil {
		return 0, err
	}

	archived := 0
	now := s.now()
	for _, session := range sessions {
		if now.Sub(session.LocksAt) < s.cfg.StallTimeout {
			continue
		}
		remaining, err := s.messageRepo.CountUnused(ctx, session.ID)
		if err != nil {
			return archived, err
		}
		if remaining > 0 {
			continue
		}
		ok, err := s.sessionRepo.TransitionStatus(ctx, session.ID, domain.SessionStatusLive, domain.SessionStatusArchived)
		if err != nil {
			return archived, err
		}
		if !ok {
			continue
		}
		err = s.roundStateRepo.Upsert(ctx, &domain.GlobalRoundState{
			Phase: domain.RoundPhaseWaiting,
		})
		if err != nil {
			return archived, err
		}
		archived++
		s.log.WithField("session", session.ID).Warn("archived stalled live session")
	}
	return archived, nil
}
