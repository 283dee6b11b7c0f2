package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/config"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository"
	"github.com/sirupsen/logrus"
)

// CompletionResult is what a completion call observed and did.
type CompletionResult struct {
	ArchivedSessionID uuid.UUID  `json:"archivedSessionId"`
	DidArchive        bool       `json:"didArchive"`
	NextSessionID     *uuid.UUID `json:"nextSessionId,omitempty"`
}

// CompletionService finalizes a live round and lines up the next one. Safe
// under duplicate and concurrent calls: archiving is a status CAS, cleanup is
// idempotent, and the successor step always re-derives reality from the
// session table instead of trusting the caller.
type CompletionService struct {
	sessionRepo    repository.SessionRepository
	messageRepo    repository.MessageRepository
	subjectRepo    repository.SubjectRepository
	roundStateRepo repository.RoundStateRepository
	cfg            *config.Config
	log            *logrus.Logger
	now            func() time.Time

	// Serializes successor creation within this process. Cross-replica races
	// are still closed by the active-session re-check.
	successorMu sync.Mutex
}

func NewCompletionService(repos *repository.Repositories, cfg *config.Config, log *logrus.Logger) *CompletionService {
	return &CompletionService{
		sessionRepo:    repos.Session,
		messageRepo:    repos.Message,
		subjectRepo:    repos.Subject,
		roundStateRepo: repos.RoundState,
		cfg:            cfg,
		log:            log,
		now:            time.Now,
	}
}

func (s *CompletionService) Complete(ctx context.Context, sessionID uuid.UUID) (*CompletionResult, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// The CAS on live status is what makes repeat calls idempotent: the
	// second caller's update touches zero rows and just falls through to
	// reconciliation.
	archived, err := s.sessionRepo.TransitionStatus(ctx, session.ID, domain.SessionStatusLive, domain.SessionStatusArchived)
	if err != nil {
		return nil, err
	}
	if archived {
		s.log.WithField("session", session.ID).Info("round archived")
	}

	if _, err := s.messageRepo.MarkAllUsed(ctx, session.ID); err != nil {
		return nil, err
	}

	result := &CompletionResult{ArchivedSessionID: session.ID, DidArchive: archived}

	next, err := s.ensureSuccessor(ctx, session.SubjectName)
	if err != nil {
		return nil, err
	}
	if next != nil {
		result.NextSessionID = &next.ID
	}
	return result, nil
}

// ensureSuccessor creates a fresh open round when no session is active, or
// reconciles the global state to whatever active session a racing caller
// already created.
func (s *CompletionService) ensureSuccessor(ctx context.Context, lastSubject string) (*domain.Session, error) {
	s.successorMu.Lock()
	defer s.successorMu.Unlock()

	active, err := s.sessionRepo.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) > 0 {
		return nil, s.reconcileRoundState(ctx, active[0])
	}

	subject, err := s.pickNextSubject(ctx, lastSubject)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &domain.Session{
		ID:            uuid.New(),
		SubjectName:   subject.Name,
		SubjectAvatar: subject.AvatarURL,
		Status:        domain.SessionStatusOpen,
		StartsAt:      now,
		LocksAt:       now.Add(s.cfg.SubmitWindow),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	sessionID := session.ID
	submitEnd := session.LocksAt
	err = s.roundStateRepo.Upsert(ctx, &domain.GlobalRoundState{
		ActiveSessionID: &sessionID,
		Phase:           domain.RoundPhaseSubmitting,
		SubmitEndsAt:    &submitEnd,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"session": session.ID, "subject": subject.Name}).Info("next round opened")
	return session, nil
}

// reconcileRoundState derives the global state from an existing active
// session's own row rather than from what this caller believed it was doing.
func (s *CompletionService) reconcileRoundState(ctx context.Context, session *domain.Session) error {
	sessionID := session.ID
	submitEnd := session.LocksAt

	state := &domain.GlobalRoundState{
		ActiveSessionID: &sessionID,
		SubmitEndsAt:    &submitEnd,
	}
	switch session.Status {
	case domain.SessionStatusOpen:
		state.Phase = domain.RoundPhaseSubmitting
	case domain.SessionStatusLocked:
		state.Phase = domain.RoundPhaseSubmitting
	case domain.SessionStatusLive:
		state.Phase = domain.RoundPhaseLive
		liveStart := s.now()
		if existing, err := s.roundStateRepo.Get(ctx); err == nil && existing != nil && existing.LiveStartedAt != nil {
			liveStart = *existing.LiveStartedAt
		}
		state.LiveStartedAt = &liveStart
	default:
		state.ActiveSessionID = nil
		state.SubmitEndsAt = nil
		state.Phase = domain.RoundPhaseWaiting
	}
	return s.roundStateRepo.Upsert(ctx, state)
}

// pickNextSubject avoids the subjects of the most recent archived rounds;
// when everyone is recent it falls back to the roster entry alphabetically
// after the one just roasted, wrapping around.
func (s *CompletionService) pickNextSubject(ctx context.Context, lastSubject string) (*domain.Subject, error) {
	roster, err := s.subjectRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return &domain.Subject{Name: "The Mystery Guest"}, nil
	}

	recent, err := s.sessionRepo.GetArchived(ctx, s.cfg.RecentSubjects)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(recent))
	for _, past := range recent {
		seen[past.SubjectName] = true
	}

	var fresh []*domain.Subject
	for _, subject := range roster {
		if !seen[subject.Name] {
			fresh = append(fresh, subject)
		}
	}
	if len(fresh) > 0 {
		return fresh[0], nil
	}

	// Everyone was roasted recently: take the next name after the last one.
	sort.Slice(roster, func(i, j int) bool { return roster[i].Name < roster[j].Name })
	for _, subject := range roster {
		if subject.Name > lastSubject {
			return subject, nil
		}
	}
	return roster[0], nil
}
