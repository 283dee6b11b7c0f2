package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository"
	"github.com/sirupsen/logrus"
)

// SubmissionService accepts audience roasts while the window is open. The
// store, not this service, is the final gate: the message insert re-checks
// the owning session's status inside its own transaction.
type SubmissionService struct {
	sessionRepo repository.SessionRepository
	messageRepo repository.MessageRepository
	transcriber *collab.Transcriber
	audioStore  *collab.AudioStore
	log         *logrus.Logger
}

func NewSubmissionService(repos *repository.Repositories, transcriber *collab.Transcriber, audioStore *collab.AudioStore, log *logrus.Logger) *SubmissionService {
	return &SubmissionService{
		sessionRepo: repos.Session,
		messageRepo: repos.Message,
		transcriber: transcriber,
		audioStore:  audioStore,
		log:         log,
	}
}

type SubmitInput struct {
	SessionID *uuid.UUID // nil targets the current open session
	Text      string
	Audio     []byte
}

func (s *SubmissionService) Submit(ctx context.Context, input SubmitInput) (*domain.Message, error) {
	var sessionID uuid.UUID
	if input.SessionID != nil {
		sessionID = *input.SessionID
	} else {
		session, err := s.sessionRepo.GetLatestOpen(ctx)
		if err != nil {
			return nil, err
		}
		sessionID = session.ID
	}

	msg := &domain.Message{
		ID:         uuid.New(),
		SessionID:  sessionID,
		Transcript: strings.TrimSpace(input.Text),
	}

	if len(input.Audio) > 0 {
		url, err := s.audioStore.Save(input.Audio)
		if err != nil {
			return nil, err
		}
		msg.AudioURL = url

		if msg.Transcript == "" {
			transcript, err := s.transcriber.Transcribe(ctx, input.Audio)
			if err != nil {
				// Transcription is best effort; the roast still goes in.
				s.log.WithError(err).Warn("transcription failed, using placeholder")
				transcript = domain.PlaceholderTranscript
			}
			msg.Transcript = transcript
		}
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}
