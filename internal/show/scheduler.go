package show

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/config"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository"
	"github.com/sirupsen/logrus"
)

// transitionPause is the beat between the roast and the comeback.
const transitionPause = 500 * time.Millisecond

// Scheduler drives playback for one live session: it walks the unconsumed
// message queue in creation order on a timestamp cadence, plays each roast,
// answers it with the alternating host, persists the finalized exchange, and
// broadcasts a snapshot at every edge so followers can reconstruct the
// moment. Only one item is ever in flight, and already-finished indices are
// tracked so a redundant tick is a no-op.
type Scheduler struct {
	session  *domain.Session
	persona  string
	holderID uuid.UUID

	repos     *repository.Repositories
	generator ResponseGenerator
	synth     SpeechSynthesizer
	audio     AudioSaver
	publisher Publisher
	complete  func(ctx context.Context, sessionID uuid.UUID) error
	cfg       *config.Config
	log       *logrus.Entry

	queue      []*domain.Message
	liveStart  time.Time
	processed  map[int]bool
	processing bool
	cache      *prefetchCache

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

func NewScheduler(
	session *domain.Session,
	holderID uuid.UUID,
	repos *repository.Repositories,
	generator ResponseGenerator,
	synth SpeechSynthesizer,
	audio AudioSaver,
	publisher Publisher,
	complete func(ctx context.Context, sessionID uuid.UUID) error,
	cfg *config.Config,
	log *logrus.Logger,
) *Scheduler {
	s := &Scheduler{
		session:   session,
		holderID:  holderID,
		repos:     repos,
		generator: generator,
		synth:     synth,
		audio:     audio,
		publisher: publisher,
		complete:  complete,
		cfg:       cfg,
		log:       log.WithField("session", session.ID),
		processed: make(map[int]bool),
		cache:     newPrefetchCache(),
		now:       time.Now,
		sleep:     ctxSleep,
	}
	if persona, err := personaFor(repos, session); err == nil {
		s.persona = persona
	}
	return s
}

func personaFor(repos *repository.Repositories, session *domain.Session) (string, error) {
	subject, err := repos.Subject.GetByName(context.Background(), session.SubjectName)
	if err != nil || subject == nil {
		return "", err
	}
	var persona map[string]any
	if err := json.Unmarshal(subject.Persona, &persona); err != nil {
		return "", err
	}
	if bio, ok := persona["bio"].(string); ok {
		return bio, nil
	}
	return "", nil
}

func ctxSleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Run loads the queue and ticks until the queue is exhausted, the lease is
// lost, or the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.load(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(s.cfg.SchedulerTick)
	defer ticker.Stop()
	renew := time.NewTicker(s.cfg.LeaseTTL / 3)
	defer renew.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-renew.C:
			ok, err := s.repos.HostLease.Renew(ctx, s.session.ID, s.holderID, s.cfg.LeaseTTL)
			if err != nil {
				s.log.WithError(err).Warn("lease renewal failed")
				continue
			}
			if !ok {
				s.log.Warn("host lease lost, stopping scheduler")
				return domain.ErrNotLeaseHolder
			}
		case <-ticker.C:
			done, err := s.Tick(ctx)
			if err != nil {
				s.log.WithError(err).Warn("scheduler tick failed")
			}
			if done {
				return nil
			}
		}
	}
}

func (s *Scheduler) load(ctx context.Context) error {
	queue, err := s.repos.Message.GetQueue(ctx, s.session.ID)
	if err != nil {
		return err
	}
	s.queue = queue

	s.liveStart = s.now()
	if state, err := s.repos.RoundState.Get(ctx); err == nil &&
		state != nil && state.LiveStartedAt != nil &&
		state.ActiveSessionID != nil && *state.ActiveSessionID == s.session.ID {
		s.liveStart = *state.LiveStartedAt
	}

	s.log.WithField("roasts", len(s.queue)).Info("playback scheduler started")
	return nil
}

// Tick processes at most one due item. It is idempotent: calling it again
// for an index already finished or in flight does nothing. Returns true when
// the whole queue has been played and the round finalized.
func (s *Scheduler) Tick(ctx context.Context) (bool, error) {
	if s.processing {
		return false, nil
	}

	next := s.nextIndex()
	if next >= len(s.queue) {
		return true, s.finalize(ctx)
	}
	if !s.due(next) {
		return false, nil
	}

	s.processing = true
	err := s.processItem(ctx, next)
	s.processed[next] = true
	s.processing = false
	if err != nil {
		return false, err
	}

	if s.nextIndex() >= len(s.queue) {
		return true, s.finalize(ctx)
	}
	return false, nil
}

func (s *Scheduler) nextIndex() int {
	for i := range s.queue {
		if !s.processed[i] {
			return i
		}
	}
	return len(s.queue)
}

// due gates item starts on the wall clock: item i may begin once
// i * SecondsPerRoast has elapsed since the round went live.
func (s *Scheduler) due(index int) bool {
	elapsed := s.now().Sub(s.liveStart)
	return elapsed >= time.Duration(index*s.cfg.SecondsPerRoast)*time.Second
}

func (s *Scheduler) processItem(ctx context.Context, index int) error {
	msg := s.queue[index]
	host := domain.HostForIndex(index)

	// Roast segment. The snapshot carries the audio-start timestamp so a
	// follower whose notification arrives late still seeks to the right
	// offset instead of starting from zero.
	roastDur := collab.EstimateSpeechDuration(msg.Transcript)
	s.broadcast(ctx, &domain.PlaybackSnapshot{
		SessionID:      s.session.ID,
		ItemIndex:      index,
		Phase:          domain.PlaybackPhaseRoast,
		Speaker:        "audience",
		Caption:        msg.Transcript,
		AudioURL:       msg.AudioURL,
		AudioStartedAt: timePtr(s.now()),
		NextHost:       host,
		RoastCount:     index + 1,
		Playing:        true,
	})

	// Hide the next item's generation latency behind this item's playback.
	if index+1 < len(s.queue) && !s.cache.has(index+1) {
		go s.prefetch(ctx, index+1)
	}

	s.sleep(ctx, roastDur)

	s.broadcast(ctx, &domain.PlaybackSnapshot{
		SessionID:  s.session.ID,
		ItemIndex:  index,
		Phase:      domain.PlaybackPhaseTransition,
		NextHost:   host,
		RoastCount: index + 1,
	})
	s.sleep(ctx, transitionPause)

	// Response segment: cached if the prefetch landed, generated on the
	// spot otherwise (always the case for index 0).
	text, clip := s.responseFor(ctx, index, msg, host)

	audioURL := ""
	if clip != nil && !clip.Silent && s.audio != nil {
		if url, err := s.audio.Save(clip.Audio); err == nil {
			audioURL = url
		} else {
			s.log.WithError(err).Warn("failed to store response audio")
		}
	}

	s.broadcast(ctx, &domain.PlaybackSnapshot{
		SessionID:      s.session.ID,
		ItemIndex:      index,
		Phase:          domain.PlaybackPhaseResponse,
		Speaker:        string(host),
		Caption:        text,
		AudioURL:       audioURL,
		AudioStartedAt: timePtr(s.now()),
		NextHost:       domain.HostForIndex(index + 1),
		RoastCount:     index + 1,
		Playing:        true,
	})

	respDur := collab.EstimateSpeechDuration(text)
	if clip != nil {
		respDur = clip.Duration
	}
	s.sleep(ctx, respDur)

	// Both segments have fully played: persist the exchange, then consume
	// the message. MarkUsed is the single authoritative roast-index bump.
	msgID := msg.ID
	exchange := &domain.Exchange{
		ID:               uuid.New(),
		SessionID:        s.session.ID,
		MessageID:        &msgID,
		UserTranscript:   msg.Transcript,
		UserAudioURL:     msg.AudioURL,
		Host:             host,
		ResponseText:     text,
		ResponseAudioURL: audioURL,
	}
	if err := s.repos.Exchange.Create(ctx, exchange); err != nil {
		return err
	}
	if s.repos.Usage != nil {
		synthChars := 0
		if clip != nil && !clip.Silent {
			synthChars = len(text)
		}
		if err := s.repos.Usage.Create(ctx, &domain.UsageRecord{
			ID:               uuid.New(),
			SessionID:        s.session.ID,
			ExchangeID:       exchange.ID,
			GeneratedChars:   len(text),
			SynthesizedChars: synthChars,
		}); err != nil {
			s.log.WithError(err).Warn("failed to record usage")
		}
	}
	if _, err := s.repos.Message.MarkUsed(ctx, msg.ID); err != nil {
		return err
	}

	s.broadcast(ctx, &domain.PlaybackSnapshot{
		SessionID:  s.session.ID,
		ItemIndex:  index,
		Phase:      domain.PlaybackPhaseTransition,
		NextHost:   domain.HostForIndex(index + 1),
		RoastCount: index + 1,
	})
	s.sleep(ctx, transitionPause)

	return nil
}

// responseFor returns the comeback text and clip for the slot, from cache if
// the prefetch landed, otherwise generated synchronously. Generation and
// synthesis failures degrade to canned lines and silent clips; playback
// never stalls on a collaborator.
func (s *Scheduler) responseFor(ctx context.Context, index int, msg *domain.Message, host domain.HostID) (string, *collab.Clip) {
	if cached := s.cache.take(index, host); cached != nil {
		return cached.Text, cached.Clip
	}
	return s.generate(ctx, index, msg.Transcript, host)
}

func (s *Scheduler) generate(ctx context.Context, index int, roast string, host domain.HostID) (string, *collab.Clip) {
	text, err := s.generator.Respond(ctx, s.session.SubjectName, s.persona, roast, host)
	if err != nil {
		s.log.WithError(err).Warn("response generation failed, using canned line")
		text = collab.FallbackLine(host, index)
	}

	clip, err := s.synth.Speak(ctx, text, host)
	if err != nil {
		s.log.WithError(err).Warn("speech synthesis failed, using silent delay")
		clip = collab.SilentClip(text)
	}
	return text, clip
}

func (s *Scheduler) prefetch(ctx context.Context, index int) {
	if index >= len(s.queue) {
		return
	}
	host := domain.HostForIndex(index)
	text, clip := s.generate(ctx, index, s.queue[index].Transcript, host)
	s.cache.put(&preparedResponse{Index: index, Host: host, Text: text, Clip: clip})
}

// finalize hands the finished round to the completion service, which is
// idempotent and safe to race with the lifecycle controller's stall sweep.
func (s *Scheduler) finalize(ctx context.Context) error {
	s.broadcast(ctx, &domain.PlaybackSnapshot{
		SessionID:  s.session.ID,
		ItemIndex:  len(s.queue),
		Phase:      domain.PlaybackPhaseIdle,
		RoastCount: len(s.queue),
	})
	if err := s.complete(ctx, s.session.ID); err != nil {
		return err
	}
	s.log.Info("round playback finished")
	return nil
}

// broadcast persists the snapshot (the authoritative copy followers re-read)
// and pushes it down the best-effort side-channel.
func (s *Scheduler) broadcast(ctx context.Context, snap *domain.PlaybackSnapshot) {
	if err := s.repos.Snapshot.Put(ctx, snap); err != nil {
		s.log.WithError(err).Warn("failed to persist snapshot")
	}
	if s.publisher != nil {
		if err := s.publisher.PublishSnapshot(ctx, snap); err != nil {
			s.log.WithError(err).Warn("failed to publish snapshot")
		}
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
