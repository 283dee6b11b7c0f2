package show

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/config"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngineHarness(t *testing.T) (*Engine, *repository.Repositories, *fakePublisher) {
	t.Helper()
	repos := newFakeRepos()
	publisher := &fakePublisher{}
	cfg := &config.Config{
		SecondsPerRoast: 25,
		SchedulerTick:   10 * time.Millisecond,
		LeaseTTL:        10 * time.Second,
	}
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	complete := func(ctx context.Context, sessionID uuid.UUID) error { return nil }

	engine := NewEngine(repos, &fakeGenerator{}, &fakeSynth{}, &fakeAudioStore{}, publisher, complete, cfg, log)
	return engine, repos, publisher
}

func TestEngine_Tick(t *testing.T) {
	ctx := context.Background()

	t.Run("no round state is a quiet tick", func(t *testing.T) {
		engine, _, _ := newEngineHarness(t)
		require.NoError(t, engine.tick(ctx))
	})

	t.Run("does not host a session that is no longer live", func(t *testing.T) {
		engine, repos, _ := newEngineHarness(t)
		session := &domain.Session{ID: uuid.New(), SubjectName: "Vinyl Vince", Status: domain.SessionStatusArchived}
		require.NoError(t, repos.Session.Create(ctx, session))
		sessionID := session.ID
		require.NoError(t, repos.RoundState.Upsert(ctx, &domain.GlobalRoundState{
			ActiveSessionID: &sessionID,
			Phase:           domain.RoundPhaseLive,
		}))

		require.NoError(t, engine.tick(ctx))

		// The lease was released, so a fresh holder can claim it.
		ok, err := repos.HostLease.Acquire(ctx, sessionID, uuid.New(), time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("respects a lease held by another instance", func(t *testing.T) {
		engine, repos, _ := newEngineHarness(t)
		session := &domain.Session{ID: uuid.New(), SubjectName: "Gym Selfie Greg", Status: domain.SessionStatusLive}
		require.NoError(t, repos.Session.Create(ctx, session))
		sessionID := session.ID

		rival := uuid.New()
		ok, err := repos.HostLease.Acquire(ctx, sessionID, rival, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, repos.RoundState.Upsert(ctx, &domain.GlobalRoundState{
			ActiveSessionID: &sessionID,
			Phase:           domain.RoundPhaseLive,
		}))

		require.NoError(t, engine.tick(ctx))

		// The rival still owns the lease and no scheduler was started here.
		ok, err = repos.HostLease.Renew(ctx, sessionID, rival, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		engine.mu.Lock()
		assert.Empty(t, engine.driving)
		engine.mu.Unlock()
	})

	t.Run("announces the submission countdown", func(t *testing.T) {
		engine, repos, publisher := newEngineHarness(t)
		sessionID := uuid.New()
		endsAt := time.Now().Add(20 * time.Second)
		require.NoError(t, repos.RoundState.Upsert(ctx, &domain.GlobalRoundState{
			ActiveSessionID: &sessionID,
			Phase:           domain.RoundPhaseSubmitting,
			SubmitEndsAt:    &endsAt,
		}))

		require.NoError(t, engine.tick(ctx))

		publisher.mu.Lock()
		defer publisher.mu.Unlock()
		require.Len(t, publisher.chatter, 1)
		assert.Equal(t, 30, publisher.chatter[0].Countdown)
		assert.NotEmpty(t, publisher.chatter[0].Line)
		assert.NotEmpty(t, publisher.chatter[0].AudioURL)
		assert.Equal(t, sessionID.String(), publisher.chatter[0].SessionID)
	})

	t.Run("a new submission window rearms the countdown", func(t *testing.T) {
		engine, repos, publisher := newEngineHarness(t)

		first := uuid.New()
		endsAt := time.Now().Add(2 * time.Second)
		require.NoError(t, repos.RoundState.Upsert(ctx, &domain.GlobalRoundState{
			ActiveSessionID: &first,
			Phase:           domain.RoundPhaseSubmitting,
			SubmitEndsAt:    &endsAt,
		}))
		require.NoError(t, engine.tick(ctx))

		second := uuid.New()
		nextEnds := time.Now().Add(25 * time.Second)
		require.NoError(t, repos.RoundState.Upsert(ctx, &domain.GlobalRoundState{
			ActiveSessionID: &second,
			Phase:           domain.RoundPhaseSubmitting,
			SubmitEndsAt:    &nextEnds,
		}))
		require.NoError(t, engine.tick(ctx))

		publisher.mu.Lock()
		defer publisher.mu.Unlock()
		require.Len(t, publisher.chatter, 2)
		assert.Equal(t, second.String(), publisher.chatter[1].SessionID)
	})
}
