package service

import (
	"context"
	"testing"
	"time"

	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository/postgres"
	"github.com/roastlab/roast-arena/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleService_Tick(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	cfg := testutil.TestConfig()
	ctx := context.Background()

	newService := func(now time.Time) *LifecycleService {
		svc := NewLifecycleService(repos, cfg, testutil.TestLogger())
		svc.now = func() time.Time { return now }
		return svc
	}

	t.Run("open session walks to live on schedule", func(t *testing.T) {
		testDB.Truncate(t)
		t0 := time.Now().Truncate(time.Second)
		session := testutil.NewSessionBuilder().WithLocksAt(t0.Add(cfg.SubmitWindow)).Build(t, testDB.DB)
		testutil.NewMessageBuilder(session.ID).Build(t, testDB.DB)
		testutil.NewMessageBuilder(session.ID).Build(t, testDB.DB)

		// Before the deadline: nothing moves.
		report, err := newService(t0.Add(cfg.SubmitWindow - time.Second)).Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Locked)

		// Past the deadline: locked, but not yet live.
		report, err = newService(t0.Add(cfg.SubmitWindow + 5*time.Second)).Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Locked)
		assert.Equal(t, 0, report.WentLive)

		got, err := repos.Session.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusLocked, got.Status)

		// Past deadline + grace: live, with the round state cut over.
		report, err = newService(t0.Add(cfg.SubmitWindow + cfg.LockGracePeriod + time.Second)).Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.WentLive)

		got, err = repos.Session.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusLive, got.Status)

		state, err := repos.RoundState.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, domain.RoundPhaseLive, state.Phase)
		require.NotNil(t, state.ActiveSessionID)
		assert.Equal(t, session.ID, *state.ActiveSessionID)
		assert.Equal(t, 2, state.TotalRoasts)
		require.NotNil(t, state.LiveStartedAt)

		// Another tick at the same instant changes nothing.
		report, err = newService(t0.Add(cfg.SubmitWindow + cfg.LockGracePeriod + time.Second)).Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.Locked)
		assert.Equal(t, 0, report.WentLive)
	})

	t.Run("round state tracks the newest open session", func(t *testing.T) {
		testDB.Truncate(t)
		t0 := time.Now()
		session := testutil.NewSessionBuilder().WithLocksAt(t0.Add(cfg.SubmitWindow)).Build(t, testDB.DB)

		report, err := newService(t0).Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.SubmittingSynced)

		state, err := repos.RoundState.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, domain.RoundPhaseSubmitting, state.Phase)
		require.NotNil(t, state.ActiveSessionID)
		assert.Equal(t, session.ID, *state.ActiveSessionID)

		// Already in sync: no rewrite.
		report, err = newService(t0).Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.SubmittingSynced)
	})

	t.Run("stalled live session with an empty queue is archived", func(t *testing.T) {
		testDB.Truncate(t)
		t0 := time.Now()
		session := testutil.NewSessionBuilder().
			WithStatus(domain.SessionStatusLive).
			WithLocksAt(t0).
			Build(t, testDB.DB)
		testutil.NewMessageBuilder(session.ID).WithUsed(true).Build(t, testDB.DB)

		// Not yet past the stall timeout.
		report, err := newService(t0.Add(cfg.StallTimeout - time.Second)).Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.StalledArchived)

		report, err = newService(t0.Add(cfg.StallTimeout + time.Minute)).Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, report.StalledArchived)

		got, err := repos.Session.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusArchived, got.Status)

		state, err := repos.RoundState.Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, domain.RoundPhaseWaiting, state.Phase)
	})

	t.Run("live session with pending roasts is never force archived", func(t *testing.T) {
		testDB.Truncate(t)
		t0 := time.Now()
		session := testutil.NewSessionBuilder().
			WithStatus(domain.SessionStatusLive).
			WithLocksAt(t0).
			Build(t, testDB.DB)
		testutil.NewMessageBuilder(session.ID).Build(t, testDB.DB)

		report, err := newService(t0.Add(cfg.StallTimeout + time.Hour)).Tick(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, report.StalledArchived)

		got, err := repos.Session.GetByID(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SessionStatusLive, got.Status)
	})
}
