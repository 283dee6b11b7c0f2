package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository/postgres"
	"github.com/roastlab/roast-arena/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveService_Replay(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	svc := NewArchiveService(repos)
	ctx := context.Background()

	session := testutil.NewSessionBuilder().WithStatus(domain.SessionStatusArchived).Build(t, testDB.DB)
	pairs := []struct {
		roast    string
		response string
		host     domain.HostID
	}{
		{"your playlist is just one song on repeat", "and it still slaps", domain.HostA},
		{"you clap when the plane lands", "someone has to appreciate physics", domain.HostB},
	}
	for _, p := range pairs {
		require.NoError(t, repos.Exchange.Create(ctx, &domain.Exchange{
			SessionID:      session.ID,
			UserTranscript: p.roast,
			Host:           p.host,
			ResponseText:   p.response,
		}))
	}

	cues, err := svc.Replay(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, cues, 4)

	// Roast then response, in exchange order.
	assert.Equal(t, "audience", cues[0].Speaker)
	assert.Equal(t, pairs[0].roast, cues[0].Caption)
	assert.Equal(t, "host", cues[1].Speaker)
	assert.Equal(t, domain.HostA, cues[1].Host)
	assert.Equal(t, "audience", cues[2].Speaker)
	assert.Equal(t, domain.HostB, cues[3].Host)

	// The timeline starts at zero and never moves backwards, with each cue
	// starting after the previous one has fully played.
	assert.Equal(t, int64(0), cues[0].StartsAtMs)
	for i := 1; i < len(cues); i++ {
		assert.Greater(t, cues[i].StartsAtMs, cues[i-1].StartsAtMs)
		assert.GreaterOrEqual(t, cues[i].StartsAtMs, cues[i-1].StartsAtMs+cues[i-1].DurationMs)
	}

	// Durations match the live show's speech budget.
	assert.Equal(t, collab.EstimateSpeechDuration(pairs[0].roast).Milliseconds(), cues[0].DurationMs)

	t.Run("unknown session", func(t *testing.T) {
		_, err := svc.Replay(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("archived round with no exchanges yields an empty sheet", func(t *testing.T) {
		empty := testutil.NewSessionBuilder().WithStatus(domain.SessionStatusArchived).Build(t, testDB.DB)
		cues, err := svc.Replay(ctx, empty.ID)
		require.NoError(t, err)
		assert.Empty(t, cues)
	})
}
