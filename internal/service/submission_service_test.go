package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roastlab/roast-arena/internal/collab"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository/postgres"
	"github.com/roastlab/roast-arena/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionService_Submit(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ctx := context.Background()

	transcribeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "transcribed roast"}`))
	}))
	defer transcribeServer.Close()

	newService := func(transcribeURL string) *SubmissionService {
		audioStore, err := collab.NewAudioStore(t.TempDir())
		require.NoError(t, err)
		return NewSubmissionService(repos, collab.NewTranscriber(transcribeURL), audioStore, testutil.TestLogger())
	}

	t.Run("text roast lands in the open session", func(t *testing.T) {
		testDB.Truncate(t)
		session := testutil.NewSessionBuilder().Build(t, testDB.DB)

		msg, err := newService(transcribeServer.URL).Submit(ctx, SubmitInput{
			SessionID: &session.ID,
			Text:      "  you alphabetize your spice rack  ",
		})
		require.NoError(t, err)
		assert.Equal(t, "you alphabetize your spice rack", msg.Transcript)
		assert.Empty(t, msg.AudioURL)

		count, err := repos.Message.CountAll(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("nil session id targets the newest open session", func(t *testing.T) {
		testDB.Truncate(t)
		testutil.NewSessionBuilder().WithLocksAt(time.Now().Add(time.Minute)).Build(t, testDB.DB)
		newest := testutil.NewSessionBuilder().WithLocksAt(time.Now().Add(2 * time.Minute)).Build(t, testDB.DB)

		msg, err := newService(transcribeServer.URL).Submit(ctx, SubmitInput{Text: "fresh roast"})
		require.NoError(t, err)
		assert.Equal(t, newest.ID, msg.SessionID)
	})

	t.Run("audio roast is stored and transcribed", func(t *testing.T) {
		testDB.Truncate(t)
		session := testutil.NewSessionBuilder().Build(t, testDB.DB)

		msg, err := newService(transcribeServer.URL).Submit(ctx, SubmitInput{
			SessionID: &session.ID,
			Audio:     []byte("voice-note-bytes"),
		})
		require.NoError(t, err)
		assert.Equal(t, "transcribed roast", msg.Transcript)
		assert.NotEmpty(t, msg.AudioURL)
	})

	t.Run("transcription failure falls back to the placeholder", func(t *testing.T) {
		testDB.Truncate(t)
		session := testutil.NewSessionBuilder().Build(t, testDB.DB)

		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer failing.Close()

		msg, err := newService(failing.URL).Submit(ctx, SubmitInput{
			SessionID: &session.ID,
			Audio:     []byte("garbled-bytes"),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.PlaceholderTranscript, msg.Transcript)
	})

	t.Run("closed session rejects the roast", func(t *testing.T) {
		testDB.Truncate(t)
		session := testutil.NewSessionBuilder().WithStatus(domain.SessionStatusLocked).Build(t, testDB.DB)

		_, err := newService(transcribeServer.URL).Submit(ctx, SubmitInput{
			SessionID: &session.ID,
			Text:      "too slow",
		})
		assert.ErrorIs(t, err, domain.ErrSubmissionsClosed)
	})

	t.Run("no open session at all", func(t *testing.T) {
		testDB.Truncate(t)
		_, err := newService(transcribeServer.URL).Submit(ctx, SubmitInput{Text: "into the void"})
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}
