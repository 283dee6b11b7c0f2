package collab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynthesizer_Speak(t *testing.T) {
	ctx := context.Background()

	t.Run("returns audio with an estimated duration", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("fake-mp3-bytes"))
		}))
		defer server.Close()

		synth := NewSynthesizer(server.URL, "key")
		clip, err := synth.Speak(ctx, "a line for the narrator to read aloud", domain.VoiceNarrator)
		require.NoError(t, err)
		assert.Equal(t, []byte("fake-mp3-bytes"), clip.Audio)
		assert.False(t, clip.Silent)
		assert.Equal(t, EstimateSpeechDuration("a line for the narrator to read aloud"), clip.Duration)
	})

	t.Run("empty audio body is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		synth := NewSynthesizer(server.URL, "")
		_, err := synth.Speak(ctx, "line", domain.HostA)
		assert.Error(t, err)
	})

	t.Run("unconfigured synthesizer fails fast", func(t *testing.T) {
		synth := NewSynthesizer("", "")
		_, err := synth.Speak(ctx, "line", domain.HostA)
		assert.Error(t, err)
	})
}

func TestSilentClip(t *testing.T) {
	clip := SilentClip("some caption text")
	assert.True(t, clip.Silent)
	assert.Nil(t, clip.Audio)
	assert.Equal(t, EstimateSpeechDuration("some caption text"), clip.Duration)
}

func TestEstimateSpeechDuration(t *testing.T) {
	// Short lines get the floor; long lines scale with length.
	assert.Equal(t, 2*time.Second, EstimateSpeechDuration("hi"))
	assert.Equal(t, 2*time.Second, EstimateSpeechDuration(""))

	long := EstimateSpeechDuration("a roast that goes on and on and on, well past the two second floor, because the author could not stop typing")
	assert.Greater(t, long, 2*time.Second)
}
