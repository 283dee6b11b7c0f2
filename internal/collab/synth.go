package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/roastlab/roast-arena/internal/domain"
)

// Clip is synthesized speech plus the duration the caller should budget for
// playing it.
type Clip struct {
	Audio    []byte
	Duration time.Duration
	Silent   bool
}

// Synthesizer turns text into speech for one of the two hosts or the
// narrator. Failures are non-fatal: callers substitute a silent clip of a
// plausible duration so playback timing holds up.
type Synthesizer struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
}

func NewSynthesizer(apiURL, apiKey string) *Synthesizer {
	return &Synthesizer{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
		apiKey:     apiKey,
	}
}

func (s *Synthesizer) IsAvailable() bool {
	return s.apiURL != ""
}

type synthRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (s *Synthesizer) Speak(ctx context.Context, text string, voice domain.HostID) (*Clip, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("synthesizer is not configured")
	}

	jsonBody, err := json.Marshal(synthRequest{Text: text, Voice: string(voice)})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesizer returned status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("synthesizer returned no audio")
	}

	return &Clip{Audio: audio, Duration: EstimateSpeechDuration(text)}, nil
}

// SilentClip is the synthesis-failure stand-in: no audio, but a duration that
// keeps the caption cadence plausible.
func SilentClip(text string) *Clip {
	return &Clip{Duration: EstimateSpeechDuration(text), Silent: true}
}

// EstimateSpeechDuration budgets playback time from text length, roughly 15
// characters per second with a 2s floor.
func EstimateSpeechDuration(text string) time.Duration {
	d := time.Duration(len(text)) * time.Second / 15
	if d < 2*time.Second {
		d = 2 * time.Second
	}
	return d
}
