package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Transcriber is the speech-to-text collaborator. Best effort only; the
// submission path proceeds with a placeholder transcript when it fails.
type Transcriber struct {
	httpClient *http.Client
	apiURL     string
}

func NewTranscriber(apiURL string) *Transcriber {
	return &Transcriber{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     apiURL,
	}
}

func (t *Transcriber) IsAvailable() bool {
	return t.apiURL != ""
}

type transcribeResponse struct {
	Text string `json:"text"`
}

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if !t.IsAvailable() {
		return "", fmt.Errorf("transcriber is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, bytes.NewReader(audio))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcriber returned status %d", resp.StatusCode)
	}

	var out transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", fmt.Errorf("transcriber returned empty text")
	}
	return text, nil
}
