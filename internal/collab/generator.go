package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/roastlab/roast-arena/internal/domain"
)

// Generator produces one short host comeback for an audience roast. It talks
// to a chat-completions style endpoint; any failure is the caller's cue to
// fall back to a canned line.
type Generator struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
}

func NewGenerator(apiURL, apiKey, model string) *Generator {
	return &Generator{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		apiURL:     apiURL,
		apiKey:     apiKey,
		model:      model,
	}
}

func (g *Generator) IsAvailable() bool {
	return g.apiURL != "" && g.apiKey != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const hostAPersona = "You are Host A: dry, deadpan, surgical. One or two sentences, no emoji."
const hostBPersona = "You are Host B: loud, theatrical, gleefully petty. One or two sentences, no emoji."

// Respond generates one comeback line for the given roast against subject,
// voiced by the given host.
func (g *Generator) Respond(ctx context.Context, subject, persona, roast string, host domain.HostID) (string, error) {
	if !g.IsAvailable() {
		return "", fmt.Errorf("generator is not configured")
	}

	system := hostAPersona
	if host == domain.HostB {
		system = hostBPersona
	}
	prompt := fmt.Sprintf(
		"Tonight's roast target is %s. Persona notes: %s\nAn audience member just said: %q\nFire back on the target's behalf. Keep it short and punchy.",
		subject, persona, roast,
	)

	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse generator response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("generator error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("generator returned no choices")
	}

	line := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if line == "" {
		return "", fmt.Errorf("generator returned an empty line")
	}
	return line, nil
}

var cannedLines = map[domain.HostID][]string{
	domain.HostA: {
		"I'd respond to that, but my lawyer says silence is funnier.",
		"Noted. Filed under things that almost landed.",
		"That one grazed me. Barely.",
	},
	domain.HostB: {
		"OH. OH NO. Somebody get this person a trophy and a muzzle!",
		"I felt that in my SOUL and I want a refund!",
		"Security? Yeah, it's happening again.",
	},
}

// FallbackLine returns a canned host line for when generation fails. Keyed by
// index so the same slot always picks the same line.
func FallbackLine(host domain.HostID, index int) string {
	lines := cannedLines[host]
	if len(lines) == 0 {
		lines = cannedLines[domain.HostA]
	}
	return lines[index%len(lines)]
}
