package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/realtime"
	"github.com/roastlab/roast-arena/internal/show"
)

type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) SubmitRoast(text string) error {
	body, _ := json.Marshal(map[string]string{"text": text})
	resp, err := c.httpClient.Post(c.baseURL+"/api/v1/roasts", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *apiClient) GetRound() (*domain.GlobalRoundState, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/api/v1/round")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var state domain.GlobalRoundState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

// watch joins as a follower, requests a state sync, and prints everything
// the side-channel delivers.
func watch(apiURL string) error {
	wsURL := "ws" + strings.TrimPrefix(apiURL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	syncReq, err := realtime.NewMessage(realtime.MessageTypeSyncState, nil)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(syncReq); err != nil {
		return err
	}

	for {
		var msg realtime.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		switch msg.Type {
		case realtime.MessageTypeStateSync:
			var payload realtime.StateSyncPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			if payload.Round != nil {
				fmt.Printf("[sync] phase=%s index=%d/%d\n",
					payload.Round.Phase, payload.Round.CurrentRoastIndex, payload.Round.TotalRoasts)
			}
			if payload.View != nil {
				printView(*payload.View)
			}
		case realtime.MessageTypeSnapshot:
			var payload realtime.SnapshotPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			printView(payload.View)
		case realtime.MessageTypeChatter:
			var event show.ChatterEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				continue
			}
			fmt.Printf("[chatter] %s\n", event.Line)
		}
	}
}

func printView(view show.FollowerView) {
	audio := ""
	if view.PlayAudio {
		audio = fmt.Sprintf(" audio=%s@%s", view.AudioURL, view.SeekOffset)
	}
	fmt.Printf("[%s] item=%d speaker=%s%s %q\n", view.Phase, view.ItemIndex, view.Speaker, audio, view.Caption)
}
