package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/repository"
	"github.com/roastlab/roast-arena/internal/show"
	"github.com/sirupsen/logrus"
)

// Hub fans side-channel events out to connected websocket viewers. Viewers
// are pure followers: they have no authority over round state, and anything
// they miss on this channel they recover by asking for a STATE_SYNC, which
// is always answered from the store.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	stop       chan struct{}
	done       chan struct{}
	stopped    bool

	roundStateRepo repository.RoundStateRepository
	snapshotRepo   repository.SnapshotRepository
	bridge         *Bridge
	log            *logrus.Logger

	mu sync.RWMutex
}

func NewHub(roundStateRepo repository.RoundStateRepository, snapshotRepo repository.SnapshotRepository, bridge *Bridge, log *logrus.Logger) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *Message, 64),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
		roundStateRepo: roundStateRepo,
		snapshotRepo:   snapshotRepo,
		bridge:         bridge,
		log:            log,
	}
}

// Run pumps registrations and broadcasts. Start the Redis subscription with
// ListenSideChannel alongside it.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

// ListenSideChannel subscribes to the Redis bridge and forwards everything
// to connected viewers, snapshots annotated with a precomputed follower view.
func (h *Hub) ListenSideChannel(ctx context.Context) {
	h.bridge.Subscribe(ctx, func(env sideChannelEnvelope) {
		switch env.Kind {
		case "snapshot":
			if env.Snapshot == nil {
				return
			}
			msg, err := NewMessage(MessageTypeSnapshot, snapshotPayload(env.Snapshot, time.Now()))
			if err != nil {
				return
			}
			h.Broadcast(msg)
		case "chatter":
			if env.Chatter == nil {
				return
			}
			msg, err := NewMessage(MessageTypeChatter, env.Chatter)
			if err != nil {
				return
			}
			h.Broadcast(msg)
		}
	})
}

// SnapshotPayload pairs the raw snapshot with the view a follower observing
// it right now should render, seek offset included.
type SnapshotPayload struct {
	Snapshot *domain.PlaybackSnapshot `json:"snapshot"`
	View     show.FollowerView        `json:"view"`
}

func snapshotPayload(snap *domain.PlaybackSnapshot, now time.Time) SnapshotPayload {
	return SnapshotPayload{
		Snapshot: snap,
		View:     show.Reconstruct(snap, now),
	}
}

// StateSyncPayload answers a viewer's SYNC_STATE from the store: the global
// round state plus the active session's latest snapshot, if any.
type StateSyncPayload struct {
	Round    *domain.GlobalRoundState `json:"round"`
	Snapshot *domain.PlaybackSnapshot `json:"snapshot,omitempty"`
	View     *show.FollowerView       `json:"view,omitempty"`
}

// handleSyncState is the recovery path for missed notifications and late
// joiners: the reply is built entirely from the store, never from hub memory.
func (h *Hub) handleSyncState(ctx context.Context, client *Client) {
	payload := StateSyncPayload{}

	state, err := h.roundStateRepo.Get(ctx)
	if err != nil {
		client.sendError("STORE_UNAVAILABLE", "could not read round state")
		return
	}
	payload.Round = state

	if state != nil && state.ActiveSessionID != nil {
		snap, err := h.snapshotRepo.Get(ctx, *state.ActiveSessionID)
		if err == nil && snap != nil {
			view := show.Reconstruct(snap, time.Now())
			payload.Snapshot = snap
			payload.View = &view
		}
	}

	msg, err := NewMessage(MessageTypeStateSync, payload)
	if err != nil {
		return
	}
	client.Send(msg)
}

func (h *Hub) Broadcast(msg *Message) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("hub broadcast queue full, dropping message")
	}
}

func (h *Hub) broadcastMessage(msg *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.Send(msg)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()
	if stopped {
		return
	}
	select {
	case h.unregister <- client:
	default:
	}
}

// Stop shuts the hub down and waits for Run to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

// ViewerCount reports connected followers.
func (h *Hub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
