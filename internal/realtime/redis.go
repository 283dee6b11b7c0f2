package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/roastlab/roast-arena/internal/domain"
	"github.com/roastlab/roast-arena/internal/show"
	"github.com/sirupsen/logrus"
)

// Bridge is the Redis leg of the snapshot side-channel. The engine publishes
// here; every server instance's hub subscribes and fans out to its websocket
// viewers. Delivery is best effort: a dropped message is recovered by the
// viewer's next STATE_SYNC read against the store.
type Bridge struct {
	rdb     *redis.Client
	channel string
	log     *logrus.Logger
}

func NewBridge(addr string, db int, channel string, log *logrus.Logger) (*Bridge, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Bridge{rdb: rdb, channel: channel, log: log}, nil
}

// sideChannelEnvelope is what travels over Redis: either a snapshot or a
// chatter line, tagged by kind.
type sideChannelEnvelope struct {
	Kind     string                   `json:"kind"` // "snapshot" or "chatter"
	Snapshot *domain.PlaybackSnapshot `json:"snapshot,omitempty"`
	Chatter  *show.ChatterEvent       `json:"chatter,omitempty"`
}

func (b *Bridge) PublishSnapshot(ctx context.Context, snap *domain.PlaybackSnapshot) error {
	return b.publish(ctx, sideChannelEnvelope{Kind: "snapshot", Snapshot: snap})
}

func (b *Bridge) PublishChatter(ctx context.Context, event show.ChatterEvent) error {
	return b.publish(ctx, sideChannelEnvelope{Kind: "chatter", Chatter: &event})
}

func (b *Bridge) publish(ctx context.Context, env sideChannelEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, data).Err()
}

// Subscribe feeds decoded envelopes to handle until the context is canceled.
func (b *Bridge) Subscribe(ctx context.Context, handle func(sideChannelEnvelope)) {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env sideChannelEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.WithError(err).Warn("dropped malformed side-channel message")
				continue
			}
			handle(env)
		}
	}
}

func (b *Bridge) Close() error {
	return b.rdb.Close()
}

var _ show.Publisher = (*Bridge)(nil)
