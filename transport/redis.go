package transport

import (
	"betstream/contract"
	"betstream/domain"
	"betstream/domain/event"
	"betstream/errors"
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// RedisTransport carries channel events over Redis pub/sub and presence
// over per-channel sets. One Redis subscription per (channel, component)
// attachment; Redis preserves publish order within a single channel, which
// is what the stream manager relies on.
type RedisTransport struct {
	log      *slog.Logger
	rdb      *redis.Client
	registry *Registry
}

func NewRedisTransport(log *slog.Logger, rdb *redis.Client) *RedisTransport {
	return &RedisTransport{log: log, rdb: rdb, registry: NewRegistry()}
}

func (t *RedisTransport) Subscribe(channel domain.ChannelID, component string, sink contract.EventSink) (contract.Subscription, error) {
	if channel == "" {
		return nil, fmt.Errorf("%w: empty channel", errors.ErrSubscription)
	}
	if err := t.registry.Register(channel, component, sink); err != nil {
		return nil, err
	}

	ctx := context.Background()
	pubsub := t.rdb.Subscribe(ctx, eventsKey(channel))
	if _, err := pubsub.Receive(ctx); err != nil {
		t.registry.Unregister(channel, component)
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrSubscription, err)
	}

	// Synthesize the sync snapshot from the presence set, the same
	// full-state event the in-memory hub hands a fresh subscriber.
	members, err := t.rdb.SMembers(ctx, presenceKey(channel)).Result()
	if err != nil {
		t.registry.Unregister(channel, component)
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: %v", errors.ErrSubscription, err)
	}
	sub := &redisSubscription{
		transport: t,
		channel:   channel,
		component: component,
		pubsub:    pubsub,
	}
	go t.receive(channel, pubsub, sink, event.PresenceSync{ChannelID: channel, Keys: members})
	return sub, nil
}

// receive is the single consumer of one subscription's message stream.
// The sync snapshot goes out first, then broker messages in the order Redis
// delivered them.
func (t *RedisTransport) receive(channel domain.ChannelID, pubsub *redis.PubSub, sink contract.EventSink, sync event.PresenceSync) {
	ctx := context.Background()
	if err := sink.Consume(ctx, sync); err != nil {
		t.log.Warn("Sink failed to consume sync snapshot", "channel", channel, "error", err)
	}
	for msg := range pubsub.Channel() {
		e, err := decodeEvent([]byte(msg.Payload))
		if err != nil {
			t.log.Warn("Dropping undecodable event", "channel", channel, "error", err)
			continue
		}
		if err = sink.Consume(ctx, e); err != nil {
			t.log.Warn("Sink failed to consume event",
				"channel", channel, "event", fmt.Sprintf("%T", e), "error", err)
		}
	}
}

func (t *RedisTransport) Publish(ctx context.Context, e event.ChannelEvent) error {
	if err := validateEvent(e); err != nil {
		return err
	}
	payload, err := encodeEvent(e)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	if err = t.rdb.Publish(ctx, eventsKey(e.Channel()), payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	return nil
}

type redisSubscription struct {
	transport *RedisTransport
	channel   domain.ChannelID
	component string
	pubsub    *redis.PubSub
	tracked   string
}

func (s *redisSubscription) Track(ctx context.Context, entry domain.PresenceEntry) error {
	t := s.transport
	if err := t.rdb.SAdd(ctx, presenceKey(s.channel), entry.UserID).Err(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrWrite, err)
	}
	s.tracked = entry.UserID
	return t.Publish(ctx, event.PresenceJoin{ChannelID: s.channel, Entry: entry})
}

func (s *redisSubscription) Close() {
	t := s.transport
	ctx := context.Background()
	if s.tracked != "" {
		if err := t.rdb.SRem(ctx, presenceKey(s.channel), s.tracked).Err(); err != nil {
			t.log.Warn("Failed to remove presence entry", "channel", s.channel, "error", err)
		}
		if err := t.Publish(ctx, event.PresenceLeave{ChannelID: s.channel, UserID: s.tracked}); err != nil {
			t.log.Warn("Failed to announce leave", "channel", s.channel, "error", err)
		}
		s.tracked = ""
	}
	_ = s.pubsub.Close()
	t.registry.Unregister(s.channel, s.component)
}
