package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker keeps mailboxes as Redis lists and pushes live events over
// Redis Pub/Sub, so any replica can publish to an agent connected elsewhere.
type RedisBroker struct {
	client redis.UniversalClient
	prefix string
	cap    int
	logger *zap.Logger
}

// NewRedisBroker creates a broker. An empty prefix selects "warmtransfer:".
func NewRedisBroker(client redis.UniversalClient, prefix string, mailboxCap int, logger *zap.Logger) *RedisBroker {
	if prefix == "" {
		prefix = "warmtransfer:"
	}
	if mailboxCap <= 0 {
		mailboxCap = DefaultMailboxCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroker{
		client: client,
		prefix: prefix,
		cap:    mailboxCap,
		logger: logger.With(zap.String("component", "notify"), zap.String("backend", "redis")),
	}
}

func (b *RedisBroker) mailbox(agentID string) string { return b.prefix + "notify:" + agentID }
func (b *RedisBroker) channel(agentID string) string { return b.prefix + "notify:live:" + agentID }

func (b *RedisBroker) Publish(ctx context.Context, agentID string, ev Event) error {
	ev = stamp(agentID, ev)
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	_, err = b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, b.mailbox(agentID), data)
		p.LTrim(ctx, b.mailbox(agentID), int64(-b.cap), -1)
		p.Publish(ctx, b.channel(agentID), data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (b *RedisBroker) Poll(ctx context.Context, agentID string) ([]Event, error) {
	var lrange *redis.StringSliceCmd
	_, err := b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		lrange = p.LRange(ctx, b.mailbox(agentID), 0, -1)
		p.Del(ctx, b.mailbox(agentID))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("drain mailbox: %w", err)
	}

	raw := lrange.Val()
	events := make([]Event, 0, len(raw))
	for _, s := range raw {
		var ev Event
		if err := json.Unmarshal([]byte(s), &ev); err != nil {
			b.logger.Warn("dropping undecodable event", zap.String("agent_id", agentID), zap.Error(err))
			continue
		}
		events = append(events, ev)
	}
	return Collapse(events), nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, agentID string) (<-chan Event, func(), error) {
	ps := b.client.Subscribe(ctx, b.channel(agentID))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, fmt.Errorf("subscribe: %w", err)
	}

	out := make(chan Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := ps.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn("dropping undecodable event", zap.String("agent_id", agentID), zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}
	return out, cancel, nil
}
