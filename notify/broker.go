// Package notify relays transfer events to agents. Each agent id is a topic:
// events wait in a mailbox until the agent polls (drain) and are also pushed
// to live subscribers such as websocket streams.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType names a notification.
type EventType string

const (
	EventTransferRequest   EventType = "transfer_request"
	EventTransferCompleted EventType = "transfer_completed"
	EventTransferCancelled EventType = "transfer_cancelled"
)

// Event is one notification for an agent.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	AgentID   string    `json:"agentId"`
	SessionID string    `json:"sessionId"`
	RoomName  string    `json:"roomName,omitempty"`
	Token     string    `json:"token,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Broker is the publish/subscribe relay.
type Broker interface {
	// Publish appends ev to agentID's mailbox and fans it out to subscribers.
	Publish(ctx context.Context, agentID string, ev Event) error
	// Poll drains agentID's mailbox.
	Poll(ctx context.Context, agentID string) ([]Event, error)
	// Subscribe streams events published after the call. The returned func
	// unsubscribes and closes the channel.
	Subscribe(ctx context.Context, agentID string) (<-chan Event, func(), error)
}

// stamp fills the identity fields a publisher may leave empty.
func stamp(agentID string, ev Event) Event {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	ev.AgentID = agentID
	return ev
}

// Collapse keeps the latest event per (SessionID, Type), in the order each
// key was first seen.
func Collapse(events []Event) []Event {
	type key struct {
		session string
		typ     EventType
	}
	index := make(map[key]int, len(events))
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		k := key{ev.SessionID, ev.Type}
		if i, ok := index[k]; ok {
			out[i] = ev
			continue
		}
		index[k] = len(out)
		out = append(out, ev)
	}
	return out
}

// DefaultMailboxCap bounds each agent's mailbox; the oldest events are
// dropped beyond it.
const DefaultMailboxCap = 100

// MemoryBroker is the in-process Broker.
type MemoryBroker struct {
	mu        sync.Mutex
	mailboxes map[string][]Event
	subs      map[string]map[int]chan Event
	nextSub   int
	cap       int
	logger    *zap.Logger
}

// NewMemoryBroker creates a broker; mailboxCap <= 0 means DefaultMailboxCap.
func NewMemoryBroker(mailboxCap int, logger *zap.Logger) *MemoryBroker {
	if mailboxCap <= 0 {
		mailboxCap = DefaultMailboxCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryBroker{
		mailboxes: make(map[string][]Event),
		subs:      make(map[string]map[int]chan Event),
		cap:       mailboxCap,
		logger:    logger.With(zap.String("component", "notify")),
	}
}

func (b *MemoryBroker) Publish(_ context.Context, agentID string, ev Event) error {
	ev = stamp(agentID, ev)

	b.mu.Lock()
	defer b.mu.Unlock()

	box := append(b.mailboxes[agentID], ev)
	if over := len(box) - b.cap; over > 0 {
		box = append([]Event(nil), box[over:]...)
	}
	b.mailboxes[agentID] = box

	for _, ch := range b.subs[agentID] {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("subscriber too slow, event not pushed",
				zap.String("agent_id", agentID), zap.String("event_id", ev.ID))
		}
	}
	return nil
}

func (b *MemoryBroker) Poll(_ context.Context, agentID string) ([]Event, error) {
	b.mu.Lock()
	box := b.mailboxes[agentID]
	delete(b.mailboxes, agentID)
	b.mu.Unlock()
	return Collapse(box), nil
}

func (b *MemoryBroker) Subscribe(_ context.Context, agentID string) (<-chan Event, func(), error) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	if b.subs[agentID] == nil {
		b.subs[agentID] = make(map[int]chan Event)
	}
	b.subs[agentID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[agentID], id)
			if len(b.subs[agentID]) == 0 {
				delete(b.subs, agentID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}

// Pending returns the mailbox length for agentID.
func (b *MemoryBroker) Pending(agentID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.mailboxes[agentID])
}
