package notify

import (
	"context"
	"testing"
	"time"

	"github.com/BaSui01/warmtransfer/testutil"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func brokers(t *testing.T) map[string]func(cap int) Broker {
	return map[string]func(cap int) Broker{
		"memory": func(cap int) Broker { return NewMemoryBroker(cap, zap.NewNop()) },
		"redis": func(cap int) Broker {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return NewRedisBroker(client, "test:", cap, zap.NewNop())
		},
	}
}

func TestBroker_PollDrainsAndCollapses(t *testing.T) {
	for name, newBroker := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			b := newBroker(0)
			ctx := context.Background()

			require.NoError(t, b.Publish(ctx, "agent-b", Event{Type: EventTransferRequest, SessionID: "t1", Token: "old"}))
			require.NoError(t, b.Publish(ctx, "agent-b", Event{Type: EventTransferRequest, SessionID: "t2"}))
			require.NoError(t, b.Publish(ctx, "agent-b", Event{Type: EventTransferRequest, SessionID: "t1", Token: "new"}))
			require.NoError(t, b.Publish(ctx, "agent-b", Event{Type: EventTransferCompleted, SessionID: "t1"}))
			require.NoError(t, b.Publish(ctx, "agent-c", Event{Type: EventTransferRequest, SessionID: "t3"}))

			got, err := b.Poll(ctx, "agent-b")
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "t1", got[0].SessionID)
			assert.Equal(t, "new", got[0].Token)
			assert.Equal(t, "t2", got[1].SessionID)
			assert.Equal(t, EventTransferCompleted, got[2].Type)
			for _, ev := range got {
				assert.Equal(t, "agent-b", ev.AgentID)
				assert.NotEmpty(t, ev.ID)
				assert.False(t, ev.Timestamp.IsZero())
			}

			again, err := b.Poll(ctx, "agent-b")
			require.NoError(t, err)
			assert.Empty(t, again)

			other, err := b.Poll(ctx, "agent-c")
			require.NoError(t, err)
			assert.Len(t, other, 1)
		})
	}
}

func TestBroker_MailboxCap(t *testing.T) {
	for name, newBroker := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			b := newBroker(2)
			ctx := context.Background()
			for _, id := range []string{"t1", "t2", "t3"} {
				require.NoError(t, b.Publish(ctx, "agent-b", Event{Type: EventTransferRequest, SessionID: id}))
			}
			got, err := b.Poll(ctx, "agent-b")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "t2", got[0].SessionID)
			assert.Equal(t, "t3", got[1].SessionID)
		})
	}
}

func TestBroker_Subscribe(t *testing.T) {
	for name, newBroker := range brokers(t) {
		t.Run(name, func(t *testing.T) {
			b := newBroker(0)
			ctx := testutil.TestContext(t)

			ch, cancel, err := b.Subscribe(ctx, "agent-b")
			require.NoError(t, err)

			require.NoError(t, b.Publish(ctx, "agent-b", Event{Type: EventTransferRequest, SessionID: "t1", RoomName: "t1_handoff"}))

			ev, ok := testutil.WaitForChannel(ch, 2*time.Second)
			require.True(t, ok, "no event pushed")
			assert.Equal(t, "t1", ev.SessionID)
			assert.Equal(t, "t1_handoff", ev.RoomName)

			cancel()
			cancel()
			assert.Eventually(t, func() bool {
				select {
				case _, ok := <-ch:
					return !ok
				default:
					return false
				}
			}, 2*time.Second, 10*time.Millisecond)

			got, err := b.Poll(ctx, "agent-b")
			require.NoError(t, err)
			assert.Len(t, got, 1, "pushed events stay in the mailbox until polled")
		})
	}
}

func TestMemoryBroker_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewMemoryBroker(1000, nil)
	_, cancel, err := b.Subscribe(context.Background(), "agent-b")
	require.NoError(t, err)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			_ = b.Publish(context.Background(), "agent-b", Event{Type: EventTransferRequest, SessionID: "t"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Equal(t, 100, b.Pending("agent-b"))
}

func TestCollapse(t *testing.T) {
	assert.Empty(t, Collapse(nil))
	in := []Event{
		{ID: "1", SessionID: "a", Type: EventTransferRequest},
		{ID: "2", SessionID: "a", Type: EventTransferCancelled},
		{ID: "3", SessionID: "a", Type: EventTransferRequest},
	}
	out := Collapse(in)
	require.Len(t, out, 2)
	assert.Equal(t, "3", out[0].ID)
	assert.Equal(t, "2", out[1].ID)
}
