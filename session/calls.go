package session

import (
	"sort"
	"sync"
	"time"

	"github.com/BaSui01/warmtransfer/types"
)

// CallBook tracks live customer calls in memory.
type CallBook struct {
	mu    sync.RWMutex
	calls map[string]*types.CallSession
}

// NewCallBook creates an empty call book.
func NewCallBook() *CallBook {
	return &CallBook{calls: make(map[string]*types.CallSession)}
}

// Put stores a call, replacing any call with the same id.
func (b *CallBook) Put(c types.CallSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := c
	b.calls[c.ID] = &cp
}

// Get returns the call with the given id.
func (b *CallBook) Get(id string) (types.CallSession, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, ok := b.calls[id]
	if !ok {
		return types.CallSession{}, types.NewNotFoundError("call", id)
	}
	return *c, nil
}

// FindByRoom returns the most recent call held in the given room.
func (b *CallBook) FindByRoom(room string) (types.CallSession, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var found *types.CallSession
	for _, c := range b.calls {
		if c.RoomName != room {
			continue
		}
		if found == nil || c.CreatedAt.After(found.CreatedAt) {
			found = c
		}
	}
	if found == nil {
		return types.CallSession{}, false
	}
	return *found, true
}

// Update applies fn to the call under the write lock.
func (b *CallBook) Update(id string, fn func(c *types.CallSession)) (types.CallSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.calls[id]
	if !ok {
		return types.CallSession{}, types.NewNotFoundError("call", id)
	}
	fn(c)
	return *c, nil
}

// SweepEnded drops calls that ended before cutoff and returns how many
// were removed.
func (b *CallBook) SweepEnded(cutoff time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for id, c := range b.calls {
		if c.Status == types.CallEnded && c.EndedAt != nil && c.EndedAt.Before(cutoff) {
			delete(b.calls, id)
			n++
		}
	}
	return n
}

// List returns all calls, oldest first.
func (b *CallBook) List() []types.CallSession {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]types.CallSession, 0, len(b.calls))
	for _, c := range b.calls {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ActiveCount returns how many calls have not ended.
func (b *CallBook) ActiveCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, c := range b.calls {
		if c.Status != types.CallEnded {
			n++
		}
	}
	return n
}
