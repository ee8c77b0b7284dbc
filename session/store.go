package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/BaSui01/warmtransfer/types"
)

// ErrConflict is returned by CompareAndSwap when the stored version no longer
// matches the expected one.
var ErrConflict = errors.New("session: version conflict")

// ErrExists is returned by Create when the id is already taken.
var ErrExists = errors.New("session: already exists")

// Store is the persistence boundary for transfer sessions.
//
// Implementations must make CompareAndSwap atomic: the write happens only if
// the stored version equals expected, and the stored version becomes
// expected+1. Returned sessions are copies owned by the caller.
type Store interface {
	Create(ctx context.Context, s *types.TransferSession) error
	Get(ctx context.Context, id string) (*types.TransferSession, error)
	CompareAndSwap(ctx context.Context, id string, expected int64, next *types.TransferSession) error
	List(ctx context.Context) ([]*types.TransferSession, error)
	Delete(ctx context.Context, id string) error
}

// CompletedSweeper is implemented by stores that can delete expired completed
// sessions without listing them first.
type CompletedSweeper interface {
	DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// =============================================================================
// In-memory store
// =============================================================================

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.TransferSession
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*types.TransferSession)}
}

func (m *MemoryStore) Create(_ context.Context, s *types.TransferSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; ok {
		return ErrExists
	}
	cp := s.Clone()
	if cp.Version == 0 {
		cp.Version = 1
	}
	m.sessions[s.ID] = cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*types.TransferSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, types.NewNotFoundError("transfer session", id)
	}
	return s.Clone(), nil
}

func (m *MemoryStore) CompareAndSwap(_ context.Context, id string, expected int64, next *types.TransferSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.sessions[id]
	if !ok {
		return types.NewNotFoundError("transfer session", id)
	}
	if cur.Version != expected {
		return ErrConflict
	}
	cp := next.Clone()
	cp.ID = id
	cp.Version = expected + 1
	m.sessions[id] = cp
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*types.TransferSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*types.TransferSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	sortByCreated(out)
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func sortByCreated(list []*types.TransferSession) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
