package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// ErrUnchanged may be returned by an Update mutator to skip the write.
// Update then returns the current session and a nil error.
var ErrUnchanged = errors.New("session: unchanged")

const defaultMaxAttempts = 8

// CreateParams describes a new transfer session.
type CreateParams struct {
	OriginalRoomName string
	CallerID         string
	AgentAID         string
	AgentBID         string
	CallContext      types.CallContext
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithMaxAttempts bounds the optimistic update loop.
func WithMaxAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// Manager implements session lifecycle operations on top of a Store.
type Manager struct {
	store       Store
	now         func() time.Time
	maxAttempts int
	logger      *zap.Logger
}

// NewManager creates a session manager.
func NewManager(store Store, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		store:       store,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
		logger:      logger.With(zap.String("component", "session_manager")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying store.
func (m *Manager) Store() Store { return m.store }

// CreateTransferSession persists a new session in the initiated state.
func (m *Manager) CreateTransferSession(ctx context.Context, p CreateParams) (*types.TransferSession, error) {
	now := m.now()
	cc := p.CallContext
	if cc.StartTime.IsZero() {
		cc.StartTime = now
	}

	s := &types.TransferSession{
		OriginalRoomName: p.OriginalRoomName,
		CallerID:         p.CallerID,
		AgentAID:         p.AgentAID,
		AgentBID:         p.AgentBID,
		Status:           types.TransferInitiated,
		CallContext:      cc,
		CreatedAt:        now,
		Version:          1,
	}

	// A collision needs two ids in the same millisecond with equal random
	// suffixes; retry a couple of times rather than fail.
	var err error
	for i := 0; i < 3; i++ {
		s.ID = NewTransferID(now)
		s.TransferRoomName = TransferRoomName(s.ID)
		if err = m.store.Create(ctx, s); !errors.Is(err, ErrExists) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create transfer session: %w", err)
	}

	m.logger.Info("transfer session created",
		zap.String("transfer_id", s.ID),
		zap.String("room", s.OriginalRoomName),
		zap.String("agent_a", s.AgentAID),
		zap.String("agent_b", s.AgentBID),
	)
	return s.Clone(), nil
}

// Get returns the session with the given id.
func (m *Manager) Get(ctx context.Context, id string) (*types.TransferSession, error) {
	return m.store.Get(ctx, id)
}

// Update applies fn to the latest version of the session and writes the
// result with compare-and-swap, retrying on concurrent modification.
// fn receives a private copy; returning an error aborts without writing.
func (m *Manager) Update(ctx context.Context, id string, fn func(s *types.TransferSession) error) (*types.TransferSession, error) {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cur, err := m.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		expected := cur.Version

		next := cur.Clone()
		if err := fn(next); err != nil {
			if errors.Is(err, ErrUnchanged) {
				return cur, nil
			}
			return nil, err
		}

		err = m.store.CompareAndSwap(ctx, id, expected, next)
		if err == nil {
			next.ID = id
			next.Version = expected + 1
			return next, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		m.logger.Debug("session update conflict, retrying",
			zap.String("transfer_id", id),
			zap.Int("attempt", attempt),
		)
	}

	return nil, types.NewError(types.ErrConflict,
		fmt.Sprintf("transfer session %s is being modified concurrently", id)).
		WithHTTPStatus(http.StatusConflict).
		WithCause(ErrConflict).
		WithRetryable(true)
}

// ListActive returns every session that has not completed.
func (m *Manager) ListActive(ctx context.Context) ([]*types.TransferSession, error) {
	all, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, s := range all {
		if s.Status != types.TransferCompleted {
			out = append(out, s)
		}
	}
	return out, nil
}

// Sweep deletes completed sessions whose completion is older than maxAge.
// Sessions in any other state are never removed.
func (m *Manager) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := m.now().Add(-maxAge)

	if sw, ok := m.store.(CompletedSweeper); ok {
		n, err := sw.DeleteCompletedBefore(ctx, cutoff)
		if err != nil {
			return n, fmt.Errorf("sweep sessions: %w", err)
		}
		m.logSweep(n, maxAge)
		return n, nil
	}

	all, err := m.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	removed := 0
	for _, s := range all {
		if !expired(s, cutoff) {
			continue
		}
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return removed, fmt.Errorf("sweep session %s: %w", s.ID, err)
		}
		removed++
	}
	m.logSweep(removed, maxAge)
	return removed, nil
}

func (m *Manager) logSweep(n int, maxAge time.Duration) {
	if n > 0 {
		m.logger.Info("swept completed transfer sessions",
			zap.Int("removed", n),
			zap.Duration("max_age", maxAge),
		)
	}
}

func expired(s *types.TransferSession, cutoff time.Time) bool {
	return s.Status == types.TransferCompleted &&
		s.CompletedAt != nil &&
		s.CompletedAt.Before(cutoff)
}
