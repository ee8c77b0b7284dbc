package agent

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// DefaultAgents returns the seed roster loaded at startup.
func DefaultAgents() []types.Agent {
	return []types.Agent{
		{
			ID:           "agent-a",
			Name:         "Agent Alice",
			Type:         types.AgentTypeAI,
			Status:       types.AgentAvailable,
			Capabilities: []string{"general", "billing", "technical"},
		},
		{
			ID:           "agent-b",
			Name:         "Agent Bob",
			Type:         types.AgentTypeAI,
			Status:       types.AgentAvailable,
			Capabilities: []string{"billing", "refunds", "escalation"},
		},
		{
			ID:           "agent-c",
			Name:         "Agent Carol",
			Type:         types.AgentTypeHuman,
			Status:       types.AgentAvailable,
			Capabilities: []string{"technical", "enterprise", "escalation"},
		},
	}
}

// Registry holds the agent roster and each agent's availability.
// Agents are never removed; only their status changes.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*types.Agent
	order  []string
	logger *zap.Logger
}

// NewRegistry creates a registry seeded with DefaultAgents.
func NewRegistry(logger *zap.Logger) *Registry {
	return NewRegistryWith(DefaultAgents(), logger)
}

// NewRegistryWith creates a registry seeded with the given agents.
// Later duplicates of an id are ignored.
func NewRegistryWith(seed []types.Agent, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		agents: make(map[string]*types.Agent, len(seed)),
		order:  make([]string, 0, len(seed)),
		logger: logger.With(zap.String("component", "agent_registry")),
	}
	for _, a := range seed {
		if _, dup := r.agents[a.ID]; dup {
			continue
		}
		if !a.Status.Valid() {
			a.Status = types.AgentAvailable
		}
		cp := a.Clone()
		r.agents[a.ID] = &cp
		r.order = append(r.order, a.ID)
	}
	return r
}

// List returns every agent in insertion order.
func (r *Registry) List() []types.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Agent, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agents[id].Clone())
	}
	return out
}

// ListAvailable returns agents whose status is available, in insertion order.
func (r *Registry) ListAvailable() []types.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Agent, 0, len(r.order))
	for _, id := range r.order {
		if a := r.agents[id]; a.Status == types.AgentAvailable {
			out = append(out, a.Clone())
		}
	}
	return out
}

// Get returns the agent with the given id.
func (r *Registry) Get(id string) (types.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return types.Agent{}, types.NewNotFoundError("agent", id)
	}
	return a.Clone(), nil
}

// SetStatus sets the agent's status and returns the previous one.
// Setting the current status again is a no-op.
func (r *Registry) SetStatus(id string, status types.AgentStatus) (types.AgentStatus, error) {
	if !status.Valid() {
		return "", types.NewValidationError("invalid agent status: %q", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agents[id]
	if !ok {
		return "", types.NewNotFoundError("agent", id)
	}
	prev := a.Status
	if prev != status {
		a.Status = status
		r.logger.Debug("agent status changed",
			zap.String("agent_id", id),
			zap.String("from", string(prev)),
			zap.String("to", string(status)),
		)
	}
	return prev, nil
}

// Claim marks an available agent busy under one lock. A busy or offline
// agent yields CONFLICT.
func (r *Registry) Claim(id string) (types.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agents[id]
	if !ok {
		return types.Agent{}, types.NewNotFoundError("agent", id)
	}
	if a.Status != types.AgentAvailable {
		return types.Agent{}, types.NewError(types.ErrConflict,
			fmt.Sprintf("agent %s is %s", id, a.Status)).WithHTTPStatus(http.StatusConflict)
	}
	a.Status = types.AgentBusy
	return a.Clone(), nil
}

// ClaimFirstAvailable claims the first available agent in roster order.
func (r *Registry) ClaimFirstAvailable() (types.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		if a := r.agents[id]; a.Status == types.AgentAvailable {
			a.Status = types.AgentBusy
			return a.Clone(), nil
		}
	}
	return types.Agent{}, types.NewError(types.ErrServiceUnavailable, "no agent is available").
		WithHTTPStatus(http.StatusServiceUnavailable)
}
