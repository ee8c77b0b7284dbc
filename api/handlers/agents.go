package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// =============================================================================
// Agent Handler
// =============================================================================

// AgentService is the agent roster as seen by the API.
type AgentService interface {
	ListAgents() []types.Agent
	ListAllAgents() []types.Agent
	SetAgentStatus(agentID string, status types.AgentStatus) error
}

// AgentHandler serves the agent roster.
type AgentHandler struct {
	agents AgentService
	logger *zap.Logger
}

// UpdateAgentStatusRequest is the body of PATCH /api/v1/agents. AgentID is
// taken from the path on PATCH /api/v1/agents/{id}/status.
type UpdateAgentStatusRequest struct {
	AgentID string            `json:"agentId,omitempty"`
	Status  types.AgentStatus `json:"status"`
}

// AgentStatusResponse confirms a status change.
type AgentStatusResponse struct {
	AgentID string            `json:"agentId"`
	Status  types.AgentStatus `json:"status"`
}

// NewAgentHandler creates an agent handler.
func NewAgentHandler(agents AgentService, logger *zap.Logger) *AgentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgentHandler{agents: agents, logger: logger.With(zap.String("handler", "agents"))}
}

// HandleListAgents lists the available agents, or every agent with ?all=true.
// @Router /api/v1/agents [get]
func (h *AgentHandler) HandleListAgents(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	agents := h.agents.ListAgents()
	if all {
		agents = h.agents.ListAllAgents()
	}
	if agents == nil {
		agents = []types.Agent{}
	}
	WriteSuccess(w, agents)
}

// HandleUpdateStatus changes an agent's availability.
// @Router /api/v1/agents [patch]
// @Router /api/v1/agents/{id}/status [patch]
func (h *AgentHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateAgentStatusRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if id := r.PathValue("id"); id != "" {
		req.AgentID = id
	}
	req.AgentID = strings.TrimSpace(req.AgentID)
	if req.AgentID == "" {
		WriteError(w, types.NewValidationError("agentId is required"), h.logger)
		return
	}
	if !req.Status.Valid() {
		WriteError(w, types.NewValidationError("status must be one of available, busy, offline"), h.logger)
		return
	}

	if err := h.agents.SetAgentStatus(req.AgentID, req.Status); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, AgentStatusResponse{AgentID: req.AgentID, Status: req.Status})
}
