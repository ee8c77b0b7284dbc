package types

// AgentType distinguishes AI agents from human agents.
type AgentType string

const (
	AgentTypeAI    AgentType = "ai"
	AgentTypeHuman AgentType = "human"
)

// AgentStatus is the availability of an agent.
type AgentStatus string

const (
	AgentAvailable AgentStatus = "available"
	AgentBusy      AgentStatus = "busy"
	AgentOffline   AgentStatus = "offline"
)

// Valid reports whether s is one of the known statuses.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentAvailable, AgentBusy, AgentOffline:
		return true
	}
	return false
}

// Agent is a participant able to take calls.
type Agent struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Type         AgentType   `json:"type"`
	Status       AgentStatus `json:"status"`
	Capabilities []string    `json:"capabilities"`
}

// Clone returns a deep copy so callers cannot mutate registry state.
func (a Agent) Clone() Agent {
	out := a
	out.Capabilities = append([]string(nil), a.Capabilities...)
	return out
}

// Specialization is the agent's primary capability, or "" when it has none.
func (a Agent) Specialization() string {
	if len(a.Capabilities) == 0 {
		return ""
	}
	return a.Capabilities[0]
}
