package handoff

import (
	"encoding/json"
	"time"

	"github.com/BaSui01/warmtransfer/types"
)

// Participant roles carried in room token metadata.
const (
	RoleAgentA = "agent-a"
	RoleAgentB = "agent-b"
	RoleCaller = "caller"
)

// InitiateRequest starts a warm transfer from Agent A to Agent B.
// When Transcript is empty the transcript recorded for the call held in
// OriginalRoomName is used instead.
type InitiateRequest struct {
	OriginalRoomName string             `json:"originalRoomName"`
	CallerID         string             `json:"callerId"`
	AgentAID         string             `json:"agentAId"`
	AgentBID         string             `json:"agentBId"`
	Transcript       []string           `json:"transcript,omitempty"`
	CallContext      *types.CallContext `json:"callContext,omitempty"`
}

// InitiateTokens grants both agents access to the handoff room.
type InitiateTokens struct {
	AgentA string `json:"agentA"`
	AgentB string `json:"agentB"`
}

// InitiateResult is returned once every step of the initiation succeeded.
type InitiateResult struct {
	TransferID       string             `json:"transferId"`
	TransferRoomName string             `json:"transferRoomName"`
	Briefing         types.Briefing     `json:"briefing"`
	Analysis         types.CallAnalysis `json:"analysis"`
	Tokens           InitiateTokens     `json:"tokens"`
}

// CompleteRequest hands the live call to Agent B. CallerID and AgentBID
// default to the values recorded on the session.
type CompleteRequest struct {
	TransferID string `json:"transferId"`
	CallerID   string `json:"callerId,omitempty"`
	AgentBID   string `json:"agentBId,omitempty"`
}

// CompleteTokens grants the caller and Agent B access to the original room.
type CompleteTokens struct {
	Caller string `json:"caller"`
	AgentB string `json:"agentB"`
}

// CompleteResult reports a completed transfer. AlreadyCompleted is set when
// another request performed the transition; tokens are freshly issued either
// way.
type CompleteResult struct {
	Success          bool                   `json:"success"`
	AlreadyCompleted bool                   `json:"alreadyCompleted,omitempty"`
	Tokens           CompleteTokens         `json:"tokens"`
	OriginalRoomName string                 `json:"originalRoomName"`
	Session          *types.TransferSession `json:"session"`
}

// CancelResult reports a cancelled transfer.
type CancelResult struct {
	TransferID       string               `json:"transferId"`
	Status           types.TransferStatus `json:"status"`
	AlreadyCancelled bool                 `json:"alreadyCancelled,omitempty"`
}

// StartCallRequest opens a customer call. An empty RoomName creates a new
// room; an empty AgentID picks the first available agent.
type StartCallRequest struct {
	CallerID string `json:"callerId,omitempty"`
	RoomName string `json:"roomName,omitempty"`
	AgentID  string `json:"agentId,omitempty"`
}

// StartCallResult carries the call and the tokens for both parties.
type StartCallResult struct {
	Call        types.CallSession `json:"call"`
	CallerToken string            `json:"callerToken"`
	AgentToken  string            `json:"agentToken"`
}

// TokenMetadata is the JSON attached to every room token so media clients
// and downstream systems can correlate participants with a transfer.
type TokenMetadata struct {
	Role            string `json:"role"`
	TransferID      string `json:"transferId,omitempty"`
	CallID          string `json:"callId,omitempty"`
	Briefing        string `json:"briefing,omitempty"`
	Notes           string `json:"notes,omitempty"`
	TransferredFrom string `json:"transferredFrom,omitempty"`
}

func (m TokenMetadata) encode() string {
	b, _ := json.Marshal(m)
	return string(b)
}

// Recorder receives orchestration metrics.
type Recorder interface {
	RecordTransferTransition(from, to types.TransferStatus)
	RecordTransferOperation(op, outcome string, d time.Duration)
	RecordAgentStatus(agentID string, status types.AgentStatus)
	RecordNotification(eventType string, delivered bool)
	RecordSweep(removed int)
}

type nopRecorder struct{}

func (nopRecorder) RecordTransferTransition(types.TransferStatus, types.TransferStatus) {}
func (nopRecorder) RecordTransferOperation(string, string, time.Duration)               {}
func (nopRecorder) RecordAgentStatus(string, types.AgentStatus)                         {}
func (nopRecorder) RecordNotification(string, bool)                                     {}
func (nopRecorder) RecordSweep(int)                                                     {}
