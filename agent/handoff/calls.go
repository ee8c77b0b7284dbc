package handoff

import (
	"context"
	"errors"
	"strings"

	"github.com/BaSui01/warmtransfer/rtc"
	"github.com/BaSui01/warmtransfer/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// StartCall opens a customer call and assigns an agent to it. The agent
// is claimed before any room work and released again if the call cannot
// be opened.
func (o *Orchestrator) StartCall(ctx context.Context, req StartCallRequest) (res *StartCallResult, err error) {
	callerID := strings.TrimSpace(req.CallerID)
	if callerID == "" {
		callerID = "caller_" + shortID()
	}

	ag, err := o.claimAgent(req.AgentID)
	if err != nil {
		return nil, err
	}
	o.metrics.RecordAgentStatus(ag.ID, types.AgentBusy)
	defer func() {
		if err != nil {
			o.setStatus(ag.ID, types.AgentAvailable)
		}
	}()

	room := strings.TrimSpace(req.RoomName)
	if room == "" {
		room = "call_" + shortID()
		if _, err := o.rooms.CreateRoom(ctx, room); err != nil {
			return nil, types.NewCollaboratorError(types.ErrRoomCreationFailed,
				"failed to create call room "+room, err)
		}
	}

	call := types.CallSession{
		ID:        uuid.NewString(),
		RoomName:  room,
		CallerID:  callerID,
		AgentID:   ag.ID,
		Status:    types.CallActive,
		CreatedAt: o.now(),
	}

	callerToken, err := o.rooms.IssueToken(rtc.TokenRequest{
		Room:     room,
		Identity: callerID,
		Metadata: TokenMetadata{Role: RoleCaller, CallID: call.ID}.encode(),
	})
	if err != nil {
		return nil, tokenError(err)
	}
	agentToken, err := o.rooms.IssueToken(rtc.TokenRequest{
		Room:     room,
		Identity: ag.ID,
		Name:     ag.Name,
		Metadata: TokenMetadata{Role: RoleAgentA, CallID: call.ID}.encode(),
	})
	if err != nil {
		return nil, tokenError(err)
	}

	o.calls.Put(call)

	o.logger.Info("call started",
		zap.String("call_id", call.ID),
		zap.String("room", room),
		zap.String("agent_id", ag.ID),
	)
	return &StartCallResult{Call: call, CallerToken: callerToken, AgentToken: agentToken}, nil
}

// claimAgent marks the requested agent, or the first available one, busy.
func (o *Orchestrator) claimAgent(id string) (types.Agent, error) {
	if id != "" {
		return o.agents.Claim(id)
	}
	return o.agents.ClaimFirstAvailable()
}

// EndCall ends a call, tears down its rooms and releases the serving agent.
// Ending an ended call returns it unchanged.
func (o *Orchestrator) EndCall(ctx context.Context, callID string) (types.CallSession, error) {
	var already, transferring bool
	call, err := o.calls.Update(callID, func(c *types.CallSession) {
		if c.Status == types.CallEnded {
			already = true
			return
		}
		transferring = c.Status == types.CallTransferring
		now := o.now()
		c.Status = types.CallEnded
		c.EndedAt = &now
	})
	if err != nil || already {
		return call, err
	}

	o.deleteRoom(ctx, call.RoomName)
	switch {
	case transferring:
		// An open handoff is cancelled along with its call.
		if _, err := o.CancelTransfer(ctx, call.TransferID); err != nil {
			o.logger.Warn("failed to cancel transfer of ended call",
				zap.String("call_id", call.ID), zap.String("transfer_id", call.TransferID), zap.Error(err))
		}
	case call.TransferID != "":
		if s, err := o.sessions.Get(ctx, call.TransferID); err == nil {
			o.deleteRoom(ctx, s.TransferRoomName)
		}
	}

	o.setStatus(call.AgentID, types.AgentAvailable)
	if o.transcripts != nil {
		o.transcripts.Clear(call.ID)
	}

	o.logger.Info("call ended", zap.String("call_id", call.ID), zap.String("room", call.RoomName))
	return call, nil
}

func (o *Orchestrator) deleteRoom(ctx context.Context, room string) {
	err := o.rooms.DeleteRoom(ctx, room)
	if err != nil && !errors.Is(err, rtc.ErrRoomNotFound) {
		o.logger.Warn("failed to delete room", zap.String("room", room), zap.Error(err))
	}
}

// GetCall returns a call by id.
func (o *Orchestrator) GetCall(callID string) (types.CallSession, error) {
	return o.calls.Get(callID)
}
