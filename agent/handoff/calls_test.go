package handoff

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/BaSui01/warmtransfer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartCall_NewRoom(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.orch.StartCall(ctx, StartCallRequest{})
	require.NoError(t, err)

	call := res.Call
	assert.True(t, strings.HasPrefix(call.RoomName, "call_"))
	assert.True(t, strings.HasPrefix(call.CallerID, "caller_"))
	assert.Equal(t, "agent-a", call.AgentID, "first available agent is assigned")
	assert.Equal(t, types.CallActive, call.Status)
	assert.Equal(t, []string{call.RoomName}, h.rooms.Created())
	assert.Equal(t, types.AgentBusy, h.status(t, "agent-a"))

	claims, md := metadata(t, h.rooms.Issuer(), res.CallerToken)
	assert.Equal(t, call.CallerID, claims.Subject)
	assert.Equal(t, RoleCaller, md.Role)
	assert.Equal(t, call.ID, md.CallID)

	claims, md = metadata(t, h.rooms.Issuer(), res.AgentToken)
	assert.Equal(t, "Agent Alice", claims.Name)
	assert.Equal(t, RoleAgentA, md.Role)

	got, err := h.orch.Calls().Get(call.ID)
	require.NoError(t, err)
	assert.Equal(t, call, got)

	next, err := h.orch.StartCall(ctx, StartCallRequest{})
	require.NoError(t, err)
	assert.Equal(t, "agent-b", next.Call.AgentID)
}

func TestStartCall_ExistingRoomAndAgent(t *testing.T) {
	h := newHarness(t)
	res, err := h.orch.StartCall(context.Background(), StartCallRequest{CallerID: "c1", RoomName: "support-1", AgentID: "agent-c"})
	require.NoError(t, err)
	assert.Equal(t, "support-1", res.Call.RoomName)
	assert.Empty(t, h.rooms.Created(), "joining an existing room does not create it")
	assert.Equal(t, types.AgentBusy, h.status(t, "agent-c"))
}

func TestStartCall_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orch.StartCall(ctx, StartCallRequest{AgentID: "agent-x"})
	assert.True(t, types.IsCode(err, types.ErrNotFound))

	for _, id := range []string{"agent-a", "agent-b", "agent-c"} {
		require.NoError(t, h.orch.SetAgentStatus(id, types.AgentOffline))
	}
	_, err = h.orch.StartCall(ctx, StartCallRequest{})
	assert.True(t, types.IsCode(err, types.ErrServiceUnavailable))

	require.NoError(t, h.orch.SetAgentStatus("agent-a", types.AgentAvailable))
	h.rooms.WithCreateError(errors.New("down"))
	_, err = h.orch.StartCall(ctx, StartCallRequest{})
	assert.True(t, types.IsCode(err, types.ErrRoomCreationFailed))
	assert.Zero(t, h.orch.Calls().ActiveCount())
	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-a"))

	h.rooms.WithCreateError(nil)
	h.rooms.WithTokenError(errors.New("bad secret"))
	_, err = h.orch.StartCall(ctx, StartCallRequest{AgentID: "agent-a", RoomName: "room-1"})
	require.Error(t, err)
	assert.Zero(t, h.orch.Calls().ActiveCount())
	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-a"), "claim is rolled back")
}

func TestStartCall_BusyAgentConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orch.StartCall(ctx, StartCallRequest{AgentID: "agent-a"})
	require.NoError(t, err)

	_, err = h.orch.StartCall(ctx, StartCallRequest{AgentID: "agent-a"})
	assert.True(t, types.IsCode(err, types.ErrConflict))
	assert.Equal(t, 1, h.orch.Calls().ActiveCount())
	assert.Equal(t, types.AgentBusy, h.status(t, "agent-a"))
}

func TestStartCall_Concurrent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	const n = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		assigned []string
		failures int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.orch.StartCall(ctx, StartCallRequest{})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.True(t, types.IsCode(err, types.ErrServiceUnavailable))
				failures++
				return
			}
			assigned = append(assigned, res.Call.AgentID)
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []string{"agent-a", "agent-b", "agent-c"}, assigned, "each agent is assigned once")
	assert.Equal(t, n-3, failures)
	assert.Equal(t, 3, h.orch.Calls().ActiveCount())
}

func TestEndCall(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	started, err := h.orch.StartCall(ctx, StartCallRequest{AgentID: "agent-a"})
	require.NoError(t, err)
	_, err = h.transcripts.Append(ctx, started.Call.ID, "Customer", "hello")
	require.NoError(t, err)

	req := billingRequest()
	req.OriginalRoomName = started.Call.RoomName
	init, err := h.orch.InitiateTransfer(ctx, req)
	require.NoError(t, err)
	_, err = h.orch.CompleteTransfer(ctx, CompleteRequest{TransferID: init.TransferID})
	require.NoError(t, err)

	ended, err := h.orch.EndCall(ctx, started.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CallEnded, ended.Status)
	assert.NotNil(t, ended.EndedAt)
	assert.Equal(t, "agent-b", ended.AgentID)
	assert.ElementsMatch(t, []string{started.Call.RoomName, init.TransferRoomName}, h.rooms.Deleted())
	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-b"))
	assert.Empty(t, h.transcripts.Snapshot(started.Call.ID))

	again, err := h.orch.EndCall(ctx, started.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, ended.EndedAt, again.EndedAt)
	assert.Len(t, h.rooms.Deleted(), 2)

	_, err = h.orch.EndCall(ctx, "missing")
	assert.True(t, types.IsCode(err, types.ErrNotFound))
}

func TestEndCall_CancelsOpenTransfer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	started, err := h.orch.StartCall(ctx, StartCallRequest{AgentID: "agent-a"})
	require.NoError(t, err)
	req := billingRequest()
	req.OriginalRoomName = started.Call.RoomName
	init, err := h.orch.InitiateTransfer(ctx, req)
	require.NoError(t, err)
	require.Equal(t, types.AgentBusy, h.status(t, "agent-b"))

	ended, err := h.orch.EndCall(ctx, started.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CallEnded, ended.Status)

	s, err := h.orch.GetSession(ctx, init.TransferID)
	require.NoError(t, err)
	assert.Equal(t, types.TransferFailed, s.Status)
	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-a"))
	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-b"))
	assert.ElementsMatch(t, []string{started.Call.RoomName, init.TransferRoomName}, h.rooms.Deleted())

	got, err := h.orch.GetCall(started.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CallEnded, got.Status, "cancel does not reopen an ended call")
}

func TestEndCall_RoomDeletionIsBestEffort(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	started, err := h.orch.StartCall(ctx, StartCallRequest{})
	require.NoError(t, err)

	h.rooms.WithDeleteError(errors.New("media server down"))
	ended, err := h.orch.EndCall(ctx, started.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CallEnded, ended.Status)
	assert.Equal(t, types.AgentAvailable, h.status(t, started.Call.AgentID))
}
