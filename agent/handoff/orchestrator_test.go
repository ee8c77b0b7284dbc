package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BaSui01/warmtransfer/agent"
	"github.com/BaSui01/warmtransfer/briefing"
	"github.com/BaSui01/warmtransfer/llm"
	"github.com/BaSui01/warmtransfer/notify"
	"github.com/BaSui01/warmtransfer/rtc"
	"github.com/BaSui01/warmtransfer/session"
	"github.com/BaSui01/warmtransfer/testutil/fixtures"
	"github.com/BaSui01/warmtransfer/testutil/mocks"
	"github.com/BaSui01/warmtransfer/transcript"
	"github.com/BaSui01/warmtransfer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRecorder struct {
	mu          sync.Mutex
	transitions map[string]int
	operations  map[string]int
	agentStatus []string
	notified    map[string]int
	swept       int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{
		transitions: make(map[string]int),
		operations:  make(map[string]int),
		notified:    make(map[string]int),
	}
}

func (r *fakeRecorder) RecordTransferTransition(from, to types.TransferStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions[string(from)+"->"+string(to)]++
}

func (r *fakeRecorder) RecordTransferOperation(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations[op+":"+outcome]++
}

func (r *fakeRecorder) RecordAgentStatus(agentID string, status types.AgentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agentStatus = append(r.agentStatus, agentID+"="+string(status))
}

func (r *fakeRecorder) RecordNotification(eventType string, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified[eventType]++
}

func (r *fakeRecorder) RecordSweep(removed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swept += removed
}

func (r *fakeRecorder) transition(from, to types.TransferStatus) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transitions[string(from)+"->"+string(to)]
}

type harness struct {
	orch        *Orchestrator
	rooms       *mocks.MockRoomService
	provider    *mocks.MockProvider
	agents      *agent.Registry
	store       *session.MemoryStore
	broker      *notify.MemoryBroker
	transcripts *transcript.Aggregator
	metrics     *fakeRecorder
	clock       *clock
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		rooms:       mocks.NewMockRoomService(),
		provider:    fixtures.BriefingProvider(),
		agents:      agent.NewRegistry(zap.NewNop()),
		store:       session.NewMemoryStore(),
		broker:      notify.NewMemoryBroker(0, zap.NewNop()),
		transcripts: transcript.NewAggregator(nil, transcript.Config{}, zap.NewNop()),
		metrics:     newFakeRecorder(),
		clock:       &clock{now: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)},
	}
	sessions := session.NewManager(h.store, zap.NewNop(), session.WithClock(h.clock.Now))
	gen := briefing.New(h.provider, briefing.Config{}, zap.NewNop())
	h.orch = NewOrchestrator(Deps{
		Agents:      h.agents,
		Sessions:    sessions,
		Rooms:       h.rooms,
		Briefer:     gen,
		Notifier:    h.broker,
		Transcripts: h.transcripts,
	}, zap.NewNop(), WithRecorder(h.metrics), WithClock(h.clock.Now))
	return h
}

func billingRequest() InitiateRequest {
	return InitiateRequest{
		OriginalRoomName: "call_room1",
		CallerID:         "caller-1",
		AgentAID:         "agent-a",
		AgentBID:         "agent-b",
		Transcript:       fixtures.BillingTranscriptLines(),
	}
}

func (h *harness) status(t *testing.T, id string) types.AgentStatus {
	t.Helper()
	a, err := h.agents.Get(id)
	require.NoError(t, err)
	return a.Status
}

func metadata(t *testing.T, issuer *rtc.TokenIssuer, token string) (*rtc.Claims, TokenMetadata) {
	t.Helper()
	claims, err := issuer.ParseToken(token)
	require.NoError(t, err)
	var md TokenMetadata
	require.NoError(t, json.Unmarshal([]byte(claims.Metadata), &md))
	return claims, md
}

func TestInitiateTransfer_BillingCall(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.orch.InitiateTransfer(ctx, billingRequest())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.TransferID, "transfer_"))
	assert.Equal(t, session.TransferRoomName(res.TransferID), res.TransferRoomName)
	assert.Equal(t, res.TransferID+"_handoff", res.TransferRoomName)
	assert.Contains(t, strings.ToLower(res.Analysis.Summary), "billing")
	assert.Contains(t, strings.ToLower(res.Analysis.Summary), "refund")
	assert.Equal(t, types.UrgencyHigh, res.Analysis.Urgency)
	assert.False(t, res.Briefing.Degraded)
	assert.Equal(t, []string{res.TransferRoomName}, h.rooms.Created())

	s, err := h.orch.GetSession(ctx, res.TransferID)
	require.NoError(t, err)
	assert.Equal(t, types.TransferInitiated, s.Status)
	assert.Equal(t, "agent-a", s.AgentAID)
	assert.Equal(t, "agent-b", s.AgentBID)
	assert.Equal(t, "call_room1", s.OriginalRoomName)
	assert.Equal(t, res.Analysis.Summary, s.Summary)
	assert.Equal(t, res.Briefing.SpokenHandoff, s.TransferExplanation)
	assert.Equal(t, fixtures.BillingTranscriptLines(), s.CallContext.Transcript)

	claimsA, mdA := metadata(t, h.rooms.Issuer(), res.Tokens.AgentA)
	assert.Equal(t, "agent-a", claimsA.Subject)
	assert.Equal(t, res.TransferRoomName, claimsA.Video.Room)
	assert.Equal(t, RoleAgentA, mdA.Role)
	assert.Equal(t, res.TransferID, mdA.TransferID)
	assert.Equal(t, res.Briefing.SpokenHandoff, mdA.Briefing)

	claimsB, mdB := metadata(t, h.rooms.Issuer(), res.Tokens.AgentB)
	assert.Equal(t, "Agent Bob", claimsB.Name)
	assert.Equal(t, RoleAgentB, mdB.Role)
	assert.Equal(t, res.Briefing.WrittenNotes, mdB.Notes)

	assert.Equal(t, types.AgentBusy, h.status(t, "agent-a"))
	assert.Equal(t, types.AgentBusy, h.status(t, "agent-b"))

	events, err := h.broker.Poll(ctx, "agent-b")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventTransferRequest, events[0].Type)
	assert.Equal(t, res.TransferRoomName, events[0].RoomName)
	assert.Equal(t, res.Tokens.AgentB, events[0].Token)

	assert.Equal(t, 1, h.metrics.transition("", types.TransferInitiated))
}

func TestInitiateTransfer_BriefingUsesReceivingAgent(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.InitiateTransfer(context.Background(), billingRequest())
	require.NoError(t, err)

	var prompt string
	for _, c := range h.provider.Calls() {
		if strings.Contains(c.Messages[0].Content, "transfer briefing") {
			prompt = c.Messages[len(c.Messages)-1].Content
		}
	}
	assert.Contains(t, prompt, "Agent Bob")
	assert.Contains(t, prompt, "billing")
}

func TestInitiateTransfer_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for name, mutate := range map[string]func(r *InitiateRequest){
		"no room":    func(r *InitiateRequest) { r.OriginalRoomName = "" },
		"no caller":  func(r *InitiateRequest) { r.CallerID = " " },
		"no agent a": func(r *InitiateRequest) { r.AgentAID = "" },
		"no agent b": func(r *InitiateRequest) { r.AgentBID = "" },
		"same agent": func(r *InitiateRequest) { r.AgentBID = r.AgentAID },
	} {
		t.Run(name, func(t *testing.T) {
			req := billingRequest()
			mutate(&req)
			_, err := h.orch.InitiateTransfer(ctx, req)
			assert.True(t, types.IsCode(err, types.ErrInvalidRequest), "got %v", err)
		})
	}

	req := billingRequest()
	req.AgentBID = "agent-zed"
	_, err := h.orch.InitiateTransfer(ctx, req)
	assert.True(t, types.IsCode(err, types.ErrNotFound))

	assert.Zero(t, h.store.Len())
	assert.Empty(t, h.rooms.Created())
}

func TestInitiateTransfer_RoomCreationFails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.rooms.WithCreateError(errors.New("media server down"))

	res, err := h.orch.InitiateTransfer(ctx, billingRequest())
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, types.IsCode(err, types.ErrRoomCreationFailed))
	assert.True(t, types.IsRetryable(err))
	assert.Empty(t, h.rooms.TokenRequests())

	active, err := h.orch.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, types.TransferInitiated, active[0].Status)
	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-a"))
	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-b"))

	cancelled, err := h.orch.CancelTransfer(ctx, active[0].ID)
	require.NoError(t, err)
	assert.Equal(t, types.TransferFailed, cancelled.Status)
}

func TestInitiateTransfer_TokenIssueFails(t *testing.T) {
	h := newHarness(t)
	h.rooms.WithTokenError(errors.New("bad secret"))

	res, err := h.orch.InitiateTransfer(context.Background(), billingRequest())
	assert.Nil(t, res)
	assert.True(t, types.IsCode(err, types.ErrTokenIssueFailed))
	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-a"))
	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-b"))

	events, _ := h.broker.Poll(context.Background(), "agent-b")
	assert.Empty(t, events)
}

func TestInitiateTransfer_DegradedModelStillSucceeds(t *testing.T) {
	h := newHarness(t)
	h.provider.WithError(&llm.Error{Code: llm.ErrUpstreamError, Message: "boom", Retryable: true})

	res, err := h.orch.InitiateTransfer(context.Background(), billingRequest())
	require.NoError(t, err)
	assert.True(t, res.Analysis.Degraded)
	assert.Equal(t, briefing.FallbackAnalysis().Summary, res.Analysis.Summary)
	assert.Equal(t, briefing.FallbackBriefing("Agent Bob"), res.Briefing)
}

func TestInitiateTransfer_EmptyTranscript(t *testing.T) {
	h := newHarness(t)
	req := billingRequest()
	req.Transcript = nil

	res, err := h.orch.InitiateTransfer(context.Background(), req)
	require.NoError(t, err)
	assert.NotNil(t, res.Analysis.KeyPoints)
}

func TestInitiateTransfer_UsesLiveCallTranscript(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	started, err := h.orch.StartCall(ctx, StartCallRequest{CallerID: "caller-1", AgentID: "agent-a"})
	require.NoError(t, err)
	for _, line := range fixtures.BillingTranscriptLines() {
		speaker, text, _ := strings.Cut(line, ": ")
		_, err := h.transcripts.Append(ctx, started.Call.ID, speaker, text)
		require.NoError(t, err)
	}

	req := billingRequest()
	req.OriginalRoomName = started.Call.RoomName
	req.Transcript = nil
	res, err := h.orch.InitiateTransfer(ctx, req)
	require.NoError(t, err)

	s, err := h.orch.GetSession(ctx, res.TransferID)
	require.NoError(t, err)
	assert.Equal(t, fixtures.BillingTranscriptLines(), s.CallContext.Transcript)
	assert.Equal(t, started.Call.CreatedAt, s.CallContext.StartTime)

	call, err := h.orch.Calls().Get(started.Call.ID)
	require.NoError(t, err)
	assert.Equal(t, types.CallTransferring, call.Status)
	assert.Equal(t, res.TransferID, call.TransferID)
}

func TestBeginBriefing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res, err := h.orch.InitiateTransfer(ctx, billingRequest())
	require.NoError(t, err)

	s, err := h.orch.BeginBriefing(ctx, res.TransferID)
	require.NoError(t, err)
	assert.Equal(t, types.TransferInProgress, s.Status)

	again, err := h.orch.BeginBriefing(ctx, res.TransferID)
	require.NoError(t, err)
	assert.Equal(t, s.Version, again.Version)
	assert.Equal(t, 1, h.metrics.transition(types.TransferInitiated, types.TransferInProgress))

	_, err = h.orch.CancelTransfer(ctx, res.TransferID)
	require.NoError(t, err)
	_, err = h.orch.BeginBriefing(ctx, res.TransferID)
	assert.True(t, types.IsCode(err, types.ErrInvalidTransition))
}

func TestCompleteTransfer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	init, err := h.orch.InitiateTransfer(ctx, billingRequest())
	require.NoError(t, err)
	_, err = h.orch.BeginBriefing(ctx, init.TransferID)
	require.NoError(t, err)
	_, _ = h.broker.Poll(ctx, "agent-b")

	res, err := h.orch.CompleteTransfer(ctx, CompleteRequest{TransferID: init.TransferID, CallerID: "caller-1", AgentBID: "agent-b"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.AlreadyCompleted)
	assert.Equal(t, "call_room1", res.OriginalRoomName)

	s, err := h.orch.GetSession(ctx, init.TransferID)
	require.NoError(t, err)
	assert.Equal(t, types.TransferCompleted, s.Status)
	require.NotNil(t, s.CompletedAt)
	assert.Equal(t, h.clock.Now(), *s.CompletedAt)

	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-a"))
	assert.Equal(t, types.AgentBusy, h.status(t, "agent-b"))
	assert.Equal(t, []mocks.Removal{{Room: "call_room1", Identity: "agent-a"}}, h.rooms.Removed())

	callerClaims, callerMD := metadata(t, h.rooms.Issuer(), res.Tokens.Caller)
	assert.Equal(t, "caller-1", callerClaims.Subject)
	assert.Equal(t, "call_room1", callerClaims.Video.Room)
	assert.Equal(t, RoleCaller, callerMD.Role)

	bClaims, bMD := metadata(t, h.rooms.Issuer(), res.Tokens.AgentB)
	assert.Equal(t, "call_room1", bClaims.Video.Room)
	assert.Equal(t, RoleAgentB, bMD.Role)
	assert.Equal(t, "agent-a", bMD.TransferredFrom)
	assert.Equal(t, init.TransferID, bMD.TransferID)

	events, err := h.broker.Poll(ctx, "agent-b")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventTransferCompleted, events[0].Type)
	assert.Equal(t, "call_room1", events[0].RoomName)
}

func TestCompleteTransfer_RemovalFailureIsNotFatal(t *testing.T) {
	for name, removeErr := range map[string]error{
		"already left": rtc.ErrParticipantNotFound,
		"other":        errors.New("media server timeout"),
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			h.rooms.WithRemoveError(removeErr)
			init, err := h.orch.InitiateTransfer(ctx, billingRequest())
			require.NoError(t, err)

			res, err := h.orch.CompleteTransfer(ctx, CompleteRequest{TransferID: init.TransferID})
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Equal(t, types.AgentAvailable, h.status(t, "agent-a"))
		})
	}
}

func TestCompleteTransfer_UnknownTransfer(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.CompleteTransfer(context.Background(), CompleteRequest{TransferID: "transfer_0_deadbeefdeadbeef"})
	assert.True(t, types.IsCode(err, types.ErrNotFound))
	assert.Empty(t, h.rooms.TokenRequests())
	assert.Empty(t, h.rooms.Removed())
	assert.Zero(t, h.store.Len())
	for _, a := range h.agents.List() {
		assert.Equal(t, types.AgentAvailable, a.Status)
	}
}

func TestCompleteTransfer_WrongAgent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	init, err := h.orch.InitiateTransfer(ctx, billingRequest())
	require.NoError(t, err)

	_, err = h.orch.CompleteTransfer(ctx, CompleteRequest{TransferID: init.TransferID, AgentBID: "agent-c"})
	assert.True(t, types.IsCode(err, types.ErrInvalidRequest))
}

func TestCompleteTransfer_Concurrent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	init, err := h.orch.InitiateTransfer(ctx, billingRequest())
	require.NoError(t, err)

	const n = 8
	results := make([]*CompleteResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.orch.CompleteTransfer(ctx, CompleteRequest{TransferID: init.TransferID})
		}(i)
	}
	wg.Wait()

	winners := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.True(t, results[i].Success)
		assert.Equal(t, types.TransferCompleted, results[i].Session.Status)
		assert.NotEmpty(t, results[i].Tokens.AgentB)
		if !results[i].AlreadyCompleted {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, h.metrics.transition(types.TransferInitiated, types.TransferCompleted))
	assert.Len(t, h.rooms.Removed(), 1)

	s, err := h.orch.GetSession(ctx, init.TransferID)
	require.NoError(t, err)
	assert.Equal(t, types.TransferCompleted, s.Status)
	assert.Equal(t, types.AgentBusy, h.status(t, "agent-b"))
	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-a"))
}

func TestCancelTransfer_Idempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	init, err := h.orch.InitiateTransfer(ctx, billingRequest())
	require.NoError(t, err)

	first, err := h.orch.CancelTransfer(ctx, init.TransferID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyCancelled)
	assert.Equal(t, types.TransferFailed, first.Status)
	assert.Contains(t, h.rooms.Deleted(), init.TransferRoomName)

	second, err := h.orch.CancelTransfer(ctx, init.TransferID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyCancelled)

	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-a"))
	assert.Equal(t, types.AgentAvailable, h.status(t, "agent-b"))
	assert.Equal(t, 1, h.metrics.transition(types.TransferInitiated, types.TransferFailed))

	released := 0
	for _, s := range h.metrics.agentStatus {
		if s == "agent-b=available" {
			released++
		}
	}
	assert.Equal(t, 1, released)

	_, err = h.orch.CompleteTransfer(ctx, CompleteRequest{TransferID: init.TransferID})
	assert.True(t, types.IsCode(err, types.ErrInvalidTransition))
}

func TestCancelTransfer_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orch.CancelTransfer(ctx, "transfer_missing")
	assert.True(t, types.IsCode(err, types.ErrNotFound))

	init, err := h.orch.InitiateTransfer(ctx, billingRequest())
	require.NoError(t, err)
	_, err = h.orch.CompleteTransfer(ctx, CompleteRequest{TransferID: init.TransferID})
	require.NoError(t, err)

	_, err = h.orch.CancelTransfer(ctx, init.TransferID)
	assert.True(t, types.IsCode(err, types.ErrInvalidTransition))
	assert.Equal(t, types.AgentBusy, h.status(t, "agent-b"))
}

func TestSweep_RemovesOnlyOldCompleted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	complete := func() string {
		init, err := h.orch.InitiateTransfer(ctx, billingRequest())
		require.NoError(t, err)
		_, err = h.orch.CompleteTransfer(ctx, CompleteRequest{TransferID: init.TransferID})
		require.NoError(t, err)
		return init.TransferID
	}

	old := complete()
	h.clock.Advance(24 * time.Hour)
	recent := complete()
	pending, err := h.orch.InitiateTransfer(ctx, InitiateRequest{
		OriginalRoomName: "call_room2", CallerID: "caller-2", AgentAID: "agent-c", AgentBID: "agent-a",
	})
	require.NoError(t, err)
	h.clock.Advance(time.Hour)

	n, err := h.orch.Sweep(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = h.orch.GetSession(ctx, old)
	assert.True(t, types.IsCode(err, types.ErrNotFound))
	_, err = h.orch.GetSession(ctx, recent)
	assert.NoError(t, err)
	_, err = h.orch.GetSession(ctx, pending.TransferID)
	assert.NoError(t, err)
	assert.Equal(t, 1, h.metrics.swept)
}

func TestSweep_PrunesEndedCalls(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	endedCall := func() string {
		started, err := h.orch.StartCall(ctx, StartCallRequest{AgentID: "agent-c"})
		require.NoError(t, err)
		_, err = h.orch.EndCall(ctx, started.Call.ID)
		require.NoError(t, err)
		return started.Call.ID
	}

	old := endedCall()
	h.clock.Advance(25 * time.Hour)
	recent := endedCall()
	live, err := h.orch.StartCall(ctx, StartCallRequest{})
	require.NoError(t, err)
	h.clock.Advance(time.Hour)

	_, err = h.orch.Sweep(ctx, 24*time.Hour)
	require.NoError(t, err)

	_, err = h.orch.GetCall(old)
	assert.True(t, types.IsCode(err, types.ErrNotFound))
	_, err = h.orch.GetCall(recent)
	assert.NoError(t, err)
	_, err = h.orch.GetCall(live.Call.ID)
	assert.NoError(t, err)
	assert.Len(t, h.orch.Calls().List(), 2)
}

func TestRunSweeper_StopsWithContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.orch.RunSweeper(ctx, 5*time.Millisecond, time.Hour)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSetAgentStatus(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.orch.SetAgentStatus("agent-c", types.AgentOffline))
	require.NoError(t, h.orch.SetAgentStatus("agent-c", types.AgentOffline))
	assert.Equal(t, []string{"agent-c=offline"}, h.metrics.agentStatus)

	ids := make([]string, 0)
	for _, a := range h.orch.ListAgents() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"agent-a", "agent-b"}, ids)
	assert.Len(t, h.orch.ListAllAgents(), 3)

	err := h.orch.SetAgentStatus("agent-x", types.AgentBusy)
	assert.True(t, types.IsCode(err, types.ErrNotFound))
	err = h.orch.SetAgentStatus("agent-a", "sleeping")
	assert.True(t, types.IsCode(err, types.ErrInvalidRequest))
}
