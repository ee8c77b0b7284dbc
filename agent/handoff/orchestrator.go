package handoff

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/BaSui01/warmtransfer/agent"
	"github.com/BaSui01/warmtransfer/notify"
	"github.com/BaSui01/warmtransfer/rtc"
	"github.com/BaSui01/warmtransfer/session"
	"github.com/BaSui01/warmtransfer/transcript"
	"github.com/BaSui01/warmtransfer/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/BaSui01/warmtransfer/agent/handoff"

// Briefer produces the AI material for a handoff. Both methods degrade to
// fallback values instead of failing.
type Briefer interface {
	Analyze(ctx context.Context, transcript []types.TranscriptEntry) types.CallAnalysis
	Briefing(ctx context.Context, analysis types.CallAnalysis, receivingAgentName, specialization string) types.Briefing
}

// Deps are the collaborators an Orchestrator coordinates.
type Deps struct {
	Agents   *agent.Registry
	Sessions *session.Manager
	Rooms    rtc.RoomService
	Briefer  Briefer
	Notifier notify.Broker
	// Calls and Transcripts are optional.
	Calls       *session.CallBook
	Transcripts *transcript.Aggregator
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.metrics = r
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// Orchestrator drives the warm transfer state machine.
type Orchestrator struct {
	agents      *agent.Registry
	sessions    *session.Manager
	rooms       rtc.RoomService
	briefer     Briefer
	notifier    notify.Broker
	calls       *session.CallBook
	transcripts *transcript.Aggregator

	metrics Recorder
	tracer  trace.Tracer
	now     func() time.Time
	logger  *zap.Logger
}

// NewOrchestrator creates an orchestrator. Agents, Sessions, Rooms, Briefer
// and Notifier are required.
func NewOrchestrator(deps Deps, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	calls := deps.Calls
	if calls == nil {
		calls = session.NewCallBook()
	}
	o := &Orchestrator{
		agents:      deps.Agents,
		sessions:    deps.Sessions,
		rooms:       deps.Rooms,
		briefer:     deps.Briefer,
		notifier:    deps.Notifier,
		calls:       calls,
		transcripts: deps.Transcripts,
		metrics:     nopRecorder{},
		tracer:      otel.Tracer(instrumentationName),
		now:         time.Now,
		logger:      logger.With(zap.String("component", "transfer_orchestrator")),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Calls returns the call book shared with the transport layer.
func (o *Orchestrator) Calls() *session.CallBook { return o.calls }

// =============================================================================
// Initiate
// =============================================================================

// InitiateTransfer creates the session and handoff room, generates the
// briefing and issues handoff tokens to both agents. Nothing is returned
// unless every step succeeded. A room failure leaves the session initiated
// so the caller can cancel it.
func (o *Orchestrator) InitiateTransfer(ctx context.Context, req InitiateRequest) (res *InitiateResult, err error) {
	ctx, span := o.tracer.Start(ctx, "transfer.initiate", trace.WithAttributes(
		attribute.String("transfer.room", req.OriginalRoomName),
		attribute.String("agent.a", req.AgentAID),
		attribute.String("agent.b", req.AgentBID),
	))
	start := o.now()
	defer func() { o.finish(span, "initiate", start, err) }()

	if err := validateInitiate(req); err != nil {
		return nil, err
	}
	agentA, err := o.agents.Get(req.AgentAID)
	if err != nil {
		return nil, err
	}
	agentB, err := o.agents.Get(req.AgentBID)
	if err != nil {
		return nil, err
	}

	entries, cc, call, linked := o.callContext(req)

	sess, err := o.sessions.CreateTransferSession(ctx, session.CreateParams{
		OriginalRoomName: req.OriginalRoomName,
		CallerID:         req.CallerID,
		AgentAID:         agentA.ID,
		AgentBID:         agentB.ID,
		CallContext:      cc,
	})
	if err != nil {
		return nil, err
	}
	o.metrics.RecordTransferTransition("", types.TransferInitiated)
	span.SetAttributes(attribute.String("transfer.id", sess.ID))
	log := o.logger.With(zap.String("transfer_id", sess.ID))

	// Room creation and call analysis are independent; run them together.
	var analysis types.CallAnalysis
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := o.rooms.CreateRoom(gctx, sess.TransferRoomName); err != nil {
			return types.NewCollaboratorError(types.ErrRoomCreationFailed,
				"failed to create handoff room "+sess.TransferRoomName, err)
		}
		return nil
	})
	g.Go(func() error {
		analysis = o.briefer.Analyze(gctx, entries)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error("handoff room creation failed, session left initiated", zap.Error(err))
		return nil, err
	}

	brief := o.briefer.Briefing(ctx, analysis, agentB.Name, agentB.Specialization())

	if _, err := o.sessions.Update(ctx, sess.ID, func(s *types.TransferSession) error {
		s.Summary = analysis.Summary
		s.TransferExplanation = brief.SpokenHandoff
		return nil
	}); err != nil {
		return nil, err
	}

	tokenA, err := o.rooms.IssueToken(rtc.TokenRequest{
		Room:     sess.TransferRoomName,
		Identity: agentA.ID,
		Name:     agentA.Name,
		Metadata: TokenMetadata{Role: RoleAgentA, TransferID: sess.ID, Briefing: brief.SpokenHandoff}.encode(),
	})
	if err != nil {
		return nil, tokenError(err)
	}
	tokenB, err := o.rooms.IssueToken(rtc.TokenRequest{
		Room:     sess.TransferRoomName,
		Identity: agentB.ID,
		Name:     agentB.Name,
		Metadata: TokenMetadata{Role: RoleAgentB, TransferID: sess.ID, Notes: brief.WrittenNotes}.encode(),
	})
	if err != nil {
		return nil, tokenError(err)
	}

	o.setStatus(agentA.ID, types.AgentBusy)
	o.setStatus(agentB.ID, types.AgentBusy)

	if linked {
		_, _ = o.calls.Update(call.ID, func(c *types.CallSession) {
			c.Status = types.CallTransferring
			c.TransferID = sess.ID
		})
	}

	o.publish(ctx, agentB.ID, notify.Event{
		Type:      notify.EventTransferRequest,
		SessionID: sess.ID,
		RoomName:  sess.TransferRoomName,
		Token:     tokenB,
		Message:   agentA.Name + " is requesting a warm transfer: " + brief.BriefSummary,
	})

	log.Info("transfer initiated",
		zap.String("handoff_room", sess.TransferRoomName),
		zap.Bool("analysis_degraded", analysis.Degraded),
		zap.Bool("briefing_degraded", brief.Degraded),
	)

	return &InitiateResult{
		TransferID:       sess.ID,
		TransferRoomName: sess.TransferRoomName,
		Briefing:         brief,
		Analysis:         analysis,
		Tokens:           InitiateTokens{AgentA: tokenA, AgentB: tokenB},
	}, nil
}

func validateInitiate(req InitiateRequest) error {
	var missing []string
	for _, f := range []struct{ name, val string }{
		{"originalRoomName", req.OriginalRoomName},
		{"callerId", req.CallerID},
		{"agentAId", req.AgentAID},
		{"agentBId", req.AgentBID},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return types.NewValidationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	if req.AgentAID == req.AgentBID {
		return types.NewValidationError("agentAId and agentBId must differ")
	}
	return nil
}

// callContext resolves the transcript to analyze and the context to store.
// The request wins; otherwise the live call held in the original room is
// consulted.
func (o *Orchestrator) callContext(req InitiateRequest) ([]types.TranscriptEntry, types.CallContext, types.CallSession, bool) {
	var cc types.CallContext
	if req.CallContext != nil {
		cc = *req.CallContext
	}

	call, linked := o.calls.FindByRoom(req.OriginalRoomName)
	if linked && cc.StartTime.IsZero() {
		cc.StartTime = call.CreatedAt
	}

	lines := req.Transcript
	if len(lines) == 0 {
		lines = cc.Transcript
	}
	var entries []types.TranscriptEntry
	switch {
	case len(lines) > 0:
		entries = transcript.ParseLines(lines)
	case linked && o.transcripts != nil:
		entries = o.transcripts.Snapshot(call.ID)
		lines = transcript.FormatLines(entries)
	}
	cc.Transcript = lines
	return entries, cc, call, linked
}

func tokenError(err error) error {
	return types.NewCollaboratorError(types.ErrTokenIssueFailed, "failed to issue room token", err)
}

// =============================================================================
// Briefing
// =============================================================================

// BeginBriefing records that Agent B joined the handoff room.
func (o *Orchestrator) BeginBriefing(ctx context.Context, transferID string) (*types.TransferSession, error) {
	var from types.TransferStatus
	s, err := o.sessions.Update(ctx, transferID, func(s *types.TransferSession) error {
		from = ""
		switch {
		case s.Status == types.TransferInProgress:
			return session.ErrUnchanged
		case !s.Status.CanTransition(types.TransferInProgress):
			return types.NewTransitionError(s.ID, s.Status, types.TransferInProgress)
		}
		from = s.Status
		s.Status = types.TransferInProgress
		return nil
	})
	if err != nil {
		return nil, err
	}
	if from != "" {
		o.metrics.RecordTransferTransition(from, types.TransferInProgress)
		o.logger.Info("transfer briefing started", zap.String("transfer_id", transferID))
	}
	return s, nil
}

// =============================================================================
// Complete
// =============================================================================

// CompleteTransfer moves the caller to Agent B. The status change is a
// compare-and-swap claim: exactly one concurrent caller performs the side
// effects, the others get AlreadyCompleted with fresh tokens.
func (o *Orchestrator) CompleteTransfer(ctx context.Context, req CompleteRequest) (res *CompleteResult, err error) {
	ctx, span := o.tracer.Start(ctx, "transfer.complete", trace.WithAttributes(
		attribute.String("transfer.id", req.TransferID),
	))
	start := o.now()
	defer func() { o.finish(span, "complete", start, err) }()

	if strings.TrimSpace(req.TransferID) == "" {
		return nil, types.NewValidationError("transferId is required")
	}
	cur, err := o.sessions.Get(ctx, req.TransferID)
	if err != nil {
		return nil, err
	}
	if cur.Status == types.TransferFailed {
		return nil, types.NewTransitionError(cur.ID, cur.Status, types.TransferCompleted)
	}
	if req.AgentBID != "" && req.AgentBID != cur.AgentBID {
		return nil, types.NewValidationError("agentBId %q does not match transfer %s", req.AgentBID, cur.ID)
	}
	callerID := req.CallerID
	if callerID == "" {
		callerID = cur.CallerID
	}

	tokens, err := o.completionTokens(cur, callerID)
	if err != nil {
		return nil, err
	}

	var from types.TransferStatus
	s, err := o.sessions.Update(ctx, cur.ID, func(s *types.TransferSession) error {
		from = ""
		switch {
		case s.Status == types.TransferCompleted:
			return session.ErrUnchanged
		case !s.Status.CanTransition(types.TransferCompleted):
			return types.NewTransitionError(s.ID, s.Status, types.TransferCompleted)
		}
		from = s.Status
		now := o.now()
		s.Status = types.TransferCompleted
		s.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	res = &CompleteResult{
		Success:          true,
		AlreadyCompleted: from == "",
		Tokens:           tokens,
		OriginalRoomName: s.OriginalRoomName,
		Session:          s,
	}
	if res.AlreadyCompleted {
		o.logger.Debug("transfer already completed", zap.String("transfer_id", s.ID))
		return res, nil
	}
	o.metrics.RecordTransferTransition(from, types.TransferCompleted)

	o.removeParticipant(ctx, s.OriginalRoomName, s.AgentAID, s.ID)

	o.setStatus(s.AgentAID, types.AgentAvailable)
	o.setStatus(s.AgentBID, types.AgentBusy)

	if call, ok := o.calls.FindByRoom(s.OriginalRoomName); ok {
		_, _ = o.calls.Update(call.ID, func(c *types.CallSession) {
			c.Status = types.CallTransferred
			c.AgentID = s.AgentBID
			c.TransferID = s.ID
		})
	}

	o.publish(ctx, s.AgentBID, notify.Event{
		Type:      notify.EventTransferCompleted,
		SessionID: s.ID,
		RoomName:  s.OriginalRoomName,
		Token:     tokens.AgentB,
		Message:   "Transfer completed. Join customer room: " + s.OriginalRoomName,
	})

	o.logger.Info("transfer completed",
		zap.String("transfer_id", s.ID),
		zap.String("agent_a", s.AgentAID),
		zap.String("agent_b", s.AgentBID),
	)
	return res, nil
}

func (o *Orchestrator) completionTokens(s *types.TransferSession, callerID string) (CompleteTokens, error) {
	caller, err := o.rooms.IssueToken(rtc.TokenRequest{
		Room:     s.OriginalRoomName,
		Identity: callerID,
		Metadata: TokenMetadata{Role: RoleCaller, TransferID: s.ID}.encode(),
	})
	if err != nil {
		return CompleteTokens{}, tokenError(err)
	}
	name := s.AgentBID
	if b, err := o.agents.Get(s.AgentBID); err == nil {
		name = b.Name
	}
	agentB, err := o.rooms.IssueToken(rtc.TokenRequest{
		Room:     s.OriginalRoomName,
		Identity: s.AgentBID,
		Name:     name,
		Metadata: TokenMetadata{Role: RoleAgentB, TransferID: s.ID, TransferredFrom: s.AgentAID}.encode(),
	})
	if err != nil {
		return CompleteTokens{}, tokenError(err)
	}
	return CompleteTokens{Caller: caller, AgentB: agentB}, nil
}

// removeParticipant is best-effort; the caller's continuity outranks cleanup.
func (o *Orchestrator) removeParticipant(ctx context.Context, room, identity, transferID string) {
	err := o.rooms.RemoveParticipant(ctx, room, identity)
	switch {
	case err == nil:
	case errors.Is(err, rtc.ErrParticipantNotFound):
		o.logger.Debug("participant already left",
			zap.String("transfer_id", transferID),
			zap.String("room", room),
			zap.String("identity", identity))
	default:
		o.logger.Warn("failed to remove participant",
			zap.String("transfer_id", transferID),
			zap.String("room", room),
			zap.String("identity", identity),
			zap.Error(err))
	}
}

// =============================================================================
// Cancel
// =============================================================================

// CancelTransfer fails the transfer and releases both agents. Cancelling
// twice is a no-op that reports AlreadyCancelled.
func (o *Orchestrator) CancelTransfer(ctx context.Context, transferID string) (res *CancelResult, err error) {
	ctx, span := o.tracer.Start(ctx, "transfer.cancel", trace.WithAttributes(
		attribute.String("transfer.id", transferID),
	))
	start := o.now()
	defer func() { o.finish(span, "cancel", start, err) }()

	var from types.TransferStatus
	s, err := o.sessions.Update(ctx, transferID, func(s *types.TransferSession) error {
		from = ""
		switch {
		case s.Status == types.TransferFailed:
			return session.ErrUnchanged
		case !s.Status.CanTransition(types.TransferFailed):
			return types.NewTransitionError(s.ID, s.Status, types.TransferFailed)
		}
		from = s.Status
		s.Status = types.TransferFailed
		return nil
	})
	if err != nil {
		return nil, err
	}

	res = &CancelResult{TransferID: s.ID, Status: s.Status, AlreadyCancelled: from == ""}
	if res.AlreadyCancelled {
		return res, nil
	}
	o.metrics.RecordTransferTransition(from, types.TransferFailed)

	o.setStatus(s.AgentAID, types.AgentAvailable)
	o.setStatus(s.AgentBID, types.AgentAvailable)

	if err := o.rooms.DeleteRoom(ctx, s.TransferRoomName); err != nil && !errors.Is(err, rtc.ErrRoomNotFound) {
		o.logger.Warn("failed to delete handoff room",
			zap.String("transfer_id", s.ID), zap.String("room", s.TransferRoomName), zap.Error(err))
	}

	if call, ok := o.calls.FindByRoom(s.OriginalRoomName); ok && call.TransferID == s.ID {
		_, _ = o.calls.Update(call.ID, func(c *types.CallSession) {
			if c.Status == types.CallTransferring {
				c.Status = types.CallActive
			}
		})
	}

	o.publish(ctx, s.AgentBID, notify.Event{
		Type:      notify.EventTransferCancelled,
		SessionID: s.ID,
		RoomName:  s.TransferRoomName,
		Message:   "Transfer was cancelled",
	})

	o.logger.Info("transfer cancelled", zap.String("transfer_id", s.ID), zap.String("from", string(from)))
	return res, nil
}

// =============================================================================
// Queries and sweeping
// =============================================================================

// GetSession returns the transfer session.
func (o *Orchestrator) GetSession(ctx context.Context, transferID string) (*types.TransferSession, error) {
	return o.sessions.Get(ctx, transferID)
}

// ListActive returns sessions that have not completed.
func (o *Orchestrator) ListActive(ctx context.Context) ([]*types.TransferSession, error) {
	return o.sessions.ListActive(ctx)
}

// Sweep removes completed sessions older than maxAge.
// Ended calls older than maxAge are pruned from the call book in the same pass.
func (o *Orchestrator) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	if o.calls != nil {
		if pruned := o.calls.SweepEnded(o.now().Add(-maxAge)); pruned > 0 {
			o.logger.Debug("pruned ended calls", zap.Int("count", pruned))
		}
	}
	n, err := o.sessions.Sweep(ctx, maxAge)
	if err == nil {
		o.metrics.RecordSweep(n)
	}
	return n, err
}

// RunSweeper sweeps every interval until ctx is done.
func (o *Orchestrator) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	o.logger.Info("session sweeper started",
		zap.Duration("interval", interval), zap.Duration("max_age", maxAge))
	for {
		select {
		case <-ctx.Done():
			o.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if _, err := o.Sweep(ctx, maxAge); err != nil && ctx.Err() == nil {
				o.logger.Warn("session sweep failed", zap.Error(err))
			}
		}
	}
}

// =============================================================================
// Agents
// =============================================================================

// ListAgents returns the agents that can take a transfer.
func (o *Orchestrator) ListAgents() []types.Agent {
	return o.agents.ListAvailable()
}

// ListAllAgents returns the whole roster.
func (o *Orchestrator) ListAllAgents() []types.Agent {
	return o.agents.List()
}

// SetAgentStatus changes an agent's availability.
func (o *Orchestrator) SetAgentStatus(agentID string, status types.AgentStatus) error {
	prev, err := o.agents.SetStatus(agentID, status)
	if err != nil {
		return err
	}
	if prev != status {
		o.metrics.RecordAgentStatus(agentID, status)
	}
	return nil
}

// setStatus is used where the agent is known to exist; a failure is logged.
func (o *Orchestrator) setStatus(agentID string, status types.AgentStatus) {
	if err := o.SetAgentStatus(agentID, status); err != nil {
		o.logger.Warn("failed to update agent status",
			zap.String("agent_id", agentID), zap.String("status", string(status)), zap.Error(err))
	}
}

// =============================================================================
// Helpers
// =============================================================================

// publish is best-effort; a lost notification never fails a transfer.
func (o *Orchestrator) publish(ctx context.Context, agentID string, ev notify.Event) {
	err := o.notifier.Publish(ctx, agentID, ev)
	o.metrics.RecordNotification(string(ev.Type), err == nil)
	if err != nil {
		o.logger.Warn("failed to publish notification",
			zap.String("agent_id", agentID),
			zap.String("event", string(ev.Type)),
			zap.String("transfer_id", ev.SessionID),
			zap.Error(err))
	}
}

func (o *Orchestrator) finish(span trace.Span, op string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(types.GetErrorCode(err))
		if outcome == "" {
			outcome = string(types.ErrInternalError)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	o.metrics.RecordTransferOperation(op, outcome, o.now().Sub(start))
	span.End()
}
