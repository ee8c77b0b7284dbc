package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/BaSui01/warmtransfer/agent/handoff"
	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// CallService manages customer calls.
type CallService interface {
	StartCall(ctx context.Context, req handoff.StartCallRequest) (*handoff.StartCallResult, error)
	GetCall(callID string) (types.CallSession, error)
	EndCall(ctx context.Context, callID string) (types.CallSession, error)
}

// CallHandler serves customer call sessions.
type CallHandler struct {
	calls  CallService
	logger *zap.Logger
}

// NewCallHandler creates a call handler.
func NewCallHandler(calls CallService, logger *zap.Logger) *CallHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CallHandler{calls: calls, logger: logger.With(zap.String("handler", "calls"))}
}

// HandleStart opens a call. The body is optional.
// @Router /api/v1/calls [post]
func (h *CallHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req handoff.StartCallRequest
	if r.ContentLength != 0 {
		if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
			return
		}
	}
	res, err := h.calls.StartCall(r.Context(), req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccessStatus(w, http.StatusCreated, res)
}

// @Router /api/v1/calls/{id} [get]
func (h *CallHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	call, err := h.calls.GetCall(id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, call)
}

// HandleEnd ends a call and releases its agent.
// @Router /api/v1/calls/{id}/end [post]
func (h *CallHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	call, err := h.calls.EndCall(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, call)
}

func (h *CallHandler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteError(w, types.NewValidationError("call id is required"), h.logger)
		return "", false
	}
	return id, true
}
