package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/BaSui01/warmtransfer/agent/handoff"
	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// =============================================================================
// Transfer Handler
// =============================================================================

// TransferService is the transfer state machine as seen by the API.
type TransferService interface {
	InitiateTransfer(ctx context.Context, req handoff.InitiateRequest) (*handoff.InitiateResult, error)
	BeginBriefing(ctx context.Context, transferID string) (*types.TransferSession, error)
	CompleteTransfer(ctx context.Context, req handoff.CompleteRequest) (*handoff.CompleteResult, error)
	CancelTransfer(ctx context.Context, transferID string) (*handoff.CancelResult, error)
	GetSession(ctx context.Context, transferID string) (*types.TransferSession, error)
	ListActive(ctx context.Context) ([]*types.TransferSession, error)
}

// TransferHandler serves the warm transfer lifecycle.
type TransferHandler struct {
	transfers TransferService
	logger    *zap.Logger
}

// NewTransferHandler creates a transfer handler.
func NewTransferHandler(transfers TransferService, logger *zap.Logger) *TransferHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferHandler{transfers: transfers, logger: logger.With(zap.String("handler", "transfers"))}
}

// HandleInitiate starts a transfer from Agent A to Agent B.
// @Router /api/v1/transfers [post]
func (h *TransferHandler) HandleInitiate(w http.ResponseWriter, r *http.Request) {
	var req handoff.InitiateRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	res, err := h.transfers.InitiateTransfer(r.Context(), req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccessStatus(w, http.StatusCreated, res)
}

// HandleBriefing marks the briefing between both agents as started.
// @Router /api/v1/transfers/{id}/briefing [post]
func (h *TransferHandler) HandleBriefing(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	s, err := h.transfers.BeginBriefing(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, s)
}

// HandleComplete hands the caller to Agent B.
// @Router /api/v1/transfers/complete [post]
func (h *TransferHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	var req handoff.CompleteRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.TransferID) == "" {
		WriteError(w, types.NewValidationError("transferId is required"), h.logger)
		return
	}
	res, err := h.transfers.CompleteTransfer(r.Context(), req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, res)
}

// HandleCancel abandons a transfer and releases both agents.
// @Router /api/v1/transfers/{id}/cancel [post]
func (h *TransferHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	res, err := h.transfers.CancelTransfer(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, res)
}

// HandleGet returns one transfer.
// @Router /api/v1/transfers/{id} [get]
func (h *TransferHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	s, err := h.transfers.GetSession(r.Context(), id)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, s)
}

// HandleList returns the transfers that are not completed.
// @Router /api/v1/transfers [get]
func (h *TransferHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.transfers.ListActive(r.Context())
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	if sessions == nil {
		sessions = []*types.TransferSession{}
	}
	WriteSuccess(w, sessions)
}

func (h *TransferHandler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteError(w, types.NewValidationError("transfer id is required"), h.logger)
		return "", false
	}
	return id, true
}
