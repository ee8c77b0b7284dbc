package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// TranscriptStore records live call transcripts.
type TranscriptStore interface {
	Append(ctx context.Context, sessionID, speaker, text string) (types.TranscriptEntry, error)
	Snapshot(sessionID string) []types.TranscriptEntry
}

// AppendTranscriptRequest is one utterance.
type AppendTranscriptRequest struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// TranscriptResponse is a transcript snapshot.
type TranscriptResponse struct {
	SessionID string                  `json:"sessionId"`
	Entries   []types.TranscriptEntry `json:"entries"`
}

// TranscriptHandler serves call transcripts.
type TranscriptHandler struct {
	transcripts TranscriptStore
	logger      *zap.Logger
}

// NewTranscriptHandler creates a transcript handler.
func NewTranscriptHandler(transcripts TranscriptStore, logger *zap.Logger) *TranscriptHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptHandler{transcripts: transcripts, logger: logger.With(zap.String("handler", "transcripts"))}
}

// HandleAppend appends an utterance, annotated with sentiment when available.
// @Router /api/v1/transcripts/{sessionId}/entries [post]
func (h *TranscriptHandler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	var req AppendTranscriptRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if strings.TrimSpace(req.Speaker) == "" || strings.TrimSpace(req.Text) == "" {
		WriteError(w, types.NewValidationError("speaker and text are required"), h.logger)
		return
	}
	entry, err := h.transcripts.Append(r.Context(), r.PathValue("sessionId"), req.Speaker, req.Text)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccessStatus(w, http.StatusCreated, entry)
}

// @Router /api/v1/transcripts/{sessionId} [get]
func (h *TranscriptHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("sessionId"))
	if id == "" {
		WriteError(w, types.NewValidationError("sessionId is required"), h.logger)
		return
	}
	WriteSuccess(w, TranscriptResponse{SessionID: id, Entries: h.transcripts.Snapshot(id)})
}
