package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/BaSui01/warmtransfer/rtc"
	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// TokenIssuer signs participant access tokens.
type TokenIssuer interface {
	IssueToken(req rtc.TokenRequest) (string, error)
}

// TokenRequest asks for a room access token. Metadata may be any JSON value;
// it is attached to the participant verbatim.
type TokenRequest struct {
	RoomName        string          `json:"roomName"`
	ParticipantName string          `json:"participantName"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
}

// TokenResponse carries the signed token and where to use it.
type TokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url,omitempty"`
}

// RTCHandler issues media room tokens.
type RTCHandler struct {
	issuer TokenIssuer
	wsURL  string
	logger *zap.Logger
}

// NewRTCHandler creates an RTC handler. wsURL is returned to clients as the
// media server address.
func NewRTCHandler(issuer TokenIssuer, wsURL string, logger *zap.Logger) *RTCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RTCHandler{issuer: issuer, wsURL: wsURL, logger: logger.With(zap.String("handler", "rtc"))}
}

// HandleToken issues a participant token.
// @Router /api/v1/rtc/token [post]
func (h *RTCHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	req.RoomName = strings.TrimSpace(req.RoomName)
	req.ParticipantName = strings.TrimSpace(req.ParticipantName)
	if req.RoomName == "" || req.ParticipantName == "" {
		WriteError(w, types.NewValidationError("roomName and participantName are required"), h.logger)
		return
	}

	metadata := ""
	if len(req.Metadata) > 0 && string(req.Metadata) != "null" {
		metadata = string(req.Metadata)
	}
	token, err := h.issuer.IssueToken(rtc.TokenRequest{
		Room:     req.RoomName,
		Identity: req.ParticipantName,
		Metadata: metadata,
	})
	if err != nil {
		WriteError(w, types.NewError(types.ErrTokenIssueFailed, "failed to issue access token").WithCause(err), h.logger)
		return
	}
	WriteSuccess(w, TokenResponse{Token: token, URL: h.wsURL})
}
