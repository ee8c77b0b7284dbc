package handlers

import (
	"net/http"
	"strings"

	"github.com/BaSui01/warmtransfer/telephony"
	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// =============================================================================
// ☎️ Telephony Handler
// =============================================================================

// PlaceCallRequest dials a phone number into a media room.
type PlaceCallRequest struct {
	To              string `json:"to"`
	RoomName        string `json:"roomName,omitempty"`
	ParticipantName string `json:"participantName,omitempty"`
}

// PlaceCallResponse reports the provider's call.
type PlaceCallResponse struct {
	CallSID string `json:"callSid"`
	Status  string `json:"status"`
}

// CallStatusUpdate is a provider status callback.
type CallStatusUpdate struct {
	CallSID    string `json:"callSid"`
	CallStatus string `json:"callStatus"`
	From       string `json:"from,omitempty"`
	To         string `json:"to,omitempty"`
}

// TelephonyHandler serves phone calls and the TwiML documents that steer
// them.
type TelephonyHandler struct {
	client    telephony.Client
	urls      telephony.URLs
	streamURL string
	logger    *zap.Logger
}

// NewTelephonyHandler creates a telephony handler. streamURL is the media
// stream endpoint phone legs are bridged to.
func NewTelephonyHandler(client telephony.Client, urls telephony.URLs, streamURL string, logger *zap.Logger) *TelephonyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelephonyHandler{
		client:    client,
		urls:      urls,
		streamURL: streamURL,
		logger:    logger.With(zap.String("handler", "telephony")),
	}
}

func (h *TelephonyHandler) configured(w http.ResponseWriter) bool {
	if h.client == nil || !h.client.Configured() {
		WriteError(w, types.NewError(types.ErrServiceUnavailable, "telephony is not configured"), h.logger)
		return false
	}
	return true
}

// HandlePlaceCall dials out and bridges the callee into a room.
// @Router /api/v1/telephony/calls [post]
func (h *TelephonyHandler) HandlePlaceCall(w http.ResponseWriter, r *http.Request) {
	var req PlaceCallRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if !h.configured(w) {
		return
	}
	if strings.TrimSpace(req.To) == "" {
		WriteError(w, types.NewValidationError("phone number is required"), h.logger)
		return
	}
	room := firstNonEmpty(req.RoomName, "default-room")
	participant := firstNonEmpty(req.ParticipantName, "phone-caller")

	call, err := h.client.PlaceCall(r.Context(), telephony.PlaceCallRequest{
		To:                req.To,
		InstructionsURL:   h.urls.Connect(room, participant),
		StatusCallbackURL: h.urls.Status(),
	})
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccessStatus(w, http.StatusCreated, PlaceCallResponse{CallSID: call.SID, Status: call.Status})
}

// HandleTransfer moves a live phone call to a number or SIP URI.
// @Router /api/v1/telephony/transfer [post]
func (h *TelephonyHandler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	var req telephony.TransferRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if !h.configured(w) {
		return
	}
	res, err := telephony.Transfer(r.Context(), h.client, h.urls, req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.logger.Info("phone call transferred",
		zap.String("call_sid", res.CallSID),
		zap.String("kind", string(res.Kind)),
	)
	WriteSuccess(w, res)
}

// HandleStatus records a provider status callback (form encoded).
// @Router /api/v1/telephony/status [post]
func (h *TelephonyHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, types.NewValidationError("invalid form body").WithCause(err), h.logger)
		return
	}
	update := CallStatusUpdate{
		CallSID:    r.PostForm.Get("CallSid"),
		CallStatus: r.PostForm.Get("CallStatus"),
		From:       r.PostForm.Get("From"),
		To:         r.PostForm.Get("To"),
	}
	h.logger.Info("call status update",
		zap.String("call_sid", update.CallSID),
		zap.String("status", update.CallStatus),
		zap.String("from", update.From),
		zap.String("to", update.To),
	)
	WriteSuccess(w, update)
}

// =============================================================================
// 📜 TwiML 文档
// =============================================================================

// HandleConnectTwiML bridges the phone leg into a room.
// @Router /twiml/connect [get,post]
func (h *TelephonyHandler) HandleConnectTwiML(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeTwiML(w, telephony.ConnectTwiML(h.streamURL,
		firstNonEmpty(q.Get("room"), "default-room"),
		firstNonEmpty(q.Get("participant"), "phone-caller"),
	))
}

// HandleTransferTwiML speaks the explanation and dials the target.
// @Router /twiml/transfer [get,post]
func (h *TelephonyHandler) HandleTransferTwiML(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeTwiML(w, telephony.TransferTwiML(
		firstNonEmpty(q.Get("explanation"), "Transferring your call."),
		q.Get("target"),
	))
}

// HandleSIPTransferTwiML dials a SIP URI.
// @Router /twiml/sip-transfer [get,post]
func (h *TelephonyHandler) HandleSIPTransferTwiML(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeTwiML(w, telephony.SIPTransferTwiML(q.Get("target"), q.Get("displayName")))
}

func writeTwiML(w http.ResponseWriter, doc string) {
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
