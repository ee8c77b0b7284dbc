package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/BaSui01/warmtransfer/notify"
	"github.com/BaSui01/warmtransfer/types"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// =============================================================================
// 🔔 Notification Handler
// =============================================================================

// NotificationsResponse is one drained mailbox.
type NotificationsResponse struct {
	AgentID      string         `json:"agentId"`
	Events       []notify.Event `json:"events"`
	PollInterval int64          `json:"pollIntervalMs"`
}

// NotificationHandler relays transfer events to agents, by polling or over
// a websocket.
type NotificationHandler struct {
	broker         notify.Broker
	pollInterval   time.Duration
	pingInterval   time.Duration
	originPatterns []string
	logger         *zap.Logger
}

// NotificationOption configures a NotificationHandler.
type NotificationOption func(*NotificationHandler)

// WithOriginPatterns allows cross-origin websocket upgrades from the given
// host patterns.
func WithOriginPatterns(patterns ...string) NotificationOption {
	return func(h *NotificationHandler) { h.originPatterns = patterns }
}

// WithPingInterval sets the websocket keepalive interval.
func WithPingInterval(d time.Duration) NotificationOption {
	return func(h *NotificationHandler) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// NewNotificationHandler creates a notification handler. pollInterval is
// advertised to polling clients.
func NewNotificationHandler(broker notify.Broker, pollInterval time.Duration, logger *zap.Logger, opts ...NotificationOption) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	h := &NotificationHandler{
		broker:       broker,
		pollInterval: pollInterval,
		pingInterval: 30 * time.Second,
		logger:       logger.With(zap.String("handler", "notifications")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandlePoll drains the agent's mailbox.
// @Router /api/v1/notifications/{agentId} [get]
func (h *NotificationHandler) HandlePoll(w http.ResponseWriter, r *http.Request) {
	agentID, ok := h.agentID(w, r)
	if !ok {
		return
	}
	events, err := h.broker.Poll(r.Context(), agentID)
	if err != nil {
		WriteError(w, types.NewError(types.ErrServiceUnavailable, "notification relay unavailable").WithCause(err), h.logger)
		return
	}
	if events == nil {
		events = []notify.Event{}
	}
	WriteSuccess(w, NotificationsResponse{
		AgentID:      agentID,
		Events:       events,
		PollInterval: h.pollInterval.Milliseconds(),
	})
}

// HandleStream upgrades to a websocket and pushes each event as a JSON text
// message until the client goes away.
// @Router /api/v1/notifications/{agentId}/stream [get]
func (h *NotificationHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	agentID, ok := h.agentID(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		// Accept 已写出错误响应
		h.logger.Debug("websocket upgrade failed", zap.String("agent_id", agentID), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	// 客户端只接收，不发送；CloseRead 处理控制帧并在断开时取消 ctx
	ctx := conn.CloseRead(r.Context())

	events, cancel, err := h.broker.Subscribe(ctx, agentID)
	if err != nil {
		h.logger.Warn("subscribe failed", zap.String("agent_id", agentID), zap.Error(err))
		conn.Close(websocket.StatusInternalError, "notification relay unavailable")
		return
	}
	defer cancel()

	h.logger.Debug("notification stream opened", zap.String("agent_id", agentID))
	err = h.pump(ctx, conn, events)
	switch {
	case err == nil:
		conn.Close(websocket.StatusNormalClosure, "")
	case errors.Is(err, context.Canceled) || websocket.CloseStatus(err) != -1:
	default:
		h.logger.Debug("notification stream closed", zap.String("agent_id", agentID), zap.Error(err))
	}
}

func (h *NotificationHandler) pump(ctx context.Context, conn *websocket.Conn, events <-chan notify.Event) error {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(wctx, conn, ev)
			cancel()
			if err != nil {
				return err
			}
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (h *NotificationHandler) agentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("agentId"))
	if id == "" {
		WriteError(w, types.NewValidationError("agentId is required"), h.logger)
		return "", false
	}
	return id, true
}
