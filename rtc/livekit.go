package rtc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BaSui01/warmtransfer/internal/tlsutil"
	"go.uber.org/zap"
)

// LiveKitConfig configures the LiveKit room service client.
type LiveKitConfig struct {
	APIKey    string
	APISecret string
	// URL is the server address; ws:// and wss:// are rewritten to http(s)://.
	URL             string
	TokenTTL        time.Duration
	EmptyTimeout    uint32
	MaxParticipants uint32
	Timeout         time.Duration
}

// LiveKitClient implements RoomService against the LiveKit Twirp JSON API.
type LiveKitClient struct {
	*TokenIssuer

	baseURL         string
	emptyTimeout    uint32
	maxParticipants uint32
	client          *http.Client
	logger          *zap.Logger
}

// NewLiveKitClient creates a client. Empty timeout defaults to 300s and
// max participants to 10.
func NewLiveKitClient(cfg LiveKitConfig, logger *zap.Logger) *LiveKitClient {
	if cfg.EmptyTimeout == 0 {
		cfg.EmptyTimeout = 300
	}
	if cfg.MaxParticipants == 0 {
		cfg.MaxParticipants = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveKitClient{
		TokenIssuer:     NewTokenIssuer(cfg.APIKey, cfg.APISecret, cfg.TokenTTL),
		baseURL:         HTTPURL(cfg.URL),
		emptyTimeout:    cfg.EmptyTimeout,
		maxParticipants: cfg.MaxParticipants,
		client:          tlsutil.SecureHTTPClient(cfg.Timeout),
		logger:          logger.With(zap.String("component", "livekit")),
	}
}

// HTTPURL converts a websocket server URL to its HTTP equivalent.
func HTTPURL(u string) string {
	u = strings.TrimRight(u, "/")
	switch {
	case strings.HasPrefix(u, "ws://"):
		return "http://" + strings.TrimPrefix(u, "ws://")
	case strings.HasPrefix(u, "wss://"):
		return "https://" + strings.TrimPrefix(u, "wss://")
	}
	return u
}

// twirpError is the error body of a Twirp endpoint.
type twirpError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// StatusError carries a non-2xx Twirp response.
type StatusError struct {
	Method string
	Status int
	Code   string
	Msg    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("livekit %s: status %d %s: %s", e.Method, e.Status, e.Code, e.Msg)
}

func (c *LiveKitClient) call(ctx context.Context, method, room string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("livekit %s: encode: %w", method, err)
	}
	token, err := c.serverToken(room)
	if err != nil {
		return err
	}

	url := c.baseURL + "/twirp/livekit.RoomService/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("livekit %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("livekit %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
		var te twirpError
		if json.Unmarshal(raw, &te) != nil || te.Msg == "" {
			te.Msg = strings.TrimSpace(string(raw))
		}
		return &StatusError{Method: method, Status: resp.StatusCode, Code: te.Code, Msg: te.Msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("livekit %s: decode: %w", method, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.Status == http.StatusNotFound || se.Code == "not_found" || strings.Contains(strings.ToLower(se.Msg), "not found")
}

// CreateRoom creates (or returns the existing) room.
func (c *LiveKitClient) CreateRoom(ctx context.Context, name string) (*Room, error) {
	var out struct {
		SID             string          `json:"sid"`
		Name            string          `json:"name"`
		EmptyTimeout    uint32          `json:"empty_timeout"`
		MaxParticipants uint32          `json:"max_participants"`
		CreationTime    json.RawMessage `json:"creation_time"`
	}
	in := map[string]any{
		"name":             name,
		"empty_timeout":    c.emptyTimeout,
		"max_participants": c.maxParticipants,
	}
	if err := c.call(ctx, "CreateRoom", name, in, &out); err != nil {
		return nil, err
	}
	room := &Room{SID: out.SID, Name: out.Name, EmptyTimeout: out.EmptyTimeout, MaxParticipants: out.MaxParticipants}
	if secs, err := strconv.ParseInt(strings.Trim(string(out.CreationTime), `"`), 10, 64); err == nil && secs > 0 {
		room.CreatedAt = time.Unix(secs, 0)
	}
	c.logger.Debug("room created", zap.String("room", name), zap.String("sid", out.SID))
	return room, nil
}

// DeleteRoom removes a room and disconnects everyone in it.
func (c *LiveKitClient) DeleteRoom(ctx context.Context, name string) error {
	err := c.call(ctx, "DeleteRoom", name, map[string]string{"room": name}, nil)
	if isNotFound(err) {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, name)
	}
	return err
}

// RemoveParticipant disconnects identity from room.
func (c *LiveKitClient) RemoveParticipant(ctx context.Context, room, identity string) error {
	err := c.call(ctx, "RemoveParticipant", room, map[string]string{"room": room, "identity": identity}, nil)
	if isNotFound(err) {
		return fmt.Errorf("%w: %s in %s", ErrParticipantNotFound, identity, room)
	}
	return err
}
