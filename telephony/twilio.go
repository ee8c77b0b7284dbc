package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BaSui01/warmtransfer/internal/tlsutil"
	"github.com/BaSui01/warmtransfer/types"
	"go.uber.org/zap"
)

// TwilioConfig holds account credentials.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
	// BaseURL defaults to https://api.twilio.com.
	BaseURL string
	Timeout time.Duration
}

// TwilioClient implements Client over the Twilio REST API (2010-04-01).
type TwilioClient struct {
	cfg    TwilioConfig
	client *http.Client
	logger *zap.Logger
}

// NewTwilioClient creates a client.
func NewTwilioClient(cfg TwilioConfig, logger *zap.Logger) *TwilioClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TwilioClient{
		cfg:    cfg,
		client: tlsutil.SecureHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("component", "twilio")),
	}
}

// Configured reports whether credentials and a caller number are present.
func (c *TwilioClient) Configured() bool {
	return c.cfg.AccountSID != "" && c.cfg.AuthToken != "" && c.cfg.PhoneNumber != ""
}

type twilioCall struct {
	SID       string `json:"sid"`
	Status    string `json:"status"`
	From      string `json:"from"`
	To        string `json:"to"`
	Direction string `json:"direction"`
	StartTime string `json:"start_time"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (c *TwilioClient) callsURL(sid string) string {
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/2010-04-01/Accounts/" + url.PathEscape(c.cfg.AccountSID) + "/Calls"
	if sid != "" {
		u += "/" + url.PathEscape(sid)
	}
	return u + ".json"
}

func (c *TwilioClient) do(ctx context.Context, method, endpoint string, form url.Values) (*Call, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("twilio: %w", err)
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, types.NewCollaboratorError(types.ErrTelephonyError, "telephony provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var te twilioError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
		if json.Unmarshal(raw, &te) != nil || te.Message == "" {
			te.Message = strings.TrimSpace(string(raw))
		}
		c.logger.Debug("request rejected", zap.Int("status", resp.StatusCode), zap.Int("code", te.Code), zap.String("message", te.Message))
		if resp.StatusCode == http.StatusNotFound {
			return nil, types.NewError(types.ErrNotFound, "call not found").WithHTTPStatus(http.StatusNotFound)
		}
		cause := fmt.Errorf("twilio status %d code %d: %s", resp.StatusCode, te.Code, te.Message)
		e := types.NewCollaboratorError(types.ErrTelephonyError, "telephony request failed", cause)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			e = e.WithRetryable(false)
		}
		return nil, e
	}

	var tc twilioCall
	if err := json.NewDecoder(resp.Body).Decode(&tc); err != nil {
		return nil, types.NewCollaboratorError(types.ErrTelephonyError, "invalid telephony response", err)
	}
	call := &Call{SID: tc.SID, Status: tc.Status, From: tc.From, To: tc.To, Direction: tc.Direction}
	if t, err := time.Parse(time.RFC1123Z, tc.StartTime); err == nil {
		call.StartedAt = t
	}
	return call, nil
}

// PlaceCall starts an outbound call that fetches its instructions from
// req.InstructionsURL.
func (c *TwilioClient) PlaceCall(ctx context.Context, req PlaceCallRequest) (*Call, error) {
	from := req.From
	if from == "" {
		from = c.cfg.PhoneNumber
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	form := url.Values{
		"To":      {req.To},
		"From":    {from},
		"Url":     {req.InstructionsURL},
		"Method":  {http.MethodPost},
		"Timeout": {strconv.Itoa(int(timeout / time.Second))},
	}
	if req.StatusCallbackURL != "" {
		form.Set("StatusCallback", req.StatusCallbackURL)
		form.Set("StatusCallbackMethod", http.MethodPost)
	}
	call, err := c.do(ctx, http.MethodPost, c.callsURL(""), form)
	if err != nil {
		return nil, err
	}
	c.logger.Info("outbound call placed", zap.String("sid", call.SID), zap.String("status", call.Status))
	return call, nil
}

// RedirectCall points a live call at new instructions.
func (c *TwilioClient) RedirectCall(ctx context.Context, sid, instructionsURL string) (*Call, error) {
	return c.do(ctx, http.MethodPost, c.callsURL(sid), url.Values{
		"Url":    {instructionsURL},
		"Method": {http.MethodPost},
	})
}

// GetCall fetches a call.
func (c *TwilioClient) GetCall(ctx context.Context, sid string) (*Call, error) {
	return c.do(ctx, http.MethodGet, c.callsURL(sid), nil)
}

// EndCall hangs a call up.
func (c *TwilioClient) EndCall(ctx context.Context, sid string) (*Call, error) {
	return c.do(ctx, http.MethodPost, c.callsURL(sid), url.Values{"Status": {"completed"}})
}
