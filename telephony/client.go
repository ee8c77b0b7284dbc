// Package telephony bridges PSTN/SIP calls into the transfer flow through a
// Twilio-compatible REST API and the TwiML documents that steer those calls.
package telephony

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by every call on an unconfigured client.
var ErrNotConfigured = errors.New("telephony: not configured")

// Call is the provider's view of a phone call.
type Call struct {
	SID       string    `json:"sid"`
	Status    string    `json:"status"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Direction string    `json:"direction,omitempty"`
	StartedAt time.Time `json:"startedAt,omitempty"`
}

// PlaceCallRequest describes an outbound call. From defaults to the client's
// number; Timeout defaults to 30s of ringing.
type PlaceCallRequest struct {
	To                string
	From              string
	InstructionsURL   string
	StatusCallbackURL string
	Timeout           time.Duration
}

// Client is the telephony collaborator.
type Client interface {
	Configured() bool
	PlaceCall(ctx context.Context, req PlaceCallRequest) (*Call, error)
	RedirectCall(ctx context.Context, sid, instructionsURL string) (*Call, error)
	GetCall(ctx context.Context, sid string) (*Call, error)
	EndCall(ctx context.Context, sid string) (*Call, error)
}

// Disabled is the Client used when no credentials are configured.
type Disabled struct{}

func (Disabled) Configured() bool { return false }

func (Disabled) PlaceCall(context.Context, PlaceCallRequest) (*Call, error) {
	return nil, ErrNotConfigured
}

func (Disabled) RedirectCall(context.Context, string, string) (*Call, error) {
	return nil, ErrNotConfigured
}

func (Disabled) GetCall(context.Context, string) (*Call, error) { return nil, ErrNotConfigured }

func (Disabled) EndCall(context.Context, string) (*Call, error) { return nil, ErrNotConfigured }
