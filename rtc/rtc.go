// Package rtc adapts the real-time media server (LiveKit-compatible) used for
// customer and handoff rooms: room lifecycle over the Twirp JSON API and
// participant access tokens signed as HS256 JWTs.
package rtc

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrParticipantNotFound is returned by RemoveParticipant when the
	// identity already left the room (or the room is gone).
	ErrParticipantNotFound = errors.New("rtc: participant not found")
	// ErrRoomNotFound is returned by DeleteRoom for an unknown room.
	ErrRoomNotFound = errors.New("rtc: room not found")
)

// Room is the server's view of a created room.
type Room struct {
	SID             string    `json:"sid"`
	Name            string    `json:"name"`
	EmptyTimeout    uint32    `json:"empty_timeout"`
	MaxParticipants uint32    `json:"max_participants"`
	CreatedAt       time.Time `json:"created_at"`
}

// TokenRequest describes one participant access token.
type TokenRequest struct {
	Room     string
	Identity string
	// Name defaults to Identity.
	Name     string
	Metadata string
	// TTL overrides the issuer default.
	TTL time.Duration
}

// RoomService is everything the transfer flow needs from the media server.
type RoomService interface {
	CreateRoom(ctx context.Context, name string) (*Room, error)
	DeleteRoom(ctx context.Context, name string) error
	RemoveParticipant(ctx context.Context, room, identity string) error
	IssueToken(req TokenRequest) (string, error)
}
