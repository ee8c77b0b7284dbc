package rtc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NoopRoomService keeps rooms in memory only. It is used when no media server
// is configured: rooms are virtual but tokens are still signed, so clients
// can be exercised end to end against a local server.
type NoopRoomService struct {
	*TokenIssuer

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewNoopRoomService returns a virtual room service.
func NewNoopRoomService(issuer *TokenIssuer) *NoopRoomService {
	return &NoopRoomService{TokenIssuer: issuer, rooms: make(map[string]*Room)}
}

func (n *NoopRoomService) CreateRoom(_ context.Context, name string) (*Room, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if r, ok := n.rooms[name]; ok {
		cp := *r
		return &cp, nil
	}
	r := &Room{
		SID:             "RM_" + uuid.NewString()[:12],
		Name:            name,
		EmptyTimeout:    300,
		MaxParticipants: 10,
		CreatedAt:       time.Now(),
	}
	n.rooms[name] = r
	cp := *r
	return &cp, nil
}

func (n *NoopRoomService) DeleteRoom(_ context.Context, name string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.rooms[name]; !ok {
		return ErrRoomNotFound
	}
	delete(n.rooms, name)
	return nil
}

// RemoveParticipant always succeeds; virtual rooms track no participants.
func (n *NoopRoomService) RemoveParticipant(context.Context, string, string) error {
	return nil
}

// Rooms returns the number of live virtual rooms.
func (n *NoopRoomService) Rooms() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.rooms)
}
