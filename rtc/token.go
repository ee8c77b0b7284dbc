package rtc

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// VideoGrant mirrors the media server's room permission claim.
type VideoGrant struct {
	RoomCreate     bool   `json:"roomCreate,omitempty"`
	RoomList       bool   `json:"roomList,omitempty"`
	RoomAdmin      bool   `json:"roomAdmin,omitempty"`
	RoomJoin       bool   `json:"roomJoin,omitempty"`
	Room           string `json:"room,omitempty"`
	CanPublish     *bool  `json:"canPublish,omitempty"`
	CanSubscribe   *bool  `json:"canSubscribe,omitempty"`
	CanPublishData *bool  `json:"canPublishData,omitempty"`
}

// Claims is the JWT payload understood by the media server.
type Claims struct {
	Name     string      `json:"name,omitempty"`
	Metadata string      `json:"metadata,omitempty"`
	Video    *VideoGrant `json:"video,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs access tokens with the API key/secret pair.
type TokenIssuer struct {
	apiKey    string
	apiSecret string
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenIssuer returns an issuer; ttl <= 0 means 6h.
func NewTokenIssuer(apiKey, apiSecret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &TokenIssuer{apiKey: apiKey, apiSecret: apiSecret, ttl: ttl, now: time.Now}
}

// IssueToken signs a participant token granting join, publish, subscribe and
// data permissions for one room.
func (t *TokenIssuer) IssueToken(req TokenRequest) (string, error) {
	if req.Room == "" || req.Identity == "" {
		return "", errors.New("rtc: room and identity are required")
	}
	name := req.Name
	if name == "" {
		name = req.Identity
	}
	yes := true
	return t.sign(req.Identity, name, req.Metadata, req.TTL, &VideoGrant{
		Room:           req.Room,
		RoomJoin:       true,
		CanPublish:     &yes,
		CanSubscribe:   &yes,
		CanPublishData: &yes,
	})
}

// serverToken authorizes Twirp calls against the room service.
func (t *TokenIssuer) serverToken(room string) (string, error) {
	return t.sign("", "", "", 10*time.Minute, &VideoGrant{RoomCreate: true, RoomList: true, RoomAdmin: true, Room: room})
}

func (t *TokenIssuer) sign(identity, name, metadata string, ttl time.Duration, grant *VideoGrant) (string, error) {
	if t.apiKey == "" || t.apiSecret == "" {
		return "", errors.New("rtc: api key and secret are required")
	}
	if ttl <= 0 {
		ttl = t.ttl
	}
	now := t.now()
	claims := Claims{
		Name:     name,
		Metadata: metadata,
		Video:    grant,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.apiKey,
			Subject:   identity,
			ID:        identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(t.apiSecret))
	if err != nil {
		return "", fmt.Errorf("rtc: sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token issued by t and returns its claims.
func (t *TokenIssuer) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(t.apiSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(t.apiKey), jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, err
	}
	return claims, nil
}
