// Package auth issues signed grants for private delivery channels.
package auth

import (
	"fmt"
	"messenger/domain"
	"messenger/errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ChannelFor names the private channel carrying a participant's deliveries.
func ChannelFor(ref domain.Ref) string {
	return "private-messenger." + ref.UID()
}

// GrantClaims is the data signed into a channel grant.
type GrantClaims struct {
	UserUID  string `json:"user_uid"`
	Channel  string `json:"channel"`
	SocketID string `json:"socket_id"`
	jwt.RegisteredClaims
}

// ChannelAuthorizer decides channel access and signs grants.
// The secret should come from the environment, never from source.
type ChannelAuthorizer struct {
	secret []byte
	ttl    time.Duration
}

func NewChannelAuthorizer(secret []byte, ttl time.Duration) *ChannelAuthorizer {
	return &ChannelAuthorizer{secret: secret, ttl: ttl}
}

// Authorize grants access only when the requester is exactly the identity the
// channel claims to belong to, by both kind and id. A zero requester means no
// session at all, which is a different failure than claiming someone else.
func (a *ChannelAuthorizer) Authorize(requester, claimed domain.Ref, channel, socketID string) (string, error) {
	if requester.IsZero() {
		return "", errors.ErrNotAuthenticated
	}
	if !requester.Equal(claimed) {
		return "", errors.ErrNotAuthorized
	}

	now := time.Now()
	claims := &GrantClaims{
		UserUID:  requester.UID(),
		Channel:  channel,
		SocketID: socketID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "messenger",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("grant signing failed: %w", err)
	}
	return signed, nil
}

// Validate parses a grant and verifies its signature and expiration.
func (a *ChannelAuthorizer) Validate(grant string) (*GrantClaims, error) {
	token, err := jwt.ParseWithClaims(grant, &GrantClaims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*GrantClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
