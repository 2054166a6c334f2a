package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the payload the backend embeds in its tokens
type TokenClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// UserID returns the user ID, falling back to the subject claim
func (c *TokenClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// DisplayName returns the nickname claim
func (c *TokenClaims) DisplayName() string {
	return c.Nickname
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// ExpiredAt reports whether the token is expired at now. Comparison is done
// in whole seconds and a token expiring at the current second is expired.
func (c *TokenClaims) ExpiredAt(now time.Time) bool {
	if c.RegisteredClaims.ExpiresAt == nil {
		return true
	}
	return c.Expires().Unix() <= now.Unix()
}

// Identity returns the identity described by the claims
func (c *TokenClaims) Identity() Identity {
	return Identity{
		UserID:   c.UserID(),
		Nickname: c.DisplayName(),
	}
}
