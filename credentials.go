package auth

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Credentials is the login payload sent to the backend
type Credentials struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

// GetIdentifier returns the login identifier
func (c Credentials) GetIdentifier() string {
	return c.Nickname
}

// GetPassword returns the secret
func (c Credentials) GetPassword() string {
	return c.Password
}

// Validate checks the payload before it is sent
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Nickname, validation.Required, validation.Length(1, 255)),
		validation.Field(&c.Password, validation.Required, validation.Length(1, 255)),
	)
}

func (c Credentials) String() string {
	return fmt.Sprintf("nickname=%s password=<redacted>", c.Nickname)
}

// AuthToken is the login response
type AuthToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
