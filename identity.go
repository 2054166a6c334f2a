package auth

import (
	"encoding/json"
	"fmt"
)

// Identity is the user the current session belongs to
type Identity struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

// IsZero reports whether the identity is empty
func (i Identity) IsZero() bool {
	return i.UserID == "" && i.Nickname == ""
}

func (i Identity) String() string {
	return fmt.Sprintf("user=%s nickname=%s", i.UserID, i.Nickname)
}

func marshalIdentity(i Identity) (string, error) {
	raw, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("marshal identity: %w", err)
	}
	return string(raw), nil
}

func unmarshalIdentity(raw string) (Identity, error) {
	var i Identity
	if err := json.Unmarshal([]byte(raw), &i); err != nil {
		return Identity{}, fmt.Errorf("unmarshal identity: %w", err)
	}
	return i, nil
}
