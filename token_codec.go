package auth

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var unverifiedParser = jwt.NewParser()

// DecodeToken extracts the claims from a compact token without checking its
// signature. A successful decode means the token is parseable, not that it
// is authentic: only the backend can establish that. The header is not
// read, so tokens with any alg decode the same way.
func DecodeToken(token string) (*TokenClaims, error) {
	if token == "" {
		return nil, decodeError("empty token", nil)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, decodeError("token must have three segments", nil)
	}

	payload, err := unverifiedParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, decodeError("payload is not base64url", err)
	}

	claims := &TokenClaims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil, decodeError("payload is not a claims object", err)
	}

	if claims.ExpiresAt == nil {
		return nil, decodeError("missing exp claim", nil)
	}

	if claims.UserID() == "" {
		return nil, decodeError("missing user_id claim", nil)
	}

	return claims, nil
}
