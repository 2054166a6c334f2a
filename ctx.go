package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// DefaultContextKey is the router locals key holding the session identity
const DefaultContextKey = "current_user"

// IdentityProvider exposes the identity of the current session
type IdentityProvider interface {
	Identity() (Identity, bool)
}

// WithIdentityContext sets the Identity in the given context
func WithIdentityContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// IdentityFromContext finds the identity in the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityCtxKey).(Identity)
	return identity, ok
}

// GetRouterIdentity extracts the Identity from the router context locals
func GetRouterIdentity(ctx router.Context, key string) (Identity, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return Identity{}, false
	}
	switch v := raw.(type) {
	case Identity:
		return v, true
	case *Identity:
		if v == nil {
			return Identity{}, false
		}
		return *v, true
	default:
		return Identity{}, false
	}
}
