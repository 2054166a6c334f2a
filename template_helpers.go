package auth

import (
	"strings"

	"github.com/goliatone/go-router"
)

var TemplateUserKey = DefaultContextKey

// TemplateHelpers returns helper functions for server rendered console
// pages. Pass it as global template data.
//
// In templates, you can then use:
//
//	{% if current_user|is_authenticated %}
//	Signed in as {{ current_user|display_name }}
func TemplateHelpers() map[string]any {
	return map[string]any{
		"is_authenticated": isAuthenticated,
		"display_name":     displayName,
		"login_path":       DefaultLoginPath,
	}
}

// TemplateHelpersWithIdentity returns template helpers with identity set as
// current_user.
func TemplateHelpersWithIdentity(identity Identity) map[string]any {
	helpers := TemplateHelpers()
	helpers[TemplateUserKey] = identity
	return helpers
}

// TemplateHelpersWithRouter returns template helpers with the identity
// stored in the router context by the guard middleware.
//
//	globalData := auth.TemplateHelpersWithRouter(ctx, auth.TemplateUserKey)
func TemplateHelpersWithRouter(ctx router.Context, userKey string) map[string]any {
	if userKey == "" {
		userKey = TemplateUserKey
	}

	helpers := TemplateHelpers()
	if identity, ok := GetRouterIdentity(ctx, userKey); ok {
		helpers[TemplateUserKey] = identity
	}
	return helpers
}

// GetTemplateUser returns the identity stored under userKey for template usage.
func GetTemplateUser(ctx router.Context, userKey string) (any, bool) {
	if userKey == "" {
		userKey = TemplateUserKey
	}
	identity, ok := GetRouterIdentity(ctx, userKey)
	if !ok {
		return nil, false
	}
	return identity, true
}

// isAuthenticated checks if the provided user object is a known identity
func isAuthenticated(user any) bool {
	switch u := user.(type) {
	case Identity:
		return u.UserID != ""
	case *Identity:
		return u != nil && u.UserID != ""
	case map[string]any:
		// JSON-converted identities
		id, _ := u["user_id"].(string)
		return id != ""
	default:
		return false
	}
}

// displayName returns the nickname, falling back to the user id
func displayName(user any) string {
	var identity Identity
	switch u := user.(type) {
	case Identity:
		identity = u
	case *Identity:
		if u == nil {
			return ""
		}
		identity = *u
	case map[string]any:
		identity.UserID, _ = u["user_id"].(string)
		identity.Nickname, _ = u["nickname"].(string)
	default:
		return ""
	}

	if name := strings.TrimSpace(identity.Nickname); name != "" {
		return name
	}
	return identity.UserID
}
