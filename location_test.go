package auth_test

import (
	"testing"

	auth "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw      string
		wantPath string
		wantFull string
		wantErr  bool
	}{
		{raw: "", wantPath: "/", wantFull: "/"},
		{raw: "/tasks", wantPath: "/tasks", wantFull: "/tasks"},
		{raw: "tasks", wantPath: "/tasks", wantFull: "/tasks"},
		{raw: "/login?redirect=/tasks", wantPath: "/login", wantFull: "/login?redirect=/tasks"},
		{raw: "/tasks?b=2&a=1", wantPath: "/tasks", wantFull: "/tasks?a=1&b=2"},
		{raw: "https://example.com/tasks", wantErr: true},
		{raw: "//example.com/tasks", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			loc, err := auth.ParseLocation(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, loc.Path)
			assert.Equal(t, tt.wantFull, loc.FullPath())
			assert.Equal(t, tt.wantFull, loc.String())
		})
	}
}

func TestLocation_RedirectRoundTrip(t *testing.T) {
	inner := auth.MustParseLocation("/tasks?page=2&q=a b")

	outer := auth.Location{Path: "/login"}
	outer.Query = map[string][]string{"redirect": {inner.FullPath()}}

	parsed := auth.MustParseLocation(outer.FullPath())
	assert.Equal(t, inner.FullPath(), parsed.Get("redirect"))
	assert.Empty(t, parsed.Get("missing"))
}

func TestMustParseLocationPanics(t *testing.T) {
	assert.Panics(t, func() { auth.MustParseLocation("http://example.com") })
}
