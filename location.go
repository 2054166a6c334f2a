package auth

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Location is a navigation target inside the client
type Location struct {
	Path  string
	Query url.Values
}

// ParseLocation parses a client path such as "/tasks?page=2". Absolute URLs
// are rejected.
func ParseLocation(raw string) (Location, error) {
	if raw == "" {
		return Location{Path: "/"}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse location %q: %w", raw, err)
	}

	if u.Scheme != "" || u.Host != "" {
		return Location{}, fmt.Errorf("parse location %q: absolute URLs are not navigable", raw)
	}

	path := u.Path
	if path == "" || path[0] != '/' {
		path = "/" + path
	}

	return Location{Path: path, Query: u.Query()}, nil
}

// MustParseLocation is ParseLocation that panics on error
func MustParseLocation(raw string) Location {
	loc, err := ParseLocation(raw)
	if err != nil {
		panic(err)
	}
	return loc
}

// Get returns the first value of the query parameter key
func (l Location) Get(key string) string {
	if l.Query == nil {
		return ""
	}
	return l.Query.Get(key)
}

// FullPath returns the path and encoded query. Slashes in query values are
// kept readable so "/login?redirect=/tasks" round trips as written.
func (l Location) FullPath() string {
	if len(l.Query) == 0 {
		return l.Path
	}

	keys := make([]string, 0, len(l.Query))
	for k := range l.Query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(l.Path)
	sep := byte('?')
	for _, k := range keys {
		for _, v := range l.Query[k] {
			b.WriteByte(sep)
			sep = '&'
			b.WriteString(encodeQueryComponent(k))
			b.WriteByte('=')
			b.WriteString(encodeQueryComponent(v))
		}
	}
	return b.String()
}

func (l Location) String() string {
	return l.FullPath()
}

// withQuery returns a location at path with a single query parameter
func withQuery(path, key, value string) Location {
	return Location{Path: path, Query: url.Values{key: []string{value}}}
}

func encodeQueryComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "%2F", "/")
}

// isLocalPath reports whether raw is a path inside the client, not a
// protocol relative or absolute URL.
func isLocalPath(raw string) bool {
	if raw == "" || raw[0] != '/' {
		return false
	}
	if strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return false
	}
	return true
}

func cleanPath(p string) string {
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	if p == "" {
		return "/"
	}
	return p
}
