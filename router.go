package auth

import (
	"context"
	"fmt"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// ErrTooManyRedirects is returned when navigation keeps bouncing between routes
var ErrTooManyRedirects = goerrors.New("too many redirects", goerrors.CategoryRouting)

const defaultMaxRedirects = 8

// Router is the in-process navigation collaborator. Every navigation runs
// through the guard before it is committed.
type Router struct {
	mu           sync.Mutex
	guard        *Guard
	current      Location
	history      []Location
	maxRedirects int
	listeners    []func(Location)
	logger       Logger
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithMaxRedirects bounds the redirects followed for a single navigation
func WithMaxRedirects(n int) RouterOption {
	return func(r *Router) {
		if n > 0 {
			r.maxRedirects = n
		}
	}
}

// WithRouterLogger sets the router logger
func WithRouterLogger(logger Logger) RouterOption {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRouterLoggerProvider takes the router logger from provider
func WithRouterLoggerProvider(provider LoggerProvider) RouterOption {
	return func(r *Router) {
		_, r.logger = ResolveLogger(LoggerNameRouter, provider, r.logger)
	}
}

// OnNavigate registers a listener called after each committed navigation
func OnNavigate(fn func(Location)) RouterOption {
	return func(r *Router) {
		if fn != nil {
			r.listeners = append(r.listeners, fn)
		}
	}
}

// NewRouter creates a router that starts at "/" without having navigated.
func NewRouter(guard *Guard, opts ...RouterOption) *Router {
	r := &Router{
		guard:        guard,
		current:      Location{Path: "/"},
		maxRedirects: defaultMaxRedirects,
		logger:       defLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Navigate parses raw and navigates to it
func (r *Router) Navigate(ctx context.Context, raw string) (Location, error) {
	to, err := ParseLocation(raw)
	if err != nil {
		return Location{}, err
	}
	return r.navigate(ctx, to)
}

// Push navigates to to, satisfying Navigator
func (r *Router) Push(ctx context.Context, to Location) error {
	_, err := r.navigate(ctx, to)
	return err
}

// CurrentPath returns the full path of the committed location
func (r *Router) CurrentPath() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.FullPath()
}

// Current returns the committed location
func (r *Router) Current() Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// History returns the committed locations, oldest first
func (r *Router) History() []Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Location, len(r.history))
	copy(out, r.history)
	return out
}

func (r *Router) navigate(ctx context.Context, to Location) (Location, error) {
	r.mu.Lock()

	requested := to
	for hops := 0; ; hops++ {
		if hops > r.maxRedirects {
			r.mu.Unlock()
			return Location{}, fmt.Errorf("navigate %s: %w", requested.FullPath(), ErrTooManyRedirects)
		}

		if route, ok := r.guard.Route(to.Path); ok && route.Redirect != "" {
			next, err := ParseLocation(route.Redirect)
			if err != nil {
				r.mu.Unlock()
				return Location{}, err
			}
			to = next
			continue
		}

		decision := r.guard.Resolve(ctx, to)
		if decision.Allow {
			break
		}
		to = *decision.Redirect
	}

	r.current = to
	r.history = append(r.history, to)
	listeners := r.listeners
	r.mu.Unlock()

	r.logger.Debug("Navigated", "requested", requested.FullPath(), "committed", to.FullPath())
	for _, fn := range listeners {
		fn(to)
	}
	return to, nil
}
