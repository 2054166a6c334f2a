package auth

import (
	"context"
)

const (
	DefaultLoginPath     = "/login"
	DefaultLandingRoute  = "/dashboard"
	DefaultRedirectParam = "redirect"
)

// SessionChecker is the view of the session the guard needs
type SessionChecker interface {
	IsAuthenticated() bool
	CheckTokenExpiry(ctx context.Context) bool
}

// Route declares a client route. RequiresAuth defaults to true when nil.
type Route struct {
	Path         string
	Name         string
	RequiresAuth *bool
	Redirect     string
}

// NeedsAuth reports whether navigating to the route requires a session
func (r Route) NeedsAuth() bool {
	return r.RequiresAuth == nil || *r.RequiresAuth
}

// PublicRoute declares a route reachable without a session
func PublicRoute(path, name string) Route {
	public := false
	return Route{Path: path, Name: name, RequiresAuth: &public}
}

// ProtectedRoute declares a route that needs a session
func ProtectedRoute(path, name string) Route {
	protected := true
	return Route{Path: path, Name: name, RequiresAuth: &protected}
}

// RedirectRoute declares a path that always forwards to target
func RedirectRoute(path, target string) Route {
	return Route{Path: path, Redirect: target}
}

// DefaultRoutes is the console route table
func DefaultRoutes() []Route {
	return []Route{
		PublicRoute("/login", "login"),
		RedirectRoute("/", "/dashboard"),
		ProtectedRoute("/dashboard", "home"),
		ProtectedRoute("/data-sources", "data-sources"),
		ProtectedRoute("/storages", "storages"),
		ProtectedRoute("/tasks", "tasks"),
	}
}

// Decision is the outcome of a guard evaluation
type Decision struct {
	Allow    bool
	Redirect *Location
	Reason   string
}

const (
	ReasonAllowed         = "allowed"
	ReasonUnauthenticated = "unauthenticated"
	ReasonExpired         = "expired"
	ReasonAlreadyLoggedIn = "already_authenticated"
)

// Guard decides whether a navigation may proceed.
type Guard struct {
	session       SessionChecker
	routes        map[string]Route
	loginPath     string
	defaultRoute  string
	redirectParam string
	logger        Logger
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithRoutes replaces the route table
func WithRoutes(routes ...Route) GuardOption {
	return func(g *Guard) {
		g.routes = make(map[string]Route, len(routes))
		for _, r := range routes {
			g.routes[cleanPath(r.Path)] = r
		}
	}
}

// WithGuardConfig applies login path, landing route and redirect param from cfg
func WithGuardConfig(cfg Config) GuardOption {
	return func(g *Guard) {
		if cfg == nil {
			return
		}
		if v := cfg.GetLoginPath(); v != "" {
			g.loginPath = cleanPath(v)
		}
		if v := cfg.GetDefaultRoute(); v != "" {
			g.defaultRoute = v
		}
		if v := cfg.GetRedirectParam(); v != "" {
			g.redirectParam = v
		}
	}
}

// WithGuardLogger sets the guard logger
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithGuardLoggerProvider takes the guard logger from provider
func WithGuardLoggerProvider(provider LoggerProvider) GuardOption {
	return func(g *Guard) {
		_, g.logger = ResolveLogger(LoggerNameGuard, provider, g.logger)
	}
}

// NewGuard creates a guard over session using DefaultRoutes.
func NewGuard(session SessionChecker, opts ...GuardOption) *Guard {
	g := &Guard{
		session:       session,
		loginPath:     DefaultLoginPath,
		defaultRoute:  DefaultLandingRoute,
		redirectParam: DefaultRedirectParam,
		logger:        defLogger{},
	}
	WithRoutes(DefaultRoutes()...)(g)

	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LoginPath returns the login entry point
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// RedirectParam returns the query parameter carrying the resume target
func (g *Guard) RedirectParam() string {
	return g.redirectParam
}

// Route returns the declared route for path. Undeclared paths get a zero
// Route, which requires auth.
func (g *Guard) Route(path string) (Route, bool) {
	r, ok := g.routes[cleanPath(path)]
	return r, ok
}

// LoginRedirect builds the login location that resumes at target
func (g *Guard) LoginRedirect(target Location) Location {
	return withQuery(g.loginPath, g.redirectParam, target.FullPath())
}

// IsLoginPath reports whether path is the login page
func (g *Guard) IsLoginPath(path string) bool {
	return cleanPath(path) == g.loginPath
}

// Resolve evaluates the navigation to to. Rules, in order:
//   - protected target without a session goes to login
//   - protected target with an expired or unreadable token goes to login
//   - login page with a session goes to the resume target or the landing route
//   - anything else proceeds
func (g *Guard) Resolve(ctx context.Context, to Location) Decision {
	route, _ := g.Route(to.Path)

	if route.NeedsAuth() {
		if g.session == nil || !g.session.IsAuthenticated() {
			redirect := g.LoginRedirect(to)
			g.logger.Debug("Guard redirect", "to", to.FullPath(), "reason", ReasonUnauthenticated)
			return Decision{Redirect: &redirect, Reason: ReasonUnauthenticated}
		}

		if !g.session.CheckTokenExpiry(ctx) {
			redirect := g.LoginRedirect(to)
			g.logger.Info("Guard redirect", "to", to.FullPath(), "reason", ReasonExpired)
			return Decision{Redirect: &redirect, Reason: ReasonExpired}
		}
	} else if g.IsLoginPath(to.Path) && g.session != nil && g.session.IsAuthenticated() {
		target := to.Get(g.redirectParam)
		if !isLocalPath(target) {
			target = g.defaultRoute
		}
		redirect, err := ParseLocation(target)
		if err != nil {
			redirect = Location{Path: g.defaultRoute}
		}
		return Decision{Redirect: &redirect, Reason: ReasonAlreadyLoggedIn}
	}

	return Decision{Allow: true, Reason: ReasonAllowed}
}
