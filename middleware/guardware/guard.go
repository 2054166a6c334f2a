package guardware

import (
	"net/http"

	auth "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-router"
)

type Config struct {
	// Guard evaluates every request that is not filtered out. Required.
	Guard *auth.Guard
	// Filter skips the middleware when it returns true
	Filter func(router.Context) bool
	// RedirectHandler sends the client to the decided location. Defaults to
	// a 302 for GET and HEAD and a 303 for anything else.
	RedirectHandler func(ctx router.Context, to auth.Location, reason string) error
	// ErrorHandler handles requests whose URL cannot be parsed
	ErrorHandler func(ctx router.Context, err error) error
	// Identity, when set, is stored in the router locals under ContextKey
	// and in the request context for allowed requests.
	Identity   auth.IdentityProvider
	ContextKey string
	// TemplateDataKey, when set, stores auth.TemplateHelpersWithRouter under
	// this key in the router locals for allowed requests.
	TemplateDataKey string
}

// New adapts the guard to a router middleware. Allowed requests continue
// down the chain; everything else is redirected.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			raw := ctx.OriginalURL()
			if raw == "" {
				raw = ctx.Path()
			}

			to, err := auth.ParseLocation(raw)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if route, ok := cfg.Guard.Route(to.Path); ok && route.Redirect != "" {
				target, err := auth.ParseLocation(route.Redirect)
				if err != nil {
					return cfg.ErrorHandler(ctx, err)
				}
				return cfg.RedirectHandler(ctx, target, "route_redirect")
			}

			decision := cfg.Guard.Resolve(ctx.Context(), to)
			if decision.Allow {
				cfg.storeIdentity(ctx)
				cfg.storeTemplateData(ctx)
				return ctx.Next()
			}
			return cfg.RedirectHandler(ctx, *decision.Redirect, decision.Reason)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Guard == nil {
		panic("AUTH: guard middleware configuration: Guard is required.")
	}

	if cfg.RedirectHandler == nil {
		cfg.RedirectHandler = func(ctx router.Context, to auth.Location, _ string) error {
			return ctx.Redirect(to.FullPath(), RedirectStatus(ctx.Method()))
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = auth.DefaultContextKey
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			return ctx.Status(http.StatusBadRequest).SendString("Invalid request path")
		}
	}

	return cfg
}

func (cfg Config) storeIdentity(ctx router.Context) {
	if cfg.Identity == nil {
		return
	}
	identity, ok := cfg.Identity.Identity()
	if !ok {
		return
	}
	ctx.Locals(cfg.ContextKey, identity)
	ctx.SetContext(auth.WithIdentityContext(ctx.Context(), identity))
}

func (cfg Config) storeTemplateData(ctx router.Context) {
	if cfg.TemplateDataKey == "" {
		return
	}
	ctx.Locals(cfg.TemplateDataKey, auth.TemplateHelpersWithRouter(ctx, cfg.ContextKey))
}

// RedirectStatus picks the redirect code for method. Non idempotent
// requests get a 303 so the client follows up with a GET.
func RedirectStatus(method string) int {
	switch method {
	case http.MethodGet, http.MethodHead, "":
		return http.StatusFound
	default:
		return http.StatusSeeOther
	}
}
