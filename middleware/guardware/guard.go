// Package guardware adapts the session RouteGuard to HTTP routers so guard
// decisions become real responses: redirects for gating rules, pass-through
// with claims in context when the route is allowed.
package guardware

import (
	"net/http"
	"net/url"

	"github.com/goliatone/go-router"
	"github.com/localmart/go-session"
)

// Config configures the guard middleware for one protected route or group.
type Config struct {
	// Store and Locks feed the per-request guard evaluation.
	Store session.SessionState
	Locks session.LockStatusChecker
	// RequiredRole, when set, restricts the route to that role.
	RequiredRole session.UserRole
	// Filter skips the guard when it returns true.
	Filter func(router.Context) bool
	// ErrorHandler handles denied routes. The default redirects to sign-in,
	// 302 for GET and 303 otherwise.
	ErrorHandler func(router.Context, error) error
	Logger       session.Logger
}

func (cfg *Config) setDefaults() {
	if cfg.Logger == nil {
		cfg.Logger = session.NewNoopLogger()
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			status := http.StatusSeeOther
			if ctx.Method() == http.MethodGet {
				status = http.StatusFound
			}
			return ctx.Redirect(session.RouteSignIn, status)
		}
	}
}

// New returns middleware that runs the guard decision procedure per request.
// A fresh guard is built for each request so the redirect side effect lands
// on that request's context.
func New(cfg Config) router.MiddlewareFunc {
	cfg.setDefaults()
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			var redirect *session.Redirect
			nav := session.NavigatorFunc(func(r session.Redirect) {
				redirect = &r
			})

			guard := session.NewRouteGuard(cfg.Store, cfg.Locks, nav,
				session.WithGuardLogger(cfg.Logger))

			decision := guard.Evaluate(ctx.Context(), session.Target{
				Path:         ctx.Path(),
				RequiredRole: cfg.RequiredRole,
			})

			if redirect != nil {
				return redirectResponse(ctx, *redirect)
			}

			switch decision.State {
			case session.GuardAllowed:
				if claims := cfg.Store.Claims(); claims != nil {
					ctx.Locals("session_claims", claims)
					ctx.SetContext(session.WithClaimsContext(ctx.Context(), claims))
				}
				return ctx.Next()
			default:
				err := session.ErrNoSession
				if decision.Reason == session.DeniedRoleMismatch {
					err = session.ErrRoleMismatch
				}
				cfg.Logger.Info("route denied path=%s reason=%d", ctx.Path(), decision.Reason)
				return cfg.ErrorHandler(ctx, err)
			}
		}
	}
}

// redirectLocation flattens the redirect's flags into query parameters so
// the target page can pick them up.
func redirectLocation(r session.Redirect) string {
	q := url.Values{}
	if r.From != "" {
		q.Set("from", r.From)
	}
	if r.ShowReferralPrompt {
		q.Set("show_referral", "1")
	}
	if len(q) == 0 {
		return r.To
	}
	return r.To + "?" + q.Encode()
}

func redirectResponse(ctx router.Context, r session.Redirect) error {
	status := http.StatusSeeOther
	if ctx.Method() == http.MethodGet {
		status = http.StatusFound
	}
	return ctx.Redirect(redirectLocation(r), status)
}
