package guardware

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/localmart/go-session"
)

// FiberConfig configures the fiber-native guard handler.
type FiberConfig struct {
	Store        session.SessionState
	Locks        session.LockStatusChecker
	RequiredRole session.UserRole
	// Filter skips the guard when it returns true.
	Filter func(*fiber.Ctx) bool
	Logger session.Logger
}

// NewFiber returns a fiber handler running the guard decision procedure for
// apps that mount fiber directly instead of going through the router
// abstraction.
func NewFiber(cfg FiberConfig) fiber.Handler {
	if cfg.Logger == nil {
		cfg.Logger = session.NewNoopLogger()
	}
	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		var redirect *session.Redirect
		nav := session.NavigatorFunc(func(r session.Redirect) {
			redirect = &r
		})

		guard := session.NewRouteGuard(cfg.Store, cfg.Locks, nav,
			session.WithGuardLogger(cfg.Logger))

		decision := guard.Evaluate(c.UserContext(), session.Target{
			Path:         c.Path(),
			RequiredRole: cfg.RequiredRole,
		})

		if redirect != nil {
			return c.Redirect(redirectLocation(*redirect), redirectStatus(c.Method()))
		}

		switch decision.State {
		case session.GuardAllowed:
			if claims := cfg.Store.Claims(); claims != nil {
				c.Locals("session_claims", claims)
				c.SetUserContext(session.WithClaimsContext(c.UserContext(), claims))
			}
			return c.Next()
		default:
			cfg.Logger.Info("route denied path=%s reason=%d", c.Path(), decision.Reason)
			return c.Redirect(session.RouteSignIn, redirectStatus(c.Method()))
		}
	}
}

func redirectStatus(method string) int {
	if method == http.MethodGet {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
