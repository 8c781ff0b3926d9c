package session

import (
	"context"
	"sync"
)

// Bootstrap reconciles a fresh session with the current path right after
// sign-in, sign-up, or app start. It differs from RouteGuard: the guard
// protects a page that is already mounted, Bootstrap handles the "just
// authenticated, pick a landing page" transition. It only ever redirects
// away from the auth set (landing, sign-in, sign-up), so a signed-in user
// revisiting a deep link is left alone unless the guard itself intervenes.
type Bootstrap struct {
	store  SessionState
	locks  LockStatusChecker
	nav    Navigator
	logger Logger

	mu sync.Mutex
}

// BootstrapOption customizes Bootstrap construction.
type BootstrapOption func(*Bootstrap)

// WithBootstrapLogger overrides the default logger.
func WithBootstrapLogger(logger Logger) BootstrapOption {
	return func(b *Bootstrap) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func NewBootstrap(store SessionState, locks LockStatusChecker, nav Navigator, opts ...BootstrapOption) *Bootstrap {
	b := &Bootstrap{
		store:  store,
		locks:  locks,
		nav:    nav,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Bind re-runs the bootstrap whenever the identity changes while the user
// sits on an auth page. The current function supplies the path at delivery
// time. Returns an unbind function.
func (b *Bootstrap) Bind(bus *Bus, current func() string) func() {
	return bus.Subscribe(SignalIdentityChanged, func(Signal) {
		b.Run(context.Background(), current())
	})
}

// Run computes at most one redirect for the current path and performs it.
// The returned redirect is nil when the path is outside the auth set or no
// session is present.
func (b *Bootstrap) Run(ctx context.Context, currentPath string) *Redirect {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !IsAuthPath(currentPath) {
		return nil
	}

	token := b.store.Token()
	if token == "" {
		return nil
	}

	claims, err := DecodeClaims(token)
	if err != nil {
		b.logger.Error("bootstrap found undecodable token, clearing session: %v", err)
		if cerr := b.store.Clear(ctx); cerr != nil {
			b.logger.Error("session clear failed: %v", cerr)
		}
		r := &Redirect{To: RouteSignIn, Replace: true}
		b.nav.Navigate(*r)
		return r
	}

	r := &Redirect{To: b.landing(ctx, claims), Replace: true}
	b.logger.Debug("bootstrap landing path=%s target=%s", currentPath, r.To)
	b.nav.Navigate(*r)
	return r
}

// landing applies the same precedence as the guard's lock, subscription, and
// onboarding rules to pick a single stable page.
func (b *Bootstrap) landing(ctx context.Context, claims *SessionClaims) string {
	role := claims.Role()

	switch role {
	case RoleCustomer:
		if b.locks.CheckCustomerLock(ctx, claims.SubjectID()) == CustomerLockExpired {
			return RouteSubscription
		}
	case RoleOwner:
		if b.locks.CheckOwnerLock(ctx, claims.SubjectID()) == OwnerLockExpired {
			return RouteSubscription
		}
	}

	if !claims.SubscriptionActive() {
		return RouteSubscription
	}

	if role == RoleOwner && !claims.OnboardingDone() {
		return RouteOnboarding
	}

	return role.Landing()
}
