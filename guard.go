package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-print"
)

// GuardState is the lifecycle of one guarded route: checking on every mount
// and every dependency change, then allowed or denied. Redirect decisions
// keep the state at checking so protected content never flashes before the
// navigation lands.
type GuardState int

const (
	GuardChecking GuardState = iota
	GuardAllowed
	GuardDenied
)

func (s GuardState) String() string {
	switch s {
	case GuardAllowed:
		return "allowed"
	case GuardDenied:
		return "denied"
	default:
		return "checking"
	}
}

// DeniedReason distinguishes "no session" from "wrong role" so the caller can
// render the right boundary.
type DeniedReason int

const (
	DeniedNone DeniedReason = iota
	DeniedNoSession
	DeniedRoleMismatch
)

// Target identifies what one guard evaluation protects.
type Target struct {
	Path string
	// RequiredRole, when set, restricts the route to that role.
	RequiredRole UserRole
}

// Decision is the outcome of one evaluation. A non-nil Redirect has already
// been handed to the Navigator by the time Evaluate returns.
type Decision struct {
	State    GuardState
	Reason   DeniedReason
	Redirect *Redirect
}

// RouteGuard decides whether a session may stay on a path. One guard per
// mounted protected route; evaluations re-enter from checking on every path
// or role change and on every session signal, and a newer evaluation
// supersedes any still in flight.
type RouteGuard struct {
	store  SessionState
	locks  LockStatusChecker
	nav    Navigator
	logger Logger

	generation atomic.Uint64

	// applyMu orders result application, navigation included, across
	// concurrent evaluations. Navigators must not evaluate this guard
	// synchronously from inside Navigate.
	applyMu sync.Mutex

	mu        sync.Mutex
	state     GuardState
	reason    DeniedReason
	target    Target
	hasTarget bool
}

// GuardOption customizes RouteGuard construction.
type GuardOption func(*RouteGuard)

// WithGuardLogger overrides the default logger.
func WithGuardLogger(logger Logger) GuardOption {
	return func(g *RouteGuard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewRouteGuard(store SessionState, locks LockStatusChecker, nav Navigator, opts ...GuardOption) *RouteGuard {
	g := &RouteGuard{
		store:  store,
		locks:  locks,
		nav:    nav,
		logger: defLogger{},
		state:  GuardChecking,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// State returns the guard's current state.
func (g *RouteGuard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Reason returns why the guard denied, if it did.
func (g *RouteGuard) Reason() DeniedReason {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reason
}

// Bind subscribes the guard to the session signals that invalidate a prior
// decision. Each signal re-runs the last evaluation. Returns an unbind
// function.
func (g *RouteGuard) Bind(bus *Bus) func() {
	signals := []Signal{SignalIdentityChanged, SignalOnboardingCompleted, SignalReferralCompleted}
	unsubs := make([]func(), 0, len(signals))
	for _, sig := range signals {
		unsubs = append(unsubs, bus.Subscribe(sig, func(Signal) {
			g.Reevaluate(context.Background())
		}))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Reevaluate re-runs the most recent target, if any.
func (g *RouteGuard) Reevaluate(ctx context.Context) Decision {
	g.mu.Lock()
	target, ok := g.target, g.hasTarget
	g.mu.Unlock()
	if !ok {
		return Decision{State: GuardChecking}
	}
	return g.Evaluate(ctx, target)
}

// Evaluate runs the decision procedure for the target. If a newer evaluation
// starts before this one resolves, this one's result is discarded on arrival:
// it neither updates guard state nor triggers a redirect.
func (g *RouteGuard) Evaluate(ctx context.Context, target Target) Decision {
	gen := g.begin(target)
	decision := g.decide(ctx, target)
	return g.apply(gen, target, decision)
}

func (g *RouteGuard) begin(target Target) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.target = target
	g.hasTarget = true
	g.state = GuardChecking
	g.reason = DeniedNone
	return g.generation.Add(1)
}

func (g *RouteGuard) apply(gen uint64, target Target, d Decision) Decision {
	g.applyMu.Lock()
	defer g.applyMu.Unlock()

	// the generation check sits inside applyMu so a newer evaluation's
	// result can only land after any navigation already in flight
	if g.generation.Load() != gen {
		g.logger.Debug("guard evaluation superseded path=%s", target.Path)
		return Decision{State: GuardChecking}
	}

	g.mu.Lock()
	g.state = d.State
	g.reason = d.Reason
	g.mu.Unlock()

	if d.Redirect != nil {
		g.nav.Navigate(*d.Redirect)
	}
	return d
}

// decide evaluates the rules in fixed precedence order; the first matching
// rule wins. Lock checks dominate role/onboarding checks: a locked account
// must never reach feature pages regardless of onboarding state. Onboarding
// dominates the referral prompt: owners have no referral prompt at all.
func (g *RouteGuard) decide(ctx context.Context, target Target) Decision {
	token := g.store.Token()

	// no token: deny, sending the original path along unless it is public
	if token == "" {
		d := Decision{State: GuardDenied, Reason: DeniedNoSession}
		if !IsPublicPath(target.Path) {
			d.Redirect = &Redirect{To: RouteSignIn, From: target.Path, Replace: true}
		}
		return d
	}

	// claims are re-derived from the current token on every evaluation; the
	// mirror is never trusted here
	claims, err := DecodeClaims(token)
	if err != nil {
		g.logger.Error("undecodable session token, clearing session: %v", err)
		if cerr := g.store.Clear(ctx); cerr != nil {
			g.logger.Error("session clear failed: %v", cerr)
		}
		return Decision{
			State:    GuardDenied,
			Reason:   DeniedNoSession,
			Redirect: &Redirect{To: RouteSignIn, From: target.Path, Replace: true},
		}
	}

	role := claims.Role()

	// hard lock dominance; unknown statuses fail open and skip this rule
	switch role {
	case RoleCustomer:
		if g.locks.CheckCustomerLock(ctx, claims.SubjectID()) == CustomerLockExpired &&
			target.Path != RouteSubscription {
			return g.lockRedirect(target)
		}
	case RoleOwner:
		if g.locks.CheckOwnerLock(ctx, claims.SubjectID()) == OwnerLockExpired &&
			target.Path != RouteSubscription {
			return g.lockRedirect(target)
		}
	}

	// token-derived subscription gate for the role's primary workspace
	if !claims.SubscriptionActive() && target.Path == role.PrimaryWorkspace() {
		return Decision{
			State:    GuardChecking,
			Redirect: &Redirect{To: RouteSubscription, Replace: true},
		}
	}

	if target.RequiredRole != "" && role != target.RequiredRole {
		g.logger.Info("route denied %s", print.MaybePrettyJSON(map[string]any{
			"path":     target.Path,
			"required": target.RequiredRole,
			"role":     role,
		}))
		return Decision{State: GuardDenied, Reason: DeniedRoleMismatch}
	}

	if role == RoleOwner && !claims.OnboardingDone() && target.Path != RouteOnboarding {
		return Decision{
			State:    GuardChecking,
			Redirect: &Redirect{To: RouteOnboarding, Replace: true},
		}
	}

	// onboarding is one-way; a finished owner has no business back on it
	if role == RoleOwner && claims.OnboardingDone() && target.Path == RouteOnboarding {
		return Decision{
			State:    GuardChecking,
			Redirect: &Redirect{To: role.PrimaryWorkspace(), Replace: true},
		}
	}

	if role == RoleCustomer && !claims.HasEnteredReferral() &&
		target.Path != RouteHome && !IsShopPath(target.Path) {
		return Decision{
			State:    GuardChecking,
			Redirect: &Redirect{To: RouteHome, ShowReferralPrompt: true},
		}
	}

	return Decision{State: GuardAllowed}
}

// lockRedirect keeps the state at checking so no protected content renders
// before the subscription page takes over.
func (g *RouteGuard) lockRedirect(target Target) Decision {
	g.logger.Info("subscription lock redirect path=%s", target.Path)
	return Decision{
		State:    GuardChecking,
		Redirect: &Redirect{To: RouteSubscription, Replace: true},
	}
}
