package session

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Redirect describes a navigation a guard component wants performed.
type Redirect struct {
	// To is the target path.
	To string
	// From carries the originally requested path so sign-in can send the
	// user back after authenticating.
	From string
	// Replace asks the navigator to replace the current history entry
	// instead of pushing a new one.
	Replace bool
	// ShowReferralPrompt asks the home page to open the referral prompt.
	ShowReferralPrompt bool
}

// Navigator performs redirects on behalf of guard components. Implementations
// adapt to whatever routing layer hosts the session (HTTP middleware, a UI
// shell, a test recorder).
type Navigator interface {
	Navigate(r Redirect)
}

// NavigatorFunc adapts a plain function to the Navigator interface.
type NavigatorFunc func(Redirect)

func (f NavigatorFunc) Navigate(r Redirect) { f(r) }

// SessionState is the surface guard components need from the Store. Reads are
// synchronous; writes replace the token wholesale.
type SessionState interface {
	Token() string
	Claims() *SessionClaims
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// LockStatusChecker fetches real-time subscription lock state. Implementations
// are fail-open: any failure yields the zero "unknown" status, never an error.
type LockStatusChecker interface {
	CheckCustomerLock(ctx context.Context, userID string) CustomerLockStatus
	CheckOwnerLock(ctx context.Context, ownerID string) OwnerLockStatus
}

// TokenRefresher exchanges the current session for a fresh access token.
type TokenRefresher interface {
	RefreshToken(ctx context.Context) (string, error)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NewNoopLogger returns a Logger that discards everything.
func NewNoopLogger() Logger { return noopLogger{} }

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
