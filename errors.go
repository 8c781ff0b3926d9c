package session

import "github.com/goliatone/go-errors"

const (
	textCodeTokenDecode   = "SESSION_TOKEN_DECODE"
	textCodeNoSession     = "SESSION_NOT_FOUND"
	textCodeRefreshFailed = "SESSION_REFRESH_FAILED"
	textCodeRoleMismatch  = "SESSION_ROLE_MISMATCH"
	textCodeStorageEmpty  = "SESSION_STORAGE_EMPTY"
)

// ErrTokenDecode is returned when a token cannot be parsed. Always fatal to
// the session: handlers clear the store and redirect to sign-in.
var ErrTokenDecode = errors.New("unable to decode session token", errors.CategoryAuth).
	WithTextCode(textCodeTokenDecode).
	WithCode(errors.CodeUnauthorized)

// ErrNoSession is returned when an operation needs a stored token and none exists.
var ErrNoSession = errors.New("no session token present", errors.CategoryAuth).
	WithTextCode(textCodeNoSession).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshFailed is returned when the refresh endpoint rejects us or a
// retried request fails again. Fatal: forces sign-out.
var ErrRefreshFailed = errors.New("session refresh failed", errors.CategoryAuth).
	WithTextCode(textCodeRefreshFailed).
	WithCode(errors.CodeUnauthorized)

// ErrRoleMismatch is returned when a route demands a role the session does
// not carry. Denies the route without destroying the session.
var ErrRoleMismatch = errors.New("session role does not match required role", errors.CategoryAuthz).
	WithTextCode(textCodeRoleMismatch).
	WithCode(errors.CodeForbidden)

// ErrNoStoredToken signals an empty durable store; callers treat it as a
// signed-out state, not a failure.
var ErrNoStoredToken = errors.New("no stored session token", errors.CategoryNotFound).
	WithTextCode(textCodeStorageEmpty).
	WithCode(errors.CodeNotFound)

// IsDecodeError will check for token decode failures
func IsDecodeError(err error) bool {
	return hasTextCode(err, textCodeTokenDecode)
}

// IsRefreshError will check for refresh failures
func IsRefreshError(err error) bool {
	return hasTextCode(err, textCodeRefreshFailed)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}
