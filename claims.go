package session

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// tokenParser skips signature verification on purpose: tokens are signed and
// verified by the backend, this package only reads the claims it is handed.
var tokenParser = jwt.NewParser()

// SessionClaims carries the decoded token payload. Optional claims are
// pointers so "absent" and "explicitly false" stay distinguishable; accessor
// methods apply the documented defaults.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserRole        string   `json:"role,omitempty"`
	Onboarded       *bool    `json:"onboarding_done,omitempty"`
	ReferralEntered *bool    `json:"has_entered_referral,omitempty"`
	SubActive       *bool    `json:"subscription_active,omitempty"`
	CoinBalance     *float64 `json:"coins,omitempty"`
}

// DecodeClaims parses a compact token into SessionClaims. Pure: no network,
// no mutation. A token missing optional claims is valid; a token that cannot
// be parsed at all yields ErrTokenDecode.
func DecodeClaims(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if _, _, err := tokenParser.ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, errors.CategoryAuth, ErrTokenDecode.Message).
			WithTextCode(textCodeTokenDecode).
			WithCode(errors.CodeUnauthorized)
	}
	return claims, nil
}

// SubjectID returns the subject claim: the user's database id.
func (c *SessionClaims) SubjectID() string {
	return c.RegisteredClaims.Subject
}

// Role returns the session role, defaulting to customer when the claim is
// missing or unrecognized.
func (c *SessionClaims) Role() UserRole {
	if role, ok := ParseRole(c.UserRole); ok {
		return role
	}
	return RoleCustomer
}

// OnboardingDone defaults to false.
func (c *SessionClaims) OnboardingDone() bool {
	if c.Onboarded != nil {
		return *c.Onboarded
	}
	return false
}

// HasEnteredReferral defaults to false.
func (c *SessionClaims) HasEnteredReferral() bool {
	if c.ReferralEntered != nil {
		return *c.ReferralEntered
	}
	return false
}

// SubscriptionActive defaults to true: a token minted before the subscription
// claim existed must not lock its holder out.
func (c *SessionClaims) SubscriptionActive() bool {
	if c.SubActive != nil {
		return *c.SubActive
	}
	return true
}

// Coins returns the reward coin balance, never negative.
func (c *SessionClaims) Coins() float64 {
	if c.CoinBalance != nil && *c.CoinBalance > 0 {
		return *c.CoinBalance
	}
	return 0
}
