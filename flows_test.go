package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localmart/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flowFixture struct {
	flows *session.Flows
	store *session.Store
	bus   *session.Bus
}

func newFlowFixture(t *testing.T, handler http.HandlerFunc) *flowFixture {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	bus := session.NewBus()
	store := newTestStore(t, bus)
	client := session.NewClient(srv.URL, session.WithClientLogger(session.NewNoopLogger()))
	flows := session.NewFlows(client, store, bus,
		session.WithFlowsLogger(session.NewNoopLogger()))
	return &flowFixture{flows: flows, store: store, bus: bus}
}

func tokenHandler(t *testing.T, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(session.TokenResponse{AccessToken: token})
	}
}

func TestFlowsSignInEstablishesSession(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"sub": "u1", "role": "customer"})
	fx := newFlowFixture(t, tokenHandler(t, token))

	identityChanges := 0
	fx.bus.Subscribe(session.SignalIdentityChanged, func(session.Signal) { identityChanges++ })

	err := fx.flows.SignIn(context.Background(), session.LoginRequest{
		Username: "jo@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	assert.Equal(t, token, fx.store.Token())
	assert.Equal(t, 1, identityChanges)
}

func TestFlowsSignUpPendingVerificationLeavesNoSession(t *testing.T) {
	fx := newFlowFixture(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(session.TokenResponse{
			VerificationRequired: true,
			VerificationID:       "v-1",
		})
	})

	pending, err := fx.flows.SignUp(context.Background(), session.SignupRequest{
		FullName: "Jo Doe",
		Email:    "jo@example.com",
		City:     "Springfield",
		Password: "longenough",
		Role:     session.RoleCustomer,
	})
	require.NoError(t, err)
	assert.True(t, pending)
	assert.Empty(t, fx.store.Token())
}

func TestFlowsSignUpImmediateToken(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"sub": "u2", "role": "owner"})
	fx := newFlowFixture(t, tokenHandler(t, token))

	pending, err := fx.flows.SignUp(context.Background(), session.SignupRequest{
		FullName: "Jo Doe",
		Email:    "jo@example.com",
		City:     "Springfield",
		Password: "longenough",
		Role:     session.RoleOwner,
	})
	require.NoError(t, err)
	assert.False(t, pending)
	assert.Equal(t, token, fx.store.Token())
}

func TestFlowsApplyReferralPublishesAfterTokenStored(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"sub":                  "u1",
		"role":                 "customer",
		"has_entered_referral": true,
		"coins":                10.0,
	})
	fx := newFlowFixture(t, tokenHandler(t, token))

	var referralSeenEntered bool
	fx.bus.Subscribe(session.SignalReferralCompleted, func(session.Signal) {
		if claims := fx.store.Claims(); claims != nil {
			referralSeenEntered = claims.HasEnteredReferral()
		}
	})

	err := fx.flows.ApplyReferral(context.Background(), session.ApplyReferralRequest{
		CustomerID:   "u1",
		ReferralCode: "WELCOME10",
	})
	require.NoError(t, err)
	assert.True(t, referralSeenEntered,
		"referral subscribers must observe the fresh claims")
	assert.Equal(t, 10.0, fx.store.Claims().Coins())
}

func TestFlowsSkipReferralPublishes(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{
		"sub":                  "u1",
		"role":                 "customer",
		"has_entered_referral": true,
	})
	fx := newFlowFixture(t, tokenHandler(t, token))

	published := 0
	fx.bus.Subscribe(session.SignalReferralCompleted, func(session.Signal) { published++ })

	require.NoError(t, fx.flows.SkipReferral(context.Background(), "u1"))
	assert.Equal(t, 1, published)
}

func TestFlowsCompleteOnboarding(t *testing.T) {
	fx := newFlowFixture(t, tokenHandler(t, ""))

	token := mintToken(t, jwt.MapClaims{
		"sub":             "own-1",
		"role":            "owner",
		"onboarding_done": true,
	})

	var seenOnboarded bool
	fx.bus.Subscribe(session.SignalOnboardingCompleted, func(session.Signal) {
		if claims := fx.store.Claims(); claims != nil {
			seenOnboarded = claims.OnboardingDone()
		}
	})

	require.NoError(t, fx.flows.CompleteOnboarding(context.Background(), token))
	assert.True(t, seenOnboarded)
}

func TestFlowsSignOut(t *testing.T) {
	token := mintToken(t, jwt.MapClaims{"sub": "u1"})
	fx := newFlowFixture(t, tokenHandler(t, token))

	require.NoError(t, fx.store.SetToken(context.Background(), token))

	published := 0
	fx.bus.Subscribe(session.SignalIdentityChanged, func(session.Signal) { published++ })

	require.NoError(t, fx.flows.SignOut(context.Background()))
	assert.Empty(t, fx.store.Token())
	assert.Zero(t, published, "sign-out publishes nothing, the caller navigates")
}
