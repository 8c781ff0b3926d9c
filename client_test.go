package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/localmart/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authServer(t *testing.T, handler http.HandlerFunc) *session.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return session.NewClient(srv.URL, session.WithClientLogger(session.NewNoopLogger()))
}

func TestClientLogin(t *testing.T) {
	var gotPath, gotContentType string
	var gotBody session.LoginRequest
	client := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(session.TokenResponse{AccessToken: "tok-1"})
	})

	resp, err := client.Login(context.Background(), session.LoginRequest{
		Username: "jo@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)

	assert.Equal(t, "tok-1", resp.AccessToken)
	assert.Equal(t, "/auth/login", gotPath)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "jo@example.com", gotBody.Username)
}

func TestClientLoginValidation(t *testing.T) {
	called := false
	client := authServer(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := client.Login(context.Background(), session.LoginRequest{
		Username: "not-an-email",
		Password: "hunter22",
	})
	require.Error(t, err)
	assert.False(t, called, "invalid payloads never reach the network")

	_, err = client.Login(context.Background(), session.LoginRequest{Username: "jo@example.com"})
	require.Error(t, err)
	assert.False(t, called)
}

func TestClientLoginRejected(t *testing.T) {
	client := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Login(context.Background(), session.LoginRequest{
		Username: "jo@example.com",
		Password: "wrong",
	})
	require.Error(t, err)

	var rich *goerrors.Error
	require.ErrorAs(t, err, &rich)
	assert.Equal(t, http.StatusUnauthorized, rich.Code)
	assert.Equal(t, goerrors.CategoryAuth, rich.Category)
}

func TestClientSignupValidation(t *testing.T) {
	client := authServer(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.Signup(context.Background(), session.SignupRequest{
		FullName: "Jo Doe",
		Email:    "jo@example.com",
		City:     "Springfield",
		Password: "short",
		Role:     session.RoleCustomer,
	})
	assert.Error(t, err, "passwords under 8 characters are rejected")

	_, err = client.Signup(context.Background(), session.SignupRequest{
		FullName: "Jo Doe",
		Email:    "jo@example.com",
		City:     "Springfield",
		Password: "longenough",
		Role:     session.UserRole("admin"),
	})
	assert.Error(t, err, "unknown roles are rejected")
}

func TestClientSignupPendingVerification(t *testing.T) {
	client := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/signup", r.URL.Path)
		json.NewEncoder(w).Encode(session.TokenResponse{
			VerificationRequired: true,
			VerificationID:       "v-9",
		})
	})

	resp, err := client.Signup(context.Background(), session.SignupRequest{
		FullName: "Jo Doe",
		Email:    "jo@example.com",
		City:     "Springfield",
		Password: "longenough",
		Role:     session.RoleOwner,
	})
	require.NoError(t, err)
	assert.True(t, resp.VerificationRequired)
	assert.Equal(t, "v-9", resp.VerificationID)
	assert.Empty(t, resp.AccessToken)
}

func TestClientRefreshToken(t *testing.T) {
	client := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/refresh-token", r.URL.Path)
		json.NewEncoder(w).Encode(session.TokenResponse{AccessToken: "fresh-1"})
	})

	token, err := client.RefreshToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh-1", token)
}

func TestClientRefreshTokenFailure(t *testing.T) {
	client := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.RefreshToken(context.Background())
	require.Error(t, err)
	assert.True(t, session.IsRefreshError(err))
}

func TestClientApplyReferral(t *testing.T) {
	client := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/referral/apply-referral", r.URL.Path)
		json.NewEncoder(w).Encode(session.TokenResponse{AccessToken: "tok-2"})
	})

	resp, err := client.ApplyReferral(context.Background(), session.ApplyReferralRequest{
		CustomerID:   "cust-1",
		ReferralCode: "WELCOME10",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-2", resp.AccessToken)

	_, err = client.ApplyReferral(context.Background(), session.ApplyReferralRequest{})
	assert.Error(t, err)
}

func TestClientSkipReferralRequiresUserID(t *testing.T) {
	client := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/referral/skip-referral", r.URL.Path)
		json.NewEncoder(w).Encode(session.TokenResponse{AccessToken: "tok-3"})
	})

	_, err := client.SkipReferral(context.Background(), "")
	assert.Error(t, err)

	resp, err := client.SkipReferral(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-3", resp.AccessToken)
}

func TestClientGoogleAuth(t *testing.T) {
	client := authServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/google-auth", r.URL.Path)
		json.NewEncoder(w).Encode(session.TokenResponse{AccessToken: "tok-4"})
	})

	_, err := client.GoogleAuth(context.Background(), session.GoogleAuthRequest{})
	assert.Error(t, err)

	resp, err := client.GoogleAuth(context.Background(), session.GoogleAuthRequest{
		AccessToken: "ya29.something",
		Role:        session.RoleCustomer,
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-4", resp.AccessToken)
}
