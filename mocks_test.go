package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/localmart/go-session"
	"github.com/stretchr/testify/require"
)

// mintToken signs a compact token for tests. The codec never verifies
// signatures, so any key works.
func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["iat"]; !ok {
		claims["iat"] = jwt.NewNumericDate(time.Now())
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

// fakeSession implements session.SessionState with direct control over the
// raw token, including tokens the real store would refuse.
type fakeSession struct {
	mu       sync.Mutex
	token    string
	setCalls []string
	cleared  int
	setErr   error
}

func (f *fakeSession) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeSession) Claims() *session.SessionClaims {
	f.mu.Lock()
	token := f.token
	f.mu.Unlock()
	if token == "" {
		return nil
	}
	claims, err := session.DecodeClaims(token)
	if err != nil {
		return nil
	}
	return claims
}

func (f *fakeSession) SetToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.token = token
	f.setCalls = append(f.setCalls, token)
	return nil
}

func (f *fakeSession) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.cleared++
	return nil
}

func (f *fakeSession) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

// fakeLocks implements session.LockStatusChecker with fixed answers and an
// optional gate so a test can hold an evaluation in flight.
type fakeLocks struct {
	mu       sync.Mutex
	customer session.CustomerLockStatus
	owner    session.OwnerLockStatus
	gate     chan struct{}
	started  chan struct{}
	calls    int
}

func (f *fakeLocks) CheckCustomerLock(_ context.Context, _ string) session.CustomerLockStatus {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.customer
}

func (f *fakeLocks) CheckOwnerLock(_ context.Context, _ string) session.OwnerLockStatus {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.owner
}

func (f *fakeLocks) wait() {
	f.mu.Lock()
	gate := f.gate
	started := f.started
	f.started = nil
	f.mu.Unlock()
	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
}

func (f *fakeLocks) setGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

func (f *fakeLocks) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recorderNav captures redirects instead of performing them.
type recorderNav struct {
	mu        sync.Mutex
	redirects []session.Redirect
}

func (r *recorderNav) Navigate(red session.Redirect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redirects = append(r.redirects, red)
}

func (r *recorderNav) last() (session.Redirect, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.redirects) == 0 {
		return session.Redirect{}, false
	}
	return r.redirects[len(r.redirects)-1], true
}

func (r *recorderNav) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.redirects)
}

// newTestStore builds a real Store over in-memory storage and a throwaway key.
func newTestStore(t *testing.T, bus *session.Bus) *session.Store {
	t.Helper()
	cipher, err := session.NewSecretBoxCipher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	return session.NewStore(session.NewMemoryTokenStorage(), cipher, bus)
}
