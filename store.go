package session

import (
	"context"
	"strconv"
	"sync"

	"github.com/goliatone/go-errors"
)

// Volatile mirror keys. The mirror is a flattened, non-secret, rebuildable
// view of the current claims; it is never authoritative.
const (
	VolatileUserID             = "user_id"
	VolatileRole               = "role"
	VolatileOnboardingDone     = "onboarding_done"
	VolatileHasEnteredReferral = "has_entered_referral"
	VolatileSubscriptionActive = "subscription_active"
	VolatileRewardPoints       = "reward_points"
)

// Store owns the session token: one durable encrypted secret plus a volatile
// mirror of its claims for cheap synchronous reads. All writers replace the
// token wholesale; no code path mutates a claim without a new token.
type Store struct {
	storage TokenStorage
	cipher  TokenCipher
	bus     *Bus
	logger  Logger

	// writeMu serializes whole writes (encrypt, save, mirror) so the
	// durable slot and the in-memory session never diverge.
	writeMu sync.Mutex

	mu       sync.RWMutex
	token    string
	claims   *SessionClaims
	volatile map[string]string
}

var _ SessionState = (*Store)(nil)

// StoreOption customizes Store construction.
type StoreOption func(*Store)

// WithStoreLogger overrides the default logger.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewStore(storage TokenStorage, cipher TokenCipher, bus *Bus, opts ...StoreOption) *Store {
	s := &Store{
		storage:  storage,
		cipher:   cipher,
		bus:      bus,
		logger:   defLogger{},
		volatile: make(map[string]string),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SetToken decodes, persists, and mirrors the token, then publishes
// SignalIdentityChanged. Persistence completes before the publish, so a
// subscriber reading the store during delivery sees the new claims.
// Concurrent writers are serialized: the last write wins in both the
// durable slot and memory.
func (s *Store) SetToken(ctx context.Context, token string) error {
	claims, err := DecodeClaims(token)
	if err != nil {
		return err
	}
	if err := s.persist(ctx, token, claims); err != nil {
		return err
	}
	s.bus.Publish(SignalIdentityChanged)
	return nil
}

// persist commits the token durably and in memory as one ordered write.
func (s *Store) persist(ctx context.Context, token string, claims *SessionClaims) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ciphertext, err := s.cipher.Encrypt([]byte(token))
	if err != nil {
		return err
	}
	if err := s.storage.Save(ctx, ciphertext); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mirrorClaims(claims)
	s.mu.Unlock()
	return nil
}

// Token returns the current token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Claims returns a copy of the current claims, or nil when no token is stored.
func (s *Store) Claims() *SessionClaims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return nil
	}
	c := *s.claims
	return &c
}

// Volatile reads a value from the session-scoped mirror.
func (s *Store) Volatile(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.volatile[key]
	return v, ok
}

// SetVolatile stores a UI-only counter (cart size, reward display cache).
// Discarded by Clear along with everything else derived from the token.
func (s *Store) SetVolatile(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volatile[key] = value
}

// Clear removes the persisted token and every volatile entry. It publishes
// nothing: callers clearing for logout perform their own navigation.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.clear(ctx)
}

// clear wipes durable and in-memory state. Caller holds writeMu.
func (s *Store) clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx); err != nil && !errors.Is(err, ErrNoStoredToken) {
		s.logger.Error("session storage delete failed: %v", err)
	}

	s.mu.Lock()
	s.token = ""
	s.claims = nil
	s.volatile = make(map[string]string)
	s.mu.Unlock()
	return nil
}

// Load rehydrates the session from durable storage, typically once at app
// start. An empty slot leaves the store signed out and returns nil. A token
// that can no longer be decrypted or decoded is destroyed, and the decode
// failure is returned so the caller can route to sign-in.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ciphertext, err := s.storage.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNoStoredToken) {
			return nil
		}
		return err
	}

	plaintext, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		s.logger.Error("stored token unreadable, clearing session: %v", err)
		_ = s.clear(ctx)
		return err
	}

	token := string(plaintext)
	claims, err := DecodeClaims(token)
	if err != nil {
		s.logger.Error("stored token undecodable, clearing session: %v", err)
		_ = s.clear(ctx)
		return err
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mirrorClaims(claims)
	s.mu.Unlock()
	return nil
}

// mirrorClaims flattens the non-secret claim subset. Caller holds s.mu.
func (s *Store) mirrorClaims(claims *SessionClaims) {
	s.volatile[VolatileUserID] = claims.SubjectID()
	s.volatile[VolatileRole] = string(claims.Role())
	s.volatile[VolatileOnboardingDone] = strconv.FormatBool(claims.OnboardingDone())
	s.volatile[VolatileHasEnteredReferral] = strconv.FormatBool(claims.HasEnteredReferral())
	s.volatile[VolatileSubscriptionActive] = strconv.FormatBool(claims.SubscriptionActive())
	s.volatile[VolatileRewardPoints] = strconv.FormatFloat(claims.Coins(), 'f', -1, 64)
}
