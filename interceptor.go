package session

import (
	"context"
	"net/http"

	"github.com/goliatone/go-errors"
)

type retryMarkerKey struct{}

func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retryMarkerKey{}, true)
}

func isRetried(ctx context.Context) bool {
	retried, _ := ctx.Value(retryMarkerKey{}).(bool)
	return retried
}

// RefreshTransport wraps an http.RoundTripper with bearer token injection and
// a single refresh-and-retry on 401 responses. A second 401 after the retry,
// or a failed refresh, clears the session and navigates to sign-in.
type RefreshTransport struct {
	base      http.RoundTripper
	store     SessionState
	refresher TokenRefresher
	nav       Navigator
	logger    Logger
}

var _ http.RoundTripper = (*RefreshTransport)(nil)

// TransportOption customizes RefreshTransport construction.
type TransportOption func(*RefreshTransport)

// WithTransportBase overrides the wrapped RoundTripper.
func WithTransportBase(base http.RoundTripper) TransportOption {
	return func(t *RefreshTransport) {
		if base != nil {
			t.base = base
		}
	}
}

// WithTransportLogger overrides the default logger.
func WithTransportLogger(logger Logger) TransportOption {
	return func(t *RefreshTransport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

func NewRefreshTransport(store SessionState, refresher TokenRefresher, nav Navigator, opts ...TransportOption) *RefreshTransport {
	t := &RefreshTransport{
		base:      http.DefaultTransport,
		store:     store,
		refresher: refresher,
		nav:       nav,
		logger:    defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func (t *RefreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if token := t.store.Token(); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return resp, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if isRetried(req.Context()) {
		// already retried once: fail hard
		t.logger.Error("retried request still unauthorized, forcing sign-out")
		t.forceSignOut(req.Context())
		return resp, nil
	}

	fresh, err := t.refresher.RefreshToken(req.Context())
	if err != nil {
		resp.Body.Close()
		t.logger.Error("token refresh failed: %v", err)
		t.forceSignOut(req.Context())
		return nil, errors.Wrap(err, errors.CategoryAuth, ErrRefreshFailed.Message).
			WithTextCode(textCodeRefreshFailed).
			WithCode(errors.CodeUnauthorized)
	}

	// publishes identityChanged so mounted guards re-evaluate
	if err := t.store.SetToken(req.Context(), fresh); err != nil {
		resp.Body.Close()
		t.forceSignOut(req.Context())
		return nil, err
	}

	// the session recovered even if this particular request cannot retry
	retry, ok := t.replayableRequest(req)
	if !ok {
		t.logger.Error("401 response but request body cannot be replayed")
		return resp, nil
	}
	resp.Body.Close()

	return t.RoundTrip(retry)
}

// replayableRequest clones the request marked as retried, restoring the body
// from GetBody when one exists.
func (t *RefreshTransport) replayableRequest(req *http.Request) (*http.Request, bool) {
	retry := req.Clone(markRetried(req.Context()))
	if req.Body == nil || req.Body == http.NoBody {
		return retry, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	retry.Body = body
	return retry, true
}

func (t *RefreshTransport) forceSignOut(ctx context.Context) {
	if err := t.store.Clear(ctx); err != nil {
		t.logger.Error("session clear failed: %v", err)
	}
	t.nav.Navigate(Redirect{To: RouteSignIn, Replace: true})
}
