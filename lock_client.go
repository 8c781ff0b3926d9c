package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"
)

// CustomerLockStatus is the server-computed subscription state for customers.
// The zero value means "unknown": the check failed or did not apply.
type CustomerLockStatus string

const (
	CustomerLockUnknown     CustomerLockStatus = ""
	CustomerLockActiveOK    CustomerLockStatus = "active_ok"
	CustomerLockGracePeriod CustomerLockStatus = "grace_period_active"
	CustomerLockExpired     CustomerLockStatus = "expired_locked"
)

// OwnerLockStatus is the server-computed subscription state for shop owners.
type OwnerLockStatus string

const (
	OwnerLockUnknown      OwnerLockStatus = ""
	OwnerLockActive       OwnerLockStatus = "active"
	OwnerLockExpiringSoon OwnerLockStatus = "expiring_soon"
	OwnerLockExpired      OwnerLockStatus = "expired"
)

type lockStatusResponse struct {
	Status   string `json:"status"`
	DaysLeft *int   `json:"days_left,omitempty"`
}

// LockStatusClient fetches real-time subscription lock status from the
// backend. It is fail-open by contract: a network or server error yields the
// unknown status, never an error, so an unreachable lock service cannot lock
// anyone out. Only an explicit expired value may trigger a lock redirect.
type LockStatusClient struct {
	baseURL string
	http    *http.Client
	logger  Logger
}

var _ LockStatusChecker = (*LockStatusClient)(nil)

// LockStatusOption customizes LockStatusClient construction.
type LockStatusOption func(*LockStatusClient)

// WithLockHTTPClient overrides the underlying HTTP client.
func WithLockHTTPClient(hc *http.Client) LockStatusOption {
	return func(c *LockStatusClient) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLockLogger overrides the default logger.
func WithLockLogger(logger Logger) LockStatusOption {
	return func(c *LockStatusClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewLockStatusClient(baseURL string, opts ...LockStatusOption) *LockStatusClient {
	c := &LockStatusClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// CheckCustomerLock fetches the customer subscription status. Unknown on any
// failure or when userID is empty.
func (c *LockStatusClient) CheckCustomerLock(ctx context.Context, userID string) CustomerLockStatus {
	if userID == "" {
		return CustomerLockUnknown
	}
	status, ok := c.fetch(ctx, "/check-subscription-status?user_id="+url.QueryEscape(userID))
	if !ok {
		return CustomerLockUnknown
	}
	return CustomerLockStatus(status)
}

// CheckOwnerLock fetches the owner subscription status. Unknown on any
// failure or when ownerID is empty.
func (c *LockStatusClient) CheckOwnerLock(ctx context.Context, ownerID string) OwnerLockStatus {
	if ownerID == "" {
		return OwnerLockUnknown
	}
	status, ok := c.fetch(ctx, "/owner/check-subscription?owner_id="+url.QueryEscape(ownerID))
	if !ok {
		return OwnerLockUnknown
	}
	return OwnerLockStatus(status)
}

func (c *LockStatusClient) fetch(ctx context.Context, path string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		c.logger.Error("lock status request build failed: %v", err)
		return "", false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Info("lock status check unavailable, failing open: %v", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Info("lock status check returned %d, failing open", resp.StatusCode)
		return "", false
	}

	var body lockStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Info("lock status response unreadable, failing open: %v", err)
		return "", false
	}
	return body.Status, true
}
