package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
)

// TokenResponse is what every auth endpoint returns: a fresh access token
// whose claims already reflect the server-side change. The OTP signup
// variant defers the token behind a verification step instead.
type TokenResponse struct {
	AccessToken          string `json:"access_token"`
	VerificationRequired bool   `json:"verification_required,omitempty"`
	VerificationID       string `json:"verification_id,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

type SignupRequest struct {
	FullName string   `json:"fullName"`
	Email    string   `json:"email"`
	City     string   `json:"city"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
}

func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.FullName,
			validation.Required,
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.City,
			validation.Required,
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 0),
		),
		validation.Field(
			&r.Role,
			validation.Required,
			validation.In(RoleCustomer, RoleOwner),
		),
	)
}

type GoogleAuthRequest struct {
	AccessToken string   `json:"access_token"`
	Role        UserRole `json:"role"`
}

func (r GoogleAuthRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.AccessToken,
			validation.Required,
		),
		validation.Field(
			&r.Role,
			validation.Required,
			validation.In(RoleCustomer, RoleOwner),
		),
	)
}

type ApplyReferralRequest struct {
	CustomerID   string `json:"customer_id"`
	ReferralCode string `json:"referral_code"`
}

func (r ApplyReferralRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.CustomerID,
			validation.Required,
		),
		validation.Field(
			&r.ReferralCode,
			validation.Required,
		),
	)
}

type skipReferralRequest struct {
	UserID string `json:"user_id"`
}

// Client calls the storefront auth endpoints. The refresh endpoint is cookie
// based, so the client keeps a cookie jar across calls.
type Client struct {
	baseURL string
	http    *http.Client
	logger  Logger
}

var _ TokenRefresher = (*Client)(nil)

// ClientOption customizes Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client. The caller is
// responsible for providing a cookie jar when refresh must work.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClientLogger overrides the default logger.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Jar:     jar,
		},
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid login payload")
	}
	return c.tokenCall(ctx, "/auth/login", req)
}

// Signup registers an account. When the server requires OTP verification the
// response carries no token yet.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid signup payload")
	}
	return c.tokenCall(ctx, "/auth/signup", req)
}

// GoogleAuth exchanges a Google OAuth access token for a session token.
func (c *Client) GoogleAuth(ctx context.Context, req GoogleAuthRequest) (*TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid google auth payload")
	}
	return c.tokenCall(ctx, "/auth/google-auth", req)
}

// RefreshToken calls the cookie-based refresh endpoint.
func (c *Client) RefreshToken(ctx context.Context) (string, error) {
	resp, err := c.tokenCall(ctx, "/auth/refresh-token", struct{}{})
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryAuth, ErrRefreshFailed.Message).
			WithTextCode(textCodeRefreshFailed).
			WithCode(errors.CodeUnauthorized)
	}
	return resp.AccessToken, nil
}

// ApplyReferral submits a referral code; the returned token already carries
// has_entered_referral and the updated coin balance.
func (c *Client) ApplyReferral(ctx context.Context, req ApplyReferralRequest) (*TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid referral payload")
	}
	return c.tokenCall(ctx, "/referral/apply-referral", req)
}

// SkipReferral dismisses the referral prompt permanently for the user.
func (c *Client) SkipReferral(ctx context.Context, userID string) (*TokenResponse, error) {
	if userID == "" {
		return nil, errors.New("user id is required", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}
	return c.tokenCall(ctx, "/referral/skip-referral", skipReferralRequest{UserID: userID})
}

func (c *Client) tokenCall(ctx context.Context, path string, payload any) (*TokenResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to encode request payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "auth endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Info("auth endpoint %s returned %d", path, resp.StatusCode)
		return nil, errors.New(
			fmt.Sprintf("auth endpoint %s returned status %d", path, resp.StatusCode),
			errors.CategoryAuth,
		).WithCode(resp.StatusCode)
	}

	out := &TokenResponse{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "unable to decode auth response")
	}
	return out, nil
}
