package session

import (
	"context"
)

// Flows ties the auth endpoints, the store, and the bus together for the
// client-driven transitions that come back with a fresh token. Storing the
// token is what broadcasts SignalIdentityChanged; the referral and onboarding
// flows additionally publish their own completion signals so guards waiting
// on those facts re-evaluate.
type Flows struct {
	client *Client
	store  SessionState
	bus    *Bus
	logger Logger
}

// FlowsOption customizes Flows construction.
type FlowsOption func(*Flows)

// WithFlowsLogger overrides the default logger.
func WithFlowsLogger(logger Logger) FlowsOption {
	return func(f *Flows) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func NewFlows(client *Client, store SessionState, bus *Bus, opts ...FlowsOption) *Flows {
	f := &Flows{
		client: client,
		store:  store,
		bus:    bus,
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// SignIn authenticates and stores the returned token.
func (f *Flows) SignIn(ctx context.Context, req LoginRequest) error {
	resp, err := f.client.Login(ctx, req)
	if err != nil {
		return err
	}
	return f.store.SetToken(ctx, resp.AccessToken)
}

// SignUp registers an account. When the server defers the token behind an
// OTP verification step, pending is true and no session is established yet.
func (f *Flows) SignUp(ctx context.Context, req SignupRequest) (pending bool, err error) {
	resp, err := f.client.Signup(ctx, req)
	if err != nil {
		return false, err
	}
	if resp.VerificationRequired {
		f.logger.Info("signup pending verification id=%s", resp.VerificationID)
		return true, nil
	}
	return false, f.store.SetToken(ctx, resp.AccessToken)
}

// SignInWithGoogle exchanges a Google OAuth token and stores the session.
func (f *Flows) SignInWithGoogle(ctx context.Context, req GoogleAuthRequest) error {
	resp, err := f.client.GoogleAuth(ctx, req)
	if err != nil {
		return err
	}
	return f.store.SetToken(ctx, resp.AccessToken)
}

// ApplyReferral submits the code, stores the fresh token, and publishes
// SignalReferralCompleted.
func (f *Flows) ApplyReferral(ctx context.Context, req ApplyReferralRequest) error {
	resp, err := f.client.ApplyReferral(ctx, req)
	if err != nil {
		return err
	}
	if err := f.store.SetToken(ctx, resp.AccessToken); err != nil {
		return err
	}
	f.bus.Publish(SignalReferralCompleted)
	return nil
}

// SkipReferral dismisses the prompt for good; the server still returns a
// fresh token with has_entered_referral set.
func (f *Flows) SkipReferral(ctx context.Context, userID string) error {
	resp, err := f.client.SkipReferral(ctx, userID)
	if err != nil {
		return err
	}
	if err := f.store.SetToken(ctx, resp.AccessToken); err != nil {
		return err
	}
	f.bus.Publish(SignalReferralCompleted)
	return nil
}

// CompleteOnboarding stores the token the onboarding endpoint returned and
// publishes SignalOnboardingCompleted.
func (f *Flows) CompleteOnboarding(ctx context.Context, freshToken string) error {
	if err := f.store.SetToken(ctx, freshToken); err != nil {
		return err
	}
	f.bus.Publish(SignalOnboardingCompleted)
	return nil
}

// SignOut destroys the session. Publishes nothing: the caller navigates.
func (f *Flows) SignOut(ctx context.Context) error {
	return f.store.Clear(ctx)
}
