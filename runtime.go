package session

import (
	"context"
	"net/http"
)

// Runtime bundles the wired session components for a host application:
// durable encrypted storage, the store, the bus, the auth client, and the
// lock status client, all sharing one logger.
type Runtime struct {
	Store  *Store
	Bus    *Bus
	Client *Client
	Locks  *LockStatusClient
	Flows  *Flows

	logger Logger
}

// RuntimeOption customizes Runtime construction.
type RuntimeOption func(*Runtime)

// WithRuntimeLogger overrides the default logger for every component.
func WithRuntimeLogger(logger Logger) RuntimeOption {
	return func(r *Runtime) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRuntime wires the components from configuration and rehydrates any
// persisted session. A stored token that can no longer be read is destroyed
// rather than surfaced: the app simply starts signed out.
func NewRuntime(ctx context.Context, cfg Config, opts ...RuntimeOption) (*Runtime, error) {
	r := &Runtime{logger: defLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	cipher, err := NewSecretBoxCipher(cfg.GetStorageKey())
	if err != nil {
		return nil, err
	}

	db, err := OpenTokenDB(cfg.GetStorageDSN())
	if err != nil {
		return nil, err
	}

	storage, err := NewBunTokenStorage(ctx, db)
	if err != nil {
		return nil, err
	}

	r.Bus = NewBus()
	r.Store = NewStore(storage, cipher, r.Bus, WithStoreLogger(r.logger))
	r.Client = NewClient(cfg.GetAPIBase(), WithClientLogger(r.logger))
	r.Locks = NewLockStatusClient(cfg.GetAPIBase(), WithLockLogger(r.logger))
	r.Flows = NewFlows(r.Client, r.Store, r.Bus, WithFlowsLogger(r.logger))

	if err := r.Store.Load(ctx); err != nil {
		r.logger.Info("persisted session discarded: %v", err)
	}

	return r, nil
}

// NewGuard builds a RouteGuard against the runtime's store and lock client.
func (r *Runtime) NewGuard(nav Navigator) *RouteGuard {
	return NewRouteGuard(r.Store, r.Locks, nav, WithGuardLogger(r.logger))
}

// NewBootstrap builds a Bootstrap against the runtime's store and lock client.
func (r *Runtime) NewBootstrap(nav Navigator) *Bootstrap {
	return NewBootstrap(r.Store, r.Locks, nav, WithBootstrapLogger(r.logger))
}

// NewHTTPTransport builds the refresh-and-retry transport around base. Pass
// nil to wrap http.DefaultTransport.
func (r *Runtime) NewHTTPTransport(base http.RoundTripper, nav Navigator) *RefreshTransport {
	opts := []TransportOption{WithTransportLogger(r.logger)}
	if base != nil {
		opts = append(opts, WithTransportBase(base))
	}
	return NewRefreshTransport(r.Store, r.Client, nav, opts...)
}
