// Package session owns the client-held session state for the storefront:
// the signed access token, the claims derived from it, and the access-control
// decisions that depend on both.
//
// The token is the single source of truth. Every other piece of session
// state (role, onboarding/referral flags, subscription flag, coin balance)
// is re-derived from the current token and is safe to discard. Server-side
// lock status is fetched fresh per evaluation and overrides stale claims
// when it reports a hard lock.
//
// Components:
//
//   - DecodeClaims: parses a compact token into SessionClaims without
//     verifying the signature (verification is the issuer's job).
//   - Store: persists the encrypted token, mirrors a flattened non-secret
//     subset of claims for cheap synchronous reads, and publishes
//     SignalIdentityChanged after each token replacement.
//   - Bus: in-process publish/subscribe with FIFO delivery per signal.
//   - LockStatusClient: fail-open subscription lock checks.
//   - RouteGuard: the checking/allowed/denied decision procedure with a
//     fixed rule precedence and stale-evaluation supersession.
//   - Bootstrap: picks a single landing page right after authentication.
//   - RefreshTransport: one refresh plus one retry on 401 responses.
package session
