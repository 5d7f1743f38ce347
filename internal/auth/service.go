// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/validate"
	"github.com/tradepost/tradepost/pkg/errutil"
)

// Defaults for the replay-guard timing knobs.
const (
	// DefaultRefreshWindow bounds the time a replayed or revoked token can
	// still be accepted on the stateless fast path.
	DefaultRefreshWindow = 30 * time.Minute

	// DefaultStoreTimeout bounds every token-store and account-store call.
	DefaultStoreTimeout = 3 * time.Second
)

// dummyPasswordHash is verified against when the login id matches no account,
// keeping response time constant to resist username enumeration. It is a fake
// hash that matches no password.
//
//nolint:gosec // G101: intentionally fake hash, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service orchestrates the two authentication flows: password login and
// bearer-token validation.
type Service struct {
	lookup        *AccountLookup
	tokens        TokenRecordRepository
	hasher        PasswordHasher
	resolver      *access.Resolver
	refreshWindow time.Duration
	storeTimeout  time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithRefreshWindow overrides the fast/slow path boundary.
func WithRefreshWindow(d time.Duration) Option {
	return func(s *Service) { s.refreshWindow = d }
}

// WithStoreTimeout overrides the per-call store timeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) { s.storeTimeout = d }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source. Tests use this to cross the refresh
// window deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the session-authentication core.
func NewService(lookup *AccountLookup, tokens TokenRecordRepository, hasher PasswordHasher, resolver *access.Resolver, opts ...Option) (*Service, error) {
	if lookup == nil {
		return nil, oops.In("auth").Code("INVALID_ARGUMENT").New("account lookup is required")
	}
	if tokens == nil {
		return nil, oops.In("auth").Code("INVALID_ARGUMENT").New("token record repository is required")
	}
	if hasher == nil {
		return nil, oops.In("auth").Code("INVALID_ARGUMENT").New("password hasher is required")
	}
	if resolver == nil {
		return nil, oops.In("auth").Code("INVALID_ARGUMENT").New("authority resolver is required")
	}

	s := &Service{
		lookup:        lookup,
		tokens:        tokens,
		hasher:        hasher,
		resolver:      resolver,
		refreshWindow: DefaultRefreshWindow,
		storeTimeout:  DefaultStoreTimeout,
		logger:        slog.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.refreshWindow <= 0 {
		return nil, oops.In("auth").Code("INVALID_ARGUMENT").New("refresh window must be positive")
	}
	if s.storeTimeout <= 0 {
		return nil, oops.In("auth").Code("INVALID_ARGUMENT").New("store timeout must be positive")
	}
	return s, nil
}

// Login authenticates a password login and establishes a fresh replay record.
// On success it returns the capability-bearing identity and the token record
// whose TokenID the web layer embeds in the bearer token it mints.
//
// Unknown login ids and wrong passwords both fail with
// AUTH_INVALID_CREDENTIALS, never confirming which part was wrong. Password
// verification runs even when the account does not exist, against a dummy
// hash, to keep response time constant.
func (s *Service) Login(ctx context.Context, loginID, password string) (*AccountIdentity, TokenRecord, error) {
	if err := ValidateLoginID(loginID); err != nil {
		return nil, TokenRecord{}, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	account, lookupErr := s.lookup.Find(lookupCtx, loginID)
	cancel()

	targetHash := dummyPasswordHash
	accountExists := false
	switch {
	case lookupErr == nil:
		targetHash = account.PasswordHash
		accountExists = true
	case errors.Is(lookupErr, ErrNotFound):
		// Fall through to dummy verification below.
	case errors.Is(lookupErr, ErrUnavailable):
		loginsTotal.WithLabelValues(outcomeUnavailable).Inc()
		return nil, TokenRecord{}, lookupErr
	default:
		loginsTotal.WithLabelValues(outcomeError).Inc()
		return nil, TokenRecord{}, lookupErr
	}

	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && accountExists {
		loginsTotal.WithLabelValues(outcomeError).Inc()
		return nil, TokenRecord{}, oops.In("auth").
			Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !accountExists || !valid {
		loginsTotal.WithLabelValues(outcomeRejected).Inc()
		return nil, TokenRecord{}, oops.In("auth").
			Code("AUTH_INVALID_CREDENTIALS").
			New("invalid login id or password")
	}

	identity, err := NewAccountIdentity(s.resolver, account)
	if err != nil {
		// UNKNOWN_ROLE here means a corrupted record or a missing table
		// entry; it must fail the request loudly, not degrade.
		errutil.LogError(s.logger, "capability resolution failed for stored account", err)
		loginsTotal.WithLabelValues(outcomeError).Inc()
		return nil, TokenRecord{}, err
	}

	record := TokenRecord{UserID: account.ID, TokenID: NewTokenID()}
	upsertCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	err = s.tokens.Upsert(upsertCtx, record)
	cancel()
	if err != nil {
		loginsTotal.WithLabelValues(outcomeUnavailable).Inc()
		return nil, TokenRecord{}, err
	}

	loginsTotal.WithLabelValues(outcomeOK).Inc()
	return identity, record, nil
}

// Authenticate validates a decoded bearer payload and produces a
// TokenIdentity with a freshly re-resolved capability set.
//
// Within the refresh window the token is accepted without consulting the
// token store (fast path). Once the window has elapsed, the presented token
// id is compared against the stored record and rotated on success (slow
// path); the returned rotated id is non-empty exactly when rotation
// happened, and the web layer must then reissue the bearer token with it.
//
// A token-id mismatch or a missing record rejects with SESSION_NOT_FOUND. A
// store failure or timeout surfaces as AUTH_STORE_UNAVAILABLE instead — a
// transient outage must never force-logout a legitimate session.
func (s *Service) Authenticate(ctx context.Context, payload TokenPayload) (*TokenIdentity, string, error) {
	if err := validate.Object(&payload, validate.GroupTokenBuild); err != nil {
		tokenChecksTotal.WithLabelValues(pathFast, outcomeError).Inc()
		return nil, "", err
	}

	if s.now().Sub(payload.IssuedAt) < s.refreshWindow {
		identity, err := NewTokenIdentity(s.resolver, payload)
		if err != nil {
			tokenChecksTotal.WithLabelValues(pathFast, outcomeError).Inc()
			return nil, "", err
		}
		tokenChecksTotal.WithLabelValues(pathFast, outcomeOK).Inc()
		return identity, "", nil
	}

	rotated, err := s.revalidate(ctx, payload)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			tokenChecksTotal.WithLabelValues(pathSlow, outcomeUnavailable).Inc()
		} else {
			tokenChecksTotal.WithLabelValues(pathSlow, outcomeRejected).Inc()
		}
		return nil, "", err
	}

	payload.TokenID = rotated
	identity, err := NewTokenIdentity(s.resolver, payload)
	if err != nil {
		tokenChecksTotal.WithLabelValues(pathSlow, outcomeError).Inc()
		return nil, "", err
	}
	tokenChecksTotal.WithLabelValues(pathSlow, outcomeOK).Inc()
	return identity, rotated, nil
}

// revalidate runs the slow path: compare the presented token id with the
// stored record and rotate on success. Returns the rotated token id.
func (s *Service) revalidate(ctx context.Context, payload TokenPayload) (string, error) {
	start := s.now()

	getCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	record, err := s.tokens.Get(getCtx, payload.UserID)
	cancel()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return "", oops.In("auth").
				Code("SESSION_NOT_FOUND").
				With("user_id", payload.UserID).
				Wrap(err)
		}
		return "", err
	}

	if subtle.ConstantTimeCompare([]byte(record.TokenID), []byte(payload.TokenID)) != 1 {
		// A replayed or superseded token. Same outward rejection as a
		// missing record so the client simply re-authenticates.
		s.logger.Warn("token id mismatch during revalidation",
			"user_id", payload.UserID)
		return "", oops.In("auth").
			Code("SESSION_NOT_FOUND").
			With("user_id", payload.UserID).
			With("reason", "token id mismatch").
			Wrap(ErrNoSession)
	}

	rotated := NewTokenID()
	upsertCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	err = s.tokens.Upsert(upsertCtx, TokenRecord{UserID: payload.UserID, TokenID: rotated})
	cancel()
	if err != nil {
		// The old record still holds the previous id; handing out a rotated
		// id the store never saw would strand the session.
		return "", err
	}

	storeLatency.Observe(s.now().Sub(start).Seconds())
	return rotated, nil
}

// Logout removes the user's replay record. Ending an already-ended session
// is not an error.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	deleteCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.tokens.Delete(deleteCtx, userID)
}
