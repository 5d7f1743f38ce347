// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package auth

import (
	"github.com/samber/oops"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/validate"
)

// Identity is the capability-bearing result of either authentication flow.
// Downstream authorization logic is variant-agnostic: both variants expose
// the same read contract.
type Identity interface {
	// UserID returns the account identifier.
	UserID() int64

	// Role returns the role code the capabilities were resolved from.
	Role() access.RoleCode

	// Capabilities returns the resolved capability set.
	Capabilities() access.CapabilitySet

	// HashedPassword returns the credential hash for the login flow, or ""
	// for token identities.
	HashedPassword() string

	// Account status flags. Expiry and locking are not modeled in this
	// system, so all four are fixed true.
	AccountNonExpired() bool
	AccountNonLocked() bool
	CredentialsNonExpired() bool
	Enabled() bool
}

// accountFlags provides the fixed-true status contract shared by both
// identity variants.
type accountFlags struct{}

func (accountFlags) AccountNonExpired() bool     { return true }
func (accountFlags) AccountNonLocked() bool      { return true }
func (accountFlags) CredentialsNonExpired() bool { return true }
func (accountFlags) Enabled() bool               { return true }

// AccountIdentity is built directly from a freshly loaded account (login flow).
type AccountIdentity struct {
	accountFlags
	id   int64
	role access.RoleCode
	caps access.CapabilitySet
	hash string
}

// UserID implements Identity.
func (a *AccountIdentity) UserID() int64 { return a.id }

// Role implements Identity.
func (a *AccountIdentity) Role() access.RoleCode { return a.role }

// Capabilities implements Identity.
func (a *AccountIdentity) Capabilities() access.CapabilitySet { return a.caps }

// HashedPassword implements Identity.
func (a *AccountIdentity) HashedPassword() string { return a.hash }

// TokenIdentity is built from a previously issued token payload (token flow).
// Its capability set is freshly re-resolved at construction, so a role change
// takes effect once the token-state refresh window elapses, without reissuing
// the token.
type TokenIdentity struct {
	accountFlags
	id      int64
	role    access.RoleCode
	caps    access.CapabilitySet
	tokenID string
}

// UserID implements Identity.
func (t *TokenIdentity) UserID() int64 { return t.id }

// Role implements Identity.
func (t *TokenIdentity) Role() access.RoleCode { return t.role }

// Capabilities implements Identity.
func (t *TokenIdentity) Capabilities() access.CapabilitySet { return t.caps }

// HashedPassword implements Identity. Token identities carry no credential.
func (t *TokenIdentity) HashedPassword() string { return "" }

// TokenID returns the token id the identity was built from.
func (t *TokenIdentity) TokenID() string { return t.tokenID }

// NewAccountIdentity builds an AccountIdentity from a freshly loaded account.
// The account's role must resolve or the build fails with UNKNOWN_ROLE.
func NewAccountIdentity(resolver *access.Resolver, account *Account) (*AccountIdentity, error) {
	if account == nil {
		return nil, oops.In("auth").
			Code("INVALID_ARGUMENT").
			New("account cannot be nil")
	}
	if err := validate.Object(account, validate.GroupLogin); err != nil {
		return nil, err
	}
	caps, err := resolver.Resolve(account.Role)
	if err != nil {
		return nil, err
	}
	return &AccountIdentity{
		id:   account.ID,
		role: account.Role,
		caps: caps,
		hash: account.PasswordHash,
	}, nil
}

// NewTokenIdentity builds a TokenIdentity from a decoded token payload. The
// role is re-resolved against the table, never reused from any cached set.
func NewTokenIdentity(resolver *access.Resolver, payload TokenPayload) (*TokenIdentity, error) {
	if err := validate.Object(&payload, validate.GroupTokenBuild); err != nil {
		return nil, err
	}
	caps, err := resolver.Resolve(payload.Role)
	if err != nil {
		return nil, err
	}
	return &TokenIdentity{
		id:      payload.UserID,
		role:    payload.Role,
		caps:    caps,
		tokenID: payload.TokenID,
	}, nil
}

// Compile-time interface checks.
var (
	_ Identity = (*AccountIdentity)(nil)
	_ Identity = (*TokenIdentity)(nil)
)
