// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package auth

import (
	"context"
	"time"

	"github.com/samber/oops"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/validate"
)

// Login identifier limits.
const (
	MinLoginIDLength = 3
	MaxLoginIDLength = 64
)

// Account is a marketplace user record as loaded from the primary store.
// The password hash is present only when fetched for login and is never
// exposed outward past identity construction.
type Account struct {
	ID           int64
	LoginID      string
	Role         access.RoleCode
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Constraints declares the grouped validation rules for an account record.
// The data-access group additionally requires the credential hash, since a
// record fetched for login without one is corrupted.
func (a *Account) Constraints() []validate.Constraint {
	allGroups := []validate.Group{validate.GroupLogin, validate.GroupTokenBuild, validate.GroupDataAccess}
	return []validate.Constraint{
		validate.Required("id", allGroups, func() bool { return a.ID != 0 }),
		validate.Required("role", allGroups, func() bool { return a.Role != "" }),
		validate.Required("password", []validate.Group{validate.GroupDataAccess},
			func() bool { return a.PasswordHash != "" }),
	}
}

// ValidateLoginID validates a login identifier before it reaches the store.
func ValidateLoginID(loginID string) error {
	if loginID == "" {
		return oops.In("auth").
			Code("INVALID_ARGUMENT").
			New("login id cannot be empty")
	}
	if len(loginID) < MinLoginIDLength {
		return oops.In("auth").
			Code("INVALID_ARGUMENT").
			With("min", MinLoginIDLength).
			Errorf("login id must be at least %d characters", MinLoginIDLength)
	}
	if len(loginID) > MaxLoginIDLength {
		return oops.In("auth").
			Code("INVALID_ARGUMENT").
			With("max", MaxLoginIDLength).
			Errorf("login id must be at most %d characters", MaxLoginIDLength)
	}
	return nil
}

// AccountRepository is the primary-store collaborator for account records.
type AccountRepository interface {
	// Create stores a new account. A duplicate login id fails with code
	// AUTH_ACCOUNT_EXISTS.
	Create(ctx context.Context, account *Account) error

	// GetByLoginID retrieves an account by its login identifier.
	// Returns an error wrapping ErrNotFound if no account matches.
	GetByLoginID(ctx context.Context, loginID string) (*Account, error)
}
