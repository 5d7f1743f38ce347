// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/tradepost/tradepost/internal/validate"
)

// AccountLookup fetches account records for login and guards the boundary to
// the primary store: a record only leaves this component after passing its
// data-access constraint group.
type AccountLookup struct {
	repo AccountRepository
}

// NewAccountLookup creates an AccountLookup.
func NewAccountLookup(repo AccountRepository) (*AccountLookup, error) {
	if repo == nil {
		return nil, oops.In("auth").
			Code("INVALID_ARGUMENT").
			New("account repository is required")
	}
	return &AccountLookup{repo: repo}, nil
}

// Find fetches the account for a login identifier.
//
// The empty-id check is defensive; callers are expected to have validated
// already. A missing account fails with AUTH_ACCOUNT_NOT_FOUND, a store
// failure with AUTH_STORE_UNAVAILABLE, and a record missing id, role, or
// password hash with AUTH_RECORD_INVALID (corrupted data, not user error).
func (l *AccountLookup) Find(ctx context.Context, loginID string) (*Account, error) {
	if loginID == "" {
		return nil, oops.In("auth").
			Code("INVALID_ARGUMENT").
			New("login id cannot be empty")
	}

	account, err := l.repo.GetByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.In("auth").
				Code("AUTH_ACCOUNT_NOT_FOUND").
				With("login_id", loginID).
				Wrap(err)
		}
		if !errors.Is(err, ErrUnavailable) {
			err = errors.Join(ErrUnavailable, err)
		}
		return nil, oops.In("auth").
			Code("AUTH_STORE_UNAVAILABLE").
			With("operation", "get account by login id").
			Wrap(err)
	}

	if err := validate.Object(account, validate.GroupDataAccess); err != nil {
		return nil, oops.In("auth").
			Code("AUTH_RECORD_INVALID").
			With("login_id", loginID).
			Wrap(err)
	}

	return account, nil
}
