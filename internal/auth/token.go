// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/validate"
)

// TokenRecord is the persisted replay-detection state: one record per user,
// overwritten on every login and rotation. Last write wins.
type TokenRecord struct {
	UserID  int64
	TokenID string
}

// TokenPayload is a decoded, signature-verified bearer token as handed over
// by the web layer.
type TokenPayload struct {
	UserID   int64
	Role     access.RoleCode
	TokenID  string
	IssuedAt time.Time
}

// Constraints declares the token-build validation rules for a payload.
func (p *TokenPayload) Constraints() []validate.Constraint {
	group := []validate.Group{validate.GroupTokenBuild}
	return []validate.Constraint{
		validate.Required("id", group, func() bool { return p.UserID != 0 }),
		validate.Required("role", group, func() bool { return p.Role != "" }),
		validate.Required("token_id", group, func() bool { return p.TokenID != "" }),
	}
}

// NewTokenID generates a fresh token identifier (jti). ULIDs are unique and
// lexicographically sortable by issue time.
func NewTokenID() string {
	return ulid.Make().String()
}

// TokenRecordRepository is the key-value token-state store collaborator.
// All operations carry a bounded timeout via ctx; implementations wrap any
// store failure or timeout into an error matching ErrUnavailable.
type TokenRecordRepository interface {
	// Upsert writes the per-user record. Idempotent; the last write for a
	// given user id wins.
	Upsert(ctx context.Context, record TokenRecord) error

	// Get returns the stored record for a user. Returns an error wrapping
	// ErrNoSession if the user has no record, distinguishing "session never
	// established / explicitly ended" from a token-id mismatch.
	Get(ctx context.Context, userID int64) (TokenRecord, error)

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, userID int64) error
}
