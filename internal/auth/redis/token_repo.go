// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

// Package redis implements the token-state store on a shared redis instance.
//
// Records use a hash-style layout: one key per user ("user:<id>") holding the
// token id under the "jti" field. Small per-user hashes are cheap in redis
// memory and the persisted shape visibly groups data belonging to one user,
// versus one flat key per field. The per-user key is the sole unit of
// atomicity assumed; no client-side locking is used, so concurrent logins
// for a user resolve by last write wins.
package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/tradepost/tradepost/internal/auth"
)

// tokenField is the hash field holding the token id.
const tokenField = "jti"

// Transient failures are retried with constant backoff, never more than
// maxRetries extra attempts.
const (
	maxRetries   = 2
	retryBackoff = 50 * time.Millisecond
)

// TokenRecordRepository implements auth.TokenRecordRepository using redis.
type TokenRecordRepository struct {
	client redis.UniversalClient
}

// NewTokenRecordRepository creates a TokenRecordRepository.
func NewTokenRecordRepository(client redis.UniversalClient) *TokenRecordRepository {
	return &TokenRecordRepository{client: client}
}

// Key returns the redis key for a user's token record.
func Key(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// Upsert writes the per-user hash entry. Last write for a user id wins; the
// single-field overwrite is atomic at the store.
func (r *TokenRecordRepository) Upsert(ctx context.Context, record auth.TokenRecord) error {
	if record.UserID == 0 || record.TokenID == "" {
		return oops.In("redis").
			Code("INVALID_ARGUMENT").
			New("token record requires user id and token id")
	}

	err := r.withRetry(ctx, func(ctx context.Context) error {
		return r.client.HSet(ctx, Key(record.UserID), tokenField, record.TokenID).Err()
	})
	if err != nil {
		return unavailable("upsert token record", record.UserID, err)
	}
	return nil
}

// Get returns the stored record for a user, or an error wrapping
// auth.ErrNoSession when no record exists. An absent key in redis yields an
// empty hash, not a driver error, so the no-session case is detected here
// and never conflated with an outage.
func (r *TokenRecordRepository) Get(ctx context.Context, userID int64) (auth.TokenRecord, error) {
	var fields map[string]string
	err := r.withRetry(ctx, func(ctx context.Context) error {
		var getErr error
		fields, getErr = r.client.HGetAll(ctx, Key(userID)).Result()
		return getErr
	})
	if err != nil {
		return auth.TokenRecord{}, unavailable("get token record", userID, err)
	}

	tokenID, ok := fields[tokenField]
	if !ok || tokenID == "" {
		return auth.TokenRecord{}, oops.In("redis").
			Code("SESSION_NOT_FOUND").
			With("user_id", userID).
			Wrap(auth.ErrNoSession)
	}

	return auth.TokenRecord{UserID: userID, TokenID: tokenID}, nil
}

// Delete removes the record. Deleting an absent record is not an error.
func (r *TokenRecordRepository) Delete(ctx context.Context, userID int64) error {
	err := r.withRetry(ctx, func(ctx context.Context) error {
		return r.client.Del(ctx, Key(userID)).Err()
	})
	if err != nil {
		return unavailable("delete token record", userID, err)
	}
	return nil
}

// withRetry runs op with a bounded constant-backoff retry for transient
// failures. Definitive results (success, redis.Nil, context expiry) are
// never retried.
func (r *TokenRecordRepository) withRetry(ctx context.Context, op func(context.Context) error) error {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewConstant(retryBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.Nil) ||
			errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, context.Canceled) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// unavailable wraps a raw store failure so nothing outside this package
// observes a driver error type.
func unavailable(operation string, userID int64, err error) error {
	return oops.In("redis").
		Code("AUTH_STORE_UNAVAILABLE").
		With("operation", operation).
		With("user_id", userID).
		Wrap(errors.Join(auth.ErrUnavailable, err))
}

// Compile-time interface check.
var _ auth.TokenRecordRepository = (*TokenRecordRepository)(nil)
