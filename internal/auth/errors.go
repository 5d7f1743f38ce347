// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package auth

import "errors"

// Sentinel errors for errors.Is checks across store boundaries. Repository
// implementations wrap these with oops codes; nothing outside the repository
// packages ever observes a raw driver error.
//
// Error codes used by this package and its stores:
//
//	INVALID_ARGUMENT         malformed caller input; should be unreachable in
//	                         correct wiring
//	AUTH_ACCOUNT_NOT_FOUND   login identifier matches no account
//	AUTH_INVALID_CREDENTIALS login rejected; never says which part was wrong
//	AUTH_ACCOUNT_EXISTS      provisioning conflict on login identifier
//	AUTH_RECORD_INVALID      fetched account failed its constraint group
//	                         (corrupted record, not user error)
//	VALIDATION_FAILED        constructed object failed its constraint group
//	UNKNOWN_ROLE             role code absent from the resolver table; always
//	                         a service-level anomaly, logged loudly
//	SESSION_NOT_FOUND        no token record, or token id mismatch; client
//	                         must re-authenticate
//	AUTH_STORE_UNAVAILABLE   underlying store failure or timeout; never
//	                         conflated with SESSION_NOT_FOUND
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoSession is returned when a user has no stored token record:
	// logged out, expired, or never logged in.
	ErrNoSession = errors.New("no session")

	// ErrUnavailable is returned when an underlying store fails or times
	// out. It must surface as a server-side failure, not a rejection.
	ErrUnavailable = errors.New("store unavailable")
)
