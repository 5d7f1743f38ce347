// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

// Package auth is the session-authentication core of Tradepost.
//
// # Flows
//
// Two flows are supported:
//   - Password login: AccountLookup fetches the account, the password is
//     verified in constant time, capabilities are resolved, and a fresh
//     replay-detection record is written to the token store.
//   - Token validation: a decoded bearer payload is checked against the
//     refresh window. Inside the window the token is accepted statelessly;
//     once the window elapses the presented token id is compared against the
//     stored record and rotated on success.
//
// # Collaborators
//
// The primary account store (AccountRepository) and the key-value token
// store (TokenRecordRepository) are interfaces; implementations live in the
// postgres and redis subpackages. Raw driver errors never cross those
// boundaries: every store failure is rewrapped into the error taxonomy
// described in errors.go.
//
// # Identities
//
// Both flows produce an Identity: AccountIdentity from a freshly loaded
// account, TokenIdentity from a token payload with a freshly re-resolved
// capability set. Role codes are never trusted solely from the token payload.
package auth
