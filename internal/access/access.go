// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

// Package access resolves marketplace role codes to capability sets.
//
// The role table is built once at process start and never mutated, so a
// Resolver is safe for unsynchronized concurrent reads. An unknown role code
// is always a service-level anomaly: it must neither degrade to an empty
// capability set (which could mask a privilege bug) nor escalate.
package access

import (
	"slices"

	"github.com/samber/oops"
)

// CapabilitySet is an ordered, deduplicated set of capabilities.
type CapabilitySet []Capability

// Has reports whether the set contains the capability.
func (s CapabilitySet) Has(c Capability) bool {
	return slices.Contains(s, c)
}

// ContainsAll reports whether the set is a superset of other.
func (s CapabilitySet) ContainsAll(other CapabilitySet) bool {
	for _, c := range other {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Strings returns the capabilities as plain strings, in order.
func (s CapabilitySet) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = string(c)
	}
	return out
}

// Resolver maps role codes to capability sets.
//
// Thread-safety: the table is immutable after construction and requires no
// synchronization.
type Resolver struct {
	table map[RoleCode]CapabilitySet
}

// NewResolver creates a Resolver from the default role table.
func NewResolver() *Resolver {
	return NewResolverWithRoles(DefaultRoles())
}

// NewResolverWithRoles creates a Resolver from a custom role table.
// The table is copied; later mutation of the argument has no effect.
func NewResolverWithRoles(roles map[RoleCode][]Capability) *Resolver {
	table := make(map[RoleCode]CapabilitySet, len(roles))
	for code, caps := range roles {
		table[code] = CapabilitySet(compose(caps))
	}
	return &Resolver{table: table}
}

// Resolve returns the capability set for a role code.
//
// An empty or unknown code fails with code UNKNOWN_ROLE. Callers must treat
// that as corrupted data or a missing table entry, never as user error.
func (r *Resolver) Resolve(code RoleCode) (CapabilitySet, error) {
	if code == "" {
		return nil, oops.In("access").
			Code("UNKNOWN_ROLE").
			New("role code cannot be empty")
	}
	caps, ok := r.table[code]
	if !ok {
		return nil, oops.In("access").
			Code("UNKNOWN_ROLE").
			With("role", string(code)).
			New("role code not in table")
	}
	// Defensive copy so callers cannot mutate the shared table.
	return slices.Clone(caps), nil
}

// Roles returns the known role codes in unspecified order.
func (r *Resolver) Roles() []RoleCode {
	codes := make([]RoleCode, 0, len(r.table))
	for code := range r.table {
		codes = append(codes, code)
	}
	return codes
}
