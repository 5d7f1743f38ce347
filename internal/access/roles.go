// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package access

// Capability is a single permission granted to an authenticated identity.
type Capability string

// Capabilities granted by the marketplace roles.
const (
	CapabilityUser    Capability = "USER"
	CapabilityManager Capability = "MANAGER"
	CapabilityAdmin   Capability = "ADMIN"
)

// RoleCode is the role discriminator persisted on an account record and
// carried in token payloads. Codes are opaque strings, not display names.
type RoleCode string

// Known role codes. The hierarchy is additive: each higher role carries
// every capability of the roles below it.
const (
	RoleNormal  RoleCode = "1"
	RoleManager RoleCode = "2"
	RoleAdmin   RoleCode = "3"
)

// Capability groups composed into roles. Roles compose these groups
// explicitly rather than inheriting.

var userGrants = []Capability{
	CapabilityUser,
}

var managerGrants = []Capability{
	CapabilityManager,
}

var adminGrants = []Capability{
	CapabilityAdmin,
}

// DefaultRoles returns the role table used to build the Resolver.
// Adding a role is a one-line edit here.
func DefaultRoles() map[RoleCode][]Capability {
	return map[RoleCode][]Capability{
		RoleNormal:  compose(userGrants),
		RoleManager: compose(userGrants, managerGrants),
		RoleAdmin:   compose(userGrants, managerGrants, adminGrants),
	}
}

// compose merges capability slices into one, preserving order and
// dropping duplicates.
func compose(groups ...[]Capability) []Capability {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	seen := make(map[Capability]struct{}, total)
	result := make([]Capability, 0, total)
	for _, g := range groups {
		for _, c := range g {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			result = append(result, c)
		}
	}
	return result
}
