// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

// Package validate is a grouped-constraint checker for fetched or constructed
// data. Targets declare their constraints once; callers select which subset
// applies with group tags. All violations are collected before failing, never
// just the first one.
package validate

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/samber/oops"
)

// Group is a named tag selecting which constraints apply to a given check.
type Group string

// Constraint groups recognized by the authentication core.
const (
	// GroupLogin requires the fields trusted by the login flow (id, role).
	GroupLogin Group = "login"

	// GroupTokenBuild requires the fields needed to build a token identity
	// (id, role, token id).
	GroupTokenBuild Group = "token_build"

	// GroupDataAccess additionally requires the credential hash; applied to
	// records freshly fetched from the primary store.
	GroupDataAccess Group = "data_access"
)

// Violation is one failed constraint on one field.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// Constraint is a single declared rule, tagged with the groups it belongs to.
// Check returns an empty string when the rule holds, or a violation message.
type Constraint struct {
	Field  string
	Groups []Group
	Check  func() string
}

// Target is an object that declares grouped constraints over its own fields.
type Target interface {
	Constraints() []Constraint
}

// Object runs every constraint of target tagged with any of groups and
// collects all violations.
//
// A nil target fails immediately with code INVALID_ARGUMENT: callers are
// expected to have a value in hand before validating it. Any violations fail
// with code VALIDATION_FAILED, carrying the full list in the error context
// under "violations".
func Object(target Target, groups ...Group) error {
	if isNil(target) {
		return oops.In("validate").
			Code("INVALID_ARGUMENT").
			New("validation target cannot be nil")
	}
	if len(groups) == 0 {
		return oops.In("validate").
			Code("INVALID_ARGUMENT").
			New("at least one constraint group is required")
	}

	var violations []Violation
	for _, c := range target.Constraints() {
		if !selected(c.Groups, groups) {
			continue
		}
		if msg := c.Check(); msg != "" {
			violations = append(violations, Violation{Field: c.Field, Message: msg})
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return oops.In("validate").
		Code("VALIDATION_FAILED").
		With("violations", format(violations)).
		With("violation_count", len(violations)).
		Errorf("constraint check failed: %s", summarize(violations))
}

// Required is a convenience constraint: the field must be non-zero.
func Required(field string, groups []Group, present func() bool) Constraint {
	return Constraint{
		Field:  field,
		Groups: groups,
		Check: func() string {
			if present() {
				return ""
			}
			return "is required"
		},
	}
}

func selected(tagged, requested []Group) bool {
	for _, g := range tagged {
		if slices.Contains(requested, g) {
			return true
		}
	}
	return false
}

func format(violations []Violation) []string {
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = v.String()
	}
	return out
}

func summarize(violations []Violation) string {
	return strings.Join(format(violations), "; ")
}

// isNil reports whether target is nil, including a typed nil pointer.
func isNil(target Target) bool {
	if target == nil {
		return true
	}
	rv := reflect.ValueOf(target)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

var _ fmt.Stringer = Violation{}
