// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/validate"
	"github.com/tradepost/tradepost/pkg/errutil"
)

func TestValidateLoginID(t *testing.T) {
	tests := []struct {
		name    string
		loginID string
		wantErr bool
	}{
		{"valid", "merchant7", false},
		{"minimum length", "abc", false},
		{"maximum length", strings.Repeat("a", 64), false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 65), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateLoginID(tt.loginID)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, "INVALID_ARGUMENT")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAccount_Constraints(t *testing.T) {
	account := &auth.Account{
		ID:           7,
		LoginID:      "merchant7",
		Role:         access.RoleManager,
		PasswordHash: "$argon2id$stored",
	}

	t.Run("complete record passes every group", func(t *testing.T) {
		require.NoError(t, validate.Object(account,
			validate.GroupLogin, validate.GroupTokenBuild, validate.GroupDataAccess))
	})

	t.Run("password hash only checked on data access", func(t *testing.T) {
		stripped := *account
		stripped.PasswordHash = ""

		require.NoError(t, validate.Object(&stripped, validate.GroupLogin))
		err := validate.Object(&stripped, validate.GroupDataAccess)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("missing id and role collected together", func(t *testing.T) {
		err := validate.Object(&auth.Account{PasswordHash: "x"}, validate.GroupDataAccess)
		require.Error(t, err)
		errutil.AssertErrorContext(t, err, "violation_count", 2)
	})
}
