// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/auth/jwt"
	"github.com/tradepost/tradepost/pkg/errutil"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestNewCodec(t *testing.T) {
	t.Run("accepts a strong secret", func(t *testing.T) {
		_, err := jwt.NewCodec(testSecret, time.Hour)
		require.NoError(t, err)
	})

	t.Run("rejects a short secret", func(t *testing.T) {
		_, err := jwt.NewCodec([]byte("short"), time.Hour)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "INVALID_ARGUMENT")
	})

	t.Run("rejects a non-positive ttl", func(t *testing.T) {
		_, err := jwt.NewCodec(testSecret, 0)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "INVALID_ARGUMENT")
	})
}

func TestCodec_RoundTrip(t *testing.T) {
	codec, err := jwt.NewCodec(testSecret, time.Hour)
	require.NoError(t, err)

	tokenID := auth.NewTokenID()
	raw, err := codec.Issue(7, access.RoleManager, tokenID)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	payload, err := codec.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, int64(7), payload.UserID)
	assert.Equal(t, access.RoleManager, payload.Role)
	assert.Equal(t, tokenID, payload.TokenID)
	assert.WithinDuration(t, time.Now(), payload.IssuedAt, 5*time.Second)
}

func TestCodec_IssueRejectsIncompleteInput(t *testing.T) {
	codec, err := jwt.NewCodec(testSecret, time.Hour)
	require.NoError(t, err)

	for _, tt := range []struct {
		name    string
		userID  int64
		role    access.RoleCode
		tokenID string
	}{
		{"zero user id", 0, access.RoleManager, "tok"},
		{"empty role", 7, "", "tok"},
		{"empty token id", 7, access.RoleManager, ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Issue(tt.userID, tt.role, tt.tokenID)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "INVALID_ARGUMENT")
		})
	}
}

func TestCodec_ParseRejectsTamperedToken(t *testing.T) {
	codec, err := jwt.NewCodec(testSecret, time.Hour)
	require.NoError(t, err)

	raw, err := codec.Issue(7, access.RoleManager, auth.NewTokenID())
	require.NoError(t, err)

	otherCodec, err := jwt.NewCodec([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
	require.NoError(t, err)

	_, err = otherCodec.Parse(raw)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "TOKEN_INVALID")
}

func TestCodec_ParseRejectsWrongAlgorithm(t *testing.T) {
	codec, err := jwt.NewCodec(testSecret, time.Hour)
	require.NoError(t, err)

	// An unsigned token must never pass, whatever its claims say.
	unsigned := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.MapClaims{
		"sub":  "7",
		"role": "2",
		"jti":  auth.NewTokenID(),
	})
	raw, err := unsigned.SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.Parse(raw)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "TOKEN_INVALID")
}

func TestCodec_ParseRejectsExpiredToken(t *testing.T) {
	codec, err := jwt.NewCodec(testSecret, time.Millisecond)
	require.NoError(t, err)

	raw, err := codec.Issue(7, access.RoleManager, auth.NewTokenID())
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = codec.Parse(raw)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "TOKEN_INVALID")
}

func TestCodec_ParseRejectsGarbage(t *testing.T) {
	codec, err := jwt.NewCodec(testSecret, time.Hour)
	require.NoError(t, err)

	_, err = codec.Parse("not.a.token")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "TOKEN_INVALID")
}
