// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

// Package jwt encodes and decodes the bearer tokens carried between the web
// layer and the authentication core. Tokens are HS256-signed and carry the
// user id (sub), role code, token id (jti), and issue time.
package jwt

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/auth"
)

// MinSecretLen is the minimum accepted signing secret length in bytes.
const MinSecretLen = 32

// Claims is the token claim set.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Codec issues and parses bearer tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec creates a Codec. ttl is the token's hard expiry, distinct from
// the refresh window that gates the replay guard's fast path.
func NewCodec(secret []byte, ttl time.Duration) (*Codec, error) {
	if len(secret) < MinSecretLen {
		return nil, oops.In("jwt").
			Code("INVALID_ARGUMENT").
			With("min_bytes", MinSecretLen).
			New("signing secret is too short")
	}
	if ttl <= 0 {
		return nil, oops.In("jwt").
			Code("INVALID_ARGUMENT").
			New("token ttl must be positive")
	}
	return &Codec{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue mints a signed bearer token for a user, role, and token id.
func (c *Codec) Issue(userID int64, role access.RoleCode, tokenID string) (string, error) {
	if userID == 0 || role == "" || tokenID == "" {
		return "", oops.In("jwt").
			Code("INVALID_ARGUMENT").
			New("user id, role, and token id are required")
	}

	now := c.now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", oops.In("jwt").
			Code("TOKEN_SIGN_FAILED").
			Wrap(err)
	}
	return signed, nil
}

// Parse verifies a bearer token's signature and expiry and decodes it into
// the payload consumed by the authentication core. Tokens signed with any
// method other than HS256 are rejected.
func (c *Codec) Parse(raw string) (auth.TokenPayload, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, oops.In("jwt").
				Code("TOKEN_BAD_ALG").
				With("alg", t.Method.Alg()).
				New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil || !token.Valid {
		return auth.TokenPayload{}, oops.In("jwt").
			Code("TOKEN_INVALID").
			Wrap(err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return auth.TokenPayload{}, oops.In("jwt").
			Code("TOKEN_INVALID").
			With("subject", claims.Subject).
			Wrap(err)
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}

	return auth.TokenPayload{
		UserID:   userID,
		Role:     access.RoleCode(claims.Role),
		TokenID:  claims.ID,
		IssuedAt: issuedAt,
	}, nil
}
