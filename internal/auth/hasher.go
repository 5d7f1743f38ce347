// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// PasswordHasher is the external hashing collaborator used by the login flow.
type PasswordHasher interface {
	// Hash produces an encoded hash of the password.
	Hash(password string) (string, error)

	// Verify checks the password against an encoded hash in constant time.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error on
	// a malformed hash.
	Verify(password, hash string) (bool, error)
}

// Argon2Params are the argon2id cost parameters, OWASP-recommended defaults.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	SaltLen int
	KeyLen  uint32
}

// DefaultArgon2Params returns the parameters used for new hashes.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:    1,
		Memory:  64 * 1024,
		Threads: 4,
		SaltLen: 16,
		KeyLen:  32,
	}
}

// Argon2Hasher implements PasswordHasher using argon2id in PHC string format.
type Argon2Hasher struct {
	params Argon2Params
}

// NewArgon2Hasher creates a hasher with the default parameters.
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{params: DefaultArgon2Params()}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", oops.In("auth").
			Code("INVALID_ARGUMENT").
			New("password cannot be empty")
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.In("auth").Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt,
		h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	// PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify checks the password against a PHC-encoded argon2id hash.
func (h *Argon2Hasher) Verify(password, encoded string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt,
		params.Time, params.Memory, params.Threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// decodeHash parses a PHC argon2id string into its parameters, salt, and key.
func decodeHash(encoded string) (Argon2Params, []byte, []byte, error) {
	malformed := func(err error, msg string) (Argon2Params, []byte, []byte, error) {
		builder := oops.In("auth").Code("AUTH_MALFORMED_HASH")
		if err != nil {
			return Argon2Params{}, nil, nil, builder.Wrap(err)
		}
		return Argon2Params{}, nil, nil, builder.New(msg)
	}

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return malformed(nil, "not an argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return malformed(err, "")
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return malformed(err, "")
	}
	if threads == 0 || threads > 255 {
		return malformed(nil, "thread count out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return malformed(err, "")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return malformed(err, "")
	}
	if len(key) == 0 {
		return malformed(nil, "empty key")
	}

	return Argon2Params{
		Time:    time,
		Memory:  memory,
		Threads: uint8(threads),
		KeyLen:  uint32(len(key)),
	}, salt, key, nil
}
