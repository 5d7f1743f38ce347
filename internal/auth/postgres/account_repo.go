// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

// Package postgres implements the primary account store using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/auth"
)

// DB is the subset of pgxpool.Pool used by the repository. pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates an AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// NewAccountRepositoryFromPool creates an AccountRepository over a pool.
func NewAccountRepositoryFromPool(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: pool}
}

// Create stores a new account and backfills its generated id.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	now := time.Now()
	err := r.db.QueryRow(ctx, `
		INSERT INTO accounts (login_id, role_code, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		account.LoginID,
		string(account.Role),
		account.PasswordHash,
		now,
		now,
	).Scan(&account.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.In("postgres").
				Code("AUTH_ACCOUNT_EXISTS").
				With("login_id", account.LoginID).
				Wrap(err)
		}
		return storeFailure("insert account", err)
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// GetByLoginID retrieves an account by its login identifier.
func (r *AccountRepository) GetByLoginID(ctx context.Context, loginID string) (*auth.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, login_id, role_code, password_hash, created_at, updated_at
		FROM accounts
		WHERE login_id = $1
	`, loginID)

	var (
		account  auth.Account
		roleCode string
	)
	err := row.Scan(
		&account.ID,
		&account.LoginID,
		&roleCode,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.In("postgres").
			Code("AUTH_ACCOUNT_NOT_FOUND").
			With("login_id", loginID).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, storeFailure("get account by login id", err)
	}

	account.Role = access.RoleCode(roleCode)
	return &account, nil
}

// storeFailure wraps a raw driver failure so nothing outside this package
// observes a pgx error type.
func storeFailure(operation string, err error) error {
	return oops.In("postgres").
		Code("AUTH_STORE_UNAVAILABLE").
		With("operation", operation).
		Wrap(errors.Join(auth.ErrUnavailable, err))
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
