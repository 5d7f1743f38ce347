// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/auth/postgres"
	"github.com/tradepost/tradepost/pkg/errutil"
)

func newMockRepo(t *testing.T) (*postgres.AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return postgres.NewAccountRepository(mock), mock
}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("backfills the generated id", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs("merchant7", "2", "$argon2id$stored", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

		account := &auth.Account{
			LoginID:      "merchant7",
			Role:         access.RoleManager,
			PasswordHash: "$argon2id$stored",
		}
		require.NoError(t, repo.Create(ctx, account))

		assert.Equal(t, int64(7), account.ID)
		assert.False(t, account.CreatedAt.IsZero())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate login id", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs("merchant7", "2", "$argon2id$stored", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		account := &auth.Account{
			LoginID:      "merchant7",
			Role:         access.RoleManager,
			PasswordHash: "$argon2id$stored",
		}
		err := repo.Create(ctx, account)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_ACCOUNT_EXISTS")
	})

	t.Run("driver failure becomes unavailable", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs("merchant7", "2", "$argon2id$stored", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("connection reset"))

		account := &auth.Account{
			LoginID:      "merchant7",
			Role:         access.RoleManager,
			PasswordHash: "$argon2id$stored",
		}
		err := repo.Create(ctx, account)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_STORE_UNAVAILABLE")
		assert.True(t, errors.Is(err, auth.ErrUnavailable))
	})
}

func TestAccountRepository_GetByLoginID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	accountColumns := []string{"id", "login_id", "role_code", "password_hash", "created_at", "updated_at"}

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT id, login_id, role_code, password_hash").
			WithArgs("merchant7").
			WillReturnRows(pgxmock.NewRows(accountColumns).
				AddRow(int64(7), "merchant7", "2", "$argon2id$stored", now, now))

		account, err := repo.GetByLoginID(ctx, "merchant7")
		require.NoError(t, err)

		assert.Equal(t, int64(7), account.ID)
		assert.Equal(t, access.RoleManager, account.Role)
		assert.Equal(t, "$argon2id$stored", account.PasswordHash)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT id, login_id, role_code, password_hash").
			WithArgs("nobody99").
			WillReturnError(pgx.ErrNoRows)

		account, err := repo.GetByLoginID(ctx, "nobody99")
		assert.Nil(t, account)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_ACCOUNT_NOT_FOUND")
		assert.True(t, errors.Is(err, auth.ErrNotFound))
	})

	t.Run("driver failure becomes unavailable", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT id, login_id, role_code, password_hash").
			WithArgs("merchant7").
			WillReturnError(errors.New("connection reset"))

		account, err := repo.GetByLoginID(ctx, "merchant7")
		assert.Nil(t, account)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_STORE_UNAVAILABLE")
		assert.True(t, errors.Is(err, auth.ErrUnavailable))
	})
}
