//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/auth/postgres"
	"github.com/tradepost/tradepost/internal/store"
	"github.com/tradepost/tradepost/pkg/errutil"
)

// startPostgresContainer starts a PostgreSQL container for testing.
func startPostgresContainer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := pgcontainer.Run(ctx,
		"postgres:16-alpine",
		pgcontainer.WithDatabase("test"),
		pgcontainer.WithUsername("test"),
		pgcontainer.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return connStr
}

func TestAccountRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	connStr := startPostgresContainer(t)

	migrator, err := store.NewMigrator(connStr)
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	require.NoError(t, migrator.Close())

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := postgres.NewAccountRepositoryFromPool(pool)

	account := &auth.Account{
		LoginID:      "merchant7",
		Role:         access.RoleManager,
		PasswordHash: "$argon2id$stored",
	}
	require.NoError(t, repo.Create(ctx, account))
	assert.NotZero(t, account.ID)

	t.Run("round trip", func(t *testing.T) {
		got, err := repo.GetByLoginID(ctx, "merchant7")
		require.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)
		assert.Equal(t, access.RoleManager, got.Role)
		assert.Equal(t, "$argon2id$stored", got.PasswordHash)
	})

	t.Run("duplicate login id rejected by the schema", func(t *testing.T) {
		dup := &auth.Account{
			LoginID:      "merchant7",
			Role:         access.RoleNormal,
			PasswordHash: "$argon2id$other",
		}
		err := repo.Create(ctx, dup)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_ACCOUNT_EXISTS")
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := repo.GetByLoginID(ctx, "nobody99")
		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrNotFound))
	})
}
