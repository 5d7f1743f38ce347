// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/auth/jwt"
	authpg "github.com/tradepost/tradepost/internal/auth/postgres"
	authredis "github.com/tradepost/tradepost/internal/auth/redis"
	"github.com/tradepost/tradepost/internal/config"
	"github.com/tradepost/tradepost/internal/logging"
	"github.com/tradepost/tradepost/internal/observability"
)

const shutdownTimeout = 5 * time.Second

// authCore bundles the wired session-auth components.
type authCore struct {
	service *auth.Service
	codec   *jwt.Codec
	hasher  auth.PasswordHasher
}

// buildAuthCore wires the account lookup, token store, hasher, resolver,
// and token codec from configuration and live connections.
func buildAuthCore(cfg *config.Config, pool *pgxpool.Pool, rdb *goredis.Client) (*authCore, error) {
	lookup, err := auth.NewAccountLookup(authpg.NewAccountRepositoryFromPool(pool))
	if err != nil {
		return nil, err
	}

	hasher := auth.NewArgon2Hasher()
	service, err := auth.NewService(
		lookup,
		authredis.NewTokenRecordRepository(rdb),
		hasher,
		access.NewResolver(),
		auth.WithRefreshWindow(cfg.RefreshWindow),
		auth.WithStoreTimeout(cfg.StoreTimeout),
	)
	if err != nil {
		return nil, err
	}

	codec, err := jwt.NewCodec([]byte(cfg.TokenSecret), cfg.TokenTTL)
	if err != nil {
		return nil, err
	}

	return &authCore{service: service, codec: codec, hasher: hasher}, nil
}

// selfCheck issues and parses a probe token so a bad secret or clock
// problem fails at startup instead of at the first login.
func (c *authCore) selfCheck() error {
	probe, err := c.codec.Issue(1, access.RoleNormal, auth.NewTokenID())
	if err != nil {
		return err
	}
	if _, err := c.codec.Parse(probe); err != nil {
		return oops.Code("TOKEN_SELF_CHECK_FAILED").Wrap(err)
	}
	return nil
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication service",
		Long: `Start the authentication service: connects to PostgreSQL and Redis,
wires the session-auth core, and serves metrics and health endpoints.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault(logging.Options{
		Service: "tradepost",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	slog.Info("starting auth service",
		"metrics_addr", cfg.MetricsAddr,
		"log_format", cfg.LogFormat,
	)

	pool, redisClient, cleanup, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	core, err := buildAuthCore(cfg, pool, redisClient)
	if err != nil {
		return err
	}
	if err := core.selfCheck(); err != nil {
		return err
	}
	slog.Info("auth core ready",
		"refresh_window", cfg.RefreshWindow,
		"store_timeout", cfg.StoreTimeout,
	)

	obsServer := observability.NewServer(cfg.MetricsAddr, func(ctx context.Context) bool {
		if err := pool.Ping(ctx); err != nil {
			return false
		}
		return redisClient.Ping(ctx).Err() == nil
	})
	obsErrChan, err := obsServer.Start()
	if err != nil {
		return err
	}
	slog.Info("observability server started", "addr", obsServer.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Auth service started")

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case serveErr := <-obsErrChan:
		if serveErr != nil {
			slog.Error("observability server failed", "error", serveErr)
		}
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := obsServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// connect opens and pings the PostgreSQL pool and the Redis client. The
// returned cleanup closes both and is safe to call after a partial failure.
func connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, *goredis.Client, func(), error) {
	pool, err := openPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	slog.Info("connected to database")

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		DB:       cfg.RedisDB,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pool.Close()
		_ = redisClient.Close() //nolint:errcheck // ping error takes precedence
		return nil, nil, nil, oops.Code("SESSION_STORE_CONNECT_FAILED").Wrap(err)
	}
	slog.Info("connected to session store", "addr", cfg.RedisAddr)

	cleanup := func() {
		if closeErr := redisClient.Close(); closeErr != nil {
			slog.Debug("error closing redis client", "error", closeErr)
		}
		pool.Close()
	}
	return pool, redisClient, cleanup, nil
}
