// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/tradepost/tradepost/internal/access"
	"github.com/tradepost/tradepost/internal/auth"
	authpg "github.com/tradepost/tradepost/internal/auth/postgres"
	"github.com/tradepost/tradepost/internal/config"
)

// Default timeout for account commands.
const defaultAccountTimeout = 30 * time.Second

// accountConfig holds configuration for the account subcommands.
type accountConfig struct {
	loginID  string
	password string
	role     string
	timeout  time.Duration
}

// NewAccountCmd creates the account subcommand group.
func NewAccountCmd() *cobra.Command {
	cfg := &accountConfig{}

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage marketplace accounts",
	}

	cmd.PersistentFlags().StringVar(&cfg.loginID, "login-id", "", "account login identifier")
	cmd.PersistentFlags().StringVar(&cfg.password, "password", "", "account password (or TRADEPOST_ACCOUNT_PASSWORD)")
	cmd.PersistentFlags().DurationVar(&cfg.timeout, "timeout", defaultAccountTimeout, "timeout for store operations (e.g., 30s, 1m)")

	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long:  `Create an account with a hashed password and a role code (1, 2, or 3).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountCreate(cmd, args, cfg)
		},
	}
	create.Flags().StringVar(&cfg.role, "role", string(access.RoleNormal), "role code (1=normal, 2=manager, 3=admin)")

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Verify account credentials",
		Long: `Run a full login against the live stores and print the resolved
capabilities plus a signed session token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountVerify(cmd, args, cfg)
		},
	}

	cmd.AddCommand(create, verify)
	return cmd
}

func (cfg *accountConfig) resolvePassword() (string, error) {
	password := cfg.password
	if password == "" {
		password = strings.TrimSpace(os.Getenv("TRADEPOST_ACCOUNT_PASSWORD"))
	}
	if password == "" {
		return "", oops.Code("INVALID_ARGUMENT").New("password is required")
	}
	return password, nil
}

func runAccountCreate(cmd *cobra.Command, _ []string, cfg *accountConfig) error {
	appCfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if appCfg.DatabaseURL == "" {
		return oops.Code("INVALID_ARGUMENT").New("database_url is required")
	}

	if err := auth.ValidateLoginID(cfg.loginID); err != nil {
		return err
	}
	password, err := cfg.resolvePassword()
	if err != nil {
		return err
	}

	// Reject unknown role codes before touching the database.
	resolver := access.NewResolver()
	if _, err := resolver.Resolve(access.RoleCode(cfg.role)); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	pool, err := openPool(ctx, appCfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	hasher := auth.NewArgon2Hasher()
	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	account := &auth.Account{
		LoginID:      cfg.loginID,
		Role:         access.RoleCode(cfg.role),
		PasswordHash: hash,
	}
	repo := authpg.NewAccountRepositoryFromPool(pool)
	if err := repo.Create(ctx, account); err != nil {
		return err
	}

	cmd.Printf("Account created: id=%d login_id=%s role=%s\n", account.ID, account.LoginID, account.Role)
	return nil
}

func runAccountVerify(cmd *cobra.Command, _ []string, cfg *accountConfig) error {
	appCfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := appCfg.Validate(); err != nil {
		return err
	}

	password, err := cfg.resolvePassword()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout)
	defer cancel()

	pool, redisClient, cleanup, err := connect(ctx, appCfg)
	if err != nil {
		return err
	}
	defer cleanup()

	core, err := buildAuthCore(appCfg, pool, redisClient)
	if err != nil {
		return err
	}

	identity, record, err := core.service.Login(ctx, cfg.loginID, password)
	if err != nil {
		return err
	}

	token, err := core.codec.Issue(identity.UserID(), identity.Role(), record.TokenID)
	if err != nil {
		return err
	}

	cmd.Printf("Login OK: user_id=%d role=%s capabilities=%v\n",
		identity.UserID(), identity.Role(), identity.Capabilities().Strings())
	cmd.Printf("Token: %s\n", token)
	return nil
}

// openPool connects and pings a PostgreSQL pool.
func openPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	return pool, nil
}
