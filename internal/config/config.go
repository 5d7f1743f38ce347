// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

// Package config loads service configuration from a YAML file, environment
// variables, and command-line flags, in increasing order of precedence.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds everything the serve command needs to run.
type Config struct {
	DatabaseURL string `koanf:"database_url"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisDB       int    `koanf:"redis_db"`
	RedisPassword string `koanf:"redis_password"`

	TokenSecret   string        `koanf:"token_secret"`
	TokenTTL      time.Duration `koanf:"token_ttl"`
	RefreshWindow time.Duration `koanf:"refresh_window"`
	StoreTimeout  time.Duration `koanf:"store_timeout"`

	MetricsAddr string `koanf:"metrics_addr"`
	LogFormat   string `koanf:"log_format"`
	LogLevel    string `koanf:"log_level"`
}

// Defaults applied before any provider is merged.
const (
	DefaultRedisAddr     = "localhost:6379"
	DefaultTokenTTL      = 24 * time.Hour
	DefaultRefreshWindow = 30 * time.Minute
	DefaultStoreTimeout  = 3 * time.Second
	DefaultMetricsAddr   = "127.0.0.1:9100"
	DefaultLogFormat     = "json"
	DefaultLogLevel      = "info"
)

// envPrefix is stripped from environment variables before mapping, so
// TRADEPOST_DATABASE_URL populates database_url.
const envPrefix = "TRADEPOST_"

func defaults() *Config {
	return &Config{
		RedisAddr:     DefaultRedisAddr,
		TokenTTL:      DefaultTokenTTL,
		RefreshWindow: DefaultRefreshWindow,
		StoreTimeout:  DefaultStoreTimeout,
		MetricsAddr:   DefaultMetricsAddr,
		LogFormat:     DefaultLogFormat,
		LogLevel:      DefaultLogLevel,
	}
}

// Load builds a Config from the optional YAML file at path, the process
// environment, and the given flag set. Any of the sources may be absent.
// Callers that need a complete configuration should call Validate on the
// result; commands that only touch part of it can check fields directly.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	errb := oops.In("config")

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errb.With("path", path).Wrap(err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, errb.Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, errb.Wrap(err)
		}
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errb.Wrap(err)
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	errb := oops.In("config").Code("INVALID_ARGUMENT")

	if c.DatabaseURL == "" {
		return errb.New("database_url is required")
	}
	if c.RedisAddr == "" {
		return errb.New("redis_addr is required")
	}
	if c.TokenSecret == "" {
		return errb.New("token_secret is required")
	}
	if c.TokenTTL <= 0 {
		return errb.With("token_ttl", c.TokenTTL).New("token_ttl must be positive")
	}
	if c.RefreshWindow <= 0 {
		return errb.With("refresh_window", c.RefreshWindow).New("refresh_window must be positive")
	}
	if c.StoreTimeout <= 0 {
		return errb.With("store_timeout", c.StoreTimeout).New("store_timeout must be positive")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return errb.With("log_format", c.LogFormat).New("log_format must be json or text")
	}
	return nil
}
