// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for the authentication core.
var (
	// loginsTotal counts password logins by outcome.
	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradepost_auth_logins_total",
		Help: "Total number of password login attempts by outcome",
	}, []string{"outcome"})

	// tokenChecksTotal counts token validations by path and outcome. The
	// path label distinguishes stateless fast-path checks from store-backed
	// slow-path revalidations.
	tokenChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradepost_auth_token_checks_total",
		Help: "Total number of bearer token validations by path and outcome",
	}, []string{"path", "outcome"})

	// storeLatency tracks the latency of token-store round trips during
	// slow-path revalidation.
	storeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tradepost_auth_token_store_seconds",
		Help:    "Histogram of token-state store round trip latency in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// Metric label values.
const (
	outcomeOK          = "ok"
	outcomeRejected    = "rejected"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"

	pathFast = "fast"
	pathSlow = "slow"
)
