// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tradepost Contributors

// Package observability provides HTTP endpoints for metrics and health probes.
package observability

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker reports whether the service is ready to accept requests.
type ReadinessChecker func(ctx context.Context) bool

// Server exposes /metrics, /healthz, and /readyz.
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates an observability server. addr is a "host:port" listen
// address. A nil readiness checker reports always-ready.
func NewServer(addr string, isReady ReadinessChecker) *Server {
	if isReady == nil {
		isReady = func(context.Context) bool { return true }
	}
	return &Server{addr: addr, isReady: isReady}
}

// Start begins serving. It returns a channel that receives any error from
// the HTTP server after startup; the channel is closed on graceful stop.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.In("observability").New("server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.In("observability").
			With("addr", s.addr).
			Wrap(err)
	}
	s.listener = listener

	// Default registry plus process and Go runtime collectors; the auth
	// core registers its own metrics through promauto at init.
	gatherer := prometheus.DefaultGatherer
	registerer := prometheus.DefaultRegisterer
	tryRegister(registerer, collectors.NewGoCollector())
	tryRegister(registerer, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if s.isReady(r.Context()) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})

	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := s.httpServer.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
		}
	}()

	return errCh, nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return oops.In("observability").Wrap(err)
	}
	return nil
}

// Addr returns the bound listen address, useful when addr used port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// tryRegister registers a collector, ignoring duplicate registration, which
// happens when multiple servers run in one test process.
func tryRegister(reg prometheus.Registerer, c prometheus.Collector) {
	if err := reg.Register(c); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if !errors.As(err, &alreadyRegistered) {
			panic(err)
		}
	}
}
