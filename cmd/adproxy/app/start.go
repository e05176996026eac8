// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hlstools/adproxy/internal"
	"github.com/hlstools/adproxy/pkg/logging"
)

// SetupServer sets up router, middleware, and server, given koanf configuration.
//
// The server start instant is captured here, before any traffic is
// accepted, and anchors static slot schedules for live streams.
func SetupServer(ctx context.Context, cfg *ServerConfig) (*Server, error) {
	masterURL, err := url.Parse(cfg.MasterPlaylistURL)
	if err != nil {
		return nil, fmt.Errorf("parse master playlist URL: %w", err)
	}
	if masterURL.Scheme == "" || masterURL.Host == "" {
		return nil, fmt.Errorf("master playlist URL %q must be absolute", cfg.MasterPlaylistURL)
	}
	originBase := &url.URL{Scheme: masterURL.Scheme, Host: masterURL.Host}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.SlogMiddleWare(slog.Default()))
	r.Use(middleware.Recoverer)
	r.Use(addVersionAndCORSHeaders)
	r.Use(NewPrometheusMiddleware())

	// Set a timeout value on the request context (ctx), that will signal
	// through ctx.Done() that the request has timed out and further
	// processing should be stopped.
	if cfg.TimeoutS > 0 {
		r.Use(middleware.Timeout(time.Duration(cfg.TimeoutS) * time.Second))
	}

	// Add prometheus counters
	r.Mount("/metrics", promhttp.Handler())

	startTime := time.Now()
	slots := NewSlotRegistry()
	server := Server{
		Router:        r,
		Cfg:           cfg,
		slots:         slots,
		sessions:      NewSessionStore(),
		ads:           NewAdRegistry(),
		planner:       newBreakPlanner(cfg, slots, startTime),
		httpClient:    newUpstreamClient(),
		startTime:     startTime,
		originBase:    originBase,
		masterPath:    masterURL.Path,
		assetListBase: strings.TrimSuffix(cfg.InterstitialsAddress, "/"),
	}

	err = server.Routes(ctx)
	if err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}

	slog.Info("adproxy starting", "version", internal.GetVersion(),
		"port", cfg.Port, "origin", originBase.String(),
		"masterPath", masterURL.Path, "mode", cfg.AdInsertionMode)

	return &server, nil
}

// newUpstreamClient builds the shared pooled client used for origin
// and ad-server fetches. Per-request deadlines come from the request
// context, not from the client.
func newUpstreamClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}
