// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/hlstools/adproxy/pkg/logging"
)

// Routes defines dispatches for all routes.
func (s *Server) Routes(ctx context.Context) error {
	for _, route := range logging.LogRoutes {
		s.Router.MethodFunc(route.Method, route.Path, route.Handler)
	}
	s.Router.Mount("/debug", middleware.Profiler())
	s.Router.MethodFunc("GET", "/healthz", s.healthzHandlerFunc)
	s.Router.MethodFunc("GET", "/command", s.commandHandlerFunc)
	s.Router.MethodFunc("GET", "/status", s.statusHandlerFunc)
	s.Router.MethodFunc("GET", "/interstitials.m3u8", s.assetListHandlerFunc)
	// Everything else is proxy traffic, classified by path shape.
	s.Router.MethodFunc("GET", "/*", s.mediaHandlerFunc)
	return nil
}
