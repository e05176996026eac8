// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"net/http"
	"time"

	"github.com/hlstools/adproxy/internal"
)

type statusResponse struct {
	Version   string            `json:"version"`
	StartTime time.Time         `json:"startTime"`
	Config    *ServerConfig     `json:"config"`
	Slots     []AdSlot          `json:"slots"`
	Sessions  map[string]string `json:"sessions"`
	Ads       map[string]Ad     `json:"ads"`
}

// statusHandlerFunc dumps the configuration and the three registries.
func (s *Server) statusHandlerFunc(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, statusResponse{
		Version:   internal.GetVersion(),
		StartTime: s.startTime,
		Config:    s.Cfg,
		Slots:     s.slots.Snapshot(),
		Sessions:  s.sessions.Snapshot(),
		Ads:       s.ads.Snapshot(),
	}, http.StatusOK)
}
