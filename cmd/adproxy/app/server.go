// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	_ "net/http/pprof"
)

type Server struct {
	Router        *chi.Mux
	Cfg           *ServerConfig
	slots         *SlotRegistry
	sessions      *SessionStore
	ads           *AdRegistry
	planner       *breakPlanner
	httpClient    *http.Client
	startTime     time.Time
	originBase    *url.URL // scheme and host of the origin
	masterPath    string   // origin path identifying the master playlist
	assetListBase string   // public base for interstitial asset lists
}

func (s *Server) healthzHandlerFunc(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, true, http.StatusOK)
}

// jsonResponse marshals message and give response with code
//
// Don't add any more content after this since Content-Length is set
func (s *Server) jsonResponse(w http.ResponseWriter, message any, code int) {
	raw, err := json.Marshal(message)
	if err != nil {
		http.Error(w, fmt.Sprintf("{message: \"%s\"}", err), http.StatusInternalServerError)
		slog.Error(err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(code)
	_, err = w.Write(raw)
	if err != nil {
		slog.Error("could not write HTTP response", "err", err)
	}
}

// errorResponse emits the JSON error envelope used by the command
// endpoint and other bad-request answers.
func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	s.jsonResponse(w, map[string]string{
		"status":  "error",
		"message": message,
	}, code)
}
