// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

type commandResponse struct {
	Status  string        `json:"status"`
	Command commandResult `json:"command"`
}

type commandResult struct {
	Index    int `json:"index"`
	InSec    int `json:"in_sec"`
	Duration int `json:"duration"`
	PodNum   int `json:"pod_num"`
}

// commandHandlerFunc injects one dynamic ad slot scheduled relative to
// now. Rejected outright when the proxy runs in static mode.
func (s *Server) commandHandlerFunc(w http.ResponseWriter, r *http.Request) {
	if s.Cfg.AdInsertionMode != ModeDynamic {
		s.errorResponse(w, "dynamic ad insertion is disabled", http.StatusBadRequest)
		return
	}
	query := r.URL.Query()
	inSec, err := strconv.Atoi(query.Get("in"))
	if err != nil {
		s.errorResponse(w, "missing or invalid parameter: in", http.StatusBadRequest)
		return
	}
	durSec, err := strconv.Atoi(query.Get("dur"))
	if err != nil {
		s.errorResponse(w, "missing or invalid parameter: dur", http.StatusBadRequest)
		return
	}
	podNum, err := strconv.Atoi(query.Get("pod"))
	if err != nil {
		s.errorResponse(w, "missing or invalid parameter: pod", http.StatusBadRequest)
		return
	}

	start := time.Now().Add(time.Duration(inSec) * time.Second)
	slot := s.slots.InsertNew(start, float64(durSec), podNum)
	slog.Info("dynamic ad slot injected", "slot", slot.Name(),
		"start", slot.StartTime, "durationS", durSec, "pod", podNum)

	s.jsonResponse(w, commandResponse{
		Status: "success",
		Command: commandResult{
			Index:    slot.Index,
			InSec:    inSec,
			Duration: durSec,
			PodNum:   podNum,
		},
	}, http.StatusOK)
}
