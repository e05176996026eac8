// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hlstools/adproxy/pkg/logging"
)

// assetListHandlerFunc resolves one interstitial into its asset list,
// or into a follow-up playlist when the request carries an _ad_id.
func (s *Server) assetListHandlerFunc(w http.ResponseWriter, r *http.Request) {
	log := logging.SubLoggerWithRequestID(slog.Default(), r)
	query := r.URL.Query()

	if rawAdID := query.Get("_ad_id"); rawAdID != "" {
		s.followUpHandlerFunc(w, r, rawAdID)
		return
	}

	slotName := query.Get("_HLS_interstitial_id")
	slot, ok := s.slots.ByName(slotName)
	if !ok {
		log.Info("asset list requested for unknown slot", "slot", slotName)
		http.Error(w, "Ad slot missing", http.StatusNotFound)
		return
	}
	sessionID := query.Get("_HLS_primary_id")

	if s.Cfg.TestAssets {
		list := buildTestAssetList(s.assetListBase, slot.Name(), sessionID, s.ads)
		s.jsonResponse(w, list, http.StatusOK)
		return
	}

	var sidecarQuery string
	if id, err := uuid.Parse(sessionID); err == nil {
		sidecarQuery, _ = s.sessions.Get(id)
	}
	adURL, err := composeAdServerURL(s.Cfg.AdServerEndpoint, slot, sessionID, sidecarQuery)
	if err != nil {
		log.Error("compose ad server URL", "err", err)
		http.Error(w, "ad server request failed", http.StatusInternalServerError)
		return
	}
	doc, err := fetchVAST(r.Context(), s.httpClient, adURL)
	if err != nil {
		log.Error("VAST fetch failed", "err", err, "slot", slot.Name())
		http.Error(w, "ad server request failed", http.StatusInternalServerError)
		return
	}

	list := buildAssetList(doc, s.assetListBase, slot.Name(), sessionID, s.ads)
	log.Debug("resolved asset list", "slot", slot.Name(), "assets", len(list.Assets))
	s.jsonResponse(w, list, http.StatusOK)
}

// followUpHandlerFunc serves the synthesised one-segment playlist for a
// previously registered raw creative.
func (s *Server) followUpHandlerFunc(w http.ResponseWriter, r *http.Request, rawAdID string) {
	adID, err := uuid.Parse(rawAdID)
	if err != nil {
		http.Error(w, "Ad missing", http.StatusNotFound)
		return
	}
	ad, ok := s.ads.Get(adID)
	if !ok {
		http.Error(w, "Ad missing", http.StatusNotFound)
		return
	}
	pl, err := buildFollowUpPlaylist(ad)
	if err != nil {
		slog.Error("follow-up playlist build failed", "err", err)
		http.Error(w, "playlist build failed", http.StatusInternalServerError)
		return
	}
	writeHLS(w, pl.Encode().Bytes())
}
