// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Eyevinn/hls-m3u8/m3u8"
	"github.com/google/uuid"

	"github.com/hlstools/adproxy/pkg/logging"
	"github.com/hlstools/adproxy/pkg/vast"
)

const (
	interstitialsPlaylist = "interstitials.m3u8"
	hlsContentType        = "application/vnd.apple.mpegurl"
)

// isSegmentPath matches media segment requests. The media shape tokens
// are the same ones used to classify raw VAST creatives.
func isSegmentPath(path string) bool {
	return vast.IsRawMediaPath(path)
}

// mediaHandlerFunc is the catch-all front door. Requests are classified
// by path shape: interstitial asset list, master playlist, media
// segment, media playlist, or nothing we know about.
func (s *Server) mediaHandlerFunc(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, interstitialsPlaylist):
		s.assetListHandlerFunc(w, r)
	case strings.Contains(path, s.masterPath):
		s.proxyMasterPlaylist(w, r)
	case isSegmentPath(path):
		s.proxySegment(w, r)
	case strings.Contains(path, ".m3u8"):
		s.proxyMediaPlaylist(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// upstreamURL maps the incoming path and query onto the origin.
func (s *Server) upstreamURL(r *http.Request) string {
	u := *s.originBase
	u.Path = r.URL.Path
	u.RawQuery = r.URL.RawQuery
	return u.String()
}

func (s *Server) fetchOrigin(r *http.Request) (*http.Response, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, s.upstreamURL(r), nil)
	if err != nil {
		return nil, err
	}
	return s.httpClient.Do(req)
}

// copyHeaders copies upstream response headers, dropping hop-by-hop
// Connection and any Content-Length that no longer holds.
func copyHeaders(dst http.Header, src http.Header, dropLength bool) {
	for key, vals := range src {
		if http.CanonicalHeaderKey(key) == "Connection" {
			continue
		}
		if dropLength && http.CanonicalHeaderKey(key) == "Content-Length" {
			continue
		}
		for _, v := range vals {
			dst.Add(key, v)
		}
	}
}

func writeHLS(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", hlsContentType)
	_, err := w.Write(body)
	if err != nil {
		slog.Error("could not write HLS response", "err", err)
	}
}

// proxyMasterPlaylist forwards the master playlist, captures the
// session sidecar, and rewrites absolute variant URIs to path+query so
// the player keeps talking to this proxy.
func (s *Server) proxyMasterPlaylist(w http.ResponseWriter, r *http.Request) {
	log := logging.SubLoggerWithRequestID(slog.Default(), r)

	if sid := r.Header.Get("X-Playback-Session-ID"); sid != "" && r.URL.RawQuery != "" {
		if id, err := uuid.Parse(sid); err == nil {
			s.sessions.Put(id, r.URL.RawQuery)
			log.Debug("captured session query", "session", id, "query", r.URL.RawQuery)
		}
	}

	resp, err := s.fetchOrigin(r)
	if err != nil {
		log.Error("origin fetch failed", "err", err)
		http.Error(w, "origin fetch failed", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("origin body read failed", "err", err)
		http.Error(w, "origin fetch failed", http.StatusInternalServerError)
		return
	}
	if resp.StatusCode != http.StatusOK {
		copyHeaders(w.Header(), resp.Header, false)
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(body)
		return
	}

	pl, listType, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
	if err != nil || listType != m3u8.MASTER {
		// Never wedge a stream over a parser disagreement.
		log.Warn("master playlist not parsable, passing through", "err", err)
		copyHeaders(w.Header(), resp.Header, true)
		writeHLS(w, body)
		return
	}
	master := pl.(*m3u8.MasterPlaylist)
	for _, variant := range master.Variants {
		variant.URI = rewriteToPathQuery(variant.URI)
		for _, alt := range variant.Alternatives {
			alt.URI = rewriteToPathQuery(alt.URI)
		}
	}
	copyHeaders(w.Header(), resp.Header, true)
	writeHLS(w, master.Encode().Bytes())
}

// rewriteToPathQuery strips scheme and host from absolute URIs.
func rewriteToPathQuery(uri string) string {
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	return u.RequestURI()
}

// proxyMediaPlaylist forwards a media playlist through the break
// planner before re-serialising it.
func (s *Server) proxyMediaPlaylist(w http.ResponseWriter, r *http.Request) {
	log := logging.SubLoggerWithRequestID(slog.Default(), r)

	resp, err := s.fetchOrigin(r)
	if err != nil {
		log.Error("origin fetch failed", "err", err)
		http.Error(w, "origin fetch failed", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("origin body read failed", "err", err)
		http.Error(w, "origin fetch failed", http.StatusInternalServerError)
		return
	}
	if resp.StatusCode != http.StatusOK {
		copyHeaders(w.Header(), resp.Header, false)
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write(body)
		return
	}

	pl, listType, err := m3u8.DecodeFrom(bytes.NewReader(body), true)
	if err != nil || listType != m3u8.MEDIA {
		log.Warn("media playlist not parsable, passing through", "err", err)
		copyHeaders(w.Header(), resp.Header, true)
		writeHLS(w, body)
		return
	}
	media := pl.(*m3u8.MediaPlaylist)
	attached := s.planner.Plan(media)
	if attached > 0 {
		log.Debug("attached interstitial cues", "count", attached, "path", r.URL.Path)
	}
	copyHeaders(w.Header(), resp.Header, true)
	writeHLS(w, media.Encode().Bytes())
}

// proxySegment streams a media segment straight through.
func (s *Server) proxySegment(w http.ResponseWriter, r *http.Request) {
	resp, err := s.fetchOrigin(r)
	if err != nil {
		slog.Error("origin fetch failed", "err", err, "path", r.URL.Path)
		http.Error(w, "origin fetch failed", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()
	copyHeaders(w.Header(), resp.Header, false)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Debug("segment copy interrupted", "err", err)
	}
}
