// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hlstools/adproxy/pkg/vast"
)

// Some ad servers reject requests with a missing or default User-Agent,
// so outbound VAST calls present a Safari one.
const adServerUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.0.1 Safari/605.1.15"

// Sentinel tokens replaced in the configured ad-server query values.
const (
	sentinelSessionID = "[template.sessionId]"
	sentinelDuration  = "[template.duration]"
	sentinelPod       = "[template.pod]"
)

// composeAdServerURL clones the configured endpoint, substitutes the
// sentinel tokens in its query values, and appends the raw session
// sidecar query. Values without sentinels pass through verbatim.
func composeAdServerURL(endpoint string, slot AdSlot, sessionID, sidecarQuery string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("parse ad server endpoint: %w", err)
	}
	replacer := strings.NewReplacer(
		sentinelSessionID, sessionID,
		sentinelDuration, strconv.FormatFloat(slot.DurationS, 'f', -1, 64),
		sentinelPod, strconv.Itoa(slot.PodNum),
	)
	values := u.Query()
	for key, vals := range values {
		for i, v := range vals {
			vals[i] = replacer.Replace(v)
		}
		values[key] = vals
	}
	u.RawQuery = values.Encode()
	if sidecarQuery != "" {
		if u.RawQuery == "" {
			u.RawQuery = sidecarQuery
		} else {
			u.RawQuery += "&" + sidecarQuery
		}
	}
	return u.String(), nil
}

// fetchVAST GETs the composed URL and parses the response body. Network
// and non-2xx failures are returned as errors; a body that fails to
// parse as VAST degrades to an empty document.
func fetchVAST(ctx context.Context, client *http.Client, rawURL string) (*vast.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new ad server request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")
	req.Header.Set("User-Agent", adServerUserAgent)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ad server request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ad server responded %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ad server response: %w", err)
	}
	doc, err := vast.Parse(body)
	if err != nil {
		slog.Warn("ad server response is not valid VAST, treating as empty", "err", err)
		return &vast.Document{}, nil
	}
	return doc, nil
}
