// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package vast models the subset of the IAB VAST 4.x response format that
// the ad proxy consumes, and projects parsed documents into flat creative
// descriptions ready for asset-list generation.
package vast

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// Document is the root <VAST> element.
type Document struct {
	XMLName xml.Name `xml:"VAST"`
	Version string   `xml:"version,attr"`
	Ads     []Ad     `xml:"Ad"`
}

// Ad is one <Ad> element. Wrapper ads are not chased; only inline ads
// contribute creatives.
type Ad struct {
	ID       string  `xml:"id,attr"`
	Sequence int     `xml:"sequence,attr"`
	InLine   *InLine `xml:"InLine"`
}

// InLine holds the actual ad definition served by the last ad server in
// the chain.
type InLine struct {
	AdSystem    string     `xml:"AdSystem"`
	AdTitle     string     `xml:"AdTitle"`
	Impressions []string   `xml:"Impression"`
	Creatives   []Creative `xml:"Creatives>Creative"`
}

// Creative is one <Creative> element with its VAST 4.x universal ad ids.
type Creative struct {
	ID             string          `xml:"id,attr"`
	AdID           string          `xml:"adId,attr"`
	Sequence       int             `xml:"sequence,attr"`
	UniversalAdIDs []UniversalAdID `xml:"UniversalAdId"`
	Linear         *Linear         `xml:"Linear"`
}

// UniversalAdID is a scheme+value creative identifier.
type UniversalAdID struct {
	IDRegistry string `xml:"idRegistry,attr"`
	ID         string `xml:",chardata"`
}

// Linear is a timed in-stream spot.
type Linear struct {
	SkipOffset     string      `xml:"skipoffset,attr"`
	Duration       string      `xml:"Duration"`
	MediaFiles     []MediaFile `xml:"MediaFiles>MediaFile"`
	TrackingEvents []Tracking  `xml:"TrackingEvents>Tracking"`
	VideoClicks    *VideoClicks
}

// MediaFile points at one rendition of the creative.
type MediaFile struct {
	Delivery string `xml:"delivery,attr"`
	Type     string `xml:"type,attr"`
	Width    int    `xml:"width,attr"`
	Height   int    `xml:"height,attr"`
	Bitrate  int    `xml:"bitrate,attr"`
	URI      string `xml:",chardata"`
}

// Tracking is one tracking beacon with its event name and optional offset.
type Tracking struct {
	Event  string `xml:"event,attr"`
	Offset string `xml:"offset,attr"`
	URI    string `xml:",chardata"`
}

// VideoClicks holds click-through and click-tracking beacons.
type VideoClicks struct {
	ClickThroughs  []string `xml:"ClickThrough"`
	ClickTrackings []string `xml:"ClickTracking"`
}

// Parse decodes a VAST document from raw XML.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal VAST: %w", err)
	}
	return &doc, nil
}

// MediaURL returns the media file URI with CDATA whitespace stripped.
func (m MediaFile) MediaURL() string {
	return strings.TrimSpace(m.URI)
}

// ParseDuration parses a VAST time code (HH:MM:SS or HH:MM:SS.mmm) into
// float seconds. An empty string parses to zero.
func ParseDuration(tc string) (float64, error) {
	tc = strings.TrimSpace(tc)
	if tc == "" {
		return 0, nil
	}
	parts := strings.Split(tc, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad VAST time code %q", tc)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad hours in time code %q", tc)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("bad minutes in time code %q", tc)
	}
	s, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("bad seconds in time code %q", tc)
	}
	return float64(h)*3600 + float64(m)*60 + s, nil
}
