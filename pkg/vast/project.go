// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package vast

import "strings"

// rawPathTokens mark media files delivered as raw segments or MP4 files
// that need to be wrapped in a synthesised playlist before an HLS player
// can use them.
var rawPathTokens = []string{".ts", ".cmf", ".mp", ".m4s"}

// transcodedPathToken marks media already packaged as an HLS sub-playlist.
const transcodedPathToken = ".m3u8"

// AdID is one scheme+value identifier of a projected creative.
type AdID struct {
	Scheme string
	Value  string
}

// TrackingEvent groups the beacon URLs of one tracking event.
type TrackingEvent struct {
	Event  string
	Offset string
	URLs   []string
}

// LinearCreative is the flat projection of one valid linear creative.
type LinearCreative struct {
	Duration  float64
	MediaURLs []string
	AdIDs     []AdID
	Tracking  []TrackingEvent
}

// IsRawMediaPath reports whether the path points at a raw media file
// (MPEG-TS, CMAF, or MP4 flavoured).
func IsRawMediaPath(path string) bool {
	for _, token := range rawPathTokens {
		if strings.Contains(path, token) {
			return true
		}
	}
	return false
}

// IsTranscodedMediaPath reports whether the path points at an HLS
// sub-playlist.
func IsTranscodedMediaPath(path string) bool {
	return strings.Contains(path, transcodedPathToken)
}

// creatives flattens all inline creatives in document order.
func (d *Document) creatives() []Creative {
	var out []Creative
	for _, ad := range d.Ads {
		if ad.InLine == nil {
			continue
		}
		out = append(out, ad.InLine.Creatives...)
	}
	return out
}

// project converts one creative into its flat form. A creative is valid
// iff it has an ad id and a linear with at least one media file URL.
func project(c Creative) (LinearCreative, bool) {
	if c.AdID == "" || c.Linear == nil {
		return LinearCreative{}, false
	}
	var urls []string
	for _, mf := range c.Linear.MediaFiles {
		if u := mf.MediaURL(); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return LinearCreative{}, false
	}
	dur, err := ParseDuration(c.Linear.Duration)
	if err != nil {
		dur = 0
	}
	lc := LinearCreative{
		Duration:  dur,
		MediaURLs: urls,
	}
	for _, id := range c.UniversalAdIDs {
		lc.AdIDs = append(lc.AdIDs, AdID{
			Scheme: strings.TrimSpace(id.IDRegistry),
			Value:  strings.TrimSpace(id.ID),
		})
	}
	for _, tr := range c.Linear.TrackingEvents {
		lc.Tracking = append(lc.Tracking, TrackingEvent{
			Event:  tr.Event,
			Offset: tr.Offset,
			URLs:   []string{strings.TrimSpace(tr.URI)},
		})
	}
	return lc, true
}

// linearsBy returns the valid creatives whose first media URL satisfies
// the filter, in document order.
func (d *Document) linearsBy(filter func(string) bool) []LinearCreative {
	var out []LinearCreative
	for _, c := range d.creatives() {
		lc, ok := project(c)
		if !ok {
			continue
		}
		if filter(lc.MediaURLs[0]) {
			out = append(out, lc)
		}
	}
	return out
}

// RawLinears returns the valid creatives whose first media URL points at a
// raw media file. Creatives matching neither the raw nor the transcoded
// shape (bumper assets) are discarded.
func (d *Document) RawLinears() []LinearCreative {
	return d.linearsBy(IsRawMediaPath)
}

// TranscodedLinears returns the valid creatives whose first media URL
// points at an HLS sub-playlist.
func (d *Document) TranscodedLinears() []LinearCreative {
	return d.linearsBy(IsTranscodedMediaPath)
}
