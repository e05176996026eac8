// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/hlstools/adproxy/pkg/vast"
)

// Asset-list JSON schema. Every asset carries a per-slot creative
// signalling object and the list itself carries a pod-level one.
type assetList struct {
	Assets       []asset             `json:"ASSETS"`
	PodSignaling adCreativeSignaling `json:"X-AD-CREATIVE-SIGNALING"`
}

type asset struct {
	URI       string              `json:"URI"`
	DurationS float64             `json:"DURATION"`
	Signaling adCreativeSignaling `json:"X-AD-CREATIVE-SIGNALING"`
}

type adCreativeSignaling struct {
	Version int              `json:"version"`
	Type    string           `json:"type"`
	Payload signalingPayload `json:"payload"`
}

type signalingPayload struct {
	Type        string           `json:"type,omitempty"`
	Start       *float64         `json:"start,omitempty"`
	DurationS   float64          `json:"duration"`
	Identifiers []signalingID    `json:"identifiers,omitempty"`
	Tracking    []signalingTrack `json:"tracking,omitempty"`
}

type signalingID struct {
	Scheme string `json:"scheme"`
	Value  string `json:"value"`
}

type signalingTrack struct {
	Type   string   `json:"type"`
	Offset string   `json:"offset,omitempty"`
	URLs   []string `json:"urls"`
}

// Canned creative returned when VAST resolution is short-circuited.
const (
	testAssetMediaURL  = "https://test-videos.co.uk/vids/bigbuckbunny/mp4/h264/720/Big_Buck_Bunny_720_10s_1MB.mp4"
	testAssetDurationS = 10.0
)

// assetListBuilder accumulates assets in break order and keeps the
// cumulative start offset and pod duration.
type assetListBuilder struct {
	base      string // public base URL for proxy-hosted follow-up playlists
	slotName  string
	sessionID string
	ads       *AdRegistry
	assets    []asset
	offsetS   float64
}

func newAssetListBuilder(base, slotName, sessionID string, ads *AdRegistry) *assetListBuilder {
	return &assetListBuilder{
		base:      base,
		slotName:  slotName,
		sessionID: sessionID,
		ads:       ads,
	}
}

// addRaw registers the creative in the ad registry under a fresh
// ephemeral ID and points the asset back at this proxy, where the
// follow-up playlist builder wraps the MP4.
func (b *assetListBuilder) addRaw(lc vast.LinearCreative) {
	adID := uuid.New()
	b.ads.Insert(adID, Ad{
		AdIDs:      lc.AdIDs,
		DurationS:  lc.Duration,
		MediaURL:   lc.MediaURLs[0],
		ResolvedAt: time.Now(),
		Tracking:   lc.Tracking,
	})
	b.append(b.followUpURL(adID), lc)
}

// addTranscoded points the asset directly at the creative's own HLS
// sub-playlist. No registry insertion is needed.
func (b *assetListBuilder) addTranscoded(lc vast.LinearCreative) {
	b.append(lc.MediaURLs[0], lc)
}

func (b *assetListBuilder) append(uri string, lc vast.LinearCreative) {
	start := b.offsetS
	b.offsetS += lc.Duration
	var ids []signalingID
	for _, id := range lc.AdIDs {
		ids = append(ids, signalingID{Scheme: id.Scheme, Value: id.Value})
	}
	var tracking []signalingTrack
	for _, tr := range lc.Tracking {
		tracking = append(tracking, signalingTrack{Type: tr.Event, Offset: tr.Offset, URLs: tr.URLs})
	}
	b.assets = append(b.assets, asset{
		URI:       uri,
		DurationS: lc.Duration,
		Signaling: adCreativeSignaling{
			Version: 2,
			Type:    "slot",
			Payload: signalingPayload{
				Type:        "linear",
				Start:       &start,
				DurationS:   lc.Duration,
				Identifiers: ids,
				Tracking:    tracking,
			},
		},
	})
}

func (b *assetListBuilder) followUpURL(adID uuid.UUID) string {
	q := url.Values{}
	q.Set("_HLS_interstitial_id", b.slotName)
	q.Set("_HLS_primary_id", b.sessionID)
	q.Set("_ad_id", adID.String())
	return fmt.Sprintf("%s/interstitials.m3u8?%s", b.base, q.Encode())
}

func (b *assetListBuilder) build() assetList {
	assets := b.assets
	if assets == nil {
		assets = []asset{}
	}
	return assetList{
		Assets: assets,
		PodSignaling: adCreativeSignaling{
			Version: 2,
			Type:    "pod",
			Payload: signalingPayload{DurationS: b.offsetS},
		},
	}
}

// buildAssetList projects the VAST document and emits raw creatives
// first, then transcoded ones.
func buildAssetList(doc *vast.Document, base, slotName, sessionID string, ads *AdRegistry) assetList {
	b := newAssetListBuilder(base, slotName, sessionID, ads)
	for _, lc := range doc.RawLinears() {
		b.addRaw(lc)
	}
	for _, lc := range doc.TranscodedLinears() {
		b.addTranscoded(lc)
	}
	return b.build()
}

// buildTestAssetList returns the canned single-asset list, routed
// through the follow-up builder so the raw-creative path is exercised
// without an ad server.
func buildTestAssetList(base, slotName, sessionID string, ads *AdRegistry) assetList {
	b := newAssetListBuilder(base, slotName, sessionID, ads)
	b.addRaw(vast.LinearCreative{
		Duration:  testAssetDurationS,
		MediaURLs: []string{testAssetMediaURL},
		AdIDs:     []vast.AdID{{Scheme: "test", Value: "bigbuckbunny"}},
	})
	return b.build()
}
