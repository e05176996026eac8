// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlstools/adproxy/pkg/vast"
)

const vastResponseFixture = `<?xml version="1.0" encoding="UTF-8"?>
<VAST version="4.2">
  <Ad id="pod">
    <InLine>
      <AdSystem>testsrv</AdSystem>
      <AdTitle>pod of three</AdTitle>
      <Creatives>
        <Creative id="c1" adId="adid-1">
          <UniversalAdId idRegistry="Ad-ID"><![CDATA[AAAA0001]]></UniversalAdId>
          <Linear>
            <Duration>00:00:08</Duration>
            <TrackingEvents>
              <Tracking event="start"><![CDATA[https://track.example.com/c1/start]]></Tracking>
            </TrackingEvents>
            <MediaFiles>
              <MediaFile delivery="progressive" type="video/mp4">
                <![CDATA[https://cdn.example.com/ads/first.mp4]]>
              </MediaFile>
            </MediaFiles>
          </Linear>
        </Creative>
        <Creative id="c2" adId="adid-2">
          <Linear>
            <Duration>00:00:10</Duration>
            <MediaFiles>
              <MediaFile delivery="streaming" type="application/x-mpegURL">
                <![CDATA[https://cdn.example.com/ads/second/index.m3u8]]>
              </MediaFile>
            </MediaFiles>
          </Linear>
        </Creative>
        <Creative id="c3" adId="adid-3">
          <Linear>
            <Duration>00:00:06</Duration>
            <MediaFiles>
              <MediaFile delivery="progressive" type="video/mp4">
                <![CDATA[https://cdn.example.com/ads/third.mp4]]>
              </MediaFile>
            </MediaFiles>
          </Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
</VAST>`

// Raw creatives come first with proxy follow-up URIs, then transcoded
// ones pointing at their own HLS playlists.
func TestBuildAssetListMixedCreatives(t *testing.T) {
	doc, err := vast.Parse([]byte(vastResponseFixture))
	require.NoError(t, err)

	ads := NewAdRegistry()
	list := buildAssetList(doc, "http://localhost:8080", "ad_slot1", "session-1", ads)

	require.Len(t, list.Assets, 3)
	require.Equal(t, 2, ads.Len())

	starts := []float64{0, 8, 14}
	durations := []float64{8, 6, 10}
	for i, a := range list.Assets {
		require.NotNil(t, a.Signaling.Payload.Start, "asset %d", i)
		assert.Equal(t, starts[i], *a.Signaling.Payload.Start, "asset %d start", i)
		assert.Equal(t, durations[i], a.DurationS, "asset %d duration", i)
		assert.Equal(t, "slot", a.Signaling.Type)
		assert.Equal(t, 2, a.Signaling.Version)
		assert.Equal(t, "linear", a.Signaling.Payload.Type)
	}

	// Every synthesised follow-up URI must resolve in the ad registry.
	for _, a := range list.Assets[:2] {
		require.True(t, strings.HasPrefix(a.URI, "http://localhost:8080/interstitials.m3u8?"))
		u, err := url.Parse(a.URI)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, "ad_slot1", q.Get("_HLS_interstitial_id"))
		assert.Equal(t, "session-1", q.Get("_HLS_primary_id"))
		adID, err := uuid.Parse(q.Get("_ad_id"))
		require.NoError(t, err)
		_, ok := ads.Get(adID)
		require.True(t, ok)
	}
	assert.Equal(t, "https://cdn.example.com/ads/second/index.m3u8", list.Assets[2].URI)

	assert.Equal(t, "pod", list.PodSignaling.Type)
	assert.Equal(t, 24.0, list.PodSignaling.Payload.DurationS)

	// The registered ads carry the creative metadata for follow-up playback.
	for _, ad := range ads.Snapshot() {
		assert.Contains(t, []string{
			"https://cdn.example.com/ads/first.mp4",
			"https://cdn.example.com/ads/third.mp4",
		}, ad.MediaURL)
	}
}

func TestBuildAssetListEmptyVAST(t *testing.T) {
	ads := NewAdRegistry()
	list := buildAssetList(&vast.Document{}, "http://localhost:8080", "ad_slot1", "s", ads)
	require.NotNil(t, list.Assets)
	require.Empty(t, list.Assets)
	assert.Equal(t, 0.0, list.PodSignaling.Payload.DurationS)
	assert.Equal(t, 0, ads.Len())
}

func TestBuildTestAssetList(t *testing.T) {
	ads := NewAdRegistry()
	list := buildTestAssetList("http://localhost:8080", "ad_slot1", "s", ads)
	require.Len(t, list.Assets, 1)
	require.Equal(t, 1, ads.Len())
	assert.Equal(t, testAssetDurationS, list.Assets[0].DurationS)
	assert.Contains(t, list.Assets[0].URI, "_ad_id=")
}
