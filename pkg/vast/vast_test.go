// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package vast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vastFixture = `<?xml version="1.0" encoding="UTF-8"?>
<VAST version="4.2" xmlns="http://www.iab.com/VAST">
  <Ad id="ad-1">
    <InLine>
      <AdSystem>testsrv</AdSystem>
      <AdTitle>raw mp4 spot</AdTitle>
      <Creatives>
        <Creative id="c1" adId="adid-1">
          <UniversalAdId idRegistry="Ad-ID"><![CDATA[AAAA0001]]></UniversalAdId>
          <Linear>
            <Duration>00:00:08</Duration>
            <TrackingEvents>
              <Tracking event="start"><![CDATA[https://track.example.com/start]]></Tracking>
              <Tracking event="progress" offset="00:00:02"><![CDATA[https://track.example.com/p2]]></Tracking>
            </TrackingEvents>
            <MediaFiles>
              <MediaFile delivery="progressive" type="video/mp4" width="1280" height="720">
                <![CDATA[https://cdn.example.com/ads/spot1.mp4]]>
              </MediaFile>
            </MediaFiles>
          </Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
  <Ad id="ad-2">
    <InLine>
      <AdSystem>testsrv</AdSystem>
      <AdTitle>transcoded spot</AdTitle>
      <Creatives>
        <Creative id="c2" adId="adid-2">
          <Linear>
            <Duration>00:00:10.000</Duration>
            <MediaFiles>
              <MediaFile delivery="streaming" type="application/x-mpegURL">
                <![CDATA[https://cdn.example.com/ads/spot2/index.m3u8]]>
              </MediaFile>
            </MediaFiles>
          </Linear>
        </Creative>
        <Creative id="c3" adId="adid-3">
          <Linear>
            <Duration>00:00:06</Duration>
            <MediaFiles>
              <MediaFile delivery="progressive" type="video/webm">
                <![CDATA[https://cdn.example.com/bumpers/bumper.webm]]>
              </MediaFile>
            </MediaFiles>
          </Linear>
        </Creative>
        <Creative id="c4">
          <Linear>
            <Duration>00:00:05</Duration>
            <MediaFiles>
              <MediaFile delivery="progressive" type="video/mp4">
                <![CDATA[https://cdn.example.com/ads/noadid.mp4]]>
              </MediaFile>
            </MediaFiles>
          </Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
</VAST>`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(vastFixture))
	require.NoError(t, err)
	assert.Equal(t, "4.2", doc.Version)
	require.Len(t, doc.Ads, 2)
	require.NotNil(t, doc.Ads[0].InLine)
	assert.Equal(t, "raw mp4 spot", doc.Ads[0].InLine.AdTitle)
}

func TestParseBadXML(t *testing.T) {
	_, err := Parse([]byte("this is not XML <VAST"))
	require.Error(t, err)
}

func TestRawLinears(t *testing.T) {
	doc, err := Parse([]byte(vastFixture))
	require.NoError(t, err)

	raw := doc.RawLinears()
	require.Len(t, raw, 1)
	lc := raw[0]
	assert.Equal(t, 8.0, lc.Duration)
	require.Len(t, lc.MediaURLs, 1)
	assert.Equal(t, "https://cdn.example.com/ads/spot1.mp4", lc.MediaURLs[0])
	require.Len(t, lc.AdIDs, 1)
	assert.Equal(t, AdID{Scheme: "Ad-ID", Value: "AAAA0001"}, lc.AdIDs[0])
	require.Len(t, lc.Tracking, 2)
	assert.Equal(t, "start", lc.Tracking[0].Event)
	assert.Equal(t, []string{"https://track.example.com/start"}, lc.Tracking[0].URLs)
	assert.Equal(t, "00:00:02", lc.Tracking[1].Offset)
}

// Creatives matching neither shape (the webm bumper) and creatives without
// an ad id are discarded by both projections.
func TestLinearFilters(t *testing.T) {
	doc, err := Parse([]byte(vastFixture))
	require.NoError(t, err)

	transcoded := doc.TranscodedLinears()
	require.Len(t, transcoded, 1)
	assert.Equal(t, 10.0, transcoded[0].Duration)
	assert.Equal(t, "https://cdn.example.com/ads/spot2/index.m3u8", transcoded[0].MediaURLs[0])

	for _, lc := range doc.RawLinears() {
		assert.True(t, IsRawMediaPath(lc.MediaURLs[0]))
	}
	for _, lc := range transcoded {
		assert.True(t, IsTranscodedMediaPath(lc.MediaURLs[0]))
	}
}

func TestIsRawMediaPath(t *testing.T) {
	assert.True(t, IsRawMediaPath("/ads/a.ts"))
	assert.True(t, IsRawMediaPath("/ads/a.cmfv"))
	assert.True(t, IsRawMediaPath("/ads/a.mp4"))
	assert.True(t, IsRawMediaPath("/ads/a.m4s"))
	assert.False(t, IsRawMediaPath("/ads/a.webm"))
	assert.False(t, IsRawMediaPath("/ads/index.m3u8"))
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "00:00:08", want: 8},
		{in: "00:01:30.500", want: 90.5},
		{in: "01:00:00", want: 3600},
		{in: "", want: 0},
		{in: "90", wantErr: true},
		{in: "aa:bb:cc", wantErr: true},
	}
	for _, c := range cases {
		got, err := ParseDuration(c.in)
		if c.wantErr {
			assert.Error(t, err, c.in)
			continue
		}
		assert.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}
