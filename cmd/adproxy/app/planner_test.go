// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Eyevinn/hls-m3u8/m3u8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeMedia(t *testing.T, text string) *m3u8.MediaPlaylist {
	t.Helper()
	pl, listType, err := m3u8.DecodeFrom(strings.NewReader(text), true)
	require.NoError(t, err)
	require.Equal(t, m3u8.MEDIA, listType)
	return pl.(*m3u8.MediaPlaylist)
}

// mediaFixture builds a playlist of nrSegs 6-second segments. pdt is
// placed on the first segment when non-empty.
func mediaFixture(vod bool, pdt string, nrSegs int) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:6\n#EXT-X-MEDIA-SEQUENCE:0\n")
	if vod {
		b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")
	}
	for i := 0; i < nrSegs; i++ {
		if i == 0 && pdt != "" {
			fmt.Fprintf(&b, "#EXT-X-PROGRAM-DATE-TIME:%s\n", pdt)
		}
		fmt.Fprintf(&b, "#EXTINF:6.000,\nseg%d.ts\n", i)
	}
	if vod {
		b.WriteString("#EXT-X-ENDLIST\n")
	}
	return b.String()
}

func testPlannerConfig(mode string) *ServerConfig {
	return &ServerConfig{
		AdInsertionMode:      mode,
		AdDurationS:          10,
		AdCycleS:             30,
		AdNumber:             10,
		InterstitialsAddress: "http://localhost:8080",
	}
}

func TestPlanStaticVOD(t *testing.T) {
	cfg := testPlannerConfig(ModeStatic)
	slots := NewSlotRegistry()
	p := newBreakPlanner(cfg, slots, time.Now())

	pl := decodeMedia(t, mediaFixture(true, "2024-01-01T00:00:00.000Z", 12))
	attached := p.Plan(pl)
	require.Equal(t, 2, attached)
	require.Equal(t, 9, slots.Len())

	// Slots at +30s and +60s land on the segments starting at 30s and 60s.
	segs := pl.GetAllSegments()
	for i, seg := range segs {
		if i == 5 || i == 10 {
			require.NotNil(t, seg.Custom, "segment %d should carry a cue", i)
		} else {
			require.Nil(t, seg.Custom, "segment %d should not carry a cue", i)
		}
	}

	out := pl.Encode().String()
	assert.Contains(t, out,
		`#EXT-X-DATERANGE:ID="ad_slot1",CLASS="com.apple.hls.interstitial",`+
			`START-DATE="2024-01-01T00:00:30.000Z",DURATION=10,`+
			`X-ASSET-LIST="http://localhost:8080/interstitials.m3u8?_HLS_interstitial_id=ad_slot1",`+
			`X-SNAP="IN,OUT",X-RESTRICT="SKIP,JUMP",X-RESUME-OFFSET=0.0`)
	assert.Contains(t, out, `ID="ad_slot2"`)
	assert.Contains(t, out, `START-DATE="2024-01-01T00:01:00.000Z"`)
}

func TestPlanIdempotent(t *testing.T) {
	cfg := testPlannerConfig(ModeStatic)
	slots := NewSlotRegistry()
	p := newBreakPlanner(cfg, slots, time.Now())

	pl := decodeMedia(t, mediaFixture(true, "2024-01-01T00:00:00.000Z", 12))
	p.Plan(pl)
	first := pl.Encode().String()
	p.Plan(pl)
	second := pl.Encode().String()
	require.Equal(t, first, second)
}

func TestPlanLiveWithoutPDT(t *testing.T) {
	cfg := testPlannerConfig(ModeStatic)
	slots := NewSlotRegistry()
	p := newBreakPlanner(cfg, slots, time.Now())

	pl := decodeMedia(t, mediaFixture(false, "", 10))
	attached := p.Plan(pl)
	require.Equal(t, 0, attached)
	require.Equal(t, 0, slots.Len(), "no slots should be generated without an anchor")
	assert.NotContains(t, pl.Encode().String(), "#EXT-X-DATERANGE")
}

func TestPlanVODDynamicIsUnsupported(t *testing.T) {
	cfg := testPlannerConfig(ModeDynamic)
	slots := NewSlotRegistry()
	slots.InsertNew(time.Date(2024, 1, 1, 0, 0, 30, 0, time.UTC), 15, 3)
	p := newBreakPlanner(cfg, slots, time.Now())

	pl := decodeMedia(t, mediaFixture(true, "2024-01-01T00:00:00.000Z", 10))
	attached := p.Plan(pl)
	require.Equal(t, 0, attached)
	assert.NotContains(t, pl.Encode().String(), "#EXT-X-DATERANGE")
}

func TestPlanLiveStaticAnchorsAtServerStart(t *testing.T) {
	serverStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := testPlannerConfig(ModeStatic)
	slots := NewSlotRegistry()
	p := newBreakPlanner(cfg, slots, serverStart)

	pl := decodeMedia(t, mediaFixture(false, "2024-01-01T00:00:00.000Z", 12))
	attached := p.Plan(pl)
	require.Equal(t, 2, attached)

	out := pl.Encode().String()
	assert.Contains(t, out, `ID="ad_slot1"`)
	// Live breaks resume at the live edge.
	assert.NotContains(t, out, "X-RESUME-OFFSET")
}

func TestPlanVODWithoutPDTSynthesisesAnchor(t *testing.T) {
	serverStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := testPlannerConfig(ModeStatic)
	slots := NewSlotRegistry()
	p := newBreakPlanner(cfg, slots, serverStart)

	pl := decodeMedia(t, mediaFixture(true, "", 12))
	attached := p.Plan(pl)
	require.Equal(t, 2, attached)

	segs := pl.GetAllSegments()
	require.True(t, segs[0].ProgramDateTime.Equal(serverStart))
	assert.Contains(t, pl.Encode().String(), "#EXT-X-PROGRAM-DATE-TIME:")
}

func TestPlanAttachesPDTOnDiscontinuity(t *testing.T) {
	fixture := "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:6\n#EXT-X-MEDIA-SEQUENCE:0\n" +
		"#EXT-X-PLAYLIST-TYPE:VOD\n" +
		"#EXT-X-PROGRAM-DATE-TIME:2024-01-01T00:00:00.000Z\n" +
		"#EXTINF:6.000,\nseg0.ts\n" +
		"#EXTINF:6.000,\nseg1.ts\n" +
		"#EXTINF:6.000,\nseg2.ts\n" +
		"#EXT-X-DISCONTINUITY\n" +
		"#EXTINF:6.000,\nseg3.ts\n" +
		"#EXT-X-ENDLIST\n"
	cfg := testPlannerConfig(ModeStatic)
	slots := NewSlotRegistry()
	p := newBreakPlanner(cfg, slots, time.Now())

	pl := decodeMedia(t, fixture)
	p.Plan(pl)

	segs := pl.GetAllSegments()
	want := time.Date(2024, 1, 1, 0, 0, 18, 0, time.UTC)
	require.True(t, segs[3].ProgramDateTime.Equal(want),
		"discontinuity segment should get the inferred date time, got %s", segs[3].ProgramDateTime)
}
