// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"bytes"
	"strconv"

	"github.com/Eyevinn/hls-m3u8/m3u8"
)

const (
	interstitialClass = "com.apple.hls.interstitial"
	cueTagName        = "#EXT-X-DATERANGE:"
	// cueDateLayout renders START-DATE in UTC with millisecond precision.
	cueDateLayout = "2006-01-02T15:04:05.000Z07:00"
)

// interstitialCue is the EXT-X-DATERANGE tag attached to a segment that
// opens an ad break. It implements m3u8.CustomTag so the playlist
// encoder writes it directly before the segment's EXTINF line.
type interstitialCue struct {
	slot         AdSlot
	assetListURL string
	// resumeOffset adds X-RESUME-OFFSET=0.0. Set for VOD only, so live
	// players resume at the live edge instead.
	resumeOffset bool
}

func (c interstitialCue) TagName() string {
	return cueTagName
}

func (c interstitialCue) Encode() *bytes.Buffer {
	buf := &bytes.Buffer{}
	buf.WriteString(cueTagName)
	buf.WriteString(`ID="`)
	buf.WriteString(c.slot.Name())
	buf.WriteString(`",CLASS="`)
	buf.WriteString(interstitialClass)
	buf.WriteString(`",START-DATE="`)
	buf.WriteString(c.slot.StartTime.UTC().Format(cueDateLayout))
	buf.WriteString(`",DURATION=`)
	buf.WriteString(strconv.FormatFloat(c.slot.DurationS, 'f', -1, 64))
	buf.WriteString(`,X-ASSET-LIST="`)
	buf.WriteString(c.assetListURL)
	buf.WriteString(`",X-SNAP="IN,OUT",X-RESTRICT="SKIP,JUMP"`)
	if c.resumeOffset {
		buf.WriteString(`,X-RESUME-OFFSET=0.0`)
	}
	return buf
}

func (c interstitialCue) String() string {
	return c.Encode().String()
}

// attachCue places the cue on the segment, replacing any earlier cue so
// that re-planning the same playlist is idempotent.
func attachCue(seg *m3u8.MediaSegment, cue interstitialCue) {
	if seg.Custom == nil {
		seg.Custom = make(m3u8.CustomMap, 1)
	}
	seg.Custom[cue.TagName()] = cue
}
