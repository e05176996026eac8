// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Eyevinn/hls-m3u8/m3u8"

	"github.com/hlstools/adproxy/pkg/timeline"
)

// breakPlanner rewrites media playlists by attaching interstitial cue
// tags where pending ad slots fall on segment boundaries.
type breakPlanner struct {
	mode          string
	serverStart   time.Time
	assetListBase string
	durationS     int
	cycleS        int
	slotCount     int
	slots         *SlotRegistry
}

func newBreakPlanner(cfg *ServerConfig, slots *SlotRegistry, serverStart time.Time) *breakPlanner {
	return &breakPlanner{
		mode:          cfg.AdInsertionMode,
		serverStart:   serverStart,
		assetListBase: strings.TrimSuffix(cfg.InterstitialsAddress, "/"),
		durationS:     cfg.AdDurationS,
		cycleS:        cfg.AdCycleS,
		slotCount:     cfg.AdNumber,
		slots:         slots,
	}
}

// Plan mutates the playlist in place and returns the number of cue tags
// attached. VOD playlists with dynamic mode are left unchanged, as are
// live playlists without any program date time.
func (p *breakPlanner) Plan(pl *m3u8.MediaPlaylist) int {
	isVOD := pl.MediaType == m3u8.VOD
	if isVOD && p.mode == ModeDynamic {
		slog.Error("dynamic ad insertion cannot target a VOD playlist, skipping")
		return 0
	}
	segs := pl.GetAllSegments()
	if len(segs) == 0 {
		return 0
	}

	firstPDT := time.Time{}
	for _, seg := range segs {
		if !seg.ProgramDateTime.IsZero() {
			firstPDT = seg.ProgramDateTime
			break
		}
	}
	if firstPDT.IsZero() {
		if !isVOD {
			// Without an anchor a live stream cannot place breaks.
			return 0
		}
		segs[0].ProgramDateTime = p.serverStart
		firstPDT = p.serverStart
		pl.ResetCache()
	}

	if p.mode == ModeStatic {
		anchor := p.serverStart
		if isVOD {
			anchor = firstPDT
		}
		p.slots.PopulateStatic(anchor, p.slotCount, p.cycleS, p.durationS)
	}
	slots := p.slots.Snapshot()

	tsegs := make([]timeline.Segment, len(segs))
	for i, seg := range segs {
		tsegs[i] = timeline.Segment{
			DateTime: seg.ProgramDateTime,
			Duration: time.Duration(seg.Duration * float64(time.Second)),
		}
	}
	points := timeline.Infer(firstPDT, tsegs)

	// Players need a date time to re-anchor playback across a
	// discontinuity, so attach the inferred one where missing.
	for i, seg := range segs {
		if seg.Discontinuity && seg.ProgramDateTime.IsZero() {
			seg.ProgramDateTime = points[i].Start
			pl.ResetCache()
		}
	}

	attached := 0
	used := make(map[int]bool)
	for i, seg := range segs {
		end := points[i].Start.Add(points[i].Duration)
		for _, slot := range slots {
			if used[slot.Index] {
				continue
			}
			if slot.StartTime.Before(points[i].Start) || !slot.StartTime.Before(end) {
				continue
			}
			attachCue(seg, interstitialCue{
				slot:         slot,
				assetListURL: p.assetListURL(slot),
				resumeOffset: isVOD,
			})
			used[slot.Index] = true
			attached++
			break
		}
	}
	if attached > 0 {
		pl.ResetCache()
	}
	return attached
}

func (p *breakPlanner) assetListURL(slot AdSlot) string {
	return fmt.Sprintf("%s/interstitials.m3u8?_HLS_interstitial_id=%s", p.assetListBase, slot.Name())
}
