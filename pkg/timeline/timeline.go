// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package timeline maps HLS media segments to wall-clock time.
//
// HLS anchors segments to absolute time with EXT-X-PROGRAM-DATE-TIME tags,
// but most segments carry no tag of their own. Infer fills the gaps by
// accumulating segment durations from the most recent anchor.
package timeline

import (
	"fmt"
	"time"
)

// explicitOffsetLayout covers date strings like 2024-01-01T10:00:00.000+0100
// that are neither RFC 3339 (no colon in the zone) nor RFC 2822.
const explicitOffsetLayout = "2006-01-02T15:04:05.000-0700"

// ParseWallClock parses a wall-clock string as RFC 3339, RFC 2822, or
// an explicit YYYY-MM-DDTHH:MM:SS.sss±HHMM pattern, tried in that order.
// The returned instant keeps its fixed offset.
func ParseWallClock(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC1123Z, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(explicitOffsetLayout, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse wall-clock time %q", s)
}

// Segment is one media segment as seen by the inference step.
// DateTime is the segment's explicit program date time, or the zero
// value if the segment carries none.
type Segment struct {
	DateTime time.Time
	Duration time.Duration
}

// Point is the inferred placement of one segment on the wall clock.
type Point struct {
	Start    time.Time
	Duration time.Duration
}

// Infer returns the expected start instant for every segment.
//
// A segment with an explicit date time resets the running anchor to that
// tag and restarts the accumulator at the segment's own duration. All other
// segments start at anchor plus the accumulated duration so far. The
// accumulator is kept in whole milliseconds so that float durations from
// EXTINF do not drift over long playlists.
func Infer(anchor time.Time, segments []Segment) []Point {
	points := make([]Point, 0, len(segments))
	accumulatedMS := int64(0)
	for _, seg := range segments {
		if !seg.DateTime.IsZero() {
			anchor = seg.DateTime
			accumulatedMS = seg.Duration.Milliseconds()
			points = append(points, Point{Start: seg.DateTime, Duration: seg.Duration})
			continue
		}
		start := anchor.Add(time.Duration(accumulatedMS) * time.Millisecond)
		accumulatedMS += seg.Duration.Milliseconds()
		points = append(points, Point{Start: start, Duration: seg.Duration})
	}
	return points
}
