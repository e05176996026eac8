// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"

	"github.com/Eyevinn/hls-m3u8/m3u8"
)

// buildFollowUpPlaylist synthesises the one-segment VOD playlist that
// wraps a raw MP4 creative so an HLS player can play it inline.
func buildFollowUpPlaylist(ad Ad) (*m3u8.MediaPlaylist, error) {
	pl, err := m3u8.NewMediaPlaylist(0, 1)
	if err != nil {
		return nil, fmt.Errorf("new media playlist: %w", err)
	}
	if err := pl.Append(ad.MediaURL, ad.DurationS, ""); err != nil {
		return nil, fmt.Errorf("append creative segment: %w", err)
	}
	pl.MediaType = m3u8.VOD
	pl.Close()
	return pl, nil
}
