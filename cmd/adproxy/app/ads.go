// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hlstools/adproxy/pkg/vast"
)

// Ad is one resolved creative. Each asset-list resolution mints a fresh
// ID even for the same creative, so follow-up tokens are one-shot.
type Ad struct {
	AdIDs      []vast.AdID          `json:"adIds"`
	DurationS  float64              `json:"duration"`
	MediaURL   string               `json:"mediaUrl"`
	ResolvedAt time.Time            `json:"resolvedAt"`
	Tracking   []vast.TrackingEvent `json:"tracking"`
}

// AdRegistry maps ephemeral ad IDs to resolved creatives. Entries are
// written during asset-list resolution and read on follow-up playlist
// fetch. There is no eviction; the leak is bounded by process uptime.
type AdRegistry struct {
	mu  sync.RWMutex
	ads map[uuid.UUID]Ad
}

func NewAdRegistry() *AdRegistry {
	return &AdRegistry{
		ads: make(map[uuid.UUID]Ad),
	}
}

func (r *AdRegistry) Insert(id uuid.UUID, ad Ad) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ads[id] = ad
}

func (r *AdRegistry) Get(id uuid.UUID) (Ad, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ad, ok := r.ads[id]
	return ad, ok
}

func (r *AdRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ads)
}

// Snapshot returns a copy keyed by string for introspection.
func (r *AdRegistry) Snapshot() map[string]Ad {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Ad, len(r.ads))
	for id, ad := range r.ads {
		out[id.String()] = ad
	}
	return out
}
