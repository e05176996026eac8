// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AdSlot is one scheduled ad break. The player addresses it by Name(),
// so Index must be unique within the registry.
type AdSlot struct {
	ID        uuid.UUID `json:"id"`
	Index     int       `json:"index"`
	StartTime time.Time `json:"startTime"`
	DurationS float64   `json:"duration"`
	PodNum    int       `json:"podNum"`
}

// Name returns the slot name echoed by the player in _HLS_interstitial_id.
func (s AdSlot) Name() string {
	return fmt.Sprintf("ad_slot%d", s.Index)
}

// slotKey is the value identity of a slot. The random ID is excluded so
// that two generations of the same schedule deduplicate.
type slotKey struct {
	index       int
	startUnixMS int64
	durationMS  int64
	podNum      int
}

func keyOf(s AdSlot) slotKey {
	return slotKey{
		index:       s.Index,
		startUnixMS: s.StartTime.UnixMilli(),
		durationMS:  int64(s.DurationS * 1000),
		podNum:      s.PodNum,
	}
}

// SlotRegistry is a concurrent set of ad slots. Insertion is
// idempotent by value, and static population happens at most once.
type SlotRegistry struct {
	mu        sync.RWMutex
	slots     []AdSlot
	keys      map[slotKey]struct{}
	populated bool
}

func NewSlotRegistry() *SlotRegistry {
	return &SlotRegistry{
		keys: make(map[slotKey]struct{}),
	}
}

// insertLocked adds the slot unless an equal-valued one is present.
func (r *SlotRegistry) insertLocked(slot AdSlot) bool {
	key := keyOf(slot)
	if _, ok := r.keys[key]; ok {
		return false
	}
	r.keys[key] = struct{}{}
	r.slots = append(r.slots, slot)
	return true
}

// Insert adds a slot with value-level deduplication.
func (r *SlotRegistry) Insert(slot AdSlot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(slot)
}

// InsertNew mints a slot with the next free index and adds it.
// Used by the dynamic command endpoint.
func (r *SlotRegistry) InsertNew(start time.Time, durationS float64, podNum int) AdSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot := AdSlot{
		ID:        uuid.New(),
		Index:     len(r.slots),
		StartTime: start,
		DurationS: durationS,
		PodNum:    podNum,
	}
	r.insertLocked(slot)
	return slot
}

// PopulateStatic generates the static slot schedule once. Slot i for
// i in [1, count) starts at anchor + i*cycle with the default duration
// and a pod count of 2. Later calls are no-ops.
func (r *SlotRegistry) PopulateStatic(anchor time.Time, count, cycleS, durationS int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.populated {
		return false
	}
	r.populated = true
	if cycleS < durationS {
		slog.Warn("ad cycle shorter than ad duration, slots will overlap",
			"cycleS", cycleS, "durationS", durationS)
	}
	for i := 1; i < count; i++ {
		slot := AdSlot{
			ID:        uuid.New(),
			Index:     i,
			StartTime: anchor.Add(time.Duration(i*cycleS) * time.Second),
			DurationS: float64(durationS),
			PodNum:    2,
		}
		r.insertLocked(slot)
	}
	return true
}

// Snapshot returns the slots in insertion order.
func (r *SlotRegistry) Snapshot() []AdSlot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]AdSlot, len(r.slots))
	copy(out, r.slots)
	return out
}

// ByName looks up a slot by its player-facing name.
func (r *SlotRegistry) ByName(name string) (AdSlot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.slots {
		if s.Name() == name {
			return s, true
		}
	}
	return AdSlot{}, false
}

// Len returns the number of slots.
func (r *SlotRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}
