// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotName(t *testing.T) {
	slot := AdSlot{Index: 7}
	assert.Equal(t, "ad_slot7", slot.Name())
}

func TestPopulateStaticOnce(t *testing.T) {
	r := NewSlotRegistry()
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := r.PopulateStatic(anchor, 10, 30, 13)
	require.True(t, first)
	require.Equal(t, 9, r.Len())

	slots := r.Snapshot()
	for i, slot := range slots {
		assert.Equal(t, i+1, slot.Index)
		assert.Equal(t, anchor.Add(time.Duration((i+1)*30)*time.Second), slot.StartTime)
		assert.Equal(t, 13.0, slot.DurationS)
		assert.Equal(t, 2, slot.PodNum)
	}

	// A second population attempt must be a no-op, even with another anchor.
	again := r.PopulateStatic(anchor.Add(time.Hour), 10, 30, 13)
	require.False(t, again)
	require.Equal(t, 9, r.Len())
}

// Equal-valued slots deduplicate even though their random IDs differ.
func TestInsertValueDedup(t *testing.T) {
	r := NewSlotRegistry()
	start := time.Date(2024, 1, 1, 0, 0, 30, 0, time.UTC)

	ok := r.Insert(AdSlot{ID: uuid.New(), Index: 1, StartTime: start, DurationS: 10, PodNum: 2})
	require.True(t, ok)
	ok = r.Insert(AdSlot{ID: uuid.New(), Index: 1, StartTime: start, DurationS: 10, PodNum: 2})
	require.False(t, ok)
	require.Equal(t, 1, r.Len())
}

func TestInsertNewIndices(t *testing.T) {
	r := NewSlotRegistry()
	now := time.Now()

	s0 := r.InsertNew(now.Add(20*time.Second), 15, 3)
	s1 := r.InsertNew(now.Add(50*time.Second), 10, 2)
	assert.Equal(t, 0, s0.Index)
	assert.Equal(t, 1, s1.Index)
	assert.Equal(t, "ad_slot0", s0.Name())

	got, ok := r.ByName("ad_slot1")
	require.True(t, ok)
	assert.Equal(t, s1.ID, got.ID)

	_, ok = r.ByName("ad_slot99")
	require.False(t, ok)
}
