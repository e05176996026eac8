// Copyright 2024, hlstools. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package app

import (
	"sync"

	"github.com/google/uuid"
)

// SessionStore maps playback-session UUIDs to the raw query string the
// player supplied on its master-playlist request. The query is replayed
// on every ad-server call made for that session.
type SessionStore struct {
	mu      sync.RWMutex
	queries map[uuid.UUID]string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		queries: make(map[uuid.UUID]string),
	}
}

func (s *SessionStore) Put(id uuid.UUID, rawQuery string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries[id] = rawQuery
}

func (s *SessionStore) Get(id uuid.UUID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.queries[id]
	return q, ok
}

// Snapshot returns a copy keyed by string for introspection.
func (s *SessionStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.queries))
	for id, q := range s.queries {
		out[id.String()] = q
	}
	return out
}
