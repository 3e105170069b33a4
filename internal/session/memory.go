package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      Data
	expiresAt time.Time
}

// MemoryStore implements an in-memory session store with per-entry expiry.
type MemoryStore struct {
	ttl   time.Duration
	nowFn func() time.Time

	mu       sync.Mutex
	sessions map[string]*memoryEntry
}

// NewMemoryStore constructs a MemoryStore with default dependencies when nil.
func NewMemoryStore(ttl time.Duration, nowFn func() time.Time) *MemoryStore {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &MemoryStore{
		ttl:      ttl,
		nowFn:    nowFn,
		sessions: make(map[string]*memoryEntry),
	}
}

// Get returns the session state for the id, if present and not expired.
func (s *MemoryStore) Get(_ context.Context, id string) (Data, bool, error) {
	if id == "" {
		return Data{}, false, nil
	}
	now := s.nowFn()

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.lockedLookup(id, now)
	if entry == nil {
		return Data{}, false, nil
	}
	return entry.data, true, nil
}

// Put stores the session state for the id, refreshing its expiry.
func (s *MemoryStore) Put(_ context.Context, id string, data Data) error {
	if id == "" {
		return ErrNotFound
	}
	now := s.nowFn()

	s.mu.Lock()
	s.sessions[id] = &memoryEntry{data: data, expiresAt: now.Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

// Delete removes the session state for the id. Deleting an absent id is a no-op.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// BeginAnalysis atomically checks the cooldown and records the new start
// timestamp when the gate is open.
func (s *MemoryStore) BeginAnalysis(_ context.Context, id string, nowMS, windowMS int64) (BeginResult, error) {
	if id == "" {
		return BeginResult{}, ErrNotFound
	}
	now := s.nowFn()

	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.lockedLookup(id, now)
	if entry == nil {
		return BeginResult{}, ErrNotFound
	}
	if last := entry.data.AnalysisStartedAtMS; last > 0 && last+windowMS > nowMS {
		return BeginResult{Allowed: false, BlockedUntil: last + windowMS}, nil
	}
	entry.data.AnalysisStartedAtMS = nowMS
	return BeginResult{Allowed: true, BlockedUntil: nowMS + windowMS}, nil
}

// lockedLookup returns the live entry for the id, dropping it when expired.
// Callers must hold s.mu.
func (s *MemoryStore) lockedLookup(id string, now time.Time) *memoryEntry {
	entry := s.sessions[id]
	if entry == nil {
		return nil
	}
	if s.ttl > 0 && now.After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil
	}
	return entry
}
