package journal

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wonny/tradejournal/internal/calendar"
	"github.com/wonny/tradejournal/internal/contracts"
	"github.com/wonny/tradejournal/internal/normalizer"
)

// MemoryStore is an in-process Store (offline CLI runs, handler tests)
type MemoryStore struct {
	mu        sync.RWMutex
	trades    map[string]map[string]normalizer.RawTrade // user → trade id → row
	order     map[string][]string                       // insertion order per user
	patterns  map[string][]contracts.DetectedPattern
	snapshots map[string]map[string]Snapshot // user → day → snapshot
	holidays  map[string]map[string]calendar.Holiday
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		trades:    make(map[string]map[string]normalizer.RawTrade),
		order:     make(map[string][]string),
		patterns:  make(map[string][]contracts.DetectedPattern),
		snapshots: make(map[string]map[string]Snapshot),
		holidays:  make(map[string]map[string]calendar.Holiday),
	}
}

func (s *MemoryStore) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.trades))
	for id := range s.trades {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) GetRawTrades(_ context.Context, userID string) ([]normalizer.RawTrade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.trades[userID]
	if !ok || len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	out := make([]normalizer.RawTrade, 0, len(rows))
	for _, id := range s.order[userID] {
		out = append(out, rows[id])
	}
	return out, nil
}

func (s *MemoryStore) InsertTrades(_ context.Context, userID string, rows []normalizer.RawTrade) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.trades[userID] == nil {
		s.trades[userID] = make(map[string]normalizer.RawTrade)
	}
	for _, row := range rows {
		stored, id := row.EnsureID()
		if _, exists := s.trades[userID][id]; !exists {
			s.order[userID] = append(s.order[userID], id)
		}
		s.trades[userID][id] = stored
	}
	return len(rows), nil
}

func (s *MemoryStore) SavePatternMatches(_ context.Context, userID string, patterns []contracts.DetectedPattern) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := countMatches(s.patterns[userID])
	s.patterns[userID] = contracts.MergeDetections(s.patterns[userID], patterns)
	return countMatches(s.patterns[userID]) - before, nil
}

func countMatches(patterns []contracts.DetectedPattern) int {
	var n int
	for _, p := range patterns {
		n += p.Occurrences
	}
	return n
}

func (s *MemoryStore) GetPatterns(_ context.Context, userID string) ([]contracts.DetectedPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return contracts.MergeDetections(s.patterns[userID]), nil
}

func (s *MemoryStore) SaveEmotionalSnapshot(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.AsOf = snapshotDay(snap.AsOf)
	if s.snapshots[snap.UserID] == nil {
		s.snapshots[snap.UserID] = make(map[string]Snapshot)
	}
	s.snapshots[snap.UserID][snap.AsOf.Format("2006-01-02")] = snap
	return nil
}

func (s *MemoryStore) GetEmotionalHistory(_ context.Context, userID string, limit int) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Snapshot, 0, len(s.snapshots[userID]))
	for _, snap := range s.snapshots[userID] {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AsOf.After(out[j].AsOf) })

	if n := historyLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *MemoryStore) SaveHolidays(_ context.Context, market string, holidays []calendar.Holiday) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.holidays[market] == nil {
		s.holidays[market] = make(map[string]calendar.Holiday)
	}
	for _, h := range holidays {
		h.Date = snapshotDay(h.Date)
		s.holidays[market][h.DayKey()] = h
	}
	return len(holidays), nil
}

func (s *MemoryStore) GetHolidays(_ context.Context, market string) ([]calendar.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]calendar.Holiday, 0, len(s.holidays[market]))
	for _, h := range s.holidays[market] {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
