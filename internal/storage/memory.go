package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/molkiya/spectra/internal/models"
)

// MemoryStorage keeps sessions, timelines and previous outputs in process.
// Values are stored serialised so callers never share memory with the store.
// Entries never expire.
type MemoryStorage struct {
	mu        sync.RWMutex
	sessions  map[string][]byte
	timelines map[string][]models.TimelineEntry
	previous  map[string][]byte
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions:  make(map[string][]byte),
		timelines: make(map[string][]models.TimelineEntry),
		previous:  make(map[string][]byte),
	}
}

// SaveSession stores a copy of the session
func (s *MemoryStorage) SaveSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[stateKey(session.ID)] = data
	return nil
}

// LoadSession retrieves a session by ID
func (s *MemoryStorage) LoadSession(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	data, exists := s.sessions[stateKey(id)]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// DeleteSession removes every record kept for the session
func (s *MemoryStorage) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, stateKey(id))
	delete(s.timelines, timelineKey(id))
	delete(s.previous, previousOutputKey(id))
	return nil
}

// AppendTimeline inserts the entry keeping the timeline sorted by timestamp.
// Entries sharing a timestamp keep insertion order.
func (s *MemoryStorage) AppendTimeline(ctx context.Context, id string, entry models.TimelineEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := timelineKey(id)
	entries := s.timelines[key]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].T > entry.T })
	entries = append(entries, models.TimelineEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = entry
	s.timelines[key] = entries
	return nil
}

// ReadTimeline returns a copy of the ordered timeline
func (s *MemoryStorage) ReadTimeline(ctx context.Context, id string) ([]models.TimelineEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.timelines[timelineKey(id)]
	out := make([]models.TimelineEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// AmendLatestAdaptation rewrites the label of the highest-timestamp entry
func (s *MemoryStorage) AmendLatestAdaptation(ctx context.Context, id string, label models.AdaptationLabel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.timelines[timelineKey(id)]
	if len(entries) == 0 {
		return nil
	}
	entries[len(entries)-1].Adaptation = label
	return nil
}

// SavePreviousOutput stores the last broadcast output
func (s *MemoryStorage) SavePreviousOutput(ctx context.Context, id string, prev models.PreviousOutput) error {
	data, err := json.Marshal(prev)
	if err != nil {
		return fmt.Errorf("failed to marshal previous output: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.previous[previousOutputKey(id)] = data
	return nil
}

// LoadPreviousOutput retrieves the last broadcast output
func (s *MemoryStorage) LoadPreviousOutput(ctx context.Context, id string) (*models.PreviousOutput, error) {
	s.mu.RLock()
	data, exists := s.previous[previousOutputKey(id)]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrPreviousOutputNotFound
	}

	var prev models.PreviousOutput
	if err := json.Unmarshal(data, &prev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal previous output: %w", err)
	}
	return &prev, nil
}
