package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// EventStore provides thread-safe, chronological storage for Events.
type EventStore struct {
	mu   sync.RWMutex
	logs map[string][]Event // Partitioned by source ID (patient or device)
}

// NewEventStore creates a new empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{
		logs: make(map[string][]Event),
	}
}

// Append adds new events to the log for a given source, ensuring chronological
// order and deduplication. It returns the number of events actually added.
func (s *EventStore) Append(sourceID string, events []Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logs[sourceID]

	// Identity = Kind + Timestamp + Seq
	existing := make(map[string]bool, len(log))
	for _, e := range log {
		existing[e.identity()] = true
	}

	added := 0
	for _, e := range events {
		id := e.identity()
		if existing[id] {
			continue
		}
		existing[id] = true
		log = append(log, e)
		added++
	}

	if added == 0 {
		return 0
	}

	sort.SliceStable(log, func(i, j int) bool {
		if log[i].Timestamp != log[j].Timestamp {
			return log[i].Timestamp < log[j].Timestamp
		}
		if log[i].Kind != log[j].Kind {
			return log[i].Kind < log[j].Kind
		}
		return log[i].Seq < log[j].Seq
	})

	s.logs[sourceID] = log
	return added
}

// Load reads events from a JSONL cache file for the given source.
func (s *EventStore) Load(cacheDir string, sourceID string) error {
	path := cachePath(cacheDir, sourceID)
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No cache yet, not an error
		}
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer file.Close()

	events, err := decodeEvents(file, sourceID)
	if err != nil {
		return fmt.Errorf("error reading cache: %w", err)
	}

	log.Info().Str("source", sourceID).Int("count", len(events)).Msg("Loaded events from cache")
	s.Append(sourceID, events)
	return nil
}

// Save persists events for the given source to a JSONL cache file.
func (s *EventStore) Save(cacheDir string, sourceID string) error {
	s.mu.RLock()
	logData, ok := s.logs[sourceID]
	s.mu.RUnlock()

	if !ok || len(logData) == 0 {
		return nil
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	path := cachePath(cacheDir, sourceID)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	for _, e := range logData {
		if err := encoder.Encode(e); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	log.Info().Str("source", sourceID).Int("count", len(logData)).Msg("Persistent events saved to cache")
	return nil
}

// GetLatestTimestamp returns the timestamp of the most recent event for a source.
func (s *EventStore) GetLatestTimestamp(sourceID string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logData, ok := s.logs[sourceID]
	if !ok || len(logData) == 0 {
		return time.Time{}
	}

	// Events are sorted, so the last one is the latest
	return time.UnixMicro(logData[len(logData)-1].Timestamp)
}

// Count returns the number of events in the store for a source.
func (s *EventStore) Count(sourceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[sourceID])
}

// CountByKind returns the number of events of one kind for a source.
func (s *EventStore) CountByKind(sourceID string, kind Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.logs[sourceID] {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// GetEventsInRange returns a copy of events within the specified time window.
// A zero start or end leaves that side open.
func (s *EventStore) GetEventsInRange(sourceID string, start, end time.Time) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logData, ok := s.logs[sourceID]
	if !ok {
		return nil
	}

	var startTs int64
	if !start.IsZero() {
		startTs = start.UnixMicro()
	}
	endTs := end.UnixMicro()

	var result []Event
	for _, e := range logData {
		if (start.IsZero() || e.Timestamp >= startTs) && (end.IsZero() || e.Timestamp <= endTs) {
			result = append(result, e)
		}
	}
	return result
}

// Sources returns the IDs of all sources held in memory, sorted.
func (s *EventStore) Sources() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.logs))
	for id := range s.logs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clear drops all events of a source from memory.
func (s *EventStore) Clear(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, sourceID)
}

// DeleteCache removes the cache file of a source.
func DeleteCache(cacheDir, sourceID string) error {
	err := os.Remove(cachePath(cacheDir, sourceID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// CachedSources lists the source IDs with a cache file in cacheDir.
func CachedSources(cacheDir string) ([]string, error) {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".jsonl"))
	}
	return ids, nil
}

func cachePath(cacheDir, sourceID string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("%s.jsonl", sourceID))
}

// identity computes a unique string identifier for an event to aid deduplication.
func (e Event) identity() string {
	return fmt.Sprintf("%s|%d|%d", e.Kind, e.Timestamp, e.Seq)
}
