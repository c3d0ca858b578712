package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"wiki_tracker/internal/models"
)

const schemaVersion = 2

type fileEntry struct {
	Timestamp     string  `json:"timestamp,omitempty"`
	FirstSentence *string `json:"first_sentence"`
}

type fileFormat struct {
	SchemaVersion int                  `json:"schema_version"`
	Entries       map[string]fileEntry `json:"entries"`
}

// Migrations upgrade one schema version to the next, so future changes
// compose. They may add fields with defaults but never drop data.
var migrations = map[int]func(*fileFormat){
	// v1 was a bare revision-id -> entry object with no version envelope and
	// no guaranteed timestamp. Detection wraps it; timestamps are backfilled
	// from the revision list after load.
	1: func(f *fileFormat) {
		f.SchemaVersion = 2
	},
}

// FileStore keeps the cache in a single JSON document on disk.
type FileStore struct {
	path    string
	entries map[int64]models.CacheEntry
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path:    path,
		entries: make(map[int64]models.CacheEntry),
	}
}

func (s *FileStore) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	f, err := decodeCacheFile(data)
	if err != nil {
		log.Printf("cache %s unreadable, starting from empty cache: %v", s.path, err)
		s.entries = make(map[int64]models.CacheEntry)
		return nil
	}

	for v := f.SchemaVersion; v < schemaVersion; v++ {
		migrate, ok := migrations[v]
		if !ok {
			log.Printf("cache %s has unknown schema version %d, starting from empty cache", s.path, f.SchemaVersion)
			return nil
		}
		migrate(f)
	}

	for key, fe := range f.Entries {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.Printf("cache %s: skipping bad revision key %q", s.path, key)
			continue
		}
		entry := models.CacheEntry{RevisionID: id, FirstSentence: fe.FirstSentence}
		if fe.Timestamp != "" {
			ts, err := time.Parse(time.RFC3339, fe.Timestamp)
			if err != nil {
				log.Printf("cache %s: skipping bad timestamp for revision %d", s.path, id)
				continue
			}
			entry.Timestamp = ts
		}
		s.entries[id] = entry
	}

	log.Printf("cache load path=%s entries=%d", s.path, len(s.entries))
	return nil
}

// decodeCacheFile understands both the current envelope format and the bare
// v1 map format.
func decodeCacheFile(data []byte) (*fileFormat, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}

	if _, versioned := probe["schema_version"]; versioned {
		var f fileFormat
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		if f.Entries == nil {
			f.Entries = make(map[string]fileEntry)
		}
		return &f, nil
	}

	var legacy map[string]fileEntry
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}
	return &fileFormat{SchemaVersion: 1, Entries: legacy}, nil
}

func (s *FileStore) Has(revisionID int64) bool {
	_, ok := s.entries[revisionID]
	return ok
}

func (s *FileStore) Merge(entries []models.CacheEntry) int {
	added := 0
	for _, e := range entries {
		if _, exists := s.entries[e.RevisionID]; exists {
			continue
		}
		s.entries[e.RevisionID] = e
		added++
	}
	return added
}

func (s *FileStore) BackfillTimestamps(revisions []models.Revision) int {
	byID := make(map[int64]time.Time, len(revisions))
	for _, r := range revisions {
		byID[r.ID] = r.Timestamp
	}

	patched := 0
	for id, e := range s.entries {
		if !e.Timestamp.IsZero() {
			continue
		}
		ts, ok := byID[id]
		if !ok {
			continue
		}
		e.Timestamp = ts
		s.entries[id] = e
		patched++
	}
	if patched > 0 {
		log.Printf("cache migrate backfilled timestamps for %d entries", patched)
	}
	return patched
}

func (s *FileStore) Entries() []models.CacheEntry {
	out := make([]models.CacheEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].RevisionID < out[j].RevisionID
	})
	return out
}

func (s *FileStore) Len() int { return len(s.entries) }

// Save writes the whole cache to a temp file and renames it into place, so
// an interrupted run never leaves a truncated cache behind.
func (s *FileStore) Save() error {
	f := fileFormat{
		SchemaVersion: schemaVersion,
		Entries:       make(map[string]fileEntry, len(s.entries)),
	}
	for id, e := range s.entries {
		fe := fileEntry{FirstSentence: e.FirstSentence}
		if !e.Timestamp.IsZero() {
			fe.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
		}
		f.Entries[strconv.FormatInt(id, 10)] = fe
	}

	data, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding cache: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating cache dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing cache: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
