package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wiki_tracker/internal/models"
)

func testStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "cache.json"))
}

func entry(id int64, ts time.Time, sentence string) models.CacheEntry {
	e := models.CacheEntry{RevisionID: id, Timestamp: ts}
	if sentence != "" {
		e.FirstSentence = &sentence
	}
	return e
}

func TestMergeIsAppendOnly(t *testing.T) {
	s := testStore(t)
	ts := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)

	if added := s.Merge([]models.CacheEntry{entry(1, ts, "first version")}); added != 1 {
		t.Fatalf("first merge added %d, want 1", added)
	}
	if added := s.Merge([]models.CacheEntry{entry(1, ts, "second version")}); added != 0 {
		t.Fatalf("re-merge added %d, want 0", added)
	}

	got := s.Entries()
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if *got[0].FirstSentence != "first version" {
		t.Fatalf("existing entry was overwritten: %q", *got[0].FirstSentence)
	}
}

func TestMergeIdempotent(t *testing.T) {
	s := testStore(t)
	ts := time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []models.CacheEntry{entry(1, ts, "a"), entry(2, ts.Add(time.Hour), "b")}

	s.Merge(entries)
	before := s.Entries()
	s.Merge(entries)
	after := s.Entries()

	if len(before) != len(after) {
		t.Fatalf("idempotence violated: %d entries became %d", len(before), len(after))
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	s := NewFileStore(path)
	ts := time.Date(2018, 2, 3, 4, 5, 6, 0, time.UTC)

	s.Merge([]models.CacheEntry{
		entry(10, ts, "hello world."),
		entry(11, ts.Add(time.Hour), ""), // gap entry
	})
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded := NewFileStore(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("expected 2 entries after reload, got %d", loaded.Len())
	}
	if !loaded.Has(10) || !loaded.Has(11) {
		t.Fatal("reloaded cache missing revisions")
	}

	got := loaded.Entries()
	if got[0].FirstSentence == nil || *got[0].FirstSentence != "hello world." {
		t.Fatalf("sentence did not survive round trip: %+v", got[0])
	}
	if got[1].FirstSentence != nil {
		t.Fatalf("gap entry became non-nil: %+v", got[1])
	}
	if !got[0].Timestamp.Equal(ts) {
		t.Fatalf("timestamp did not survive round trip: %v", got[0].Timestamp)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "cache.json"))
	s.Merge([]models.CacheEntry{entry(1, time.Now().UTC(), "x.")})
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range files {
		if strings.HasSuffix(f.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", f.Name())
		}
	}
}

func TestLoadCorruptCacheFallsBackToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte(`{"schema_version": 2, "entries": {truncated`), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFileStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("corrupt cache must not abort the run: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", s.Len())
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("missing cache file should load as empty: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", s.Len())
	}
}

func TestLoadMigratesLegacyFormat(t *testing.T) {
	// v1: bare revision-id map, no schema_version, no timestamps.
	legacy := `{
  "100": {"first_sentence": "The old sentence."},
  "200": {"first_sentence": null}
}`
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewFileStore(path)
	if err := s.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("migration dropped data: %d entries", s.Len())
	}

	revs := []models.Revision{
		{ID: 100, Timestamp: time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 200, Timestamp: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	if patched := s.BackfillTimestamps(revs); patched != 2 {
		t.Fatalf("backfilled %d entries, want 2", patched)
	}

	got := s.Entries()
	if !got[0].Timestamp.Equal(revs[0].Timestamp) || !got[1].Timestamp.Equal(revs[1].Timestamp) {
		t.Fatalf("timestamps not backfilled from revision list: %+v", got)
	}

	// Saving after migration writes the current schema.
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"schema_version": 2`) {
		t.Fatalf("saved cache missing schema version: %s", data)
	}
}

func TestBackfillSkipsEntriesWithTimestamps(t *testing.T) {
	s := testStore(t)
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Merge([]models.CacheEntry{entry(1, ts, "a")})

	revs := []models.Revision{{ID: 1, Timestamp: ts.AddDate(1, 0, 0)}}
	if patched := s.BackfillTimestamps(revs); patched != 0 {
		t.Fatalf("backfill touched a populated timestamp, patched=%d", patched)
	}
	if !s.Entries()[0].Timestamp.Equal(ts) {
		t.Fatal("existing timestamp was modified")
	}
}
