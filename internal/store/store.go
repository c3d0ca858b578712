// Package store persists per-revision extracted sentences. The cache is
// append-only by revision id and monotonically grows across runs.
package store

import "wiki_tracker/internal/models"

type Store interface {
	// Load reads the persisted cache, migrating older schemas. A corrupt
	// cache degrades to an empty one instead of aborting the run.
	Load() error

	// Has reports whether a revision is already cached.
	Has(revisionID int64) bool

	// Merge adds entries keyed by revision id. Existing entries win; merging
	// the same entry twice is a no-op. Returns the number actually added.
	Merge(entries []models.CacheEntry) int

	// BackfillTimestamps fills missing entry timestamps from the revision
	// list (needed after migrating caches that predate the timestamp field).
	// Returns the number of entries patched.
	BackfillTimestamps(revisions []models.Revision) int

	// Entries returns all cached entries sorted by timestamp.
	Entries() []models.CacheEntry

	Len() int

	// Save persists the cache durably. Used both for the final write and for
	// mid-run checkpoints.
	Save() error

	Close() error
}
