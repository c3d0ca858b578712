package models

import "time"

// Revision is one saved version of the article, as listed by the revisions
// API. Ordering by timestamp is the article's canonical history order.
type Revision struct {
	ID        int64
	Timestamp time.Time
}

// CacheEntry holds the extraction result for a single fetched revision.
// FirstSentence is nil when no sentence could be extracted (a gap).
type CacheEntry struct {
	RevisionID    int64
	Timestamp     time.Time
	FirstSentence *string
}

// Period is one contiguous run during which a sentence was the article's
// first sentence.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// SentenceStat aggregates every appearance of one distinct sentence.
type SentenceStat struct {
	Sentence    string   `json:"sentence"`
	TotalDays   int      `json:"total_days"`
	Occurrences int      `json:"total_occurrences"`
	Periods     []Period `json:"periods"`
}

type AnalysisResult struct {
	Article           string         `json:"article"`
	AnalysisDate      string         `json:"analysis_date"`
	TotalRevisions    int            `json:"total_revisions"`
	RevisionsAnalyzed int            `json:"revisions_analyzed"`
	RevisionsNoLede   int            `json:"revisions_without_sentence"`
	ChangesDetected   int            `json:"changes_detected"`
	UniqueSentences   int            `json:"unique_sentences"`
	Sentences         []SentenceStat `json:"sentences"`
}
