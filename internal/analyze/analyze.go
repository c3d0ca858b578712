// Package analyze turns the ordered cache into sentence transitions and
// ranked longevity statistics.
package analyze

import (
	"sort"
	"strings"
	"time"

	"wiki_tracker/internal/models"
)

// Transition is one contiguous run of a sentence being the article's first
// sentence. End is zero while the run is still ongoing.
type Transition struct {
	Sentence string
	Start    time.Time
	End      time.Time
}

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
)

// Normalize prepares a sentence for equality comparison: trimmed whitespace
// and unified quote characters.
func Normalize(s string) string {
	return strings.TrimSpace(quoteReplacer.Replace(s))
}

// Transitions walks the entries in timestamp order, skipping gaps, and
// groups consecutive equal sentences into runs. Each run ends where the next
// differing sentence begins.
func Transitions(entries []models.CacheEntry) []Transition {
	var runs []Transition
	for _, e := range entries {
		if e.FirstSentence == nil {
			continue
		}
		sentence := Normalize(*e.FirstSentence)
		if len(runs) > 0 && runs[len(runs)-1].Sentence == sentence {
			continue
		}
		if len(runs) > 0 {
			runs[len(runs)-1].End = e.Timestamp
		}
		runs = append(runs, Transition{Sentence: sentence, Start: e.Timestamp})
	}
	return runs
}

// Run computes the full analysis over the cached entries. totalRevisions is
// the article's full history length; entries is the (sampled) cache sorted
// by timestamp. now closes the final open-ended run.
func Run(article string, totalRevisions int, entries []models.CacheEntry, now time.Time) models.AnalysisResult {
	gaps := 0
	for _, e := range entries {
		if e.FirstSentence == nil {
			gaps++
		}
	}

	runs := Transitions(entries)

	type agg struct {
		first    int
		total    time.Duration
		sentence string
		periods  []models.Period
	}
	byKey := make(map[string]*agg)
	var order []string

	for _, run := range runs {
		end := run.End
		if end.IsZero() {
			end = now
		}
		d := end.Sub(run.Start)

		a, ok := byKey[run.Sentence]
		if !ok {
			a = &agg{first: len(order), sentence: run.Sentence}
			byKey[run.Sentence] = a
			order = append(order, run.Sentence)
		}
		a.total += d
		a.periods = append(a.periods, models.Period{
			Start: run.Start,
			End:   end,
			Days:  int(d.Hours() / 24),
		})
	}

	stats := make([]*agg, 0, len(order))
	for _, key := range order {
		stats = append(stats, byKey[key])
	}
	// Ranking: total active time, then occurrence count, then first
	// appearance. Untruncated durations keep day-granularity ties stable.
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].total != stats[j].total {
			return stats[i].total > stats[j].total
		}
		if len(stats[i].periods) != len(stats[j].periods) {
			return len(stats[i].periods) > len(stats[j].periods)
		}
		return stats[i].first < stats[j].first
	})

	result := models.AnalysisResult{
		Article:           article,
		AnalysisDate:      now.UTC().Format("2006-01-02 15:04:05"),
		TotalRevisions:    totalRevisions,
		RevisionsAnalyzed: len(entries),
		RevisionsNoLede:   gaps,
		ChangesDetected:   changeCount(runs),
		UniqueSentences:   len(stats),
		// non-nil so an empty analysis serializes as [] rather than null
		Sentences: make([]models.SentenceStat, 0, len(stats)),
	}
	for _, a := range stats {
		result.Sentences = append(result.Sentences, models.SentenceStat{
			Sentence:    a.sentence,
			TotalDays:   int(a.total.Hours() / 24),
			Occurrences: len(a.periods),
			Periods:     a.periods,
		})
	}
	return result
}

func changeCount(runs []Transition) int {
	if len(runs) == 0 {
		return 0
	}
	return len(runs) - 1
}
