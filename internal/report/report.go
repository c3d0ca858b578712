// Package report renders the analysis to the terminal and to files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"wiki_tracker/internal/config"
	"wiki_tracker/internal/models"
)

const rule = "================================================================================"

// Print writes the ranked top-N sentences to stdout.
func Print(res models.AnalysisResult, topN int) {
	fmt.Println()
	fmt.Println(rule)
	fmt.Printf("FIRST SENTENCE ANALYSIS: %s\n", res.Article)
	fmt.Println(rule)
	fmt.Printf("Total revisions: %d\n", res.TotalRevisions)
	fmt.Printf("Revisions analyzed: %d\n", res.RevisionsAnalyzed)
	fmt.Printf("Revisions without extractable sentence: %d\n", res.RevisionsNoLede)
	fmt.Printf("Changes detected: %d\n", res.ChangesDetected)
	fmt.Printf("Unique first sentences: %d\n", res.UniqueSentences)
	fmt.Println(rule)

	if topN <= 0 {
		topN = 10
	}
	for i, s := range res.Sentences {
		if i >= topN {
			break
		}
		fmt.Printf("\n#%d - Total Days: %d | Occurrences: %d\n", i+1, s.TotalDays, s.Occurrences)
		fmt.Printf("Sentence: %s\n", s.Sentence)
		fmt.Println("Periods:")
		for _, p := range s.Periods {
			fmt.Printf("  - %s to %s (%d days)\n",
				p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"), p.Days)
		}
	}
	fmt.Println()
	fmt.Println(rule)
}

// OutputName returns the analysis file name for an article title.
func OutputName(article string) string {
	return config.SlugifyTitle(article) + "_first_sentence_analysis.json"
}

// WriteJSON writes the complete result (every unique sentence, not just the
// printed top N) into dir and returns the file path.
func WriteJSON(res models.AnalysisResult, dir string) (string, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding analysis: %w", err)
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(dir, OutputName(res.Article))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing analysis: %w", err)
	}
	return path, nil
}

// CSVName returns the chronological CSV file name for an analysis file.
func CSVName(jsonPath string) string {
	return strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + "_chronological.csv"
}
