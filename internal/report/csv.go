package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"wiki_tracker/internal/models"
)

// CSVRow is one sentence in the chronological export.
type CSVRow struct {
	FirstAppearance string
	TotalDaysActive int
	NumPeriods      int
	Sentence        string
}

// CSVRows flattens the analysis into rows ordered by first appearance.
func CSVRows(res models.AnalysisResult) []CSVRow {
	var rows []CSVRow
	for _, s := range res.Sentences {
		if len(s.Periods) == 0 {
			continue
		}
		first := s.Periods[0].Start
		for _, p := range s.Periods[1:] {
			if p.Start.Before(first) {
				first = p.Start
			}
		}
		rows = append(rows, CSVRow{
			FirstAppearance: first.Format("2006-01-02"),
			TotalDaysActive: s.TotalDays,
			NumPeriods:      s.Occurrences,
			Sentence:        s.Sentence,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].FirstAppearance < rows[j].FirstAppearance
	})
	return rows
}

// WriteCSV writes the chronological view of the analysis to path.
func WriteCSV(res models.AnalysisResult, path string) ([]CSVRow, error) {
	rows := CSVRows(res)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"first_appearance", "total_days_active", "num_periods", "sentence"}); err != nil {
		return nil, err
	}
	for _, r := range rows {
		record := []string{
			r.FirstAppearance,
			strconv.Itoa(r.TotalDaysActive),
			strconv.Itoa(r.NumPeriods),
			r.Sentence,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("writing csv: %w", err)
	}
	return rows, nil
}

// PrintCSVSummary prints distribution statistics over the exported rows.
func PrintCSVSummary(rows []CSVRow) {
	if len(rows) == 0 {
		fmt.Println("No sentences to summarize.")
		return
	}

	days := make([]int, 0, len(rows))
	for _, r := range rows {
		days = append(days, r.TotalDaysActive)
	}
	sorted := append([]int(nil), days...)
	sort.Ints(sorted)

	sum, reverted, short, persistent := 0, 0, 0, 0
	for _, d := range days {
		sum += d
		switch {
		case d == 0:
			reverted++
		case d < 100:
			short++
		default:
			persistent++
		}
	}
	total := len(rows)
	pct := func(n int) float64 { return float64(n) / float64(total) * 100 }

	fmt.Println(rule)
	fmt.Println("CSV EXPORT SUMMARY")
	fmt.Println(rule)
	fmt.Printf("Total sentences: %d\n", total)
	fmt.Printf("Date range: %s to %s\n", rows[0].FirstAppearance, rows[total-1].FirstAppearance)
	fmt.Println("\nDays active:")
	fmt.Printf("  Average: %.1f days\n", float64(sum)/float64(total))
	fmt.Printf("  Median: %d days\n", sorted[total/2])
	fmt.Printf("  Max: %d days\n", sorted[total-1])
	fmt.Printf("  Min: %d days\n", sorted[0])
	fmt.Println("\nDistribution:")
	fmt.Printf("  0 days (immediately reverted): %d (%.0f%%)\n", reverted, pct(reverted))
	fmt.Printf("  1-99 days: %d (%.0f%%)\n", short, pct(short))
	fmt.Printf("  100+ days (persistent): %d (%.0f%%)\n", persistent, pct(persistent))
	fmt.Println(rule)
}
