// Package app wires the pipeline: list revisions, sample, fetch, extract,
// cache, analyze, report.
package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"wiki_tracker/internal/analyze"
	"wiki_tracker/internal/config"
	"wiki_tracker/internal/extract"
	"wiki_tracker/internal/mediawiki"
	"wiki_tracker/internal/models"
	"wiki_tracker/internal/report"
	"wiki_tracker/internal/sample"
	"wiki_tracker/internal/store"
)

type App struct {
	cfg       *config.Config
	client    *mediawiki.Client
	fetcher   *mediawiki.Fetcher
	extractor *extract.Extractor
	store     store.Store
}

func New(cfg *config.Config) (*App, error) {
	fetcher, err := mediawiki.NewFetcher(cfg.API, cfg.Fetch)
	if err != nil {
		return nil, err
	}

	var anchor extract.Anchor = extract.FirstParagraph{}
	if len(cfg.Article.AnchorPhrases) > 0 {
		anchor = extract.PhraseAnchor{Phrases: cfg.Article.AnchorPhrases}
	}

	var st store.Store
	switch cfg.Cache.Backend {
	case "", "file":
		st = store.NewFileStore(cfg.CachePath())
	case "mongo":
		st, err = store.NewMongoStore(cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("opening mongo cache: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}

	return &App{
		cfg:       cfg,
		client:    mediawiki.NewClient(cfg.API),
		fetcher:   fetcher,
		extractor: extract.New(anchor),
		store:     st,
	}, nil
}

// Run executes one analysis pass. full selects the fine-grained sample rate;
// withCSV additionally writes the chronological CSV export.
func (a *App) Run(full, withCSV bool) error {
	defer a.store.Close()

	title := a.cfg.Article.Title
	log.Printf("fetching revision history for %q", title)

	revisions, err := a.client.ListRevisions(title)
	if err != nil {
		return err
	}
	log.Printf("revision list done total=%d", len(revisions))

	if err := a.store.Load(); err != nil {
		return fmt.Errorf("loading cache: %w", err)
	}
	a.store.BackfillTimestamps(revisions)

	stride := a.cfg.Sample.TestRate
	if full {
		stride = a.cfg.Sample.Rate
	}
	plan := sample.Plan(revisions, stride, a.store.Has)
	log.Printf("sample plan stride=%d to_fetch=%d cached=%d", stride, len(plan), a.store.Len())

	if len(plan) > 0 && a.cfg.Fetch.RespectRobots {
		if err := a.fetcher.CheckRobots(); err != nil {
			return err
		}
	}

	if err := a.fetchAll(plan); err != nil {
		return err
	}

	result := analyze.Run(title, len(revisions), a.store.Entries(), time.Now())

	report.Print(result, a.cfg.Report.TopN)
	path, err := report.WriteJSON(result, a.cfg.Report.OutputDir)
	if err != nil {
		return err
	}
	log.Printf("results saved to %s", path)

	if withCSV {
		csvPath := report.CSVName(path)
		rows, err := report.WriteCSV(result, csvPath)
		if err != nil {
			return err
		}
		log.Printf("csv export saved to %s", csvPath)
		report.PrintCSVSummary(rows)
	}
	return nil
}

func (a *App) fetchAll(plan []models.Revision) error {
	checkpoint := a.cfg.Cache.CheckpointEvery
	if checkpoint <= 0 {
		checkpoint = 10
	}

	sinceCheckpoint := 0
	for i, rev := range plan {
		entry := models.CacheEntry{RevisionID: rev.ID, Timestamp: rev.Timestamp}

		content, err := a.fetcher.FetchRevisionHTML(rev.ID)
		var fetchErr *mediawiki.FetchError
		switch {
		case errors.As(err, &fetchErr):
			// Skipped revision, not a fatal condition: cache the gap and
			// move on.
			log.Printf("revision %d skipped: %v", rev.ID, err)
		case err != nil:
			return err
		default:
			if sentence, ok := a.extractor.FirstSentence(content); ok {
				entry.FirstSentence = &sentence
			} else {
				log.Printf("revision %d: no extractable sentence", rev.ID)
			}
		}

		a.store.Merge([]models.CacheEntry{entry})
		sinceCheckpoint++

		if sinceCheckpoint >= checkpoint {
			if err := a.store.Save(); err != nil {
				return fmt.Errorf("checkpointing cache: %w", err)
			}
			log.Printf("checkpoint saved fetched=%d/%d", i+1, len(plan))
			sinceCheckpoint = 0
		}
	}

	if err := a.store.Save(); err != nil {
		return fmt.Errorf("saving cache: %w", err)
	}
	return nil
}
