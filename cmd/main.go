package main

import (
	"errors"
	"flag"
	"log"

	"wiki_tracker/internal/app"
	"wiki_tracker/internal/config"
	"wiki_tracker/internal/mediawiki"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	full := flag.Bool("full", false, "analyze with the full sample rate instead of the fast test rate")
	withCSV := flag.Bool("csv", false, "also write the chronological CSV export")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("initializing: %v", err)
	}

	if err := application.Run(*full, *withCSV); err != nil {
		var apiErr *mediawiki.APIError
		if errors.As(err, &apiErr) {
			log.Fatalf("API error, aborting without partial output: %v", apiErr)
		}
		log.Fatalf("run failed: %v", err)
	}
}
