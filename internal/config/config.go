package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

type ArticleConfig struct {
	Title         string   `yaml:"title"`
	Language      string   `yaml:"language"`
	AnchorPhrases []string `yaml:"anchor_phrases"`
}

type APIConfig struct {
	BaseURL    string `yaml:"base_url"`
	UserAgent  string `yaml:"user_agent"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type FetchConfig struct {
	DelayMS       int  `yaml:"delay_ms"`
	MaxAttempts   int  `yaml:"max_attempts"`
	BackoffBaseMS int  `yaml:"backoff_base_ms"`
	BackoffMaxMS  int  `yaml:"backoff_max_ms"`
	RespectRobots bool `yaml:"respect_robots"`
}

type SampleConfig struct {
	Rate     int `yaml:"rate"`
	TestRate int `yaml:"test_rate"`
}

type CacheConfig struct {
	Backend         string `yaml:"backend"` // "file" or "mongo"
	Path            string `yaml:"path"`
	CheckpointEvery int    `yaml:"checkpoint_every"`
}

type DBConfig struct {
	Connection string `yaml:"connection"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type ReportConfig struct {
	TopN      int    `yaml:"top_n"`
	OutputDir string `yaml:"output_dir"`
}

type Config struct {
	Article ArticleConfig `yaml:"article"`
	API     APIConfig     `yaml:"api"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Sample  SampleConfig  `yaml:"sample"`
	Cache   CacheConfig   `yaml:"cache"`
	DB      DBConfig      `yaml:"db"`
	Report  ReportConfig  `yaml:"report"`
}

func Default() *Config {
	return &Config{
		Article: ArticleConfig{
			Title:    "27 Club",
			Language: "en",
		},
		API: APIConfig{
			UserAgent:  "wiki-tracker/1.0 (first-sentence revision analysis; contact via repository)",
			TimeoutSec: 30,
		},
		Fetch: FetchConfig{
			DelayMS:       1000,
			MaxAttempts:   4,
			BackoffBaseMS: 2000,
			BackoffMaxMS:  30000,
			RespectRobots: true,
		},
		Sample: SampleConfig{
			Rate:     10,
			TestRate: 100,
		},
		Cache: CacheConfig{
			Backend:         "file",
			CheckpointEvery: 10,
		},
		Report: ReportConfig{
			TopN:      10,
			OutputDir: ".",
		},
	}
}

// Load reads the YAML config at path over the built-in defaults. A missing
// file is not an error: the defaults alone describe a runnable setup. When
// api.base_url is not set explicitly, it is derived from article.language.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// run on defaults alone
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if cfg.Article.Title == "" {
		return nil, fmt.Errorf("config %s: article.title must not be empty", path)
	}
	if cfg.API.BaseURL == "" {
		lang := cfg.Article.Language
		if lang == "" {
			lang = "en"
		}
		cfg.API.BaseURL = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", lang)
	}
	return cfg, nil
}

// CachePath returns the configured cache file path, or a path derived from
// the article title when none is set.
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return SlugifyTitle(c.Article.Title) + "_cache.json"
}

// SlugifyTitle converts an article title to its file-name form.
func SlugifyTitle(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}
