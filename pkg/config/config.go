// Package config loads the paperweek configuration: a JSON file under the
// user's home directory, overlaid with environment variables for secrets and
// one-off overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jony/paperweek/pkg/llm"
)

// Defaults mirror the knobs the pipeline was tuned with: 20k-token chunks
// with 500 tokens of overlap, top 5 papers per week.
const (
	DefaultChunkSize      = 20000
	DefaultChunkOverlap   = 500
	DefaultTopN           = 5
	DefaultRequestTimeout = 30 * time.Second
	DefaultModelTimeout   = 2 * time.Minute
	DefaultMapConcurrency = 4
)

// Config is passed explicitly to every component; there is no package-level
// configuration state.
type Config struct {
	ChunkSize      int    `json:"chunk_size" env:"PAPERWEEK_CHUNK_SIZE"`
	ChunkOverlap   int    `json:"chunk_overlap" env:"PAPERWEEK_CHUNK_OVERLAP"`
	TopN           int    `json:"top_n" env:"PAPERWEEK_TOP_N"`
	RequestTimeout int    `json:"request_timeout_seconds" env:"PAPERWEEK_REQUEST_TIMEOUT"`
	ModelTimeout   int    `json:"model_timeout_seconds" env:"PAPERWEEK_MODEL_TIMEOUT"`
	MapConcurrency int    `json:"map_concurrency" env:"PAPERWEEK_MAP_CONCURRENCY"`
	DataDir        string `json:"data_dir" env:"PAPERWEEK_DATA_DIR"`
	MapPrompt      string `json:"map_prompt,omitempty"`
	ReducePrompt   string `json:"reduce_prompt,omitempty"`

	// FeedURLs are arXiv RSS/Atom feeds merged into the weekly listing as a
	// supplementary paper source.
	FeedURLs []string `json:"feed_urls,omitempty" env:"PAPERWEEK_FEED_URLS" envSeparator:","`

	Backends []llm.Backend `json:"backends"`
}

// Default returns the built-in configuration with no backends.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		ChunkSize:      DefaultChunkSize,
		ChunkOverlap:   DefaultChunkOverlap,
		TopN:           DefaultTopN,
		RequestTimeout: int(DefaultRequestTimeout.Seconds()),
		ModelTimeout:   int(DefaultModelTimeout.Seconds()),
		MapConcurrency: DefaultMapConcurrency,
		DataDir:        filepath.Join(home, ".paperweek", "papers"),
	}
}

// Path returns the config file location: $PAPERWEEK_CONFIG when set,
// otherwise ~/.paperweek/config.json.
func Path() string {
	if p := os.Getenv("PAPERWEEK_CONFIG"); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".paperweek", "config.json")
}

// Load reads the config file (missing file is fine — defaults apply),
// overlays environment variables, and validates the result.
func Load() (*Config, error) {
	return loadFrom(Path())
}

func loadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline would fail on anyway, before
// any network call happens.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.ChunkOverlap)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top_n must be positive, got %d", c.TopN)
	}
	seen := make(map[string]bool)
	for _, b := range c.Backends {
		if b.Name == "" {
			return fmt.Errorf("every backend needs a name")
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate backend name %q", b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

// Save writes the config as indented JSON, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// HTTPTimeout is the bound for scraping and PDF downloads.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// CallTimeout is the bound for a single model invocation.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.ModelTimeout) * time.Second
}

// WeekDir returns the per-week storage folder, e.g. data/2026-35.
func (c *Config) WeekDir(t time.Time) string {
	year, week := t.ISOWeek()
	return filepath.Join(c.DataDir, fmt.Sprintf("%d-%02d", year, week))
}
