package types

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "memo-combiner/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ScrapeConfig holds settings for the link extraction stage.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the site root used to resolve relative document links.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// ListingURL is the page enumerating candidate document links.
	ListingURL string `json:"listing_url" yaml:"listing_url"`

	// LinkPattern is the regular expression an anchor href must match
	// to count as a document link (default `.*\.pdf$`).
	LinkPattern string `json:"link_pattern" yaml:"link_pattern"`
}

// DownloadConfig holds settings for the download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDir is the directory documents are downloaded into.
	// Must be an absolute path.
	DownloadDir string `json:"download_dir" yaml:"download_dir"`

	// MaxRetries is the total number of fetch attempts per URL for
	// transient failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Force skips the freshness check and re-downloads every document.
	Force bool `json:"force" yaml:"force"`
}

// CombineConfig holds settings for the merge stage.
type CombineConfig struct {
	// OutputDir is the directory merged artifacts are written into.
	// Must be an absolute path.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// WordLimit is the approximate maximum word count per merged
	// artifact (default 50000).
	WordLimit int `json:"word_limit" yaml:"word_limit"`
}

// LogConfig holds settings for process logging.
type LogConfig struct {
	// LogDir is the directory the rotating log file is written into.
	LogDir string `json:"log_dir" yaml:"log_dir"`
}

// PipelineConfig groups all stage configurations for one batch run.
// It is built once at startup and passed by value into the stages;
// nothing mutates it afterwards.
type PipelineConfig struct {
	Scrape   ScrapeConfig   `json:"scrape" yaml:"scrape"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Combine  CombineConfig  `json:"combine" yaml:"combine"`
	Log      LogConfig      `json:"log" yaml:"log"`

	// ManifestPath is the SQLite file recording per-URL download outcomes.
	ManifestPath string `json:"manifest_path" yaml:"manifest_path"`
}

// Validate checks the configured directories before any work begins.
// The download and output directories must be absolute; both are created
// if absent and must be writable. The log directory is created as well.
// A validation failure is fatal to the run.
func (c PipelineConfig) Validate() error {
	for _, dir := range []string{c.Download.DownloadDir, c.Combine.OutputDir} {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("path must be absolute: %s", dir)
		}
		if err := ensureWritableDir(dir); err != nil {
			return err
		}
	}
	if c.Log.LogDir != "" {
		if err := os.MkdirAll(c.Log.LogDir, 0o755); err != nil {
			return fmt.Errorf("creating log directory %s: %w", c.Log.LogDir, err)
		}
	}
	return nil
}

// ensureWritableDir creates dir if absent and probes it with a temp file,
// since permission bits alone do not prove writability on all filesystems.
func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".write-probe-*")
	if err != nil {
		return fmt.Errorf("directory not writable: %s", dir)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
