// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/memo-combiner/internal/combine"
	"github.com/pdiddy/memo-combiner/internal/download"
	"github.com/pdiddy/memo-combiner/internal/links"
	"github.com/pdiddy/memo-combiner/internal/logging"
	"github.com/pdiddy/memo-combiner/internal/manifest"
	"github.com/pdiddy/memo-combiner/pkg/types"
)

// runReport summarizes one batch run; it is written as report.yaml into
// the output directory.
type runReport struct {
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	ListingURL string    `yaml:"listing_url"`
	Found      int       `yaml:"found"`
	Downloaded int       `yaml:"downloaded"`
	Skipped    int       `yaml:"skipped"`
	Failed     []string  `yaml:"failed,omitempty"`
	Artifacts  []string  `yaml:"artifacts,omitempty"`
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg := buildConfig()

	log, err := logging.Init(appName, cfg.Log.LogDir)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer log.Info("shutting down")

	// Bad local environment is fatal before any network access.
	if err := cfg.Validate(); err != nil {
		log.Error("configuration invalid", "err", err)
		return err
	}

	ctx := cmd.Context()
	report := runReport{StartedAt: time.Now(), ListingURL: cfg.Scrape.ListingURL}

	log.Info("fetching document links", "listing_url", cfg.Scrape.ListingURL)
	client := &http.Client{Timeout: cfg.Scrape.Timeout}
	urls, err := links.Fetch(ctx, client, cfg.Scrape)
	if err != nil {
		log.Error("fetching document links failed", "err", err)
		return err
	}
	if len(urls) == 0 {
		log.Error("no document links found", "listing_url", cfg.Scrape.ListingURL)
		return nil
	}
	log.Info("found document links", "count", len(urls))
	report.Found = len(urls)

	dlClient := &http.Client{Timeout: cfg.Download.Timeout}
	result := download.FetchAll(ctx, dlClient, urls, cfg.Download, log)
	report.Downloaded = result.Downloaded()
	report.Skipped = result.Skipped()
	report.Failed = result.Failed

	recordManifest(cfg.ManifestPath, result.Outcomes, log)

	if result.HasFailures() {
		log.Warn("some documents failed to download", "count", len(result.Failed))
	}

	if docs := result.Documents(); len(docs) > 0 {
		artifacts, err := combine.Combine(combine.NewEngine(), docs, cfg.Combine, log)
		if err != nil {
			log.Error("combining documents failed", "err", err)
			return err
		}
		log.Info("created combined files", "count", len(artifacts))
		for _, a := range artifacts {
			report.Artifacts = append(report.Artifacts, a.Path)
		}
	}

	report.FinishedAt = time.Now()
	writeReport(cfg, report, log)
	return nil
}

// recordManifest persists the batch outcomes. Manifest trouble is never
// fatal to the run.
func recordManifest(path string, outcomes []download.Outcome, log *slog.Logger) {
	if path == "" {
		return
	}
	store, err := manifest.Open(path)
	if err != nil {
		log.Warn("opening download manifest failed", "path", path, "err", err)
		return
	}
	defer store.Close()

	if err := store.RecordBatch(outcomes); err != nil {
		log.Warn("recording download manifest failed", "path", path, "err", err)
	}
}

// writeReport writes the run summary next to the merged artifacts.
func writeReport(cfg types.PipelineConfig, report runReport, log *slog.Logger) {
	data, err := yaml.Marshal(report)
	if err != nil {
		log.Warn("marshaling run report failed", "err", err)
		return
	}
	path := filepath.Join(cfg.Combine.OutputDir, "report.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Warn("writing run report failed", "path", path, "err", err)
		return
	}
	log.Info("wrote run report", "path", path)
}
