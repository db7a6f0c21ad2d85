// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches documents with freshness checks and bounded
// retries. Each URL is processed independently: a failure on one URL
// never prevents processing of subsequent URLs.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/pdiddy/memo-combiner/internal/httputil"
	"github.com/pdiddy/memo-combiner/pkg/types"
)

// Status classifies the outcome of one URL.
type Status string

const (
	// StatusDownloaded means the document was fetched and written.
	StatusDownloaded Status = "downloaded"
	// StatusSkipped means the local copy was already current.
	StatusSkipped Status = "skipped"
	// StatusFailed means the document could not be fetched.
	StatusFailed Status = "failed"
)

// Outcome is the per-URL result of the download stage. Expected failure
// conditions (not found, exhausted retries) surface here as data, never
// as errors propagated up the call stack.
type Outcome struct {
	URL       string
	LocalPath string
	Status    Status
	Reason    string
}

// Result aggregates the outcomes of one batch in input order.
type Result struct {
	// Outcomes holds one entry per input URL, in input order.
	Outcomes []Outcome

	// Failed lists the URLs that could not be fetched, in input order.
	Failed []string

	docs  []types.Document
	paths map[string]string
}

// Documents returns the successfully available documents (downloaded or
// skipped) preserving the input URL ordering. A URL listed twice yields
// a single document.
func (r *Result) Documents() []types.Document {
	return r.docs
}

// Path reports the local path recorded for url.
func (r *Result) Path(url string) (string, bool) {
	p, ok := r.paths[url]
	return p, ok
}

// Downloaded counts outcomes with StatusDownloaded.
func (r *Result) Downloaded() int { return r.count(StatusDownloaded) }

// Skipped counts outcomes with StatusSkipped.
func (r *Result) Skipped() int { return r.count(StatusSkipped) }

// HasFailures reports whether any URL failed.
func (r *Result) HasFailures() bool { return len(r.Failed) > 0 }

func (r *Result) count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

func (r *Result) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Status == StatusFailed {
		r.Failed = append(r.Failed, o.URL)
		return
	}
	if _, seen := r.paths[o.URL]; !seen {
		r.docs = append(r.docs, types.Document{URL: o.URL, Path: o.LocalPath})
	}
	r.paths[o.URL] = o.LocalPath
}

// FetchAll downloads the given URLs sequentially. For each URL it skips
// the fetch when the local copy is current, otherwise fetches with
// bounded retries and writes the body atomically into the download
// directory. The returned Result maps every successful URL to a local
// file.
func FetchAll(ctx context.Context, client *http.Client, urls []string, cfg types.DownloadConfig, log *slog.Logger) *Result {
	result := &Result{paths: make(map[string]string)}

	for _, u := range urls {
		result.add(fetchOne(ctx, client, u, cfg, log))
	}

	log.Info("download batch complete",
		"total", len(result.Outcomes),
		"downloaded", result.Downloaded(),
		"skipped", result.Skipped(),
		"failed", len(result.Failed))
	return result
}

func fetchOne(ctx context.Context, client *http.Client, rawURL string, cfg types.DownloadConfig, log *slog.Logger) Outcome {
	target, err := targetPath(rawURL, cfg.DownloadDir)
	if err != nil {
		log.Error("unusable document URL", "url", rawURL, "err", err)
		return Outcome{URL: rawURL, Status: StatusFailed, Reason: err.Error()}
	}

	if !shouldDownload(ctx, client, rawURL, target, cfg, log) {
		log.Info("skipping current file", "url", rawURL, "path", target)
		return Outcome{URL: rawURL, LocalPath: target, Status: StatusSkipped}
	}

	resp, err := httputil.GetWithRetry(ctx, client, rawURL, cfg.UserAgent, cfg.MaxRetries, log)
	if err != nil {
		if errors.Is(err, httputil.ErrNotFound) {
			log.Warn("file not found", "url", rawURL)
			return Outcome{URL: rawURL, Status: StatusFailed, Reason: "not found"}
		}
		log.Error("download failed", "url", rawURL, "err", err)
		return Outcome{URL: rawURL, Status: StatusFailed, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if err := writeFile(resp.Body, target); err != nil {
		log.Error("writing download failed", "url", rawURL, "err", err)
		return Outcome{URL: rawURL, Status: StatusFailed, Reason: err.Error()}
	}

	log.Info("downloaded", "url", rawURL, "path", target)
	return Outcome{URL: rawURL, LocalPath: target, Status: StatusDownloaded}
}

// targetPath derives the local path for a URL: the base filename of the
// URL path component joined with the download directory.
func targetPath(rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing URL: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("URL has no file component: %s", rawURL)
	}
	return filepath.Join(dir, name), nil
}

// shouldDownload implements the freshness check. The fetch is skipped
// only when force is off, a non-empty file exists locally, and a HEAD
// probe reports a remote byte length equal to the local size. Probe
// errors fail open toward re-fetching.
func shouldDownload(ctx context.Context, client *http.Client, rawURL, target string, cfg types.DownloadConfig, log *slog.Logger) bool {
	if cfg.Force {
		return true
	}

	info, err := os.Stat(target)
	if err != nil || info.Size() == 0 {
		return true
	}

	remote, err := httputil.ContentLength(ctx, client, rawURL, cfg.UserAgent)
	if err != nil {
		log.Warn("size probe failed, re-downloading", "url", rawURL, "err", err)
		return true
	}

	return remote != info.Size()
}

// writeFile copies body to destPath via a temporary file in the same
// directory, renaming on success so a partial download never lands at
// the target path.
func writeFile(body io.Reader, destPath string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
