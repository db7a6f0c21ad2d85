// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package combine repacks downloaded documents into merged PDF artifacts
// bounded by a word budget.
//
// Unlike the download stage, which isolates failures per URL, a combine
// pass fails as a whole: the first unrecoverable I/O error aborts the
// pass and no further artifacts are produced. Artifacts flushed before
// the error stay on disk. This asymmetry is inherited behavior and is
// kept deliberately.
package combine

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pdiddy/memo-combiner/pkg/types"
)

// Engine abstracts the PDF operations the planner needs, so tests can
// substitute a fake backend.
type Engine interface {
	// CountWords reports the approximate word count of the PDF at
	// pdfPath: all page text extractions concatenated and split on
	// whitespace.
	CountWords(pdfPath string) (int, error)

	// Merge writes the concatenation of inFiles, in order, to outPath.
	Merge(inFiles []string, outPath string) error
}

// bundle is an in-progress accumulation of source files plus a running
// word-count total. It exists only within one combine pass.
type bundle struct {
	files []string
	words int
}

// Combine partitions documents, in input order, into successive merged
// artifacts whose word counts stay within cfg.WordLimit. A document
// larger than the whole budget is never split: it becomes the sole
// member of its artifact. The flush check fires only when the current
// bundle already has content, so an oversized document cannot force an
// empty artifact.
//
// On any I/O error Combine returns nil and the error; artifacts already
// flushed are not removed.
func Combine(engine Engine, docs []types.Document, cfg types.CombineConfig, log *slog.Logger) ([]types.Artifact, error) {
	var artifacts []types.Artifact
	var cur bundle
	part := 1

	for _, doc := range docs {
		words, err := engine.CountWords(doc.Path)
		if err != nil {
			log.Error("combine aborted", "path", doc.Path, "err", err)
			return nil, fmt.Errorf("counting words in %s: %w", doc.Path, err)
		}

		if cur.words+words > cfg.WordLimit && cur.words > 0 {
			art, err := flush(engine, cur, part, cfg.OutputDir, log)
			if err != nil {
				log.Error("combine aborted", "part", part, "err", err)
				return nil, err
			}
			artifacts = append(artifacts, art)
			part++
			cur = bundle{}
		}

		cur.files = append(cur.files, doc.Path)
		cur.words += words
	}

	if len(cur.files) > 0 {
		art, err := flush(engine, cur, part, cfg.OutputDir, log)
		if err != nil {
			log.Error("combine aborted", "part", part, "err", err)
			return nil, err
		}
		artifacts = append(artifacts, art)
	}

	return artifacts, nil
}

// flush writes the bundle as the next numbered artifact.
func flush(engine Engine, b bundle, part int, outDir string, log *slog.Logger) (types.Artifact, error) {
	now := time.Now()
	name := fmt.Sprintf("combined_memos_part%d_%s.pdf", part, now.Format("20060102_150405"))
	outPath := filepath.Join(outDir, name)

	if err := engine.Merge(b.files, outPath); err != nil {
		return types.Artifact{}, fmt.Errorf("writing part %d: %w", part, err)
	}

	log.Info("created combined part",
		"part", part, "path", outPath, "files", len(b.files), "words", b.words)
	return types.Artifact{Path: outPath, PartIndex: part, CreatedAt: now}, nil
}
