// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package combine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/pdiddy/memo-combiner/pkg/types"
)

// fakeEngine serves canned word counts and records merges, writing a
// placeholder file for each artifact so on-disk behavior is observable.
type fakeEngine struct {
	words    map[string]int
	countErr map[string]error
	mergeErr map[string]error // keyed by first input file
	merged   [][]string
}

func (f *fakeEngine) CountWords(pdfPath string) (int, error) {
	if err := f.countErr[pdfPath]; err != nil {
		return 0, err
	}
	return f.words[pdfPath], nil
}

func (f *fakeEngine) Merge(inFiles []string, outPath string) error {
	if len(inFiles) > 0 {
		if err := f.mergeErr[inFiles[0]]; err != nil {
			return err
		}
	}
	f.merged = append(f.merged, append([]string(nil), inFiles...))
	return os.WriteFile(outPath, []byte("merged"), 0o644)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func docs(names ...string) []types.Document {
	var out []types.Document
	for _, n := range names {
		out = append(out, types.Document{
			URL:  "https://example.gov/" + n,
			Path: "/pdfs/" + n,
		})
	}
	return out
}

func engineWith(counts map[string]int) *fakeEngine {
	return &fakeEngine{
		words:    counts,
		countErr: map[string]error{},
		mergeErr: map[string]error{},
	}
}

func TestCombineSplitsOnWordBudget(t *testing.T) {
	// limit=100, counts [40, 50, 30]: part 1 holds docs 1+2 (90),
	// part 2 holds doc 3.
	eng := engineWith(map[string]int{
		"/pdfs/a.pdf": 40,
		"/pdfs/b.pdf": 50,
		"/pdfs/c.pdf": 30,
	})
	cfg := types.CombineConfig{OutputDir: t.TempDir(), WordLimit: 100}

	artifacts, err := Combine(eng, docs("a.pdf", "b.pdf", "c.pdf"), cfg, testLogger())
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("len(artifacts) = %d, want 2", len(artifacts))
	}

	want := [][]string{
		{"/pdfs/a.pdf", "/pdfs/b.pdf"},
		{"/pdfs/c.pdf"},
	}
	assertMerges(t, eng.merged, want)

	for i, art := range artifacts {
		if art.PartIndex != i+1 {
			t.Errorf("artifacts[%d].PartIndex = %d, want %d", i, art.PartIndex, i+1)
		}
		if _, err := os.Stat(art.Path); err != nil {
			t.Errorf("artifact missing on disk: %v", err)
		}
	}
}

func TestCombineOversizedDocumentNeverSplit(t *testing.T) {
	eng := engineWith(map[string]int{"/pdfs/huge.pdf": 500})
	cfg := types.CombineConfig{OutputDir: t.TempDir(), WordLimit: 100}

	artifacts, err := Combine(eng, docs("huge.pdf"), cfg, testLogger())
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("len(artifacts) = %d, want 1", len(artifacts))
	}
	assertMerges(t, eng.merged, [][]string{{"/pdfs/huge.pdf"}})
}

func TestCombineOversizedAfterContent(t *testing.T) {
	// An oversized document flushes the pending bundle first, then
	// becomes its own artifact.
	eng := engineWith(map[string]int{
		"/pdfs/a.pdf":    40,
		"/pdfs/huge.pdf": 500,
		"/pdfs/b.pdf":    30,
	})
	cfg := types.CombineConfig{OutputDir: t.TempDir(), WordLimit: 100}

	artifacts, err := Combine(eng, docs("a.pdf", "huge.pdf", "b.pdf"), cfg, testLogger())
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(artifacts) != 3 {
		t.Fatalf("len(artifacts) = %d, want 3", len(artifacts))
	}
	want := [][]string{
		{"/pdfs/a.pdf"},
		{"/pdfs/huge.pdf"},
		{"/pdfs/b.pdf"},
	}
	assertMerges(t, eng.merged, want)
}

func TestCombineZeroWordDocumentNeverTriggersFlush(t *testing.T) {
	eng := engineWith(map[string]int{
		"/pdfs/a.pdf":     100,
		"/pdfs/empty.pdf": 0,
	})
	cfg := types.CombineConfig{OutputDir: t.TempDir(), WordLimit: 100}

	artifacts, err := Combine(eng, docs("a.pdf", "empty.pdf"), cfg, testLogger())
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	// 100 + 0 does not exceed 100, so both land in one artifact.
	if len(artifacts) != 1 {
		t.Fatalf("len(artifacts) = %d, want 1", len(artifacts))
	}
	assertMerges(t, eng.merged, [][]string{{"/pdfs/a.pdf", "/pdfs/empty.pdf"}})
}

func TestCombineEmptyInput(t *testing.T) {
	eng := engineWith(nil)
	cfg := types.CombineConfig{OutputDir: t.TempDir(), WordLimit: 100}

	artifacts, err := Combine(eng, nil, cfg, testLogger())
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if len(artifacts) != 0 {
		t.Errorf("len(artifacts) = %d, want 0 (empty bundle never written)", len(artifacts))
	}
}

func TestCombineDeterministic(t *testing.T) {
	counts := map[string]int{
		"/pdfs/a.pdf": 60, "/pdfs/b.pdf": 45,
		"/pdfs/c.pdf": 45, "/pdfs/d.pdf": 10,
	}
	cfg := types.CombineConfig{OutputDir: t.TempDir(), WordLimit: 100}
	input := docs("a.pdf", "b.pdf", "c.pdf", "d.pdf")

	first := engineWith(counts)
	if _, err := Combine(first, input, cfg, testLogger()); err != nil {
		t.Fatal(err)
	}
	second := engineWith(counts)
	if _, err := Combine(second, input, cfg, testLogger()); err != nil {
		t.Fatal(err)
	}

	if len(first.merged) != len(second.merged) {
		t.Fatalf("runs disagree: %d vs %d artifacts", len(first.merged), len(second.merged))
	}
	for i := range first.merged {
		if fmt.Sprint(first.merged[i]) != fmt.Sprint(second.merged[i]) {
			t.Errorf("artifact %d assignment differs: %v vs %v", i+1, first.merged[i], second.merged[i])
		}
	}
}

func TestCombineBudgetRespected(t *testing.T) {
	counts := map[string]int{
		"/pdfs/a.pdf": 30, "/pdfs/b.pdf": 30, "/pdfs/c.pdf": 30,
		"/pdfs/d.pdf": 30, "/pdfs/e.pdf": 150, "/pdfs/f.pdf": 10,
	}
	cfg := types.CombineConfig{OutputDir: t.TempDir(), WordLimit: 100}

	eng := engineWith(counts)
	_, err := Combine(eng, docs("a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf", "f.pdf"), cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	for _, files := range eng.merged {
		if len(files) == 0 {
			t.Fatal("empty artifact written")
		}
		total := 0
		for _, f := range files {
			total += counts[f]
		}
		if total > cfg.WordLimit && len(files) > 1 {
			t.Errorf("artifact %v totals %d words over limit %d", files, total, cfg.WordLimit)
		}
	}
}

func TestCombineCountErrorAbortsWholePass(t *testing.T) {
	eng := engineWith(map[string]int{
		"/pdfs/a.pdf": 90,
		"/pdfs/c.pdf": 10,
	})
	eng.countErr["/pdfs/corrupt.pdf"] = errors.New("malformed xref table")
	outDir := t.TempDir()
	cfg := types.CombineConfig{OutputDir: outDir, WordLimit: 100}

	artifacts, err := Combine(eng, docs("a.pdf", "corrupt.pdf", "c.pdf"), cfg, testLogger())
	if err == nil {
		t.Fatal("expected error for corrupt source")
	}
	if artifacts != nil {
		t.Errorf("artifacts = %v, want nil on abort", artifacts)
	}
}

func TestCombineAbortKeepsFlushedArtifacts(t *testing.T) {
	// Parts flushed before the failure are not cleaned up.
	eng := engineWith(map[string]int{
		"/pdfs/a.pdf": 90,
		"/pdfs/b.pdf": 90,
	})
	eng.countErr["/pdfs/corrupt.pdf"] = errors.New("malformed xref table")
	outDir := t.TempDir()
	cfg := types.CombineConfig{OutputDir: outDir, WordLimit: 100}

	// a flushes as part 1 when b arrives; corrupt then aborts.
	_, err := Combine(eng, docs("a.pdf", "b.pdf", "corrupt.pdf"), cfg, testLogger())
	if err == nil {
		t.Fatal("expected error")
	}

	entries, readErr := os.ReadDir(outDir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 1 {
		t.Errorf("flushed artifacts on disk = %d, want 1", len(entries))
	}
}

func TestCombineMergeErrorAborts(t *testing.T) {
	eng := engineWith(map[string]int{
		"/pdfs/a.pdf": 90,
		"/pdfs/b.pdf": 90,
	})
	eng.mergeErr["/pdfs/a.pdf"] = errors.New("disk full")
	cfg := types.CombineConfig{OutputDir: t.TempDir(), WordLimit: 100}

	artifacts, err := Combine(eng, docs("a.pdf", "b.pdf"), cfg, testLogger())
	if err == nil {
		t.Fatal("expected merge error to abort")
	}
	if artifacts != nil {
		t.Errorf("artifacts = %v, want nil", artifacts)
	}
}

func TestCombineArtifactNaming(t *testing.T) {
	eng := engineWith(map[string]int{"/pdfs/a.pdf": 10})
	cfg := types.CombineConfig{OutputDir: t.TempDir(), WordLimit: 100}

	artifacts, err := Combine(eng, docs("a.pdf"), cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("len(artifacts) = %d, want 1", len(artifacts))
	}

	name := filepath.Base(artifacts[0].Path)
	pattern := regexp.MustCompile(`^combined_memos_part1_\d{8}_\d{6}\.pdf$`)
	if !pattern.MatchString(name) {
		t.Errorf("artifact name %q does not match %v", name, pattern)
	}
	if artifacts[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func assertMerges(t *testing.T, got, want [][]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("merges = %v, want %v", got, want)
	}
	for i := range want {
		if fmt.Sprint(got[i]) != fmt.Sprint(want[i]) {
			t.Errorf("merge %d = %v, want %v", i+1, got[i], want[i])
		}
	}
}
