package types

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig(t *testing.T) PipelineConfig {
	t.Helper()
	dir := t.TempDir()
	return PipelineConfig{
		Download: DownloadConfig{DownloadDir: filepath.Join(dir, "pdfs")},
		Combine:  CombineConfig{OutputDir: filepath.Join(dir, "combined")},
		Log:      LogConfig{LogDir: filepath.Join(dir, "logs")},
	}
}

func TestValidateCreatesDirectories(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for _, dir := range []string{cfg.Download.DownloadDir, cfg.Combine.OutputDir, cfg.Log.LogDir} {
		if !dirExists(t, dir) {
			t.Errorf("directory not created: %s", dir)
		}
	}
}

func TestValidateRejectsRelativeDownloadDir(t *testing.T) {
	cfg := validConfig(t)
	cfg.Download.DownloadDir = "relative/pdfs"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for relative download dir")
	}
	if !strings.Contains(err.Error(), "must be absolute") {
		t.Errorf("error = %q, want 'must be absolute'", err)
	}
}

func TestValidateRejectsRelativeOutputDir(t *testing.T) {
	cfg := validConfig(t)
	cfg.Combine.OutputDir = "relative/combined"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for relative output dir")
	}
}

func dirExists(t *testing.T, dir string) bool {
	t.Helper()
	info, err := os.Stat(dir)
	if err != nil {
		return false
	}
	return info.IsDir()
}
