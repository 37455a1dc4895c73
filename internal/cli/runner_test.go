package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rajpurkarlab/deidentification-tools/internal/config"
)

func TestRunRejectsBadDataDir(t *testing.T) {
	if err := Run(Options{DataDir: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("expected error for a missing data directory")
	}

	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Run(Options{DataDir: file}); err == nil {
		t.Error("expected error for a non-directory data path")
	}
}

func TestFromSettings(t *testing.T) {
	s := config.Settings{
		DataDir:     "/srv/data",
		LogLevel:    "INFO",
		Workers:     3,
		MinimalTags: "min.csv",
	}

	opts := FromSettings(s)
	if opts.DataDir != s.DataDir || opts.LogLevel != s.LogLevel || opts.Workers != s.Workers {
		t.Errorf("opts = %+v", opts)
	}
	if opts.MinimalTags != "min.csv" || opts.Reconstruct || opts.DirectDicom {
		t.Errorf("opts = %+v", opts)
	}
}
