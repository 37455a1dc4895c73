// Package cli validates options, wires the pipeline, and renders the
// terminal output around a run.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rajpurkarlab/deidentification-tools/internal/catalog"
	"github.com/rajpurkarlab/deidentification-tools/internal/config"
	"github.com/rajpurkarlab/deidentification-tools/internal/deidentify"
	"github.com/rajpurkarlab/deidentification-tools/internal/reconstruct"
	"github.com/rajpurkarlab/deidentification-tools/internal/report"
)

// Options holds the merged command-line and config-file settings.
type Options struct {
	DataDir        string
	LogLevel       string
	Workers        int
	MinimalTags    string
	AdditionalTags string
	TransformTags  string
	Reconstruct    bool
	DirectDicom    bool
	NoColor        bool
}

// FromSettings seeds options from the config file values; flags overwrite
// individual fields afterwards.
func FromSettings(s config.Settings) Options {
	return Options{
		DataDir:        s.DataDir,
		LogLevel:       s.LogLevel,
		Workers:        s.Workers,
		MinimalTags:    s.MinimalTags,
		AdditionalTags: s.AdditionalTags,
		TransformTags:  s.TransformTags,
	}
}

// Run executes one invocation: either the extraction pipeline or, with
// Reconstruct set, the CSV-plus-PNG to DICOM rebuild of a previous run.
func Run(opts Options) error {
	info, err := os.Stat(opts.DataDir)
	if err != nil {
		return fmt.Errorf("data directory does not exist: %s", opts.DataDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path is not a directory: %s", opts.DataDir)
	}

	rep := report.NewConsole(os.Stderr, report.ParseLevel(opts.LogLevel))
	if opts.NoColor {
		rep = rep.NoColor()
	}

	catPaths := catalog.Paths{
		Minimal:    opts.MinimalTags,
		Additional: opts.AdditionalTags,
		Transform:  opts.TransformTags,
	}

	if opts.Reconstruct {
		return runReconstruct(opts, catPaths, rep)
	}

	printHeader(opts)

	cfg := deidentify.Config{
		DataDir:     opts.DataDir,
		Catalog:     catPaths,
		Workers:     opts.Workers,
		DirectDicom: opts.DirectDicom,
		Reporter:    rep,
	}

	// Verbose logging and an in-place bar fight over the terminal; the
	// bar yields.
	if rep.Level() > report.LevelInfo {
		pb := newProgressBar(50)
		cfg.Progress = func(done, total int) {
			pb.update(done, total)
		}
	}

	stats, err := deidentify.Run(cfg)
	if err != nil {
		return err
	}
	if cfg.Progress != nil && stats.Found > 0 {
		fmt.Println()
	}

	printSummary(stats, deidentify.OutputDir(opts.DataDir))
	return nil
}

// runReconstruct rebuilds DICOM files from a previous run's output
// directory.
func runReconstruct(opts Options, catPaths catalog.Paths, rep report.Reporter) error {
	cat, err := catalog.Load(catPaths)
	if err != nil {
		return err
	}

	outputDir := deidentify.OutputDir(opts.DataDir)
	metadataPath := filepath.Join(outputDir, deidentify.MetadataFileName)
	imagesDir := filepath.Join(outputDir, deidentify.ImagesDirName)

	stats, err := reconstruct.Run(metadataPath, imagesDir, cat, rep)
	if err != nil {
		return err
	}

	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Reconstruction complete! %d built, %d skipped, %d failed\n",
		stats.Built, stats.Skipped, stats.Failed)
	fmt.Printf("Output:    %s\n", imagesDir)
	return nil
}

// printHeader prints the run configuration.
func printHeader(opts Options) {
	fmt.Println("DICOM De-identification")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Data:      %s\n", opts.DataDir)
	fmt.Printf("Output:    %s\n", deidentify.OutputDir(opts.DataDir))
	fmt.Printf("Workers:   %d\n", opts.Workers)

	var options []string
	if opts.DirectDicom {
		options = append(options, "Direct DICOM")
	}
	if len(options) > 0 {
		fmt.Printf("Options:   %s\n", strings.Join(options, ", "))
	}
	fmt.Println()
}

// printSummary prints the processing summary.
func printSummary(stats *deidentify.Stats, outputDir string) {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Complete! %d extracted, %d failed of %d found\n",
		stats.Extracted, stats.Failed, stats.Found)
	fmt.Printf("Output:    %s\n", outputDir)
	fmt.Printf("Metadata:  %s\n", filepath.Join(outputDir, deidentify.MetadataFileName))
	fmt.Println()
	fmt.Println("Remember to look over all images and all CSVs manually to")
	fmt.Println("ensure that there is no personal health information (PHI).")
}

// progressBar renders an in-place terminal progress bar.
type progressBar struct {
	width int
}

func newProgressBar(width int) *progressBar {
	return &progressBar{width: width}
}

func (pb *progressBar) update(current, total int) {
	if total == 0 {
		return
	}

	percent := float64(current) / float64(total)
	filled := int(percent * float64(pb.width))
	if filled > pb.width {
		filled = pb.width
	}

	bar := strings.Repeat("#", filled) + strings.Repeat("-", pb.width-filled)
	fmt.Printf("\r[%s] %3.0f%%  (%d/%d)", bar, percent*100, current, total)
}
