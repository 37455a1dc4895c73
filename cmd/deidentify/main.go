package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/rajpurkarlab/deidentification-tools/internal/cli"
	"github.com/rajpurkarlab/deidentification-tools/internal/config"
)

func main() {
	flag.StringP("config", "c", "", "Path to an INI settings file")

	// Flag defaults come from the config file, so parse it first with a
	// throwaway flag set.
	peek := flag.NewFlagSet("peek", flag.ContinueOnError)
	peek.ParseErrorsWhitelist.UnknownFlags = true
	peek.Usage = func() {}
	peekConfig := peek.StringP("config", "c", "", "")
	_ = peek.Parse(os.Args[1:])

	settings, err := config.Load(*peekConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load config: %v\n", err)
		os.Exit(1)
	}
	opts := cli.FromSettings(settings)

	flag.StringVarP(&opts.DataDir, "data-dir", "d", opts.DataDir, "Root of the patient/study folder tree")
	flag.StringVarP(&opts.LogLevel, "log-level", "l", opts.LogLevel, "Minimum reported severity (INFO, WARNING, ERROR)")
	flag.IntVarP(&opts.Workers, "workers", "w", opts.Workers, "Concurrent file processing limit")
	flag.StringVar(&opts.MinimalTags, "minimal-tags", opts.MinimalTags, "CSV overriding the embedded minimal keyword list")
	flag.StringVar(&opts.AdditionalTags, "additional-tags", opts.AdditionalTags, "CSV overriding the embedded additional keyword list")
	flag.StringVar(&opts.TransformTags, "transform-tags", opts.TransformTags, "CSV overriding the embedded transform keyword list")
	flag.BoolVarP(&opts.Reconstruct, "reconstruct", "r", false, "Rebuild DICOM files from a previous run's CSV and PNGs")
	flag.BoolVar(&opts.DirectDicom, "direct-dicom", false, "Also write the rebuilt DICOM next to each PNG during extraction")
	flag.BoolVar(&opts.NoColor, "no-color", false, "Disable ANSI colors in log output")
	flag.Parse()

	if err := cli.Run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
