// Package deidentify orchestrates the extraction pipeline: discover source
// files, scrub each one into a PNG plus a metadata row, and write the
// combined CSV.
package deidentify

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rajpurkarlab/deidentification-tools/internal/catalog"
	"github.com/rajpurkarlab/deidentification-tools/internal/dicomio"
	"github.com/rajpurkarlab/deidentification-tools/internal/discovery"
	"github.com/rajpurkarlab/deidentification-tools/internal/extract"
	"github.com/rajpurkarlab/deidentification-tools/internal/identity"
	"github.com/rajpurkarlab/deidentification-tools/internal/raster"
	"github.com/rajpurkarlab/deidentification-tools/internal/report"
)

// Output layout, relative to the data directory's parent.
const (
	OutputDirName    = "deidentified_data"
	ImagesDirName    = "images"
	MetadataFileName = "extracted_metadata.csv"
)

// Config holds one pipeline run's settings.
type Config struct {
	// DataDir is the root of the patient/study folder tree.
	DataDir string
	// Catalog overrides the embedded keyword lists when set.
	Catalog catalog.Paths
	// Workers bounds concurrent file processing; values below 1 mean 1.
	Workers int
	// DirectDicom additionally writes the rebuilt DICOM next to each PNG,
	// without requiring a later reconstruction pass.
	DirectDicom bool
	Reporter    report.Reporter
	// Progress, when set, is called after each file with (done, total).
	Progress func(done, total int)
}

// Stats holds processing counts for the run summary.
type Stats struct {
	Found     int
	Extracted int
	Failed    int
}

// OutputDir returns the output root: a deidentified_data directory placed
// next to the data directory, never inside it.
func OutputDir(dataDir string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(dataDir)), OutputDirName)
}

// Run executes the extraction pipeline. Catalog problems abort before any
// file is touched; per-file failures are reported and counted without
// stopping the batch.
func Run(cfg Config) (*Stats, error) {
	rep := cfg.Reporter
	if rep == nil {
		rep = report.Nop{}
	}

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	records, err := discovery.Walk(cfg.DataDir, rep)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Found: len(records)}
	if len(records) == 0 {
		rep.Warn("No DICOM files found in %s", cfg.DataDir)
		return stats, nil
	}

	outputDir := OutputDir(cfg.DataDir)
	imagesDir := filepath.Join(outputDir, ImagesDirName)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create output directory: %w", err)
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}

	// Rows keep the discovery order regardless of worker scheduling; a
	// failed file leaves a nil slot that is compacted before writing.
	rows := make([]map[string]any, len(records))

	var wg sync.WaitGroup
	var mu sync.Mutex
	done := 0
	sem := make(chan struct{}, workers)

	for i, rec := range records {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, rec discovery.SourceRecord) {
			defer wg.Done()
			defer func() { <-sem }()

			row, err := processFile(rec, cat, cfg.DirectDicom, imagesDir, rep)

			mu.Lock()
			if err != nil {
				rep.Error("could not process %s: %v", rec.Path, err)
				stats.Failed++
			} else {
				rows[i] = row
				stats.Extracted++
			}
			done++
			if cfg.Progress != nil {
				cfg.Progress(done, len(records))
			}
			mu.Unlock()
		}(i, rec)
	}
	wg.Wait()

	kept := rows[:0]
	for _, row := range rows {
		if row != nil {
			kept = append(kept, row)
		}
	}

	csvPath := filepath.Join(outputDir, MetadataFileName)
	if err := extract.WriteCSV(csvPath, kept); err != nil {
		return nil, err
	}

	rep.Success("De-identification complete: %d of %d file(s) extracted to %s",
		stats.Extracted, stats.Found, outputDir)
	rep.Warn("Review the output for residual PHI before sharing it.")

	return stats, nil
}

// processFile scrubs one source file into a metadata row and its PNG.
func processFile(rec discovery.SourceRecord, cat *catalog.Catalog, directDicom bool, imagesDir string, rep report.Reporter) (map[string]any, error) {
	ds, err := dicomio.ReadFile(rec.Path)
	if err != nil {
		return nil, err
	}

	ids := identity.Substitute(rec.PatientIndex, rec.StudyIndex, rec.InstanceIndex)

	record, err := extract.Extract(ds, cat, ids, rep)
	if err != nil {
		return nil, err
	}

	pixels, err := ds.Pixels()
	if err != nil {
		return nil, err
	}

	base := identity.OutputBase(rec.PatientFolder, rec.StudyFolder, rec.Filename)
	pngPath := filepath.Join(imagesDir, base+".png")
	if err := raster.Encode(pixels.Normalize(), pngPath); err != nil {
		return nil, err
	}

	if directDicom {
		if err := writeDirect(record, pixels, filepath.Join(imagesDir, base+identity.GeneratedDicomSuffix)); err != nil {
			return nil, err
		}
	}

	row := make(map[string]any, len(record.All)+1)
	for k, v := range record.All {
		row[k] = v
	}
	row[extract.FilenameColumn] = identity.OutputStem(rec.Filename)
	return row, nil
}

// writeDirect rebuilds the synthetic DICOM straight from the in-memory
// record, skipping the PNG and CSV round trip.
func writeDirect(record *extract.Record, pixels *dicomio.PixelImage, outPath string) error {
	implicitVR, _ := record.Header[dicomio.ImplicitVRKey].(bool)
	littleEndian, _ := record.Header[dicomio.LittleEndianKey].(bool)

	fileMeta := make(map[string]any)
	for _, kw := range dicomio.FileMetaKeywords {
		if v, ok := record.Header[kw]; ok {
			fileMeta[kw] = v
		}
	}

	ds, err := dicomio.Build(dicomio.BuildInput{
		Pixels:       pixels,
		Entries:      record.Minimal,
		FileMeta:     fileMeta,
		ImplicitVR:   implicitVR,
		LittleEndian: littleEndian,
	})
	if err != nil {
		return err
	}
	return dicomio.Save(ds, outPath)
}
