// Package reconstruct rebuilds synthetic DICOM files from the two scrubbed
// artifacts: a metadata CSV row and its rendered PNG.
package reconstruct

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"

	"github.com/rajpurkarlab/deidentification-tools/internal/catalog"
	"github.com/rajpurkarlab/deidentification-tools/internal/dicomio"
	"github.com/rajpurkarlab/deidentification-tools/internal/extract"
	"github.com/rajpurkarlab/deidentification-tools/internal/identity"
	"github.com/rajpurkarlab/deidentification-tools/internal/raster"
	"github.com/rajpurkarlab/deidentification-tools/internal/report"
)

// Stats counts per-row outcomes of a reconstruction batch.
type Stats struct {
	Built   int
	Skipped int
	Failed  int
}

// Run reads the metadata CSV and rebuilds one DICOM per row next to the
// row's PNG. A row with no matching PNG, or more than one, is skipped with
// a warning; a failed rebuild aborts that row only.
func Run(metadataPath, imageDir string, cat *catalog.Catalog, rep report.Reporter) (*Stats, error) {
	rows, err := readRows(metadataPath)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, row := range rows {
		name := row[extract.FilenameColumn]

		matches, err := filepath.Glob(filepath.Join(imageDir, "*"+name+".png"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			rep.Warn("Corresponding PNG for %s not found. Skip.", name)
			stats.Skipped++
			continue
		}
		if len(matches) > 1 {
			rep.Warn("More than one PNG found for %s. Skip.", name)
			stats.Skipped++
			continue
		}
		pngPath := matches[0]

		ds, err := FromRow(row, pngPath, cat)
		if err != nil {
			rep.Error("could not reconstruct %s: %v", name, err)
			stats.Failed++
			continue
		}

		outPath := strings.TrimSuffix(pngPath, ".png") + identity.GeneratedDicomSuffix
		if err := dicomio.Save(ds, outPath); err != nil {
			rep.Error("could not save %s: %v", outPath, err)
			stats.Failed++
			continue
		}
		stats.Built++
	}

	return stats, nil
}

// FromRow rebuilds a synthetic dataset from one metadata row plus its PNG.
func FromRow(row map[string]string, pngPath string, cat *catalog.Catalog) (dicom.Dataset, error) {
	pixels, err := recoverPixels(row, pngPath)
	if err != nil {
		return dicom.Dataset{}, err
	}

	entries := make(map[string]any)
	for _, keyword := range cat.Minimal {
		if keyword == "PixelData" {
			continue
		}
		if v, ok := row[keyword]; ok && v != "" {
			entries[keyword] = v
		}
	}

	fileMeta, err := recoverFileMeta(row)
	if err != nil {
		return dicom.Dataset{}, err
	}

	implicitVR, err := rowBool(row, dicomio.ImplicitVRKey)
	if err != nil {
		return dicom.Dataset{}, err
	}
	littleEndian, err := rowBool(row, dicomio.LittleEndianKey)
	if err != nil {
		return dicom.Dataset{}, err
	}

	return dicomio.Build(dicomio.BuildInput{
		Pixels:       pixels,
		Entries:      entries,
		FileMeta:     fileMeta,
		ImplicitVR:   implicitVR,
		LittleEndian: littleEndian,
	})
}

// recoverPixels decodes the PNG and undoes the export normalization using
// the bit attributes recovered from the row.
func recoverPixels(row map[string]string, pngPath string) (*dicomio.PixelImage, error) {
	pixels, err := raster.Decode(pngPath)
	if err != nil {
		return nil, err
	}

	bitsAllocated, err := rowInt(row, "BitsAllocated")
	if err != nil {
		return nil, err
	}
	bitsStored, err := rowInt(row, "BitsStored")
	if err != nil {
		return nil, err
	}
	if bitsAllocated != pixels.BitsAllocated {
		return nil, fmt.Errorf("BitsAllocated %d does not match PNG sample width %d",
			bitsAllocated, pixels.BitsAllocated)
	}

	pixels.BitsStored = bitsStored
	pixels.PhotometricInterpretation = row["PhotometricInterpretation"]
	return pixels.Denormalize(), nil
}

// recoverFileMeta parses the carried file-meta columns back into their
// native forms. The group length column is ignored; the codec recomputes
// it on write.
func recoverFileMeta(row map[string]string) (map[string]any, error) {
	meta := make(map[string]any)

	if uid := row["TransferSyntaxUID"]; uid != "" {
		meta["TransferSyntaxUID"] = uid
	}
	if v := row["FileMetaInformationVersion"]; v != "" {
		b, err := parseByteList(v)
		if err != nil {
			return nil, fmt.Errorf("FileMetaInformationVersion: %w", err)
		}
		meta["FileMetaInformationVersion"] = b
	}

	return meta, nil
}

// parseByteList parses the "[0, 1]" cell form back into raw bytes.
func parseByteList(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	var out []byte
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return nil, fmt.Errorf("byte literal %q out of range", part)
		}
		out = append(out, byte(n))
	}
	return out, nil
}

func rowInt(row map[string]string, key string) (int, error) {
	v, ok := row[key]
	if !ok || v == "" {
		return 0, fmt.Errorf("row has no %s", key)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func rowBool(row map[string]string, key string) (bool, error) {
	v, ok := row[key]
	if !ok || v == "" {
		return false, fmt.Errorf("row has no %s", key)
	}
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// readRows loads the CSV into one map per row, keyed by column name.
func readRows(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open metadata CSV: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("could not read metadata CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("metadata CSV %s is empty", path)
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
