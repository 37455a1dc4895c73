// Package catalog loads and validates the tag keyword lists that drive
// metadata extraction. The three lists are immutable after load:
//
//   - minimal: tags a DICOM file cannot be opened without
//   - additional: non-PHI tags beyond the minimal set
//   - transform: PHI-bearing tags that are converted to coarse derivatives
//
// Every keyword is checked against the DICOM data dictionary up front; an
// unknown keyword is a configuration error that aborts the run before any
// file is processed.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"

	dicomtags "github.com/rajpurkarlab/deidentification-tools/dicom_tags"
)

// Catalog holds the three keyword lists in file order.
type Catalog struct {
	Minimal    []string
	Additional []string
	Transform  []string
}

// Paths points at the three keyword CSVs. Empty fields fall back to the
// embedded defaults.
type Paths struct {
	Minimal    string
	Additional string
	Transform  string
}

// Load reads the three keyword lists and validates every keyword against
// the data dictionary.
func Load(p Paths) (*Catalog, error) {
	c := &Catalog{}
	var err error

	if c.Minimal, err = loadKeywords(p.Minimal, dicomtags.MinimalFile); err != nil {
		return nil, fmt.Errorf("minimal tags: %w", err)
	}
	if c.Additional, err = loadKeywords(p.Additional, dicomtags.AdditionalFile); err != nil {
		return nil, fmt.Errorf("additional tags: %w", err)
	}
	if c.Transform, err = loadKeywords(p.Transform, dicomtags.TransformFile); err != nil {
		return nil, fmt.Errorf("transform tags: %w", err)
	}

	return c, nil
}

func loadKeywords(path, embedded string) ([]string, error) {
	var r io.ReadCloser
	var err error
	if path != "" {
		r, err = os.Open(path)
	} else {
		var f fs.File
		f, err = dicomtags.FS.Open(embedded)
		r = f
	}
	if err != nil {
		return nil, err
	}
	defer r.Close()

	keywords, err := readKeywordColumn(r)
	if err != nil {
		return nil, err
	}
	if err := ValidateKeywords(keywords); err != nil {
		return nil, err
	}
	return keywords, nil
}

// readKeywordColumn parses a CSV with a "Keyword" column and returns the
// column's values in order.
func readKeywordColumn(r io.Reader) ([]string, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty keyword file")
	}

	col := -1
	for i, name := range records[0] {
		if strings.TrimSpace(name) == "Keyword" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("no Keyword column in header %v", records[0])
	}

	var keywords []string
	for _, row := range records[1:] {
		if col >= len(row) {
			continue
		}
		kw := strings.TrimSpace(row[col])
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords, nil
}

// ValidateKeywords checks every keyword against the DICOM data dictionary
// and reports all invalid ones at once.
func ValidateKeywords(keywords []string) error {
	var invalid []string
	for _, kw := range keywords {
		if _, err := tag.FindByName(kw); err != nil {
			invalid = append(invalid, kw)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid keywords %v", invalid)
	}
	return nil
}
