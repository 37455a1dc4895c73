// Package extract pulls de-identified metadata out of parsed DICOM
// datasets and serializes it to the tabular export.
package extract

import (
	"fmt"

	"github.com/rajpurkarlab/deidentification-tools/internal/catalog"
	"github.com/rajpurkarlab/deidentification-tools/internal/dicomio"
	"github.com/rajpurkarlab/deidentification-tools/internal/identity"
	"github.com/rajpurkarlab/deidentification-tools/internal/report"
	"github.com/rajpurkarlab/deidentification-tools/internal/transform"
)

// Record is the extracted metadata of one source file, split into the four
// categories plus their merge. The "All" map merges with later-wins
// precedence: minimal < additional < special < header.
type Record struct {
	Minimal    map[string]any
	Additional map[string]any
	Special    map[string]any
	Header     map[string]any
	All        map[string]any
	Filename   string
}

// Extract builds the de-identified metadata record for a dataset. The five
// identity keywords in the minimal map are always overwritten with the
// synthetic identifiers, regardless of what the file contained.
func Extract(ds *dicomio.Dataset, cat *catalog.Catalog, ids identity.Identifiers, rep report.Reporter) (*Record, error) {
	header, err := ds.Header()
	if err != nil {
		return nil, fmt.Errorf("header extraction: %w", err)
	}

	rec := &Record{
		Minimal:    fromCatalog(ds, cat.Minimal),
		Additional: fromCatalog(ds, cat.Additional),
		Special:    special(ds, cat.Transform, rep),
		Header:     header.Map(),
	}

	for k, v := range ids.Map() {
		rec.Minimal[k] = v
	}

	rec.All = make(map[string]any)
	for _, m := range []map[string]any{rec.Minimal, rec.Additional, rec.Special, rec.Header} {
		for k, v := range m {
			rec.All[k] = v
		}
	}

	return rec, nil
}

// fromCatalog reads every listed keyword that is present in the dataset.
// PixelData is never extracted even when listed.
func fromCatalog(ds *dicomio.Dataset, keywords []string) map[string]any {
	out := make(map[string]any)
	for _, keyword := range keywords {
		if keyword == "PixelData" {
			continue
		}
		if v, ok := ds.Value(keyword); ok {
			out[keyword] = v
		}
	}
	return out
}

// special applies the PHI transforms. Each field fails independently: a
// malformed value is warned about and omitted without touching the rest of
// the record.
func special(ds *dicomio.Dataset, keywords []string, rep report.Reporter) map[string]any {
	out := make(map[string]any)
	for _, keyword := range keywords {
		v, ok := ds.Value(keyword)
		if !ok {
			rep.Info("This dicom does not contain keyword %s. Skip.", keyword)
			continue
		}
		raw, ok := v.(string)
		if !ok {
			raw = fmt.Sprintf("%v", v)
		}
		for _, field := range transform.Apply(keyword, raw) {
			if !field.Ok() {
				rep.Warn("%s", field.Err)
				continue
			}
			out[field.Key] = field.Value
		}
	}
	return out
}
