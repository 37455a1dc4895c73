package reconstruct

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"github.com/rajpurkarlab/deidentification-tools/internal/catalog"
	"github.com/rajpurkarlab/deidentification-tools/internal/dicomio"
	"github.com/rajpurkarlab/deidentification-tools/internal/raster"
	"github.com/rajpurkarlab/deidentification-tools/internal/report"
)

func TestParseByteList(t *testing.T) {
	tests := []struct {
		in      string
		want    []byte
		wantErr bool
	}{
		{"[0, 1]", []byte{0, 1}, false},
		{"[255]", []byte{255}, false},
		{"[]", nil, false},
		{"[256]", nil, true},
		{"[-1]", nil, true},
		{"[a, b]", nil, true},
	}

	for _, tt := range tests {
		got, err := parseByteList(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseByteList(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseByteList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRowBool(t *testing.T) {
	row := map[string]string{"a": "true", "b": "False", "c": "yes", "d": ""}

	if v, err := rowBool(row, "a"); err != nil || !v {
		t.Errorf("rowBool(a) = %v, %v", v, err)
	}
	if v, err := rowBool(row, "b"); err != nil || v {
		t.Errorf("rowBool(b) = %v, %v", v, err)
	}
	if _, err := rowBool(row, "c"); err == nil {
		t.Error("rowBool(c) accepted a non-boolean")
	}
	if _, err := rowBool(row, "d"); err == nil {
		t.Error("rowBool(d) accepted an empty cell")
	}
	if _, err := rowBool(row, "missing"); err == nil {
		t.Error("rowBool(missing) accepted an absent cell")
	}
}

// testRow returns a metadata row plus the native pixel image its PNG was
// rendered from.
func testRow(t *testing.T, dir string) (map[string]string, *dicomio.PixelImage, string) {
	t.Helper()

	native := &dicomio.PixelImage{
		Rows: 2, Cols: 2,
		BitsAllocated: 16, BitsStored: 12,
		PhotometricInterpretation: "MONOCHROME1",
		Samples:                   []uint16{0, 100, 2048, 4095},
	}

	pngPath := filepath.Join(dir, "patient_1-study_1-generated_id_abcd1234.png")
	if err := raster.Encode(native.Normalize(), pngPath); err != nil {
		t.Fatal(err)
	}

	row := map[string]string{
		"filename":                   "generated_id_abcd1234",
		"PatientID":                  "1",
		"Rows":                       "2",
		"Columns":                    "2",
		"BitsAllocated":              "16",
		"BitsStored":                 "12",
		"PhotometricInterpretation":  "MONOCHROME1",
		"TransferSyntaxUID":          dicomio.ExplicitVRLittleEndian,
		"FileMetaInformationVersion": "[0, 1]",
		"is_implicit_VR":             "false",
		"is_little_endian":           "true",
	}
	return row, native, pngPath
}

func TestFromRow(t *testing.T) {
	cat, err := catalog.Load(catalog.Paths{})
	if err != nil {
		t.Fatal(err)
	}

	row, native, pngPath := testRow(t, t.TempDir())

	ds, err := FromRow(row, pngPath, cat)
	if err != nil {
		t.Fatal(err)
	}

	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		t.Fatal("rebuilt dataset has no pixel data")
	}
	info := elem.Value.GetValue().(dicom.PixelDataInfo)
	data := info.Frames[0].NativeData.Data
	for i, want := range native.Samples {
		if data[i][0] != int(want) {
			t.Errorf("pixel %d = %d, want %d", i, data[i][0], want)
		}
	}

	pid, err := ds.FindElementByTag(tag.PatientID)
	if err != nil {
		t.Fatal("rebuilt dataset has no PatientID")
	}
	if got := pid.Value.GetValue(); !reflect.DeepEqual(got, []string{"1"}) {
		t.Errorf("PatientID = %v", got)
	}
}

func TestFromRowBitWidthMismatch(t *testing.T) {
	cat, err := catalog.Load(catalog.Paths{})
	if err != nil {
		t.Fatal(err)
	}

	row, _, pngPath := testRow(t, t.TempDir())
	row["BitsAllocated"] = "8"

	if _, err := FromRow(row, pngPath, cat); err == nil {
		t.Fatal("expected error for BitsAllocated not matching the PNG")
	}
}

func TestRun(t *testing.T) {
	cat, err := catalog.Load(catalog.Paths{})
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	imagesDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		t.Fatal(err)
	}

	row, _, _ := testRow(t, imagesDir)
	orphan := map[string]string{"filename": "generated_id_ffffffff"}

	csvPath := filepath.Join(dir, "extracted_metadata.csv")
	writeRows(t, csvPath, []map[string]string{row, orphan})

	stats, err := Run(csvPath, imagesDir, cat, report.Nop{})
	if err != nil {
		t.Fatal(err)
	}

	if stats.Built != 1 || stats.Skipped != 1 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want 1 built, 1 skipped", stats)
	}

	outPath := filepath.Join(imagesDir, "patient_1-study_1-generated_id_abcd1234-generated_dicom.dcm")
	if _, err := os.Stat(outPath); err != nil {
		t.Fatalf("reconstructed file missing: %v", err)
	}
}

func writeRows(t *testing.T, path string, rows []map[string]string) {
	t.Helper()

	columns := []string{
		"filename", "PatientID", "Rows", "Columns", "BitsAllocated", "BitsStored",
		"PhotometricInterpretation", "TransferSyntaxUID", "FileMetaInformationVersion",
		"is_implicit_VR", "is_little_endian",
	}

	out := ""
	for i, col := range columns {
		if i > 0 {
			out += ","
		}
		out += col
	}
	out += "\n"
	for _, row := range rows {
		for i, col := range columns {
			if i > 0 {
				out += ","
			}
			out += `"` + row[col] + `"`
		}
		out += "\n"
	}

	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		t.Fatal(err)
	}
}
