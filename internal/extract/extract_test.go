package extract

import (
	"testing"

	"github.com/rajpurkarlab/deidentification-tools/internal/catalog"
	"github.com/rajpurkarlab/deidentification-tools/internal/dicomio"
	"github.com/rajpurkarlab/deidentification-tools/internal/identity"
	"github.com/rajpurkarlab/deidentification-tools/internal/report"
)

// buildDataset assembles an in-memory dataset without touching disk.
func buildDataset(t *testing.T, entries map[string]any) *dicomio.Dataset {
	t.Helper()

	ds, err := dicomio.Build(dicomio.BuildInput{
		Entries: entries,
		FileMeta: map[string]any{
			"TransferSyntaxUID":          dicomio.ExplicitVRLittleEndian,
			"FileMetaInformationVersion": []byte{0, 1},
		},
		ImplicitVR:   false,
		LittleEndian: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &dicomio.Dataset{Data: ds}
}

func TestExtract(t *testing.T) {
	cat, err := catalog.Load(catalog.Paths{})
	if err != nil {
		t.Fatal(err)
	}

	ds := buildDataset(t, map[string]any{
		"PatientID":   "REAL-MRN-12345",
		"PatientName": "Doe^Jane",
		"PatientAge":  "102Y",
		"StudyDate":   "20230612",
		"Modality":    "CR",
		"Rows":        512,
		"PatientSex":  "F",
	})

	ids := identity.Substitute(3, 1, 7)
	rec, err := Extract(ds, cat, ids, report.Nop{})
	if err != nil {
		t.Fatal(err)
	}

	// Identity keywords are overwritten even though the file carried
	// values for them.
	if rec.All["PatientID"] != "3" || rec.All["PatientName"] != "3" {
		t.Errorf("patient identity = %v/%v", rec.All["PatientID"], rec.All["PatientName"])
	}
	if rec.All["SOPInstanceUID"] != "3-1-7" {
		t.Errorf("SOPInstanceUID = %v", rec.All["SOPInstanceUID"])
	}

	if rec.All["Modality"] != "CR" {
		t.Errorf("Modality = %v", rec.All["Modality"])
	}
	if rec.All["Rows"] != 512 {
		t.Errorf("Rows = %v", rec.All["Rows"])
	}
	if rec.Additional["PatientSex"] != "F" {
		t.Errorf("PatientSex = %v", rec.Additional["PatientSex"])
	}

	// Transforms applied; raw values never appear.
	if rec.All["age"] != "90Y" {
		t.Errorf("age = %v, want clamped 90Y", rec.All["age"])
	}
	if rec.All["day_of_week"] != 0 || rec.All["year"] != 2023 {
		t.Errorf("date derivatives = %v/%v", rec.All["day_of_week"], rec.All["year"])
	}
	if _, ok := rec.All["PatientAge"]; ok {
		t.Error("raw PatientAge leaked into the record")
	}
	if _, ok := rec.All["StudyDate"]; ok {
		t.Error("raw StudyDate leaked into the record")
	}

	// StudyTime is absent from the file; its derivative is simply omitted.
	if _, ok := rec.All["hour_of_the_day"]; ok {
		t.Error("hour_of_the_day present without StudyTime")
	}

	// Header columns carried for reconstruction.
	if rec.All[dicomio.ImplicitVRKey] != false || rec.All[dicomio.LittleEndianKey] != true {
		t.Errorf("header flags = %v/%v", rec.All[dicomio.ImplicitVRKey], rec.All[dicomio.LittleEndianKey])
	}
	if rec.All["TransferSyntaxUID"] != dicomio.ExplicitVRLittleEndian {
		t.Errorf("TransferSyntaxUID = %v", rec.All["TransferSyntaxUID"])
	}
}

func TestExtractMissingHeader(t *testing.T) {
	cat, err := catalog.Load(catalog.Paths{})
	if err != nil {
		t.Fatal(err)
	}

	// A dataset with no file meta group at all.
	ds := &dicomio.Dataset{}
	if _, err := Extract(ds, cat, identity.Substitute(1, 1, 0), report.Nop{}); err == nil {
		t.Fatal("expected error for missing file meta")
	}
}

func TestExtractMalformedTransformValue(t *testing.T) {
	cat, err := catalog.Load(catalog.Paths{})
	if err != nil {
		t.Fatal(err)
	}

	ds := buildDataset(t, map[string]any{
		"PatientID": "x",
		"StudyDate": "June 2023",
	})

	rec, err := Extract(ds, cat, identity.Substitute(1, 1, 0), report.Nop{})
	if err != nil {
		t.Fatal(err)
	}

	// The malformed date only costs its own derivatives.
	if _, ok := rec.All["year"]; ok {
		t.Error("year derived from a malformed date")
	}
	if rec.All["PatientID"] != "1" {
		t.Errorf("PatientID = %v", rec.All["PatientID"])
	}
}
