package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cat, err := Load(Paths{})
	if err != nil {
		t.Fatal(err)
	}

	if len(cat.Minimal) == 0 || len(cat.Additional) == 0 || len(cat.Transform) == 0 {
		t.Fatalf("embedded lists incomplete: %d/%d/%d",
			len(cat.Minimal), len(cat.Additional), len(cat.Transform))
	}

	// The minimal list must end with PixelData and carry the identity
	// keywords the pipeline overwrites.
	if cat.Minimal[len(cat.Minimal)-1] != "PixelData" {
		t.Errorf("minimal list ends with %s, want PixelData", cat.Minimal[len(cat.Minimal)-1])
	}
	for _, kw := range []string{"PatientID", "StudyInstanceUID", "SOPInstanceUID"} {
		if !contains(cat.Minimal, kw) {
			t.Errorf("minimal list missing %s", kw)
		}
	}
	for _, kw := range []string{"PatientAge", "StudyDate", "StudyTime"} {
		if !contains(cat.Transform, kw) {
			t.Errorf("transform list missing %s", kw)
		}
	}
}

func TestLoadOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.csv")
	content := "Tag,Keyword\n(0010.0020),PatientID\n(0028.0010),Rows\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cat, err := Load(Paths{Minimal: path})
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Minimal) != 2 || cat.Minimal[0] != "PatientID" || cat.Minimal[1] != "Rows" {
		t.Errorf("minimal = %v", cat.Minimal)
	}
}

func TestLoadRejectsInvalidKeyword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.csv")
	content := "Keyword\nPatientID\nNotARealKeyword\nAlsoBogus\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(Paths{Minimal: path})
	if err == nil {
		t.Fatal("expected error for invalid keywords")
	}
	// All invalid keywords are reported at once.
	if !strings.Contains(err.Error(), "NotARealKeyword") || !strings.Contains(err.Error(), "AlsoBogus") {
		t.Errorf("error %q does not name both invalid keywords", err)
	}
}

func TestLoadRejectsMissingKeywordColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.csv")
	if err := os.WriteFile(path, []byte("Tag,Name\nx,y\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(Paths{Additional: path}); err == nil {
		t.Fatal("expected error for missing Keyword column")
	}
}

func TestValidateKeywords(t *testing.T) {
	if err := ValidateKeywords([]string{"PatientID", "Rows", "Columns"}); err != nil {
		t.Errorf("valid keywords rejected: %v", err)
	}
	if err := ValidateKeywords(nil); err != nil {
		t.Errorf("empty list rejected: %v", err)
	}
	if err := ValidateKeywords([]string{"Bogus"}); err == nil {
		t.Error("invalid keyword accepted")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
