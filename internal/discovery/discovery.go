// Package discovery walks the two-level patient_<N>/study_<M> input tree and
// produces the ordered list of DICOM files to process.
package discovery

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rajpurkarlab/deidentification-tools/internal/report"
)

// Index bounds for the folder hierarchy. Folders outside these bounds are
// skipped, not truncated.
const (
	MaxPatientIndex = 500
	MaxStudyIndex   = 2
)

// Positive integer with no leading zero, so patient_0 and patient_007 are
// both rejected.
var (
	patientFolderPattern = regexp.MustCompile(`^patient_([1-9][0-9]*)$`)
	studyFolderPattern   = regexp.MustCompile(`^study_([1-9][0-9]*)$`)
)

// SourceRecord identifies one accepted DICOM file by its position in the
// input tree. It is immutable; every downstream stage reads it as-is.
type SourceRecord struct {
	Path          string
	PatientFolder string
	StudyFolder   string
	PatientIndex  int
	StudyIndex    int
	// InstanceIndex is the file's 0-based position within the study
	// folder's sorted file listing. Sorting is lexicographic by filename
	// so the index is stable across platforms and runs; it counts every
	// regular file in the folder, including ones later skipped by the
	// content sniff, so skipped files still consume an index.
	InstanceIndex int
	Filename      string
}

// Walk enumerates all accepted DICOM files under root. Patient and study
// folders that fail the naming pattern or index bound are skipped with a
// warning and not descended into. Files that do not sniff as DICOM are
// skipped with a warning. The accepted-file count is reported.
func Walk(root string, rep report.Reporter) ([]SourceRecord, error) {
	patientFolders, err := sortedDirNames(root)
	if err != nil {
		return nil, err
	}

	var records []SourceRecord

	for _, patientFolder := range patientFolders {
		patientIndex, ok := folderIndex(patientFolder, patientFolderPattern, MaxPatientIndex)
		if !ok {
			rep.Warn("SKIPPING unknown patient folder %s", patientFolder)
			continue
		}

		studyFolders, err := sortedDirNames(filepath.Join(root, patientFolder))
		if err != nil {
			return nil, err
		}

		for _, studyFolder := range studyFolders {
			studyIndex, ok := folderIndex(studyFolder, studyFolderPattern, MaxStudyIndex)
			if !ok {
				rep.Warn("SKIPPING unknown study folder %s", studyFolder)
				continue
			}

			studyDir := filepath.Join(root, patientFolder, studyFolder)
			filenames, err := sortedFileNames(studyDir)
			if err != nil {
				return nil, err
			}

			for instanceIndex, filename := range filenames {
				path := filepath.Join(studyDir, filename)

				// pydicom-style parsers do not verify file type
				// before reading, so gate on the DICOM magic here
				// instead of failing obscurely on non-DICOM bytes.
				if !IsDicomFile(path) {
					rep.Warn("SKIPPING %s because it is not a DICOM file", filename)
					continue
				}

				records = append(records, SourceRecord{
					Path:          path,
					PatientFolder: patientFolder,
					StudyFolder:   studyFolder,
					PatientIndex:  patientIndex,
					StudyIndex:    studyIndex,
					InstanceIndex: instanceIndex,
					Filename:      filename,
				})
			}
		}
	}

	rep.Info("Number of dicom files found: %d", len(records))
	return records, nil
}

// folderIndex extracts the index from a folder name, enforcing the naming
// pattern and the upper bound.
func folderIndex(name string, pattern *regexp.Regexp, max int) (int, bool) {
	m := pattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > max {
		return 0, false
	}
	return n, true
}

func sortedDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	// os.ReadDir sorts by filename already; the slice stays in that order.
	return names, nil
}

func sortedFileNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
