// Package identity derives the synthetic identifier hierarchy and the
// deterministic output names for de-identified files.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// GeneratedDicomSuffix is appended to the output stem for reconstructed
// DICOM files.
const GeneratedDicomSuffix = "-generated_dicom.dcm"

// Identifiers carries the synthetic replacement values for the identity
// tags of one instance.
//
// The DICOM ID hierarchy is:
//
//	PatientID
//	  StudyInstanceUID
//	    SeriesInstanceUID
//	      SOPInstanceUID
type Identifiers struct {
	PatientID        string
	PatientName      string
	StudyInstanceUID string
	StudyID          string
	SOPInstanceUID   string
}

// Substitute builds synthetic identifiers purely from structural indices.
// Nothing from the original record flows in, so the mapping is one-way:
// records share a StudyInstanceUID iff they share (patient, study), share a
// PatientID iff they share the patient index, and SOPInstanceUID is unique
// per (patient, study, instance).
func Substitute(patientIndex, studyIndex, instanceIndex int) Identifiers {
	patientID := strconv.Itoa(patientIndex)
	studyUID := fmt.Sprintf("%d-%d", patientIndex, studyIndex)
	return Identifiers{
		PatientID:        patientID,
		PatientName:      patientID,
		StudyInstanceUID: studyUID,
		StudyID:          studyUID,
		SOPInstanceUID:   fmt.Sprintf("%d-%d-%d", patientIndex, studyIndex, instanceIndex),
	}
}

// Map returns the identifiers as the keyword->value mapping used when
// overwriting extracted metadata.
func (id Identifiers) Map() map[string]any {
	return map[string]any{
		"PatientID":        id.PatientID,
		"PatientName":      id.PatientName,
		"StudyInstanceUID": id.StudyInstanceUID,
		"StudyID":          id.StudyID,
		"SOPInstanceUID":   id.SOPInstanceUID,
	}
}

// OutputStem derives the deterministic, non-identifying stem for a source
// filename: "generated_id_" plus the first 8 hex characters of the SHA-256
// of the filename with its DICOM extension stripped. Everything from the
// first ".dcm" onward counts as the extension.
func OutputStem(filename string) string {
	if i := strings.Index(filename, ".dcm"); i >= 0 {
		filename = filename[:i]
	}
	sum := sha256.Sum256([]byte(filename))
	return "generated_id_" + hex.EncodeToString(sum[:])[:8]
}

// OutputBase is the shared base name for all artifacts of one source file:
// "{patientFolder}-{studyFolder}-{stem}". The PNG adds ".png", the
// reconstructed DICOM adds GeneratedDicomSuffix.
func OutputBase(patientFolder, studyFolder, filename string) string {
	return fmt.Sprintf("%s-%s-%s", patientFolder, studyFolder, OutputStem(filename))
}
