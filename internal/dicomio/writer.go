package dicomio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/suyashkumar/dicom"
)

// Save writes a dataset to outputPath, creating parent directories as
// needed. Verification is relaxed because many real-world files do not
// strictly follow VR specifications.
func Save(ds dicom.Dataset, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer file.Close()

	if err := dicom.Write(file, ds,
		dicom.SkipVRVerification(),
		dicom.SkipValueTypeVerification(),
		dicom.DefaultMissingTransferSyntax(),
	); err != nil {
		return fmt.Errorf("could not write DICOM: %w", err)
	}

	return nil
}
