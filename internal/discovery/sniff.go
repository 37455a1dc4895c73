package discovery

import (
	"io"
	"os"
)

// IsDicomFile reports whether a file carries the DICOM magic bytes:
// "DICM" at byte offset 128, after the 128-byte preamble.
func IsDicomFile(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	header := make([]byte, 132)
	if _, err := io.ReadFull(file, header); err != nil {
		return false
	}

	return string(header[128:132]) == "DICM"
}
