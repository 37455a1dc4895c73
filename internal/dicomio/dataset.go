// Package dicomio wraps the DICOM codec behind the narrow interfaces the
// pipeline consumes: keyword-based element access, header extraction, pixel
// normalization, and synthetic dataset construction.
package dicomio

import (
	"fmt"
	"os"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// The file header carries its own metadata, distinct from the main dicom
// entries. These three keywords are exported verbatim; everything else in
// the file meta group (ImplementationVersionName, MediaStorageSOPClassUID,
// the preamble) is excluded.
var FileMetaKeywords = []string{
	"FileMetaInformationGroupLength",
	"FileMetaInformationVersion",
	"TransferSyntaxUID",
}

// CSV column names for the VR/endianness flags.
const (
	ImplicitVRKey   = "is_implicit_VR"
	LittleEndianKey = "is_little_endian"
)

// Dataset wraps a parsed DICOM dataset for keyword-based access.
type Dataset struct {
	Data     dicom.Dataset
	FilePath string
}

// ReadFile parses a DICOM file.
func ReadFile(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat file: %w", err)
	}

	ds, err := dicom.Parse(file, info.Size(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not parse DICOM: %w", err)
	}

	return &Dataset{Data: ds, FilePath: path}, nil
}

// Has reports whether the dataset contains an element for the keyword.
func (d *Dataset) Has(keyword string) bool {
	_, ok := d.Value(keyword)
	return ok
}

// Value returns the element value for a dictionary keyword. Single-valued
// elements come back as scalars, multi-valued elements as ordered scalar
// slices. The second return is false when the keyword is absent from the
// dataset or unknown to the dictionary.
func (d *Dataset) Value(keyword string) (any, bool) {
	info, err := tag.FindByName(keyword)
	if err != nil {
		return nil, false
	}
	elem, err := d.Data.FindElementByTag(info.Tag)
	if err != nil || elem.Value == nil {
		return nil, false
	}
	return convertValue(elem.Value.GetValue()), true
}

// IntValue returns a keyword's value coerced to int.
func (d *Dataset) IntValue(keyword string) (int, error) {
	v, ok := d.Value(keyword)
	if !ok {
		return 0, fmt.Errorf("no %s element", keyword)
	}
	n, err := asInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", keyword, err)
	}
	return n, nil
}

// StringValue returns a keyword's value coerced to string.
func (d *Dataset) StringValue(keyword string) (string, error) {
	v, ok := d.Value(keyword)
	if !ok {
		return "", fmt.Errorf("no %s element", keyword)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: value %v is not a string", keyword, v)
	}
	return s, nil
}

// HeaderInfo is the non-PHI file header metadata: the three fixed file-meta
// keyword values plus the VR/endianness flags of the transfer syntax.
type HeaderInfo struct {
	FileMeta     map[string]any
	ImplicitVR   bool
	LittleEndian bool
}

// Header extracts the file header metadata verbatim.
func (d *Dataset) Header() (HeaderInfo, error) {
	h := HeaderInfo{FileMeta: make(map[string]any, len(FileMetaKeywords))}

	for _, keyword := range FileMetaKeywords {
		v, ok := d.Value(keyword)
		if !ok {
			return HeaderInfo{}, fmt.Errorf("file meta missing %s", keyword)
		}
		h.FileMeta[keyword] = v
	}

	uid, _ := h.FileMeta["TransferSyntaxUID"].(string)
	h.ImplicitVR, h.LittleEndian = SyntaxFlags(uid)
	return h, nil
}

// Map returns the header as flat CSV keys, merging the file-meta values
// with the two flag columns.
func (h HeaderInfo) Map() map[string]any {
	m := make(map[string]any, len(h.FileMeta)+2)
	for k, v := range h.FileMeta {
		m[k] = v
	}
	m[ImplicitVRKey] = h.ImplicitVR
	m[LittleEndianKey] = h.LittleEndian
	return m
}

// convertValue flattens the codec's value forms: one-element slices become
// scalars, longer slices stay ordered slices, bytes stay bytes.
func convertValue(v any) any {
	switch t := v.(type) {
	case []string:
		if len(t) == 1 {
			return t[0]
		}
		return t
	case []int:
		if len(t) == 1 {
			return t[0]
		}
		return t
	case []float64:
		if len(t) == 1 {
			return t[0]
		}
		return t
	default:
		return v
	}
}

func asInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case float64:
		return int(t), nil
	case string:
		var n int
		if _, err := fmt.Sscanf(t, "%d", &n); err != nil {
			return 0, fmt.Errorf("value %q is not an integer", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not an integer", v, v)
	}
}
