package dicomio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Placeholder file-meta UIDs shared by every generated file. These are
// deliberately constant: the generated files carry no original identity, so
// per-instance media UIDs would defeat nothing and a consumer inspecting the
// output sees immediately that it is synthetic.
const (
	placeholderMediaSOPClassUID    = "1.2.3"
	placeholderMediaSOPInstanceUID = "1.2.3"
	placeholderImplementationUID   = "1.2.3.4"
)

// Keywords whose values need coercion before assignment. Geometry keywords
// may arrive as textual literals ("[0.14, 0.14]") and become numeric
// sequences; edge and extreme-value keywords become integers;
// LossyImageCompression becomes a string.
var (
	geometryKeywords = map[string]bool{
		"PixelSpacing":      true,
		"PixelAspectRatio":  true,
		"ImagerPixelSpacing": true,
		"WindowCenter":      true,
		"WindowWidth":       true,
	}
	integerKeywords = map[string]bool{
		"CollimatorRightVerticalEdge":   true,
		"CollimatorUpperHorizontalEdge": true,
		"CollimatorLowerHorizontalEdge": true,
		"LargestImagePixelValue":        true,
		"SmallestImagePixelValue":       true,
	}
	stringKeywords = map[string]bool{
		"LossyImageCompression": true,
	}
)

// BuildInput is everything needed to construct a synthetic dataset.
type BuildInput struct {
	// Pixels is the native pixel array; it is assigned last and
	// unconditionally.
	Pixels *PixelImage
	// Entries is the minimal-catalog keyword map with the synthetic
	// identifiers already in place.
	Entries map[string]any
	// FileMeta holds the three fixed file-meta keyword values.
	FileMeta map[string]any
	ImplicitVR   bool
	LittleEndian bool
}

// Build assembles a new dataset from de-identified parts. File meta is
// merged first-writer-wins: header-derived values are written first, then
// the placeholder UID triplet fills the gaps. Main entries likewise never
// overwrite an already-set keyword, which keeps the merge order auditable.
// Any coercion or assignment failure is fatal for this record.
func Build(in BuildInput) (dicom.Dataset, error) {
	b := newBuilder()

	// File meta, header values first. The group length is recomputed by
	// the codec on write, so it is not carried over.
	tsuid, _ := in.FileMeta["TransferSyntaxUID"].(string)
	if tsuid == "" {
		tsuid = SyntaxForFlags(in.ImplicitVR, in.LittleEndian)
	}
	if err := b.setIfAbsent("TransferSyntaxUID", tsuid); err != nil {
		return dicom.Dataset{}, err
	}
	if v, ok := in.FileMeta["FileMetaInformationVersion"]; ok {
		if err := b.setIfAbsent("FileMetaInformationVersion", v); err != nil {
			return dicom.Dataset{}, err
		}
	}
	for _, kv := range []struct{ keyword, value string }{
		{"MediaStorageSOPClassUID", placeholderMediaSOPClassUID},
		{"MediaStorageSOPInstanceUID", placeholderMediaSOPInstanceUID},
		{"ImplementationClassUID", placeholderImplementationUID},
	} {
		if err := b.setIfAbsent(kv.keyword, kv.value); err != nil {
			return dicom.Dataset{}, err
		}
	}

	// Main entries in sorted keyword order so output is deterministic.
	keywords := make([]string, 0, len(in.Entries))
	for kw := range in.Entries {
		keywords = append(keywords, kw)
	}
	sort.Strings(keywords)

	for _, keyword := range keywords {
		if keyword == "PixelData" {
			continue
		}
		value, err := coerce(keyword, in.Entries[keyword])
		if err != nil {
			return dicom.Dataset{}, fmt.Errorf("%s: %w", keyword, err)
		}
		if err := b.setIfAbsent(keyword, value); err != nil {
			return dicom.Dataset{}, fmt.Errorf("%s: %w", keyword, err)
		}
	}

	// Pixel data last, overwriting any placeholder.
	if in.Pixels != nil {
		if err := b.setPixels(in.Pixels); err != nil {
			return dicom.Dataset{}, err
		}
	}

	return b.dataset(), nil
}

// coerce applies the keyword-group coercions.
func coerce(keyword string, v any) (any, error) {
	switch {
	case geometryKeywords[keyword]:
		if s, ok := v.(string); ok {
			seq, err := ParseNumericSequence(s)
			if err != nil {
				return nil, err
			}
			return seq, nil
		}
		return v, nil
	case integerKeywords[keyword]:
		n, err := asInt(v)
		if err != nil {
			return nil, err
		}
		return n, nil
	case stringKeywords[keyword]:
		return fmt.Sprintf("%v", v), nil
	default:
		return v, nil
	}
}

// ParseNumericSequence parses a textual literal into its numeric components:
// either a bracketed sequence "[0.14, 0.14]" or a bare literal "0.14". Each
// component must parse as a number.
func ParseNumericSequence(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `'"`))
		if part == "" {
			continue
		}
		if _, err := strconv.ParseFloat(part, 64); err != nil {
			return nil, fmt.Errorf("literal %q is not numeric", part)
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty numeric literal %q", s)
	}
	return out, nil
}

// builder accumulates elements with first-writer-wins semantics.
type builder struct {
	elements []*dicom.Element
	seen     map[tag.Tag]bool
}

func newBuilder() *builder {
	return &builder{seen: make(map[tag.Tag]bool)}
}

// setIfAbsent resolves a keyword and appends an element for it unless one
// is already present.
func (b *builder) setIfAbsent(keyword string, value any) error {
	info, err := tag.FindByName(keyword)
	if err != nil {
		return fmt.Errorf("unknown keyword %s", keyword)
	}
	if b.seen[info.Tag] {
		return nil
	}

	data, err := elementData(info, value)
	if err != nil {
		return err
	}
	elem, err := dicom.NewElement(info.Tag, data)
	if err != nil {
		return fmt.Errorf("could not create element: %w", err)
	}

	b.elements = append(b.elements, elem)
	b.seen[info.Tag] = true
	return nil
}

func (b *builder) setPixels(p *PixelImage) error {
	data := make([][]int, len(p.Samples))
	for i, s := range p.Samples {
		data[i] = []int{int(s)}
	}

	pixelDataInfo := dicom.PixelDataInfo{
		IsEncapsulated: false,
		Frames: []*frame.Frame{
			{
				Encapsulated: false,
				NativeData: frame.NativeFrame{
					BitsPerSample: p.BitsAllocated,
					Rows:          p.Rows,
					Cols:          p.Cols,
					Data:          data,
				},
			},
		},
	}

	elem, err := dicom.NewElement(tag.PixelData, pixelDataInfo)
	if err != nil {
		return fmt.Errorf("could not create pixel data: %w", err)
	}

	// Pixel data overwrites any earlier element for the tag.
	for i, e := range b.elements {
		if e.Tag == tag.PixelData {
			b.elements[i] = elem
			return nil
		}
	}
	b.elements = append(b.elements, elem)
	b.seen[tag.PixelData] = true
	return nil
}

// dataset returns the accumulated elements in ascending tag order, which
// puts the file meta group first as the encoder expects.
func (b *builder) dataset() dicom.Dataset {
	sort.Slice(b.elements, func(i, j int) bool {
		a, c := b.elements[i].Tag, b.elements[j].Tag
		if a.Group != c.Group {
			return a.Group < c.Group
		}
		return a.Element < c.Element
	})
	return dicom.Dataset{Elements: b.elements}
}

// elementData converts a coerced Go value into the slice form the codec's
// element constructor expects for the keyword's VR.
func elementData(info tag.Info, value any) (any, error) {
	switch info.VR {
	case "US", "UL", "SS", "SL", "AT":
		switch v := value.(type) {
		case int:
			return []int{v}, nil
		case []int:
			return v, nil
		case string:
			n, err := asInt(v)
			if err != nil {
				return nil, err
			}
			return []int{n}, nil
		case []string:
			out := make([]int, len(v))
			for i, s := range v {
				n, err := asInt(s)
				if err != nil {
					return nil, err
				}
				out[i] = n
			}
			return out, nil
		}
	case "OB", "OW", "UN":
		if b, ok := value.([]byte); ok {
			return b, nil
		}
	case "FL", "FD":
		switch v := value.(type) {
		case float64:
			return []float64{v}, nil
		case []float64:
			return v, nil
		}
	default:
		// String VRs, including IS and DS numeric strings.
		switch v := value.(type) {
		case string:
			return []string{v}, nil
		case []string:
			return v, nil
		case int:
			return []string{strconv.Itoa(v)}, nil
		case float64:
			return []string{strconv.FormatFloat(v, 'g', -1, 64)}, nil
		case []int:
			out := make([]string, len(v))
			for i, n := range v {
				out[i] = strconv.Itoa(n)
			}
			return out, nil
		case []float64:
			out := make([]string, len(v))
			for i, f := range v {
				out[i] = strconv.FormatFloat(f, 'g', -1, 64)
			}
			return out, nil
		case bool:
			return []string{strconv.FormatBool(v)}, nil
		}
	}
	return nil, fmt.Errorf("cannot encode %T as VR %s", value, info.VR)
}
