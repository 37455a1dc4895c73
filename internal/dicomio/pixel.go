package dicomio

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// MONOCHROME1 is the inverted grayscale polarity: the lowest sample value
// renders white. X-ray images come in MONOCHROME1 and MONOCHROME2; we invert
// MONOCHROME1 samples for the rendered export and invert back on
// reconstruction.
const MONOCHROME1 = "MONOCHROME1"

// PixelImage is a single-frame grayscale pixel array together with the
// attributes that govern its encoding. Samples hold one value per pixel in
// row-major order; BitsAllocated (8 or 16) decides the sample width.
//
// The same type carries both representations of the image: "native" as
// stored in the DICOM file, and "normalized" as rendered for the PNG
// export. Normalize and Denormalize convert between them losslessly.
type PixelImage struct {
	Rows, Cols                int
	BitsAllocated, BitsStored int
	PhotometricInterpretation string
	Samples                   []uint16
}

// Pixels extracts the native pixel array of a parsed dataset. Only
// single-frame, single-sample (grayscale), uncompressed pixel data with 8 or
// 16 bits allocated is supported.
func (d *Dataset) Pixels() (*PixelImage, error) {
	rows, err := d.IntValue("Rows")
	if err != nil {
		return nil, err
	}
	cols, err := d.IntValue("Columns")
	if err != nil {
		return nil, err
	}
	bitsAllocated, err := d.IntValue("BitsAllocated")
	if err != nil {
		return nil, err
	}
	bitsStored, err := d.IntValue("BitsStored")
	if err != nil {
		return nil, err
	}
	photometric, err := d.StringValue("PhotometricInterpretation")
	if err != nil {
		return nil, err
	}

	if bitsAllocated != 8 && bitsAllocated != 16 {
		return nil, fmt.Errorf("unsupported BitsAllocated %d", bitsAllocated)
	}
	if bitsStored < 1 || bitsStored > bitsAllocated {
		return nil, fmt.Errorf("invalid BitsStored %d for BitsAllocated %d", bitsStored, bitsAllocated)
	}

	elem, err := d.Data.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("no pixel data found: %w", err)
	}

	info, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, fmt.Errorf("unsupported pixel data type %T", elem.Value.GetValue())
	}
	if info.IsEncapsulated {
		return nil, fmt.Errorf("encapsulated (compressed) pixel data is not supported")
	}
	if len(info.Frames) != 1 {
		return nil, fmt.Errorf("expected a single frame, got %d", len(info.Frames))
	}

	native := info.Frames[0].NativeData
	if len(native.Data) != rows*cols {
		return nil, fmt.Errorf("pixel count %d does not match %dx%d", len(native.Data), rows, cols)
	}

	samples := make([]uint16, len(native.Data))
	for i, pixel := range native.Data {
		if len(pixel) != 1 {
			return nil, fmt.Errorf("expected 1 sample per pixel, got %d", len(pixel))
		}
		samples[i] = uint16(pixel[0])
	}

	return &PixelImage{
		Rows:                      rows,
		Cols:                      cols,
		BitsAllocated:             bitsAllocated,
		BitsStored:                bitsStored,
		PhotometricInterpretation: photometric,
		Samples:                   samples,
	}, nil
}

func (p *PixelImage) mask() uint16 {
	return uint16((uint32(1) << p.BitsAllocated) - 1)
}

func (p *PixelImage) inverted() bool {
	return strings.EqualFold(p.PhotometricInterpretation, MONOCHROME1)
}

// Normalize converts the native representation into the rendered one:
// samples stored below the allocated width are shifted up to span the full
// dynamic range, and MONOCHROME1 samples are bitwise-inverted so bright
// always means high. Returns a new image; the receiver is unchanged.
func (p *PixelImage) Normalize() *PixelImage {
	out := p.clone()
	shift := uint(p.BitsAllocated - p.BitsStored)
	mask := p.mask()
	invert := p.inverted()

	for i, s := range out.Samples {
		s <<= shift
		if invert {
			s ^= mask
		}
		out.Samples[i] = s
	}
	return out
}

// Denormalize is the exact inverse of Normalize: invert MONOCHROME1 samples
// back, then shift down to the stored width. For any valid image x,
// x.Normalize().Denormalize() equals x.
func (p *PixelImage) Denormalize() *PixelImage {
	out := p.clone()
	shift := uint(p.BitsAllocated - p.BitsStored)
	mask := p.mask()
	invert := p.inverted()

	for i, s := range out.Samples {
		if invert {
			s ^= mask
		}
		s >>= shift
		out.Samples[i] = s
	}
	return out
}

func (p *PixelImage) clone() *PixelImage {
	out := *p
	out.Samples = make([]uint16, len(p.Samples))
	copy(out.Samples, p.Samples)
	return &out
}
