// Package raster persists normalized pixel arrays as grayscale PNG files.
// PNG is lossless, which the extract/reconstruct round trip depends on;
// lossy formats are disallowed.
package raster

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/rajpurkarlab/deidentification-tools/internal/dicomio"
)

// Encode writes a normalized pixel image to path as an 8- or 16-bit
// grayscale PNG, matching the image's allocated sample width.
func Encode(p *dicomio.PixelImage, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("could not create image directory: %w", err)
	}

	var img image.Image
	switch p.BitsAllocated {
	case 8:
		g := image.NewGray(image.Rect(0, 0, p.Cols, p.Rows))
		for i, s := range p.Samples {
			g.Pix[i] = uint8(s)
		}
		img = g
	case 16:
		g := image.NewGray16(image.Rect(0, 0, p.Cols, p.Rows))
		for i, s := range p.Samples {
			g.Pix[2*i] = uint8(s >> 8)
			g.Pix[2*i+1] = uint8(s)
		}
		img = g
	default:
		return fmt.Errorf("unsupported sample width %d", p.BitsAllocated)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create image file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("could not encode PNG: %w", err)
	}
	return nil
}

// Decode reads a grayscale PNG back into a bare pixel array. The returned
// image carries dimensions and sample width only; the caller attaches the
// BitsStored and PhotometricInterpretation recovered from the metadata row.
func Decode(path string) (*dicomio.PixelImage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image file: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("could not decode PNG: %w", err)
	}

	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()
	out := &dicomio.PixelImage{
		Rows:    rows,
		Cols:    cols,
		Samples: make([]uint16, rows*cols),
	}

	switch g := img.(type) {
	case *image.Gray:
		out.BitsAllocated = 8
		for i := range out.Samples {
			out.Samples[i] = uint16(g.Pix[i])
		}
	case *image.Gray16:
		out.BitsAllocated = 16
		for i := range out.Samples {
			out.Samples[i] = uint16(g.Pix[2*i])<<8 | uint16(g.Pix[2*i+1])
		}
	default:
		return nil, fmt.Errorf("PNG %s is not grayscale", path)
	}

	return out, nil
}
