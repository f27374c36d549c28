// Package bitmap holds decompressed pixels as packed 32-bit 0xAABBGGRR
// values, the layout the block codec consumes, and converts to and from the
// standard library image types at the edges.
package bitmap

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/dblezek/tga"
	_ "golang.org/x/image/bmp"
)

// Bitmap is a width×height pixel buffer. Pixel bytes run R, G, B, A from
// the low byte up, so the buffer can be reinterpreted as image.RGBA pixel
// data without per-channel shuffling.
type Bitmap struct {
	width  int
	height int
	pix    []uint32
}

func New(width, height int) *Bitmap {
	return &Bitmap{
		width:  width,
		height: height,
		pix:    make([]uint32, width*height),
	}
}

func (b *Bitmap) Width() int     { return b.width }
func (b *Bitmap) Height() int    { return b.height }
func (b *Bitmap) Data() []uint32 { return b.pix }

// FromImage converts any image into a Bitmap, flattening alpha as-is.
func FromImage(m image.Image) *Bitmap {
	bounds := m.Bounds()
	out := New(bounds.Dx(), bounds.Dy())

	if rgba, ok := m.(*image.RGBA); ok {
		i := 0
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := rgba.Pix[(y-rgba.Rect.Min.Y)*rgba.Stride:]
			for x := 0; x < bounds.Dx(); x++ {
				p := row[x*4 : x*4+4]
				out.pix[i] = uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
				i++
			}
		}
		return out
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, bl, a := m.At(x, y).RGBA()
			out.pix[i] = uint32(r>>8) | uint32(g>>8)<<8 | uint32(bl>>8)<<16 | uint32(a>>8)<<24
			i++
		}
	}
	return out
}

// Image returns the pixels as an image.RGBA sharing no storage with b.
func (b *Bitmap) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	for i, p := range b.pix {
		img.Pix[i*4+0] = uint8(p)
		img.Pix[i*4+1] = uint8(p >> 8)
		img.Pix[i*4+2] = uint8(p >> 16)
		img.Pix[i*4+3] = uint8(p >> 24)
	}
	return img
}

// WritePNG encodes the bitmap to path.
func (b *Bitmap) WritePNG(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %q: %w", path, err)
	}
	defer out.Close()

	if err := png.Encode(out, b.Image()); err != nil {
		return fmt.Errorf("encode %q: %w", path, err)
	}
	return nil
}

// Load reads an image file, picking the decoder by extension: DDS and TGA
// have dedicated decoders, everything else goes through image.Decode (PNG,
// BMP and JPEG are registered).
func Load(path string) (*Bitmap, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dds":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		m, err := decodeDDS(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", path, err)
		}
		return FromImage(m), nil
	case ".tga":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %q: %w", path, err)
		}
		defer f.Close()
		m, err := tga.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %q: %w", path, err)
		}
		return FromImage(m), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()
	m, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	return FromImage(m), nil
}

// PadToBlocks grows the bitmap to the next multiple of 4 in each dimension
// by repeating the rightmost column and bottom row, so padding compresses
// to the same endpoints as the edge it extends.
func (b *Bitmap) PadToBlocks() *Bitmap {
	pw := (b.width + 3) &^ 3
	ph := (b.height + 3) &^ 3
	if pw == b.width && ph == b.height {
		return b
	}
	out := New(pw, ph)
	for y := 0; y < ph; y++ {
		sy := min(y, b.height-1)
		for x := 0; x < pw; x++ {
			sx := min(x, b.width-1)
			out.pix[y*pw+x] = b.pix[sy*b.width+sx]
		}
	}
	return out
}
