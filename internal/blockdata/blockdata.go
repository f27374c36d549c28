// Package blockdata owns a compressed texture: a block payload wrapped in a
// PVR v3 or KTX envelope, either memory-mapped from a file or held in an
// anonymous buffer. It feeds image tiles to the etc kernels, decodes the
// payload back to pixels, and renders diagnostic views of the block stream.
package blockdata

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/w0wtiger/etcpak/internal/bitmap"
	"github.com/w0wtiger/etcpak/internal/etc"
	"github.com/w0wtiger/etcpak/internal/mipmap"
)

// Size is an image extent in pixels.
type Size struct {
	X, Y int
}

// BlockData is a compressed texture with its envelope. File-backed
// instances own the mapping and the descriptor until Close.
type BlockData struct {
	size       Size
	dataOffset int
	data       []byte
	file       *os.File
}

// Open maps an existing PVR v3 or KTX file read-only.
func Open(path string) (*BlockData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	data, err := mapFile(f, int(fi.Size()), false)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("map %q: %w", path, err)
	}

	size, dataOffset, err := parseEnvelope(data)
	if err != nil {
		unmapFile(data)
		f.Close()
		return nil, err
	}

	return &BlockData{
		size:       size,
		dataOffset: dataOffset,
		data:       data,
		file:       f,
	}, nil
}

func levelCount(size Size, mipmapped bool) int {
	if !mipmapped {
		return 1
	}
	return mipmap.NumLevels(size.X, size.Y)
}

// Create builds a writable PVR v3 file sized for the image and its mipmap
// chain, stretched up front and memory-mapped.
func Create(path string, size Size, mipmapped bool) (*BlockData, error) {
	if size.X <= 0 || size.Y <= 0 || size.X%4 != 0 || size.Y%4 != 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.X, size.Y)
	}

	levels := levelCount(size, mipmapped)
	length := totalLen(size, levels)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("create %q: %w", path, err)
	}
	if _, err := f.WriteAt([]byte{0}, int64(length-1)); err != nil {
		f.Close()
		return nil, fmt.Errorf("stretch %q: %w", path, err)
	}

	data, err := mapFile(f, length, true)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("map %q: %w", path, err)
	}
	writePVRHeader(data, size, levels)

	return &BlockData{
		size:       size,
		dataOffset: pvrHeaderSize,
		data:       data,
		file:       f,
	}, nil
}

// NewBuffer builds an in-memory BlockData with the same layout as a created
// file but no backing storage.
func NewBuffer(size Size, mipmapped bool) (*BlockData, error) {
	if size.X <= 0 || size.Y <= 0 || size.X%4 != 0 || size.Y%4 != 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.X, size.Y)
	}

	levels := levelCount(size, mipmapped)
	data := make([]byte, totalLen(size, levels))
	writePVRHeader(data, size, levels)

	return &BlockData{
		size:       size,
		dataOffset: pvrHeaderSize,
		data:       data,
	}, nil
}

// Close releases the mapping and file of a file-backed instance. For
// buffer-backed ones it only drops the buffer.
func (d *BlockData) Close() error {
	if d.file == nil {
		d.data = nil
		return nil
	}
	if err := unmapFile(d.data); err != nil {
		d.file.Close()
		return fmt.Errorf("unmap: %w", err)
	}
	d.data = nil
	return d.file.Close()
}

func (d *BlockData) Size() Size      { return d.size }
func (d *BlockData) DataOffset() int { return d.dataOffset }
func (d *BlockData) Len() int        { return len(d.data) }

// Payload exposes the raw block stream, base level first.
func (d *BlockData) Payload() []byte { return d.data[d.dataOffset:] }

// Process encodes blocks consecutive 4×4 tiles read from src (row stride
// width pixels) into the payload starting at block offset. src must point
// at the first pixel of the range and offset must sit on a block-row
// boundary of the source image. Disjoint ranges may be processed
// concurrently; each block is committed with a single 8-byte store.
func (d *BlockData) Process(src []uint32, blocks, offset, width int, typ Channels, dither, etc2 bool) error {
	if width%4 != 0 {
		return fmt.Errorf("%w: width %d", ErrInvalidSize, width)
	}
	payload := d.Payload()
	if (offset+blocks)*8 > len(payload) {
		return fmt.Errorf("blockdata: range %d+%d exceeds payload of %d blocks",
			offset, blocks, len(payload)/8)
	}

	kernel := blockKernel(typ, dither, etc2, hostHasAVX2())

	var buf [16]uint32
	si := 0
	w := 0
	for b := 0; b < blocks; b++ {
		if typ == ChannelsAlpha {
			for i := 0; i < 16; i += 4 {
				a := src[si] >> 24
				buf[i] = a | a<<8 | a<<16
				si += width
				a = src[si] >> 24
				buf[i+1] = a | a<<8 | a<<16
				si += width
				a = src[si] >> 24
				buf[i+2] = a | a<<8 | a<<16
				si += width
				a = src[si] >> 24
				buf[i+3] = a | a<<8 | a<<16
				si -= width*3 - 1
			}
		} else {
			for i := 0; i < 16; i += 4 {
				buf[i] = src[si]
				si += width
				buf[i+1] = src[si]
				si += width
				buf[i+2] = src[si]
				si += width
				buf[i+3] = src[si]
				si -= width*3 - 1
			}
		}
		if w++; w == width/4 {
			si += width * 3
			w = 0
		}

		binary.LittleEndian.PutUint64(payload[(offset+b)*8:], kernel(&buf))
	}
	return nil
}

// Decode expands the base level into a Bitmap.
func (d *BlockData) Decode() *bitmap.Bitmap {
	bmp := bitmap.New(d.size.X, d.size.Y)
	pix := bmp.Data()
	payload := d.Payload()

	var tile [16]uint32
	i := 0
	for by := 0; by < d.size.Y/4; by++ {
		for bx := 0; bx < d.size.X/4; bx++ {
			etc.DecodeBlock(binary.LittleEndian.Uint64(payload[i*8:]), &tile)
			i++
			for c := 0; c < 4; c++ {
				for r := 0; r < 4; r++ {
					pix[(by*4+r)*d.size.X+bx*4+c] = tile[c*4+r]
				}
			}
		}
	}
	return bmp
}

// Dissection palette: dim red/green for individual blocks (by flip), bright
// red/green for differential, blue for planar, yellow for T and H.
const (
	dissectIndividual     = 0xFF000088
	dissectIndividualFlip = 0xFF008800
	dissectDifferential   = 0xFF0000FF
	dissectDifferentialF  = 0xFF00FF00
	dissectPlanar         = 0xFFFF0000
	dissectTH             = 0xFF00FFFF
)

// Dissect renders three diagnostic views of the base level: a per-block
// mode map, a per-pixel endpoint map (raw, unexpanded fields for extension
// modes) and a per-block table codeword map.
func (d *BlockData) Dissect() (blockTypes, blockColors, blockSelectors *bitmap.Bitmap) {
	bw, bh := d.size.X/4, d.size.Y/4
	payload := d.Payload()

	blockTypes = bitmap.New(bw, bh)
	blockColors = bitmap.New(d.size.X, d.size.Y)
	blockSelectors = bitmap.New(bw, bh)

	types := blockTypes.Data()
	colors := blockColors.Data()
	sels := blockSelectors.Data()

	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			i := by*bw + bx
			w := etc.Normalize(binary.LittleEndian.Uint64(payload[i*8:]))
			c, mode := etc.DecodeBlockColor(w)

			switch mode {
			case etc.ModeETC1:
				switch w & 0x3 {
				case 0:
					types[i] = dissectIndividual
				case 1:
					types[i] = dissectIndividualFlip
				case 2:
					types[i] = dissectDifferential
				case 3:
					types[i] = dissectDifferentialF
				}
			case etc.ModePlanar:
				types[i] = dissectPlanar
			default:
				types[i] = dissectTH
			}

			cw0 := uint32(w & 0xE0)
			cw1 := uint32(w&0x1C) << 3
			sels[i] = 0xFF000000 | cw0<<8 | cw1

			p1 := 0xFF000000 | c.B1<<16 | c.G1<<8 | c.R1
			p2 := 0xFF000000 | c.B2<<16 | c.G2<<8 | c.R2
			for k := 0; k < 16; k++ {
				col, row := k>>2, k&3
				p := p1
				if w&0x1 != 0 {
					if row >= 2 {
						p = p2
					}
				} else if col >= 2 {
					p = p2
				}
				colors[(by*4+row)*d.size.X+bx*4+col] = p
			}
		}
	}
	return blockTypes, blockColors, blockSelectors
}

// WriteDissection writes the three Dissect views into dir under their fixed
// names.
func (d *BlockData) WriteDissection(dir string) error {
	blockTypes, blockColors, blockSelectors := d.Dissect()
	for _, out := range []struct {
		bmp  *bitmap.Bitmap
		name string
	}{
		{blockTypes, "out_block_type.png"},
		{blockColors, "out_block_color.png"},
		{blockSelectors, "out_block_selectors.png"},
	} {
		if err := out.bmp.WritePNG(filepath.Join(dir, out.name)); err != nil {
			return err
		}
	}
	return nil
}
