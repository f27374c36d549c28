package bitmap

import (
	"encoding/binary"
	"fmt"
	"image"

	"github.com/mauserzjeh/dxt"
)

const (
	ddsHeaderLen  = 124
	ddsTotalLen   = 4 + ddsHeaderLen
	ddsPixFmtOffs = 72
)

// decodeDDS parses a DDS file and returns its base image. DXT1/3/5 blocks
// are handed to the dxt decoders; simple uncompressed 24/32-bit BGR(A) data
// is swizzled directly.
func decodeDDS(raw []byte) (image.Image, error) {
	if len(raw) < ddsTotalLen {
		return nil, fmt.Errorf("dds: truncated header: %d bytes", len(raw))
	}
	if string(raw[0:4]) != "DDS " {
		return nil, fmt.Errorf("dds: missing magic")
	}

	hdr := raw[4 : 4+ddsHeaderLen]
	height := binary.LittleEndian.Uint32(hdr[8:12])
	width := binary.LittleEndian.Uint32(hdr[12:16])

	pf := hdr[ddsPixFmtOffs : ddsPixFmtOffs+32]
	fourCC := string(pf[8:12])
	rgbBitCount := binary.LittleEndian.Uint32(pf[12:16])

	data := raw[ddsTotalLen:]
	if len(data) == 0 {
		return nil, fmt.Errorf("dds: no image data")
	}

	var (
		pix []byte
		err error
	)
	switch fourCC {
	case "DXT1":
		pix, err = dxt.DecodeDXT1(data, uint(width), uint(height))
	case "DXT3":
		pix, err = dxt.DecodeDXT3(data, uint(width), uint(height))
	case "DXT5":
		pix, err = dxt.DecodeDXT5(data, uint(width), uint(height))
	default:
		if fourCC == "\x00\x00\x00\x00" && (rgbBitCount == 24 || rgbBitCount == 32) {
			pix, err = decodeUncompressedBGR(data, int(width), int(height), int(rgbBitCount/8))
		} else {
			return nil, fmt.Errorf("dds: unsupported FourCC %q", fourCC)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("dds: %w", err)
	}

	if len(pix) != int(width*height)*4 {
		return nil, fmt.Errorf("dds: decoded %d bytes, want %d", len(pix), width*height*4)
	}
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	copy(img.Pix, pix)
	return img, nil
}

func decodeUncompressedBGR(data []byte, width, height, bpp int) ([]byte, error) {
	if len(data) < width*height*bpp {
		return nil, fmt.Errorf("pixel data too small: %d < %d", len(data), width*height*bpp)
	}
	out := make([]byte, width*height*4)
	src, dst := 0, 0
	for i := 0; i < width*height; i++ {
		out[dst+0] = data[src+2]
		out[dst+1] = data[src+1]
		out[dst+2] = data[src+0]
		if bpp == 4 {
			out[dst+3] = data[src+3]
		} else {
			out[dst+3] = 0xFF
		}
		src += bpp
		dst += 4
	}
	return out, nil
}
