package blockdata

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Recognized envelope magics, as read little-endian from offset 0.
const (
	pvrMagic = 0x03525650 // PVR v3
	ktxMagic = 0x58544BAB // KTX 11
)

const pvrHeaderSize = 52

// ErrUnsupportedEnvelope is returned when a file matches neither the PVR v3
// nor the KTX magic.
var ErrUnsupportedEnvelope = errors.New("blockdata: unsupported envelope")

// ErrInvalidSize is returned when an encode target is requested with
// dimensions that are not positive multiples of 4.
var ErrInvalidSize = errors.New("blockdata: dimensions must be positive multiples of 4")

func word(data []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(data[i*4:])
}

// parseEnvelope reads the header at the start of data and returns the image
// size and the byte offset of the block payload.
func parseEnvelope(data []byte) (Size, int, error) {
	if len(data) < pvrHeaderSize {
		return Size{}, 0, fmt.Errorf("%w: %d byte file", ErrUnsupportedEnvelope, len(data))
	}
	switch word(data, 0) {
	case pvrMagic:
		s := Size{
			Y: int(word(data, 6)),
			X: int(word(data, 7)),
		}
		return s, pvrHeaderSize + int(word(data, 12)), nil
	case ktxMagic:
		if len(data) < 17*4 {
			return Size{}, 0, fmt.Errorf("%w: truncated KTX header", ErrUnsupportedEnvelope)
		}
		s := Size{
			X: int(word(data, 9)),
			Y: int(word(data, 10)),
		}
		// 17 header words, then the key/value region in bytes.
		return s, 17*4 + int(word(data, 15)), nil
	default:
		return Size{}, 0, fmt.Errorf("%w: magic %#08x", ErrUnsupportedEnvelope, word(data, 0))
	}
}

// writePVRHeader fills in the 13-word PVR v3 header. The pixel format is
// left at 6 (ETC1) even when ETC2 blocks are present, matching the files
// this tool has always produced.
func writePVRHeader(data []byte, size Size, levels int) {
	put := func(i int, v uint32) {
		binary.LittleEndian.PutUint32(data[i*4:], v)
	}
	put(0, pvrMagic)
	put(1, 0)              // flags
	put(2, 6)              // pixel format[0], 22 would be strict ETC2
	put(3, 0)              // pixel format[1]
	put(4, 0)              // colour space
	put(5, 0)              // channel type
	put(6, uint32(size.Y)) // height
	put(7, uint32(size.X)) // width
	put(8, 1)              // depth
	put(9, 1)              // num surfaces
	put(10, 1)             // num faces
	put(11, uint32(levels))
	put(12, 0) // metadata size
}

// mipPayloadLen returns the byte length of every level past the base.
// Levels below 4 pixels in a dimension still occupy a full padded block.
func mipPayloadLen(size Size, levels int) int {
	length := 0
	current := size
	for i := 1; i < levels; i++ {
		current.X = max(1, current.X/2)
		current.Y = max(1, current.Y/2)
		length += max(4, current.X) * max(4, current.Y) / 2
	}
	return length
}

// totalLen returns the full envelope length: header, base level, mip chain.
func totalLen(size Size, levels int) int {
	return pvrHeaderSize + size.X*size.Y/2 + mipPayloadLen(size, levels)
}
