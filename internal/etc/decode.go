// Package etc implements the ETC1 and ETC2 RGB block codec used by the
// texture pipeline: per-block encode kernels, the matching decoder, and the
// dither pre-pass. A block is a 4×4 pixel tile packed as 16 32-bit
// 0xAABBGGRR pixels in column-major order (tile[col*4+row]) and compresses
// to one 64-bit word.
package etc

// Mode classifies a block after mode detection.
type Mode uint8

const (
	// ModeETC1 covers both individual (4+4) and differential (5+3)
	// endpoint encodings.
	ModeETC1 Mode = iota
	ModeT
	ModeH
	ModePlanar
)

// BlockColor holds the two endpoint colors of a block. For ModeETC1 the
// values are expanded to 8 bits; for the ETC2 extension modes they are left
// exactly as mode detection found them (raw 5-bit fields).
type BlockColor struct {
	R1, G1, B1 uint32
	R2, G2, B2 uint32
}

// DecodeBlockColor performs mode detection on a normalized block word and
// extracts the endpoint colors. A set diff bit with an out-of-range 5-bit
// candidate marks an ETC2 extension block: the overflowing channel picks the
// sub-mode (r→T, g→H, b→planar).
func DecodeBlockColor(d uint64) (BlockColor, Mode) {
	var c BlockColor

	if d&0x2 != 0 {
		c.R1 = uint32(d&0xF8000000) >> 27
		c.G1 = uint32(d&0x00F80000) >> 19
		c.B1 = uint32(d&0x0000F800) >> 11

		dr := int32(d&0x07000000) >> 24
		dg := int32(d&0x00070000) >> 16
		db := int32(d&0x00000700) >> 8
		if dr&0x4 != 0 {
			dr -= 8
		}
		if dg&0x4 != 0 {
			dg -= 8
		}
		if db&0x4 != 0 {
			db -= 8
		}

		r := int32(c.R1) + dr
		g := int32(c.G1) + dg
		b := int32(c.B1) + db

		if r < 0 || r > 31 {
			return c, ModeT
		}
		if g < 0 || g > 31 {
			return c, ModeH
		}
		if b < 0 || b > 31 {
			return c, ModePlanar
		}

		c.R2 = uint32(r)
		c.G2 = uint32(g)
		c.B2 = uint32(b)

		c.R1 = expand5(c.R1)
		c.G1 = expand5(c.G1)
		c.B1 = expand5(c.B1)
		c.R2 = expand5(c.R2)
		c.G2 = expand5(c.G2)
		c.B2 = expand5(c.B2)
	} else {
		c.R1 = expand4(uint32(d&0xF0000000) >> 28)
		c.R2 = expand4(uint32(d&0x0F000000) >> 24)
		c.G1 = expand4(uint32(d&0x00F00000) >> 20)
		c.G2 = expand4(uint32(d&0x000F0000) >> 16)
		c.B1 = expand4(uint32(d&0x0000F000) >> 12)
		c.B2 = expand4(uint32(d&0x00000F00) >> 8)
	}
	return c, ModeETC1
}

func packRGB(r, g, b uint32) uint32 {
	return r | g<<8 | b<<16 | 0xFF000000
}

// selector returns the 2-bit modifier selector of pixel k, k = col*4+row.
// The low bit sits at word bit 32+k, the high bit at 48+k.
func selector(d uint64, k int) uint32 {
	return uint32(((d >> (32 + k)) & 1) | ((d >> (47 + k)) & 2))
}

func decodeETC1Tile(d uint64, c BlockColor, out *[16]uint32) {
	cw := [2]uint32{uint32(d&0xE0) >> 5, uint32(d&0x1C) >> 2}
	base := [2][3]uint32{{c.R1, c.G1, c.B1}, {c.R2, c.G2, c.B2}}
	flip := d&0x1 != 0

	for k := 0; k < 16; k++ {
		half := 0
		if flip {
			if k&3 >= 2 {
				half = 1
			}
		} else if k >= 8 {
			half = 1
		}
		mod := modifierTable[cw[half]][selector(d, k)]
		out[k] = packRGB(
			clampU8(int32(base[half][0])+mod),
			clampU8(int32(base[half][1])+mod),
			clampU8(int32(base[half][2])+mod))
	}
}

func decodeTTile(d uint64, out *[16]uint32) {
	c0 := [3]int32{
		int32(expand4((uint32(d>>25) & 0xC) | (uint32(d>>24) & 0x3))),
		int32(expand4(uint32(d>>20) & 0xF)),
		int32(expand4(uint32(d>>16) & 0xF)),
	}
	c1 := [3]int32{
		int32(expand4(uint32(d>>12) & 0xF)),
		int32(expand4(uint32(d>>8) & 0xF)),
		int32(expand4(uint32(d>>4) & 0xF)),
	}
	dist := distanceTable[(uint32(d>>1)&6)|(uint32(d)&1)]

	paint := [4][3]int32{
		c0,
		{c1[0] + dist, c1[1] + dist, c1[2] + dist},
		c1,
		{c1[0] - dist, c1[1] - dist, c1[2] - dist},
	}
	for k := 0; k < 16; k++ {
		p := paint[selector(d, k)]
		out[k] = packRGB(clampU8(p[0]), clampU8(p[1]), clampU8(p[2]))
	}
}

func decodeHTile(d uint64, out *[16]uint32) {
	c0 := [3]int32{
		int32(expand4(uint32(d>>27) & 0xF)),
		int32(expand4((uint32(d>>23) & 0xE) | (uint32(d>>20) & 0x1))),
		int32(expand4((uint32(d>>16) & 0x8) | (uint32(d>>15) & 0x7))),
	}
	c1 := [3]int32{
		int32(expand4(uint32(d>>11) & 0xF)),
		int32(expand4(uint32(d>>7) & 0xF)),
		int32(expand4(uint32(d>>3) & 0xF)),
	}

	// The distance index steals its low bit from the endpoint ordering.
	di := (uint32(d) & 4) | ((uint32(d) & 1) << 1)
	if (c0[0]<<16)|(c0[1]<<8)|c0[2] >= (c1[0]<<16)|(c1[1]<<8)|c1[2] {
		di |= 1
	}
	dist := distanceTable[di]

	paint := [4][3]int32{
		{c0[0] + dist, c0[1] + dist, c0[2] + dist},
		{c0[0] - dist, c0[1] - dist, c0[2] - dist},
		{c1[0] + dist, c1[1] + dist, c1[2] + dist},
		{c1[0] - dist, c1[1] - dist, c1[2] - dist},
	}
	for k := 0; k < 16; k++ {
		p := paint[selector(d, k)]
		out[k] = packRGB(clampU8(p[0]), clampU8(p[1]), clampU8(p[2]))
	}
}

func decodePlanarTile(d uint64, out *[16]uint32) {
	vb := expand6(uint32(d>>32) & 0x3F)
	vg := expand7(uint32(d>>38) & 0x7F)
	vr := expand6(uint32(d>>45) & 0x3F)

	hb := expand6(uint32(d>>51) & 0x3F)
	hg := expand7(uint32(d>>57) & 0x7F)
	hr := expand6((uint32(d) & 0x01) | ((uint32(d>>2) & 0x1F) << 1))

	ob := expand6((uint32(d>>7) & 0x07) | ((uint32(d>>11) & 0x3) << 3) | ((uint32(d>>16) & 0x1) << 5))
	og := expand7((uint32(d>>17) & 0x3F) | ((uint32(d>>24) & 0x01) << 6))
	or := expand6(uint32(d>>25) & 0x3F)

	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			r := clampU8((int32(i)*(hr-or) + int32(j)*(vr-or) + 4*or + 2) >> 2)
			g := clampU8((int32(i)*(hg-og) + int32(j)*(vg-og) + 4*og + 2) >> 2)
			b := clampU8((int32(i)*(hb-ob) + int32(j)*(vb-ob) + 4*ob + 2) >> 2)
			out[i*4+j] = packRGB(r, g, b)
		}
	}
}

// DecodeBlock expands a payload block word into 16 opaque pixels in
// column-major tile order.
func DecodeBlock(d uint64, out *[16]uint32) {
	d = Normalize(d)
	c, mode := DecodeBlockColor(d)
	switch mode {
	case ModePlanar:
		decodePlanarTile(d, out)
	case ModeT:
		decodeTTile(d, out)
	case ModeH:
		decodeHTile(d, out)
	default:
		decodeETC1Tile(d, c, out)
	}
}
