package etc

// ditherBias is a 4×4 Bayer threshold matrix rescaled to the step of a
// 5-bit endpoint grid, indexed [row][col].
var ditherBias = [4][4]int32{
	{-4, 0, -3, 1},
	{2, -2, 3, -1},
	{-3, 1, -4, 0},
	{3, -1, 2, -2},
}

// Dither applies an ordered dither to a tile in place, nudging each pixel
// toward the quantization grid the encoder will snap it to. Alpha bytes are
// preserved.
func Dither(tile *[16]uint32) {
	for k := 0; k < 16; k++ {
		bias := ditherBias[k&3][k>>2]
		p := tile[k]
		r := clampU8(int32(p&0xFF) + bias)
		g := clampU8(int32((p>>8)&0xFF) + bias)
		b := clampU8(int32((p>>16)&0xFF) + bias)
		tile[k] = r | g<<8 | b<<16 | (p & 0xFF000000)
	}
}
