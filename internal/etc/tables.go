package etc

// modifierTable is the ETC1 intensity modifier table. The row is selected by
// a 3-bit table codeword, the column by the 2-bit per-pixel selector
// (lsb | msb<<1), so the columns run +small, +large, -small, -large.
var modifierTable = [8][4]int32{
	{2, 8, -2, -8},
	{5, 17, -5, -17},
	{9, 29, -9, -29},
	{13, 42, -13, -42},
	{18, 60, -18, -60},
	{24, 80, -24, -80},
	{33, 106, -33, -106},
	{47, 183, -47, -183},
}

// distanceTable holds the paint distances used by the ETC2 T and H modes.
var distanceTable = [8]int32{3, 6, 11, 16, 23, 32, 41, 64}

func clampU8(v int32) uint32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint32(v)
}

func expand4(v uint32) uint32 { return (v << 4) | v }
func expand5(v uint32) uint32 { return (v << 3) | (v >> 2) }
func expand6(v uint32) int32  { return int32((v << 2) | (v >> 4)) }
func expand7(v uint32) int32  { return int32((v << 1) | (v >> 6)) }

// Normalize applies the byte permutation that turns a block word as stored
// in the payload into the bit ordering used throughout this package: base
// colors, codewords and mode bits in the low 32 bits, selectors in the high
// 32. The permutation is its own inverse, so it also converts back.
func Normalize(d uint64) uint64 {
	return ((d & 0xFF000000FF000000) >> 24) |
		((d & 0x000000FF000000FF) << 24) |
		((d & 0x00FF000000FF0000) >> 8) |
		((d & 0x0000FF000000FF00) << 8)
}
