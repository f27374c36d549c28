package etc

// halfPixels lists the tile indices of the two sub-blocks for each flip
// orientation: side-by-side 2×4 halves when flip is clear, stacked 4×2
// halves when set.
var halfPixels = [2][2][8]int{
	{
		{0, 1, 2, 3, 4, 5, 6, 7},
		{8, 9, 10, 11, 12, 13, 14, 15},
	},
	{
		{0, 1, 4, 5, 8, 9, 12, 13},
		{2, 3, 6, 7, 10, 11, 14, 15},
	},
}

func quant4(v uint32) uint32 { return (v*15 + 127) / 255 }
func quant5(v uint32) uint32 { return (v*31 + 127) / 255 }

// averageHalf returns the rounded per-channel average of one sub-block.
func averageHalf(tile *[16]uint32, idx *[8]int) [3]uint32 {
	var sum [3]uint32
	for _, k := range idx {
		p := tile[k]
		sum[0] += p & 0xFF
		sum[1] += (p >> 8) & 0xFF
		sum[2] += (p >> 16) & 0xFF
	}
	return [3]uint32{(sum[0] + 4) >> 3, (sum[1] + 4) >> 3, (sum[2] + 4) >> 3}
}

// searchHalf finds the table codeword and per-pixel selectors that best
// approximate one sub-block against an expanded base color. The returned
// bits are ready to OR into the selector half of the block word.
func searchHalf(tile *[16]uint32, idx *[8]int, base [3]int32) (table uint32, selBits uint64, err uint32) {
	err = ^uint32(0)
	for t := uint32(0); t < 8; t++ {
		var tabErr uint32
		var tabBits uint64
		for _, k := range idx {
			p := tile[k]
			pr := int32(p & 0xFF)
			pg := int32((p >> 8) & 0xFF)
			pb := int32((p >> 16) & 0xFF)

			bestSel, bestErr := uint64(0), ^uint32(0)
			for s := uint64(0); s < 4; s++ {
				mod := modifierTable[t][s]
				dr := int32(clampU8(base[0]+mod)) - pr
				dg := int32(clampU8(base[1]+mod)) - pg
				db := int32(clampU8(base[2]+mod)) - pb
				e := uint32(dr*dr + dg*dg + db*db)
				if e < bestErr {
					bestSel, bestErr = s, e
				}
			}
			tabErr += bestErr
			tabBits |= (bestSel & 1) << (32 + k)
			tabBits |= (bestSel >> 1) << (48 + k)
		}
		if tabErr < err {
			table, selBits, err = t, tabBits, tabErr
		}
	}
	return table, selBits, err
}

// encodeETC1 runs the ETC1 search: both flip orientations, differential
// endpoints when the quantized delta fits the signed 3-bit range,
// individual endpoints otherwise. Returns a normalized block word and its
// squared error.
func encodeETC1(tile *[16]uint32) (uint64, uint32) {
	bestWord, bestErr := uint64(0), ^uint32(0)

	for flip := 0; flip < 2; flip++ {
		idx0 := &halfPixels[flip][0]
		idx1 := &halfPixels[flip][1]
		avg0 := averageHalf(tile, idx0)
		avg1 := averageHalf(tile, idx1)

		q0 := [3]uint32{quant5(avg0[0]), quant5(avg0[1]), quant5(avg0[2])}
		q1 := [3]uint32{quant5(avg1[0]), quant5(avg1[1]), quant5(avg1[2])}
		dr := int32(q1[0]) - int32(q0[0])
		dg := int32(q1[1]) - int32(q0[1])
		db := int32(q1[2]) - int32(q0[2])

		var word uint64
		if dr >= -4 && dr <= 3 && dg >= -4 && dg <= 3 && db >= -4 && db <= 3 {
			base0 := [3]int32{int32(expand5(q0[0])), int32(expand5(q0[1])), int32(expand5(q0[2]))}
			base1 := [3]int32{int32(expand5(q1[0])), int32(expand5(q1[1])), int32(expand5(q1[2]))}
			t0, sel0, e0 := searchHalf(tile, idx0, base0)
			t1, sel1, e1 := searchHalf(tile, idx1, base1)
			if e0+e1 >= bestErr {
				continue
			}
			word = uint64(q0[0])<<27 | uint64(dr&7)<<24 |
				uint64(q0[1])<<19 | uint64(dg&7)<<16 |
				uint64(q0[2])<<11 | uint64(db&7)<<8 |
				uint64(t0)<<5 | uint64(t1)<<2 | 0x2 | uint64(flip)
			word |= sel0 | sel1
			bestWord, bestErr = word, e0+e1
		} else {
			i0 := [3]uint32{quant4(avg0[0]), quant4(avg0[1]), quant4(avg0[2])}
			i1 := [3]uint32{quant4(avg1[0]), quant4(avg1[1]), quant4(avg1[2])}
			base0 := [3]int32{int32(expand4(i0[0])), int32(expand4(i0[1])), int32(expand4(i0[2]))}
			base1 := [3]int32{int32(expand4(i1[0])), int32(expand4(i1[1])), int32(expand4(i1[2]))}
			t0, sel0, e0 := searchHalf(tile, idx0, base0)
			t1, sel1, e1 := searchHalf(tile, idx1, base1)
			if e0+e1 >= bestErr {
				continue
			}
			word = uint64(i0[0])<<28 | uint64(i1[0])<<24 |
				uint64(i0[1])<<20 | uint64(i1[1])<<16 |
				uint64(i0[2])<<12 | uint64(i1[2])<<8 |
				uint64(t0)<<5 | uint64(t1)<<2 | uint64(flip)
			word |= sel0 | sel1
			bestWord, bestErr = word, e0+e1
		}
	}
	return bestWord, bestErr
}

func tileError(a, b *[16]uint32) uint32 {
	var err uint32
	for k := range a {
		dr := int32(a[k]&0xFF) - int32(b[k]&0xFF)
		dg := int32((a[k]>>8)&0xFF) - int32((b[k]>>8)&0xFF)
		db := int32((a[k]>>16)&0xFF) - int32((b[k]>>16)&0xFF)
		err += uint32(dr*dr + dg*dg + db*db)
	}
	return err
}

// ProcessRGB compresses a tile as an ETC1 block and returns the word in
// payload memory order: storing it little-endian yields the big-endian
// on-disk byte sequence.
func ProcessRGB(tile *[16]uint32) uint64 {
	word, _ := encodeETC1(tile)
	return Normalize(word)
}

// ProcessRGBETC2 compresses a tile trying the ETC1 search plus the ETC2
// planar candidate, keeping whichever reproduces the tile with less error.
func ProcessRGBETC2(tile *[16]uint32) uint64 {
	word, err := encodeETC1(tile)
	pWord, pErr := encodePlanar(tile)
	if pErr < err {
		word = pWord
	}
	return Normalize(word)
}
