package etc

// encodePlanar fits the ETC2 planar model to a tile: three control points
// O, H, V found by least squares, quantized to 6/7/6 bits per channel. The
// normal equations have a fixed coefficient matrix, so the solve reduces to
// three dot products and a 3×3 multiply per channel.
func encodePlanar(tile *[16]uint32) (uint64, uint32) {
	var q [3][3]uint32 // [O,H,V] per channel, quantized field values

	for c := 0; c < 3; c++ {
		var dO, dH, dV float64
		for k := 0; k < 16; k++ {
			col := float64(k >> 2)
			row := float64(k & 3)
			v := float64((tile[k] >> (8 * uint(c))) & 0xFF)
			dO += (1 - (col+row)/4) * v
			dH += col / 4 * v
			dV += row / 4 * v
		}

		o := 0.2875*dO - 0.0125*dH - 0.0125*dV
		h := -0.0125*dO + 0.4875*dH - 0.3125*dV
		v := -0.0125*dO - 0.3125*dH + 0.4875*dV

		o = min(255, max(0, o))
		h = min(255, max(0, h))
		v = min(255, max(0, v))

		scale := 63.0
		if c == 1 {
			scale = 127.0
		}
		q[0][c] = uint32(o*scale/255 + 0.5)
		q[1][c] = uint32(h*scale/255 + 0.5)
		q[2][c] = uint32(v*scale/255 + 0.5)
	}

	word := packPlanar(q[0], q[1], q[2])

	var out [16]uint32
	decodePlanarTile(word, &out)
	return word, tileError(tile, &out)
}

// packPlanar assembles the planar bit pattern in normalized order and pins
// the spare bits so that differential-mode detection sees the red and green
// deltas in range and the blue delta overflowing.
func packPlanar(o, h, v [3]uint32) uint64 {
	w := uint64(0x2) // diff bit

	w |= uint64(h[0]&0x01) | uint64(h[0]&0x3E)<<1
	w |= uint64(o[2]&0x07) << 7
	w |= uint64(o[2]&0x18) << 8
	w |= uint64(o[2]&0x20) << 11
	w |= uint64(o[1]&0x3F) << 17
	w |= uint64(o[1]&0x40) << 18
	w |= uint64(o[0]&0x3F) << 25

	w |= uint64(v[2]) << 32
	w |= uint64(v[1]) << 38
	w |= uint64(v[0]) << 45
	w |= uint64(h[2]) << 51
	w |= uint64(h[1]) << 57

	// Red delta must stay in range.
	w |= (((w >> 30) & 1) ^ 1) << 31
	// Green delta must stay in range.
	w |= (((w >> 22) & 1) ^ 1) << 23
	// Blue delta must overflow.
	a := (w >> 12) & 1
	b := (w >> 11) & 1
	c := (w >> 9) & 1
	d := (w >> 8) & 1
	if (a&c)|((a^1)&b&c&d)|(a&b&(c^1)&d) != 0 {
		w |= 7 << 13
	} else {
		w |= 1 << 10
	}
	return w
}
