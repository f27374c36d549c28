package blockdata

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, p uint32) []uint32 {
	pix := make([]uint32, w*h)
	for i := range pix {
		pix[i] = p
	}
	return pix
}

func noiseImage(w, h int, seed uint32) []uint32 {
	pix := make([]uint32, w*h)
	s := seed
	for i := range pix {
		s ^= s << 13
		s ^= s >> 17
		s ^= s << 5
		pix[i] = s | 0xFF000000
	}
	return pix
}

func TestSolidTwoBlocks(t *testing.T) {
	bd, err := NewBuffer(Size{X: 8, Y: 4}, false)
	require.NoError(t, err)

	src := solidImage(8, 4, 0xFF112233)
	require.NoError(t, bd.Process(src, 2, 0, 8, ChannelsRGB, false, false))

	payload := bd.Payload()
	require.Equal(t, payload[:8], payload[8:16], "solid image must produce identical blocks")

	decoded := bd.Decode()
	require.Equal(t, 8, decoded.Width())
	require.Equal(t, 4, decoded.Height())
	for i, p := range decoded.Data() {
		if p>>24 != 0xFF {
			t.Fatalf("pixel %d: alpha %#02x", i, p>>24)
		}
		// Solid blocks land within one step per channel.
		for shift := 0; shift < 24; shift += 8 {
			got := int32((p >> shift) & 0xFF)
			want := int32((uint32(0xFF112233) >> shift) & 0xFF)
			if d := got - want; d < -1 || d > 1 {
				t.Fatalf("pixel %d channel %d: got %d want %d", i, shift/8, got, want)
			}
		}
	}
}

func TestAlphaAsLumaDecodesGray(t *testing.T) {
	bd, err := NewBuffer(Size{X: 4, Y: 4}, false)
	require.NoError(t, err)

	src := noiseImage(4, 4, 99)
	// Dither request must be ignored for alpha input.
	require.NoError(t, bd.Process(src, 1, 0, 4, ChannelsAlpha, true, false))

	for i, p := range bd.Decode().Data() {
		r, g, b := p&0xFF, (p>>8)&0xFF, (p>>16)&0xFF
		if r != g || g != b {
			t.Fatalf("pixel %d: %#08x not gray", i, p)
		}
	}
}

func TestProcessRangeValidation(t *testing.T) {
	bd, err := NewBuffer(Size{X: 4, Y: 4}, false)
	require.NoError(t, err)

	src := solidImage(4, 4, 0)
	require.Error(t, bd.Process(src, 2, 0, 4, ChannelsRGB, false, false))
	require.Error(t, bd.Process(src, 1, 0, 6, ChannelsRGB, false, false))
}

func TestInvalidSizes(t *testing.T) {
	for _, size := range []Size{{X: 0, Y: 4}, {X: 4, Y: 0}, {X: 6, Y: 4}, {X: 4, Y: -4}} {
		_, err := NewBuffer(size, false)
		require.ErrorIs(t, err, ErrInvalidSize, "size %v", size)
		_, err = Create(filepath.Join(t.TempDir(), "x.pvr"), size, false)
		require.ErrorIs(t, err, ErrInvalidSize, "size %v", size)
	}
}

func TestCreateOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.pvr")

	bd, err := Create(path, Size{X: 8, Y: 8}, false)
	require.NoError(t, err)
	src := noiseImage(8, 8, 7)
	require.NoError(t, bd.Process(src, 4, 0, 8, ChannelsRGB, false, true))
	want := append([]byte(nil), bd.Payload()...)
	require.NoError(t, bd.Close())

	opened, err := Open(path)
	require.NoError(t, err)
	defer opened.Close()

	require.Equal(t, Size{X: 8, Y: 8}, opened.Size())
	require.Equal(t, pvrHeaderSize, opened.DataOffset())
	require.Equal(t, want, opened.Payload())
}

func TestCreateMipmapLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mips.pvr")

	bd, err := Create(path, Size{X: 16, Y: 16}, true)
	require.NoError(t, err)
	defer bd.Close()

	// Header + base + 8x8 + 4x4 + padded 2x2 + padded 1x1.
	require.Equal(t, 52+128+32+8+8+8, bd.Len())

	buf, err := NewBuffer(Size{X: 16, Y: 16}, true)
	require.NoError(t, err)
	require.Equal(t, bd.Len(), buf.Len())
}

func TestOpenHandcraftedPVR(t *testing.T) {
	// 52-byte header, metadata 0, 4x4, one level, one all-zero block.
	raw := make([]byte, 52+8)
	writePVRHeader(raw, Size{X: 4, Y: 4}, 1)

	path := filepath.Join(t.TempDir(), "zero.pvr")
	require.NoError(t, os.WriteFile(path, raw, 0666))

	bd, err := Open(path)
	require.NoError(t, err)
	defer bd.Close()

	require.Equal(t, Size{X: 4, Y: 4}, bd.Size())
	decoded := bd.Decode()
	require.Equal(t, uint32(0xFF), decoded.Data()[0]>>24)
}

func TestOpenKTX(t *testing.T) {
	raw := make([]byte, 17*4+32)
	binary.LittleEndian.PutUint32(raw[0:], ktxMagic)
	binary.LittleEndian.PutUint32(raw[9*4:], 8)  // width
	binary.LittleEndian.PutUint32(raw[10*4:], 8) // height
	binary.LittleEndian.PutUint32(raw[15*4:], 0) // key/value bytes

	path := filepath.Join(t.TempDir(), "tex.ktx")
	require.NoError(t, os.WriteFile(path, raw, 0666))

	bd, err := Open(path)
	require.NoError(t, err)
	defer bd.Close()

	require.Equal(t, Size{X: 8, Y: 8}, bd.Size())
	require.Equal(t, 68, bd.DataOffset())
}

func TestOpenUnknownMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.bin")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0x42}, 64), 0666))

	_, err := Open(path)
	require.ErrorIs(t, err, ErrUnsupportedEnvelope)
}

func TestParallelEncodeMatchesSerial(t *testing.T) {
	const dim = 64
	src := noiseImage(dim, dim, 0xACE1)

	serial, err := NewBuffer(Size{X: dim, Y: dim}, false)
	require.NoError(t, err)
	require.NoError(t, serial.Process(src, dim*dim/16, 0, dim, ChannelsRGB, false, true))

	parallel, err := NewBuffer(Size{X: dim, Y: dim}, false)
	require.NoError(t, err)

	// Four disjoint block-row ranges, encoded concurrently.
	var wg sync.WaitGroup
	rows := dim / 4
	rowBlocks := dim / 4
	errs := make([]error, 4)
	for part := 0; part < 4; part++ {
		part := part
		start := part * rows / 4
		end := (part + 1) * rows / 4
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[part] = parallel.Process(src[start*4*dim:], (end-start)*rowBlocks,
				start*rowBlocks, dim, ChannelsRGB, false, true)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, serial.Payload(), parallel.Payload())
}

func TestDissectViews(t *testing.T) {
	bd, err := NewBuffer(Size{X: 8, Y: 8}, false)
	require.NoError(t, err)

	src := noiseImage(8, 8, 0x51)
	require.NoError(t, bd.Process(src, 4, 0, 8, ChannelsRGB, false, true))

	types, colors, sels := bd.Dissect()
	require.Equal(t, 2, types.Width())
	require.Equal(t, 2, types.Height())
	require.Equal(t, 8, colors.Width())
	require.Equal(t, 2, sels.Width())

	palette := map[uint32]bool{
		dissectIndividual:     true,
		dissectIndividualFlip: true,
		dissectDifferential:   true,
		dissectDifferentialF:  true,
		dissectPlanar:         true,
		dissectTH:             true,
	}
	for i, p := range types.Data() {
		require.True(t, palette[p], "block %d: %#08x not in palette", i, p)
	}

	dir := t.TempDir()
	require.NoError(t, bd.WriteDissection(dir))
	for _, name := range []string{"out_block_type.png", "out_block_color.png", "out_block_selectors.png"} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
	}
}
