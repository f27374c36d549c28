package blockdata

import (
	"golang.org/x/sys/cpu"

	"github.com/w0wtiger/etcpak/internal/etc"
)

// Channels selects what the encoder reads from each source pixel.
type Channels uint8

const (
	// ChannelsRGB encodes the color channels.
	ChannelsRGB Channels = iota
	// ChannelsAlpha replicates the alpha byte into RGB before encoding,
	// producing a luma texture from the alpha plane.
	ChannelsAlpha
)

type kernelFunc func(*[16]uint32) uint64

func processRGBDither(tile *[16]uint32) uint64 {
	etc.Dither(tile)
	return etc.ProcessRGB(tile)
}

func processRGBETC2Dither(tile *[16]uint32) uint64 {
	etc.Dither(tile)
	return etc.ProcessRGBETC2(tile)
}

// kernelTable is indexed [etc2][dither][wide]. The wide column is the
// dispatch seam for vectorized kernels; it currently binds the portable
// ones.
var kernelTable = [2][2][2]kernelFunc{
	{
		{etc.ProcessRGB, etc.ProcessRGB},
		{processRGBDither, processRGBDither},
	},
	{
		{etc.ProcessRGBETC2, etc.ProcessRGBETC2},
		{processRGBETC2Dither, processRGBETC2Dither},
	},
}

// blockKernel resolves the encode kernel for one Process call. Alpha input
// never dithers, and the wide variant is taken when the host CPU has AVX2.
func blockKernel(typ Channels, dither, etc2, hasAVX2 bool) kernelFunc {
	if typ == ChannelsAlpha {
		dither = false
	}
	e, d, w := 0, 0, 0
	if etc2 {
		e = 1
	}
	if dither {
		d = 1
	}
	if hasAVX2 {
		w = 1
	}
	return kernelTable[e][d][w]
}

func hostHasAVX2() bool {
	return cpu.X86.HasAVX2
}
