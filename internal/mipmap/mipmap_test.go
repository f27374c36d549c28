package mipmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/w0wtiger/etcpak/internal/bitmap"
)

func TestNumLevels(t *testing.T) {
	tests := []struct {
		w, h, want int
	}{
		{1, 1, 1},
		{4, 4, 3},
		{16, 16, 5},
		{4, 8, 4},
		{1024, 4, 11},
		{40, 24, 6}, // floor(log2(40)) + 1
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, NumLevels(tt.w, tt.h), "%dx%d", tt.w, tt.h)
	}
}

func TestLevelSizeReachesOne(t *testing.T) {
	w, h := 16, 4
	levels := NumLevels(w, h)
	lw, lh := LevelSize(w, h, levels-1)
	require.Equal(t, 1, lw)
	require.Equal(t, 1, lh)

	lw, lh = LevelSize(16, 4, 2)
	require.Equal(t, 4, lw)
	require.Equal(t, 1, lh)
}

func TestHalveDimensionsAndContent(t *testing.T) {
	src := bitmap.New(8, 4)
	for i := range src.Data() {
		src.Data()[i] = 0xFF808080
	}

	half := Halve(src)
	require.Equal(t, 4, half.Width())
	require.Equal(t, 2, half.Height())
	// A constant image stays constant under any resampling filter.
	for i, p := range half.Data() {
		require.Equal(t, uint32(0xFF808080), p, "pixel %d", i)
	}

	one := Halve(Halve(half))
	require.Equal(t, 1, one.Width())
	require.Equal(t, 1, one.Height())
}
