// Package mipmap computes mipmap chain geometry and downsamples bitmaps
// from one level to the next.
package mipmap

import (
	"image"
	"math/bits"

	xdraw "golang.org/x/image/draw"

	"github.com/w0wtiger/etcpak/internal/bitmap"
)

// NumLevels returns the length of the full mipmap chain down to 1×1:
// floor(log2(max(width, height))) + 1.
func NumLevels(width, height int) int {
	return bits.Len(uint(max(width, height)))
}

// LevelSize returns the dimensions of chain level l (level 0 is the base),
// halving and flooring at 1.
func LevelSize(width, height, level int) (int, int) {
	for i := 0; i < level; i++ {
		width = max(1, width/2)
		height = max(1, height/2)
	}
	return width, height
}

// Halve renders the next mipmap level of b, each dimension halved with a
// floor of 1.
func Halve(b *bitmap.Bitmap) *bitmap.Bitmap {
	w := max(1, b.Width()/2)
	h := max(1, b.Height()/2)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	src := b.Image()
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return bitmap.FromImage(dst)
}
