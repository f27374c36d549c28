package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/w0wtiger/etcpak/internal/bitmap"
	"github.com/w0wtiger/etcpak/internal/blockdata"
)

func TestBatchFileParsing(t *testing.T) {
	raw := []byte(`
jobs: 2
textures:
  - input: grass.png
    output: grass.pvr
    mipmap: true
    etc2: true
  - input: mask.tga
    output: mask.pvr
    alpha: true
`)
	var batch batchFile
	require.NoError(t, yaml.Unmarshal(raw, &batch))
	require.Equal(t, 2, batch.Jobs)
	require.Len(t, batch.Textures, 2)
	require.Equal(t, "grass.png", batch.Textures[0].Input)
	require.True(t, batch.Textures[0].Mipmap)
	require.True(t, batch.Textures[1].Alpha)
	require.False(t, batch.Textures[1].ETC2)
}

func TestPackJobRoundTrip(t *testing.T) {
	dir := t.TempDir()

	src := bitmap.New(16, 16)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint32(x * 16)
			src.Data()[y*16+x] = 0xFF000000 | v | v<<8 | v<<16
		}
	}
	input := filepath.Join(dir, "in.png")
	require.NoError(t, src.WritePNG(input))

	job := packJob{
		Input:  input,
		Output: filepath.Join(dir, "out.pvr"),
		Mipmap: true,
		ETC2:   true,
	}
	require.NoError(t, job.run(2))

	bd, err := blockdata.Open(job.Output)
	require.NoError(t, err)
	defer bd.Close()

	require.Equal(t, blockdata.Size{X: 16, Y: 16}, bd.Size())
	// Header + base + 8x8 + 4x4 + two padded levels.
	require.Equal(t, 52+128+32+8+8+8, bd.Len())

	decoded := bd.Decode()
	for i, p := range decoded.Data() {
		require.Equal(t, uint32(0xFF), p>>24, "pixel %d", i)
	}

	// An odd-sized input gets padded up to whole blocks.
	odd := bitmap.New(5, 3)
	oddPath := filepath.Join(dir, "odd.png")
	require.NoError(t, odd.WritePNG(oddPath))
	oddJob := packJob{Input: oddPath, Output: filepath.Join(dir, "odd.pvr")}
	require.NoError(t, oddJob.run(1))

	oddOut, err := blockdata.Open(oddJob.Output)
	require.NoError(t, err)
	defer oddOut.Close()
	require.Equal(t, blockdata.Size{X: 8, Y: 4}, oddOut.Size())
}
