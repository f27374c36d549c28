package main

import (
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/w0wtiger/etcpak/internal/bitmap"
	"github.com/w0wtiger/etcpak/internal/blockdata"
	"github.com/w0wtiger/etcpak/internal/mipmap"
)

type packJob struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
	Mipmap bool   `yaml:"mipmap"`
	Dither bool   `yaml:"dither"`
	ETC2   bool   `yaml:"etc2"`
	Alpha  bool   `yaml:"alpha"`
}

func (j *packJob) channels() blockdata.Channels {
	if j.Alpha {
		return blockdata.ChannelsAlpha
	}
	return blockdata.ChannelsRGB
}

func (j *packJob) run(jobs int) error {
	bmp, err := bitmap.Load(j.Input)
	if err != nil {
		return err
	}
	bmp = bmp.PadToBlocks()
	size := blockdata.Size{X: bmp.Width(), Y: bmp.Height()}

	fmt.Printf("Packing %q (%dx%d, %d blocks)...\n",
		j.Input, size.X, size.Y, size.X*size.Y/16)

	bd, err := blockdata.Create(j.Output, size, j.Mipmap)
	if err != nil {
		return err
	}

	if err := j.encodeBase(bd, bmp, jobs); err != nil {
		bd.Close()
		return err
	}
	if j.Mipmap {
		if err := j.encodeMipChain(bd, bmp); err != nil {
			bd.Close()
			return err
		}
	}
	return bd.Close()
}

// encodeBase splits the base level into block-row ranges and encodes them
// concurrently. The ranges are disjoint, so the workers share the payload
// without locking.
func (j *packJob) encodeBase(bd *blockdata.BlockData, bmp *bitmap.Bitmap, jobs int) error {
	size := bd.Size()
	rows := size.Y / 4
	rowBlocks := size.X / 4
	if jobs < 1 {
		jobs = 1
	}
	chunk := (rows + jobs - 1) / jobs

	var g errgroup.Group
	g.SetLimit(jobs)
	for start := 0; start < rows; start += chunk {
		start := start
		end := min(rows, start+chunk)
		g.Go(func() error {
			return bd.Process(
				bmp.Data()[start*4*size.X:],
				(end-start)*rowBlocks,
				start*rowBlocks,
				size.X,
				j.channels(), j.Dither, j.ETC2)
		})
	}
	return g.Wait()
}

// encodeMipChain appends each halved level after the base payload. Levels
// below 4 pixels are edge-padded so every level encodes whole blocks.
func (j *packJob) encodeMipChain(bd *blockdata.BlockData, base *bitmap.Bitmap) error {
	size := bd.Size()
	levels := mipmap.NumLevels(size.X, size.Y)

	offset := size.X * size.Y / 16
	cur := base
	for level := 1; level < levels; level++ {
		cur = mipmap.Halve(cur)
		padded := cur.PadToBlocks()
		blocks := padded.Width() * padded.Height() / 16

		err := bd.Process(padded.Data(), blocks, offset, padded.Width(),
			j.channels(), j.Dither, j.ETC2)
		if err != nil {
			return fmt.Errorf("level %d: %w", level, err)
		}
		offset += blocks
	}
	return nil
}

type batchFile struct {
	Jobs     int        `yaml:"jobs"`
	Textures []*packJob `yaml:"textures"`
}

func runBatch(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}
	var batch batchFile
	if err := yaml.Unmarshal(raw, &batch); err != nil {
		return fmt.Errorf("parse %q: %w", path, err)
	}
	if batch.Jobs < 1 {
		batch.Jobs = 4
	}

	for _, job := range batch.Textures {
		if job.Output == "" {
			return fmt.Errorf("%q: texture %q has no output", path, job.Input)
		}
		if err := job.run(batch.Jobs); err != nil {
			return fmt.Errorf("pack %q: %w", job.Input, err)
		}
	}
	fmt.Printf("Packed %d textures.\n", len(batch.Textures))
	return nil
}
