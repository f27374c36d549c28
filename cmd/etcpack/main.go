package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/w0wtiger/etcpak/internal/blockdata"
)

func main() {
	app := cli.NewApp()

	app.Name = "etcpack"
	app.Usage = "ETC1/ETC2 texture compressor"
	app.Version = "1.0.0"

	encodeFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:    "mipmap",
			Aliases: []string{"m"},
			Usage:   "generate the full mipmap chain",
		},
		&cli.BoolFlag{
			Name:    "dither",
			Aliases: []string{"d"},
			Usage:   "dither tiles before encoding",
		},
		&cli.BoolFlag{
			Name:    "etc2",
			Aliases: []string{"e"},
			Usage:   "allow ETC2 extension modes",
		},
		&cli.BoolFlag{
			Name:    "alpha",
			Aliases: []string{"a"},
			Usage:   "encode the alpha channel as luma",
		},
		&cli.IntFlag{
			Name:    "jobs",
			Aliases: []string{"j"},
			Value:   4,
			Usage:   "concurrent encode workers",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "pack",
			Usage:     "Compress an image into a .pvr texture",
			ArgsUsage: "INPUT [OUTPUT]",
			Flags:     encodeFlags,
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				input := c.Args().First()
				output := c.Args().Get(1)
				if output == "" {
					output = strings.TrimSuffix(input, filepath.Ext(input)) + ".pvr"
				}
				job := packJob{
					Input:  input,
					Output: output,
					Mipmap: c.Bool("mipmap"),
					Dither: c.Bool("dither"),
					ETC2:   c.Bool("etc2"),
					Alpha:  c.Bool("alpha"),
				}
				return job.run(c.Int("jobs"))
			},
		},
		{
			Name:      "unpack",
			Usage:     "Decode a .pvr or .ktx texture back to PNG",
			ArgsUsage: "INPUT [OUTPUT]",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				input := c.Args().First()
				output := c.Args().Get(1)
				if output == "" {
					output = strings.TrimSuffix(input, filepath.Ext(input)) + ".png"
				}

				bd, err := blockdata.Open(input)
				if err != nil {
					return err
				}
				defer bd.Close()

				fmt.Printf("Decoding %q (%dx%d)...\n", input, bd.Size().X, bd.Size().Y)
				return bd.Decode().WritePNG(output)
			},
		},
		{
			Name:      "dissect",
			Usage:     "Write diagnostic views of a texture's block stream",
			ArgsUsage: "INPUT [DIR]",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				dir := c.Args().Get(1)
				if dir == "" {
					dir = "."
				}

				bd, err := blockdata.Open(c.Args().First())
				if err != nil {
					return err
				}
				defer bd.Close()

				return bd.WriteDissection(dir)
			},
		},
		{
			Name:      "batch",
			Usage:     "Compress every texture listed in a YAML job file",
			ArgsUsage: "JOBFILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				return runBatch(c.Args().First())
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
