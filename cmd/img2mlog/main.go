package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/img2mlog"
	"github.com/bodgit/img2mlog/grid"
	"github.com/bodgit/img2mlog/mlog"
	"github.com/urfave/cli/v2"
)

const defaultDB = "cache.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func optionFlags() []cli.Flag {
	o := img2mlog.DefaultOptions()
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "preset",
			Value: o.Preset,
			Usage: "display layout, one of " + strings.Join(mlog.PresetNames(), ", "),
		},
		&cli.IntFlag{
			Name:  "upscale",
			Value: o.Upscale,
			Usage: "display pixels per image cell, must divide the preset size",
		},
		&cli.StringFlag{
			Name:  "resample",
			Value: o.Resample,
			Usage: "resize filter, one of " + strings.Join(grid.Resamplers(), ", "),
		},
		&cli.IntFlag{
			Name:  "colors",
			Usage: "quantize to at most N colors, 0 disables",
		},
		&cli.StringFlag{
			Name:  "bg",
			Value: "0,0,0",
			Usage: "background r,g,b used for the clear and alpha blending",
		},
		&cli.IntFlag{
			Name:  "alpha-threshold",
			Value: o.AlphaThreshold,
			Usage: "pixels with alpha below this are skipped",
		},
		&cli.StringFlag{
			Name:    "display",
			EnvVars: []string{"IMG2MLOG_DISPLAY"},
			Value:   o.Display,
			Usage:   "name of the display link in the processor",
		},
		&cli.IntFlag{
			Name:  "max-lines",
			Value: o.MaxLines,
			Usage: "maximum instructions per program",
		},
		&cli.IntFlag{
			Name:  "drawbuf-limit",
			Value: o.DrawBufLimit,
			Usage: "draw operations between each drawflush",
		},
		&cli.BoolFlag{
			Name:  "use-end",
			Usage: "finish with end rather than stop so the picture is redrawn forever",
		},
		&cli.Float64Flag{
			Name:  "wait",
			Usage: "insert a wait of this many seconds, 0 disables",
		},
		&cli.IntFlag{
			Name:  "wait-every",
			Value: o.WaitEvery,
			Usage: "insert the wait after this many instructions",
		},
		&cli.BoolFlag{
			Name:  "preview",
			Usage: "also write a PNG preview of the display",
		},
	}
}

func optionsFromContext(c *cli.Context) (img2mlog.Options, error) {
	bg, err := img2mlog.ParseRGB(c.String("bg"))
	if err != nil {
		return img2mlog.Options{}, fmt.Errorf("bg: %w", err)
	}

	o := img2mlog.Options{
		Preset:         c.String("preset"),
		Upscale:        c.Int("upscale"),
		Resample:       c.String("resample"),
		Colors:         c.Int("colors"),
		Background:     bg,
		AlphaThreshold: c.Int("alpha-threshold"),
		Display:        c.String("display"),
		MaxLines:       c.Int("max-lines"),
		DrawBufLimit:   c.Int("drawbuf-limit"),
		UseEnd:         c.Bool("use-end"),
		Wait:           c.Float64("wait"),
		WaitEvery:      c.Int("wait-every"),
		Preview:        c.Bool("preview"),
	}

	return o, o.Validate()
}

func parseVars(list []string) (map[string]string, error) {
	vars := make(map[string]string, len(list))
	for _, v := range list {
		kv := strings.SplitN(v, "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			return nil, fmt.Errorf("variable %q must be in the form name=value", v)
		}
		vars[kv[0]] = kv[1]
	}
	return vars, nil
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newConverter(c *cli.Context) (*img2mlog.Converter, func(), error) {
	logger := newLogger(c)
	if c.Bool("no-cache") {
		return img2mlog.New(nil, logger), func() {}, nil
	}

	if err := os.MkdirAll(filepath.Dir(c.String("db")), 0755); err != nil {
		return nil, nil, err
	}

	db, err := img2mlog.NewProgramDB(c.String("db"))
	if err != nil {
		return nil, nil, err
	}

	return img2mlog.New(db, logger), func() { db.Close() }, nil
}

func main() {
	app := cli.NewApp()

	app.Name = "img2mlog"
	app.Usage = "Convert images into logic processor draw programs"
	app.Version = "1.0.0"

	dir, err := os.UserCacheDir()
	if err != nil {
		dir, err = os.Getwd()
		if err != nil {
			log.Fatal(err)
		}
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"IMG2MLOG_DB"},
			Value:   filepath.Join(dir, "img2mlog", defaultDB),
			Usage:   "path to program cache",
		},
		&cli.BoolFlag{
			Name:  "no-cache",
			Usage: "do not read or write the program cache",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "convert",
			Usage:       "Convert an image into programs",
			Description: "Run prog_01.mlog first, it is the only program that clears the display.",
			ArgsUsage:   "IMAGE",
			Flags: append(optionFlags(), &cli.StringFlag{
				Name:  "out",
				Value: img2mlog.DefaultOut,
				Usage: "directory for the generated programs",
			}),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				opts, err := optionsFromContext(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				m, closer, err := newConverter(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				if err := m.ConvertFile(c.Args().First(), c.String("out"), opts); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "batch",
			Usage:       "Convert every image in a directory",
			Description: "Programs for each image are written to their own directory under --out.",
			ArgsUsage:   "DIRECTORY",
			Flags: append(optionFlags(), &cli.StringFlag{
				Name:  "out",
				Value: img2mlog.DefaultOut,
				Usage: "directory for the generated programs",
			}),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				opts, err := optionsFromContext(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				m, closer, err := newConverter(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				if err := m.Batch(c.Args().First(), c.String("out"), opts); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "run",
			Usage:       "Run the conversions described in an HCL job file",
			Description: "Options given on the command line are the defaults for every job.",
			ArgsUsage:   "FILE",
			Flags: append(optionFlags(), &cli.StringSliceFlag{
				Name:  "var",
				Usage: "set a job file variable, name=value",
			}),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				opts, err := optionsFromContext(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				vars, err := parseVars(c.StringSlice("var"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				jobs, err := img2mlog.LoadJobs(c.Args().First(), vars, opts)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				m, closer, err := newConverter(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				if err := m.RunJobs(jobs); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "clear-cache",
			Usage:     "Remove all cached programs",
			ArgsUsage: " ",
			Action: func(c *cli.Context) error {
				db, err := img2mlog.NewProgramDB(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				if err := db.Clear(); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
