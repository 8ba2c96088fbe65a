// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	bitlock "github.com/facebookincubator/go-bitlock"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var logger = logrus.StandardLogger().WithField("module", "bitlock")

func parseIndex(s string, size uint64) (uint64, error) {
	i, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bit index %q: %w", s, err)
	}
	if i >= size {
		return 0, fmt.Errorf("bit index %d out of range [0,%d)", i, size)
	}
	return i, nil
}

func compile(c *cli.Context) error {
	output := c.String("output")
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		return fmt.Errorf("refusing to over-write existing file: %s", output)
	}
	if c.NArg() > 0 {
		return fmt.Errorf("unexpected command line arguments: %q", c.Args().Slice())
	}

	var reader io.Reader
	if c.IsSet("input") {
		f, err := os.Open(c.String("input"))
		if err != nil {
			return err
		}
		reader = f
		defer f.Close()
	} else {
		reader = os.Stdin
	}

	size := c.Uint64("size")
	v := bitlock.New(size)
	rdr := bufio.NewScanner(reader)
	start := time.Now()
	line := 0
	for rdr.Scan() {
		line++
		s := strings.TrimSpace(rdr.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		i, err := parseIndex(s, size)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		v.Set(i)
	}
	if err := rdr.Err(); err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"bits":    size,
		"set":     v.Count(),
		"elapsed": time.Since(start),
	}).Info("built in memory bit vector")

	o, e := os.Create(output)
	if e != nil {
		return fmt.Errorf("error opening %s: %w", output, e)
	}
	defer o.Close()
	n, err := v.WriteTo(o)
	if err != nil {
		return fmt.Errorf("error writing bit vector: %w", err)
	}
	logger.Infof("wrote %s to %s", humanize.IBytes(uint64(n)), output)
	return nil
}

func get(c *cli.Context) error {
	d, err := bitlock.OpenReadOnlyFromPath(c.String("input"))
	if err != nil {
		return fmt.Errorf("get: can't read input file: %w", err)
	}
	defer d.Close()
	for _, arg := range c.Args().Slice() {
		i, err := parseIndex(arg, d.Len())
		if err != nil {
			return err
		}
		set, err := d.Test(i)
		if err != nil {
			return fmt.Errorf("get: reading bit %d: %w", i, err)
		}
		fmt.Printf("bit %d: %t\n", i, set)
	}
	return nil
}

func describe(c *cli.Context) error {
	h, err := bitlock.ReadHeaderFromPath(c.String("input"))
	if err != nil {
		return fmt.Errorf("describe: can't read input file: %w", err)
	}
	fmt.Printf("Bit vector version %d\n", h.Version)
	fmt.Printf("%d bits in %d words (%s)\n", h.Size, h.Words(), humanize.IBytes(bitlock.StorageBytes(h.Size)))
	if !c.Bool("count") {
		return nil
	}
	v, err := bitlock.ReadFromPath(c.String("input"))
	if err != nil {
		return fmt.Errorf("describe: %w", err)
	}
	fmt.Printf("%d bits set\n", v.Count())
	return nil
}

func newApp() *cli.App {
	inputFlag := &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"in", "i"},
		Usage:    "file containing a bit vector",
		Required: true,
	}
	return &cli.App{
		Name:  "bitlock",
		Usage: "build, inspect and exercise atomic bit vectors",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
				EnvVars: []string{"BITLOCK_VERBOSE"},
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "compile",
				Usage: "compile a list of bit indices, one per line, into a bit vector file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"out", "o"},
						Value:   "bits.bin",
						Usage:   "name of the file to write the bit vector to",
					},
					&cli.StringFlag{
						Name:    "input",
						Aliases: []string{"in", "i"},
						Usage:   "file to read from (default is stdin)",
					},
					&cli.Uint64Flag{
						Name:     "size",
						Aliases:  []string{"n"},
						Usage:    "number of bits in the vector",
						Required: true,
					},
				},
				Action: compile,
			},
			{
				Name:      "get",
				Usage:     "read bits from a bit vector file without loading it",
				ArgsUsage: "index...",
				Flags:     []cli.Flag{inputFlag},
				Action:    get,
			},
			{
				Name:  "describe",
				Usage: "read the header from a bit vector file and describe it",
				Flags: []cli.Flag{
					inputFlag,
					&cli.BoolFlag{
						Name:  "count",
						Usage: "load the vector and count the set bits",
					},
				},
				Action: describe,
			},
			{
				Name:  "stress",
				Usage: "hammer a bit vector with concurrent bit-lock traffic and check for lost updates",
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:    "size",
						Aliases: []string{"n"},
						Value:   1024,
						Usage:   "number of bit-locks",
						EnvVars: []string{"BITLOCK_STRESS_SIZE"},
					},
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Value:   runtime.NumCPU(),
						Usage:   "number of concurrent workers",
						EnvVars: []string{"BITLOCK_STRESS_WORKERS"},
					},
					&cli.IntFlag{
						Name:    "iterations",
						Value:   100000,
						Usage:   "lock/unlock rounds per worker",
						EnvVars: []string{"BITLOCK_STRESS_ITERATIONS"},
					},
					&cli.Int64Flag{
						Name:  "seed",
						Value: 77,
						Usage: "random seed",
					},
				},
				Action: func(c *cli.Context) error {
					return stress(c.Context, stressConfig{
						Size:       c.Uint64("size"),
						Workers:    c.Int("workers"),
						Iterations: c.Int("iterations"),
						Seed:       c.Int64("seed"),
					})
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}
