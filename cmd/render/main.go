// render draws catalog fractals offscreen and saves them as PNG files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/catalog"
	"github.com/marben/chaos_ifs/config"
	"github.com/marben/chaos_ifs/engine"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	var cfg config.Render
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}
	flag.StringVar(&cfg.Catalog, "catalog", cfg.Catalog, "catalog file (.json, .yaml, .db)")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "image width")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "image height")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed, 0 picks one")
	id := flag.String("fractal", "triangle", "fractal id")
	out := flag.String("o", "", "output file, <id>.png by default")
	all := flag.String("all", "", "render every fractal into this directory")
	batches := flag.Int("batches", 400, "number of batches to run")
	labels := flag.Bool("labels", true, "label vertex markers")
	list := flag.Bool("list", false, "list fractal ids and exit")
	flag.Parse()

	logger := config.NewLogger(os.Stderr, cfg.LogLevel)
	chaos.SetLogger(logger)

	if err := cfg.Canvas.Validate(); err != nil {
		return err
	}

	cat, err := catalog.Load(context.Background(), cfg.Catalog)
	if err != nil {
		if cat == nil {
			return fmt.Errorf("catalog: %w", err)
		}
		logger.Warn("catalog has invalid entries", "err", err)
	}

	if *list {
		for _, d := range cat.All() {
			fmt.Printf("%-20s %-12s %s\n", d.ID, d.Type, d.Name)
		}
		return nil
	}

	if cfg.Seed == 0 {
		if cfg.Seed, err = engine.NewSeed(); err != nil {
			return err
		}
	}
	opts := options{
		width:   cfg.Width,
		height:  cfg.Height,
		batches: *batches,
		seed:    cfg.Seed,
		labels:  *labels,
		logger:  logger,
	}
	logger.Debug("render options", "seed", cfg.Seed, "width", cfg.Width, "height", cfg.Height, "batches", *batches)

	if *all != "" {
		if err := os.MkdirAll(*all, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		return renderAll(*all, cat.All(), opts)
	}

	d, ok := cat.Get(*id)
	if !ok {
		return fmt.Errorf("unknown fractal %q", *id)
	}
	path := *out
	if path == "" {
		path = d.ID + ".png"
	}
	return renderTo(path, d, opts)
}
