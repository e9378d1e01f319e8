// term renders the fractal catalog in a terminal, two pixels per character cell.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

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
	var cfg config.Term
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}
	flag.StringVar(&cfg.Catalog, "catalog", cfg.Catalog, "catalog file (.json, .yaml, .db)")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed, 0 picks one")
	flag.DurationVar(&cfg.Tick, "tick", cfg.Tick, "interval between batches")
	logFile := flag.String("log", "", "write logs to this file")
	start := flag.String("fractal", "", "fractal id to show first")
	flag.Parse()

	// the screen owns stdout, logs go to a file or nowhere
	logger := chaos.Logger()
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logger = config.NewLogger(f, cfg.LogLevel)
		chaos.SetLogger(logger)
	}

	cat, err := catalog.Load(context.Background(), cfg.Catalog)
	if err != nil {
		if cat == nil {
			return fmt.Errorf("catalog: %w", err)
		}
		logger.Warn("catalog has invalid entries", "err", err)
	}
	if cat.Len() == 0 {
		return fmt.Errorf("catalog %q has no usable fractals", cfg.Catalog)
	}

	if cfg.Seed == 0 {
		if cfg.Seed, err = engine.NewSeed(); err != nil {
			return err
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("tcell.NewScreen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen.Init: %w", err)
	}
	defer screen.Fini()

	v := newViewer(screen, cat, cfg.Seed, logger)
	first := 0
	if i := cat.Index(*start); i >= 0 {
		first = i
	}
	v.show(first)

	loop(v, cfg.Tick)
	return nil
}

func loop(v *viewer, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev := <-events:
			if !v.handle(ev) {
				return
			}
		case <-ticker.C:
			v.tick()
		}
	}
}
