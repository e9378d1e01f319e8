// server renders one shared chaos game session and streams it to websocket clients.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/catalog"
	"github.com/marben/chaos_ifs/config"
	"github.com/marben/chaos_ifs/engine"
	"github.com/marben/chaos_ifs/scheduler"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	var cfg config.Server
	if err := config.ParseEnv(&cfg); err != nil {
		return err
	}
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "http listen address")
	flag.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "directory with index.html, wasm_exec.js and main.wasm")
	flag.StringVar(&cfg.Catalog, "catalog", cfg.Catalog, "catalog file (.json, .yaml, .db)")
	flag.IntVar(&cfg.Width, "width", cfg.Width, "canvas width")
	flag.IntVar(&cfg.Height, "height", cfg.Height, "canvas height")
	flag.DurationVar(&cfg.Tick, "tick", cfg.Tick, "interval between batches")
	origins := flag.String("origins", "", "comma separated websocket origin patterns")
	start := flag.String("fractal", "", "fractal id to start with")
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
	if cat.Len() == 0 {
		return fmt.Errorf("catalog %q has no usable fractals", cfg.Catalog)
	}
	if cfg.Seed == 0 {
		if cfg.Seed, err = engine.NewSeed(); err != nil {
			return err
		}
	}

	host := scheduler.NewTickerHost(cfg.Tick)
	defer host.Close()

	c := newCoordinator(cat, host, coordinatorConfig{
		width:   cfg.Width,
		height:  cfg.Height,
		seed:    cfg.Seed,
		origins: splitList(*origins),
	}, logger)

	first := cat.At(0).ID
	if *start != "" {
		first = *start
	}
	if err := c.activate(first); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := webServer(cfg.Addr, cfg.StaticDir, c)
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "seed", cfg.Seed)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("httpServer: %w", err)
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.sched.Stop()
	return srv.Shutdown(shutdownCtx)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
