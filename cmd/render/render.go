package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/scheduler"
	"github.com/marben/chaos_ifs/surface"
)

type options struct {
	width, height int
	batches       int
	seed          uint64
	labels        bool
	logger        *slog.Logger
}

// render runs d for the configured number of batches on an offscreen image.
func render(d chaos.Descriptor, opts options) (*surface.Image, scheduler.Stats, error) {
	img := surface.NewImage(opts.width, opts.height, surface.WithVertexLabels(opts.labels))
	host := scheduler.NewManualHost()
	sched := scheduler.New(host, img, scheduler.WithSeed(opts.seed), scheduler.WithLogger(opts.logger))

	if err := sched.Activate(d); err != nil {
		return nil, scheduler.Stats{}, err
	}
	host.RunTicks(opts.batches)
	sched.Stop()
	return img, sched.Stats(), nil
}

// renderTo renders d and saves it as a PNG file.
func renderTo(path string, d chaos.Descriptor, opts options) error {
	img, st, err := render(d, opts)
	if err != nil {
		return err
	}
	if err := img.SavePNG(path); err != nil {
		return fmt.Errorf("save %q: %w", path, err)
	}
	opts.logger.Info("rendered", "id", d.ID, "path", path, "iterations", st.Iterations, "plotted", st.Plotted, "skipped", st.Skipped)
	return nil
}

// renderAll writes one <id>.png per descriptor into dir.
func renderAll(dir string, ds []chaos.Descriptor, opts options) error {
	for _, d := range ds {
		if err := renderTo(filepath.Join(dir, d.ID+".png"), d, opts); err != nil {
			return fmt.Errorf("%s: %w", d.ID, err)
		}
	}
	return nil
}
