package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/catalog"
	"github.com/marben/chaos_ifs/scheduler"
	"github.com/marben/chaos_ifs/stream"
	"github.com/marben/chaos_ifs/surface"
)

var errUnknownFractal = errors.New("unknown fractal")

// coordinator ties the catalog, the scheduler and the streamed surface
// together. Every connected client watches the same session.
type coordinator struct {
	catalog *catalog.Catalog
	logger  *slog.Logger

	hub     *stream.Hub
	surface *stream.Surface
	sched   *scheduler.Scheduler

	// current mirrors the scheduler's descriptor for hub callbacks,
	// which must not wait on a running batch.
	current atomic.Pointer[chaos.Descriptor]
}

type coordinatorConfig struct {
	width, height int
	seed          uint64
	origins       []string
}

func newCoordinator(cat *catalog.Catalog, host scheduler.Host, cfg coordinatorConfig, logger *slog.Logger) *coordinator {
	c := &coordinator{catalog: cat, logger: logger}
	c.hub = stream.NewHub(
		stream.WithHubLogger(logger),
		stream.WithOriginPatterns(cfg.origins...),
		stream.OnJoin(c.joinFrames),
		stream.OnActivate(c.activate),
	)
	c.surface = stream.NewSurface(surface.NewImage(cfg.width, cfg.height), c.hub)
	c.sched = scheduler.New(host, c.surface, scheduler.WithSeed(cfg.seed), scheduler.WithLogger(logger))
	return c
}

// activate switches every client to the fractal id.
func (c *coordinator) activate(id string) error {
	d, ok := c.catalog.Get(id)
	if !ok {
		return fmt.Errorf("%w %q", errUnknownFractal, id)
	}
	if err := c.sched.Activate(d); err != nil {
		return err
	}
	c.current.Store(&d)
	c.hub.Broadcast(stream.ActivateFrame(d))
	c.logger.Info("fractal activated", "id", d.ID, "clients", c.hub.Clients())
	return nil
}

// resize changes the canvas extent and restarts the current fractal on it.
func (c *coordinator) resize(width, height int) error {
	if err := c.surface.Resize(width, height); err != nil {
		return err
	}
	return c.sched.Reactivate()
}

// joinFrames is what a new client receives: the catalog, the active fractal
// and a snapshot of everything drawn so far.
func (c *coordinator) joinFrames() []stream.Frame {
	frames := []stream.Frame{stream.CatalogFrame(c.catalog.All())}
	if d := c.current.Load(); d != nil {
		frames = append(frames, stream.ActivateFrame(*d))
	}
	snap, err := c.surface.Snapshot()
	if err != nil {
		c.logger.Warn("snapshot for joining client", "err", err)
		return frames
	}
	return append(frames, snap)
}

type status struct {
	ID      string          `json:"id,omitempty"`
	State   string          `json:"state"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Clients int             `json:"clients"`
	Stats   scheduler.Stats `json:"stats"`
}

func (c *coordinator) status() status {
	w, h := c.surface.Extent()
	st := status{
		State:   c.sched.State().String(),
		Width:   w,
		Height:  h,
		Clients: c.hub.Clients(),
		Stats:   c.sched.Stats(),
	}
	if d := c.current.Load(); d != nil {
		st.ID = d.ID
	}
	return st
}

func (c *coordinator) handleFractals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, stream.CatalogFrame(c.catalog.All()).Fractals)
}

func (c *coordinator) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, c.status())
}

func (c *coordinator) handleActivate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := c.activate(id); err != nil {
		code := http.StatusUnprocessableEntity
		if errors.Is(err, errUnknownFractal) {
			code = http.StatusNotFound
		}
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, c.status())
}

func (c *coordinator) handleResize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if req.Width <= 0 || req.Height <= 0 || req.Width > maxExtent || req.Height > maxExtent {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("extent %dx%d out of range", req.Width, req.Height)})
		return
	}
	if err := c.resize(req.Width, req.Height); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, c.status())
}

func (c *coordinator) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, err := c.surface.Snapshot()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(snap.PNG)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
