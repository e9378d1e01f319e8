// Package scheduler runs rendering sessions in bounded iteration batches,
// one batch per host tick, with cancellation when a new descriptor is activated.
package scheduler

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/engine"
)

// State of the scheduler.
type State uint8

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Stats counts the work done by a scheduler since it was created.
type Stats struct {
	Activations uint64 `json:"activations"`
	Batches     uint64 `json:"batches"`
	Iterations  uint64 `json:"iterations"`
	Plotted     uint64 `json:"plotted"`
	Skipped     uint64 `json:"skipped"`
}

type Option func(*Scheduler)

// WithSeed makes every session of the scheduler draw from one deterministic generator.
func WithSeed(seed uint64) Option {
	return func(s *Scheduler) { s.rng = engine.NewRand(seed) }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBatchSize overrides the per-descriptor batch size when n > 0.
func WithBatchSize(n int) Option {
	return func(s *Scheduler) { s.batchSize = n }
}

// Scheduler owns the active session and the right to draw on the surface.
// Activate may be called from any goroutine; batches run on the host.
type Scheduler struct {
	host      Host
	surface   chaos.Surface
	logger    *slog.Logger
	rng       *rand.Rand
	batchSize int

	// mu is held for a whole batch, so a superseded session never draws
	// after Activate returns.
	mu       sync.Mutex
	state    State
	gen      uint64
	token    Token
	hasToken bool
	current  chaos.Descriptor
	active   bool
	session  *engine.Session
	stats    Stats
}

func New(host Host, surface chaos.Surface, opts ...Option) *Scheduler {
	s := &Scheduler{
		host:    host,
		surface: surface,
		logger:  chaos.Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = engine.NewRand(rand.Uint64())
	}
	return s
}

// Activate cancels the running session, clears the surface and starts d.
// An invalid d is reported without touching the running session.
func (s *Scheduler) Activate(d chaos.Descriptor) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("activate: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.gen++

	w, h := s.surface.Extent()
	s.surface.Clear()
	sess := engine.NewSession(d, w, h, s.rng)
	if m, ok := s.surface.(chaos.Marker); ok {
		for i, v := range sess.Vertices() {
			m.MarkVertex(v.X, v.Y, i)
		}
	}
	if f, ok := s.surface.(chaos.Flusher); ok {
		f.Flush()
	}

	s.current = d
	s.active = true
	s.session = sess
	s.state = Running
	s.stats.Activations++
	s.scheduleLocked(s.gen)

	s.logger.Debug("activated", "id", d.ID, "type", d.Type, "width", w, "height", h, "batch", s.batchFor(d))
	return nil
}

// Reactivate restarts the current descriptor, recomputing pixel coordinates
// from the surface's current extent. Call it after resizing the surface.
func (s *Scheduler) Reactivate() error {
	s.mu.Lock()
	d, ok := s.current, s.active
	s.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Activate(d)
}

// Stop cancels any scheduled batch and returns to Idle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.gen++
	s.session = nil
	s.state = Idle
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Current returns the last activated descriptor.
func (s *Scheduler) Current() (chaos.Descriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.active
}

func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Scheduler) cancelLocked() {
	if s.hasToken {
		s.host.Cancel(s.token)
		s.hasToken = false
	}
}

func (s *Scheduler) scheduleLocked(gen uint64) {
	s.token = s.host.ScheduleNext(func() { s.runBatch(gen) })
	s.hasToken = true
}

func (s *Scheduler) batchFor(d chaos.Descriptor) int {
	if s.batchSize > 0 {
		return s.batchSize
	}
	return d.BatchSize
}

func (s *Scheduler) runBatch(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// stale callback of a superseded or stopped session
	if gen != s.gen || s.state != Running {
		return
	}
	s.hasToken = false

	n := s.batchFor(s.current)
	for range n {
		p := s.session.Step()
		if p.Skipped {
			s.stats.Skipped++
			continue
		}
		s.surface.Plot(p.X, p.Y, p.Color)
		s.stats.Plotted++
	}
	s.stats.Iterations += uint64(n)
	s.stats.Batches++

	if f, ok := s.surface.(chaos.Flusher); ok {
		f.Flush()
	}
	s.scheduleLocked(gen)
}
