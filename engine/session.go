// Package engine implements the iteration core: vertex selection, point
// transforms for both descriptor modes, the exclusion filter and coloring.
//
// A Session is the complete iteration state of one activation. It keeps only
// the current point, the last selected index and the color-cycle counter, so
// it can be stepped forever in constant memory. Sessions are not safe for
// concurrent use; the scheduler owns exactly one at a time.
package engine

import (
	"image/color"
	"math/rand/v2"

	chaos "github.com/marben/chaos_ifs"
)

// Plot is the outcome of one iteration.
type Plot struct {
	X, Y    float64 // pixel space
	Index   int     // selected vertex or affine rule
	Color   color.Color
	Skipped bool // inside the exclusion region, not to be drawn
}

type Session struct {
	desc          chaos.Descriptor
	width, height int
	vertices      []chaos.Point
	rng           *rand.Rand

	cur        chaos.Point
	last       int
	cycle      float64
	iterations uint64
}

// NewSession creates the iteration state for d on a width x height surface.
// Chaos-game vertices are converted to pixels here, from the extent given.
func NewSession(d chaos.Descriptor, width, height int, rng *rand.Rand) *Session {
	s := &Session{
		desc:   d,
		width:  width,
		height: height,
		rng:    rng,
		last:   NoSelection,
	}
	if d.Type == chaos.ChaosGame {
		s.vertices = d.PixelVertices(width, height)
		s.cur = StartPoint(s.vertices, width, height, rng)
	}
	return s
}

// StartPoint picks the initial chaos-game point: the vertex centroid jittered by
// up to ±5% of the extent per axis for three or more vertices, otherwise a
// uniformly random point on the surface.
func StartPoint(vertices []chaos.Point, width, height int, rng *rand.Rand) chaos.Point {
	w, h := float64(width), float64(height)
	if len(vertices) < 3 {
		return chaos.Point{X: rng.Float64() * w, Y: rng.Float64() * h}
	}
	var c chaos.Point
	for _, v := range vertices {
		c.X += v.X
		c.Y += v.Y
	}
	n := float64(len(vertices))
	return chaos.Point{
		X: c.X/n + (rng.Float64()-0.5)*w*0.1,
		Y: c.Y/n + (rng.Float64()-0.5)*h*0.1,
	}
}

// SelectRule returns the index of the first rule whose cumulative probability
// reaches r. The last rule is the fallback for rounding in the running sum.
func SelectRule(rules []chaos.AffineRule, r float64) int {
	var sum float64
	for i, rule := range rules {
		sum += rule.P
		if r <= sum {
			return i
		}
	}
	return len(rules) - 1
}

// ProjectAffine maps a map-native point to pixels: horizontally centered,
// scaled by height/10, y axis pointing up from the bottom edge.
func ProjectAffine(x, y float64, width, height int) (float64, float64) {
	scale := float64(height) / 10
	return float64(width)/2 + x*scale, float64(height) - y*scale
}

// Step advances the state by exactly one iteration.
func (s *Session) Step() Plot {
	s.iterations++
	s.cycle = AdvanceCycle(s.cycle)

	if s.desc.Type == chaos.ChaosAffine {
		idx := SelectRule(s.desc.Rules, s.rng.Float64())
		s.last = idx
		s.cur.X, s.cur.Y = s.desc.Rules[idx].Apply(s.cur.X, s.cur.Y)
		px, py := ProjectAffine(s.cur.X, s.cur.Y, s.width, s.height)
		return s.plot(px, py, idx, len(s.desc.Rules))
	}

	idx := SelectNext(s.desc.Constraint, s.last, len(s.vertices), s.rng)
	s.last = idx
	t, r := s.vertices[idx], s.desc.Ratio
	s.cur.X = s.cur.X*(1-r) + t.X*r
	s.cur.Y = s.cur.Y*(1-r) + t.Y*r
	return s.plot(s.cur.X, s.cur.Y, idx, len(s.vertices))
}

func (s *Session) plot(x, y float64, idx, count int) Plot {
	p := Plot{X: x, Y: y, Index: idx}
	if Excluded(s.desc.Exclusion, x, y, s.width, s.height) {
		p.Skipped = true
		return p
	}
	p.Color = ColorFor(s.desc.Coloring, ColorInput{
		Index:  idx,
		Count:  count,
		X:      x,
		Y:      y,
		Width:  s.width,
		Height: s.height,
		Cycle:  s.cycle,
	})
	return p
}

// Point is the current point: pixels in chaos-game mode, map-native in affine mode.
func (s *Session) Point() chaos.Point { return s.cur }

func (s *Session) LastIndex() int { return s.last }

func (s *Session) Cycle() float64 { return s.cycle }

func (s *Session) Iterations() uint64 { return s.iterations }

func (s *Session) Descriptor() chaos.Descriptor { return s.desc }

func (s *Session) Extent() (width, height int) { return s.width, s.height }

// Vertices returns the pixel-space vertices computed at creation.
func (s *Session) Vertices() []chaos.Point {
	return append([]chaos.Point(nil), s.vertices...)
}
