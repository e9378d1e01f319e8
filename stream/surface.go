package stream

import (
	"bytes"
	"image/color"
	"math"
	"sync"

	"github.com/marben/chaos_ifs/surface"
)

// Surface draws on an image and mirrors every change to the hub's clients:
// one plot frame per flushed batch. It is safe for concurrent use.
//
// The hub is never called with the surface lock held, so hub callbacks
// (snapshots for joining clients) may use the surface freely.
type Surface struct {
	hub *Hub

	mu      sync.Mutex
	img     *surface.Image
	pending []Point
}

func NewSurface(img *surface.Image, hub *Hub) *Surface {
	return &Surface{img: img, hub: hub}
}

func (s *Surface) Extent() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img.Extent()
}

func (s *Surface) Clear() {
	s.mu.Lock()
	s.img.Clear()
	s.pending = nil
	w, h := s.img.Extent()
	s.mu.Unlock()

	s.hub.Broadcast(Frame{Kind: KindClear, Width: w, Height: h})
}

func (s *Surface) Plot(x, y float64, c color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.img.Plot(x, y, c)
	w, h := s.img.Extent()
	px, py := math.Floor(x), math.Floor(y)
	if px < 0 || py < 0 || px >= float64(w) || py >= float64(h) {
		return
	}
	s.pending = append(s.pending, Point{uint32(px), uint32(py), PackRGB(c)})
}

func (s *Surface) MarkVertex(x, y float64, index int) {
	s.mu.Lock()
	s.img.MarkVertex(x, y, index)
	s.mu.Unlock()

	s.hub.Broadcast(Frame{Kind: KindMark, Points: []Point{{uint32(max(x, 0)), uint32(max(y, 0)), uint32(index)}}})
}

// Flush sends the points plotted since the previous flush as one frame.
func (s *Surface) Flush() {
	s.mu.Lock()
	pts := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(pts) > 0 {
		s.hub.Broadcast(Frame{Kind: KindPlot, Points: pts})
	}
}

// Resize resizes the backing image. The caller reactivates the scheduler.
func (s *Surface) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	return s.img.Resize(width, height)
}

// Snapshot encodes the current image as a snapshot frame.
func (s *Surface) Snapshot() (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := s.img.EncodePNG(&buf); err != nil {
		return Frame{}, err
	}
	w, h := s.img.Extent()
	return Frame{Kind: KindSnapshot, Width: w, Height: h, PNG: buf.Bytes()}, nil
}
