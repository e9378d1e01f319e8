// Package surface provides drawing targets for rendering sessions: an in-memory
// image backed by gg and a terminal screen backed by tcell.
package surface

import (
	"image"
	"image/color"
	"io"
	"math"
	"strconv"

	"github.com/gogpu/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	DefaultBackground = gg.Hex("#0b0c10")
	DefaultMarker     = gg.Hex("#45a29e")
	DefaultLabel      = gg.Hex("#66fcf1")
)

// Image is a pixel surface. It is not safe for concurrent use.
type Image struct {
	dc         *gg.Context
	background gg.RGBA
	marker     gg.RGBA
	label      gg.RGBA
	labels     bool
}

type ImageOption func(*Image)

func WithBackground(c gg.RGBA) ImageOption {
	return func(s *Image) { s.background = c }
}

// WithVertexLabels toggles the 1-based index printed next to each vertex marker.
func WithVertexLabels(on bool) ImageOption {
	return func(s *Image) { s.labels = on }
}

func NewImage(width, height int, opts ...ImageOption) *Image {
	s := &Image{
		dc:         gg.NewContext(width, height),
		background: DefaultBackground,
		marker:     DefaultMarker,
		label:      DefaultLabel,
		labels:     true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Clear()
	return s
}

func (s *Image) Extent() (int, int) {
	return s.dc.Width(), s.dc.Height()
}

func (s *Image) Clear() {
	s.dc.ClearWithColor(s.background)
}

// Plot sets the pixel containing (x, y). Points off the surface are dropped.
func (s *Image) Plot(x, y float64, c color.Color) {
	s.dc.SetPixel(int(math.Floor(x)), int(math.Floor(y)), gg.FromColor(c))
}

// MarkVertex draws a filled disc at the vertex and, if enabled, its 1-based index.
func (s *Image) MarkVertex(x, y float64, index int) {
	s.dc.SetColor(s.marker.Color())
	s.dc.DrawCircle(x, y, 4)
	if err := s.dc.Fill(); err != nil {
		return
	}
	if s.labels {
		s.drawLabel(int(x)+6, int(y)+4, strconv.Itoa(index+1))
	}
}

// drawLabel renders text with its baseline at (x, y).
func (s *Image) drawLabel(x, y int, text string) {
	face := basicfont.Face7x13
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	width := font.MeasureString(face, text).Ceil()
	tile := image.NewRGBA(image.Rect(0, 0, width, m.Height.Ceil()))

	d := &font.Drawer{
		Dst:  tile,
		Src:  image.NewUniform(s.label.Color()),
		Face: face,
		Dot:  fixed.P(0, ascent),
	}
	d.DrawString(text)

	b := tile.Bounds()
	for ty := b.Min.Y; ty < b.Max.Y; ty++ {
		for tx := b.Min.X; tx < b.Max.X; tx++ {
			if c := tile.RGBAAt(tx, ty); c.A != 0 {
				s.dc.SetPixel(x+tx, y-ascent+ty, gg.FromColor(c))
			}
		}
	}
}

// Resize changes the surface dimensions and clears it.
// Pixel-space state derived from the old extent is stale afterwards.
func (s *Image) Resize(width, height int) error {
	if err := s.dc.Resize(width, height); err != nil {
		return err
	}
	s.Clear()
	return nil
}

// At returns the color of a pixel.
func (s *Image) At(x, y int) color.Color {
	return s.dc.ResizeTarget().At(x, y)
}

// Snapshot copies the current pixels.
func (s *Image) Snapshot() image.Image {
	return s.dc.Image()
}

func (s *Image) SavePNG(path string) error {
	return s.dc.SavePNG(path)
}

func (s *Image) EncodePNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}
