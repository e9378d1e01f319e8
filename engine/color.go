package engine

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	chaos "github.com/marben/chaos_ifs"
)

// CycleStep is the hue advance per iteration of the color-cycle counter.
const CycleStep = 0.05

// ColorInput is everything a color scheme may look at for one plotted point.
type ColorInput struct {
	Index, Count  int
	X, Y          float64 // pixel space
	Width, Height int
	Cycle         float64
}

// Hue returns the hue in [0, 360) that scheme c assigns to in.
// Unknown schemes behave like chaos.SchemeIndex.
func Hue(c chaos.Coloring, in ColorInput) float64 {
	var h float64
	switch c.Scheme {
	case chaos.SchemeOffset:
		h = c.HueBase + float64(in.Index)*c.HueStep
	case chaos.SchemePosition:
		if in.Width > 0 {
			h = in.X / float64(in.Width) * 360
		}
	case chaos.SchemeDiagonal:
		if in.Width+in.Height > 0 {
			h = (in.X + in.Y) / float64(in.Width+in.Height) * 360
		}
	case chaos.SchemeCycle:
		h = in.Cycle
	default:
		if in.Count > 0 {
			h = float64(in.Index) / float64(in.Count) * 360
		}
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// ColorFor maps a point to its color at the descriptor's fixed saturation and lightness.
func ColorFor(c chaos.Coloring, in ColorInput) color.Color {
	return colorful.Hsl(Hue(c, in), c.Saturation, c.Lightness).Clamped()
}

// AdvanceCycle moves the color-cycle counter one step, wrapping at 360.
func AdvanceCycle(cycle float64) float64 {
	return math.Mod(cycle+CycleStep, 360)
}
