package surface

import (
	"image/color"
	"math"

	"github.com/gdamore/tcell/v2"
)

// upperHalf draws the top pixel as foreground and the bottom one as background.
const upperHalf = '▀'

// Terminal draws on a tcell screen at two vertical pixels per cell.
// The bottom reserved rows are left to the caller (status lines).
type Terminal struct {
	screen     tcell.Screen
	background tcell.Color
	marker     tcell.Color
	reserved   int

	cols, rows int // pixel grid rows, 2 per cell row
	pixels     []tcell.Color
}

func NewTerminal(screen tcell.Screen, reservedRows int) *Terminal {
	t := &Terminal{
		screen:     screen,
		background: tcell.NewRGBColor(0x0b, 0x0c, 0x10),
		marker:     tcell.NewRGBColor(0x45, 0xa2, 0x9e),
		reserved:   max(reservedRows, 0),
	}
	t.Resize()
	return t
}

// Resize re-reads the screen size and clears the pixel grid.
func (t *Terminal) Resize() {
	w, h := t.screen.Size()
	t.cols = max(w, 0)
	t.rows = max(h-t.reserved, 0) * 2
	t.pixels = make([]tcell.Color, t.cols*t.rows)
	t.Clear()
}

func (t *Terminal) Extent() (int, int) {
	return t.cols, t.rows
}

func (t *Terminal) Clear() {
	for i := range t.pixels {
		t.pixels[i] = t.background
	}
	style := tcell.StyleDefault.Background(t.background)
	for cy := 0; cy < t.rows/2; cy++ {
		for cx := 0; cx < t.cols; cx++ {
			t.screen.SetContent(cx, cy, ' ', nil, style)
		}
	}
}

func (t *Terminal) Plot(x, y float64, c color.Color) {
	r, g, b, _ := c.RGBA()
	t.set(x, y, tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8)))
}

func (t *Terminal) MarkVertex(x, y float64, _ int) {
	t.set(x, y, t.marker)
}

// Flush presents the plotted cells.
func (t *Terminal) Flush() {
	t.screen.Show()
}

func (t *Terminal) set(x, y float64, c tcell.Color) {
	px, py := int(math.Floor(x)), int(math.Floor(y))
	if px < 0 || px >= t.cols || py < 0 || py >= t.rows {
		return
	}
	t.pixels[py*t.cols+px] = c

	cy := py / 2
	top := t.pixels[2*cy*t.cols+px]
	bottom := t.pixels[(2*cy+1)*t.cols+px]
	t.screen.SetContent(px, cy, upperHalf, nil, tcell.StyleDefault.Foreground(top).Background(bottom))
}

// PixelAt returns the color last written to a pixel.
func (t *Terminal) PixelAt(x, y int) tcell.Color {
	if x < 0 || x >= t.cols || y < 0 || y >= t.rows {
		return tcell.ColorDefault
	}
	return t.pixels[y*t.cols+x]
}
