package main

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/catalog"
	"github.com/marben/chaos_ifs/scheduler"
	"github.com/marben/chaos_ifs/surface"
)

// statusRows is the number of cell rows below the canvas.
const statusRows = 2

// viewer is the terminal front end. All methods run on the event loop goroutine.
type viewer struct {
	screen  tcell.Screen
	canvas  *surface.Terminal
	host    *scheduler.ManualHost
	sched   *scheduler.Scheduler
	catalog *catalog.Catalog
	logger  *slog.Logger

	selected int
	lastErr  error
}

func newViewer(screen tcell.Screen, cat *catalog.Catalog, seed uint64, logger *slog.Logger) *viewer {
	canvas := surface.NewTerminal(screen, statusRows)
	host := scheduler.NewManualHost()
	return &viewer{
		screen:  screen,
		canvas:  canvas,
		host:    host,
		sched:   scheduler.New(host, canvas, scheduler.WithSeed(seed), scheduler.WithLogger(logger)),
		catalog: cat,
		logger:  logger,
	}
}

// show activates the catalog entry at i, wrapping around at both ends.
func (v *viewer) show(i int) {
	n := v.catalog.Len()
	if n == 0 {
		return
	}
	v.selected = ((i % n) + n) % n
	d := v.catalog.At(v.selected)
	v.lastErr = v.sched.Activate(d)
	if v.lastErr != nil {
		v.logger.Warn("activate", "id", d.ID, "err", v.lastErr)
	}
	v.drawStatus()
}

// tick runs the batches scheduled since the previous tick.
func (v *viewer) tick() {
	v.host.Tick()
	v.drawStatus()
	v.screen.Show()
}

// handle processes one terminal event and reports whether the viewer keeps running.
func (v *viewer) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRight, tcell.KeyTab:
			v.show(v.selected + 1)
		case tcell.KeyLeft, tcell.KeyBacktab:
			v.show(v.selected - 1)
		case tcell.KeyRune:
			r := ev.Rune()
			switch {
			case r == 'q':
				return false
			case r == 'r':
				v.show(v.selected)
			case r >= '1' && r <= '9':
				if i := int(r - '1'); i < v.catalog.Len() {
					v.show(i)
				}
			case r == '0':
				if v.catalog.Len() >= 10 {
					v.show(9)
				}
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
		v.canvas.Resize()
		if err := v.sched.Reactivate(); err != nil {
			v.lastErr = err
		}
		v.drawStatus()
	}
	return true
}

func (v *viewer) drawStatus() {
	w, h := v.screen.Size()
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(0xc5, 0xc6, 0xc7)).Background(tcell.NewRGBColor(0x1f, 0x28, 0x33))
	for row := h - statusRows; row < h; row++ {
		for col := 0; col < w; col++ {
			v.screen.SetContent(col, row, ' ', nil, style)
		}
	}
	if row := h - statusRows; row >= 0 {
		drawText(v.screen, 0, row, w, style.Bold(true), v.title())
	}
	if row := h - 1; row >= 0 && statusRows > 1 {
		drawText(v.screen, 0, row, w, style, v.detail())
	}
}

func (v *viewer) title() string {
	d, ok := v.sched.Current()
	if !ok {
		return " no fractal"
	}
	return fmt.Sprintf(" [%d/%d] %s  %s", v.selected+1, v.catalog.Len(), d.Name, formulas(d))
}

func (v *viewer) detail() string {
	if v.lastErr != nil {
		return " error: " + v.lastErr.Error()
	}
	st := v.sched.Stats()
	return fmt.Sprintf(" %s  iterations %d  plotted %d   ←/→ switch  1-9 select  r restart  q quit",
		v.sched.State(), st.Iterations, st.Plotted)
}

func formulas(d chaos.Descriptor) string {
	if len(d.Formulas) == 0 {
		return ""
	}
	return d.Formulas[0]
}

func drawText(s tcell.Screen, x, y, width int, style tcell.Style, text string) {
	for _, r := range text {
		if x >= width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
