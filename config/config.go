package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Common is read by every program.
type Common struct {
	// Catalog is a .json, .yaml or .db file; empty selects the built-in catalog.
	Catalog  string     `env:"CHAOS_CATALOG"`
	Seed     uint64     `env:"CHAOS_SEED" envDefault:"0"`
	LogLevel slog.Level `env:"CHAOS_LOG_LEVEL" envDefault:"info"`
}

// Canvas is the drawing surface extent in pixels.
type Canvas struct {
	Width  int `env:"CHAOS_WIDTH" envDefault:"800"`
	Height int `env:"CHAOS_HEIGHT" envDefault:"600"`
}

func (c Canvas) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("canvas %dx%d must have a positive extent", c.Width, c.Height)
	}
	return nil
}

// Render configures the one-shot PNG renderer.
type Render struct {
	Common
	Canvas
}

// Term configures the terminal viewer.
type Term struct {
	Common
	Tick time.Duration `env:"CHAOS_TICK" envDefault:"16ms"`
}

// Server configures the websocket server.
type Server struct {
	Common
	Canvas
	Tick      time.Duration `env:"CHAOS_TICK" envDefault:"16ms"`
	Addr      string        `env:"CHAOS_ADDR" envDefault:":8080"`
	StaticDir string        `env:"CHAOS_STATIC_DIR"`
}

// NewLogger returns a text logger writing to w at level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
