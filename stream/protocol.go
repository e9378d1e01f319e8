// Package stream broadcasts a live rendering session to websocket clients.
//
// The server side is a Hub serving websocket connections and a Surface that
// turns each plotted batch into one frame. Late joiners receive a PNG snapshot
// of the surface followed by the live frames. Clients ask for a different
// fractal with an activate frame.
package stream

import (
	"image/color"

	chaos "github.com/marben/chaos_ifs"
)

type Kind string

const (
	// server -> client
	KindCatalog  Kind = "catalog"
	KindClear    Kind = "clear"
	KindMark     Kind = "mark"
	KindPlot     Kind = "plot"
	KindSnapshot Kind = "snapshot"
	KindError    Kind = "error"

	// both directions: the server announces the active fractal,
	// clients request one.
	KindActivate Kind = "activate"
)

// Point is a plotted pixel: x, y and a packed 0xRRGGBB color.
// Mark frames carry the vertex index in place of the color.
type Point [3]uint32

// PackRGB packs c into 0xRRGGBB, dropping alpha.
func PackRGB(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return (r>>8)<<16 | (g>>8)<<8 | b>>8
}

// UnpackRGB is the inverse of PackRGB.
func UnpackRGB(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// FractalInfo is the presentation part of a descriptor.
type FractalInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Formulas    []string `json:"formulas,omitempty"`
	Type        string   `json:"type"`
}

func Info(d chaos.Descriptor) FractalInfo {
	return FractalInfo{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Formulas:    d.Formulas,
		Type:        string(d.Type),
	}
}

// Frame is the single message type exchanged over the websocket, JSON encoded.
type Frame struct {
	Kind     Kind          `json:"kind"`
	ID       string        `json:"id,omitempty"`
	Width    int           `json:"width,omitempty"`
	Height   int           `json:"height,omitempty"`
	Fractal  *FractalInfo  `json:"fractal,omitempty"`
	Fractals []FractalInfo `json:"fractals,omitempty"`
	Points   []Point       `json:"points,omitempty"`
	PNG      []byte        `json:"png,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func CatalogFrame(ds []chaos.Descriptor) Frame {
	infos := make([]FractalInfo, len(ds))
	for i, d := range ds {
		infos[i] = Info(d)
	}
	return Frame{Kind: KindCatalog, Fractals: infos}
}

func ActivateFrame(d chaos.Descriptor) Frame {
	info := Info(d)
	return Frame{Kind: KindActivate, ID: d.ID, Fractal: &info}
}
