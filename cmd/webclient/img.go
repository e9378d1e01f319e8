//go:build js && wasm

package main

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"syscall/js"

	"github.com/marben/chaos_ifs/stream"
)

const (
	background = "#0b0c10"
	marker     = "#45a29e"
	label      = "#66fcf1"
)

// canvas mirrors the server's image in an RGBA buffer and pushes the
// changed rectangle of every batch to the browser.
type canvas struct {
	elem js.Value
	ctx  js.Value
	img  *image.RGBA
}

func newCanvas(id string) *canvas {
	elem := js.Global().Get("document").Call("getElementById", id)
	c := &canvas{elem: elem, ctx: elem.Call("getContext", "2d")}
	c.reset(elem.Get("width").Int(), elem.Get("height").Int())
	return c
}

func (c *canvas) reset(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.elem.Set("width", width)
	c.elem.Set("height", height)
	c.img = image.NewRGBA(image.Rect(0, 0, width, height))
	c.ctx.Set("fillStyle", background)
	c.ctx.Call("fillRect", 0, 0, width, height)
	fill := c.ctx.Call("getImageData", 0, 0, width, height).Get("data")
	js.CopyBytesToGo(c.img.Pix, fill)
}

func (c *canvas) drawSnapshot(b []byte) error {
	src, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("png.Decode: %w", err)
	}
	r := src.Bounds()
	c.reset(r.Dx(), r.Dy())
	draw.Draw(c.img, c.img.Bounds(), src, r.Min, draw.Src)
	c.put(c.img.Bounds())
	return nil
}

func (c *canvas) plot(pts []stream.Point) {
	if len(pts) == 0 {
		return
	}
	dirty := image.Rectangle{}
	for _, p := range pts {
		x, y := int(p[0]), int(p[1])
		if !(image.Point{X: x, Y: y}).In(c.img.Rect) {
			continue
		}
		c.img.SetRGBA(x, y, stream.UnpackRGB(p[2]))
		dirty = dirty.Union(image.Rect(x, y, x+1, y+1))
	}
	if !dirty.Empty() {
		c.put(dirty)
	}
}

// drawMarker draws on the browser canvas only; the next snapshot carries it.
func (c *canvas) drawMarker(x, y, index int) {
	c.ctx.Set("fillStyle", marker)
	c.ctx.Call("beginPath")
	c.ctx.Call("arc", x, y, 4, 0, 2*math.Pi)
	c.ctx.Call("fill")
	c.ctx.Set("fillStyle", label)
	c.ctx.Set("font", "12px monospace")
	c.ctx.Call("fillText", fmt.Sprint(index+1), x+6, y+4)

	// keep the mirror in sync so dirty-rect pushes don't erase the marker
	data := c.ctx.Call("getImageData", 0, 0, c.img.Rect.Dx(), c.img.Rect.Dy()).Get("data")
	js.CopyBytesToGo(c.img.Pix, data)
}

// put copies the rectangle r of the mirror to the browser canvas.
func (c *canvas) put(r image.Rectangle) {
	tile := image.NewRGBA(r)
	draw.Draw(tile, r, c.img, r.Min, draw.Src)

	jsData := js.Global().Get("Uint8ClampedArray").New(len(tile.Pix))
	js.CopyBytesToJS(jsData, tile.Pix)
	imageData := js.Global().Get("ImageData").New(jsData, r.Dx(), r.Dy())
	c.ctx.Call("putImageData", imageData, r.Min.X, r.Min.Y)
}
