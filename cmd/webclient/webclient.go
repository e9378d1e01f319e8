//go:build js && wasm

// webclient is the browser viewer: it follows the server's shared session
// over a websocket and draws every frame onto a canvas.
package main

import (
	"context"
	"fmt"
	"log"
	"syscall/js"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/marben/chaos_ifs/stream"
)

func main() {
	logScreenf("starting web client")

	loc := js.Global().Get("window").Get("location")
	proto := "ws"
	if loc.Get("protocol").String() == "https:" {
		proto = "wss"
	}
	url := proto + "://" + loc.Get("host").String() + "/ws"

	ctx := context.Background()
	logScreenf("connecting to %s", url)
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		logFatalf("websocket.Dial: %v", err)
	}
	// snapshots of large canvases exceed the default 32 KiB read limit
	conn.SetReadLimit(64 << 20)
	logScreenf("connected")

	c := &client{conn: conn, canvas: newCanvas("canvas")}
	if err := c.readLoop(ctx); err != nil {
		logFatalf("readLoop: %v", err)
	}
}

type client struct {
	conn   *websocket.Conn
	canvas *canvas
	tabs   *tabs
}

func (c *client) readLoop(ctx context.Context) error {
	for {
		var f stream.Frame
		if err := wsjson.Read(ctx, c.conn, &f); err != nil {
			return fmt.Errorf("wsjson.Read: %w", err)
		}
		if err := c.handle(f); err != nil {
			logScreenf("%s frame: %v", f.Kind, err)
		}
	}
}

func (c *client) handle(f stream.Frame) error {
	switch f.Kind {
	case stream.KindCatalog:
		c.tabs = newTabs("tabs", f.Fractals, c.requestActivate)
	case stream.KindActivate:
		if f.Fractal != nil {
			showInfo(*f.Fractal)
		}
		if c.tabs != nil {
			c.tabs.highlight(f.ID)
		}
	case stream.KindClear:
		c.canvas.reset(f.Width, f.Height)
	case stream.KindSnapshot:
		return c.canvas.drawSnapshot(f.PNG)
	case stream.KindMark:
		for _, p := range f.Points {
			c.canvas.drawMarker(int(p[0]), int(p[1]), int(p[2]))
		}
	case stream.KindPlot:
		c.canvas.plot(f.Points)
	case stream.KindError:
		logScreenf("server: %s (%s)", f.Error, f.ID)
	}
	return nil
}

// requestActivate runs on the JS event loop and must not block it.
func (c *client) requestActivate(id string) {
	go func() {
		if err := wsjson.Write(context.Background(), c.conn, stream.Frame{Kind: stream.KindActivate, ID: id}); err != nil {
			logScreenf("activate %s: %v", id, err)
		}
	}()
}

// logScreenf appends a formatted message to the log element in the DOM.
func logScreenf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	logElem := js.Global().Get("document").Call("getElementById", "log")
	logElem.Set("textContent", logElem.Get("textContent").String()+msg+"\n")
}

// logFatalf logs a fatal error to the log window and terminates the program.
func logFatalf(format string, a ...any) {
	logScreenf("FATAL: "+format, a...)
	log.Fatalf(format, a...)
}
