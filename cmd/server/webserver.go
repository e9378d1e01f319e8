package main

import (
	"embed"
	"io/fs"
	"net/http"
	"time"
)

// maxExtent bounds canvas sizes requested over HTTP.
const maxExtent = 4096

//go:embed static
var staticFiles embed.FS

// webServer serves the web client from dir (or the built-in page when dir is
// empty), the websocket endpoint and a small JSON API.
func webServer(addr, dir string, c *coordinator) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", c.hub)
	mux.HandleFunc("GET /api/fractals", c.handleFractals)
	mux.HandleFunc("GET /api/status", c.handleStatus)
	mux.HandleFunc("POST /api/activate/{id}", c.handleActivate)
	mux.HandleFunc("POST /api/resize", c.handleResize)
	mux.HandleFunc("GET /snapshot.png", c.handleSnapshot)
	mux.Handle("/", http.FileServer(staticFS(dir)))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func staticFS(dir string) http.FileSystem {
	if dir != "" {
		return http.Dir(dir)
	}
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
