package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/catalog"
	"github.com/marben/chaos_ifs/scheduler"
	"github.com/marben/chaos_ifs/stream"
)

type fixture struct {
	c    *coordinator
	host *scheduler.ManualHost
	srv  *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	host := scheduler.NewManualHost()
	c := newCoordinator(catalog.Default(), host, coordinatorConfig{width: 160, height: 120, seed: 3}, chaos.Logger())
	require.NoError(t, c.activate("triangle"))

	srv := httptest.NewServer(webServer("", "", c).Handler)
	t.Cleanup(srv.Close)
	return &fixture{c: c, host: host, srv: srv}
}

func (f *fixture) dial(t *testing.T) (context.Context, *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(f.srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	conn.SetReadLimit(1 << 24) // snapshots
	return ctx, conn
}

func readKind(t *testing.T, ctx context.Context, conn *websocket.Conn, kind stream.Kind) stream.Frame {
	t.Helper()
	for {
		var f stream.Frame
		require.NoError(t, wsjson.Read(ctx, conn, &f))
		if f.Kind == kind {
			return f
		}
	}
}

func (f *fixture) post(t *testing.T, path, body string) (int, status) {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var st status
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	}
	return resp.StatusCode, st
}

func TestJoinReceivesCatalogActiveAndSnapshot(t *testing.T) {
	f := newFixture(t)
	f.host.RunTicks(3)

	ctx, conn := f.dial(t)
	var frames []stream.Frame
	for range 3 {
		var fr stream.Frame
		require.NoError(t, wsjson.Read(ctx, conn, &fr))
		frames = append(frames, fr)
	}

	require.Equal(t, stream.KindCatalog, frames[0].Kind)
	assert.Len(t, frames[0].Fractals, catalog.Default().Len())

	require.Equal(t, stream.KindActivate, frames[1].Kind)
	assert.Equal(t, "triangle", frames[1].ID)
	require.NotNil(t, frames[1].Fractal)
	assert.Equal(t, "Sierpinski Triangle", frames[1].Fractal.Name)

	require.Equal(t, stream.KindSnapshot, frames[2].Kind)
	img, err := png.Decode(bytes.NewReader(frames[2].PNG))
	require.NoError(t, err)
	assert.Equal(t, 160, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
}

func TestWebsocketActivate(t *testing.T) {
	f := newFixture(t)
	ctx, conn := f.dial(t)
	readKind(t, ctx, conn, stream.KindSnapshot)

	require.NoError(t, wsjson.Write(ctx, conn, stream.Frame{Kind: stream.KindActivate, ID: "nope"}))
	fr := readKind(t, ctx, conn, stream.KindError)
	assert.Equal(t, "nope", fr.ID)
	assert.Contains(t, fr.Error, "unknown fractal")

	require.NoError(t, wsjson.Write(ctx, conn, stream.Frame{Kind: stream.KindActivate, ID: "square"}))
	cleared := readKind(t, ctx, conn, stream.KindClear)
	assert.Equal(t, 160, cleared.Width)

	marks := 0
	for {
		var fr stream.Frame
		require.NoError(t, wsjson.Read(ctx, conn, &fr))
		if fr.Kind == stream.KindMark {
			marks++
			continue
		}
		require.Equal(t, stream.KindActivate, fr.Kind)
		assert.Equal(t, "square", fr.ID)
		break
	}
	assert.Equal(t, 4, marks)

	f.host.Tick()
	plot := readKind(t, ctx, conn, stream.KindPlot)
	assert.NotEmpty(t, plot.Points)
	assert.LessOrEqual(t, len(plot.Points), 500)
}

func TestHTTPAPI(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/api/fractals")
	require.NoError(t, err)
	var infos []stream.FractalInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	resp.Body.Close()
	require.Len(t, infos, 10)
	assert.Equal(t, "triangle", infos[0].ID)
	assert.Equal(t, "chaosAffine", infos[9].Type)

	code, st := f.post(t, "/api/activate/fern", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "fern", st.ID)
	assert.Equal(t, "running", st.State)

	code, _ = f.post(t, "/api/activate/nope", "")
	assert.Equal(t, http.StatusNotFound, code)

	f.host.Tick()
	code, st = f.post(t, "/api/resize", `{"width":200,"height":100}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 200, st.Width)
	assert.Equal(t, 100, st.Height)
	assert.Equal(t, "fern", st.ID)
	assert.Equal(t, uint64(3), st.Stats.Activations)
	assert.Equal(t, uint64(1000), st.Stats.Iterations)

	code, _ = f.post(t, "/api/resize", `{"width":0,"height":100}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = f.post(t, "/api/resize", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	resp, err = http.Get(f.srv.URL + "/snapshot.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	cfg, err := png.DecodeConfig(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)

	resp, err = http.Get(f.srv.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "main.wasm")
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a.com", "*.b.org"}, splitList(" a.com, ,*.b.org "))
}
