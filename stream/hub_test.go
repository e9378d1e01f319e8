package stream_test

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chaos "github.com/marben/chaos_ifs"
	"github.com/marben/chaos_ifs/stream"
	"github.com/marben/chaos_ifs/surface"
)

var (
	_ chaos.Surface = (*stream.Surface)(nil)
	_ chaos.Flusher = (*stream.Surface)(nil)
	_ chaos.Marker  = (*stream.Surface)(nil)
)

func dial(t *testing.T, hub *stream.Hub) (context.Context, *websocket.Conn) {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return ctx, conn
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) stream.Frame {
	t.Helper()
	var f stream.Frame
	require.NoError(t, wsjson.Read(ctx, conn, &f))
	return f
}

func TestHubJoinThenBroadcast(t *testing.T) {
	hub := stream.NewHub(stream.OnJoin(func() []stream.Frame {
		return []stream.Frame{
			{Kind: stream.KindCatalog, Fractals: []stream.FractalInfo{{ID: "fern", Name: "Fern"}}},
		}
	}))
	ctx, conn := dial(t, hub)

	f := read(t, ctx, conn)
	require.Equal(t, stream.KindCatalog, f.Kind)
	require.Equal(t, "fern", f.Fractals[0].ID)
	require.Equal(t, 1, hub.Clients())

	hub.Broadcast(stream.Frame{Kind: stream.KindPlot, Points: []stream.Point{{1, 2, 0xff0000}}})
	f = read(t, ctx, conn)
	require.Equal(t, stream.KindPlot, f.Kind)
	require.Equal(t, []stream.Point{{1, 2, 0xff0000}}, f.Points)

	conn.Close(websocket.StatusNormalClosure, "")
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubActivateRequests(t *testing.T) {
	var mu sync.Mutex
	var got []string
	hub := stream.NewHub(stream.OnActivate(func(id string) error {
		mu.Lock()
		got = append(got, id)
		mu.Unlock()
		if id == "missing" {
			return errors.New("no such fractal")
		}
		return nil
	}))
	ctx, conn := dial(t, hub)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, wsjson.Write(ctx, conn, stream.Frame{Kind: stream.KindActivate, ID: "fern"}))
	require.NoError(t, wsjson.Write(ctx, conn, stream.Frame{Kind: stream.KindActivate, ID: "missing"}))

	f := read(t, ctx, conn)
	require.Equal(t, stream.KindError, f.Kind)
	require.Equal(t, "missing", f.ID)
	require.Contains(t, f.Error, "no such fractal")

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"fern", "missing"}, got)
}

func TestSurfaceFramesPerFlush(t *testing.T) {
	hub := stream.NewHub()
	surf := stream.NewSurface(surface.NewImage(20, 10), hub)
	ctx, conn := dial(t, hub)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	surf.Clear()
	f := read(t, ctx, conn)
	require.Equal(t, stream.KindClear, f.Kind)
	require.Equal(t, 20, f.Width)
	require.Equal(t, 10, f.Height)

	surf.Flush() // nothing plotted, nothing sent
	surf.Plot(3.5, 4.2, color.NRGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xff})
	surf.Plot(25, 4, color.White) // off-surface
	surf.Plot(19, 9, color.White)
	surf.Flush()

	f = read(t, ctx, conn)
	require.Equal(t, stream.KindPlot, f.Kind)
	require.Equal(t, []stream.Point{{3, 4, 0x123456}, {19, 9, 0xffffff}}, f.Points)

	surf.MarkVertex(5, 6, 2)
	f = read(t, ctx, conn)
	require.Equal(t, stream.KindMark, f.Kind)
	require.Equal(t, []stream.Point{{5, 6, 2}}, f.Points)
}

func TestSurfaceSnapshot(t *testing.T) {
	surf := stream.NewSurface(surface.NewImage(16, 8), stream.NewHub())
	surf.Plot(2, 3, color.White)

	f, err := surf.Snapshot()
	require.NoError(t, err)
	require.Equal(t, stream.KindSnapshot, f.Kind)

	img, err := png.Decode(bytes.NewReader(f.PNG))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	r, g, b, _ := img.At(2, 3).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})

	require.NoError(t, surf.Resize(32, 32))
	w, h := surf.Extent()
	assert.Equal(t, 32, w)
	assert.Equal(t, 32, h)
}

func TestPackRGB(t *testing.T) {
	c := color.NRGBA{R: 0xab, G: 0xcd, B: 0xef, A: 0xff}
	v := stream.PackRGB(c)
	assert.Equal(t, uint32(0xabcdef), v)
	assert.Equal(t, color.RGBA{R: 0xab, G: 0xcd, B: 0xef, A: 0xff}, stream.UnpackRGB(v))
}
