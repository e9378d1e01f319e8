package chaos

import (
	"image/color"
)

// Surface is the drawing target of a rendering session.
// Coordinates are pixels; points outside the extent are dropped by the implementation.
type Surface interface {
	Extent() (width, height int)
	Clear()
	Plot(x, y float64, c color.Color)
}

// Flusher is implemented by surfaces that present plotted points in batches
// (terminal screens, network streams). Flush is called after every iteration batch.
type Flusher interface {
	Flush()
}

// Marker is implemented by surfaces able to annotate chaos-game vertices.
// index is zero based.
type Marker interface {
	MarkVertex(x, y float64, index int)
}
