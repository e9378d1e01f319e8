package engine

import (
	chaos "github.com/marben/chaos_ifs"
)

// InCenterSquare reports whether (x, y) lies strictly inside the centered square
// of side min(width, height)/3.
func InCenterSquare(x, y float64, width, height int) bool {
	cx, cy := float64(width)/2, float64(height)/2
	half := float64(min(width, height)) / 3 / 2
	return x > cx-half && x < cx+half &&
		y > cy-half && y < cy+half
}

// Excluded applies the descriptor's exclusion region to a pixel-space point.
func Excluded(e chaos.Exclusion, x, y float64, width, height int) bool {
	switch e {
	case chaos.ExcludeCenterSquare:
		return InCenterSquare(x, y, width, height)
	default:
		return false
	}
}
