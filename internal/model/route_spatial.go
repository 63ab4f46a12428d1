package model

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// minSide keeps degenerate boxes (single points, straight meridians) indexable
const minSide = 1e-9

// RouteSpatial represents a route with its bounding box for R-tree indexing
type RouteSpatial struct {
	Route *Route
	Box   orb.Bound
}

// Bounds implements the rtreego.Spatial interface
func (r *RouteSpatial) Bounds() rtreego.Rect {
	return BoundToRect(r.Box)
}

// BoundToRect converts an orb.Bound ([lng, lat] corners) to an rtreego rectangle
func BoundToRect(b orb.Bound) rtreego.Rect {
	minX, minY := b.Min[0], b.Min[1]
	width := max(b.Max[0]-minX, minSide)
	height := max(b.Max[1]-minY, minSide)

	// Create a new rectangle with the bottom-left corner at (minX, minY)
	rect, _ := rtreego.NewRect(
		rtreego.Point{minX, minY},
		[]float64{width, height},
	)

	return rect
}
