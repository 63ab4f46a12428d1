package util

import (
	"routeline/internal/polyline"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const earthRadiusMeters = 6371000.0

func toPoint(c polyline.Coordinate) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lng))
}

// HaversineDistance returns the great-circle distance between two coordinates in meters
func HaversineDistance(a, b polyline.Coordinate) float64 {
	angle := s1.Angle(s2.ChordAngleBetweenPoints(toPoint(a), toPoint(b)).Angle())
	return angle.Radians() * earthRadiusMeters
}

// RouteLength sums the great-circle length of every segment in meters
func RouteLength(coords []polyline.Coordinate) float64 {
	if len(coords) < 2 {
		return 0
	}

	line := make(s2.Polyline, len(coords))
	for i, c := range coords {
		line[i] = toPoint(c)
	}
	return line.Length().Radians() * earthRadiusMeters
}

// Bounds returns the lng/lat bounding box of the coordinates.
// orb points are [lng, lat].
func Bounds(coords []polyline.Coordinate) orb.Bound {
	return LineString(coords).Bound()
}

// LineString converts coordinates to an orb line string
func LineString(coords []polyline.Coordinate) orb.LineString {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c.Lng, c.Lat}
	}
	return ls
}
