package model

import (
	"time"

	"routeline/internal/polyline"
	"routeline/internal/util"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/gorm"
)

// Route is a planned route between two addresses (used for both PostgreSQL and the API)
type Route struct {
	ID                 string  `json:"id" gorm:"primaryKey"`
	OriginAddress      string  `json:"origin_address" gorm:"type:text;not null"`
	DestinationAddress string  `json:"destination_address" gorm:"type:text;not null"`
	OriginLat          float64 `json:"origin_lat" gorm:"not null"`
	OriginLng          float64 `json:"origin_lng" gorm:"not null"`
	DestinationLat     float64 `json:"destination_lat" gorm:"not null"`
	DestinationLng     float64 `json:"destination_lng" gorm:"not null"`
	Polyline           string  `json:"polyline" gorm:"type:text;not null"`
	Precision          int     `json:"precision" gorm:"not null;default:5"`
	Summary            string  `json:"summary" gorm:"size:255"`
	DistanceMeters     int     `json:"distance_meters"`  // reported by the directions provider
	DurationSeconds    int     `json:"duration_seconds"` // reported by the directions provider
	LengthMeters       float64 `json:"length_meters"`    // great-circle length of the decoded geometry
	DirectMeters       float64 `json:"direct_meters"`    // origin to destination as the crow flies

	UpdatedAt time.Time      `json:"updated_at" gorm:"column:updated_at"`
	CreatedAt time.Time      `json:"created_at" gorm:"column:created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"column:deleted_at;index"`

	// Decoded from Polyline, never stored
	Points []polyline.Coordinate `json:"points,omitempty" gorm:"-"`
}

// TableName overrides the table name
func (Route) TableName() string {
	return "routes"
}

func (r *Route) Origin() polyline.Coordinate {
	return polyline.Coordinate{Lat: r.OriginLat, Lng: r.OriginLng}
}

func (r *Route) Destination() polyline.Coordinate {
	return polyline.Coordinate{Lat: r.DestinationLat, Lng: r.DestinationLng}
}

// Bound returns the bounding box of the decoded points
func (r *Route) Bound() orb.Bound {
	return util.Bounds(r.Points)
}

// WithoutPoints returns a copy for listings where the geometry is not needed
func (r *Route) WithoutPoints() *Route {
	light := *r
	light.Points = nil
	return &light
}

// Feature returns the route as a GeoJSON LineString feature
func (r *Route) Feature() *geojson.Feature {
	f := geojson.NewFeature(util.LineString(r.Points))
	f.ID = r.ID
	f.Properties["origin"] = r.OriginAddress
	f.Properties["destination"] = r.DestinationAddress
	f.Properties["summary"] = r.Summary
	f.Properties["distance_meters"] = r.DistanceMeters
	f.Properties["duration_seconds"] = r.DurationSeconds
	f.Properties["length_meters"] = r.LengthMeters
	return f
}
