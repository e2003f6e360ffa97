package models

import "time"

// Geofence represents a named circular region: a center point and a radius in meters.
type Geofence struct {
	Latitude     float64 `bson:"latitude" json:"latitude"`
	Longitude    float64 `bson:"longitude" json:"longitude"`
	RadiusMeters float64 `bson:"radius" json:"radius"`
}

// GeofenceReading is the distance from the current position to one geofence center.
type GeofenceReading struct {
	Geofence       Geofence `bson:"geofence" json:"geofence"`
	DistanceMeters float64  `bson:"distance" json:"distance"`
}

// SamplingConfig is the active configuration of a running sampling loop.
// It is replaced as a whole on every start and never mutated afterwards.
type SamplingConfig struct {
	Interval              time.Duration `bson:"interval" json:"interval"`
	MinDisplacementMeters float64       `bson:"min_displacement" json:"min_displacement"` // not used for filtering
	UserID                string        `bson:"user_id" json:"user_id"`
	Geofences             []Geofence    `bson:"geofences" json:"geofences"`
}
