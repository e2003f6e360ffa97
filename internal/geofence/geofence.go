// Package geofence parses caller-supplied circular geofences and measures
// the distance from a position to each of them.
package geofence

import (
	"math"
	"strconv"
	"strings"

	"github.com/ukydev/device-monitor/internal/models"
)

const earthRadiusKm = 6371.0

// Parse reads a "lat,long,radius" string. It reports false for anything
// that is not exactly three finite numbers.
func Parse(s string) (models.Geofence, bool) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return models.Geofence{}, false
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Geofence{}, false
		}
		vals[i] = v
	}
	return models.Geofence{Latitude: vals[0], Longitude: vals[1], RadiusMeters: vals[2]}, true
}

// ParseAll parses every entry, silently dropping the malformed ones.
func ParseAll(entries []string) []models.Geofence {
	out := make([]models.Geofence, 0, len(entries))
	for _, e := range entries {
		if g, ok := Parse(e); ok {
			out = append(out, g)
		}
	}
	return out
}

// Distance returns the great-circle distance in meters between two points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	rLat1 := lat1 * math.Pi / 180
	rLat2 := lat2 * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return earthRadiusKm * c * 1000
}

// Evaluate returns one reading per geofence, in input order.
func Evaluate(lat, lon float64, fences []models.Geofence) []models.GeofenceReading {
	readings := make([]models.GeofenceReading, len(fences))
	for i, g := range fences {
		readings[i] = models.GeofenceReading{
			Geofence:       g,
			DistanceMeters: Distance(lat, lon, g.Latitude, g.Longitude),
		}
	}
	return readings
}

// Nearest returns the smallest distance among the readings.
func Nearest(readings []models.GeofenceReading) (float64, bool) {
	if len(readings) == 0 {
		return 0, false
	}
	nearest := readings[0].DistanceMeters
	for _, r := range readings[1:] {
		if r.DistanceMeters < nearest {
			nearest = r.DistanceMeters
		}
	}
	return nearest, true
}
