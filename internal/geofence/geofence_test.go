package geofence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/device-monitor/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected models.Geofence
		ok       bool
	}{
		{"valid", "37.0,-122.0,500", models.Geofence{Latitude: 37.0, Longitude: -122.0, RadiusMeters: 500}, true},
		{"valid with spaces", " 51.5074 , -0.1278 , 250.5 ", models.Geofence{Latitude: 51.5074, Longitude: -0.1278, RadiusMeters: 250.5}, true},
		{"non numeric field", "37.0,bad,500", models.Geofence{}, false},
		{"two fields", "37.0,-122.0", models.Geofence{}, false},
		{"four fields", "37.0,-122.0,500,1", models.Geofence{}, false},
		{"empty", "", models.Geofence{}, false},
		{"empty field", "37.0,,500", models.Geofence{}, false},
		{"nan", "NaN,-122.0,500", models.Geofence{}, false},
		{"infinite", "37.0,-122.0,Inf", models.Geofence{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := Parse(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, g)
		})
	}
}

func TestParseAll_DropsMalformed(t *testing.T) {
	fences := ParseAll([]string{"1,2,3", "37.0,bad,500", "4,5,6", "nope"})

	require.Len(t, fences, 2)
	assert.Equal(t, 1.0, fences[0].Latitude)
	assert.Equal(t, 4.0, fences[1].Latitude)
}

func TestParseAll_AllMalformedIsEmpty(t *testing.T) {
	fences := ParseAll([]string{"37.0,bad,500"})

	assert.NotNil(t, fences)
	assert.Empty(t, fences)
}

func TestDistance(t *testing.T) {
	// London to Paris
	assert.InDelta(t, 343556.06, Distance(51.5074, -0.1278, 48.8566, 2.3522), 1.0)
	assert.InDelta(t, 142.3039, Distance(37.0, -122.0, 37.001, -122.001), 0.001)
}

func TestDistance_Identity(t *testing.T) {
	points := [][2]float64{{0, 0}, {37.0, -122.0}, {-33.8688, 151.2093}, {89.9, 179.9}}
	for _, p := range points {
		assert.Equal(t, 0.0, Distance(p[0], p[1], p[0], p[1]))
	}
}

func TestDistance_Symmetric(t *testing.T) {
	pairs := [][4]float64{
		{37.0, -122.0, 37.001, -122.001},
		{51.5074, -0.1278, 40.7128, -74.0060},
		{-26.2041, 28.0473, 35.6762, 139.6503},
	}
	for _, p := range pairs {
		assert.Equal(t, Distance(p[0], p[1], p[2], p[3]), Distance(p[2], p[3], p[0], p[1]))
	}
}

func TestEvaluate_PreservesOrder(t *testing.T) {
	fences := []models.Geofence{
		{Latitude: 48.8566, Longitude: 2.3522, RadiusMeters: 100},
		{Latitude: 51.5074, Longitude: -0.1278, RadiusMeters: 200},
		{Latitude: 40.4168, Longitude: -3.7038, RadiusMeters: 300},
	}

	readings := Evaluate(51.5, -0.12, fences)

	require.Len(t, readings, len(fences))
	for i, r := range readings {
		assert.Equal(t, fences[i], r.Geofence)
		assert.Equal(t, Distance(51.5, -0.12, fences[i].Latitude, fences[i].Longitude), r.DistanceMeters)
	}
}

func TestEvaluate_NoGeofences(t *testing.T) {
	assert.Empty(t, Evaluate(1, 2, nil))
}

func TestNearest(t *testing.T) {
	_, ok := Nearest(nil)
	assert.False(t, ok)

	d, ok := Nearest([]models.GeofenceReading{{DistanceMeters: 30}, {DistanceMeters: 10}, {DistanceMeters: 20}})
	assert.True(t, ok)
	assert.Equal(t, 10.0, d)
}
