package models

import "time"

// TimestampLayout is the local-time layout used for sample timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Fix is a single location update delivered by a location source.
type Fix struct {
	Latitude   float64   `bson:"latitude" json:"latitude"`
	Longitude  float64   `bson:"longitude" json:"longitude"`
	ReceivedAt time.Time `bson:"received_at" json:"received_at"`
}

// PositionSample is the position and battery state captured by one tick.
type PositionSample struct {
	Timestamp      string  `bson:"time" json:"time"`
	Latitude       float64 `bson:"latitude" json:"latitude"`
	Longitude      float64 `bson:"longitude" json:"longitude"`
	BatteryPercent int     `bson:"battery" json:"battery"` // 0-100
}

// LogRecord is everything persisted for one tick.
type LogRecord struct {
	SessionID string            `bson:"session_id" json:"-"`
	Sample    PositionSample    `bson:"sample" json:"sample"`
	UserID    string            `bson:"user_id" json:"user_id"`
	Readings  []GeofenceReading `bson:"geofences" json:"geofences"`
}

// LocationUpdate is the locationUpdate event sent to the hosting application.
type LocationUpdate struct {
	Time             string   `json:"time"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Battery          int      `json:"battery"`
	GeofenceDistance *float64 `json:"geofence_distance"`
}

// NotificationChannel describes the channel the status notification is posted on.
type NotificationChannel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Importance  string `json:"importance"` // "low", "default", "high"
	Silent      bool   `json:"silent"`
}

// Notification is the content of the persistent status notification.
type Notification struct {
	ChannelID string `json:"channel_id"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	Priority  string `json:"priority"` // "low", "default", "high"
	Ongoing   bool   `json:"ongoing"`
}
