package tracklog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ukydev/device-monitor/internal/models"
)

// Format names accepted by FormatByName.
const (
	FormatLegacy = "legacy"
	FormatJSON   = "json"
)

// Format serializes one record into a block of text without a trailing newline.
type Format interface {
	Encode(rec models.LogRecord) ([]byte, error)
}

// FormatByName resolves a configured format name.
func FormatByName(name string) (Format, error) {
	switch name {
	case "", FormatLegacy:
		return LegacyFormat{}, nil
	case FormatJSON:
		return JSONFormat{}, nil
	default:
		return nil, fmt.Errorf("unknown log format %q", name)
	}
}

// LegacyFormat writes the hand-built block the mobile plugin has always
// produced: every value is a quoted string.
type LegacyFormat struct{}

// Encode implements Format.
func (LegacyFormat) Encode(rec models.LogRecord) ([]byte, error) {
	entries := make([]string, 0, len(rec.Readings))
	for _, r := range rec.Readings {
		var e strings.Builder
		e.WriteString("  {\n")
		fmt.Fprintf(&e, "    \"latitude\": %s,\n", quote(FormatDouble(r.Geofence.Latitude)))
		fmt.Fprintf(&e, "    \"longitude\": %s,\n", quote(FormatDouble(r.Geofence.Longitude)))
		fmt.Fprintf(&e, "    \"radius\": %s,\n", quote(FormatDouble(r.Geofence.RadiusMeters)))
		fmt.Fprintf(&e, "    \"distance\": %s\n", quote(FormatDouble(r.DistanceMeters)))
		e.WriteString("  }")
		entries = append(entries, e.String())
	}

	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  \"time\": %s,\n", quote(rec.Sample.Timestamp))
	fmt.Fprintf(&b, "  \"current_lat\": %s,\n", quote(FormatDouble(rec.Sample.Latitude)))
	fmt.Fprintf(&b, "  \"current_long\": %s,\n", quote(FormatDouble(rec.Sample.Longitude)))
	fmt.Fprintf(&b, "  \"battery_value\": %s,\n", quote(strconv.Itoa(rec.Sample.BatteryPercent)+"%"))
	fmt.Fprintf(&b, "  \"user_id\": %s,\n", quote(rec.UserID))
	b.WriteString("  \"geofences\": [\n")
	b.WriteString(strings.Join(entries, ",\n"))
	b.WriteString("\n  ]\n")
	b.WriteString("}")
	return []byte(b.String()), nil
}

// JSONFormat writes the same record with numeric values.
type JSONFormat struct{}

type jsonGeofence struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    float64 `json:"radius"`
	Distance  float64 `json:"distance"`
}

type jsonRecord struct {
	Time         string         `json:"time"`
	CurrentLat   float64        `json:"current_lat"`
	CurrentLong  float64        `json:"current_long"`
	BatteryValue int            `json:"battery_value"`
	UserID       string         `json:"user_id"`
	Geofences    []jsonGeofence `json:"geofences"`
}

// Encode implements Format.
func (JSONFormat) Encode(rec models.LogRecord) ([]byte, error) {
	out := jsonRecord{
		Time:         rec.Sample.Timestamp,
		CurrentLat:   rec.Sample.Latitude,
		CurrentLong:  rec.Sample.Longitude,
		BatteryValue: rec.Sample.BatteryPercent,
		UserID:       rec.UserID,
		Geofences:    make([]jsonGeofence, 0, len(rec.Readings)),
	}
	for _, r := range rec.Readings {
		out.Geofences = append(out.Geofences, jsonGeofence{
			Latitude:  r.Geofence.Latitude,
			Longitude: r.Geofence.Longitude,
			Radius:    r.Geofence.RadiusMeters,
			Distance:  r.DistanceMeters,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal log record: %w", err)
	}
	return data, nil
}

// quote renders s as a JSON string literal.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return strconv.Quote(s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// FormatDouble renders a float the way the JVM prints a double: plain
// decimal with at least one fractional digit in [1e-3, 1e7), otherwise
// scientific notation such as 1.0E7.
func FormatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}

	abs := math.Abs(v)
	if abs == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}

	s := strconv.FormatFloat(v, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	e, err := strconv.Atoi(exp)
	if err != nil {
		return s
	}
	return mantissa + "E" + strconv.Itoa(e)
}
