// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is the device-monitor process configuration.
type Config struct {
	Port      string
	LogDir    string
	LogFile   string
	LogFormat string
	LogLevel  log.Level

	MQTTBrokerURL string
	MQTTClientID  string
	MQTTTopic     string

	MongoURI string
	MongoDB  string

	JWTSecret string
	JWTExpiry time.Duration

	LocationPermission string
	SimStartLat        float64
	SimStartLon        float64
	SimJitterMeters    float64

	LegacyNullDistance bool
}

// Load reads .env files (if present) and then the environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LogDir:             getEnv("LOG_DIR", "./data"),
		LogFile:            getEnv("LOG_FILE", "location_battery_log.txt"),
		LogFormat:          getEnv("LOG_FORMAT", "legacy"),
		MQTTBrokerURL:      getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:       getEnv("MQTT_CLIENT_ID", "device-monitor"),
		MQTTTopic:          getEnv("MQTT_TOPIC", "device_monitor/locationUpdate"),
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            getEnv("MONGO_DB", "device_monitor"),
		JWTSecret:          getEnv("JWT_SECRET", "default-secret-key-change-in-production"),
		LocationPermission: getEnv("LOCATION_PERMISSION", "prompt"),
	}

	var err error
	if cfg.LogLevel, err = log.ParseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if cfg.JWTExpiry, err = time.ParseDuration(getEnv("JWT_EXPIRY", "24h")); err != nil {
		return nil, fmt.Errorf("JWT_EXPIRY: %w", err)
	}
	if cfg.SimStartLat, err = getFloat("SIM_START_LAT", 0); err != nil {
		return nil, err
	}
	if cfg.SimStartLon, err = getFloat("SIM_START_LON", 0); err != nil {
		return nil, err
	}
	if cfg.SimJitterMeters, err = getFloat("SIM_JITTER_METERS", 25); err != nil {
		return nil, err
	}
	if cfg.LegacyNullDistance, err = strconv.ParseBool(getEnv("PUBLISH_LEGACY_NULL_DISTANCE", "false")); err != nil {
		return nil, fmt.Errorf("PUBLISH_LEGACY_NULL_DISTANCE: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}
