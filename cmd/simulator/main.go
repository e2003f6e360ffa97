package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/device-monitor/internal/auth"
	"github.com/ukydev/device-monitor/internal/models"
	"github.com/ukydev/device-monitor/internal/plugin"
	"github.com/ukydev/device-monitor/internal/publisher"
)

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64
	Lon float64
}

// Cities used to place geofences when none are configured
var cities = []Location{
	{Lat: 37.7749, Lon: -122.4194}, // San Francisco
	{Lat: 51.5074, Lon: -0.1278},   // London
	{Lat: 40.7128, Lon: -74.0060},  // New York
	{Lat: 48.8566, Lon: 2.3522},    // Paris
	{Lat: 35.6762, Lon: 139.6503},  // Tokyo
}

func jitterLocation(base Location, meters float64) Location {
	latMetersPerDeg := 111320.0
	lonMetersPerDeg := 111320.0 * math.Cos(base.Lat*math.Pi/180)
	dLat := (rand.Float64()*2 - 1) * (meters / latMetersPerDeg)
	dLon := (rand.Float64()*2 - 1) * (meters / lonMetersPerDeg)
	return Location{Lat: base.Lat + dLat, Lon: base.Lon + dLon}
}

// randomGeofences places n fences of the given radius around base.
func randomGeofences(base Location, n int, radius float64) []string {
	fences := make([]string, 0, n)
	for i := 0; i < n; i++ {
		c := jitterLocation(base, 2000)
		fences = append(fences, fmt.Sprintf("%.6f,%.6f,%.0f", c.Lat, c.Lon, radius))
	}
	return fences
}

// parseGeofenceList splits a ';' separated list, keeping entries verbatim.
func parseGeofenceList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	fences := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fences = append(fences, p)
		}
	}
	return fences
}

func buildStartArgs(intervalMs int64, accuracy float64, fences []string, userID string) plugin.StartArgs {
	if fences == nil {
		fences = []string{}
	}
	return plugin.StartArgs{
		Interval:         &intervalMs,
		DistanceAccuracy: &accuracy,
		Geofences:        fences,
		UserID:           &userID,
	}
}

// controlClient calls the device-monitor control API.
type controlClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newControlClient(baseURL, token string) *controlClient {
	return &controlClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *controlClient) post(path string, body interface{}) (string, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return "", fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	var out struct {
		Result  string `json:"result"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &plugin.Error{Code: out.Code, Message: out.Message}
	}
	return out.Result, nil
}

func (c *controlClient) StartService(args plugin.StartArgs) (string, error) {
	return c.post("/service/start", args)
}

func (c *controlClient) StopService() (string, error) {
	return c.post("/service/stop", nil)
}

func handleLocationUpdate(payload []byte) (models.LocationUpdate, error) {
	var evt models.LocationUpdate
	if err := json.Unmarshal(payload, &evt); err != nil {
		return evt, fmt.Errorf("invalid location update: %w", err)
	}

	fields := log.Fields{
		"time":      evt.Time,
		"latitude":  evt.Latitude,
		"longitude": evt.Longitude,
		"battery":   evt.Battery,
	}
	if evt.GeofenceDistance != nil {
		fields["geofence_distance"] = *evt.GeofenceDistance
	}
	log.WithFields(fields).Info("Received locationUpdate")
	return evt, nil
}

const subscribeTimeout = 5 * time.Second

// subscriber is the part of mqtt.Client used to follow events.
type subscriber interface {
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// subscribeUpdates subscribes to the event topic and waits for the broker ack.
func subscribeUpdates(c subscriber, topic string, timeout time.Duration) error {
	token := c.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if _, err := handleLocationUpdate(msg.Payload()); err != nil {
			log.WithError(err).Warn("Dropping malformed event")
		}
	})
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("subscribe %s: timed out after %s", topic, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	log.WithField("topic", topic).Info("Subscribed to location updates")
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&log.JSONFormatter{})

	apiURL := getEnv("API_BASE_URL", "http://localhost:8080/api")
	appID := getEnv("SIM_APP_ID", "com.example.tracker")
	userID := getEnv("SIM_USER_ID", "u1")
	topic := getEnv("MQTT_TOPIC", "device_monitor/locationUpdate")

	intervalMs := int64(60000)
	if v := os.Getenv("SIM_INTERVAL_MS"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			intervalMs = n
		}
	}
	accuracy := 10.0
	if v := os.Getenv("SIM_DISTANCE_ACCURACY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			accuracy = f
		}
	}
	fences := parseGeofenceList(os.Getenv("SIM_GEOFENCES"))
	if fences == nil {
		fences = randomGeofences(cities[rand.Intn(len(cities))], 3, 500)
	}

	token := os.Getenv("SIM_AUTH_TOKEN")
	if token == "" {
		authService, err := auth.NewService(getEnv("JWT_SECRET", "default-secret-key-change-in-production"), time.Hour)
		if err != nil {
			log.WithError(err).Fatal("Failed to create auth service")
		}
		if token, err = authService.GenerateToken(appID); err != nil {
			log.WithError(err).Fatal("Failed to mint token")
		}
	}

	client := publisher.Connect(publisher.Options{
		BrokerURL: getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		ClientID:  getEnv("SIM_MQTT_CLIENT_ID", "device-monitor-host"),
		OnConnect: func(c mqtt.Client) {
			if err := subscribeUpdates(c, topic, subscribeTimeout); err != nil {
				log.WithError(err).WithField("topic", topic).Error("Failed to subscribe to location updates")
			}
		},
	})
	defer client.Disconnect(250)

	control := newControlClient(apiURL, token)

	log.WithFields(log.Fields{
		"api_url":   apiURL,
		"app_id":    appID,
		"user_id":   userID,
		"interval":  intervalMs,
		"geofences": fences,
	}).Info("Starting host simulation")

	ack, err := control.StartService(buildStartArgs(intervalMs, accuracy, fences, userID))
	if err != nil {
		log.WithError(err).Error("startService failed")
		return
	}
	log.WithField("result", ack).Info("startService")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ack, err = control.StopService()
	if err != nil {
		log.WithError(err).Error("stopService failed")
		return
	}
	log.WithField("result", ack).Info("stopService")
}
