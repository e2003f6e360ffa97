// Package publisher forwards the latest sample to the hosting application
// as a fire-and-forget locationUpdate event over MQTT.
package publisher

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/device-monitor/internal/geofence"
	"github.com/ukydev/device-monitor/internal/metrics"
	"github.com/ukydev/device-monitor/internal/models"
)

// EventLocationUpdate is the method name the host listens for.
const EventLocationUpdate = "locationUpdate"

// Client is the part of mqtt.Client the publisher needs.
type Client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher sends events without acknowledgement, retry or queuing.
type Publisher struct {
	client  Client
	topic   string
	metrics *metrics.Metrics
}

// New creates a Publisher for the given topic.
func New(client Client, topic string, m *metrics.Metrics) *Publisher {
	return &Publisher{client: client, topic: topic, metrics: m}
}

// NewEvent builds the locationUpdate event for one tick. The distance field
// carries the nearest geofence, or null when there are none or when
// legacyNullDistance is set.
func NewEvent(sample models.PositionSample, readings []models.GeofenceReading, legacyNullDistance bool) models.LocationUpdate {
	evt := models.LocationUpdate{
		Time:      sample.Timestamp,
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Battery:   sample.BatteryPercent,
	}
	if legacyNullDistance {
		return evt
	}
	if d, ok := geofence.Nearest(readings); ok {
		evt.GeofenceDistance = &d
	}
	return evt
}

// Publish emits evt. Events are dropped when the client is not connected.
func (p *Publisher) Publish(evt models.LocationUpdate) {
	if p.client == nil || !p.client.IsConnected() {
		p.metrics.IncPublishDropped()
		log.WithField("event", EventLocationUpdate).Debug("Host not connected, dropping event")
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		p.metrics.IncPublishDropped()
		log.WithError(err).Error("Failed to marshal location update")
		return
	}
	p.client.Publish(p.topic, 0, false, payload)
}

// Options configures the MQTT connection.
type Options struct {
	BrokerURL      string
	ClientID       string
	ConnectTimeout time.Duration
	// OnConnect runs after every (re)connect.
	OnConnect func(mqtt.Client)
}

// Connect creates an auto-reconnecting MQTT client. A broker that is not
// reachable yet is not an error: events are dropped until it is.
func Connect(opts Options) mqtt.Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	co := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectTimeout(opts.ConnectTimeout).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.WithField("broker", opts.BrokerURL).Info("Connected to MQTT broker")
			if opts.OnConnect != nil {
				opts.OnConnect(c)
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(co)
	token := client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		log.WithField("broker", opts.BrokerURL).Warn("MQTT broker not reachable yet, retrying in background")
	} else if err := token.Error(); err != nil {
		log.WithError(err).Warn("MQTT connect failed")
	}
	return client
}
