package publisher

import (
	"encoding/json"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/device-monitor/internal/metrics"
	"github.com/ukydev/device-monitor/internal/models"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (doneToken) Error() error { return nil }

// MockClient is a mock implementation of Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	m.Called(topic, qos, retained, payload)
	return doneToken{}
}

func sample() models.PositionSample {
	return models.PositionSample{Timestamp: "2024-05-06 07:08:09", Latitude: 37.001, Longitude: -122.001, BatteryPercent: 85}
}

func TestNewEvent_NearestDistance(t *testing.T) {
	readings := []models.GeofenceReading{{DistanceMeters: 300}, {DistanceMeters: 142.3}}

	evt := NewEvent(sample(), readings, false)

	assert.Equal(t, "2024-05-06 07:08:09", evt.Time)
	assert.Equal(t, 85, evt.Battery)
	require.NotNil(t, evt.GeofenceDistance)
	assert.Equal(t, 142.3, *evt.GeofenceDistance)
}

func TestNewEvent_NullDistance(t *testing.T) {
	assert.Nil(t, NewEvent(sample(), nil, false).GeofenceDistance)
	assert.Nil(t, NewEvent(sample(), []models.GeofenceReading{{DistanceMeters: 1}}, true).GeofenceDistance)
}

func TestPublisher_PublishesJSON(t *testing.T) {
	client := &MockClient{}
	client.On("IsConnected").Return(true)
	client.On("Publish", "device_monitor/locationUpdate", byte(0), false, mock.MatchedBy(func(p interface{}) bool {
		var evt map[string]interface{}
		if err := json.Unmarshal(p.([]byte), &evt); err != nil {
			return false
		}
		_, hasDistance := evt["geofence_distance"]
		return evt["time"] == "2024-05-06 07:08:09" && evt["battery"] == 85.0 && hasDistance
	})).Return()

	p := New(client, "device_monitor/locationUpdate", nil)
	p.Publish(NewEvent(sample(), nil, false))

	client.AssertExpectations(t)
}

func TestPublisher_DropsWhenDisconnected(t *testing.T) {
	client := &MockClient{}
	client.On("IsConnected").Return(false)
	m := metrics.NewMetrics()
	require.NoError(t, m.Register(prometheus.NewRegistry()))

	p := New(client, "topic", m)
	p.Publish(NewEvent(sample(), nil, false))

	client.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPublisher_NilClient(t *testing.T) {
	p := New(nil, "topic", nil)
	assert.NotPanics(t, func() { p.Publish(models.LocationUpdate{}) })
}
