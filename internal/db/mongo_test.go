package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/device-monitor/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestConnectMongo_EmptyURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestInsertRecord_NilCollection(t *testing.T) {
	coll := &MongoCollection{Collection: nil}
	assert.Error(t, coll.InsertRecord(context.Background(), models.LogRecord{}))

	_, err := coll.FindRecords(context.Background(), "u1", 10)
	assert.Error(t, err)
}

// Integration test (requires running MongoDB)
func TestRecords_Integration(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer client.Disconnect(context.Background())

	coll := &MongoCollection{Collection: client.Database("test_device_monitor").Collection("records")}
	_, err = coll.Collection.DeleteMany(ctx, bson.M{})
	require.NoError(t, err)

	for _, user := range []string{"u1", "u2", "u1"} {
		rec := models.LogRecord{
			SessionID: "s1",
			UserID:    user,
			Sample:    models.PositionSample{Timestamp: "2024-05-06 07:08:09", Latitude: 37.001, Longitude: -122.001, BatteryPercent: 85},
			Readings:  []models.GeofenceReading{{Geofence: models.Geofence{Latitude: 37, Longitude: -122, RadiusMeters: 500}, DistanceMeters: 142.3}},
		}
		require.NoError(t, coll.InsertRecord(ctx, rec))
	}

	records, err := coll.FindRecords(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "s1", records[0].SessionID)
	assert.Equal(t, 500.0, records[0].Readings[0].Geofence.RadiusMeters)

	all, err := coll.FindRecords(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
