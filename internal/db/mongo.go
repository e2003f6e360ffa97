package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/device-monitor/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoCollection wraps a MongoDB collection mirroring log records.
type MongoCollection struct {
	Collection *mongo.Collection
}

// recordDocument is the stored shape of one tick.
type recordDocument struct {
	models.LogRecord `bson:",inline"`
	CreatedAt        time.Time `bson:"created_at"`
}

// InsertRecord stores one log record.
func (c *MongoCollection) InsertRecord(ctx context.Context, rec models.LogRecord) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.InsertOne(ctx, recordDocument{LogRecord: rec, CreatedAt: time.Now()})
	return err
}

// FindRecords returns the most recent records for a user, newest first.
// An empty userID matches every user.
func (c *MongoCollection) FindRecords(ctx context.Context, userID string, limit int64) ([]models.LogRecord, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []recordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]models.LogRecord, len(docs))
	for i, d := range docs {
		records[i] = d.LogRecord
	}
	return records, nil
}
