package db

import (
	"context"

	"github.com/ukydev/device-monitor/internal/models"
)

// RecordCollection defines the interface for mirrored log record operations.
type RecordCollection interface {
	InsertRecord(ctx context.Context, rec models.LogRecord) error
	FindRecords(ctx context.Context, userID string, limit int64) ([]models.LogRecord, error)
}
