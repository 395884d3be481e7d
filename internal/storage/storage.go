package storage

import (
	"context"
	"time"

	"lpYield/internal/model"
)

// Storage defines a sink for computed pool yields.
type Storage interface {
	PutYieldBatch(ctx context.Context, computedAt time.Time, records []model.PoolYieldRecord) error
}
