package repositories

import (
	"context"

	"github.com/chrisdamba/deliverysim/internal/models"
)

// The export is write-only. Counts are read back only to confirm that every
// row of a run was stored.

type RunRepository interface {
	Create(ctx context.Context, summary *models.RunSummary) error
}

type OrderRepository interface {
	BulkCreate(ctx context.Context, runID string, orders []*models.Order) error
	Count(ctx context.Context, runID string) (int, error)
}

type CourierRepository interface {
	BulkCreate(ctx context.Context, runID string, couriers []models.CourierSnapshot) error
	Count(ctx context.Context, runID string) (int, error)
}
