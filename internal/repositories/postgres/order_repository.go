package postgres

import (
	"context"

	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/jackc/pgx/v5"
)

type OrderRepository struct {
	db DB
}

func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) BulkCreate(ctx context.Context, runID string, orders []*models.Order) error {
	query := `
        INSERT INTO orders (
            run_id, id, restaurant_id, customer_id, price, distance, weather,
            surge_multiplier, status, courier_id, cancel_reason, created_step,
            assigned_step, picked_up_step, delivered_step, cancelled_step
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
    `

	batch := &pgx.Batch{}
	for _, o := range orders {
		batch.Queue(query,
			runID,
			o.ID,
			o.Restaurant.ID,
			o.Customer.ID,
			o.Price,
			o.Distance,
			o.Weather,
			o.SurgeMultiplier,
			o.Status,
			nullableInt(o.CourierID),
			nullableString(o.CancelReason),
			o.CreatedStep,
			nullableInt(o.AssignedStep),
			nullableInt(o.PickedUpStep),
			nullableInt(o.DeliveredStep),
			nullableInt(o.CancelledStep),
		)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *OrderRepository) Count(ctx context.Context, runID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM orders WHERE run_id = $1", runID).Scan(&count)
	return count, err
}
