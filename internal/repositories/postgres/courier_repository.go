package postgres

import (
	"context"

	"github.com/chrisdamba/deliverysim/internal/models"
)

type CourierRepository struct {
	db DB
}

func NewCourierRepository(db DB) *CourierRepository {
	return &CourierRepository{db: db}
}

func (r *CourierRepository) BulkCreate(ctx context.Context, runID string, couriers []models.CourierSnapshot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, c := range couriers {
		query := `
            INSERT INTO couriers (
                run_id, id, name, type, state, location_x, location_y, order_id,
                deliveries, earnings, distance_travelled, accidents, idle_time,
                active_time, accident_time, utilization_rate
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        `
		_, err = tx.Exec(ctx, query,
			runID,
			c.ID,
			c.Name,
			c.Type,
			c.State,
			c.Location.X,
			c.Location.Y,
			nullableInt(c.OrderID),
			c.Deliveries,
			c.Earnings,
			c.DistanceTravelled,
			c.Accidents,
			c.IdleTime,
			c.ActiveTime,
			c.AccidentTime,
			c.UtilizationRate,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *CourierRepository) Count(ctx context.Context, runID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM couriers WHERE run_id = $1", runID).Scan(&count)
	return count, err
}
