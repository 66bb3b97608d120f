package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chrisdamba/deliverysim/internal/models"
)

type RunRepository struct {
	db DB
}

func NewRunRepository(db DB) *RunRepository {
	return &RunRepository{db: db}
}

func (r *RunRepository) Create(ctx context.Context, summary *models.RunSummary) error {
	perWeather, err := json.Marshal(summary.AccidentsPerWeather)
	if err != nil {
		return fmt.Errorf("failed to encode accidents per weather: %w", err)
	}

	query := `
        INSERT INTO simulation_runs (
            run_id, seed, steps, started_at, finished_at, total_orders,
            delivered_orders, cancelled_orders, average_delivery_time,
            total_revenue, average_price, average_surge, max_surge,
            courier_earnings, accidents, weather_changes, final_weather,
            accidents_per_weather
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
    `
	_, err = r.db.Exec(ctx, query,
		summary.RunID,
		summary.Seed,
		summary.Steps,
		summary.StartedAt,
		summary.FinishedAt,
		summary.TotalOrders,
		summary.DeliveredOrders,
		summary.CancelledOrders,
		summary.AverageDeliveryTime,
		summary.TotalRevenue,
		summary.AveragePrice,
		summary.AverageSurge,
		summary.MaxSurge,
		summary.CourierEarnings,
		summary.Accidents,
		summary.WeatherChanges,
		summary.FinalWeather,
		perWeather,
	)
	return err
}
