package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/chrisdamba/deliverysim/internal/repositories"
	"github.com/chrisdamba/deliverysim/internal/repositories/postgres"
	"github.com/chrisdamba/deliverysim/internal/simulator"
	"github.com/jackc/pgx/v5/pgxpool"
)

var errIncompleteExport = errors.New("run export incomplete")

// persistRun stores the run summary, every order and a final snapshot of
// every courier.
func persistRun(ctx context.Context, cfg *models.Config, sim *simulator.Simulator, logger *slog.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.Database.ConnString())
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}

	summary := sim.Summary()
	return exportRun(ctx,
		postgres.NewRunRepository(pool),
		postgres.NewOrderRepository(pool),
		postgres.NewCourierRepository(pool),
		&summary, sim.Orders, sim.CourierSnapshots(), logger)
}

func exportRun(
	ctx context.Context,
	runs repositories.RunRepository,
	orders repositories.OrderRepository,
	couriers repositories.CourierRepository,
	summary *models.RunSummary,
	orderList []*models.Order,
	snapshots []models.CourierSnapshot,
	logger *slog.Logger,
) error {
	if err := runs.Create(ctx, summary); err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}
	if err := orders.BulkCreate(ctx, summary.RunID, orderList); err != nil {
		return fmt.Errorf("failed to store orders: %w", err)
	}
	if err := couriers.BulkCreate(ctx, summary.RunID, snapshots); err != nil {
		return fmt.Errorf("failed to store couriers: %w", err)
	}

	storedOrders, err := orders.Count(ctx, summary.RunID)
	if err != nil {
		return fmt.Errorf("failed to count orders: %w", err)
	}
	storedCouriers, err := couriers.Count(ctx, summary.RunID)
	if err != nil {
		return fmt.Errorf("failed to count couriers: %w", err)
	}
	if storedOrders != len(orderList) || storedCouriers != len(snapshots) {
		return fmt.Errorf("%w: stored %d/%d orders and %d/%d couriers", errIncompleteExport,
			storedOrders, len(orderList), storedCouriers, len(snapshots))
	}

	logger.InfoContext(ctx, "run persisted", "run_id", summary.RunID, "orders", storedOrders, "couriers", storedCouriers)
	return nil
}
