package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the part of pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS simulation_runs (
		run_id TEXT PRIMARY KEY,
		seed BIGINT NOT NULL,
		steps INTEGER NOT NULL,
		started_at TIMESTAMPTZ,
		finished_at TIMESTAMPTZ,
		total_orders INTEGER NOT NULL,
		delivered_orders INTEGER NOT NULL,
		cancelled_orders INTEGER NOT NULL,
		average_delivery_time DOUBLE PRECISION,
		total_revenue DOUBLE PRECISION,
		average_price DOUBLE PRECISION,
		average_surge DOUBLE PRECISION,
		max_surge DOUBLE PRECISION,
		courier_earnings DOUBLE PRECISION,
		accidents INTEGER NOT NULL,
		weather_changes INTEGER NOT NULL,
		final_weather TEXT,
		accidents_per_weather JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		run_id TEXT NOT NULL REFERENCES simulation_runs (run_id) ON DELETE CASCADE,
		id INTEGER NOT NULL,
		restaurant_id INTEGER NOT NULL,
		customer_id INTEGER NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		distance DOUBLE PRECISION NOT NULL,
		weather TEXT NOT NULL,
		surge_multiplier DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		courier_id INTEGER,
		cancel_reason TEXT,
		created_step INTEGER NOT NULL,
		assigned_step INTEGER,
		picked_up_step INTEGER,
		delivered_step INTEGER,
		cancelled_step INTEGER,
		PRIMARY KEY (run_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS couriers (
		run_id TEXT NOT NULL REFERENCES simulation_runs (run_id) ON DELETE CASCADE,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		state TEXT NOT NULL,
		location_x DOUBLE PRECISION NOT NULL,
		location_y DOUBLE PRECISION NOT NULL,
		order_id INTEGER,
		deliveries INTEGER NOT NULL,
		earnings DOUBLE PRECISION NOT NULL,
		distance_travelled DOUBLE PRECISION NOT NULL,
		accidents INTEGER NOT NULL,
		idle_time INTEGER NOT NULL,
		active_time INTEGER NOT NULL,
		accident_time INTEGER NOT NULL,
		utilization_rate DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, id)
	)`,
}

// Migrate creates the run, order and courier tables when missing.
func Migrate(ctx context.Context, db DB) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, m := range migrations {
		if _, err := tx.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// nullableInt stores zero step and id values as NULL.
func nullableInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
