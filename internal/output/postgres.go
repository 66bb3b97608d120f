package output

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the part of pgxpool.Pool the event writer relies on.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresOutput inserts events into fact tables, one row per event.
type PostgresOutput struct {
	ctx  context.Context
	db   DB
	pool *pgxpool.Pool
}

const eventColumns = `
	event_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	timestamp BIGINT NOT NULL,
	event_type TEXT NOT NULL,
	step BIGINT NOT NULL,
	order_id BIGINT,
	courier_id BIGINT,
	courier_name TEXT,
	courier_type TEXT,
	restaurant_name TEXT,
	price DOUBLE PRECISION,
	distance DOUBLE PRECISION,
	weather TEXT,
	weather_display TEXT,
	surge_multiplier DOUBLE PRECISION,
	earnings DOUBLE PRECISION,
	delivery_time BIGINT,
	reason TEXT,
	location_x DOUBLE PRECISION,
	location_y DOUBLE PRECISION`

func NewPostgresOutput(ctx context.Context, config *models.DatabaseConfig) (*PostgresOutput, error) {
	pool, err := pgxpool.New(ctx, config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	p := &PostgresOutput{ctx: ctx, db: pool, pool: pool}
	if err := p.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgresOutputWithDB writes through an existing connection.
func NewPostgresOutputWithDB(ctx context.Context, db DB) *PostgresOutput {
	return &PostgresOutput{ctx: ctx, db: db}
}

const (
	schemaRetries = 3
	retryBackoff  = 50 * time.Millisecond
)

// EnsureSchema creates every fact table the topics map onto. Concurrent
// runs creating the same tables can deadlock, so the transaction is retried.
func (p *PostgresOutput) EnsureSchema(ctx context.Context) error {
	return p.ExecTxWithRetry(ctx, func(tx pgx.Tx) error {
		for _, table := range factTables() {
			query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s\n)", table, eventColumns)
			if _, err := tx.Exec(ctx, query); err != nil {
				return fmt.Errorf("failed to create %s: %w", table, err)
			}
		}
		return nil
	}, schemaRetries)
}

func (p *PostgresOutput) WriteMessage(topic string, msg []byte) error {
	var event map[string]interface{}
	if err := json.Unmarshal(msg, &event); err != nil {
		return err
	}

	table := topicToTable(topic)
	cols, vals, placeholders := buildInsertComponents(event)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, cols, placeholders)

	if _, err := p.db.Exec(p.ctx, query, vals...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func (p *PostgresOutput) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *PostgresOutput) ExecTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx failed: %w, rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ExecTxWithRetry runs fn in up to maxAttempts transactions, backing off
// linearly between attempts that failed on a transient lock conflict.
func (p *PostgresOutput) ExecTxWithRetry(ctx context.Context, fn func(pgx.Tx) error, maxAttempts int) error {
	var err error
	for i := 1; i <= maxAttempts; i++ {
		err = p.ExecTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryableError(err) {
			return err
		}
		if i < maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i) * retryBackoff):
			}
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, err)
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"55P03": // lock_not_available
		return true
	}
	return false
}

var topicTables = map[string]string{
	"order_created_events":   "fact_order",
	"order_assigned_events":  "fact_order",
	"order_picked_up_events": "fact_order",
	"order_delivered_events": "fact_order",
	"order_cancelled_events": "fact_order",
	"accident_events":        "fact_courier_incident",
	"weather_change_events":  "fact_weather_condition",
}

func topicToTable(topic string) string {
	if table, ok := topicTables[topic]; ok {
		return table
	}
	// unknown topics land in fact_<topic without _events>
	return "fact_" + strings.TrimSuffix(topic, "_events")
}

func factTables() []string {
	seen := make(map[string]bool)
	var tables []string
	for _, table := range topicTables {
		if !seen[table] {
			seen[table] = true
			tables = append(tables, table)
		}
	}
	sort.Strings(tables)
	return tables
}

func buildInsertComponents(event map[string]interface{}) (string, []interface{}, string) {
	keys := make([]string, 0, len(event))
	for k := range event {
		keys = append(keys, k)
	}
	// sorted for stable queries
	sort.Strings(keys)

	columns := make([]string, 0, len(keys))
	values := make([]interface{}, 0, len(keys))
	placeholders := make([]string, 0, len(keys))
	for i, key := range keys {
		val := event[key]
		// JSON numbers decode as float64; integral columns need integers
		if f, ok := val.(float64); ok && isIntegralColumn(key) {
			val = int64(f)
		}
		columns = append(columns, snakeCaseKey(key))
		values = append(values, val)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	return strings.Join(columns, ", "), values, strings.Join(placeholders, ", ")
}

func isIntegralColumn(key string) bool {
	switch key {
	case "timestamp", "step", "orderId", "courierId", "deliveryTime":
		return true
	}
	return false
}

func snakeCaseKey(key string) string {
	var result strings.Builder
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToLower(r))
	}
	return result.String()
}
