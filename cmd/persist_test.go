package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/deliverysim/internal/models"
)

type fakeRuns struct {
	stored []*models.RunSummary
	err    error
}

func (f *fakeRuns) Create(_ context.Context, s *models.RunSummary) error {
	f.stored = append(f.stored, s)
	return f.err
}

type fakeOrders struct {
	stored []*models.Order
	count  int
}

func (f *fakeOrders) BulkCreate(_ context.Context, _ string, orders []*models.Order) error {
	f.stored = append(f.stored, orders...)
	return nil
}

func (f *fakeOrders) Count(context.Context, string) (int, error) {
	return f.count, nil
}

type fakeCouriers struct {
	stored []models.CourierSnapshot
	count  int
}

func (f *fakeCouriers) BulkCreate(_ context.Context, _ string, couriers []models.CourierSnapshot) error {
	f.stored = append(f.stored, couriers...)
	return nil
}

func (f *fakeCouriers) Count(context.Context, string) (int, error) {
	return f.count, nil
}

func exportFixture() (*models.RunSummary, []*models.Order, []models.CourierSnapshot) {
	summary := &models.RunSummary{RunID: "run-1", TotalOrders: 2}
	orders := []*models.Order{{ID: 1}, {ID: 2}}
	snapshots := []models.CourierSnapshot{{ID: 1}}
	return summary, orders, snapshots
}

func TestExportRun(t *testing.T) {
	t.Run("should store everything and log the stored counts", func(t *testing.T) {
		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, nil))
		summary, orders, snapshots := exportFixture()
		runs, orderRepo, courierRepo := &fakeRuns{}, &fakeOrders{count: 2}, &fakeCouriers{count: 1}

		err := exportRun(context.Background(), runs, orderRepo, courierRepo, summary, orders, snapshots, logger)

		require.NoError(t, err)
		assert.Equal(t, []*models.RunSummary{summary}, runs.stored)
		assert.Len(t, orderRepo.stored, 2)
		assert.Len(t, courierRepo.stored, 1)
		assert.Contains(t, logs.String(), "run persisted")
		assert.Contains(t, logs.String(), "orders=2")
	})

	t.Run("should fail when rows are missing after the export", func(t *testing.T) {
		summary, orders, snapshots := exportFixture()

		err := exportRun(context.Background(), &fakeRuns{}, &fakeOrders{count: 1}, &fakeCouriers{count: 1},
			summary, orders, snapshots, slog.Default())

		require.ErrorIs(t, err, errIncompleteExport)
		assert.Contains(t, err.Error(), "stored 1/2 orders")
	})

	t.Run("should stop before the orders when the run cannot be stored", func(t *testing.T) {
		boom := errors.New("connection reset")
		summary, orders, snapshots := exportFixture()
		orderRepo := &fakeOrders{}

		err := exportRun(context.Background(), &fakeRuns{err: boom}, orderRepo, &fakeCouriers{},
			summary, orders, snapshots, slog.Default())

		require.ErrorIs(t, err, boom)
		assert.Empty(t, orderRepo.stored)
	})
}
