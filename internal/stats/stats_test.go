package stats_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/chrisdamba/deliverysim/internal/stats"
)

func lifecycle() []models.Event {
	return []models.Event{
		{Type: models.EventOrderCreated, Step: 1, OrderID: 1, RestaurantName: "Taco Town", Price: 10, Weather: models.WeatherClear, SurgeMultiplier: 1},
		{Type: models.EventOrderCreated, Step: 2, OrderID: 2, RestaurantName: "Taco Town", Price: 20, Weather: models.WeatherRain, SurgeMultiplier: 2.5},
		{Type: models.EventOrderCreated, Step: 3, OrderID: 3, RestaurantName: "Pho House", Price: 30, Weather: models.WeatherRain, SurgeMultiplier: 1.5},
		{Type: models.EventOrderAssigned, Step: 3, OrderID: 1, CourierID: 1, CourierName: "Ann Biker"},
		{Type: models.EventOrderAssigned, Step: 3, OrderID: 2, CourierID: 2, CourierName: "Ben Drone"},
		{Type: models.EventOrderPickedUp, Step: 8, OrderID: 1, CourierID: 1, CourierName: "Ann Biker"},
		{Type: models.EventAccident, Step: 9, CourierID: 2, CourierName: "Ben Drone", Weather: models.WeatherRain},
		{Type: models.EventOrderCancelled, Step: 9, OrderID: 2, CourierID: 2, Reason: models.CancelReasonAccident},
		{Type: models.EventOrderDelivered, Step: 13, OrderID: 1, CourierID: 1, CourierName: "Ann Biker", Price: 10, Earnings: 4, DeliveryTime: 12},
	}
}

func replay(listeners ...models.Listener) {
	var s models.Subject
	for _, l := range listeners {
		s.Attach(l)
	}
	for _, e := range lifecycle() {
		s.Notify(e)
	}
}

func TestOrderTracker(t *testing.T) {
	tracker := stats.NewOrderTracker()

	replay(tracker)

	assert.Equal(t, 3, tracker.Total)
	assert.Equal(t, 1, tracker.Delivered)
	assert.Equal(t, 1, tracker.Cancelled)
	assert.Equal(t, 1, tracker.Pending)
	assert.Equal(t, 0, tracker.Active())
	assert.Equal(t, 2, tracker.PerRestaurant["Taco Town"])
	assert.InDelta(t, 12.0, tracker.AverageDeliveryTime(), 1e-9)
	assert.InDelta(t, 100.0/3, tracker.CompletionRate(), 1e-9)
}

func TestRevenueTracker(t *testing.T) {
	tracker := stats.NewRevenueTracker()

	replay(tracker)

	assert.InDelta(t, 10.0, tracker.TotalRevenue, 1e-9)
	assert.InDelta(t, 4.0, tracker.CourierEarnings["Ann Biker"], 1e-9)
	assert.InDelta(t, 4.0, tracker.TotalCourierEarnings(), 1e-9)
	assert.InDelta(t, 20.0, tracker.AveragePrice(), 1e-9)
	assert.InDelta(t, 5.0/3, tracker.AverageSurge(), 1e-9)
	assert.InDelta(t, 2.5, tracker.MaxSurge(), 1e-9)
	assert.InDelta(t, 50.0, tracker.QuotedPerWeather[models.WeatherRain], 1e-9)
}

func TestRevenueTracker_ShouldNotBookQuotesAsRevenue(t *testing.T) {
	tracker := stats.NewRevenueTracker()

	tracker.OnEvent(models.Event{Type: models.EventOrderCreated, Price: 30, SurgeMultiplier: 1, Weather: models.WeatherSnow})

	assert.Zero(t, tracker.TotalRevenue)
	assert.InDelta(t, 30.0, tracker.QuotedPerWeather[models.WeatherSnow], 1e-9)
}

func TestRevenueTracker_WhenEmpty_ShouldReportNeutralSurge(t *testing.T) {
	tracker := stats.NewRevenueTracker()

	assert.Zero(t, tracker.AveragePrice())
	assert.InDelta(t, 1.0, tracker.AverageSurge(), 1e-12)
	assert.InDelta(t, 1.0, tracker.MaxSurge(), 1e-12)
}

func TestAccidentTracker(t *testing.T) {
	tracker := stats.NewAccidentTracker()

	replay(tracker)

	assert.Equal(t, 1, tracker.Total)
	assert.Equal(t, 1, tracker.PerWeather[models.WeatherRain])
	assert.Equal(t, 1, tracker.PerCourier[2])
}

func TestEventLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	replay(stats.NewEventLogger(logger))

	out := buf.String()
	assert.Contains(t, out, `msg="order created"`)
	assert.Contains(t, out, `msg="order picked up"`)
	assert.Contains(t, out, `msg="courier accident"`)
	assert.Contains(t, out, "reason=courier_accident")
	assert.Contains(t, out, "component=events")
}
