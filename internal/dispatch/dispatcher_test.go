package dispatch_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/deliverysim/internal/courier"
	"github.com/chrisdamba/deliverysim/internal/dispatch"
	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/chrisdamba/deliverysim/internal/routing"
	"github.com/chrisdamba/deliverysim/internal/weather"
)

var (
	sunny = weather.Condition{Regime: weather.Clear, SpeedMultiplier: 1, PriceMultiplier: 1}
	rainy = weather.Condition{Regime: weather.Rain, SpeedMultiplier: 0.8, PriceMultiplier: 1.3}
)

var params = courier.Params{ArrivalThreshold: 5, RecoverySteps: 5, PrepTimeMin: 1, PrepTimeMax: 1, EarningsShare: 0.4}

func newDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	policy, err := dispatch.NewPolicy(models.DefaultConfig().CourierTypes)
	require.NoError(t, err)
	return dispatch.NewDispatcher(policy, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newCourier(id int, courierType string, x, y float64) *courier.Courier {
	return courier.New(id, "Courier", courierType, 10, models.NewLocation(x, y), routing.Direct{}, params)
}

func newOrder(id int, x, y float64) *models.Order {
	r := &models.Restaurant{ID: id, Location: models.NewLocation(x, y)}
	c := &models.Customer{ID: id, Location: models.NewLocation(x+50, y)}
	return models.NewOrder(id, r, c, 10, 50, models.WeatherClear, 1, 1)
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Run("should give each order the nearest free courier", func(t *testing.T) {
		// Arrange
		d := newDispatcher(t)
		far := newCourier(1, models.CourierTypeBiker, 500, 500)
		near := newCourier(2, models.CourierTypeBiker, 110, 100)
		order := newOrder(1, 100, 100)

		// Act
		assignments, err := d.Dispatch([]*models.Order{order}, []*courier.Courier{far, near}, sunny, 3)

		// Assert
		require.NoError(t, err)
		require.Len(t, assignments, 1)
		assert.Same(t, near, assignments[0].Courier)
		assert.InDelta(t, 10.0, assignments[0].Distance, 1e-9)
		assert.Equal(t, models.OrderStatusAssigned, order.Status)
		assert.Equal(t, 3, order.AssignedStep)
		assert.Equal(t, courier.EnRouteToRestaurant, near.State())
		assert.True(t, far.Available())
	})

	t.Run("should serve orders first come first served", func(t *testing.T) {
		d := newDispatcher(t)
		c := newCourier(1, models.CourierTypeBiker, 0, 0)
		first := newOrder(1, 300, 300)
		second := newOrder(2, 1, 1)

		assignments, err := d.Dispatch([]*models.Order{first, second}, []*courier.Courier{c}, sunny, 1)

		require.NoError(t, err)
		require.Len(t, assignments, 1)
		assert.Same(t, first, assignments[0].Order)
		assert.Equal(t, models.OrderStatusPending, second.Status)
	})

	t.Run("should never double book", func(t *testing.T) {
		d := newDispatcher(t)
		var couriers []*courier.Courier
		for i := 1; i <= 3; i++ {
			couriers = append(couriers, newCourier(i, models.CourierTypeBiker, float64(i*10), 0))
		}
		var orders []*models.Order
		for i := 1; i <= 5; i++ {
			orders = append(orders, newOrder(i, 15, 0))
		}

		assignments, err := d.Dispatch(orders, couriers, sunny, 1)

		require.NoError(t, err)
		assert.Len(t, assignments, 3)
		seenOrders := make(map[int]bool)
		seenCouriers := make(map[int]bool)
		for _, a := range assignments {
			assert.False(t, seenOrders[a.Order.ID])
			assert.False(t, seenCouriers[a.Courier.ID])
			seenOrders[a.Order.ID] = true
			seenCouriers[a.Courier.ID] = true
		}
	})

	t.Run("should break distance ties by list order", func(t *testing.T) {
		d := newDispatcher(t)
		a := newCourier(1, models.CourierTypeBiker, 90, 100)
		b := newCourier(2, models.CourierTypeBiker, 110, 100)

		assignments := d.Match([]*models.Order{newOrder(1, 100, 100)}, []*courier.Courier{a, b}, sunny)

		require.Len(t, assignments, 1)
		assert.Same(t, a, assignments[0].Courier)
	})

	t.Run("should ground drones in rain", func(t *testing.T) {
		d := newDispatcher(t)
		drone := newCourier(1, models.CourierTypeDrone, 100, 100)
		biker := newCourier(2, models.CourierTypeBiker, 400, 400)
		order := newOrder(1, 100, 100)

		assignments, err := d.Dispatch([]*models.Order{order}, []*courier.Courier{drone, biker}, rainy, 1)

		require.NoError(t, err)
		require.Len(t, assignments, 1)
		assert.Same(t, biker, assignments[0].Courier)
		assert.True(t, drone.Available())
	})

	t.Run("should leave orders pending when nobody is eligible", func(t *testing.T) {
		d := newDispatcher(t)
		drone := newCourier(1, models.CourierTypeDrone, 100, 100)
		order := newOrder(1, 100, 100)

		assignments, err := d.Dispatch([]*models.Order{order}, []*courier.Courier{drone}, rainy, 1)

		require.NoError(t, err)
		assert.Empty(t, assignments)
		assert.Equal(t, models.OrderStatusPending, order.Status)
	})

	t.Run("should skip busy couriers and non-pending orders", func(t *testing.T) {
		d := newDispatcher(t)
		busy := newCourier(1, models.CourierTypeBiker, 100, 100)
		require.NoError(t, busy.Assign(newOrder(9, 0, 0), 1))
		free := newCourier(2, models.CourierTypeBiker, 300, 300)
		cancelled := newOrder(1, 100, 100)
		require.NoError(t, cancelled.Cancel(1, "test"))
		pending := newOrder(2, 100, 100)

		assignments, err := d.Dispatch([]*models.Order{cancelled, pending}, []*courier.Courier{busy, free}, sunny, 2)

		require.NoError(t, err)
		require.Len(t, assignments, 1)
		assert.Same(t, pending, assignments[0].Order)
		assert.Same(t, free, assignments[0].Courier)
	})
}

func TestPolicy_Eligible(t *testing.T) {
	policy, err := dispatch.NewPolicy(models.DefaultConfig().CourierTypes)
	require.NoError(t, err)
	drone := newCourier(1, models.CourierTypeDrone, 0, 0)
	biker := newCourier(2, models.CourierTypeBiker, 0, 0)

	tests := []struct {
		regime  weather.Regime
		droneOK bool
		bikerOK bool
	}{
		{regime: weather.Clear, droneOK: true, bikerOK: true},
		{regime: weather.Rain, droneOK: false, bikerOK: true},
		{regime: weather.Snow, droneOK: false, bikerOK: true},
		{regime: weather.Frost, droneOK: true, bikerOK: true},
		{regime: weather.Ice, droneOK: true, bikerOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.regime.Name(), func(t *testing.T) {
			assert.Equal(t, tt.droneOK, policy.Eligible(drone, tt.regime))
			assert.Equal(t, tt.bikerOK, policy.Eligible(biker, tt.regime))
		})
	}

	t.Run("should reject unknown regimes", func(t *testing.T) {
		_, err := dispatch.NewPolicy([]models.CourierTypeConfig{{Name: "kite", GroundedIn: []string{"fog"}}})
		assert.ErrorIs(t, err, weather.ErrUnknownRegime)
	})
}
