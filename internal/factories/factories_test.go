package factories_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/deliverysim/internal/courier"
	"github.com/chrisdamba/deliverysim/internal/factories"
	"github.com/chrisdamba/deliverysim/internal/models"
)

func inside(t *testing.T, cfg *models.Config, loc models.Location, margin float64) {
	t.Helper()
	assert.GreaterOrEqual(t, loc.X, margin)
	assert.LessOrEqual(t, loc.X, cfg.MapWidth-margin)
	assert.GreaterOrEqual(t, loc.Y, margin)
	assert.LessOrEqual(t, loc.Y, cfg.MapHeight-margin)
}

func TestRestaurantFactory_CreateBatch(t *testing.T) {
	cfg := models.DefaultConfig()
	f := factories.NewRestaurantFactory(cfg, rand.New(rand.NewSource(1)))

	restaurants := f.CreateBatch(50)

	require.Len(t, restaurants, 50)
	names := make(map[string]bool)
	for i, r := range restaurants {
		assert.Equal(t, i+1, r.ID)
		assert.NotEmpty(t, r.Name)
		assert.False(t, names[r.Name], "duplicate name %s", r.Name)
		names[r.Name] = true
		inside(t, cfg, r.Location, cfg.RestaurantMargin)
	}
}

func TestCustomerFactory_CreateCustomer(t *testing.T) {
	cfg := models.DefaultConfig()
	f := factories.NewCustomerFactory(cfg, rand.New(rand.NewSource(1)))

	first := f.CreateCustomer()
	second := f.CreateCustomer()

	assert.Equal(t, 1, first.ID)
	assert.Equal(t, 2, second.ID)
	assert.NotEmpty(t, first.Name)
	inside(t, cfg, first.Location, cfg.CustomerMargin)
}

func TestCourierFactory(t *testing.T) {
	t.Run("should follow the configured type shares", func(t *testing.T) {
		cfg := models.DefaultConfig()
		f := factories.NewCourierFactory(cfg, rand.New(rand.NewSource(3)))

		couriers, err := f.CreateBatch(2000)

		require.NoError(t, err)
		drones := 0
		for _, c := range couriers {
			assert.Equal(t, courier.Idle, c.State())
			inside(t, cfg, c.Location, cfg.CourierMargin)
			if c.Type == models.CourierTypeDrone {
				drones++
			}
		}
		assert.InDelta(t, 0.5, float64(drones)/2000, 0.05)
	})

	t.Run("should give each type its speed and routing", func(t *testing.T) {
		cfg := models.DefaultConfig()
		f := factories.NewCourierFactory(cfg, rand.New(rand.NewSource(3)))

		drone, err := f.CreateCourierOfType(cfg.CourierTypes[0])
		require.NoError(t, err)
		biker, err := f.CreateCourierOfType(cfg.CourierTypes[1])
		require.NoError(t, err)

		assert.Equal(t, models.RoutingDirect, drone.Routing.Name())
		assert.InDelta(t, 15.0, drone.BaseSpeed, 1e-12)
		assert.Contains(t, drone.Name, "Drone")
		assert.Equal(t, models.RoutingGrid, biker.Routing.Name())
		assert.InDelta(t, 8.0, biker.BaseSpeed, 1e-12)
		assert.Equal(t, 2, biker.ID)
	})

	t.Run("should reject unknown routing", func(t *testing.T) {
		cfg := models.DefaultConfig()
		f := factories.NewCourierFactory(cfg, rand.New(rand.NewSource(3)))

		_, err := f.CreateCourierOfType(models.CourierTypeConfig{Name: "kite", Routing: "wind"})

		assert.Error(t, err)
	})

	t.Run("should be deterministic for a seed", func(t *testing.T) {
		cfg := models.DefaultConfig()
		a, err := factories.NewCourierFactory(cfg, rand.New(rand.NewSource(9))).CreateBatch(5)
		require.NoError(t, err)
		b, err := factories.NewCourierFactory(cfg, rand.New(rand.NewSource(9))).CreateBatch(5)
		require.NoError(t, err)

		for i := range a {
			assert.Equal(t, a[i].Name, b[i].Name)
			assert.Equal(t, a[i].Location, b[i].Location)
		}
	})
}
