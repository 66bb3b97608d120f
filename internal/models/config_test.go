package models_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/deliverysim/internal/models"
)

func TestDefaultConfig_ShouldBeValid(t *testing.T) {
	cfg := models.DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Weather, len(models.WeatherRegimes))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *models.Config)
	}{
		{name: "zero map width", modify: func(c *models.Config) { c.MapWidth = 0 }},
		{name: "no restaurants", modify: func(c *models.Config) { c.NumRestaurants = 0 }},
		{name: "spawn probability above one", modify: func(c *models.Config) { c.SpawnProbability = 1.5 }},
		{name: "inverted prep range", modify: func(c *models.Config) { c.PrepTimeMin, c.PrepTimeMax = 30, 10 }},
		{name: "inverted weather interval", modify: func(c *models.Config) { c.WeatherChangeMin, c.WeatherChangeMax = 300, 100 }},
		{name: "zero recovery", modify: func(c *models.Config) { c.AccidentRecoverySteps = 0 }},
		{name: "linear surge", modify: func(c *models.Config) { c.SurgeExponent = 1 }},
		{name: "surge cap below one", modify: func(c *models.Config) { c.SurgeCap = 0.5 }},
		{name: "zero surge floor", modify: func(c *models.Config) { c.SurgeFloor = 0 }},
		{name: "zero steps", modify: func(c *models.Config) { c.Steps = 0 }},
		{name: "missing regime", modify: func(c *models.Config) { delete(c.Weather, models.WeatherIce) }},
		{name: "unknown initial weather", modify: func(c *models.Config) { c.InitialWeather = "hail" }},
		{name: "probabilities not summing to one", modify: func(c *models.Config) {
			rain := c.Weather[models.WeatherRain]
			rain.Probability = 0.5
			c.Weather[models.WeatherRain] = rain
		}},
		{name: "unknown routing", modify: func(c *models.Config) { c.CourierTypes[0].Routing = "teleport" }},
		{name: "duplicate courier type", modify: func(c *models.Config) { c.CourierTypes[1].Name = c.CourierTypes[0].Name }},
		{name: "shares not summing to one", modify: func(c *models.Config) { c.CourierTypes[0].Share = 0.9 }},
		{name: "grounded in unknown regime", modify: func(c *models.Config) { c.CourierTypes[0].GroundedIn = []string{"fog"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()

			require.ErrorIs(t, err, models.ErrInvalidConfig)
		})
	}

	t.Run("should allow zero steps when continuous", func(t *testing.T) {
		cfg := models.DefaultConfig()
		cfg.Steps = 0
		cfg.Continuous = true

		assert.NoError(t, cfg.Validate())
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("should fall back to defaults without a file", func(t *testing.T) {
		cfg, err := models.LoadConfig(viper.New(), "")

		require.NoError(t, err)
		assert.Equal(t, models.DefaultConfig().NumCouriers, cfg.NumCouriers)
		assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), cfg.StartDate.UTC())
	})

	t.Run("should overlay file values and keep untouched regime fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := []byte(`
seed: 42
num_couriers: 4
initial_weather: snow
weather:
  ice:
    accident_probability: 0.02
`)
		require.NoError(t, os.WriteFile(path, content, 0o600))

		cfg, err := models.LoadConfig(viper.New(), path)

		require.NoError(t, err)
		assert.Equal(t, int64(42), cfg.Seed)
		assert.Equal(t, 4, cfg.NumCouriers)
		assert.Equal(t, models.WeatherSnow, cfg.InitialWeather)
		assert.InDelta(t, 0.02, cfg.Weather[models.WeatherIce].AccidentProbability, 1e-12)
		assert.InDelta(t, 0.4, cfg.Weather[models.WeatherIce].SpeedMultiplier, 1e-12)
	})

	t.Run("should read environment overrides", func(t *testing.T) {
		t.Setenv("DELIVERYSIM_NUM_RESTAURANTS", "9")

		cfg, err := models.LoadConfig(viper.New(), "")

		require.NoError(t, err)
		assert.Equal(t, 9, cfg.NumRestaurants)
	})

	t.Run("should reject an invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("spawn_probability: 2\n"), 0o600))

		_, err := models.LoadConfig(viper.New(), path)

		require.ErrorIs(t, err, models.ErrInvalidConfig)
	})
}
