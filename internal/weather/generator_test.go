package weather_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/chrisdamba/deliverysim/internal/weather"
)

func newGenerator(t *testing.T, modify func(c *models.Config)) *weather.Generator {
	t.Helper()
	cfg := models.DefaultConfig()
	if modify != nil {
		modify(cfg)
	}
	g, err := weather.NewGenerator(cfg, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	return g
}

func TestConditions_ProbabilitiesSumToOne(t *testing.T) {
	conditions, err := weather.Conditions(models.DefaultConfig().Weather)
	require.NoError(t, err)

	var total float64
	for _, c := range conditions {
		total += c.Probability
	}

	assert.InDelta(t, 1.0, total, 1e-9)
	assert.Equal(t, "Black Ice", conditions[weather.Ice].DisplayName())
}

func TestParseRegime(t *testing.T) {
	r, err := weather.ParseRegime("frost")
	require.NoError(t, err)
	assert.Equal(t, weather.Frost, r)

	_, err = weather.ParseRegime("hail")
	assert.ErrorIs(t, err, weather.ErrUnknownRegime)
}

func TestGenerator_Force(t *testing.T) {
	t.Run("should switch regime and notify once", func(t *testing.T) {
		g := newGenerator(t, nil)
		var events []models.Event
		g.Attach(models.ListenerFunc(func(e models.Event) { events = append(events, e) }))

		require.True(t, g.Force(models.WeatherIce))
		require.True(t, g.Force(models.WeatherIce))

		assert.Equal(t, weather.Ice, g.Current().Regime)
		require.Len(t, events, 1)
		assert.Equal(t, models.EventWeatherChange, events[0].Type)
		assert.Equal(t, "Black Ice", events[0].WeatherDisplay)
	})

	t.Run("should silently reject unknown names", func(t *testing.T) {
		g := newGenerator(t, nil)
		countdown := g.Countdown()

		assert.False(t, g.Force("tornado"))

		assert.Equal(t, weather.Clear, g.Current().Regime)
		assert.Equal(t, countdown, g.Countdown())
		assert.Empty(t, g.History())
	})
}

func TestGenerator_Update(t *testing.T) {
	t.Run("should only draw within the configured interval", func(t *testing.T) {
		g := newGenerator(t, func(c *models.Config) {
			c.WeatherChangeMin = 10
			c.WeatherChangeMax = 20
		})
		initial := g.Countdown()
		require.GreaterOrEqual(t, initial, 10)
		require.LessOrEqual(t, initial, 20)

		for step := 1; step < initial; step++ {
			g.Update(step)
		}

		assert.Empty(t, g.History())
		assert.Equal(t, 1, g.Countdown())
	})

	t.Run("should notify only on actual changes", func(t *testing.T) {
		g := newGenerator(t, func(c *models.Config) {
			c.WeatherChangeMin = 1
			c.WeatherChangeMax = 1
		})
		var events []models.Event
		g.Attach(models.ListenerFunc(func(e models.Event) { events = append(events, e) }))

		for step := 1; step <= 500; step++ {
			g.Update(step)
		}

		history := g.History()
		assert.Len(t, events, len(history))
		for i, change := range history {
			assert.NotEqual(t, change.From, change.To)
			assert.Equal(t, change.Step, events[i].Step)
			assert.Equal(t, change.To.Name(), events[i].Weather)
		}
	})

	t.Run("should reach every regime at roughly its probability", func(t *testing.T) {
		g := newGenerator(t, func(c *models.Config) {
			c.WeatherChangeMin = 1
			c.WeatherChangeMax = 1
		})
		seen := make(map[weather.Regime]int)

		const steps = 20000
		for step := 1; step <= steps; step++ {
			g.Update(step)
			seen[g.Current().Regime]++
		}

		for _, r := range weather.All {
			share := float64(seen[r]) / steps
			want := g.Condition(r).Probability
			assert.Greater(t, seen[r], 0, "regime %s never reached", r)
			assert.Less(t, math.Abs(share-want), 0.03, "regime %s share %.3f, want %.3f", r, share, want)
		}
	})
}

func TestNewGenerator_ShouldHonourInitialWeather(t *testing.T) {
	g := newGenerator(t, func(c *models.Config) { c.InitialWeather = models.WeatherSnow })

	assert.Equal(t, weather.Snow, g.Current().Regime)
	assert.InDelta(t, 0.6, g.Current().SpeedMultiplier, 1e-12)
}
