package pricing

import (
	"math"

	"github.com/chrisdamba/deliverysim/internal/weather"
)

// Context carries everything a price component may depend on.
type Context struct {
	Distance          float64
	AvailableCouriers int
	ActiveOrders      int
	Weather           weather.Condition
}

// Strategy is one additive price component. Calculate must be a pure
// function of the context.
type Strategy interface {
	Name() string
	Calculate(ctx Context) float64
}

// BaseStrategy charges a flat fee plus a per-distance rate.
type BaseStrategy struct {
	FlatFee         float64
	PerDistanceRate float64
}

func (b BaseStrategy) Name() string { return "base" }

func (b BaseStrategy) Calculate(ctx Context) float64 {
	return b.FlatFee + ctx.Distance*b.PerDistanceRate
}

// SurgeStrategy prices the demand/supply imbalance. Floor stands in for the
// courier count when none are available, so the ratio stays finite.
type SurgeStrategy struct {
	Base     BaseStrategy
	Exponent float64
	Cap      float64
	Floor    float64
}

func (s SurgeStrategy) Name() string { return "surge" }

func (s SurgeStrategy) Calculate(ctx Context) float64 {
	return (s.Multiplier(ctx) - 1) * s.Base.Calculate(ctx)
}

// Ratio is active orders over available couriers, with the floor applied.
func (s SurgeStrategy) Ratio(ctx Context) float64 {
	supply := math.Max(float64(ctx.AvailableCouriers), s.Floor)
	return float64(ctx.ActiveOrders) / supply
}

// Multiplier is ratio^exponent clamped to [1, Cap].
func (s SurgeStrategy) Multiplier(ctx Context) float64 {
	surge := math.Max(1, math.Pow(s.Ratio(ctx), s.Exponent))
	return math.Min(surge, s.Cap)
}

// WeatherStrategy surcharges the distance component in bad weather.
type WeatherStrategy struct {
	PerDistanceRate float64
}

func (w WeatherStrategy) Name() string { return "weather" }

func (w WeatherStrategy) Calculate(ctx Context) float64 {
	multiplier := ctx.Weather.PriceMultiplier
	if multiplier <= 1 {
		return 0
	}
	return (multiplier - 1) * ctx.Distance * w.PerDistanceRate
}
