package pricing

import "github.com/chrisdamba/deliverysim/internal/models"

// Quote is the outcome of pricing one order.
type Quote struct {
	Total           float64
	SurgeMultiplier float64
	Components      map[string]float64
}

// Engine sums its strategies. The surge multiplier is reported from its own
// surge calculator, so removing the surge component does not hide demand
// pressure from statistics.
type Engine struct {
	strategies []Strategy
	surge      SurgeStrategy
}

func NewEngine(surge SurgeStrategy, strategies ...Strategy) *Engine {
	return &Engine{strategies: strategies, surge: surge}
}

// NewEngineFromConfig wires the base, surge and weather components.
func NewEngineFromConfig(cfg *models.Config) *Engine {
	base := BaseStrategy{FlatFee: cfg.BaseFee, PerDistanceRate: cfg.PerDistanceRate}
	surge := SurgeStrategy{
		Base:     base,
		Exponent: cfg.SurgeExponent,
		Cap:      cfg.SurgeCap,
		Floor:    cfg.SurgeFloor,
	}
	return NewEngine(surge, base, surge, WeatherStrategy{PerDistanceRate: cfg.PerDistanceRate})
}

// AddStrategy appends s unless a strategy with the same name is present.
func (e *Engine) AddStrategy(s Strategy) bool {
	for _, existing := range e.strategies {
		if existing.Name() == s.Name() {
			return false
		}
	}
	e.strategies = append(e.strategies, s)
	return true
}

func (e *Engine) RemoveStrategy(name string) bool {
	for i, existing := range e.strategies {
		if existing.Name() == name {
			e.strategies = append(e.strategies[:i], e.strategies[i+1:]...)
			return true
		}
	}
	return false
}

func (e *Engine) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

func (e *Engine) Quote(ctx Context) Quote {
	q := Quote{
		SurgeMultiplier: e.surge.Multiplier(ctx),
		Components:      make(map[string]float64, len(e.strategies)),
	}
	for _, s := range e.strategies {
		component := s.Calculate(ctx)
		q.Components[s.Name()] = component
		q.Total += component
	}
	return q
}
