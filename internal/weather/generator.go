package weather

import (
	"fmt"
	"math/rand"

	"github.com/chrisdamba/deliverysim/internal/models"
)

// Change records one regime switch.
type Change struct {
	Step int
	From Regime
	To   Regime
}

type Stats struct {
	Current Regime
	Changes int
	Counts  map[Regime]int
}

// Generator switches regimes at randomized intervals. Listeners attached to
// it are notified only when the regime actually changes.
type Generator struct {
	models.Subject

	conditions  []Condition
	current     Regime
	rng         *rand.Rand
	minInterval int
	maxInterval int
	countdown   int
	step        int
	history     []Change
}

func NewGenerator(cfg *models.Config, rng *rand.Rand) (*Generator, error) {
	conditions, err := Conditions(cfg.Weather)
	if err != nil {
		return nil, err
	}
	if cfg.WeatherChangeMin < 1 || cfg.WeatherChangeMin > cfg.WeatherChangeMax {
		return nil, fmt.Errorf("invalid weather change interval [%d,%d]", cfg.WeatherChangeMin, cfg.WeatherChangeMax)
	}

	initial := Clear
	if cfg.InitialWeather != "" {
		if initial, err = ParseRegime(cfg.InitialWeather); err != nil {
			return nil, err
		}
	}

	g := &Generator{
		conditions:  conditions,
		current:     initial,
		rng:         rng,
		minInterval: cfg.WeatherChangeMin,
		maxInterval: cfg.WeatherChangeMax,
	}
	g.countdown = g.nextInterval()
	return g, nil
}

// Update advances the countdown by one step and draws a new regime when it
// runs out. Drawing the current regime only resets the countdown.
func (g *Generator) Update(step int) {
	g.step = step
	g.countdown--
	if g.countdown > 0 {
		return
	}
	g.countdown = g.nextInterval()
	if next := g.draw(); next != g.current {
		g.switchTo(next)
	}
}

func (g *Generator) Current() Condition {
	return g.conditions[g.current]
}

// Condition returns the configured multipliers of any regime.
func (g *Generator) Condition(r Regime) Condition {
	return g.conditions[r]
}

// Force sets the regime by name. Unknown names are ignored and false is
// returned; the countdown is left untouched either way.
func (g *Generator) Force(name string) bool {
	r, err := ParseRegime(name)
	if err != nil {
		return false
	}
	g.ForceRegime(r)
	return true
}

func (g *Generator) ForceRegime(r Regime) {
	if r != g.current {
		g.switchTo(r)
	}
}

func (g *Generator) Countdown() int {
	return g.countdown
}

func (g *Generator) History() []Change {
	out := make([]Change, len(g.history))
	copy(out, g.history)
	return out
}

func (g *Generator) Stats() Stats {
	counts := make(map[Regime]int)
	for _, c := range g.history {
		counts[c.To]++
	}
	return Stats{Current: g.current, Changes: len(g.history), Counts: counts}
}

func (g *Generator) switchTo(r Regime) {
	g.history = append(g.history, Change{Step: g.step, From: g.current, To: r})
	g.current = r
	g.Notify(models.Event{
		Type:           models.EventWeatherChange,
		Step:           g.step,
		Weather:        r.Name(),
		WeatherDisplay: r.DisplayName(),
	})
}

func (g *Generator) draw() Regime {
	u := g.rng.Float64()
	var cumulative float64
	for _, c := range g.conditions {
		cumulative += c.Probability
		if u < cumulative {
			return c.Regime
		}
	}
	return All[len(All)-1]
}

func (g *Generator) nextInterval() int {
	return g.minInterval + g.rng.Intn(g.maxInterval-g.minInterval+1)
}
