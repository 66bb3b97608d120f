package weather

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/chrisdamba/deliverysim/internal/models"
)

var ErrUnknownRegime = errors.New("unknown weather regime")

// Regime is the closed set of weather variants.
type Regime int

const (
	Clear Regime = iota
	Rain
	Snow
	Frost
	Ice
)

// All lists the regimes in selection order.
var All = []Regime{Clear, Rain, Snow, Frost, Ice}

var regimeNames = map[Regime]string{
	Clear: models.WeatherClear,
	Rain:  models.WeatherRain,
	Snow:  models.WeatherSnow,
	Frost: models.WeatherFrost,
	Ice:   models.WeatherIce,
}

var displayNames = map[Regime]string{
	Clear: "Clear",
	Rain:  "Rain",
	Snow:  "Snow",
	Frost: "Frost",
	Ice:   "Black Ice",
}

var backgrounds = map[Regime]color.RGBA{
	Clear: {R: 240, G: 240, B: 245, A: 255},
	Rain:  {R: 200, G: 210, B: 220, A: 255},
	Snow:  {R: 230, G: 235, B: 240, A: 255},
	Frost: {R: 220, G: 230, B: 245, A: 255},
	Ice:   {R: 180, G: 200, B: 220, A: 255},
}

func (r Regime) Name() string {
	if name, ok := regimeNames[r]; ok {
		return name
	}
	return fmt.Sprintf("regime(%d)", int(r))
}

func (r Regime) DisplayName() string {
	return displayNames[r]
}

// Color is the map background for the regime.
func (r Regime) Color() color.RGBA {
	return backgrounds[r]
}

func (r Regime) String() string {
	return r.Name()
}

func ParseRegime(name string) (Regime, error) {
	for r, n := range regimeNames {
		if n == name {
			return r, nil
		}
	}
	return Clear, fmt.Errorf("%w: %q", ErrUnknownRegime, name)
}

// Condition is the active regime together with its multipliers.
type Condition struct {
	Regime              Regime
	SpeedMultiplier     float64
	AccidentProbability float64
	PriceMultiplier     float64
	Probability         float64
}

func (c Condition) Name() string {
	return c.Regime.Name()
}

func (c Condition) DisplayName() string {
	return c.Regime.DisplayName()
}

// Conditions builds the per-regime table from configuration.
func Conditions(cfg map[string]models.RegimeConfig) ([]Condition, error) {
	conditions := make([]Condition, len(All))
	for _, r := range All {
		rc, ok := cfg[r.Name()]
		if !ok {
			return nil, fmt.Errorf("%w: %q is not configured", ErrUnknownRegime, r.Name())
		}
		conditions[r] = Condition{
			Regime:              r,
			SpeedMultiplier:     rc.SpeedMultiplier,
			AccidentProbability: rc.AccidentProbability,
			PriceMultiplier:     rc.PriceMultiplier,
			Probability:         rc.Probability,
		}
	}
	return conditions, nil
}
