package dispatch

import (
	"fmt"

	"github.com/chrisdamba/deliverysim/internal/courier"
	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/chrisdamba/deliverysim/internal/weather"
)

// Policy decides which courier types may fly or ride in a regime.
type Policy struct {
	grounded map[string]map[weather.Regime]bool
}

func NewPolicy(types []models.CourierTypeConfig) (*Policy, error) {
	p := &Policy{grounded: make(map[string]map[weather.Regime]bool)}
	for _, ct := range types {
		for _, name := range ct.GroundedIn {
			r, err := weather.ParseRegime(name)
			if err != nil {
				return nil, fmt.Errorf("courier type %s: %w", ct.Name, err)
			}
			p.Ground(ct.Name, r)
		}
	}
	return p, nil
}

// Ground marks courierType as unable to work in r.
func (p *Policy) Ground(courierType string, r weather.Regime) {
	if p.grounded[courierType] == nil {
		p.grounded[courierType] = make(map[weather.Regime]bool)
	}
	p.grounded[courierType][r] = true
}

func (p *Policy) Eligible(c *courier.Courier, r weather.Regime) bool {
	return !p.grounded[c.Type][r]
}
