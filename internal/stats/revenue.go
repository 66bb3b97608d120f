package stats

import "github.com/chrisdamba/deliverysim/internal/models"

// RevenueTracker books the full price of every delivered order. Quotes are
// sampled at creation and never count as revenue.
type RevenueTracker struct {
	TotalRevenue     float64
	CourierEarnings  map[string]float64
	QuotedPerWeather map[string]float64

	prices []float64
	surges []float64
}

func NewRevenueTracker() *RevenueTracker {
	return &RevenueTracker{
		CourierEarnings:  make(map[string]float64),
		QuotedPerWeather: make(map[string]float64),
	}
}

func (t *RevenueTracker) OnEvent(e models.Event) {
	switch e.Type {
	case models.EventOrderCreated:
		t.prices = append(t.prices, e.Price)
		t.surges = append(t.surges, e.SurgeMultiplier)
		t.QuotedPerWeather[e.Weather] += e.Price
	case models.EventOrderDelivered:
		t.TotalRevenue += e.Price
		t.CourierEarnings[e.CourierName] += e.Earnings
	}
}

func (t *RevenueTracker) AveragePrice() float64 {
	return mean(t.prices, 0)
}

func (t *RevenueTracker) AverageSurge() float64 {
	return mean(t.surges, 1)
}

func (t *RevenueTracker) MaxSurge() float64 {
	highest := 1.0
	for _, s := range t.surges {
		if s > highest {
			highest = s
		}
	}
	return highest
}

func (t *RevenueTracker) TotalCourierEarnings() float64 {
	var total float64
	for _, e := range t.CourierEarnings {
		total += e
	}
	return total
}

func mean(values []float64, empty float64) float64 {
	if len(values) == 0 {
		return empty
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
