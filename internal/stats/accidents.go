package stats

import "github.com/chrisdamba/deliverysim/internal/models"

type AccidentTracker struct {
	Total      int
	PerWeather map[string]int
	PerCourier map[int]int
}

func NewAccidentTracker() *AccidentTracker {
	return &AccidentTracker{
		PerWeather: make(map[string]int),
		PerCourier: make(map[int]int),
	}
}

func (t *AccidentTracker) OnEvent(e models.Event) {
	if e.Type != models.EventAccident {
		return
	}
	t.Total++
	t.PerWeather[e.Weather]++
	t.PerCourier[e.CourierID]++
}
