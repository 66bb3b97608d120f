package models

import "time"

// CourierSnapshot is a read-only copy of a courier taken between steps.
type CourierSnapshot struct {
	ID                int      `json:"id"`
	Name              string   `json:"name"`
	Type              string   `json:"type"`
	State             string   `json:"state"`
	Location          Location `json:"location"`
	OrderID           int      `json:"order_id,omitempty"`
	Deliveries        int      `json:"deliveries"`
	Earnings          float64  `json:"earnings"`
	DistanceTravelled float64  `json:"distance_travelled"`
	Accidents         int      `json:"accidents"`
	IdleTime          int      `json:"idle_time"`
	ActiveTime        int      `json:"active_time"`
	AccidentTime      int      `json:"accident_time"`
	UtilizationRate   float64  `json:"utilization_rate"`
}

// RunSummary aggregates one finished simulation run.
type RunSummary struct {
	RunID               string         `json:"run_id"`
	Seed                int64          `json:"seed"`
	Steps               int            `json:"steps"`
	StartedAt           time.Time      `json:"started_at"`
	FinishedAt          time.Time      `json:"finished_at"`
	TotalOrders         int            `json:"total_orders"`
	DeliveredOrders     int            `json:"delivered_orders"`
	CancelledOrders     int            `json:"cancelled_orders"`
	AverageDeliveryTime float64        `json:"average_delivery_time"`
	TotalRevenue        float64        `json:"total_revenue"`
	AveragePrice        float64        `json:"average_price"`
	AverageSurge        float64        `json:"average_surge"`
	MaxSurge            float64        `json:"max_surge"`
	CourierEarnings     float64        `json:"courier_earnings"`
	Accidents           int            `json:"accidents"`
	WeatherChanges      int            `json:"weather_changes"`
	FinalWeather        string         `json:"final_weather"`
	AccidentsPerWeather map[string]int `json:"accidents_per_weather"`
}

// CompletionRate is the share of orders delivered, as a percentage.
func (r RunSummary) CompletionRate() float64 {
	if r.TotalOrders == 0 {
		return 0
	}
	return float64(r.DeliveredOrders) / float64(r.TotalOrders) * 100
}
