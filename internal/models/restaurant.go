package models

// Restaurant is fixed for the lifetime of a run.
type Restaurant struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Location        Location `json:"location"`
	TotalOrders     int      `json:"total_orders"`
	CompletedOrders int      `json:"completed_orders"`
}

func (r *Restaurant) RegisterOrder() {
	r.TotalOrders++
}

func (r *Restaurant) CompleteOrder() {
	r.CompletedOrders++
}

// CompletionRate is the percentage of registered orders that were delivered.
func (r *Restaurant) CompletionRate() float64 {
	if r.TotalOrders == 0 {
		return 0
	}
	return float64(r.CompletedOrders) / float64(r.TotalOrders) * 100
}

// Customer lives in a reusable pool that grows as new customers order.
type Customer struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Location        Location `json:"location"`
	TotalOrders     int      `json:"total_orders"`
	CompletedOrders int      `json:"completed_orders"`
}

func (c *Customer) RegisterOrder() {
	c.TotalOrders++
}

func (c *Customer) CompleteOrder() {
	c.CompletedOrders++
}
