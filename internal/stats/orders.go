package stats

import "github.com/chrisdamba/deliverysim/internal/models"

// OrderTracker follows the order lifecycle through events.
type OrderTracker struct {
	Total     int
	Delivered int
	Cancelled int
	Pending   int
	PickedUp  int

	PerRestaurant map[string]int

	active        map[int]string
	deliveryTimes []int
}

func NewOrderTracker() *OrderTracker {
	return &OrderTracker{
		PerRestaurant: make(map[string]int),
		active:        make(map[int]string),
	}
}

func (t *OrderTracker) OnEvent(e models.Event) {
	switch e.Type {
	case models.EventOrderCreated:
		t.Total++
		t.Pending++
		t.active[e.OrderID] = models.OrderStatusPending
		t.PerRestaurant[e.RestaurantName]++
	case models.EventOrderAssigned:
		if t.active[e.OrderID] == models.OrderStatusPending {
			t.Pending--
			t.active[e.OrderID] = models.OrderStatusAssigned
		}
	case models.EventOrderPickedUp:
		t.PickedUp++
		if _, ok := t.active[e.OrderID]; ok {
			t.active[e.OrderID] = models.OrderStatusPickedUp
		}
	case models.EventOrderDelivered:
		t.Delivered++
		t.deliveryTimes = append(t.deliveryTimes, e.DeliveryTime)
		delete(t.active, e.OrderID)
	case models.EventOrderCancelled:
		t.Cancelled++
		if t.active[e.OrderID] == models.OrderStatusPending {
			t.Pending--
		}
		delete(t.active, e.OrderID)
	}
}

// Active counts orders that are assigned or picked up.
func (t *OrderTracker) Active() int {
	return len(t.active) - t.Pending
}

// AverageDeliveryTime is measured in steps.
func (t *OrderTracker) AverageDeliveryTime() float64 {
	if len(t.deliveryTimes) == 0 {
		return 0
	}
	var sum int
	for _, d := range t.deliveryTimes {
		sum += d
	}
	return float64(sum) / float64(len(t.deliveryTimes))
}

func (t *OrderTracker) CompletionRate() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Delivered) / float64(t.Total) * 100
}
