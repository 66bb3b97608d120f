package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOrderNotAssigned  = errors.New("order has no assigned courier")
	ErrInvalidCourierID  = errors.New("courier ids start at 1")
)

// Order references its restaurant and customer; it never owns them. Orders
// are retained after they terminate so statistics can be derived from them.
type Order struct {
	ID              int         `json:"id"`
	Restaurant      *Restaurant `json:"-"`
	Customer        *Customer   `json:"-"`
	Price           float64     `json:"price"`
	Distance        float64     `json:"distance"`
	Weather         string      `json:"weather"`
	SurgeMultiplier float64     `json:"surge_multiplier"`
	Status          string      `json:"status"`
	CourierID       int         `json:"courier_id,omitempty"`
	CancelReason    string      `json:"cancel_reason,omitempty"`

	// steps at which each transition happened, 0 when it has not
	CreatedStep   int `json:"created_step"`
	AssignedStep  int `json:"assigned_step,omitempty"`
	PickedUpStep  int `json:"picked_up_step,omitempty"`
	DeliveredStep int `json:"delivered_step,omitempty"`
	CancelledStep int `json:"cancelled_step,omitempty"`
}

// NewOrder creates a pending order and registers it with the restaurant
// and the customer.
func NewOrder(id int, restaurant *Restaurant, customer *Customer, price, distance float64, weather string, surge float64, step int) *Order {
	restaurant.RegisterOrder()
	customer.RegisterOrder()
	return &Order{
		ID:              id,
		Restaurant:      restaurant,
		Customer:        customer,
		Price:           price,
		Distance:        distance,
		Weather:         weather,
		SurgeMultiplier: surge,
		Status:          OrderStatusPending,
		CreatedStep:     step,
	}
}

func (o *Order) PickupLocation() Location {
	return o.Restaurant.Location
}

func (o *Order) DeliveryLocation() Location {
	return o.Customer.Location
}

// Assign hands the order to a courier. Zero is the unassigned marker, so
// only positive ids are accepted.
func (o *Order) Assign(courierID, step int) error {
	if courierID <= 0 {
		return fmt.Errorf("%w: order %d cannot go to courier %d", ErrInvalidCourierID, o.ID, courierID)
	}
	if o.Status != OrderStatusPending {
		return fmt.Errorf("%w: order %d is %s, cannot assign", ErrInvalidTransition, o.ID, o.Status)
	}
	o.Status = OrderStatusAssigned
	o.CourierID = courierID
	o.AssignedStep = step
	return nil
}

func (o *Order) MarkPickedUp(step int) error {
	if o.CourierID == 0 {
		return fmt.Errorf("%w: order %d cannot be picked up", ErrOrderNotAssigned, o.ID)
	}
	if o.Status != OrderStatusAssigned {
		return fmt.Errorf("%w: order %d is %s, cannot pick up", ErrInvalidTransition, o.ID, o.Status)
	}
	o.Status = OrderStatusPickedUp
	o.PickedUpStep = step
	return nil
}

func (o *Order) MarkDelivered(step int) error {
	if o.CourierID == 0 {
		return fmt.Errorf("%w: order %d cannot be delivered", ErrOrderNotAssigned, o.ID)
	}
	if o.Status != OrderStatusPickedUp {
		return fmt.Errorf("%w: order %d is %s, cannot deliver", ErrInvalidTransition, o.ID, o.Status)
	}
	o.Status = OrderStatusDelivered
	o.DeliveredStep = step
	o.Restaurant.CompleteOrder()
	o.Customer.CompleteOrder()
	return nil
}

// Cancel is allowed from any non-terminal status.
func (o *Order) Cancel(step int, reason string) error {
	if o.IsTerminal() {
		return fmt.Errorf("%w: order %d is already %s", ErrInvalidTransition, o.ID, o.Status)
	}
	o.Status = OrderStatusCancelled
	o.CancelledStep = step
	o.CancelReason = reason
	return nil
}

func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}

// DeliveryDuration is the number of steps between creation and delivery.
func (o *Order) DeliveryDuration() int {
	if o.Status != OrderStatusDelivered {
		return 0
	}
	return o.DeliveredStep - o.CreatedStep
}

func (o *Order) String() string {
	return fmt.Sprintf("Order #%d [%s] $%.2f surge=%.2fx", o.ID, o.Status, o.Price, o.SurgeMultiplier)
}
