package simulator

import (
	"github.com/chrisdamba/deliverysim/internal/courier"
	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/chrisdamba/deliverysim/internal/pricing"
	"github.com/chrisdamba/deliverysim/internal/routing"
	"github.com/chrisdamba/deliverysim/internal/weather"
)

// order distance is always quoted as the crow flies
var quoteRouting routing.Strategy = routing.Direct{}

func (s *Simulator) maybeSpawnOrder(step int, cond weather.Condition, availableCouriers int) error {
	if s.Rng.Float64() >= s.Config.SpawnProbability {
		return nil
	}
	_, err := s.createOrder(step, cond, availableCouriers)
	return err
}

func (s *Simulator) createOrder(step int, cond weather.Condition, availableCouriers int) (*models.Order, error) {
	activeOrders := len(s.PendingOrders())
	restaurant := s.Restaurants[s.Rng.Intn(len(s.Restaurants))]
	customer := s.pickCustomer()

	distance := quoteRouting.Distance(restaurant.Location, customer.Location)
	quote := s.Pricing.Quote(pricing.Context{
		Distance:          distance,
		AvailableCouriers: availableCouriers,
		ActiveOrders:      activeOrders,
		Weather:           cond,
	})

	s.nextOrderID++
	order := models.NewOrder(s.nextOrderID, restaurant, customer, quote.Total, distance, cond.Name(), quote.SurgeMultiplier, step)
	s.Orders = append(s.Orders, order)

	s.Notify(models.Event{
		Type:            models.EventOrderCreated,
		Step:            step,
		OrderID:         order.ID,
		RestaurantName:  restaurant.Name,
		Price:           order.Price,
		Distance:        distance,
		Weather:         cond.Name(),
		WeatherDisplay:  cond.DisplayName(),
		SurgeMultiplier: order.SurgeMultiplier,
	})
	return order, nil
}

// pickCustomer reuses a known customer with the configured probability and
// otherwise grows the pool.
func (s *Simulator) pickCustomer() *models.Customer {
	if len(s.Customers) > 0 && s.Rng.Float64() < s.Config.CustomerReuseProbability {
		return s.Customers[s.Rng.Intn(len(s.Customers))]
	}
	customer := s.customerFactory.CreateCustomer()
	s.Customers = append(s.Customers, customer)
	return customer
}

func (s *Simulator) dispatch(step int, cond weather.Condition) error {
	assignments, err := s.Dispatcher.Dispatch(s.PendingOrders(), s.AvailableCouriers(), cond, step)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		s.Notify(models.Event{
			Type:        models.EventOrderAssigned,
			Step:        step,
			OrderID:     a.Order.ID,
			CourierID:   a.Courier.ID,
			CourierName: a.Courier.Name,
			CourierType: a.Courier.Type,
			Distance:    a.Distance,
		})
	}
	return nil
}

func (s *Simulator) updateCouriers(step int, cond weather.Condition) error {
	env := courier.Env{Step: step, Weather: cond, Rng: s.Rng}
	for _, c := range s.Couriers {
		out, err := c.Update(env)
		if err != nil {
			return err
		}
		s.publishOutcome(step, cond, c, out)
	}
	return nil
}

func (s *Simulator) publishOutcome(step int, cond weather.Condition, c *courier.Courier, out courier.Outcome) {
	base := models.Event{
		Step:        step,
		CourierID:   c.ID,
		CourierName: c.Name,
		CourierType: c.Type,
	}

	if out.Accident {
		e := base
		e.Type = models.EventAccident
		loc := c.Location
		e.Location = &loc
		e.Weather = cond.Name()
		e.WeatherDisplay = cond.DisplayName()
		s.Notify(e)
	}
	if out.Cancelled != nil {
		e := base
		e.Type = models.EventOrderCancelled
		e.OrderID = out.Cancelled.ID
		e.Reason = out.Cancelled.CancelReason
		s.Notify(e)
	}
	if out.PickedUp != nil {
		e := base
		e.Type = models.EventOrderPickedUp
		e.OrderID = out.PickedUp.ID
		s.Notify(e)
	}
	if out.Delivered != nil {
		e := base
		e.Type = models.EventOrderDelivered
		e.OrderID = out.Delivered.ID
		e.Price = out.Delivered.Price
		e.Earnings = out.Earnings
		e.DeliveryTime = out.Delivered.DeliveryDuration()
		s.Notify(e)
	}
}

func (s *Simulator) countAvailable() int {
	n := 0
	for _, c := range s.Couriers {
		if c.Available() {
			n++
		}
	}
	return n
}

// PendingOrders returns unassigned orders, oldest first.
func (s *Simulator) PendingOrders() []*models.Order {
	return s.ordersWithStatus(models.OrderStatusPending)
}

// ActiveOrders returns orders held by a courier.
func (s *Simulator) ActiveOrders() []*models.Order {
	return append(s.ordersWithStatus(models.OrderStatusAssigned), s.ordersWithStatus(models.OrderStatusPickedUp)...)
}

func (s *Simulator) CompletedOrders() []*models.Order {
	var completed []*models.Order
	for _, o := range s.Orders {
		if o.IsTerminal() {
			completed = append(completed, o)
		}
	}
	return completed
}

func (s *Simulator) AvailableCouriers() []*courier.Courier {
	var available []*courier.Courier
	for _, c := range s.Couriers {
		if c.Available() {
			available = append(available, c)
		}
	}
	return available
}

func (s *Simulator) ordersWithStatus(status string) []*models.Order {
	var orders []*models.Order
	for _, o := range s.Orders {
		if o.Status == status {
			orders = append(orders, o)
		}
	}
	return orders
}
