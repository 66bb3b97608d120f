package models

import "reflect"

// Event is the record pushed to listeners. Only the fields relevant to
// Type are populated.
type Event struct {
	Type            string    `json:"type"`
	Step            int       `json:"step"`
	OrderID         int       `json:"order_id,omitempty"`
	CourierID       int       `json:"courier_id,omitempty"`
	CourierName     string    `json:"courier_name,omitempty"`
	CourierType     string    `json:"courier_type,omitempty"`
	RestaurantName  string    `json:"restaurant_name,omitempty"`
	Price           float64   `json:"price,omitempty"`
	Distance        float64   `json:"distance,omitempty"`
	Weather         string    `json:"weather,omitempty"`
	WeatherDisplay  string    `json:"weather_display,omitempty"`
	SurgeMultiplier float64   `json:"surge_multiplier,omitempty"`
	Earnings        float64   `json:"earnings,omitempty"`
	DeliveryTime    int       `json:"delivery_time,omitempty"`
	Reason          string    `json:"reason,omitempty"`
	Location        *Location `json:"location,omitempty"`
}

type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(event Event)

func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

// Subject is an ordered list of listeners. Notify delivers synchronously,
// in attach order.
type Subject struct {
	listeners []Listener
}

func (s *Subject) Attach(l Listener) {
	for _, existing := range s.listeners {
		if sameListener(existing, l) {
			return
		}
	}
	s.listeners = append(s.listeners, l)
}

func (s *Subject) Detach(l Listener) {
	for i, existing := range s.listeners {
		if sameListener(existing, l) {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

func (s *Subject) Notify(event Event) {
	for _, l := range s.listeners {
		l.OnEvent(event)
	}
}

func (s *Subject) ListenerCount() int {
	return len(s.listeners)
}

// func-backed listeners are not comparable and are never treated as equal
func sameListener(a, b Listener) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
