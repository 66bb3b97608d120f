package dispatch

import (
	"context"
	"log/slog"

	"github.com/chrisdamba/deliverysim/internal/courier"
	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/chrisdamba/deliverysim/internal/weather"
)

type Assignment struct {
	Order    *models.Order
	Courier  *courier.Courier
	Distance float64
}

// Dispatcher matches pending orders to idle couriers greedily: orders are
// served in the order given, each taking the nearest eligible courier.
type Dispatcher struct {
	policy   *Policy
	logger   *slog.Logger
	grounded bool
}

func NewDispatcher(policy *Policy, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{policy: policy, logger: logger.With("component", "dispatcher")}
}

// Match pairs orders with couriers without mutating either. Ties on
// distance go to the courier listed first.
func (d *Dispatcher) Match(pending []*models.Order, available []*courier.Courier, cond weather.Condition) []Assignment {
	couriers := d.eligible(available, cond)
	var assignments []Assignment
	for _, order := range pending {
		if len(couriers) == 0 {
			break
		}
		if order.Status != models.OrderStatusPending {
			continue
		}
		best, dist := nearest(order.PickupLocation(), couriers)
		assignments = append(assignments, Assignment{Order: order, Courier: couriers[best], Distance: dist})
		couriers = append(couriers[:best], couriers[best+1:]...)
	}
	return assignments
}

// Dispatch matches and then assigns every pair at the given step.
func (d *Dispatcher) Dispatch(pending []*models.Order, available []*courier.Courier, cond weather.Condition, step int) ([]Assignment, error) {
	assignments := d.Match(pending, available, cond)
	for _, a := range assignments {
		if err := a.Courier.Assign(a.Order, step); err != nil {
			return nil, err
		}
	}
	return assignments, nil
}

func (d *Dispatcher) eligible(available []*courier.Courier, cond weather.Condition) []*courier.Courier {
	couriers := make([]*courier.Courier, 0, len(available))
	grounded := 0
	for _, c := range available {
		if !c.Available() {
			continue
		}
		if d.policy != nil && !d.policy.Eligible(c, cond.Regime) {
			grounded++
			continue
		}
		couriers = append(couriers, c)
	}

	// warn once per grounding spell
	if grounded > 0 && !d.grounded {
		d.logger.WarnContext(context.Background(), "couriers grounded by weather",
			"count", grounded, "weather", cond.Name())
	}
	d.grounded = grounded > 0
	return couriers
}

func nearest(target models.Location, couriers []*courier.Courier) (int, float64) {
	best, bestDist := 0, couriers[0].Location.Distance(target)
	for i := 1; i < len(couriers); i++ {
		if dist := couriers[i].Location.Distance(target); dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best, bestDist
}
