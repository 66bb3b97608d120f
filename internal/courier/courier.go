package courier

import (
	"errors"
	"fmt"
	"image/color"
	"math/rand"

	"github.com/chrisdamba/deliverysim/internal/models"
	"github.com/chrisdamba/deliverysim/internal/routing"
	"github.com/chrisdamba/deliverysim/internal/weather"
)

var ErrNotAvailable = errors.New("courier is not available")

// Params are the lifecycle constants shared by every courier of a run.
type Params struct {
	ArrivalThreshold float64
	RecoverySteps    int
	PrepTimeMin      int
	PrepTimeMax      int
	EarningsShare    float64
}

func ParamsFromConfig(cfg *models.Config) Params {
	return Params{
		ArrivalThreshold: cfg.ArrivalThreshold,
		RecoverySteps:    cfg.AccidentRecoverySteps,
		PrepTimeMin:      cfg.PrepTimeMin,
		PrepTimeMax:      cfg.PrepTimeMax,
		EarningsShare:    cfg.CourierEarningsShare,
	}
}

// Env is what a courier sees during one step.
type Env struct {
	Step    int
	Weather weather.Condition
	Rng     *rand.Rand
}

// Outcome reports what happened to a courier during Update.
type Outcome struct {
	Accident  bool
	Cancelled *models.Order
	PickedUp  *models.Order
	Delivered *models.Order
	Earnings  float64
}

// Courier holds an order only while en route or waiting, and a target only
// while en route.
type Courier struct {
	ID        int
	Name      string
	Type      string
	BaseSpeed float64
	Location  models.Location
	Routing   routing.Strategy

	Deliveries        int
	Earnings          float64
	DistanceTravelled float64
	Accidents         int
	IdleTime          int
	ActiveTime        int
	AccidentTime      int

	state  State
	order  *models.Order
	target *models.Location
	params Params
}

func New(id int, name, courierType string, speed float64, loc models.Location, strategy routing.Strategy, params Params) *Courier {
	c := &Courier{
		ID:        id,
		Name:      name,
		Type:      courierType,
		BaseSpeed: speed,
		Location:  loc,
		Routing:   strategy,
		params:    params,
	}
	c.setState(idleState{})
	return c
}

func (c *Courier) setState(s State) {
	c.state = s
	s.enter(c)
}

// Assign hands a pending order to an idle courier and sends it to the
// restaurant.
func (c *Courier) Assign(order *models.Order, step int) error {
	if !c.Available() {
		return fmt.Errorf("%w: courier %d is %s", ErrNotAvailable, c.ID, c.state.Kind())
	}
	if err := order.Assign(c.ID, step); err != nil {
		return err
	}
	c.order = order
	c.setState(toRestaurantState{})
	return nil
}

// Update runs one step of the current state.
func (c *Courier) Update(env Env) (Outcome, error) {
	var out Outcome
	if err := c.state.update(c, env, &out); err != nil {
		return out, fmt.Errorf("courier %d: %w", c.ID, err)
	}
	return out, nil
}

func (c *Courier) State() Kind {
	return c.state.Kind()
}

func (c *Courier) Available() bool {
	return c.state.Kind() == Idle
}

func (c *Courier) Order() *models.Order {
	return c.order
}

func (c *Courier) Target() (models.Location, bool) {
	if c.target == nil {
		return models.Location{}, false
	}
	return *c.target, true
}

func (c *Courier) Color() color.RGBA {
	return c.state.Kind().Color()
}

// RecoveryRemaining is the number of steps left before an injured courier
// is idle again.
func (c *Courier) RecoveryRemaining() int {
	if s, ok := c.state.(*recoveryState); ok {
		return s.remaining
	}
	return 0
}

// PrepRemaining is the number of steps left before the order is ready.
func (c *Courier) PrepRemaining() int {
	if s, ok := c.state.(*waitingState); ok {
		return s.prepTime - s.waited
	}
	return 0
}

// UtilizationRate is active time as a percentage of all tracked time.
func (c *Courier) UtilizationRate() float64 {
	total := c.IdleTime + c.ActiveTime + c.AccidentTime
	if total == 0 {
		return 0
	}
	return float64(c.ActiveTime) / float64(total) * 100
}

func (c *Courier) AverageEarnings() float64 {
	if c.Deliveries == 0 {
		return 0
	}
	return c.Earnings / float64(c.Deliveries)
}

func (c *Courier) Snapshot() models.CourierSnapshot {
	snap := models.CourierSnapshot{
		ID:                c.ID,
		Name:              c.Name,
		Type:              c.Type,
		State:             c.state.Kind().String(),
		Location:          c.Location,
		Deliveries:        c.Deliveries,
		Earnings:          c.Earnings,
		DistanceTravelled: c.DistanceTravelled,
		Accidents:         c.Accidents,
		IdleTime:          c.IdleTime,
		ActiveTime:        c.ActiveTime,
		AccidentTime:      c.AccidentTime,
		UtilizationRate:   c.UtilizationRate(),
	}
	if c.order != nil {
		snap.OrderID = c.order.ID
	}
	return snap
}

func (c *Courier) String() string {
	return fmt.Sprintf("%s [%s] @ %s", c.Name, c.state.Kind(), c.Location)
}

func (c *Courier) rollAccident(env Env) bool {
	return env.Rng.Float64() < env.Weather.AccidentProbability
}

// crash cancels the in-flight order before entering recovery.
func (c *Courier) crash(env Env, out *Outcome) error {
	c.Accidents++
	out.Accident = true
	if c.order != nil {
		if err := c.order.Cancel(env.Step, models.CancelReasonAccident); err != nil {
			return err
		}
		out.Cancelled = c.order
	}
	c.setState(&recoveryState{})
	return nil
}

func (c *Courier) advance(env Env) {
	if c.target == nil {
		return
	}
	speed := c.BaseSpeed * env.Weather.SpeedMultiplier
	previous := c.Location
	c.Location = c.Routing.MoveTowards(c.Location, *c.target, speed)
	c.DistanceTravelled += c.Routing.Distance(previous, c.Location)
}

func (c *Courier) reachedTarget() bool {
	if c.target == nil {
		return false
	}
	return c.Location.Distance(*c.target) < c.params.ArrivalThreshold
}
