package courier

import (
	"image/color"
	"math/rand"
)

// Kind names the five courier states.
type Kind int

const (
	Idle Kind = iota
	EnRouteToRestaurant
	WaitingAtRestaurant
	EnRouteToCustomer
	PostAccidentRecovery
)

var kindNames = map[Kind]string{
	Idle:                 "idle",
	EnRouteToRestaurant:  "en_route_to_restaurant",
	WaitingAtRestaurant:  "waiting_at_restaurant",
	EnRouteToCustomer:    "en_route_to_customer",
	PostAccidentRecovery: "post_accident_recovery",
}

var kindColors = map[Kind]color.RGBA{
	Idle:                 {R: 50, G: 200, B: 50, A: 255},
	EnRouteToRestaurant:  {R: 50, G: 150, B: 255, A: 255},
	WaitingAtRestaurant:  {R: 255, G: 200, B: 0, A: 255},
	EnRouteToCustomer:    {R: 255, G: 150, B: 50, A: 255},
	PostAccidentRecovery: {R: 255, G: 50, B: 50, A: 255},
}

func (k Kind) String() string {
	return kindNames[k]
}

// Color is the render tag of the state.
func (k Kind) Color() color.RGBA {
	return kindColors[k]
}

// State is one variant of the courier lifecycle. States change the courier
// only through Courier.setState.
type State interface {
	Kind() Kind
	enter(c *Courier)
	update(c *Courier, env Env, out *Outcome) error
}

type idleState struct{}

func (idleState) Kind() Kind { return Idle }

func (idleState) enter(c *Courier) {
	c.order = nil
	c.target = nil
}

func (idleState) update(c *Courier, _ Env, _ *Outcome) error {
	c.IdleTime++
	return nil
}

type toRestaurantState struct{}

func (toRestaurantState) Kind() Kind { return EnRouteToRestaurant }

func (toRestaurantState) enter(c *Courier) {
	target := c.order.PickupLocation()
	c.target = &target
}

func (toRestaurantState) update(c *Courier, env Env, out *Outcome) error {
	c.ActiveTime++
	if c.rollAccident(env) {
		return c.crash(env, out)
	}
	c.advance(env)
	if c.reachedTarget() {
		c.setState(newWaitingState(c.params, env.Rng))
	}
	return nil
}

type waitingState struct {
	prepTime int
	waited   int
}

func newWaitingState(p Params, rng *rand.Rand) *waitingState {
	return &waitingState{prepTime: p.PrepTimeMin + rng.Intn(p.PrepTimeMax-p.PrepTimeMin+1)}
}

func (*waitingState) Kind() Kind { return WaitingAtRestaurant }

func (s *waitingState) enter(c *Courier) {
	s.waited = 0
	c.target = nil
}

// no movement and no accident risk while the kitchen works
func (s *waitingState) update(c *Courier, env Env, out *Outcome) error {
	c.ActiveTime++
	s.waited++
	if s.waited < s.prepTime {
		return nil
	}
	if err := c.order.MarkPickedUp(env.Step); err != nil {
		return err
	}
	out.PickedUp = c.order
	c.setState(toCustomerState{})
	return nil
}

type toCustomerState struct{}

func (toCustomerState) Kind() Kind { return EnRouteToCustomer }

func (toCustomerState) enter(c *Courier) {
	target := c.order.DeliveryLocation()
	c.target = &target
}

func (toCustomerState) update(c *Courier, env Env, out *Outcome) error {
	c.ActiveTime++
	if c.rollAccident(env) {
		return c.crash(env, out)
	}
	c.advance(env)
	if !c.reachedTarget() {
		return nil
	}

	order := c.order
	if err := order.MarkDelivered(env.Step); err != nil {
		return err
	}
	earnings := order.Price * c.params.EarningsShare
	c.Deliveries++
	c.Earnings += earnings
	out.Delivered = order
	out.Earnings = earnings
	c.setState(idleState{})
	return nil
}

type recoveryState struct {
	remaining int
}

func (*recoveryState) Kind() Kind { return PostAccidentRecovery }

func (s *recoveryState) enter(c *Courier) {
	s.remaining = c.params.RecoverySteps
	c.order = nil
	c.target = nil
}

func (s *recoveryState) update(c *Courier, _ Env, _ *Outcome) error {
	c.AccidentTime++
	s.remaining--
	if s.remaining <= 0 {
		c.setState(idleState{})
	}
	return nil
}
