package routing

import (
	"errors"
	"fmt"
	"math"

	"github.com/chrisdamba/deliverysim/internal/models"
)

var ErrUnknownRouting = errors.New("unknown routing strategy")

// Strategy decides how a courier covers ground. Implementations never
// overshoot: when the remaining distance fits in one step the result is the
// target itself.
type Strategy interface {
	Name() string
	Distance(from, to models.Location) float64
	MoveTowards(from, to models.Location, step float64) models.Location
}

// Direct flies in a straight line.
type Direct struct{}

func (Direct) Name() string { return models.RoutingDirect }

func (Direct) Distance(from, to models.Location) float64 {
	return from.Distance(to)
}

func (Direct) MoveTowards(from, to models.Location, step float64) models.Location {
	if step <= 0 {
		return from
	}
	return from.MoveTowards(to, step)
}

// Grid follows streets: the step budget is spent on the X axis first and
// whatever remains on Y, so movement is never diagonal.
type Grid struct{}

func (Grid) Name() string { return models.RoutingGrid }

func (Grid) Distance(from, to models.Location) float64 {
	return from.ManhattanDistance(to)
}

func (Grid) MoveTowards(from, to models.Location, step float64) models.Location {
	if step <= 0 {
		return from
	}
	next := from
	remaining := step

	dx := to.X - from.X
	if moveX := math.Min(remaining, math.Abs(dx)); moveX > 0 {
		if moveX == math.Abs(dx) {
			next.X = to.X
		} else {
			next.X += math.Copysign(moveX, dx)
		}
		remaining -= moveX
	}

	dy := to.Y - from.Y
	if moveY := math.Min(remaining, math.Abs(dy)); moveY > 0 {
		if moveY == math.Abs(dy) {
			next.Y = to.Y
		} else {
			next.Y += math.Copysign(moveY, dy)
		}
	}
	return next
}

// ByName resolves a configured routing name.
func ByName(name string) (Strategy, error) {
	switch name {
	case models.RoutingDirect:
		return Direct{}, nil
	case models.RoutingGrid:
		return Grid{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRouting, name)
	}
}
