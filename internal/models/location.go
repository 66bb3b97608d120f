package models

import (
	"fmt"
	"math"
)

// locationTolerance is the per-axis slack used by Equal.
const locationTolerance = 0.01

// Location is a point on the simulation map. Movement never mutates a
// Location; it produces a new one.
type Location struct {
	X float64 `json:"x" parquet:"name=x,type=DOUBLE"`
	Y float64 `json:"y" parquet:"name=y,type=DOUBLE"`
}

func NewLocation(x, y float64) Location {
	return Location{X: x, Y: y}
}

// Distance returns the Euclidean distance between l and other.
func (l Location) Distance(other Location) float64 {
	return math.Hypot(other.X-l.X, other.Y-l.Y)
}

func (l Location) ManhattanDistance(other Location) float64 {
	return math.Abs(other.X-l.X) + math.Abs(other.Y-l.Y)
}

// MoveTowards travels d units along the straight line to target. When the
// remaining distance is not greater than d the result is exactly target.
func (l Location) MoveTowards(target Location, d float64) Location {
	remaining := l.Distance(target)
	if remaining <= d {
		return target
	}
	ratio := d / remaining
	return Location{
		X: l.X + (target.X-l.X)*ratio,
		Y: l.Y + (target.Y-l.Y)*ratio,
	}
}

// Equal reports whether both coordinates differ by less than 0.01.
func (l Location) Equal(other Location) bool {
	return math.Abs(l.X-other.X) < locationTolerance && math.Abs(l.Y-other.Y) < locationTolerance
}

func (l Location) String() string {
	return fmt.Sprintf("(%.1f, %.1f)", l.X, l.Y)
}
