package deck

import "math"

// Thresholds a drag has to cross before it counts as a decision.
const (
	OffsetThreshold   = 100.0
	VelocityThreshold = 500.0
)

// Decision is the outcome of one swipe gesture
type Decision string

const (
	DecisionNone  Decision = "none"
	DecisionLeft  Decision = "left"
	DecisionRight Decision = "right"
	DecisionUp    Decision = "up"
)

// Vector is a 2D drag offset or velocity. Y grows downwards, so a swipe up is negative.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Classify turns the final offset and velocity of a drag into a decision.
// Horizontal movement wins over vertical movement.
func Classify(offset, velocity Vector) Decision {
	if math.Abs(offset.X) > OffsetThreshold || math.Abs(velocity.X) > VelocityThreshold {
		if offset.X > 0 {
			return DecisionRight
		}
		return DecisionLeft
	}

	if offset.Y < -OffsetThreshold || velocity.Y < -VelocityThreshold {
		return DecisionUp
	}

	return DecisionNone
}

// Valid reports whether d is one of the known decisions
func (d Decision) Valid() bool {
	switch d {
	case DecisionNone, DecisionLeft, DecisionRight, DecisionUp:
		return true
	}
	return false
}

// Advances reports whether the decision moves the cursor
func (d Decision) Advances() bool {
	return d == DecisionLeft || d == DecisionRight
}
