package deck

import "errors"

// ErrGestureEnded is returned when a gesture is fed after its decision was emitted
var ErrGestureEnded = errors.New("gesture already ended")

// Sample is one pointer drag sample
type Sample struct {
	OffsetX   float64 `json:"offset_x"`
	OffsetY   float64 `json:"offset_y"`
	VelocityX float64 `json:"velocity_x"`
	VelocityY float64 `json:"velocity_y"`
}

// Gesture tracks a single drag from pointer down to pointer up.
type Gesture struct {
	viewportWidth float64
	last          Sample
	ended         bool
}

// NewGesture starts tracking a drag on a card rendered viewportWidth units wide
func NewGesture(viewportWidth float64) *Gesture {
	return &Gesture{viewportWidth: viewportWidth}
}

// Move records a drag sample and returns the overlay for it
func (g *Gesture) Move(s Sample) (Overlay, error) {
	if g.ended {
		return Overlay{}, ErrGestureEnded
	}
	g.last = s
	return ComputeOverlay(s.OffsetX, g.viewportWidth), nil
}

// End closes the gesture with its final sample and emits the decision.
// A gesture emits exactly one decision.
func (g *Gesture) End(s Sample) (Decision, error) {
	if g.ended {
		return DecisionNone, ErrGestureEnded
	}
	g.last = s
	g.ended = true
	return Classify(
		Vector{X: s.OffsetX, Y: s.OffsetY},
		Vector{X: s.VelocityX, Y: s.VelocityY},
	), nil
}

// Last returns the most recent sample
func (g *Gesture) Last() Sample {
	return g.last
}

// Replay feeds samples through a fresh gesture. The last sample ends it.
// An empty sample list yields no decision.
func Replay(viewportWidth float64, samples []Sample) (Decision, Overlay, error) {
	if len(samples) == 0 {
		return DecisionNone, ComputeOverlay(0, viewportWidth), nil
	}

	g := NewGesture(viewportWidth)
	var overlay Overlay
	for _, s := range samples {
		o, err := g.Move(s)
		if err != nil {
			return DecisionNone, Overlay{}, err
		}
		overlay = o
	}

	decision, err := g.End(samples[len(samples)-1])
	if err != nil {
		return DecisionNone, Overlay{}, err
	}
	return decision, overlay, nil
}
