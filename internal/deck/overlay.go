package deck

import "math"

const (
	maxRotation      = 20.0
	overlayThreshold = 50.0
	overlayDistance  = 100.0
	restScale        = 0.5
)

// Overlay labels shown on top of a dragged card
const (
	LabelNope = "NOPE"
	LabelLike = "LIKE"
)

// Overlay is the presentational state of a card while it is dragged
type Overlay struct {
	Rotation float64 `json:"rotation"`
	Label    string  `json:"label,omitempty"`
	Opacity  float64 `json:"opacity"`
	Scale    float64 `json:"scale"`
}

// ComputeOverlay derives rotation and label intensity from the horizontal drag offset.
func ComputeOverlay(offsetX, viewportWidth float64) Overlay {
	o := Overlay{Scale: restScale}

	if viewportWidth > 0 {
		o.Rotation = offsetX / viewportWidth * maxRotation
	}

	switch {
	case o.Rotation < 0:
		o.Label = LabelNope
	case o.Rotation > 0:
		o.Label = LabelLike
	}

	dist := math.Abs(offsetX)
	if dist > overlayThreshold {
		o.Opacity = math.Min(dist/overlayDistance, 1)
		o.Scale = math.Min(dist/overlayDistance+restScale, 1)
	}

	return o
}
