package main

// Box is an axis-aligned bounding rectangle. Origin is top-left,
// Y grows downward. Width and height must be positive.
type Box struct {
	X, Y, W, H float64
}

// NewBox constructs a box from a top-left corner and dimensions.
func NewBox(x, y, w, h float64) Box {
	return Box{X: x, Y: y, W: w, H: h}
}

// Overlaps reports whether the two boxes intersect.
func (b Box) Overlaps(o Box) bool {
	return b.X < o.X+o.W &&
		b.X+b.W > o.X &&
		b.Y < o.Y+o.H &&
		b.Y+b.H > o.Y
}
