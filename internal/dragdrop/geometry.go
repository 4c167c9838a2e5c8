package dragdrop

// Rect is an axis-aligned rectangle in canvas coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Area returns the rectangle area.
func (r Rect) Area() float64 {
	return r.W * r.H
}

// MidX returns the horizontal center.
func (r Rect) MidX() float64 { return r.X + r.W/2 }

// MidY returns the vertical center.
func (r Rect) MidY() float64 { return r.Y + r.H/2 }
