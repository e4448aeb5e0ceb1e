// Package geometry supplies the shared rectangle type and easing-curve
// arithmetic used to compute and animate Chyron/Dashboard layout.
package geometry

import "math"

// Rect is an axis-aligned pixel rectangle, origin top-left.
type Rect struct {
	X, Y, W, H int
}

// Right returns the rectangle's right edge (X + W).
func (r Rect) Right() int { return r.X + r.W }

// Bottom returns the rectangle's bottom edge (Y + H).
func (r Rect) Bottom() int { return r.Y + r.H }

// Union returns the smallest rectangle containing both r and o. An empty
// (zero-value) r is treated as "nothing yet" and returns o unchanged.
func (r Rect) Union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	if o == (Rect{}) {
		return r
	}
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.Right(), o.Right())
	maxY := max(r.Bottom(), o.Bottom())
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Contains reports whether r wholly contains o.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Intersects reports whether r and o share any area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// Outside reports whether o lies entirely outside r — i.e. all four of o's
// corners fall outside r's bounds. Used by train-expire logic.
func (r Rect) Outside(o Rect) bool {
	return !r.Intersects(o)
}

// Lerp linearly interpolates between r and o at fraction t (t in [0,1]),
// component-wise.
func Lerp(r, o Rect, t float64) Rect {
	return Rect{
		X: lerpInt(r.X, o.X, t),
		Y: lerpInt(r.Y, o.Y, t),
		W: lerpInt(r.W, o.W, t),
		H: lerpInt(r.H, o.H, t),
	}
}

func lerpInt(a, b int, t float64) int {
	return a + int(math.Round(float64(b-a)*t))
}
