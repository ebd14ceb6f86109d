package layer

import "math"

// Rect is an axis-aligned rectangle in document pixel units.
type Rect struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// RectFromEdges builds a rectangle from left/top/right/bottom edges.
func RectFromEdges(left, top, right, bottom float64) Rect {
	return Rect{X: left, Y: top, W: right - left, H: bottom - top}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Degenerate reports whether the rectangle has no area.
func (r Rect) Degenerate() bool { return r.W <= 0 || r.H <= 0 }

// Finite reports whether every component is a finite number.
func (r Rect) Finite() bool {
	for _, v := range [...]float64{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Contains reports whether o lies fully inside r. Shared edges count as
// inside; escaping on any single side does not.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// NormalizedRect is a Rect divided by canvas dimensions. Values are not
// clamped: content overflowing the canvas falls outside [0,1].
type NormalizedRect struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size { return Size{W: r.W, H: r.H} }

// Canvas is the pixel size of a document. Both sides are at least 1.
type Canvas struct {
	Width  int `json:"width" bson:"width"`
	Height int `json:"height" bson:"height"`
}

// NewCanvas returns a canvas, replacing zero or negative sides with 1 so
// normalization never divides by zero.
func NewCanvas(width, height int) Canvas {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return Canvas{Width: width, Height: height}
}

// Normalize divides r by the canvas dimensions.
func (c Canvas) Normalize(r Rect) NormalizedRect {
	w, h := float64(c.Width), float64(c.Height)
	return NormalizedRect{X: r.X / w, Y: r.Y / h, W: r.W / w, H: r.H / h}
}
