package layer

import (
	"math"
	"testing"
)

func TestNewCanvas(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          Canvas
	}{
		{"Normal", 1920, 1080, Canvas{1920, 1080}},
		{"Zero", 0, 0, Canvas{1, 1}},
		{"Negative", -5, 10, Canvas{1, 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewCanvas(tt.width, tt.height); got != tt.want {
				t.Errorf("NewCanvas(%d, %d) = %+v, want %+v", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestCanvasNormalize(t *testing.T) {
	c := NewCanvas(200, 100)
	got := c.Normalize(Rect{X: 50, Y: 25, W: 300, H: 50})
	want := NormalizedRect{X: 0.25, Y: 0.25, W: 1.5, H: 0.5}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v (overflow must not be clamped)", got, want)
	}
}

func TestRectContains(t *testing.T) {
	outer := Rect{X: 0, Y: 0, W: 100, H: 50}

	tests := []struct {
		name  string
		inner Rect
		want  bool
	}{
		{"Inside", Rect{10, 10, 20, 20}, true},
		{"SameEdges", outer, true},
		{"RightOverflow", Rect{X: 1, Y: 0, W: 100, H: 50}, false},
		{"LeftOverflow", Rect{X: -1, Y: 0, W: 10, H: 10}, false},
		{"BottomOverflow", Rect{X: 0, Y: 45, W: 10, H: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outer.Contains(tt.inner); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.inner, got, tt.want)
			}
		})
	}
}

func TestRectDegenerateAndFinite(t *testing.T) {
	if !(Rect{W: 0, H: 10}).Degenerate() {
		t.Error("zero width should be degenerate")
	}
	if (Rect{W: 1, H: 1}).Degenerate() {
		t.Error("unit rect should not be degenerate")
	}
	if (Rect{X: math.Inf(1)}).Finite() {
		t.Error("infinite X reported finite")
	}
	if !(Rect{X: 1, Y: 2, W: 3, H: 4}).Finite() {
		t.Error("finite rect reported non-finite")
	}
}
