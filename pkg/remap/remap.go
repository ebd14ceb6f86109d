// Package remap moves a layer subtree from a source rectangle into a target
// rectangle.
//
// The base transform is a uniform fit: the source is scaled by
// min(target.W/source.W, target.H/source.H) and centered in the target.
// Every layer keeps its position relative to the source origin under that
// same scale and shared anchor, so internal spacing stays proportional to the
// original composition.
//
// An optional [strategy.LayoutStrategy] replaces the scale, picks the
// vertical anchor and nudges or rescales individual layers. Overrides for
// layers outside the remapped subtree are dropped; the rest of the strategy
// is validated and a rejected strategy is ignored. Both are reported in
// [Result.StrategyRejected].
//
// All functions are pure. Geometry that cannot be remapped (a zero-area
// source, or a scale or result that is not finite) is reported as
// DEGENERATE_GEOMETRY.
package remap

import (
	"fmt"
	"math"
	"strings"

	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/strategy"
)

// Result is the outcome of [Remap].
type Result struct {
	Layers  []layer.Transformed `json:"layers"`
	Scale   float64             `json:"scale"`
	AnchorX float64             `json:"anchor_x"`
	AnchorY float64             `json:"anchor_y"`

	// StrategyRejected explains why a supplied strategy, or part of it, was
	// not applied.
	StrategyRejected string `json:"strategy_rejected,omitempty"`
}

// frame is the shared geometry of one remap.
type frame struct {
	src     layer.Rect
	scale   float64
	anchorX float64
	anchorY float64
	plan    *strategy.LayoutStrategy
}

// Remap transforms layers from src into dst.
func Remap(layers []layer.Layer, src, dst layer.Rect, s *strategy.LayoutStrategy) (Result, error) {
	if src.Degenerate() {
		return Result{}, errors.New(errors.ErrCodeDegenerateGeometry,
			"cannot remap: degenerate source %gx%g", src.W, src.H)
	}
	if !src.Finite() || !dst.Finite() {
		return Result{}, errors.New(errors.ErrCodeDegenerateGeometry, "cannot remap: non-finite rectangle")
	}

	var rejected string
	if s != nil {
		ids := layer.IDs(layers)
		var dropped []string
		s, dropped = strategy.Restrict(s, ids)
		if err := strategy.Validate(s, ids); err != nil {
			rejected = errors.UserMessage(err)
			s = nil
		} else if len(dropped) > 0 {
			rejected = fmt.Sprintf("dropped overrides for layers outside the source container: %s",
				strings.Join(dropped, ", "))
		}
	}

	f := newFrame(src, dst, s)
	if math.IsNaN(f.scale) || math.IsInf(f.scale, 0) {
		return Result{}, errors.New(errors.ErrCodeDegenerateGeometry,
			"cannot remap: scale from %gx%g to %gx%g is not finite", src.W, src.H, dst.W, dst.H)
	}
	out := f.transformAll(layers)
	if !allFinite(out) {
		return Result{}, errors.New(errors.ErrCodeDegenerateGeometry, "cannot remap: transformed geometry is not finite")
	}
	return Result{
		Layers:           out,
		Scale:            f.scale,
		AnchorX:          f.anchorX,
		AnchorY:          f.anchorY,
		StrategyRejected: rejected,
	}, nil
}

// BaseScale returns the uniform fit-inside scale from src to dst.
func BaseScale(src, dst layer.Rect) float64 {
	return min(dst.W/src.W, dst.H/src.H)
}

func newFrame(src, dst layer.Rect, s *strategy.LayoutStrategy) frame {
	scale := BaseScale(src, dst)
	if s != nil {
		scale = s.SuggestedScale
	}

	f := frame{
		src:     src,
		scale:   scale,
		anchorX: dst.X + (dst.W-src.W*scale)/2,
		anchorY: dst.Y + (dst.H-src.H*scale)/2,
		plan:    s,
	}
	if s != nil {
		switch s.Anchor {
		case strategy.AnchorTop:
			f.anchorY = dst.Y
		case strategy.AnchorBottom:
			f.anchorY = dst.Y + dst.H - src.H*scale
		}
	}
	return f
}

func (f frame) transformAll(layers []layer.Layer) []layer.Transformed {
	out := make([]layer.Transformed, len(layers))
	for i, l := range layers {
		out[i] = f.transform(l)
	}
	return out
}

func (f frame) transform(l layer.Layer) layer.Transformed {
	relX := (l.Coords.X - f.src.X) / f.src.W
	relY := (l.Coords.Y - f.src.Y) / f.src.H
	x := f.anchorX + relX*f.src.W*f.scale
	y := f.anchorY + relY*f.src.H*f.scale

	sx, sy := f.scale, f.scale
	if o, ok := f.plan.OverrideFor(l.ID); ok {
		x += o.XOffset
		y += o.YOffset
		sx *= o.IndividualScale
		sy *= o.IndividualScale
	}

	t := layer.Transformed{
		ID:      l.ID,
		Name:    l.Name,
		Type:    l.Type,
		Visible: l.Visible,
		Opacity: l.Opacity,
		Coords: layer.Rect{
			X: x,
			Y: y,
			W: l.Coords.W * sx,
			H: l.Coords.H * sy,
		},
		Transform: layer.Transform{ScaleX: sx, ScaleY: sy, OffsetX: x, OffsetY: y},
	}
	if l.Children != nil {
		t.Children = f.transformAll(l.Children)
	}
	return t
}

func allFinite(layers []layer.Transformed) bool {
	for _, t := range layers {
		if !t.Coords.Finite() || !allFinite(t.Children) {
			return false
		}
	}
	return true
}
