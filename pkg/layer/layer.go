package layer

import (
	"github.com/matzehuels/layermap/pkg/document"
)

// Layer types.
const (
	TypeLayer = "layer"
	TypeGroup = "group"
)

// maxOpacity is the top of the 8-bit opacity range used by document codecs.
const maxOpacity = 255

// Layer is the lightweight, serializable view of a document node.
//
// ID is the node's path identity ("layer-1.0"); it is the only link back to
// the opaque node and its pixel payload. Children is nil for plain layers.
type Layer struct {
	ID       string  `json:"id" bson:"id"`
	Name     string  `json:"name" bson:"name"`
	Type     string  `json:"type" bson:"type"`
	Visible  bool    `json:"visible" bson:"visible"`
	Opacity  float64 `json:"opacity" bson:"opacity"`
	Coords   Rect    `json:"coords" bson:"coords"`
	Children []Layer `json:"children,omitempty" bson:"children,omitempty"`
}

// IsGroup reports whether the layer is a group.
func (l Layer) IsGroup() bool { return l.Type == TypeGroup }

// Transform records how a transformed layer was derived: the scale applied
// on each axis and the target-space position it landed at.
type Transform struct {
	ScaleX  float64 `json:"scale_x" bson:"scale_x"`
	ScaleY  float64 `json:"scale_y" bson:"scale_y"`
	OffsetX float64 `json:"offset_x" bson:"offset_x"`
	OffsetY float64 `json:"offset_y" bson:"offset_y"`
}

// Transformed is a Layer placed in target space. Coords holds the new
// rectangle; every non-geometric field is copied from the source layer.
type Transformed struct {
	ID        string        `json:"id" bson:"id"`
	Name      string        `json:"name" bson:"name"`
	Type      string        `json:"type" bson:"type"`
	Visible   bool          `json:"visible" bson:"visible"`
	Opacity   float64       `json:"opacity" bson:"opacity"`
	Coords    Rect          `json:"coords" bson:"coords"`
	Transform Transform     `json:"transform" bson:"transform"`
	Children  []Transformed `json:"children,omitempty" bson:"children,omitempty"`
}

// IsGroup reports whether the layer is a group.
func (t Transformed) IsGroup() bool { return t.Type == TypeGroup }

// FromDocument converts opaque document nodes into layers. Each child at
// index i under prefix p gets the path "p.i" ("i" at the root). Children
// named like the template group are skipped at every depth.
//
// Missing edges read as 0, a missing opacity as fully opaque. Nodes with a
// children slice become groups and are converted recursively.
func FromDocument(children []*document.Node, prefix string) []Layer {
	layers := make([]Layer, 0, len(children))
	for i, n := range children {
		if n == nil || n.Name == document.TemplateGroupName {
			continue
		}
		path := document.ChildPath(prefix, i)
		l := Layer{
			ID:      document.PathID(path),
			Name:    n.Name,
			Type:    TypeLayer,
			Visible: !n.Hidden,
			Opacity: 1,
			Coords:  RectFromEdges(n.Edges()),
		}
		if n.Opacity != nil {
			l.Opacity = *n.Opacity / maxOpacity
		}
		if n.IsGroup() {
			l.Type = TypeGroup
			l.Children = FromDocument(n.Children, path)
		}
		layers = append(layers, l)
	}
	return layers
}

// FromTree converts a whole document.
func FromTree(t *document.Tree) []Layer {
	if t == nil {
		return []Layer{}
	}
	return FromDocument(t.Children, "")
}

// Walk calls fn for every layer depth-first in document order. Returning
// false from fn skips the layer's children.
func Walk(layers []Layer, fn func(l Layer, depth int) bool) {
	var walk func([]Layer, int)
	walk = func(ls []Layer, depth int) {
		for _, l := range ls {
			if fn(l, depth) {
				walk(l.Children, depth+1)
			}
		}
	}
	walk(layers, 0)
}

// Summary is a flat description of one layer, as sent to strategy providers.
type Summary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Depth   int    `json:"depth"`
	Visible bool   `json:"visible"`
	Coords  Rect   `json:"coords"`
}

// Flatten lists every layer of the subtree in depth-first order.
func Flatten(layers []Layer) []Summary {
	var out []Summary
	Walk(layers, func(l Layer, depth int) bool {
		out = append(out, Summary{
			ID:      l.ID,
			Name:    l.Name,
			Type:    l.Type,
			Depth:   depth,
			Visible: l.Visible,
			Coords:  l.Coords,
		})
		return true
	})
	return out
}

// IDs returns the set of layer IDs in the subtree.
func IDs(layers []Layer) map[string]bool {
	ids := make(map[string]bool)
	Walk(layers, func(l Layer, _ int) bool {
		ids[l.ID] = true
		return true
	})
	return ids
}

// Count returns the number of layers in the subtree.
func Count(layers []Layer) int {
	n := 0
	Walk(layers, func(Layer, int) bool { n++; return true })
	return n
}

// CountTransformed returns the number of layers in a transformed subtree.
func CountTransformed(layers []Transformed) int {
	n := 0
	for _, l := range layers {
		n += 1 + CountTransformed(l.Children)
	}
	return n
}
