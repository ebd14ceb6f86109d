package document

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matzehuels/layermap/pkg/cache"
)

// TemplateGroupName is the reserved top-level group holding container
// definitions. It is metadata, not design content, and is matched exactly.
const TemplateGroupName = "!!TEMPLATE"

// Tree is a parsed layered document: a canvas and its ordered top-level
// children. Child order is significant; it defines path identities.
type Tree struct {
	// ID is the opaque identity of the document. Payloads derived from this
	// tree refer back to it only through this value.
	ID       string  `json:"id,omitempty" bson:"_id,omitempty"`
	Width    int     `json:"width" bson:"width"`
	Height   int     `json:"height" bson:"height"`
	Children []*Node `json:"children" bson:"children"`
}

// Node is one layer or group of a layered document.
//
// Edge coordinates and opacity are optional: a nil edge is "not reported by
// the codec" and is read as 0 where a number is required. Children is nil for
// plain layers and non-nil (possibly empty) for groups; it is always encoded
// so an empty group survives a round trip.
type Node struct {
	Name     string   `json:"name" bson:"name"`
	Top      *float64 `json:"top,omitempty" bson:"top,omitempty"`
	Left     *float64 `json:"left,omitempty" bson:"left,omitempty"`
	Bottom   *float64 `json:"bottom,omitempty" bson:"bottom,omitempty"`
	Right    *float64 `json:"right,omitempty" bson:"right,omitempty"`
	Hidden   bool     `json:"hidden,omitempty" bson:"hidden,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty" bson:"opacity,omitempty"` // 0-255
	Children []*Node  `json:"children" bson:"children"`

	// Payload carries pixel data. It is never inspected.
	Payload []byte `json:"payload,omitempty" bson:"payload,omitempty"`

	// Extra holds codec-specific fields (blend mode, effects, ...) that are
	// carried through reconstruction unchanged.
	Extra map[string]any `json:"extra,omitempty" bson:"extra,omitempty"`
}

// Float returns a pointer to v, for building nodes with explicit edges.
func Float(v float64) *float64 { return &v }

// IsGroup reports whether the node is a group (has a children slice).
func (n *Node) IsGroup() bool { return n.Children != nil }

// HasBounds reports whether all four edge coordinates are present.
func (n *Node) HasBounds() bool {
	return n.Top != nil && n.Left != nil && n.Bottom != nil && n.Right != nil
}

// Edges returns left, top, right, bottom with missing values read as 0.
func (n *Node) Edges() (left, top, right, bottom float64) {
	return deref(n.Left), deref(n.Top), deref(n.Right), deref(n.Bottom)
}

// SetEdges writes all four edge coordinates.
func (n *Node) SetEdges(left, top, right, bottom float64) {
	n.Left, n.Top, n.Right, n.Bottom = Float(left), Float(top), Float(right), Float(bottom)
}

// Clone returns a deep copy of the node and its subtree.
// Payload bytes are shared: they are immutable by contract.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Top, c.Left, c.Bottom, c.Right = clonePtr(n.Top), clonePtr(n.Left), clonePtr(n.Bottom), clonePtr(n.Right)
	c.Opacity = clonePtr(n.Opacity)
	if n.Extra != nil {
		c.Extra = make(map[string]any, len(n.Extra))
		for k, v := range n.Extra {
			c.Extra[k] = v
		}
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	c := *t
	c.Children = make([]*Node, len(t.Children))
	for i, child := range t.Children {
		c.Children[i] = child.Clone()
	}
	return &c
}

// TemplateGroup returns the reserved template group, or nil.
func (t *Tree) TemplateGroup() *Node { return t.Child(TemplateGroupName) }

// Child returns the first top-level child whose name equals name exactly.
func (t *Tree) Child(name string) *Node {
	for _, c := range t.Children {
		if c != nil && c.Name == name {
			return c
		}
	}
	return nil
}

// Count returns the number of nodes in the tree.
func (t *Tree) Count() int {
	var count func([]*Node) int
	count = func(nodes []*Node) int {
		n := 0
		for _, c := range nodes {
			if c == nil {
				continue
			}
			n += 1 + count(c.Children)
		}
		return n
	}
	return count(t.Children)
}

// Fingerprint returns a hash of the tree's structure: node names and sibling
// order, but not geometry. Two trees with equal fingerprints resolve every
// path identity to the same-named node, so a changed fingerprint means paths
// recorded against the old tree may be stale.
func (t *Tree) Fingerprint() string {
	var b strings.Builder
	var walk func(prefix string, nodes []*Node)
	walk = func(prefix string, nodes []*Node) {
		for i, n := range nodes {
			if n == nil {
				continue
			}
			fmt.Fprintf(&b, "%s%d:%s:%d\n", prefix, i, n.Name, len(n.Children))
			walk(fmt.Sprintf("%s%d.", prefix, i), n.Children)
		}
	}
	walk("", t.Children)
	return cache.Hash([]byte(b.String()))
}

// MarshalTree serializes a tree to indented JSON.
func MarshalTree(t *Tree) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
