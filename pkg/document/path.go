package document

import (
	"strconv"
	"strings"
)

// LayerIDPrefix prefixes every path identity ("layer-0.2.1").
const LayerIDPrefix = "layer-"

// PathID returns the path identity for the given sibling-index route.
func PathID(path string) string { return LayerIDPrefix + path }

// ChildPath extends a dotted path with a child index. An empty prefix is the
// root.
func ChildPath(prefix string, index int) string {
	if prefix == "" {
		return strconv.Itoa(index)
	}
	return prefix + "." + strconv.Itoa(index)
}

// ParsePath converts a layer ID into its ordered index list. It returns false
// for empty or malformed IDs (missing segments, non-numeric or negative
// indices).
func ParsePath(layerID string) ([]int, bool) {
	path := strings.TrimPrefix(layerID, LayerIDPrefix)
	if path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	indices := make([]int, len(parts))
	for i, p := range parts {
		idx, err := strconv.Atoi(p)
		if err != nil || idx < 0 {
			return nil, false
		}
		indices[i] = idx
	}
	return indices, true
}

// FindByPath re-locates the node a layer ID was derived from by walking
// root.Children[idx0].Children[idx1]... It returns nil when the ID is
// malformed, an index is out of range, or a node along the route has no
// children.
//
// Path identities are valid only while sibling order is unchanged. A nil
// result means the content is no longer available, not that something broke.
func FindByPath(root *Tree, layerID string) *Node {
	if root == nil {
		return nil
	}
	indices, ok := ParsePath(layerID)
	if !ok {
		return nil
	}

	children := root.Children
	var node *Node
	for _, idx := range indices {
		if children == nil || idx >= len(children) {
			return nil
		}
		node = children[idx]
		if node == nil {
			return nil
		}
		children = node.Children
	}
	return node
}
