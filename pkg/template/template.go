// Package template extracts container definitions from a document's
// reserved template group and normalizes container names.
//
// A container is an immediate child of the top-level "!!TEMPLATE" group. Its
// name may carry a leading run of marker characters ("!!HEADER"); the marker
// is stripped for matching but preserved in [Container.OriginalName].
package template

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/matzehuels/layermap/pkg/document"
	"github.com/matzehuels/layermap/pkg/layer"
)

// GroupName is the reserved top-level group that holds container
// definitions. It is always matched exactly.
const GroupName = document.TemplateGroupName

// MarkerChar is the punctuation character that marks template-only names.
const MarkerChar = '!'

// Container is a named rectangular region defined by a child of the
// template group. Containers are immutable once extracted.
type Container struct {
	ID           string               `json:"id" bson:"id"`
	Name         string               `json:"name" bson:"name"`
	OriginalName string               `json:"original_name" bson:"original_name"`
	Bounds       layer.Rect           `json:"bounds" bson:"bounds"`
	Normalized   layer.NormalizedRect `json:"normalized" bson:"normalized"`
}

// Metadata is the canvas and container set of one document.
type Metadata struct {
	Canvas     layer.Canvas `json:"canvas" bson:"canvas"`
	Containers []Container  `json:"containers" bson:"containers"`
}

// StripMarkers removes leading whitespace and a leading run of marker
// characters, then trims the result.
func StripMarkers(s string) string {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	s = strings.TrimLeft(s, string(MarkerChar))
	return strings.TrimSpace(s)
}

// Normalize returns the comparable form of a container or group name:
// markers stripped and whitespace trimmed. Normalize is idempotent.
func Normalize(s string) string {
	// A name like "! !X" still has markers after one pass.
	for {
		n := StripMarkers(s)
		if n == s {
			return n
		}
		s = n
	}
}

// Fold returns the case-folded normalized name used for fuzzy matching.
func Fold(s string) string { return strings.ToLower(Normalize(s)) }

// Extract reads the template group of doc and returns its containers in
// document order. A missing template group yields an empty container list.
// Missing edges read as 0, so zero-area containers are possible and kept.
func Extract(doc *document.Tree) Metadata {
	if doc == nil {
		return Metadata{Canvas: layer.NewCanvas(0, 0), Containers: []Container{}}
	}
	meta := Metadata{
		Canvas:     layer.NewCanvas(doc.Width, doc.Height),
		Containers: []Container{},
	}

	group := doc.TemplateGroup()
	if group == nil {
		return meta
	}
	for i, child := range group.Children {
		if child == nil {
			continue
		}
		bounds := layer.RectFromEdges(child.Edges())
		name := Normalize(child.Name)
		meta.Containers = append(meta.Containers, Container{
			ID:           containerID(i, name),
			Name:         name,
			OriginalName: child.Name,
			Bounds:       bounds,
			Normalized:   meta.Canvas.Normalize(bounds),
		})
	}
	return meta
}

// containerID derives "container-<index>-<name>" with whitespace runs
// collapsed to underscores.
func containerID(index int, name string) string {
	return "container-" + strconv.Itoa(index) + "-" + strings.Join(strings.Fields(name), "_")
}

// Find returns the first container whose cleaned name equals the normalized
// form of name.
func (m Metadata) Find(name string) (Container, bool) {
	want := Normalize(name)
	for _, c := range m.Containers {
		if c.Name == want {
			return c, true
		}
	}
	return Container{}, false
}

// Names returns the cleaned container names in document order.
func (m Metadata) Names() []string {
	names := make([]string, len(m.Containers))
	for i, c := range m.Containers {
		names[i] = c.Name
	}
	return names
}

// Duplicates returns cleaned names that more than one container shares, in
// order of first occurrence. Lookups by such a name are ambiguous.
func (m Metadata) Duplicates() []string {
	seen := make(map[string]int, len(m.Containers))
	var dups []string
	for _, c := range m.Containers {
		seen[c.Name]++
		if seen[c.Name] == 2 {
			dups = append(dups, c.Name)
		}
	}
	return dups
}
