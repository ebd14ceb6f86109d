package resolve

import (
	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/template"
)

// ContextStatus is the lifecycle state of a [MappingContext].
type ContextStatus string

// Mapping context states.
const (
	ContextResolved    ContextStatus = "resolved"
	ContextEmpty       ContextStatus = "empty"
	ContextTransformed ContextStatus = "transformed"
	ContextUnresolved  ContextStatus = "unresolved"
)

// ContainerContext describes the container a mapping context belongs to.
type ContainerContext struct {
	Name   string       `json:"name" bson:"name"`
	Bounds layer.Rect   `json:"bounds" bson:"bounds"`
	Canvas layer.Canvas `json:"canvas" bson:"canvas"`
}

// MappingContext is the resolved content of one container, handed from
// resolution to remapping. Layers holds the source-space subtree; Transformed
// is filled once the content has been remapped.
type MappingContext struct {
	Container   ContainerContext    `json:"container" bson:"container"`
	Layers      []layer.Layer       `json:"layers" bson:"layers"`
	Transformed []layer.Transformed `json:"transformed,omitempty" bson:"transformed,omitempty"`
	Status      ContextStatus       `json:"status" bson:"status"`
	Resolution  Status              `json:"resolution" bson:"resolution"`
	Message     string              `json:"message,omitempty" bson:"message,omitempty"`
}

// Ready reports whether the context can be remapped.
func (mc MappingContext) Ready() bool {
	return mc.Status == ContextResolved || mc.Status == ContextEmpty
}

// NewContext builds the mapping context for container c from a resolution
// result. A matched group contributes its children; an empty group yields
// status "empty" with the container still attached. Unmatched names yield
// status "unresolved" and no layers.
func NewContext(c template.Container, canvas layer.Canvas, r Result) MappingContext {
	mc := MappingContext{
		Container: ContainerContext{
			Name:   c.Name,
			Bounds: c.Bounds,
			Canvas: canvas,
		},
		Layers:     []layer.Layer{},
		Resolution: r.Status,
		Message:    r.Message,
	}

	switch {
	case r.Status == StatusEmptyGroup:
		mc.Status = ContextEmpty
	case r.Status.Found() && r.Layer != nil:
		mc.Status = ContextResolved
		mc.Layers = r.Layer.Children
	default:
		mc.Status = ContextUnresolved
	}
	return mc
}

// ResolveContainer resolves c.Name against tree and wraps the outcome.
func ResolveContainer(c template.Container, canvas layer.Canvas, tree []layer.Layer) MappingContext {
	return NewContext(c, canvas, Resolve(c.Name, tree))
}
