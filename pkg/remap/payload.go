package remap

import (
	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/resolve"
	"github.com/matzehuels/layermap/pkg/strategy"
	"github.com/matzehuels/layermap/pkg/template"
)

// Payload statuses.
const (
	StatusTransformed = "transformed"
	StatusEmpty       = "empty"
)

// Metrics records the sizes of both containers.
type Metrics struct {
	Source layer.Size `json:"source" bson:"source"`
	Target layer.Size `json:"target" bson:"target"`
}

// Payload is the remapped content of one container. It is an independent
// copy: the source document is referenced only through SourceID, so the
// source can be unloaded without invalidating the payload (it just can no
// longer be reconstructed).
type Payload struct {
	Status           string              `json:"status" bson:"status"`
	SourceContainer  string              `json:"source_container" bson:"source_container"`
	TargetContainer  string              `json:"target_container" bson:"target_container"`
	Layers           []layer.Transformed `json:"layers" bson:"layers"`
	ScaleFactor      float64             `json:"scale_factor" bson:"scale_factor"`
	Metrics          Metrics             `json:"metrics" bson:"metrics"`
	TargetBounds     layer.Rect          `json:"target_bounds" bson:"target_bounds"`
	SourceID         string              `json:"source_id,omitempty" bson:"source_id,omitempty"`
	SourceStructure  string              `json:"source_structure,omitempty" bson:"source_structure,omitempty"`
	StrategyRejected string              `json:"strategy_rejected,omitempty" bson:"strategy_rejected,omitempty"`
}

// RemapContext remaps a resolved mapping context into target. An empty
// context yields a payload with status "empty" and no layers. Unresolved
// contexts are CONTAINER_NOT_FOUND errors.
func RemapContext(mc resolve.MappingContext, target template.Container, s *strategy.LayoutStrategy) (Payload, error) {
	if !mc.Ready() {
		return Payload{}, errors.New(errors.ErrCodeContainerNotFound,
			"cannot remap %q: %s", mc.Container.Name, mc.Message)
	}

	res, err := Remap(mc.Layers, mc.Container.Bounds, target.Bounds, s)
	if err != nil {
		return Payload{}, errors.Wrap(errors.GetCode(err), err, "remap %q to %q", mc.Container.Name, target.Name)
	}

	status := StatusTransformed
	if mc.Status == resolve.ContextEmpty || len(res.Layers) == 0 {
		status = StatusEmpty
	}
	return Payload{
		Status:          status,
		SourceContainer: mc.Container.Name,
		TargetContainer: target.Name,
		Layers:          res.Layers,
		ScaleFactor:     res.Scale,
		Metrics: Metrics{
			Source: mc.Container.Bounds.Size(),
			Target: target.Bounds.Size(),
		},
		TargetBounds:     target.Bounds,
		StrategyRejected: res.StrategyRejected,
	}, nil
}

// Apply returns mc carrying the payload's transformed layers.
func (p Payload) Apply(mc resolve.MappingContext) resolve.MappingContext {
	mc.Transformed = p.Layers
	if p.Status == StatusTransformed {
		mc.Status = resolve.ContextTransformed
	}
	return mc
}

// LayerCount returns the number of transformed layers, nested ones included.
func (p Payload) LayerCount() int { return layer.CountTransformed(p.Layers) }
