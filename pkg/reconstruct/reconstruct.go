// Package reconstruct rebuilds opaque document nodes from remapped payloads.
//
// Every transformed layer is joined back to its original node through its
// path identity, looked up in the specific source document the payload came
// from. The original node is cloned, so pixel payloads and codec-specific
// fields survive; only edges, visibility, opacity and children are replaced.
// Layers whose path no longer resolves are skipped and counted.
package reconstruct

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/layermap/pkg/document"
	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/remap"
)

const maxOpacity = 255

// Stats summarizes a reconstruction.
type Stats struct {
	Rebuilt int `json:"rebuilt"`
	Skipped int `json:"skipped"`

	// Stale counts payloads whose source document changed structure since
	// the payload was computed.
	Stale int `json:"stale"`
}

// Reconstruct rebuilds the nodes of every payload, in payload order, and
// concatenates them. Nothing is deduplicated: payloads that target
// overlapping containers all appear, later ones above earlier ones.
//
// A payload whose SourceID is not in sources contributes nothing; all its
// layers are counted as skipped.
func Reconstruct(payloads []remap.Payload, sources map[string]*document.Tree, logger *log.Logger) ([]*document.Node, Stats) {
	r := rebuilder{logger: logger}
	nodes := []*document.Node{}

	for _, p := range payloads {
		src := sources[p.SourceID]
		if src == nil {
			n := p.LayerCount()
			r.stats.Skipped += n
			r.debug("source document unavailable", "source_id", p.SourceID, "container", p.SourceContainer, "skipped", n)
			continue
		}
		if p.SourceStructure != "" && p.SourceStructure != src.Fingerprint() {
			r.stats.Stale++
			if logger != nil {
				logger.Warn("source document changed since remap; layer paths may be stale",
					"source_id", p.SourceID, "container", p.SourceContainer)
			}
		}
		nodes = append(nodes, r.rebuildAll(src, p.Layers)...)
	}
	return nodes, r.stats
}

// Build reconstructs payloads into a new document shaped like target: same
// canvas, with target's template group (if any) kept as the first child so
// the result is again a template-bearing document.
func Build(target *document.Tree, payloads []remap.Payload, sources map[string]*document.Tree, logger *log.Logger) (*document.Tree, Stats) {
	out := &document.Tree{Children: []*document.Node{}}
	if target != nil {
		out.Width, out.Height = target.Width, target.Height
		if g := target.TemplateGroup(); g != nil {
			out.Children = append(out.Children, g.Clone())
		}
	}
	nodes, stats := Reconstruct(payloads, sources, logger)
	out.Children = append(out.Children, nodes...)
	return out, stats
}

type rebuilder struct {
	logger *log.Logger
	stats  Stats
}

func (r *rebuilder) debug(msg string, keyvals ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, keyvals...)
	}
}

func (r *rebuilder) rebuildAll(src *document.Tree, layers []layer.Transformed) []*document.Node {
	nodes := make([]*document.Node, 0, len(layers))
	for _, l := range layers {
		if n := r.rebuild(src, l); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func (r *rebuilder) rebuild(src *document.Tree, l layer.Transformed) *document.Node {
	orig := document.FindByPath(src, l.ID)
	if orig == nil {
		r.stats.Skipped += 1 + layer.CountTransformed(l.Children)
		r.debug("layer path no longer resolves", "id", l.ID, "name", l.Name)
		return nil
	}

	// Clone everything but the subtree, which is rebuilt from l.
	shell := *orig
	shell.Children = nil
	n := shell.Clone()
	n.SetEdges(l.Coords.X, l.Coords.Y, l.Coords.Right(), l.Coords.Bottom())
	n.Hidden = !l.Visible
	n.Opacity = document.Float(l.Opacity * maxOpacity)
	r.stats.Rebuilt++

	if orig.IsGroup() {
		n.Children = r.rebuildAll(src, l.Children)
	}
	return n
}
