package diagram

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/remap"
)

// DefaultMaxLayers caps the layers listed per container in detailed mode.
const DefaultMaxLayers = 12

// Options configures diagram generation.
type Options struct {
	// Detailed lists the remapped layers under each target container.
	Detailed bool

	// MaxLayers caps the listed layers per container (default 12).
	MaxLayers int
}

// Failed is a mapping that produced no payload.
type Failed struct {
	Source string
	Target string
	Reason string
}

// ToDOT converts remap results to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(payloads []remap.Payload, failed []Failed, opts Options) string {
	if opts.MaxLayers <= 0 {
		opts.MaxLayers = DefaultMaxLayers
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=1.2;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	sources := newNodeSet("src")
	targets := newNodeSet("dst")
	for _, p := range payloads {
		sources.add(p.SourceContainer, rectLabel(p.SourceContainer, p.Metrics.Source))
		targets.add(p.TargetContainer, targetLabel(p))
	}
	for _, f := range failed {
		sources.add(f.Source, f.Source)
		targets.add(f.Target, f.Target)
	}

	writeCluster(&buf, "source", "Source", sources)
	writeCluster(&buf, "target", "Target", targets)

	buf.WriteString("\n")
	for _, p := range payloads {
		attrs := []string{fmt.Sprintf("label=%q", fmt.Sprintf("×%.3g", p.ScaleFactor))}
		if p.Status == remap.StatusEmpty {
			attrs = append(attrs, "color=grey", "fontcolor=grey")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n",
			sources.id(p.SourceContainer), targets.id(p.TargetContainer), strings.Join(attrs, ", "))
	}
	for _, f := range failed {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q, style=dashed, color=red, fontcolor=red];\n",
			sources.id(f.Source), targets.id(f.Target), f.Reason)
	}

	if opts.Detailed {
		for i, p := range payloads {
			writeLayers(&buf, fmt.Sprintf("p%d", i), targets.id(p.TargetContainer), p.Layers, opts.MaxLayers)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// nodeSet assigns stable DOT IDs to container names in first-seen order.
type nodeSet struct {
	prefix string
	ids    map[string]string
	order  []string
	labels map[string]string
}

func newNodeSet(prefix string) *nodeSet {
	return &nodeSet{prefix: prefix, ids: map[string]string{}, labels: map[string]string{}}
}

func (s *nodeSet) add(name, label string) {
	if _, ok := s.ids[name]; ok {
		return
	}
	s.ids[name] = fmt.Sprintf("%s:%d", s.prefix, len(s.order))
	s.labels[name] = label
	s.order = append(s.order, name)
}

func (s *nodeSet) id(name string) string { return s.ids[name] }

func writeCluster(buf *bytes.Buffer, name, label string, nodes *nodeSet) {
	fmt.Fprintf(buf, "  subgraph cluster_%s {\n", name)
	fmt.Fprintf(buf, "    label=%q;\n", label)
	buf.WriteString("    style=\"rounded,dashed\";\n")
	for _, n := range nodes.order {
		fmt.Fprintf(buf, "    %q [label=%q];\n", nodes.id(n), nodes.labels[n])
	}
	buf.WriteString("  }\n")
}

func writeLayers(buf *bytes.Buffer, prefix, parent string, layers []layer.Transformed, limit int) {
	shown := layers
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for i, l := range shown {
		id := fmt.Sprintf("%s:%d", prefix, i)
		attrs := []string{
			fmt.Sprintf("label=%q", layerLabel(l)),
			"shape=note",
			"fontsize=11",
		}
		if !l.Visible {
			attrs = append(attrs, "fontcolor=grey")
		}
		fmt.Fprintf(buf, "  %q [%s];\n", id, strings.Join(attrs, ", "))
		fmt.Fprintf(buf, "  %q -> %q [arrowhead=none, color=lightgrey];\n", parent, id)
		if l.IsGroup() {
			writeLayers(buf, id, id, l.Children, limit)
		}
	}
	if n := len(layers) - len(shown); n > 0 {
		id := prefix + ":more"
		fmt.Fprintf(buf, "  %q [label=%q, shape=plaintext, fontsize=11];\n", id, fmt.Sprintf("… %d more", n))
		fmt.Fprintf(buf, "  %q -> %q [arrowhead=none, color=lightgrey];\n", parent, id)
	}
}

func rectLabel(name string, s layer.Size) string {
	return fmt.Sprintf("%s\n%.0f×%.0f", name, s.W, s.H)
}

func targetLabel(p remap.Payload) string {
	b := p.TargetBounds
	return fmt.Sprintf("%s\n%.0f×%.0f @ %.0f,%.0f\n%d layers", p.TargetContainer, b.W, b.H, b.X, b.Y, p.LayerCount())
}

func layerLabel(l layer.Transformed) string {
	c := l.Coords
	return fmt.Sprintf("%s\n%.0f,%.0f %.0f×%.0f", l.Name, c.X, c.Y, c.W, c.H)
}
