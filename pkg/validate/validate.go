// Package validate checks design groups against the containers they fill.
package validate

import (
	"fmt"

	"github.com/matzehuels/layermap/pkg/document"
	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/template"
)

// IssueBoundaryViolation marks a layer that escapes its container.
const IssueBoundaryViolation = "BOUNDARY_VIOLATION"

// Issue is one validation finding.
type Issue struct {
	LayerName     string `json:"layer_name" bson:"layer_name"`
	ContainerName string `json:"container_name" bson:"container_name"`
	Type          string `json:"type" bson:"type"`
	Message       string `json:"message" bson:"message"`
}

// Report collects the issues of one document. IsValid is true iff there are
// no issues. A document with issues is still fully usable.
type Report struct {
	Issues  []Issue `json:"issues" bson:"issues"`
	IsValid bool    `json:"is_valid" bson:"is_valid"`
}

// Boundaries checks that every direct child of each design group lies inside
// the container of the same name.
//
// Containers are indexed by cleaned name; when two share a name the later one
// wins. Design groups must match a container name exactly. A child escaping
// on any single side is a violation; sharing an edge is not. Children without
// all four edges are skipped.
func Boundaries(doc *document.Tree, meta template.Metadata) Report {
	report := Report{Issues: []Issue{}}
	if doc == nil {
		report.IsValid = true
		return report
	}

	index := make(map[string]template.Container, len(meta.Containers))
	for _, c := range meta.Containers {
		index[c.Name] = c
	}

	for _, g := range doc.Children {
		if g == nil || g.Name == document.TemplateGroupName || !g.IsGroup() {
			continue
		}
		c, ok := index[g.Name]
		if !ok {
			continue
		}
		for _, child := range g.Children {
			if child == nil || !child.HasBounds() {
				continue
			}
			r := layer.RectFromEdges(child.Edges())
			if c.Bounds.Contains(r) {
				continue
			}
			report.Issues = append(report.Issues, Issue{
				LayerName:     child.Name,
				ContainerName: c.Name,
				Type:          IssueBoundaryViolation,
				Message:       violationMessage(child.Name, c, r),
			})
		}
	}

	report.IsValid = len(report.Issues) == 0
	return report
}

func violationMessage(name string, c template.Container, r layer.Rect) string {
	var sides []string
	if r.X < c.Bounds.X {
		sides = append(sides, "left")
	}
	if r.Y < c.Bounds.Y {
		sides = append(sides, "top")
	}
	if r.Right() > c.Bounds.Right() {
		sides = append(sides, "right")
	}
	if r.Bottom() > c.Bounds.Bottom() {
		sides = append(sides, "bottom")
	}
	return fmt.Sprintf("layer %q exceeds container %q on %v", name, c.Name, sides)
}
