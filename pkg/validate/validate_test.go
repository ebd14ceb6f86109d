package validate

import (
	"strings"
	"testing"

	"github.com/matzehuels/layermap/pkg/document"
	"github.com/matzehuels/layermap/pkg/template"
)

func doc(children ...*document.Node) *document.Tree {
	f := document.Float
	all := append([]*document.Node{
		{Name: template.GroupName, Children: []*document.Node{
			{Name: "!!HEADER", Left: f(0), Top: f(0), Right: f(100), Bottom: f(50)},
		}},
	}, children...)
	return &document.Tree{Width: 100, Height: 100, Children: all}
}

func node(name string, left, top, right, bottom float64) *document.Node {
	n := &document.Node{Name: name}
	n.SetEdges(left, top, right, bottom)
	return n
}

func TestBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		children  []*document.Node
		wantNames []string
	}{
		{"Inside", []*document.Node{node("a", 10, 10, 20, 20)}, nil},
		{"OnRightEdge", []*document.Node{node("a", 50, 0, 100, 50)}, nil},
		{"PastRightEdge", []*document.Node{node("a", 50, 0, 101, 50)}, []string{"a"}},
		{"LeftOnly", []*document.Node{node("a", -1, 10, 20, 20)}, []string{"a"}},
		{"TopOnly", []*document.Node{node("a", 10, -5, 20, 20)}, []string{"a"}},
		{"BottomOnly", []*document.Node{node("a", 10, 10, 20, 51)}, []string{"a"}},
		{"SkipsMissingEdges", []*document.Node{{Name: "a", Left: document.Float(-10)}}, nil},
		{"Multiple", []*document.Node{node("a", 0, 0, 10, 10), node("b", 90, 40, 110, 60), node("c", -5, -5, 0, 0)}, []string{"b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := doc(&document.Node{Name: "HEADER", Children: tt.children})
			report := Boundaries(d, template.Extract(d))

			if len(report.Issues) != len(tt.wantNames) {
				t.Fatalf("issues = %+v, want %v", report.Issues, tt.wantNames)
			}
			for i, want := range tt.wantNames {
				issue := report.Issues[i]
				if issue.LayerName != want || issue.ContainerName != "HEADER" || issue.Type != IssueBoundaryViolation {
					t.Errorf("issue[%d] = %+v", i, issue)
				}
			}
			if report.IsValid != (len(tt.wantNames) == 0) {
				t.Errorf("IsValid = %v with %d issues", report.IsValid, len(report.Issues))
			}
		})
	}
}

func TestBoundariesMessageNamesSides(t *testing.T) {
	d := doc(&document.Node{Name: "HEADER", Children: []*document.Node{node("wide", -1, 0, 101, 10)}})
	report := Boundaries(d, template.Extract(d))
	if len(report.Issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(report.Issues))
	}
	msg := report.Issues[0].Message
	if !strings.Contains(msg, "left") || !strings.Contains(msg, "right") {
		t.Errorf("message %q should name left and right", msg)
	}
}

func TestBoundariesIgnoresUnmatchedAndTemplate(t *testing.T) {
	d := doc(
		&document.Node{Name: "header", Children: []*document.Node{node("a", -50, -50, 500, 500)}},
		&document.Node{Name: "FOOTER", Children: []*document.Node{node("b", -50, -50, 500, 500)}},
		node("HEADER", -50, -50, 500, 500),
	)
	report := Boundaries(d, template.Extract(d))
	if !report.IsValid {
		t.Errorf("issues = %+v, want none", report.Issues)
	}
}

func TestBoundariesLaterContainerWins(t *testing.T) {
	f := document.Float
	d := &document.Tree{Width: 100, Height: 100, Children: []*document.Node{
		{Name: template.GroupName, Children: []*document.Node{
			{Name: "!!A", Left: f(0), Top: f(0), Right: f(10), Bottom: f(10)},
			{Name: "!A", Left: f(0), Top: f(0), Right: f(100), Bottom: f(100)},
		}},
		{Name: "A", Children: []*document.Node{node("big", 0, 0, 50, 50)}},
	}}
	if report := Boundaries(d, template.Extract(d)); !report.IsValid {
		t.Errorf("issues = %+v, want none (second container is larger)", report.Issues)
	}
}

func TestBoundariesNilDocument(t *testing.T) {
	if report := Boundaries(nil, template.Metadata{}); !report.IsValid {
		t.Error("nil document should be valid")
	}
}
