package diagram

import (
	"strings"
	"testing"

	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/remap"
)

func testPayloads() []remap.Payload {
	return []remap.Payload{
		{
			Status:          remap.StatusTransformed,
			SourceContainer: "HEADER",
			TargetContainer: "BANNER",
			ScaleFactor:     0.5,
			Metrics: remap.Metrics{
				Source: layer.Size{W: 1000, H: 100},
				Target: layer.Size{W: 500, H: 50},
			},
			TargetBounds: layer.Rect{W: 500, H: 50},
			Layers: []layer.Transformed{
				{ID: "layer-0.0", Name: "logo", Type: layer.TypeLayer, Visible: true, Coords: layer.Rect{X: 5, Y: 5, W: 50, H: 25}},
				{ID: "layer-0.1", Name: "icons", Type: layer.TypeGroup, Visible: false, Children: []layer.Transformed{
					{ID: "layer-0.1.0", Name: "star", Type: layer.TypeLayer, Visible: true},
				}},
			},
		},
		{
			Status:          remap.StatusEmpty,
			SourceContainer: "FOOTER",
			TargetContainer: "BANNER",
			ScaleFactor:     1,
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testPayloads(), []Failed{{Source: "SIDEBAR", Target: "RAIL", Reason: "no design group"}}, Options{})

	for _, want := range []string{
		"digraph G {",
		"subgraph cluster_source",
		"subgraph cluster_target",
		`"src:0" -> "dst:0" [label="×0.5"]`,
		`"src:1" -> "dst:0" [label="×1", color=grey, fontcolor=grey]`,
		`"src:2" -> "dst:1" [label="no design group", style=dashed, color=red, fontcolor=red]`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}

	// Target nodes are declared once even when several mappings share them.
	if n := strings.Count(dot, "\n    \"dst:0\" [label="); n != 1 {
		t.Errorf("dst:0 declared %d times, want 1", n)
	}
	if strings.Contains(dot, "logo") {
		t.Error("non-detailed DOT should not list layers")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testPayloads(), nil, Options{Detailed: true})

	for _, want := range []string{
		`"p0:0" [label="logo\n5,5 50×25", shape=note, fontsize=11]`,
		`"dst:0" -> "p0:0"`,
		`"p0:1" -> "p0:1:0"`,
		"fontcolor=grey",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTMaxLayers(t *testing.T) {
	dot := ToDOT(testPayloads(), nil, Options{Detailed: true, MaxLayers: 1})
	if !strings.Contains(dot, "… 1 more") {
		t.Errorf("expected truncation marker\n%s", dot)
	}
	if strings.Contains(dot, `"p0:1" [`) {
		t.Error("second layer should be truncated")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if out != want {
		t.Errorf("normalizeViewBox =\n%s\nwant\n%s", out, want)
	}

	plain := []byte("<svg><g/></svg>")
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}

func TestRenderDOTFormat(t *testing.T) {
	out, err := Render("digraph G {}", "dot")
	if err != nil || string(out) != "digraph G {}" {
		t.Errorf("Render(dot) = %q, %v", out, err)
	}
	if _, err := Render("digraph G {}", "gif"); err == nil {
		t.Error("Render(gif) should fail")
	}
}
