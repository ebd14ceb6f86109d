package template

import (
	"reflect"
	"testing"

	"github.com/matzehuels/layermap/pkg/document"
	"github.com/matzehuels/layermap/pkg/layer"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"HEADER", "HEADER"},
		{"!HEADER", "HEADER"},
		{"!!!HEADER", "HEADER"},
		{"  !! Hero Image  ", "Hero Image"},
		{"! !X", "X"},
		{"!!", ""},
		{"", ""},
		{"A!B", "A!B"},
		{"Header!", "Header!"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := Normalize(got); again != got {
				t.Errorf("Normalize not idempotent: Normalize(%q) = %q", got, again)
			}
		})
	}
}

func TestFold(t *testing.T) {
	if got := Fold("!!Symbols"); got != "symbols" {
		t.Errorf("Fold = %q, want symbols", got)
	}
}

func templateDoc() *document.Tree {
	f := document.Float
	return &document.Tree{
		Width:  1000,
		Height: 500,
		Children: []*document.Node{
			{Name: "HEADER", Children: []*document.Node{}},
			{Name: GroupName, Children: []*document.Node{
				{Name: "!!HEADER", Left: f(0), Top: f(0), Right: f(1000), Bottom: f(100)},
				{Name: "!! Hero  Image", Left: f(100), Top: f(100), Right: f(1100), Bottom: f(400)},
				{Name: "EMPTY"},
				{Name: "!HEADER", Left: f(0), Top: f(400), Right: f(500), Bottom: f(500)},
			}},
		},
	}
}

func TestExtract(t *testing.T) {
	meta := Extract(templateDoc())

	if meta.Canvas != (layer.Canvas{Width: 1000, Height: 500}) {
		t.Errorf("canvas = %+v", meta.Canvas)
	}
	if len(meta.Containers) != 4 {
		t.Fatalf("containers = %d, want 4", len(meta.Containers))
	}

	hero := meta.Containers[1]
	if hero.ID != "container-1-Hero_Image" {
		t.Errorf("hero ID = %q, want container-1-Hero_Image", hero.ID)
	}
	if hero.Name != "Hero  Image" || hero.OriginalName != "!! Hero  Image" {
		t.Errorf("hero names = %q / %q", hero.Name, hero.OriginalName)
	}
	if want := (layer.Rect{X: 100, Y: 100, W: 1000, H: 300}); hero.Bounds != want {
		t.Errorf("hero bounds = %+v, want %+v", hero.Bounds, want)
	}
	if want := (layer.NormalizedRect{X: 0.1, Y: 0.2, W: 1, H: 0.6}); hero.Normalized != want {
		t.Errorf("hero normalized = %+v, want %+v", hero.Normalized, want)
	}

	empty := meta.Containers[2]
	if empty.Bounds != (layer.Rect{}) {
		t.Errorf("edge-less container bounds = %+v, want zero", empty.Bounds)
	}
}

func TestExtractDefaults(t *testing.T) {
	t.Run("NoTemplateGroup", func(t *testing.T) {
		meta := Extract(&document.Tree{Width: 10, Height: 10, Children: []*document.Node{{Name: "HEADER"}}})
		if meta.Containers == nil || len(meta.Containers) != 0 {
			t.Errorf("containers = %v, want empty", meta.Containers)
		}
	})

	t.Run("ZeroCanvas", func(t *testing.T) {
		meta := Extract(&document.Tree{})
		if meta.Canvas != (layer.Canvas{Width: 1, Height: 1}) {
			t.Errorf("canvas = %+v, want 1x1", meta.Canvas)
		}
	})

	t.Run("MarkerIsCaseSensitive", func(t *testing.T) {
		doc := &document.Tree{Children: []*document.Node{
			{Name: "!!template", Children: []*document.Node{{Name: "A"}}},
		}}
		if got := len(Extract(doc).Containers); got != 0 {
			t.Errorf("containers = %d, want 0", got)
		}
	})
}

func TestExtractIsDeterministic(t *testing.T) {
	if a, b := Extract(templateDoc()), Extract(templateDoc()); !reflect.DeepEqual(a, b) {
		t.Error("Extract returned different results for identical input")
	}
}

func TestFindAndDuplicates(t *testing.T) {
	meta := Extract(templateDoc())

	c, ok := meta.Find("!!!HEADER")
	if !ok || c.ID != "container-0-HEADER" {
		t.Errorf("Find(!!!HEADER) = %+v, %v; want first HEADER", c, ok)
	}
	if _, ok := meta.Find("footer"); ok {
		t.Error("Find(footer) found a container")
	}

	if got := meta.Duplicates(); !reflect.DeepEqual(got, []string{"HEADER"}) {
		t.Errorf("Duplicates() = %v, want [HEADER]", got)
	}
	if got := meta.Names(); len(got) != 4 || got[2] != "EMPTY" {
		t.Errorf("Names() = %v", got)
	}
}
