package strategy

import (
	"math"
	"testing"

	"github.com/matzehuels/layermap/pkg/errors"
)

func TestParse(t *testing.T) {
	data := []byte(`{
		"suggestedScale": 0.5,
		"anchor": "TOP",
		"overrides": [
			{"layerId": "layer-1.0", "xOffset": 4, "yOffset": -2, "individualScale": 2},
			{"layerId": "layer-1.1", "xOffset": 1}
		],
		"reasoning": "keep the logo readable",
		"safetyReport": {"allowedBleed": false, "violationCount": 0}
	}`)

	s, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.SuggestedScale != 0.5 || s.Anchor != AnchorTop {
		t.Errorf("strategy = %+v", s)
	}
	if len(s.Overrides) != 2 {
		t.Fatalf("overrides = %d, want 2", len(s.Overrides))
	}
	if o := s.Overrides[0]; o.LayerID != "layer-1.0" || o.XOffset != 4 || o.YOffset != -2 || o.IndividualScale != 2 {
		t.Errorf("override[0] = %+v", o)
	}
	if got := s.Overrides[1].IndividualScale; got != 1 {
		t.Errorf("default individual scale = %v, want 1", got)
	}
	if s.Reasoning != "keep the logo readable" {
		t.Errorf("reasoning = %q", s.Reasoning)
	}
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"NotJSON", `scale: 2`},
		{"MissingScale", `{"anchor": "TOP"}`},
		{"MissingAnchor", `{"suggestedScale": 1}`},
		{"UnknownAnchor", `{"suggestedScale": 1, "anchor": "LEFT"}`},
		{"ScaleIsString", `{"suggestedScale": "1", "anchor": "TOP"}`},
		{"OverrideWithoutLayer", `{"suggestedScale": 1, "anchor": "TOP", "overrides": [{"xOffset": 1}]}`},
		{"NegativeViolations", `{"suggestedScale": 1, "anchor": "TOP", "safetyReport": {"violationCount": -1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if !errors.Is(err, errors.ErrCodeInvalidStrategy) {
				t.Errorf("Parse(%s) error = %v, want INVALID_STRATEGY", tt.input, err)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	ids := map[string]bool{"layer-0": true, "layer-0.1": true}

	tests := []struct {
		name    string
		s       *LayoutStrategy
		wantErr bool
	}{
		{"Nil", nil, false},
		{"Valid", &LayoutStrategy{SuggestedScale: 0.5, Anchor: AnchorCenter,
			Overrides: []Override{{LayerID: "layer-0.1", IndividualScale: 2}}}, false},
		{"StretchAccepted", &LayoutStrategy{SuggestedScale: 1, Anchor: AnchorStretch}, false},
		{"ZeroScale", &LayoutStrategy{SuggestedScale: 0, Anchor: AnchorTop}, true},
		{"NegativeScale", &LayoutStrategy{SuggestedScale: -1, Anchor: AnchorTop}, true},
		{"UnknownAnchor", &LayoutStrategy{SuggestedScale: 1, Anchor: "LEFT"}, true},
		{"ZeroIndividualScale", &LayoutStrategy{SuggestedScale: 1,
			Overrides: []Override{{LayerID: "layer-0", IndividualScale: 0}}}, true},
		{"UnknownLayer", &LayoutStrategy{SuggestedScale: 1,
			Overrides: []Override{{LayerID: "layer-9", IndividualScale: 1}}}, true},
		{"InfiniteScale", &LayoutStrategy{SuggestedScale: math.Inf(1)}, true},
		{"NaNScale", &LayoutStrategy{SuggestedScale: math.NaN()}, true},
		{"InfiniteIndividualScale", &LayoutStrategy{SuggestedScale: 1,
			Overrides: []Override{{LayerID: "layer-0", IndividualScale: math.Inf(1)}}}, true},
		{"NaNOffset", &LayoutStrategy{SuggestedScale: 1,
			Overrides: []Override{{LayerID: "layer-0", YOffset: math.NaN(), IndividualScale: 1}}}, true},
		{"InfiniteOffset", &LayoutStrategy{SuggestedScale: 1,
			Overrides: []Override{{LayerID: "layer-0", XOffset: math.Inf(-1), IndividualScale: 1}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.s, ids)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidStrategy) {
				t.Errorf("Validate() code = %s, want INVALID_STRATEGY", errors.GetCode(err))
			}
		})
	}
}

func TestRestrict(t *testing.T) {
	s := &LayoutStrategy{SuggestedScale: 0.5, Anchor: AnchorBottom, Overrides: []Override{
		{LayerID: "layer-0", IndividualScale: 1},
		{LayerID: "layer-3.1", IndividualScale: 2},
	}}

	got, dropped := Restrict(s, map[string]bool{"layer-0": true})
	if len(dropped) != 1 || dropped[0] != "layer-3.1" {
		t.Errorf("dropped = %v, want [layer-3.1]", dropped)
	}
	if got.SuggestedScale != 0.5 || got.Anchor != AnchorBottom || len(got.Overrides) != 1 {
		t.Errorf("restricted = %+v", got)
	}
	if len(s.Overrides) != 2 {
		t.Error("Restrict modified its input")
	}

	if same, dropped := Restrict(s, map[string]bool{"layer-0": true, "layer-3.1": true}); same != s || dropped != nil {
		t.Errorf("Restrict with every layer known = %p, %v; want the input unchanged", same, dropped)
	}
	if got, _ := Restrict(nil, nil); got != nil {
		t.Errorf("Restrict(nil) = %+v", got)
	}
}

func TestOverrideFor(t *testing.T) {
	s := &LayoutStrategy{Overrides: []Override{
		{LayerID: "a", XOffset: 1},
		{LayerID: "a", XOffset: 2},
	}}
	o, ok := s.OverrideFor("a")
	if !ok || o.XOffset != 1 {
		t.Errorf("OverrideFor(a) = %+v, %v; want first entry", o, ok)
	}
	if _, ok := s.OverrideFor("b"); ok {
		t.Error("OverrideFor(b) found an override")
	}
	var none *LayoutStrategy
	if _, ok := none.OverrideFor("a"); ok {
		t.Error("nil strategy returned an override")
	}
}

func TestHash(t *testing.T) {
	a := &LayoutStrategy{SuggestedScale: 1, Anchor: AnchorTop}
	b := &LayoutStrategy{SuggestedScale: 1, Anchor: AnchorTop}
	c := &LayoutStrategy{SuggestedScale: 1, Anchor: AnchorBottom}

	if Hash(nil) != "" {
		t.Error("Hash(nil) should be empty")
	}
	if Hash(a) != Hash(b) {
		t.Error("equal strategies hash differently")
	}
	if Hash(a) == Hash(c) {
		t.Error("different anchors hash the same")
	}
}
