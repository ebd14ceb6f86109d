// Package strategy defines layout strategies: advisory overrides of the
// default uniform-fit remap, typically suggested by an external (AI) service.
//
// Strategies are untrusted input. [Parse] checks the wire shape against a
// JSON schema and [Validate] checks the values against the layers they are
// meant for; the remap engine ignores a strategy that fails either check.
// Overrides naming layers outside the remapped subtree are dropped with
// [Restrict] before validation, so a shared strategy still applies its
// scale and anchor to every mapping.
// The strategy's own SafetyReport is informational and never relied on.
package strategy

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/matzehuels/layermap/pkg/cache"
	"github.com/matzehuels/layermap/pkg/errors"
)

// Anchor selects vertical placement of scaled content in the target.
type Anchor string

// Anchors. STRETCH is accepted on the wire and placed like CENTER.
const (
	AnchorTop     Anchor = "TOP"
	AnchorCenter  Anchor = "CENTER"
	AnchorBottom  Anchor = "BOTTOM"
	AnchorStretch Anchor = "STRETCH"
)

// LayoutStrategy replaces the global scale and vertical anchor of a remap and
// adjusts individual layers.
type LayoutStrategy struct {
	SuggestedScale float64      `json:"suggestedScale" bson:"suggested_scale"`
	Anchor         Anchor       `json:"anchor" bson:"anchor"`
	Overrides      []Override   `json:"overrides,omitempty" bson:"overrides,omitempty"`
	Reasoning      string       `json:"reasoning,omitempty" bson:"reasoning,omitempty"`
	SafetyReport   SafetyReport `json:"safetyReport" bson:"safety_report"`
}

// Override adjusts one layer, matched by exact layer ID. Offsets are target
// pixels added after the global transform; IndividualScale multiplies the
// global scale.
type Override struct {
	LayerID         string  `json:"layerId" bson:"layer_id"`
	XOffset         float64 `json:"xOffset" bson:"x_offset"`
	YOffset         float64 `json:"yOffset" bson:"y_offset"`
	IndividualScale float64 `json:"individualScale" bson:"individual_scale"`
}

// SafetyReport is the provider's own claim about the result.
type SafetyReport struct {
	AllowedBleed   bool `json:"allowedBleed" bson:"allowed_bleed"`
	ViolationCount int  `json:"violationCount" bson:"violation_count"`
}

// Schema is the JSON schema of the strategy wire format.
const Schema = `{
  "type": "object",
  "required": ["suggestedScale", "anchor"],
  "properties": {
    "suggestedScale": {"type": "number"},
    "anchor": {"type": "string", "enum": ["TOP", "CENTER", "BOTTOM", "STRETCH"]},
    "overrides": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["layerId"],
        "properties": {
          "layerId": {"type": "string", "minLength": 1},
          "xOffset": {"type": "number"},
          "yOffset": {"type": "number"},
          "individualScale": {"type": "number"}
        }
      }
    },
    "reasoning": {"type": "string"},
    "safetyReport": {
      "type": "object",
      "properties": {
        "allowedBleed": {"type": "boolean"},
        "violationCount": {"type": "integer", "minimum": 0}
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(Schema)

// Parse decodes a strategy after checking it against [Schema]. Overrides
// without an individualScale get 1.
func Parse(data []byte) (*LayoutStrategy, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStrategy, err, "read strategy")
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			msgs[i] = desc.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidStrategy, "strategy does not match schema: %s", strings.Join(msgs, "; "))
	}

	var raw struct {
		LayoutStrategy
		Overrides []struct {
			Override
			IndividualScale *float64 `json:"individualScale"`
		} `json:"overrides"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStrategy, err, "decode strategy")
	}

	s := raw.LayoutStrategy
	s.Overrides = make([]Override, len(raw.Overrides))
	for i, o := range raw.Overrides {
		s.Overrides[i] = o.Override
		s.Overrides[i].IndividualScale = 1
		if o.IndividualScale != nil {
			s.Overrides[i].IndividualScale = *o.IndividualScale
		}
	}
	return &s, nil
}

// Validate checks a strategy against the layer IDs it will be applied to:
// the suggested scale and every individual scale must be positive and
// finite, offsets must be finite and every override must name a known layer.
func Validate(s *LayoutStrategy, layerIDs map[string]bool) error {
	if s == nil {
		return nil
	}
	if !positive(s.SuggestedScale) {
		return errors.New(errors.ErrCodeInvalidStrategy, "suggested scale must be positive and finite, got %v", s.SuggestedScale)
	}
	switch s.Anchor {
	case AnchorTop, AnchorCenter, AnchorBottom, AnchorStretch, "":
	default:
		return errors.New(errors.ErrCodeInvalidStrategy, "unknown anchor %q", s.Anchor)
	}
	for _, o := range s.Overrides {
		if !positive(o.IndividualScale) {
			return errors.New(errors.ErrCodeInvalidStrategy, "override %q: individual scale must be positive and finite, got %v", o.LayerID, o.IndividualScale)
		}
		if !finite(o.XOffset) || !finite(o.YOffset) {
			return errors.New(errors.ErrCodeInvalidStrategy, "override %q: offsets must be finite, got (%v, %v)", o.LayerID, o.XOffset, o.YOffset)
		}
		if !layerIDs[o.LayerID] {
			return errors.New(errors.ErrCodeInvalidStrategy, "override references unknown layer %q", o.LayerID)
		}
	}
	return nil
}

// Restrict returns s limited to overrides for the given layers, plus the IDs
// of the overrides it dropped. One strategy is often shared by several
// mappings, each of which only knows its own subtree. s is not modified; it
// is returned as is when nothing is dropped.
func Restrict(s *LayoutStrategy, layerIDs map[string]bool) (*LayoutStrategy, []string) {
	if s == nil {
		return nil, nil
	}
	var dropped []string
	kept := make([]Override, 0, len(s.Overrides))
	for _, o := range s.Overrides {
		if layerIDs[o.LayerID] {
			kept = append(kept, o)
		} else {
			dropped = append(dropped, o.LayerID)
		}
	}
	if len(dropped) == 0 {
		return s, nil
	}
	out := *s
	out.Overrides = kept
	return &out, dropped
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 1) }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// OverrideFor returns the override for a layer ID. The first entry wins when
// a layer is listed twice.
func (s *LayoutStrategy) OverrideFor(layerID string) (Override, bool) {
	if s == nil {
		return Override{}, false
	}
	for _, o := range s.Overrides {
		if o.LayerID == layerID {
			return o, true
		}
	}
	return Override{}, false
}

// Hash returns a stable content hash of the strategy, or "" for nil.
func Hash(s *LayoutStrategy) string {
	if s == nil {
		return ""
	}
	data, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// Describe summarizes a strategy for logs.
func Describe(s *LayoutStrategy) string {
	if s == nil {
		return "none"
	}
	return fmt.Sprintf("scale=%g anchor=%s overrides=%d", s.SuggestedScale, s.Anchor, len(s.Overrides))
}
