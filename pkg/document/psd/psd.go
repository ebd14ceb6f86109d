// Package psd decodes Photoshop documents into layermap document trees.
//
// Decoding is read-only: there is no Go encoder for the PSD format, so
// reconstructed trees are written with the JSON codec instead.
package psd

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/oov/psd"

	"github.com/matzehuels/layermap/pkg/document"
	"github.com/matzehuels/layermap/pkg/errors"
)

// visibilityFlag is the PSD layer-record bit that marks a layer hidden.
const visibilityFlag = 0x02

// Codec decodes PSD files. The zero value skips pixel data, which is all the
// geometry pipeline needs.
type Codec struct {
	// LoadImages decodes layer pixels and stores them PNG-encoded in each
	// node's Payload.
	LoadImages bool
}

// Name returns "psd".
func (Codec) Name() string { return "psd" }

// Parse decodes a PSD file into a tree. Layer rectangles become edge
// coordinates, the 8-bit opacity is kept as-is and the hidden bit maps to
// Node.Hidden. Folders become groups.
func (c Codec) Parse(data []byte) (*document.Tree, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "document is empty")
	}
	img, _, err := psd.Decode(bytes.NewReader(data), &psd.DecodeOptions{
		SkipLayerImage:  !c.LoadImages,
		SkipMergedImage: true,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode psd")
	}

	children, err := c.convert(img.Layer)
	if err != nil {
		return nil, err
	}
	return &document.Tree{
		Width:    img.Config.Rect.Dx(),
		Height:   img.Config.Rect.Dy(),
		Children: children,
	}, nil
}

// Serialize is not supported for PSD.
func (Codec) Serialize(*document.Tree) ([]byte, error) {
	return nil, errors.New(errors.ErrCodeUnsupported, "writing PSD files is not supported; use the json codec")
}

func (c Codec) convert(layers []psd.Layer) ([]*document.Node, error) {
	nodes := make([]*document.Node, 0, len(layers))
	for i := range layers {
		l := &layers[i]
		n := &document.Node{
			Name:    l.Name,
			Hidden:  l.Flags&visibilityFlag != 0,
			Opacity: document.Float(float64(l.Opacity)),
			Extra:   map[string]any{"blend_mode": fmt.Sprint(l.BlendMode)},
		}
		n.SetEdges(float64(l.Rect.Min.X), float64(l.Rect.Min.Y), float64(l.Rect.Max.X), float64(l.Rect.Max.Y))

		if isFolder(l) {
			children, err := c.convert(l.Layer)
			if err != nil {
				return nil, err
			}
			n.Children = children
		} else if c.LoadImages && l.Picker != nil {
			var buf bytes.Buffer
			if err := png.Encode(&buf, l.Picker); err != nil {
				return nil, fmt.Errorf("encode pixels of %q: %w", l.Name, err)
			}
			n.Payload = buf.Bytes()
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// isFolder reports whether a layer record is a group. Section divider types 1
// and 2 are open and closed folders.
func isFolder(l *psd.Layer) bool {
	if len(l.Layer) > 0 {
		return true
	}
	t := l.SectionDividerSetting.Type
	return t == 1 || t == 2
}

var _ document.Codec = Codec{}
