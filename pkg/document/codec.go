package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/layermap/pkg/errors"
)

// Codec converts between encoded document bytes and a Tree.
//
// The core never depends on a particular binary format: it reads only names,
// edges, visibility, opacity and hierarchy, and writes them back leaving every
// other field untouched.
type Codec interface {
	// Name identifies the codec in logs ("json", "psd").
	Name() string

	// Parse decodes a document.
	Parse(data []byte) (*Tree, error)

	// Serialize encodes a document.
	Serialize(t *Tree) ([]byte, error)
}

// JSONCodec is the canonical document format: the Tree serialized as JSON.
// It round-trips every field, including opaque payloads (base64) and extras.
type JSONCodec struct{}

// Name returns "json".
func (JSONCodec) Name() string { return "json" }

// Parse decodes a JSON document. Empty input and documents that fail to
// decode are reported as INVALID_DOCUMENT.
func (JSONCodec) Parse(data []byte) (*Tree, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "document is empty")
	}
	var t Tree
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode document")
	}
	if t.Children == nil {
		t.Children = []*Node{}
	}
	return &t, nil
}

// Serialize encodes a tree as indented JSON.
func (JSONCodec) Serialize(t *Tree) ([]byte, error) {
	if t == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil document")
	}
	return MarshalTree(t)
}

// Read decodes a document from r with codec c.
func Read(r io.Reader, c Codec) (*Tree, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return c.Parse(data)
}

// ReadFile decodes the document stored at path with codec c.
func ReadFile(path string, c Codec) (*Tree, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	t, err := c.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// WriteFile encodes t with codec c and writes it to path.
func WriteFile(t *Tree, path string, c Codec) error {
	data, err := c.Serialize(t)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

var _ Codec = JSONCodec{}
