// Package pipeline provides the remap pipeline shared by the CLI and the API
// server.
//
// This package implements the complete load → resolve → remap → reconstruct
// flow. By centralizing it, every entry point caches, logs and reports
// failures the same way.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Decode a source and a target document (JSON or PSD)
//  2. Resolve: Match each mapping's source container to a design group
//  3. Remap: Transform the resolved subtrees into the target containers
//  4. Reconstruct: Rebuild a document shaped like the target
//
// Each stage can be run independently or as part of the complete pipeline.
// Mappings fail independently: an unresolved or degenerate container is
// reported in [Result.Failures] and the remaining mappings still run.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Mappings: []pipeline.Mapping{{Source: "!!HEADER", Target: "!!BANNER"}},
//	}
//	result, err := runner.Execute(ctx, "design.psd", "template.json", opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, _ := document.JSONCodec{}.Serialize(result.Tree)
package pipeline

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layermap/pkg/cache"
	"github.com/matzehuels/layermap/pkg/document"
	"github.com/matzehuels/layermap/pkg/document/psd"
	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/reconstruct"
	"github.com/matzehuels/layermap/pkg/remap"
	"github.com/matzehuels/layermap/pkg/strategy"
	"github.com/matzehuels/layermap/pkg/template"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultConcurrency is the number of mappings remapped at once.
const DefaultConcurrency = 4

// Format constants for document formats.
const (
	FormatJSON = "json"
	FormatPSD  = "psd"
)

// ValidFormats is the set of supported input formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatPSD:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Mapping pairs a source container with a target container. Both names are
// matched after marker normalization.
type Mapping struct {
	Source string `json:"source" toml:"source"`
	Target string `json:"target" toml:"target"`
}

func (m Mapping) String() string { return m.Source + "=" + m.Target }

// Options contains all configuration for a remap run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Mappings    []Mapping                `json:"mappings"`
	Strategy    *strategy.LayoutStrategy `json:"strategy,omitempty"`    // applied to every mapping
	Concurrency int                      `json:"concurrency,omitempty"` // parallel remaps, default 4
	LoadImages  bool                     `json:"load_images,omitempty"` // keep PSD pixels as payloads
	Refresh     bool                     `json:"refresh,omitempty"`     // bypass cache reads

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// Provider suggests a strategy per mapping when Strategy is nil.
	Provider strategy.Provider `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Document is a loaded document with everything the later stages derive
// from it.
type Document struct {
	Path      string            `json:"path,omitempty"`
	Codec     string            `json:"codec"`
	Hash      string            `json:"hash"`
	Structure string            `json:"structure"`
	Tree      *document.Tree    `json:"-"`
	Metadata  template.Metadata `json:"metadata"`
	Layers    []layer.Layer     `json:"layers"`
}

// Failure is a mapping that could not be remapped.
type Failure struct {
	Mapping Mapping     `json:"mapping"`
	Code    errors.Code `json:"code,omitempty"`
	Message string      `json:"error"`
	Err     error       `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Source *Document `json:"source"`
	Target *Document `json:"target"`

	// Payloads are the successful remaps in mapping order.
	Payloads []remap.Payload `json:"payloads"`

	// Failures are the mappings that produced no payload.
	Failures []Failure `json:"failures,omitempty"`

	// Tree is the reconstructed document.
	Tree *document.Tree `json:"-"`

	// Reconstruct reports skipped and stale layers.
	Reconstruct reconstruct.Stats `json:"reconstruct"`

	Stats     Stats     `json:"stats"`
	CacheInfo CacheInfo `json:"cache"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Mappings        int           `json:"mappings"`
	Layers          int           `json:"layers"`
	LoadTime        time.Duration `json:"load_time"`
	RemapTime       time.Duration `json:"remap_time"`
	ReconstructTime time.Duration `json:"reconstruct_time"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SourceHit bool `json:"source_hit"`
	TargetHit bool `json:"target_hit"`
	RemapHits int  `json:"remap_hits"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, psd)", format)
	}
	return nil
}

// FormatOf returns the document format implied by a file extension.
func FormatOf(path string) (string, error) {
	if err := errors.ValidateDocumentPath(path); err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")), nil
}

// CodecFor returns the codec for a format name.
func CodecFor(format string, loadImages bool) (document.Codec, error) {
	switch format {
	case FormatJSON:
		return document.JSONCodec{}, nil
	case FormatPSD:
		return psd.Codec{LoadImages: loadImages}, nil
	}
	return nil, ValidateFormat(format)
}

// ParseMappings parses "SOURCE=TARGET" pairs.
func ParseMappings(specs []string) ([]Mapping, error) {
	out := make([]Mapping, 0, len(specs))
	for _, s := range specs {
		src, dst, err := errors.ValidateMapping(s)
		if err != nil {
			return nil, err
		}
		out = append(out, Mapping{Source: src, Target: dst})
	}
	return out, nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Mappings) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one mapping is required")
	}
	for i, m := range o.Mappings {
		if err := errors.ValidateContainerName(m.Source); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMapping, err, "mapping %d source", i)
		}
		if err := errors.ValidateContainerName(m.Target); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidMapping, err, "mapping %d target", i)
		}
	}
	if o.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must not be negative")
	}
	o.SetDefaults()
	o.validated = true
	return nil
}

// SetDefaults fills zero values.
func (o *Options) SetDefaults() {
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// NewDocument wraps a decoded tree. An empty hash is computed from the
// tree's JSON form; a tree without an ID takes the hash as its ID.
func NewDocument(t *document.Tree, codec, hash string) *Document {
	if hash == "" {
		if data, err := document.MarshalTree(t); err == nil {
			hash = cache.Hash(data)
		}
	}
	if t.ID == "" {
		t.ID = hash
	}
	return &Document{
		Codec:     codec,
		Hash:      hash,
		Structure: t.Fingerprint(),
		Tree:      t,
		Metadata:  template.Extract(t),
		Layers:    layer.FromTree(t),
	}
}

// Sources returns the source lookup used by reconstruction.
func (d *Document) Sources() map[string]*document.Tree {
	return map[string]*document.Tree{d.Tree.ID: d.Tree}
}

// Container finds a container by name or returns CONTAINER_NOT_FOUND.
func (d *Document) Container(name string) (template.Container, error) {
	c, ok := d.Metadata.Find(name)
	if !ok {
		return template.Container{}, errors.New(errors.ErrCodeContainerNotFound,
			"container %q is not defined in the %s template", template.Normalize(name), d.label())
	}
	return c, nil
}

func (d *Document) label() string {
	if d.Path != "" {
		return filepath.Base(d.Path)
	}
	return "document"
}
