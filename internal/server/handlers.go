package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/layermap/pkg/document"
	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/pipeline"
	"github.com/matzehuels/layermap/pkg/reconstruct"
	"github.com/matzehuels/layermap/pkg/remap"
	"github.com/matzehuels/layermap/pkg/resolve"
	"github.com/matzehuels/layermap/pkg/store"
	"github.com/matzehuels/layermap/pkg/strategy"
	"github.com/matzehuels/layermap/pkg/template"
	"github.com/matzehuels/layermap/pkg/validate"
)

// =============================================================================
// Documents
// =============================================================================

type documentResponse struct {
	store.Summary
	Layers     int      `json:"layers"`
	Duplicates []string `json:"duplicates,omitempty"`
}

type documentDetail struct {
	store.Summary
	Metadata template.Metadata `json:"metadata"`
	Layers   []layer.Layer     `json:"layers"`
}

// handleUpload parses the request body as a document. The format comes from
// ?format= (json, psd), defaulting to json; ?name= labels the record.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, MaxDocumentSize+1))
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read document"))
		return
	}
	if len(data) > MaxDocumentSize {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "document exceeds %d bytes", MaxDocumentSize))
		return
	}

	doc, err := s.Runner.Parse(r.Context(), data, format, pipeline.Options{
		LoadImages: r.URL.Query().Get("images") == "true",
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "untitled." + format
	}
	rec, err := store.NewRecord(name, format, doc.Tree)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rec.ContentHash = doc.Hash
	if err := s.Store.Put(r.Context(), rec); err != nil {
		s.writeError(w, err)
		return
	}

	s.Logger.Info("stored document", "id", rec.ID, "name", name, "containers", len(rec.Metadata.Containers))
	writeJSON(w, http.StatusCreated, documentResponse{
		Summary:    rec.Summary(),
		Layers:     layer.Count(doc.Layers),
		Duplicates: rec.Metadata.Duplicates(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Store.List(r.Context(), 0)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]store.Summary, len(recs))
	for i, rec := range recs {
		out[i] = rec.Summary()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentDetail{
		Summary:  rec.Summary(),
		Metadata: rec.Metadata,
		Layers:   layer.FromTree(rec.Tree),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validate.Boundaries(rec.Tree, rec.Metadata))
}

type resolveResponse struct {
	Container string                 `json:"container"`
	Context   resolve.MappingContext `json:"context"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	rec, err := s.record(r, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	name := r.URL.Query().Get("name")
	if err := errors.ValidateContainerName(name); err != nil {
		s.writeError(w, err)
		return
	}
	mc, err := s.Runner.Resolve(documentOf(rec), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveResponse{Container: template.Normalize(name), Context: mc})
}

// =============================================================================
// Remap
// =============================================================================

type remapRequest struct {
	SourceID string             `json:"source_id"`
	TargetID string             `json:"target_id"`
	Mappings []pipeline.Mapping `json:"mappings"`
	Strategy json.RawMessage    `json:"strategy,omitempty"`
	Refresh  bool               `json:"refresh,omitempty"`
}

type remapResponse struct {
	Payloads    []remap.Payload    `json:"payloads"`
	Failures    []pipeline.Failure `json:"failures,omitempty"`
	Reconstruct reconstruct.Stats  `json:"reconstruct"`
	Stats       pipeline.Stats     `json:"stats"`
	CacheHits   int                `json:"cache_hits"`
	Document    *document.Tree     `json:"document"`
}

func (s *Server) handleRemap(w http.ResponseWriter, r *http.Request) {
	var req remapRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	opts := pipeline.Options{
		Mappings: req.Mappings,
		Refresh:  req.Refresh,
		Logger:   s.Logger,
		Provider: s.Provider,
	}
	if len(req.Strategy) > 0 && string(req.Strategy) != "null" {
		st, err := strategy.Parse(req.Strategy)
		if err != nil {
			s.writeError(w, err)
			return
		}
		opts.Strategy = st
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, err)
		return
	}

	src, err := s.record(r, req.SourceID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	tgt, err := s.record(r, req.TargetID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.Runner.Run(r.Context(), documentOf(src), documentOf(tgt), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, remapResponse{
		Payloads:    result.Payloads,
		Failures:    result.Failures,
		Reconstruct: result.Reconstruct,
		Stats:       result.Stats,
		CacheHits:   result.CacheInfo.RemapHits,
		Document:    result.Tree,
	})
}

func (s *Server) record(r *http.Request, id string) (*store.Record, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}
	return s.Store.Get(r.Context(), id)
}

// documentOf wraps a stored record for the pipeline. The record ID becomes
// the source identity of every payload derived from it.
func documentOf(rec *store.Record) *pipeline.Document {
	doc := pipeline.NewDocument(rec.Tree, rec.Codec, rec.ContentHash)
	doc.Path = rec.Name
	return doc
}
