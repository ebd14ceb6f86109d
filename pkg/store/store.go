// Package store provides the document registry used by the API server.
//
// A [Record] is a parsed document together with its extracted template
// metadata. Records are identified by a random UUID assigned at creation and
// are immutable once stored: callers that need to change a document store a
// new record.
//
// Two backends implement [Store]:
//   - [MemoryStore]: process-local, for the CLI and tests
//   - [MongoStore]: MongoDB-backed, for multi-instance deployments
//
// # Usage
//
//	rec, err := store.NewRecord("design.psd", "psd", tree)
//	if err != nil {
//	    return err
//	}
//	if err := s.Put(ctx, rec); err != nil {
//	    return err
//	}
//
//	rec, err = s.Get(ctx, rec.ID)
//	if errors.Is(err, errors.ErrCodeDocumentNotFound) {
//	    // unknown id
//	}
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/layermap/pkg/document"
	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/template"
)

// DefaultListLimit caps List when the caller passes a limit <= 0.
const DefaultListLimit = 100

// Record is one stored document.
type Record struct {
	ID          string            `json:"id" bson:"_id"`
	Name        string            `json:"name" bson:"name"`
	Codec       string            `json:"codec" bson:"codec"`
	ContentHash string            `json:"content_hash,omitempty" bson:"content_hash,omitempty"`
	Structure   string            `json:"structure" bson:"structure"`
	Tree        *document.Tree    `json:"tree" bson:"tree"`
	Metadata    template.Metadata `json:"metadata" bson:"metadata"`
	CreatedAt   time.Time         `json:"created_at" bson:"created_at"`
}

// Summary is the listing form of a record, without the tree.
type Summary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Codec      string    `json:"codec"`
	Containers []string  `json:"containers"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewRecord assigns a fresh ID to tree and wraps it in a record with its
// template metadata and structure fingerprint. The tree is copied.
func NewRecord(name, codec string, tree *document.Tree) (*Record, error) {
	if tree == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil document")
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "generate document id")
	}

	t := tree.Clone()
	t.ID = id.String()
	return &Record{
		ID:        t.ID,
		Name:      name,
		Codec:     codec,
		Structure: t.Fingerprint(),
		Tree:      t,
		Metadata:  template.Extract(t),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Summary returns the listing form of r.
func (r *Record) Summary() Summary {
	return Summary{
		ID:         r.ID,
		Name:       r.Name,
		Codec:      r.Codec,
		Containers: r.Metadata.Names(),
		CreatedAt:  r.CreatedAt,
	}
}

// Store is the interface for document registry backends.
type Store interface {
	// Get returns the record with the given ID, or a DOCUMENT_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Record, error)

	// Put stores a record, replacing any record with the same ID.
	Put(ctx context.Context, rec *Record) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// ValidateID checks that id is a well-formed record ID.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid document id %q", id)
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeDocumentNotFound, "document %s not found", id)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
