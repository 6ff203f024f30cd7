// Package store provides the document store that holds machine records.
// Documents are flat JSON objects keyed by machine ID; writes are merges of
// top-level fields.
package store

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when no document exists for the key.
var ErrNotFound = errors.New("document not found")

// Document is a stored JSON object split into its top-level fields.
type Document map[string]json.RawMessage

// Entry is a document together with its key.
type Entry struct {
	ID  string
	Doc Document
}

// Store is the document persistence used by the collector.
// Merge must be atomic per document: concurrent merges on one key are
// serialized and the last one wins field by field.
type Store interface {
	Get(ctx context.Context, id string) (Document, error)
	Merge(ctx context.Context, id string, fields Document) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Entry, error)
	Close() error
}
