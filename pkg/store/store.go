// Package store provides the keyed document store the courtroom persists
// cases and verdicts into. Documents are nested JSON records addressed by
// (collection, id); Set merges into the existing document.
package store

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

// DocumentStore is the opaque keyed store boundary.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string) (map[string]any, error)
	// Set writes doc under (collection, id). Top-level keys merge into
	// any existing document; absent keys are preserved.
	Set(ctx context.Context, collection, id string, doc map[string]any) error
	// Query returns all documents in collection whose top-level field
	// equals value.
	Query(ctx context.Context, collection, field string, value any) ([]map[string]any, error)
}

// merge applies doc over base, top-level keys only.
func merge(base, doc map[string]any) map[string]any {
	if base == nil {
		base = make(map[string]any, len(doc))
	}
	for k, v := range doc {
		base[k] = v
	}
	return base
}
