// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

// Package docstore provides the document store used for all portal content.
// Documents are schemaless JSON objects grouped into named collections and
// addressed by string ids. Two implementations exist: a PostgreSQL adapter
// (one JSONB row per document) used in production, and an in-memory store
// used by tests.
//
// The query surface deliberately mirrors what a hosted document database
// offers and nothing more: equality filters, a single inequality-range
// field, array-contains-any, one ordering target, limits, and document
// cursors. Queries outside that envelope are rejected rather than emulated.
package docstore

import (
	"context"
	"errors"
)

// BatchLimit is the maximum number of operations a single batch commit
// may carry, matching the store's documented ceiling.
const BatchLimit = 500

// ErrExists is returned by Create when a document with the same id is
// already present in the collection.
var ErrExists = errors.New("docstore: document already exists")

// Document is a single stored object: its id and its decoded JSON body.
type Document struct {
	ID   string
	Data map[string]any
}

// Store is the handle every data store receives at construction. It is
// passed explicitly rather than held in a package-level singleton so the
// query services can be exercised against the in-memory implementation.
type Store interface {
	// Create inserts a new document. ErrExists if the id is taken.
	Create(ctx context.Context, collection, id string, doc map[string]any) error

	// Get returns a document by id, or (nil, nil) when absent.
	Get(ctx context.Context, collection, id string) (map[string]any, error)

	// Set writes a document unconditionally, replacing any previous body.
	Set(ctx context.Context, collection, id string, doc map[string]any) error

	// Update merges individual fields into an existing document. Keys are
	// dotted field paths ("moderation.status"); at most two levels deep.
	// Updating an absent document is a no-op.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Increment atomically adds delta to a numeric field. The addition
	// happens server-side in a single statement, so concurrent increments
	// are additive. A missing field starts from zero.
	Increment(ctx context.Context, collection, id, fieldPath string, delta int64) error

	// Run executes a query and returns matching documents in query order.
	Run(ctx context.Context, q Query) ([]Document, error)

	// Count returns the number of documents matching the query's filters.
	// Limit and cursor are ignored.
	Count(ctx context.Context, q Query) (int, error)

	// ApplyBatch applies up to BatchLimit write operations. There is no
	// rollback across separate calls; Batch handles chunking.
	ApplyBatch(ctx context.Context, ops []BatchOp) error
}

// BatchOpKind distinguishes batch write operations.
type BatchOpKind int

const (
	BatchSet BatchOpKind = iota
	BatchDelete
)

// BatchOp is a single queued batch write.
type BatchOp struct {
	Kind       BatchOpKind
	Collection string
	ID         string
	Doc        map[string]any
}
