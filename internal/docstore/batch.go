// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package docstore

import "context"

// Batch accumulates write operations and commits them in chunks of at most
// BatchLimit. Chunks commit independently: a failure mid-way leaves the
// already-committed chunks applied, which is acceptable for seeding and
// one-off migrations but not for production data mutation.
type Batch struct {
	store Store
	ops   []BatchOp
}

// NewBatch starts a batch against the given store.
func NewBatch(store Store) *Batch {
	return &Batch{store: store}
}

// Set queues a full document write.
func (b *Batch) Set(collection, id string, doc map[string]any) {
	b.ops = append(b.ops, BatchOp{Kind: BatchSet, Collection: collection, ID: id, Doc: doc})
}

// Delete queues a document removal.
func (b *Batch) Delete(collection, id string) {
	b.ops = append(b.ops, BatchOp{Kind: BatchDelete, Collection: collection, ID: id})
}

// Len returns the number of queued operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Commit flushes the queued operations in order and reports how many were
// applied. On error, the count covers the chunks that committed before the
// failure.
func (b *Batch) Commit(ctx context.Context) (int, error) {
	applied := 0
	for len(b.ops) > 0 {
		chunk := b.ops
		if len(chunk) > BatchLimit {
			chunk = chunk[:BatchLimit]
		}
		if err := b.store.ApplyBatch(ctx, chunk); err != nil {
			return applied, err
		}
		applied += len(chunk)
		b.ops = b.ops[len(chunk):]
	}
	return applied, nil
}
