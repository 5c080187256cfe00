// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Memory is a map-backed document store with the same query semantics as
// the Postgres adapter. The store layer is constructed against the Store
// interface, so tests run against Memory without a database.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string]map[string]any)}
}

// clone deep-copies a document through its JSON form so callers can never
// mutate stored state through a returned map.
func clone(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	raw, _ := json.Marshal(doc)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return out
}

func (m *Memory) coll(name string) map[string]map[string]any {
	c, ok := m.collections[name]
	if !ok {
		c = make(map[string]map[string]any)
		m.collections[name] = c
	}
	return c
}

func (m *Memory) Create(ctx context.Context, collection, id string, doc map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.coll(collection)
	if _, ok := c[id]; ok {
		return ErrExists
	}
	c[id] = clone(doc)
	return nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, nil
	}
	return clone(doc), nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, doc map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coll(collection)[id] = clone(doc)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil
	}
	for path, value := range fields {
		if !fieldPathRe.MatchString(path) {
			return fmt.Errorf("docstore: invalid field path %q", path)
		}
		segs := segments(path)
		switch len(segs) {
		case 1:
			doc[segs[0]] = normalizeValue(value)
		case 2:
			parent, ok := doc[segs[0]].(map[string]any)
			if !ok {
				parent = map[string]any{}
				doc[segs[0]] = parent
			}
			parent[segs[1]] = normalizeValue(value)
		default:
			return fmt.Errorf("docstore: field path %q too deep", path)
		}
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	return nil
}

func (m *Memory) Increment(ctx context.Context, collection, id, fieldPath string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return nil
	}
	if !fieldPathRe.MatchString(fieldPath) {
		return fmt.Errorf("docstore: invalid field path %q", fieldPath)
	}
	segs := segments(fieldPath)
	target := doc
	for _, seg := range segs[:len(segs)-1] {
		child, ok := target[seg].(map[string]any)
		if !ok {
			child = map[string]any{}
			target[seg] = child
		}
		target = child
	}
	leaf := segs[len(segs)-1]
	current, _ := target[leaf].(float64)
	target[leaf] = current + float64(delta)
	return nil
}

func (m *Memory) Run(ctx context.Context, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var docs []Document
	for id, doc := range m.collections[q.Collection] {
		if matches(doc, q) {
			docs = append(docs, Document{ID: id, Data: clone(doc)})
		}
	}
	m.mu.RUnlock()

	sortDocs(docs, q.OrderField, q.OrderDir)

	if q.After != nil {
		idx := -1
		for i, d := range docs {
			if d.ID == q.After.ID {
				idx = i
				break
			}
		}
		if idx >= 0 {
			docs = docs[idx+1:]
		} else {
			// Cursor document no longer matches; resume from its sort
			// position the way the real store does.
			docs = afterPosition(docs, *q.After, q.OrderField, q.OrderDir)
		}
	}

	if q.MaxResults > 0 && len(docs) > q.MaxResults {
		docs = docs[:q.MaxResults]
	}
	return docs, nil
}

func (m *Memory) Count(ctx context.Context, q Query) (int, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, doc := range m.collections[q.Collection] {
		if matches(doc, q) {
			count++
		}
	}
	return count, nil
}

func (m *Memory) ApplyBatch(ctx context.Context, ops []BatchOp) error {
	if len(ops) > BatchLimit {
		return fmt.Errorf("docstore: batch of %d exceeds limit %d", len(ops), BatchLimit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		switch op.Kind {
		case BatchSet:
			m.coll(op.Collection)[op.ID] = clone(op.Doc)
		case BatchDelete:
			delete(m.collections[op.Collection], op.ID)
		}
	}
	return nil
}

// matches evaluates all filters of q against a document.
func matches(doc map[string]any, q Query) bool {
	for _, f := range q.Filters {
		val, _ := lookup(doc, f.Path)
		cmp := compareValues(val, normalizeValue(f.Value))
		switch f.Op {
		case OpEqual:
			if cmp != 0 {
				return false
			}
		case OpLess:
			if cmp >= 0 {
				return false
			}
		case OpLessOrEqual:
			if cmp > 0 {
				return false
			}
		case OpGreater:
			if cmp <= 0 {
				return false
			}
		case OpGreaterOrEqual:
			if cmp < 0 {
				return false
			}
		}
	}
	if q.AnyOf != nil {
		val, _ := lookup(doc, q.AnyOf.Path)
		arr, ok := val.([]any)
		if !ok {
			return false
		}
		found := false
		for _, item := range arr {
			s, ok := item.(string)
			if !ok {
				continue
			}
			for _, want := range q.AnyOf.Values {
				if s == want {
					found = true
					break
				}
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// normalizeValue passes a Go value through JSON so typed inputs (ints,
// custom timestamp types) compare against decoded documents.
func normalizeValue(v any) any {
	switch v.(type) {
	case nil, bool, float64, string:
		return v
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

func sortDocs(docs []Document, field string, dir Direction) {
	sort.SliceStable(docs, func(i, j int) bool {
		c := orderCompare(docs[i], docs[j], field)
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
}

func orderCompare(a, b Document, field string) int {
	if field != "" {
		av, _ := lookup(a.Data, field)
		bv, _ := lookup(b.Data, field)
		if c := compareValues(av, bv); c != 0 {
			return c
		}
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// afterPosition drops every document at or before the cursor's sort position.
func afterPosition(docs []Document, cursor Document, field string, dir Direction) []Document {
	out := docs[:0:0]
	for _, d := range docs {
		c := orderCompare(d, cursor, field)
		if dir == Desc {
			c = -c
		}
		if c > 0 {
			out = append(out, d)
		}
	}
	return out
}
