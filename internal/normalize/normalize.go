// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

// Package normalize converts between typed models and the schemaless
// documents held by the document store. It owns the store's timestamp
// representation and strips empty fields before writes so that absent
// and never-set fields are indistinguishable, matching document-store
// semantics.
package normalize

import (
	"encoding/json"
	"fmt"
)

// ToDoc converts a typed value into a store document. The value is passed
// through its JSON representation, then nil values and empty maps/slices
// are removed so they are not persisted as explicit nulls.
func ToDoc(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize marshal: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("normalize unmarshal: %w", err)
	}
	stripEmpty(doc)
	return doc, nil
}

// FromDoc converts a store document back into a typed value.
// Missing fields are left at their zero value.
func FromDoc(doc map[string]any, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize marshal doc: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("normalize decode doc: %w", err)
	}
	return nil
}

// stripEmpty removes nil values, empty maps, and empty slices in place,
// recursing into nested objects. Empty strings and zero numbers are kept:
// they are meaningful values, not absent fields.
func stripEmpty(doc map[string]any) {
	for k, v := range doc {
		switch val := v.(type) {
		case nil:
			delete(doc, k)
		case map[string]any:
			stripEmpty(val)
			if len(val) == 0 {
				delete(doc, k)
			}
		case []any:
			if len(val) == 0 {
				delete(doc, k)
				continue
			}
			for _, item := range val {
				if m, ok := item.(map[string]any); ok {
					stripEmpty(m)
				}
			}
		}
	}
}
