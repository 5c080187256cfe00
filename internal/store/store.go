// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

// Package store implements the portal's data access layer on top of the
// document store: article listing and lookup, related-article resolution,
// reference data (categories, tags, authors), edit drafts, and comments.
// Every store receives its docstore handle at construction.
package store

import "lyonguide/internal/normalize"

// Collection names in the document store.
const (
	articlesCollection   = "articles"
	categoriesCollection = "categories"
	tagsCollection       = "tags"
	authorsCollection    = "authors"
	draftsCollection     = "article_drafts"
	commentsCollection   = "comments"
)

// decodeInto converts a raw store document into a typed model.
func decodeInto[T any](data map[string]any) (*T, error) {
	var v T
	if err := normalize.FromDoc(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
