// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"lyonguide/internal/docstore"
	"lyonguide/internal/models"
	"lyonguide/internal/normalize"
)

// AuthorStore manages the portal's author reference data.
type AuthorStore struct {
	store docstore.Store
}

// NewAuthorStore returns a new AuthorStore.
func NewAuthorStore(ds docstore.Store) *AuthorStore {
	return &AuthorStore{store: ds}
}

// List returns all authors ordered by name.
func (s *AuthorStore) List(ctx context.Context) ([]models.Author, error) {
	docs, err := s.store.Run(ctx, docstore.NewQuery(authorsCollection).
		OrderBy("name", docstore.Asc))
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	authors := make([]models.Author, 0, len(docs))
	for _, doc := range docs {
		a, err := decodeInto[models.Author](doc.Data)
		if err != nil {
			return nil, fmt.Errorf("decode author %s: %w", doc.ID, err)
		}
		authors = append(authors, *a)
	}
	return authors, nil
}

// FindByID retrieves an author, or (nil, nil) when absent.
func (s *AuthorStore) FindByID(ctx context.Context, id string) (*models.Author, error) {
	data, err := s.store.Get(ctx, authorsCollection, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return decodeInto[models.Author](data)
}

// Create inserts a new author with timestamps.
func (s *AuthorStore) Create(ctx context.Context, a *models.Author) (*models.Author, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := normalize.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	doc, err := normalize.ToDoc(a)
	if err != nil {
		return nil, fmt.Errorf("create author: %w", err)
	}
	if err := s.store.Create(ctx, authorsCollection, a.ID, doc); err != nil {
		return nil, fmt.Errorf("create author: %w", err)
	}
	return a, nil
}

// Update rewrites an author, bumping updatedAt.
func (s *AuthorStore) Update(ctx context.Context, a *models.Author) error {
	a.UpdatedAt = normalize.Now()
	doc, err := normalize.ToDoc(a)
	if err != nil {
		return fmt.Errorf("update author: %w", err)
	}
	if err := s.store.Set(ctx, authorsCollection, a.ID, doc); err != nil {
		return fmt.Errorf("update author: %w", err)
	}
	return nil
}

// Delete removes an author.
func (s *AuthorStore) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, authorsCollection, id); err != nil {
		return fmt.Errorf("delete author: %w", err)
	}
	return nil
}
