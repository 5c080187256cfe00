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

// CategoryStore manages the portal's category reference data.
type CategoryStore struct {
	store docstore.Store
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(ds docstore.Store) *CategoryStore {
	return &CategoryStore{store: ds}
}

// List returns all categories ordered by display order.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	docs, err := s.store.Run(ctx, docstore.NewQuery(categoriesCollection).
		OrderBy("order", docstore.Asc))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories := make([]models.Category, 0, len(docs))
	for _, doc := range docs {
		c, err := decodeInto[models.Category](doc.Data)
		if err != nil {
			return nil, fmt.Errorf("decode category %s: %w", doc.ID, err)
		}
		categories = append(categories, *c)
	}
	return categories, nil
}

// FindByID retrieves a category, or (nil, nil) when absent. Articles may
// reference a deleted category; callers resolve that to "no category"
// rather than failing.
func (s *CategoryStore) FindByID(ctx context.Context, id string) (*models.Category, error) {
	data, err := s.store.Get(ctx, categoriesCollection, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return decodeInto[models.Category](data)
}

// Create inserts a new category with generated slugs and timestamps.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	fillSlugs(&c.Slug, c.Name)
	now := normalize.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	doc, err := normalize.ToDoc(c)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	if err := s.store.Create(ctx, categoriesCollection, c.ID, doc); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Update rewrites a category, bumping updatedAt.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	c.UpdatedAt = normalize.Now()
	doc, err := normalize.ToDoc(c)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if err := s.store.Set(ctx, categoriesCollection, c.ID, doc); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category. Articles referencing it are left untouched:
// the dangling categoryId resolves to nothing at read time.
func (s *CategoryStore) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, categoriesCollection, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
