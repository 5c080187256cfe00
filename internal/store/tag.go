// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"lyonguide/internal/docstore"
	"lyonguide/internal/models"
	"lyonguide/internal/normalize"
)

// TagStore manages the portal's tag reference data.
type TagStore struct {
	store docstore.Store
}

// NewTagStore returns a new TagStore.
func NewTagStore(ds docstore.Store) *TagStore {
	return &TagStore{store: ds}
}

// List returns all tags ordered by French name.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	docs, err := s.store.Run(ctx, docstore.NewQuery(tagsCollection).
		OrderBy("name.fr", docstore.Asc))
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	tags := make([]models.Tag, 0, len(docs))
	for _, doc := range docs {
		t, err := decodeInto[models.Tag](doc.Data)
		if err != nil {
			return nil, fmt.Errorf("decode tag %s: %w", doc.ID, err)
		}
		tags = append(tags, *t)
	}
	return tags, nil
}

// FindByID retrieves a tag, or (nil, nil) when absent.
func (s *TagStore) FindByID(ctx context.Context, id string) (*models.Tag, error) {
	data, err := s.store.Get(ctx, tagsCollection, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return decodeInto[models.Tag](data)
}

// FindManyByIDs fetches several tags as parallel individual reads — the
// store has no batched get. Missing ids are skipped; the result keeps the
// input order.
func (s *TagStore) FindManyByIDs(ctx context.Context, ids []string) ([]models.Tag, error) {
	results := make([]*models.Tag, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range ids {
		g.Go(func() error {
			t, err := s.FindByID(gctx, id)
			if err != nil {
				return err
			}
			results[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch tags: %w", err)
	}

	tags := make([]models.Tag, 0, len(ids))
	for _, t := range results {
		if t != nil {
			tags = append(tags, *t)
		}
	}
	return tags, nil
}

// Create inserts a new tag with generated slugs and timestamps.
func (s *TagStore) Create(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	fillSlugs(&t.Slug, t.Name)
	now := normalize.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	doc, err := normalize.ToDoc(t)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	if err := s.store.Create(ctx, tagsCollection, t.ID, doc); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return t, nil
}

// Update rewrites a tag, bumping updatedAt.
func (s *TagStore) Update(ctx context.Context, t *models.Tag) error {
	t.UpdatedAt = normalize.Now()
	doc, err := normalize.ToDoc(t)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	if err := s.store.Set(ctx, tagsCollection, t.ID, doc); err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return nil
}

// Delete removes a tag. Articles keep the dangling tag id.
func (s *TagStore) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, tagsCollection, id); err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}
