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

// DraftStore persists proposed article edits (manual or AI-generated) as
// separate immutable documents. There is no update operation: editing a
// draft means creating a replacement and discarding the old one.
type DraftStore struct {
	store    docstore.Store
	articles *ArticleStore
}

// NewDraftStore returns a new DraftStore. The article store is needed to
// maintain the article's AI suggestion flags and to apply drafts.
func NewDraftStore(ds docstore.Store, articles *ArticleStore) *DraftStore {
	return &DraftStore{store: ds, articles: articles}
}

// Create persists a new draft and returns its id. For AI-generated drafts
// the source article's suggestion flags are updated as a side effect.
func (s *DraftStore) Create(ctx context.Context, d *models.ArticleDraft) (string, error) {
	if d.ArticleID == "" {
		return "", fmt.Errorf("create draft: missing article id")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Source == "" {
		d.Source = models.DraftSourceManual
	}
	d.CreatedAt = normalize.Now()

	doc, err := normalize.ToDoc(d)
	if err != nil {
		return "", fmt.Errorf("create draft: %w", err)
	}
	if err := s.store.Create(ctx, draftsCollection, d.ID, doc); err != nil {
		return "", fmt.Errorf("create draft: %w", err)
	}

	if d.Source == models.DraftSourceAI {
		if err := s.store.Update(ctx, articlesCollection, d.ArticleID, map[string]any{
			"ai.hasPendingSuggestion": true,
		}); err != nil {
			return "", fmt.Errorf("flag pending suggestion: %w", err)
		}
		if err := s.store.Increment(ctx, articlesCollection, d.ArticleID, "ai.suggestionCount", 1); err != nil {
			return "", fmt.Errorf("count suggestion: %w", err)
		}
	}

	return d.ID, nil
}

// ListByArticle returns all drafts for an article, newest first.
func (s *DraftStore) ListByArticle(ctx context.Context, articleID string) ([]models.ArticleDraft, error) {
	docs, err := s.store.Run(ctx, docstore.NewQuery(draftsCollection).
		Where("articleId", docstore.OpEqual, articleID).
		OrderBy("createdAt", docstore.Desc))
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	drafts := make([]models.ArticleDraft, 0, len(docs))
	for _, doc := range docs {
		d, err := decodeInto[models.ArticleDraft](doc.Data)
		if err != nil {
			return nil, fmt.Errorf("decode draft %s: %w", doc.ID, err)
		}
		drafts = append(drafts, *d)
	}
	return drafts, nil
}

// FindByID retrieves a draft, or (nil, nil) when absent.
func (s *DraftStore) FindByID(ctx context.Context, id string) (*models.ArticleDraft, error) {
	data, err := s.store.Get(ctx, draftsCollection, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return decodeInto[models.ArticleDraft](data)
}

// Delete discards a draft. Deleting an already-deleted draft is not an
// error: discard is idempotent. The article's suggestion flag is refreshed
// from the remaining drafts.
func (s *DraftStore) Delete(ctx context.Context, id string) error {
	draft, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if draft == nil {
		return nil
	}
	if err := s.store.Delete(ctx, draftsCollection, id); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return s.refreshSuggestionFlag(ctx, draft.ArticleID)
}

// Apply copies the draft's snapshot onto the live article and deletes the
// draft. Conflict policy is last-write-wins: the draft overwrites whatever
// the article holds now, with no version check (see DESIGN.md). Applying
// a missing draft returns (nil, nil).
func (s *DraftStore) Apply(ctx context.Context, id string) (*models.Article, error) {
	draft, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, nil
	}

	article, err := s.articles.FindByID(ctx, draft.ArticleID)
	if err != nil {
		return nil, err
	}
	if article == nil {
		return nil, fmt.Errorf("apply draft %s: article %s not found", id, draft.ArticleID)
	}

	if !draft.Title.IsEmpty() {
		article.Title = draft.Title
	}
	if !draft.Excerpt.IsEmpty() {
		article.Excerpt = draft.Excerpt
	}
	if !draft.Content.IsEmpty() {
		article.Content = draft.Content
	}
	article.SEO = mergeSEO(article.SEO, draft.SEO)
	article.UpdatedBy = draft.CreatedBy

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, fmt.Errorf("apply draft %s: %w", id, err)
	}
	if err := s.store.Delete(ctx, draftsCollection, id); err != nil {
		return nil, fmt.Errorf("apply draft %s: %w", id, err)
	}
	if err := s.refreshSuggestionFlag(ctx, draft.ArticleID); err != nil {
		return nil, err
	}
	return article, nil
}

// refreshSuggestionFlag recomputes ai.hasPendingSuggestion from the drafts
// still on file.
func (s *DraftStore) refreshSuggestionFlag(ctx context.Context, articleID string) error {
	count, err := s.store.Count(ctx, docstore.NewQuery(draftsCollection).
		Where("articleId", docstore.OpEqual, articleID).
		Where("source", docstore.OpEqual, string(models.DraftSourceAI)))
	if err != nil {
		return fmt.Errorf("count pending suggestions: %w", err)
	}
	return s.store.Update(ctx, articlesCollection, articleID, map[string]any{
		"ai.hasPendingSuggestion": count > 0,
	})
}

// mergeSEO overlays non-empty draft SEO fields onto the article's.
func mergeSEO(base, overlay models.SEO) models.SEO {
	if !overlay.MetaTitle.IsEmpty() {
		base.MetaTitle = overlay.MetaTitle
	}
	if !overlay.MetaDescription.IsEmpty() {
		base.MetaDescription = overlay.MetaDescription
	}
	if len(overlay.Keywords) > 0 {
		base.Keywords = overlay.Keywords
	}
	if overlay.CanonicalURL != "" {
		base.CanonicalURL = overlay.CanonicalURL
	}
	return base
}
