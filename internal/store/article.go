// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"lyonguide/internal/docstore"
	"lyonguide/internal/models"
	"lyonguide/internal/normalize"
	"lyonguide/internal/slug"
)

// SortField selects the ordering of an article listing.
type SortField string

const (
	SortPublishedAt SortField = "publishedAt"
	SortViews       SortField = "views"
	SortTitle       SortField = "title"
)

const (
	defaultPageSize = 12
	maxPageSize     = 50
)

// ListFilter describes one listing request. Zero values mean "no filter".
type ListFilter struct {
	Page       int
	Limit      int
	CategoryID string
	TagIDs     []string // OR semantics: any listed tag matches
	Status     models.ArticleStatus
	Featured   *bool
	DateFrom   *time.Time // inclusive bounds on publish date
	DateTo     *time.Time
	Search     string
	Locale     models.Locale
	SortBy     SortField
	SortDir    string // "asc" or "desc"; empty picks the field's default
}

// Pagination is the paging metadata returned with every listing.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// ListResult is the full listing response: the page of articles, the
// status-filtered total, the complete category and tag collections for
// client-side denormalization, and paging metadata.
type ListResult struct {
	Articles   []models.Article  `json:"articles"`
	Total      int               `json:"total"`
	Categories []models.Category `json:"categories"`
	Tags       []models.Tag      `json:"tags"`
	Pagination Pagination        `json:"pagination"`
}

// ArticleStore composes document-store queries into article listings,
// slug lookups, related-article resolution, and the view counter.
type ArticleStore struct {
	store      docstore.Store
	categories *CategoryStore
	tags       *TagStore
}

// NewArticleStore creates an ArticleStore. The category and tag stores are
// used to attach the reference collections to listing results.
func NewArticleStore(ds docstore.Store, categories *CategoryStore, tags *TagStore) *ArticleStore {
	return &ArticleStore{store: ds, categories: categories, tags: tags}
}

// baseQuery builds the status filter shared by listings and counts. A
// published listing also requires moderation approval; other statuses are
// admin-facing and skip the gate.
func baseQuery(status models.ArticleStatus) docstore.Query {
	q := docstore.NewQuery(articlesCollection).
		Where("status", docstore.OpEqual, string(status))
	if status == models.StatusPublished {
		q = q.Where("moderation.status", docstore.OpEqual, string(models.ModerationApproved))
	}
	return q
}

// List returns one page of articles for the given filter.
//
// The store allows a single inequality-range field and a single orderBy
// target per query, so when a publish-date range is present ordering falls
// back to publishedAt regardless of the requested sort. Pagination is
// offset-emulated: page N first runs a skip query of (N-1)*limit documents
// and resumes after its last one, which costs O(N) store reads for deep
// pages.
//
// Two long-standing caveats are kept deliberately (see DESIGN.md): the
// free-text search narrows only the already-fetched page, and Total counts
// by status alone, ignoring category/tag/date/search filters.
func (s *ArticleStore) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	status := f.Status
	if status == "" {
		status = models.StatusPublished
	}
	locale := f.Locale
	if locale == "" {
		locale = models.DefaultLocale
	}

	q := baseQuery(status)
	if f.CategoryID != "" {
		q = q.Where("categoryId", docstore.OpEqual, f.CategoryID)
	}
	if len(f.TagIDs) > 0 {
		q = q.WhereAnyOf("tagIds", f.TagIDs)
	}
	if f.Featured != nil {
		q = q.Where("featured.isFeatured", docstore.OpEqual, *f.Featured)
	}

	orderField := sortFieldPath(f.SortBy, locale)
	if f.DateFrom != nil {
		q = q.Where("publishedAt", docstore.OpGreaterOrEqual, normalize.NewTime(*f.DateFrom))
		orderField = "publishedAt"
	}
	if f.DateTo != nil {
		q = q.Where("publishedAt", docstore.OpLessOrEqual, normalize.NewTime(*f.DateTo))
		orderField = "publishedAt"
	}

	q = q.OrderBy(orderField, sortDirection(f.SortBy, f.SortDir))

	articles, err := s.runPage(ctx, q, page, limit)
	if err != nil {
		return nil, err
	}

	if f.Search != "" {
		filtered := articles[:0:0]
		for _, a := range articles {
			if a.MatchesSearch(f.Search, locale) {
				filtered = append(filtered, a)
			}
		}
		articles = filtered
	}

	total, err := s.store.Count(ctx, baseQuery(status))
	if err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := (total + limit - 1) / limit
	return &ListResult{
		Articles:   articles,
		Total:      total,
		Categories: categories,
		Tags:       tags,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// runPage executes the offset-emulated pagination: a skip query locates
// the cursor document for page N, then the real query resumes after it.
func (s *ArticleStore) runPage(ctx context.Context, q docstore.Query, page, limit int) ([]models.Article, error) {
	if page > 1 {
		skip := (page - 1) * limit
		skipped, err := s.store.Run(ctx, q.Limit(skip))
		if err != nil {
			return nil, fmt.Errorf("skip to page %d: %w", page, err)
		}
		if len(skipped) < skip {
			// Past the end of the collection.
			return []models.Article{}, nil
		}
		q = q.StartAfter(skipped[len(skipped)-1])
	}

	docs, err := s.store.Run(ctx, q.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	articles := make([]models.Article, 0, len(docs))
	for _, doc := range docs {
		a, err := decodeInto[models.Article](doc.Data)
		if err != nil {
			return nil, fmt.Errorf("decode article %s: %w", doc.ID, err)
		}
		articles = append(articles, *a)
	}
	return articles, nil
}

// sortDirection resolves the requested direction, defaulting to newest or
// most-viewed first and to alphabetical order for title sorts.
func sortDirection(sort SortField, dir string) docstore.Direction {
	switch dir {
	case "asc":
		return docstore.Asc
	case "desc":
		return docstore.Desc
	}
	if sort == SortTitle {
		return docstore.Asc
	}
	return docstore.Desc
}

// sortFieldPath maps a sort selector onto its document field path. Title
// sorts use the localized title for the requested locale.
func sortFieldPath(sort SortField, locale models.Locale) string {
	switch sort {
	case SortViews:
		return "metrics.views"
	case SortTitle:
		return "title." + string(locale)
	default:
		return "publishedAt"
	}
}

// PeekBySlug returns the published, approved article with the given
// localized slug, or (nil, nil) when none exists. No view is recorded:
// supporting endpoints (related articles, comments) resolve the article
// this way so only the article read itself counts.
func (s *ArticleStore) PeekBySlug(ctx context.Context, slugValue string, locale models.Locale) (*models.Article, error) {
	article, err := s.findBySlugPath(ctx, "slug."+string(locale), slugValue)
	if err != nil {
		return nil, err
	}
	if article == nil && locale != models.DefaultLocale {
		// Untranslated articles keep their French slug in every locale.
		article, err = s.findBySlugPath(ctx, "slug."+string(models.DefaultLocale), slugValue)
		if err != nil {
			return nil, err
		}
	}
	return article, nil
}

// FindBySlug is PeekBySlug plus the view count: on a hit, the counter is
// incremented in a detached goroutine so the read path never waits on it;
// increment failures are logged, not surfaced.
func (s *ArticleStore) FindBySlug(ctx context.Context, slugValue string, locale models.Locale) (*models.Article, error) {
	article, err := s.PeekBySlug(ctx, slugValue, locale)
	if err != nil || article == nil {
		return article, err
	}

	go func(id string) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := s.IncrementViews(ctx, id); err != nil {
			slog.Warn("view counter increment failed", "article", id, "error", err)
		}
	}(article.ID)

	return article, nil
}

func (s *ArticleStore) findBySlugPath(ctx context.Context, path, slugValue string) (*models.Article, error) {
	docs, err := s.store.Run(ctx, baseQuery(models.StatusPublished).
		Where(path, docstore.OpEqual, slugValue).
		Limit(1))
	if err != nil {
		return nil, fmt.Errorf("find article by slug: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return decodeInto[models.Article](docs[0].Data)
}

// FindByID returns an article regardless of status, or (nil, nil) when
// absent. Admin-facing; no view increment.
func (s *ArticleStore) FindByID(ctx context.Context, id string) (*models.Article, error) {
	data, err := s.store.Get(ctx, articlesCollection, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return decodeInto[models.Article](data)
}

// IncrementViews adds one to an article's view counter using the store's
// atomic increment. Concurrent reads are additive; a retried request
// double-counts, which is accepted for a view counter.
func (s *ArticleStore) IncrementViews(ctx context.Context, id string) error {
	return s.store.Increment(ctx, articlesCollection, id, "metrics.views", 1)
}

// Related resolves up to limit related articles in two phases: same
// category first (the stronger relevance signal, exhausted before tags),
// then tag overlap to fill the remaining slots. Both phases order by
// publish date descending and exclude the source article.
func (s *ArticleStore) Related(ctx context.Context, articleID, categoryID string, tagIDs []string, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = 4
	}

	var related []models.Article
	seen := map[string]bool{articleID: true}

	if categoryID != "" {
		docs, err := s.store.Run(ctx, baseQuery(models.StatusPublished).
			Where("categoryId", docstore.OpEqual, categoryID).
			OrderBy("publishedAt", docstore.Desc).
			Limit(limit+1))
		if err != nil {
			return nil, fmt.Errorf("related by category: %w", err)
		}
		for _, doc := range docs {
			if seen[doc.ID] {
				continue
			}
			a, err := decodeInto[models.Article](doc.Data)
			if err != nil {
				return nil, fmt.Errorf("decode related article %s: %w", doc.ID, err)
			}
			seen[doc.ID] = true
			related = append(related, *a)
		}
	}

	if len(related) < limit && len(tagIDs) > 0 {
		docs, err := s.store.Run(ctx, baseQuery(models.StatusPublished).
			WhereAnyOf("tagIds", tagIDs).
			OrderBy("publishedAt", docstore.Desc).
			Limit(limit))
		if err != nil {
			return nil, fmt.Errorf("related by tags: %w", err)
		}
		for _, doc := range docs {
			if seen[doc.ID] {
				continue
			}
			a, err := decodeInto[models.Article](doc.Data)
			if err != nil {
				return nil, fmt.Errorf("decode related article %s: %w", doc.ID, err)
			}
			seen[doc.ID] = true
			related = append(related, *a)
		}
	}

	if len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}

// Create inserts a new article. Status defaults to draft, moderation to
// pending; slugs are generated from the title when absent; readingTime is
// derived from the content.
func (s *ArticleStore) Create(ctx context.Context, a *models.Article) (*models.Article, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.StatusDraft
	}
	if a.Moderation.Status == "" {
		a.Moderation.Status = models.ModerationPending
	}
	fillSlugs(&a.Slug, a.Title)
	a.Metrics.ReadingTime = models.ReadingTime(a.Content)
	now := normalize.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == models.StatusPublished && a.PublishedAt == nil {
		a.PublishedAt = &now
	}

	doc, err := normalize.ToDoc(a)
	if err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	if err := s.store.Create(ctx, articlesCollection, a.ID, doc); err != nil {
		return nil, fmt.Errorf("create article: %w", err)
	}
	return a, nil
}

// Update rewrites an article in place. updatedAt is bumped and
// readingTime recomputed whenever the content changed; transitioning to
// published stamps publishedAt if unset.
func (s *ArticleStore) Update(ctx context.Context, a *models.Article) error {
	existing, err := s.FindByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("update article %s: not found", a.ID)
	}

	a.CreatedAt = existing.CreatedAt
	a.CreatedBy = existing.CreatedBy
	a.Metrics.Views = existing.Metrics.Views
	if a.Content != existing.Content {
		a.Metrics.ReadingTime = models.ReadingTime(a.Content)
	}
	a.UpdatedAt = normalize.Now()
	if a.Status == models.StatusPublished && a.PublishedAt == nil {
		now := normalize.Now()
		a.PublishedAt = &now
	}

	doc, err := normalize.ToDoc(a)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	if err := s.store.Set(ctx, articlesCollection, a.ID, doc); err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return nil
}

// Delete removes an article permanently. An explicit admin action; the
// normal lifecycle archives instead.
func (s *ArticleStore) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, articlesCollection, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}

// fillSlugs derives missing localized slugs from the title.
func fillSlugs(slugs *models.LocalizedText, title models.LocalizedText) {
	if slugs.FR == "" && title.FR != "" {
		slugs.FR = slug.Generate(title.FR)
	}
	if slugs.EN == "" && title.EN != "" {
		slugs.EN = slug.Generate(title.EN)
	}
}
