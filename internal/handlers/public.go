// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"lyonguide/internal/ai"
	"lyonguide/internal/cache"
	"lyonguide/internal/markdown"
	"lyonguide/internal/models"
	"lyonguide/internal/store"
)

// Public groups the read-mostly handlers behind the site's JSON API.
// moderator may be nil (no automated spam screening).
type Public struct {
	articles   *store.ArticleStore
	categories *store.CategoryStore
	tags       *store.TagStore
	authors    *store.AuthorStore
	comments   *store.CommentStore
	respCache  *cache.ResponseCache
	moderator  ai.Moderator
}

// NewPublic creates the public handler group.
func NewPublic(articles *store.ArticleStore, categories *store.CategoryStore, tags *store.TagStore, authors *store.AuthorStore, comments *store.CommentStore, respCache *cache.ResponseCache, moderator ai.Moderator) *Public {
	return &Public{
		articles:   articles,
		categories: categories,
		tags:       tags,
		authors:    authors,
		comments:   comments,
		respCache:  respCache,
		moderator:  moderator,
	}
}

// ListArticles handles GET /api/articles. All filters arrive as query
// parameters; see parseListFilter for the accepted set.
func (p *Public) ListArticles(w http.ResponseWriter, r *http.Request) {
	if p.serveCached(w, r) {
		return
	}

	f, err := parseListFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := p.articles.List(r.Context(), f)
	if err != nil {
		internalError(w, "list articles failed", err)
		return
	}

	p.respondCacheable(w, r, http.StatusOK, result)
}

// parseListFilter maps query parameters onto a store.ListFilter. Unknown
// values fall back to defaults rather than erroring; only malformed dates
// are rejected.
func parseListFilter(r *http.Request) (store.ListFilter, error) {
	q := r.URL.Query()

	f := store.ListFilter{
		Page:       atoiOr(q.Get("page"), 0),
		Limit:      atoiOr(q.Get("limit"), 0),
		CategoryID: q.Get("category"),
		Status:     models.ArticleStatus(q.Get("status")),
		Search:     q.Get("q"),
		Locale:     models.ParseLocale(q.Get("locale")),
		SortBy:     store.SortField(q.Get("sort")),
		SortDir:    q.Get("dir"),
	}

	// Public listings only ever see published content.
	f.Status = models.StatusPublished

	if tags := q.Get("tags"); tags != "" {
		for _, id := range strings.Split(tags, ",") {
			if id = strings.TrimSpace(id); id != "" {
				f.TagIDs = append(f.TagIDs, id)
			}
		}
	}

	if v := q.Get("featured"); v != "" {
		featured := v == "true" || v == "1"
		f.Featured = &featured
	}

	for param, dst := range map[string]**time.Time{"from": &f.DateFrom, "to": &f.DateTo} {
		if v := q.Get(param); v != "" {
			t, err := time.Parse("2006-01-02", v)
			if err != nil {
				return f, &badDateError{param: param, value: v}
			}
			*dst = &t
		}
	}

	return f, nil
}

type badDateError struct{ param, value string }

func (e *badDateError) Error() string {
	return "invalid " + e.param + " date " + strconv.Quote(e.value) + ", want YYYY-MM-DD"
}

// articleResponse wraps an article with its content rendered to HTML in
// the requested locale.
type articleResponse struct {
	models.Article
	ContentHTML string `json:"contentHtml,omitempty"`
}

// GetArticle handles GET /api/articles/{slug}. The lookup tries the
// requested locale's slug first and falls back to the French one. A hit
// also records a view, asynchronously.
func (p *Public) GetArticle(w http.ResponseWriter, r *http.Request) {
	slugValue := chi.URLParam(r, "slug")
	locale := models.ParseLocale(r.URL.Query().Get("locale"))

	article, err := p.articles.FindBySlug(r.Context(), slugValue, locale)
	if err != nil {
		internalError(w, "find article failed", err)
		return
	}
	if article == nil || !article.IsPubliclyVisible() {
		respondError(w, http.StatusNotFound, "article not found")
		return
	}

	html, err := markdown.ToHTML(article.Content.Resolve(locale))
	if err != nil {
		internalError(w, "render article failed", err)
		return
	}

	respondJSON(w, http.StatusOK, articleResponse{
		Article:     *article,
		ContentHTML: html,
	})
}

// RelatedArticles handles GET /api/articles/{slug}/related.
func (p *Public) RelatedArticles(w http.ResponseWriter, r *http.Request) {
	slugValue := chi.URLParam(r, "slug")
	locale := models.ParseLocale(r.URL.Query().Get("locale"))
	limit := atoiOr(r.URL.Query().Get("limit"), 4)

	article, err := p.articles.PeekBySlug(r.Context(), slugValue, locale)
	if err != nil {
		internalError(w, "find article failed", err)
		return
	}
	if article == nil || !article.IsPubliclyVisible() {
		respondError(w, http.StatusNotFound, "article not found")
		return
	}

	related, err := p.articles.Related(r.Context(), article.ID, article.CategoryID, article.TagIDs, limit)
	if err != nil {
		internalError(w, "related articles failed", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"articles": related})
}

// ListCategories handles GET /api/categories.
func (p *Public) ListCategories(w http.ResponseWriter, r *http.Request) {
	if p.serveCached(w, r) {
		return
	}
	categories, err := p.categories.List(r.Context())
	if err != nil {
		internalError(w, "list categories failed", err)
		return
	}
	p.respondCacheable(w, r, http.StatusOK, map[string]any{"categories": categories})
}

// ListTags handles GET /api/tags.
func (p *Public) ListTags(w http.ResponseWriter, r *http.Request) {
	if p.serveCached(w, r) {
		return
	}
	tags, err := p.tags.List(r.Context())
	if err != nil {
		internalError(w, "list tags failed", err)
		return
	}
	p.respondCacheable(w, r, http.StatusOK, map[string]any{"tags": tags})
}

// GetAuthor handles GET /api/authors/{id}.
func (p *Public) GetAuthor(w http.ResponseWriter, r *http.Request) {
	author, err := p.authors.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, "find author failed", err)
		return
	}
	if author == nil {
		respondError(w, http.StatusNotFound, "author not found")
		return
	}
	respondJSON(w, http.StatusOK, author)
}

// ListComments handles GET /api/articles/{slug}/comments: the approved
// comments of an article, newest first.
func (p *Public) ListComments(w http.ResponseWriter, r *http.Request) {
	article, err := p.findVisibleBySlug(r)
	if err != nil {
		internalError(w, "find article failed", err)
		return
	}
	if article == nil {
		respondError(w, http.StatusNotFound, "article not found")
		return
	}

	comments, err := p.comments.ListApprovedByArticle(r.Context(), article.ID)
	if err != nil {
		internalError(w, "list comments failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

// commentRequest is the reader-facing comment submission payload.
type commentRequest struct {
	ParentID string `json:"parentId,omitempty"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Content  string `json:"content"`
}

// CreateComment handles POST /api/articles/{slug}/comments. New comments
// land in the moderation queue as pending; when a moderator (the AI kind)
// flags the text, the comment is stored as spam instead so editors never
// see it by default.
func (p *Public) CreateComment(w http.ResponseWriter, r *http.Request) {
	article, err := p.findVisibleBySlug(r)
	if err != nil {
		internalError(w, "find article failed", err)
		return
	}
	if article == nil {
		respondError(w, http.StatusNotFound, "article not found")
		return
	}

	var req commentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Content = strings.TrimSpace(req.Content)
	if req.Name == "" || req.Content == "" {
		respondError(w, http.StatusBadRequest, "name and content are required")
		return
	}
	if len(req.Content) > 5000 {
		respondError(w, http.StatusBadRequest, "comment too long")
		return
	}
	if req.ParentID != "" {
		parent, err := p.comments.FindByID(r.Context(), req.ParentID)
		if err != nil {
			internalError(w, "find parent comment failed", err)
			return
		}
		if parent == nil || parent.ArticleID != article.ID {
			respondError(w, http.StatusBadRequest, "unknown parent comment")
			return
		}
	}

	comment := &models.Comment{
		ArticleID: article.ID,
		ParentID:  req.ParentID,
		Author:    models.CommentAuthor{Name: req.Name, Email: req.Email},
		Content:   req.Content,
	}

	if p.moderator != nil {
		checkCtx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		result, err := p.moderator.Check(checkCtx, req.Content)
		cancel()
		switch {
		case err != nil:
			// Screening is best-effort: an unreachable moderation API must
			// not block readers, the comment just stays pending.
			slog.Warn("comment moderation check failed", "error", err)
		case !result.Safe:
			comment.Status = models.CommentSpam
			slog.Info("comment flagged as spam", "article", article.ID, "categories", result.Categories)
		}
	}

	created, err := p.comments.Create(r.Context(), comment)
	if err != nil {
		internalError(w, "create comment failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// findVisibleBySlug resolves {slug} to a publicly visible article, or
// nil. No view is counted; only GetArticle itself records one.
func (p *Public) findVisibleBySlug(r *http.Request) (*models.Article, error) {
	locale := models.ParseLocale(r.URL.Query().Get("locale"))
	article, err := p.articles.PeekBySlug(r.Context(), chi.URLParam(r, "slug"), locale)
	if err != nil {
		return nil, err
	}
	if article == nil || !article.IsPubliclyVisible() {
		return nil, nil
	}
	return article, nil
}

// serveCached answers GET requests from the response cache when possible.
func (p *Public) serveCached(w http.ResponseWriter, r *http.Request) bool {
	body, ok := p.respCache.Get(r.Context(), r.URL.RequestURI())
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "hit")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	return true
}

// respondCacheable writes the JSON response and stores a copy in the
// response cache keyed by request URI.
func (p *Public) respondCacheable(w http.ResponseWriter, r *http.Request, status int, v any) {
	respondJSON(w, status, v)
	// Re-encode for the cache; bodies are small and this keeps the
	// handler path free of buffering.
	if body, err := jsonBytes(v); err == nil {
		p.respCache.Set(r.Context(), r.URL.RequestURI(), body)
	}
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
