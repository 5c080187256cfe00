// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lyonguide/internal/ai"
	"lyonguide/internal/cache"
	"lyonguide/internal/models"
	"lyonguide/internal/storage"
	"lyonguide/internal/store"
)

// maxUploadSize is the maximum allowed media upload size (20 MB).
const maxUploadSize = 20 << 20

// allowedMediaTypes defines MIME types accepted for upload.
var allowedMediaTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// Admin groups the back-office handlers. Everything here sits behind the
// X-API-Key middleware. storageClient may be nil (no S3 configured) and
// suggester may be nil (no AI provider configured).
type Admin struct {
	articles   *store.ArticleStore
	categories *store.CategoryStore
	tags       *store.TagStore
	authors    *store.AuthorStore
	drafts     *store.DraftStore
	comments   *store.CommentStore
	suggester  *ai.Suggester
	registry   *ai.Registry
	storage    *storage.Client
	respCache  *cache.ResponseCache
}

// NewAdmin creates the admin handler group.
func NewAdmin(articles *store.ArticleStore, categories *store.CategoryStore, tags *store.TagStore, authors *store.AuthorStore, drafts *store.DraftStore, comments *store.CommentStore, suggester *ai.Suggester, registry *ai.Registry, storageClient *storage.Client, respCache *cache.ResponseCache) *Admin {
	return &Admin{
		articles:   articles,
		categories: categories,
		tags:       tags,
		authors:    authors,
		drafts:     drafts,
		comments:   comments,
		suggester:  suggester,
		registry:   registry,
		storage:    storageClient,
		respCache:  respCache,
	}
}

// invalidate drops all cached public responses after a write. The cache
// is small and short-lived, so wholesale invalidation beats tracking
// which listings a write touched.
func (a *Admin) invalidate(r *http.Request) {
	a.respCache.InvalidateAll(r.Context())
}

// --- Articles ---

// ListArticles handles GET /admin/api/articles. Unlike the public
// listing it accepts any status, defaulting to all published.
func (a *Admin) ListArticles(w http.ResponseWriter, r *http.Request) {
	f, err := parseListFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Admins may list any status, including unmoderated drafts.
	if s := r.URL.Query().Get("status"); s != "" {
		f.Status = models.ArticleStatus(s)
	}

	result, err := a.articles.List(r.Context(), f)
	if err != nil {
		internalError(w, "admin list articles failed", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetArticle handles GET /admin/api/articles/{id}.
func (a *Admin) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := a.articles.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, "find article failed", err)
		return
	}
	if article == nil {
		respondError(w, http.StatusNotFound, "article not found")
		return
	}
	respondJSON(w, http.StatusOK, article)
}

// CreateArticle handles POST /admin/api/articles.
func (a *Admin) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var article models.Article
	if err := decodeBody(r, &article); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if article.Title.IsEmpty() {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	created, err := a.articles.Create(r.Context(), &article)
	if err != nil {
		internalError(w, "create article failed", err)
		return
	}
	a.invalidate(r)
	respondJSON(w, http.StatusCreated, created)
}

// UpdateArticle handles PUT /admin/api/articles/{id}.
func (a *Admin) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	var article models.Article
	if err := decodeBody(r, &article); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	article.ID = chi.URLParam(r, "id")

	existing, err := a.articles.FindByID(r.Context(), article.ID)
	if err != nil {
		internalError(w, "find article failed", err)
		return
	}
	if existing == nil {
		respondError(w, http.StatusNotFound, "article not found")
		return
	}

	if err := a.articles.Update(r.Context(), &article); err != nil {
		internalError(w, "update article failed", err)
		return
	}
	a.invalidate(r)
	respondJSON(w, http.StatusOK, map[string]string{"id": article.ID})
}

// DeleteArticle handles DELETE /admin/api/articles/{id}.
func (a *Admin) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := a.articles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, "delete article failed", err)
		return
	}
	a.invalidate(r)
	w.WriteHeader(http.StatusNoContent)
}

// --- Drafts & AI suggestions ---

// SuggestDraft handles POST /admin/api/articles/{id}/suggest: ask the
// active LLM provider for editorial improvements and queue them as a
// pending draft.
func (a *Admin) SuggestDraft(w http.ResponseWriter, r *http.Request) {
	if a.suggester == nil {
		respondError(w, http.StatusServiceUnavailable, "no AI provider configured")
		return
	}

	draft, err := a.suggester.Suggest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, "ai suggestion failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, draft)
}

// ListDrafts handles GET /admin/api/articles/{id}/drafts.
func (a *Admin) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := a.drafts.ListByArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, "list drafts failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"drafts": drafts})
}

// CreateDraft handles POST /admin/api/articles/{id}/drafts: a manual
// proposed edit.
func (a *Admin) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var draft models.ArticleDraft
	if err := decodeBody(r, &draft); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	draft.ArticleID = chi.URLParam(r, "id")
	draft.Source = models.DraftSourceManual

	id, err := a.drafts.Create(r.Context(), &draft)
	if err != nil {
		internalError(w, "create draft failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// ApplyDraft handles POST /admin/api/drafts/{id}/apply: copy the draft
// onto the live article and discard it.
func (a *Admin) ApplyDraft(w http.ResponseWriter, r *http.Request) {
	article, err := a.drafts.Apply(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, "apply draft failed", err)
		return
	}
	if article == nil {
		respondError(w, http.StatusNotFound, "draft not found")
		return
	}
	a.invalidate(r)
	respondJSON(w, http.StatusOK, article)
}

// DiscardDraft handles DELETE /admin/api/drafts/{id}. Discarding is
// idempotent: deleting a missing draft succeeds.
func (a *Admin) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := a.drafts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, "discard draft failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Categories ---

func (a *Admin) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.categories.List(r.Context())
	if err != nil {
		internalError(w, "list categories failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (a *Admin) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c models.Category
	if err := decodeBody(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.categories.Create(r.Context(), &c)
	if err != nil {
		internalError(w, "create category failed", err)
		return
	}
	a.invalidate(r)
	respondJSON(w, http.StatusCreated, created)
}

func (a *Admin) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c models.Category
	if err := decodeBody(r, &c); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.ID = chi.URLParam(r, "id")
	if err := a.categories.Update(r.Context(), &c); err != nil {
		internalError(w, "update category failed", err)
		return
	}
	a.invalidate(r)
	respondJSON(w, http.StatusOK, map[string]string{"id": c.ID})
}

func (a *Admin) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := a.categories.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, "delete category failed", err)
		return
	}
	a.invalidate(r)
	w.WriteHeader(http.StatusNoContent)
}

// --- Tags ---

func (a *Admin) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := a.tags.List(r.Context())
	if err != nil {
		internalError(w, "list tags failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (a *Admin) CreateTag(w http.ResponseWriter, r *http.Request) {
	var t models.Tag
	if err := decodeBody(r, &t); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.tags.Create(r.Context(), &t)
	if err != nil {
		internalError(w, "create tag failed", err)
		return
	}
	a.invalidate(r)
	respondJSON(w, http.StatusCreated, created)
}

func (a *Admin) UpdateTag(w http.ResponseWriter, r *http.Request) {
	var t models.Tag
	if err := decodeBody(r, &t); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.ID = chi.URLParam(r, "id")
	if err := a.tags.Update(r.Context(), &t); err != nil {
		internalError(w, "update tag failed", err)
		return
	}
	a.invalidate(r)
	respondJSON(w, http.StatusOK, map[string]string{"id": t.ID})
}

func (a *Admin) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := a.tags.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, "delete tag failed", err)
		return
	}
	a.invalidate(r)
	w.WriteHeader(http.StatusNoContent)
}

// --- Authors ---

func (a *Admin) ListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := a.authors.List(r.Context())
	if err != nil {
		internalError(w, "list authors failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"authors": authors})
}

func (a *Admin) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var author models.Author
	if err := decodeBody(r, &author); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.authors.Create(r.Context(), &author)
	if err != nil {
		internalError(w, "create author failed", err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (a *Admin) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	var author models.Author
	if err := decodeBody(r, &author); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	author.ID = chi.URLParam(r, "id")
	if err := a.authors.Update(r.Context(), &author); err != nil {
		internalError(w, "update author failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": author.ID})
}

func (a *Admin) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	if err := a.authors.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, "delete author failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Comment moderation ---

// ListComments handles GET /admin/api/comments?status=pending: the
// moderation queue, oldest first.
func (a *Admin) ListComments(w http.ResponseWriter, r *http.Request) {
	status := models.CommentStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.CommentPending
	}

	comments, err := a.comments.ListByStatus(r.Context(), status)
	if err != nil {
		internalError(w, "list comments failed", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

// SetCommentStatus handles POST /admin/api/comments/{id}/status.
func (a *Admin) SetCommentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.CommentStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch req.Status {
	case models.CommentPending, models.CommentApproved, models.CommentRejected, models.CommentSpam:
	default:
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", req.Status))
		return
	}

	if err := a.comments.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status); err != nil {
		internalError(w, "set comment status failed", err)
		return
	}
	a.invalidate(r)
	respondJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

// DeleteComment handles DELETE /admin/api/comments/{id}.
func (a *Admin) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := a.comments.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		internalError(w, "delete comment failed", err)
		return
	}
	a.invalidate(r)
	w.WriteHeader(http.StatusNoContent)
}

// --- Media ---

// UploadMedia handles POST /admin/api/media: a multipart image upload to
// object storage. The stored key is a uuid plus the original extension;
// the response carries the public URL to paste into article content.
func (a *Admin) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if a.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "file too large, maximum is 20 MB")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedMediaTypes[contentType]
	if !ok {
		respondError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported media type %q", contentType))
		return
	}
	if got := strings.ToLower(filepath.Ext(header.Filename)); got == ".jpeg" {
		ext = ".jpeg"
	}

	key := "media/" + uuid.NewString() + ext
	if err := a.storage.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
		internalError(w, "media upload failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"key": key,
		"url": a.storage.FileURL(key),
	})
}

// GetMedia handles GET /admin/api/media/{key}: streams the stored object
// back to the editor. Covers deployments where the bucket has no public
// URL and editors preview uploads through the API.
func (a *Admin) GetMedia(w http.ResponseWriter, r *http.Request) {
	if a.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}
	key := chi.URLParam(r, "*")
	if key == "" {
		respondError(w, http.StatusBadRequest, "missing media key")
		return
	}
	data, err := a.storage.Download(r.Context(), key)
	if err != nil {
		internalError(w, "media download failed", err)
		return
	}
	if data == nil {
		respondError(w, http.StatusNotFound, "media not found")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}

// DeleteMedia handles DELETE /admin/api/media/{key}.
func (a *Admin) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	if a.storage == nil {
		respondError(w, http.StatusServiceUnavailable, "object storage is not configured")
		return
	}
	key := chi.URLParam(r, "*")
	if key == "" {
		respondError(w, http.StatusBadRequest, "missing media key")
		return
	}
	if err := a.storage.Delete(r.Context(), key); err != nil {
		internalError(w, "media delete failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- AI settings ---

// providerInfo is what the settings endpoint exposes about a provider.
// API keys are intentionally absent.
type providerInfo struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// AIProviders handles GET /admin/api/ai/providers.
func (a *Admin) AIProviders(w http.ResponseWriter, r *http.Request) {
	active := a.registry.ActiveName()
	var providers []providerInfo
	for _, name := range a.registry.Available() {
		providers = append(providers, providerInfo{Name: name, Active: name == active})
	}
	respondJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

// SetAIProvider handles POST /admin/api/ai/provider.
func (a *Admin) SetAIProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.registry.SetActive(req.Name); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"active": req.Name})
}
