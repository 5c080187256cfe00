// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"

	"lyonguide/internal/normalize"
)

// ArticleStatus represents the publishing lifecycle of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
	StatusScheduled ArticleStatus = "scheduled"
	StatusArchived  ArticleStatus = "archived"
)

// ModerationStatus is the approval gate independent of publish status.
// Both published status and approved moderation are required for public
// visibility.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

// FeaturedImage describes an article's lead image as served from blob
// storage.
type FeaturedImage struct {
	URL     string        `json:"url"`
	Alt     LocalizedText `json:"alt,omitempty"`
	Credits string        `json:"credits,omitempty"`
	Width   int           `json:"width,omitempty"`
	Height  int           `json:"height,omitempty"`
}

// SEO holds per-article search metadata.
type SEO struct {
	MetaTitle       LocalizedText `json:"metaTitle,omitempty"`
	MetaDescription LocalizedText `json:"metaDescription,omitempty"`
	Keywords        []string      `json:"keywords,omitempty"`
	CanonicalURL    string        `json:"canonicalUrl,omitempty"`
	NoIndex         bool          `json:"noIndex,omitempty"`
}

// Metrics counts reader interactions. Views are incremented server-side on
// every public fetch; ReadingTime is derived from the content.
type Metrics struct {
	Views       int `json:"views"`
	Shares      int `json:"shares"`
	Likes       int `json:"likes"`
	Comments    int `json:"comments"`
	ReadingTime int `json:"readingTime"`
}

// Moderation records the approval decision for an article.
type Moderation struct {
	Status      ModerationStatus `json:"status"`
	ModeratorID string           `json:"moderatorId,omitempty"`
	ReviewedAt  *normalize.Time  `json:"reviewedAt,omitempty"`
}

// Featured controls homepage placement of an article.
type Featured struct {
	IsFeatured bool `json:"isFeatured"`
	Priority   int  `json:"priority"`
}

// AIState tracks whether the article has unapplied AI suggestions.
type AIState struct {
	HasPendingSuggestion bool `json:"hasPendingSuggestion"`
	SuggestionCount      int  `json:"suggestionCount"`
}

// Article is a blog or news entry on the portal.
type Article struct {
	ID            string          `json:"id"`
	Title         LocalizedText   `json:"title"`
	Slug          LocalizedText   `json:"slug"`
	Excerpt       LocalizedText   `json:"excerpt,omitempty"`
	Content       LocalizedText   `json:"content,omitempty"`
	FeaturedImage *FeaturedImage  `json:"featuredImage,omitempty"`
	CategoryID    string          `json:"categoryId,omitempty"`
	TagIDs        []string        `json:"tagIds,omitempty"`
	AuthorID      string          `json:"authorId,omitempty"`
	Status        ArticleStatus   `json:"status"`
	PublishedAt   *normalize.Time `json:"publishedAt,omitempty"`
	ScheduledAt   *normalize.Time `json:"scheduledAt,omitempty"`
	SEO           SEO             `json:"seo,omitempty"`
	Metrics       Metrics         `json:"metrics"`
	Moderation    Moderation      `json:"moderation"`
	Featured      Featured        `json:"featured"`
	AI            AIState         `json:"ai"`
	CreatedAt     normalize.Time  `json:"createdAt"`
	CreatedBy     string          `json:"createdBy,omitempty"`
	UpdatedAt     normalize.Time  `json:"updatedAt"`
	UpdatedBy     string          `json:"updatedBy,omitempty"`
}

// IsPubliclyVisible reports whether the article may appear in public
// listings: published AND moderation-approved.
func (a *Article) IsPubliclyVisible() bool {
	return a.Status == StatusPublished && a.Moderation.Status == ModerationApproved
}

// readingWordsPerMinute is the assumed reading speed for the derived
// readingTime metric.
const readingWordsPerMinute = 200

// ReadingTime estimates reading minutes for localized content, based on
// the French text (the authoritative version) with the usual fallback.
// Always at least one minute for non-empty content.
func ReadingTime(content LocalizedText) int {
	text := content.Resolve(DefaultLocale)
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	minutes := words / readingWordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// MatchesSearch reports whether the article's localized title, excerpt, or
// content contains the query as a case-insensitive substring. Used for the
// client-side text search over an already-fetched page.
func (a *Article) MatchesSearch(query string, locale Locale) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{
		a.Title.Resolve(locale),
		a.Excerpt.Resolve(locale),
		a.Content.Resolve(locale),
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
