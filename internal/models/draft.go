// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package models

import "lyonguide/internal/normalize"

// DraftSource records where a proposed edit came from.
type DraftSource string

const (
	DraftSourceManual DraftSource = "manual"
	DraftSourceAI     DraftSource = "ai"
)

// FieldChange describes one field-level difference between a draft and the
// live article it targets.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"oldValue,omitempty"`
	NewValue any    `json:"newValue,omitempty"`
}

// DraftAIMeta carries provenance for AI-generated drafts.
type DraftAIMeta struct {
	Model      string  `json:"model"`
	Prompt     string  `json:"prompt,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Suggestion string  `json:"suggestion,omitempty"`
}

// ArticleDraft is an unapplied proposed edit to an article. Drafts are
// immutable once created: editing one means creating a replacement and
// discarding the old. Applying a draft copies its snapshot onto the live
// article and deletes the draft.
type ArticleDraft struct {
	ID        string         `json:"id"`
	ArticleID string         `json:"articleId"`
	Title     LocalizedText  `json:"title,omitempty"`
	Excerpt   LocalizedText  `json:"excerpt,omitempty"`
	Content   LocalizedText  `json:"content,omitempty"`
	SEO       SEO            `json:"seo,omitempty"`
	Changes   []FieldChange  `json:"changes,omitempty"`
	Source    DraftSource    `json:"source"`
	AI        *DraftAIMeta   `json:"ai,omitempty"`
	CreatedAt normalize.Time `json:"createdAt"`
	CreatedBy string         `json:"createdBy,omitempty"`
}
