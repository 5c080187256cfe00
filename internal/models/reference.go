// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package models

import "lyonguide/internal/normalize"

// Category groups articles into the portal's sections (culture,
// gastronomie, tourisme…). Deleting a category does not cascade: articles
// may carry a dangling categoryId, resolved to nothing at read time.
type Category struct {
	ID          string         `json:"id"`
	Name        LocalizedText  `json:"name"`
	Slug        LocalizedText  `json:"slug"`
	Description LocalizedText  `json:"description,omitempty"`
	Color       string         `json:"color,omitempty"`
	Icon        string         `json:"icon,omitempty"`
	Order       int            `json:"order"`
	Active      bool           `json:"active"`
	CreatedAt   normalize.Time `json:"createdAt"`
	UpdatedAt   normalize.Time `json:"updatedAt"`
}

// Tag is a free-form label attached to articles (many-to-many via
// Article.TagIDs).
type Tag struct {
	ID        string         `json:"id"`
	Name      LocalizedText  `json:"name"`
	Slug      LocalizedText  `json:"slug"`
	Color     string         `json:"color,omitempty"`
	CreatedAt normalize.Time `json:"createdAt"`
	UpdatedAt normalize.Time `json:"updatedAt"`
}

// SocialLinks holds an author's public profiles.
type SocialLinks struct {
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Website   string `json:"website,omitempty"`
}

// Author is a content writer shown on article pages.
type Author struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Bio       LocalizedText  `json:"bio,omitempty"`
	AvatarURL string         `json:"avatarUrl,omitempty"`
	Social    SocialLinks    `json:"social,omitempty"`
	Active    bool           `json:"active"`
	CreatedAt normalize.Time `json:"createdAt"`
	UpdatedAt normalize.Time `json:"updatedAt"`
}
