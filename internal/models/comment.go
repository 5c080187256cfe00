// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package models

import "lyonguide/internal/normalize"

// CommentStatus moderates reader comments. Only approved comments are
// shown publicly.
type CommentStatus string

const (
	CommentPending  CommentStatus = "pending"
	CommentApproved CommentStatus = "approved"
	CommentRejected CommentStatus = "rejected"
	CommentSpam     CommentStatus = "spam"
)

// CommentAuthor is a snapshot of who wrote the comment, not a live user
// reference: later profile changes do not rewrite history.
type CommentAuthor struct {
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Verified  bool   `json:"verified,omitempty"`
}

// Comment is a reader comment on an article. Threading is single-level:
// a reply references its parent, replies to replies are not allowed.
type Comment struct {
	ID         string         `json:"id"`
	ArticleID  string         `json:"articleId"`
	ParentID   string         `json:"parentId,omitempty"`
	Author     CommentAuthor  `json:"author"`
	Content    string         `json:"content"`
	Status     CommentStatus  `json:"status"`
	LikeCount  int            `json:"likeCount"`
	ReplyCount int            `json:"replyCount"`
	CreatedAt  normalize.Time `json:"createdAt"`
	UpdatedAt  normalize.Time `json:"updatedAt"`
}
