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

// CommentStore manages reader comments. Comments enter as pending and are
// shown publicly only once approved.
type CommentStore struct {
	store docstore.Store
}

// NewCommentStore returns a new CommentStore.
func NewCommentStore(ds docstore.Store) *CommentStore {
	return &CommentStore{store: ds}
}

// Create persists a new comment. Status defaults to pending unless the
// caller (e.g. the spam check) already decided otherwise. Replies bump
// their parent's reply counter; a reply to a reply is reattached to the
// thread root so threading stays single-level.
func (s *CommentStore) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	if c.ArticleID == "" {
		return nil, fmt.Errorf("create comment: missing article id")
	}
	if c.ParentID != "" {
		parent, err := s.FindByID(ctx, c.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("create comment: parent %s not found", c.ParentID)
		}
		if parent.ParentID != "" {
			c.ParentID = parent.ParentID
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = models.CommentPending
	}
	now := normalize.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	doc, err := normalize.ToDoc(c)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if err := s.store.Create(ctx, commentsCollection, c.ID, doc); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	if c.ParentID != "" {
		if err := s.store.Increment(ctx, commentsCollection, c.ParentID, "replyCount", 1); err != nil {
			return nil, fmt.Errorf("count reply: %w", err)
		}
	}
	return c, nil
}

// ListApprovedByArticle returns the approved comments of an article,
// newest first. Threading stays single-level; the caller groups replies
// under their parent.
func (s *CommentStore) ListApprovedByArticle(ctx context.Context, articleID string) ([]models.Comment, error) {
	docs, err := s.store.Run(ctx, docstore.NewQuery(commentsCollection).
		Where("articleId", docstore.OpEqual, articleID).
		Where("status", docstore.OpEqual, string(models.CommentApproved)).
		OrderBy("createdAt", docstore.Desc))
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	comments := make([]models.Comment, 0, len(docs))
	for _, doc := range docs {
		c, err := decodeInto[models.Comment](doc.Data)
		if err != nil {
			return nil, fmt.Errorf("decode comment %s: %w", doc.ID, err)
		}
		comments = append(comments, *c)
	}
	return comments, nil
}

// ListByStatus returns comments in a moderation state, oldest first so
// the admin queue drains in arrival order.
func (s *CommentStore) ListByStatus(ctx context.Context, status models.CommentStatus) ([]models.Comment, error) {
	docs, err := s.store.Run(ctx, docstore.NewQuery(commentsCollection).
		Where("status", docstore.OpEqual, string(status)).
		OrderBy("createdAt", docstore.Asc))
	if err != nil {
		return nil, fmt.Errorf("list comments by status: %w", err)
	}
	comments := make([]models.Comment, 0, len(docs))
	for _, doc := range docs {
		c, err := decodeInto[models.Comment](doc.Data)
		if err != nil {
			return nil, fmt.Errorf("decode comment %s: %w", doc.ID, err)
		}
		comments = append(comments, *c)
	}
	return comments, nil
}

// FindByID retrieves a comment, or (nil, nil) when absent.
func (s *CommentStore) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	data, err := s.store.Get(ctx, commentsCollection, id)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return decodeInto[models.Comment](data)
}

// SetStatus moves a comment through moderation. A transition into
// approved bumps the article's comment counter; a transition out of
// approved decrements it.
func (s *CommentStore) SetStatus(ctx context.Context, id string, status models.CommentStatus) error {
	comment, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if comment == nil {
		return fmt.Errorf("moderate comment %s: not found", id)
	}
	if comment.Status == status {
		return nil
	}

	if err := s.store.Update(ctx, commentsCollection, id, map[string]any{
		"status":    string(status),
		"updatedAt": normalize.Now(),
	}); err != nil {
		return fmt.Errorf("moderate comment %s: %w", id, err)
	}

	var delta int64
	if status == models.CommentApproved {
		delta = 1
	} else if comment.Status == models.CommentApproved {
		delta = -1
	}
	if delta != 0 {
		if err := s.store.Increment(ctx, articlesCollection, comment.ArticleID, "metrics.comments", delta); err != nil {
			return fmt.Errorf("count comment: %w", err)
		}
	}
	return nil
}

// Delete removes a comment permanently. Deleting an approved comment
// decrements the article's comment counter, and a deleted reply releases
// its slot in the parent's reply count. Deleting an absent comment is a
// no-op.
func (s *CommentStore) Delete(ctx context.Context, id string) error {
	comment, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if comment == nil {
		return nil
	}

	if err := s.store.Delete(ctx, commentsCollection, id); err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if comment.Status == models.CommentApproved {
		if err := s.store.Increment(ctx, articlesCollection, comment.ArticleID, "metrics.comments", -1); err != nil {
			return fmt.Errorf("count comment: %w", err)
		}
	}
	if comment.ParentID != "" {
		if err := s.store.Increment(ctx, commentsCollection, comment.ParentID, "replyCount", -1); err != nil {
			return fmt.Errorf("count reply: %w", err)
		}
	}
	return nil
}
