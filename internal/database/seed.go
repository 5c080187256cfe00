package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"lyonguide/internal/docstore"
	"lyonguide/internal/models"
	"lyonguide/internal/normalize"
)

// Seed populates the document store with initial development content:
// the portal's main sections, a few tags, an editorial author, and sample
// articles. It is a no-op when articles already exist.
//
// All writes go through a single batch. The batch commits in chunks with
// no rollback across them, which is fine for a dev seed but is why this
// function never runs in production.
func Seed(ctx context.Context, ds docstore.Store) error {
	count, err := ds.Count(ctx, docstore.NewQuery("articles"))
	if err != nil {
		return fmt.Errorf("seed check articles: %w", err)
	}
	if count > 0 {
		slog.Info("document store already seeded, skipping")
		return nil
	}

	batch := docstore.NewBatch(ds)
	now := normalize.Now()

	categories := []models.Category{
		{
			ID:     uuid.NewString(),
			Name:   models.LocalizedText{FR: "Culture", EN: "Culture"},
			Slug:   models.LocalizedText{FR: "culture", EN: "culture"},
			Color:  "#7c3aed",
			Icon:   "masks",
			Order:  1,
			Active: true,
		},
		{
			ID:     uuid.NewString(),
			Name:   models.LocalizedText{FR: "Gastronomie", EN: "Food & Drink"},
			Slug:   models.LocalizedText{FR: "gastronomie", EN: "food-drink"},
			Color:  "#dc2626",
			Icon:   "utensils",
			Order:  2,
			Active: true,
		},
		{
			ID:     uuid.NewString(),
			Name:   models.LocalizedText{FR: "Tourisme", EN: "Tourism"},
			Slug:   models.LocalizedText{FR: "tourisme", EN: "tourism"},
			Color:  "#0284c7",
			Icon:   "map",
			Order:  3,
			Active: true,
		},
	}

	tags := []models.Tag{
		{ID: uuid.NewString(), Name: models.LocalizedText{FR: "Fête des Lumières", EN: "Festival of Lights"}, Slug: models.LocalizedText{FR: "fete-des-lumieres", EN: "festival-of-lights"}},
		{ID: uuid.NewString(), Name: models.LocalizedText{FR: "Vieux Lyon", EN: "Old Lyon"}, Slug: models.LocalizedText{FR: "vieux-lyon", EN: "old-lyon"}},
		{ID: uuid.NewString(), Name: models.LocalizedText{FR: "Bouchons", EN: "Bouchons"}, Slug: models.LocalizedText{FR: "bouchons", EN: "bouchons"}},
	}

	author := models.Author{
		ID:     uuid.NewString(),
		Name:   "Rédaction Guide de Lyon",
		Email:  "redaction@guide-de-lyon.fr",
		Bio:    models.LocalizedText{FR: "L'équipe éditoriale du Guide de Lyon."},
		Active: true,
	}

	articles := []models.Article{
		{
			ID:          uuid.NewString(),
			Title:       models.LocalizedText{FR: "La Fête des Lumières revient en décembre", EN: "The Festival of Lights returns in December"},
			Slug:        models.LocalizedText{FR: "la-fete-des-lumieres-revient-en-decembre", EN: "the-festival-of-lights-returns-in-december"},
			Excerpt:     models.LocalizedText{FR: "Quatre soirées d'installations lumineuses dans toute la ville."},
			Content:     models.LocalizedText{FR: "Du 5 au 8 décembre, la Fête des Lumières illumine la presqu'île et les pentes de la Croix-Rousse."},
			CategoryID:  categories[0].ID,
			TagIDs:      []string{tags[0].ID},
			AuthorID:    author.ID,
			Status:      models.StatusPublished,
			PublishedAt: &now,
			Moderation:  models.Moderation{Status: models.ModerationApproved},
			Featured:    models.Featured{IsFeatured: true, Priority: 1},
		},
		{
			ID:          uuid.NewString(),
			Title:       models.LocalizedText{FR: "Les meilleurs bouchons du Vieux Lyon"},
			Slug:        models.LocalizedText{FR: "les-meilleurs-bouchons-du-vieux-lyon"},
			Excerpt:     models.LocalizedText{FR: "Notre sélection de tables traditionnelles."},
			Content:     models.LocalizedText{FR: "Quenelles, tablier de sapeur et cervelle de canut : où bien manger dans le quartier Saint-Jean."},
			CategoryID:  categories[1].ID,
			TagIDs:      []string{tags[1].ID, tags[2].ID},
			AuthorID:    author.ID,
			Status:      models.StatusPublished,
			PublishedAt: &now,
			Moderation:  models.Moderation{Status: models.ModerationApproved},
		},
		{
			ID:         uuid.NewString(),
			Title:      models.LocalizedText{FR: "Week-end à Fourvière : brouillon"},
			Slug:       models.LocalizedText{FR: "week-end-a-fourviere-brouillon"},
			Content:    models.LocalizedText{FR: "Notes de repérage pour le prochain dossier tourisme."},
			CategoryID: categories[2].ID,
			AuthorID:   author.ID,
			Status:     models.StatusDraft,
			Moderation: models.Moderation{Status: models.ModerationPending},
		},
	}

	for i := range categories {
		categories[i].CreatedAt = now
		categories[i].UpdatedAt = now
		if err := queue(batch, "categories", categories[i].ID, &categories[i]); err != nil {
			return err
		}
	}
	for i := range tags {
		tags[i].CreatedAt = now
		tags[i].UpdatedAt = now
		if err := queue(batch, "tags", tags[i].ID, &tags[i]); err != nil {
			return err
		}
	}
	author.CreatedAt = now
	author.UpdatedAt = now
	if err := queue(batch, "authors", author.ID, &author); err != nil {
		return err
	}
	for i := range articles {
		articles[i].Metrics.ReadingTime = models.ReadingTime(articles[i].Content)
		articles[i].CreatedAt = now
		articles[i].UpdatedAt = now
		if err := queue(batch, "articles", articles[i].ID, &articles[i]); err != nil {
			return err
		}
	}

	applied, err := batch.Commit(ctx)
	if err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("document store seeded", "documents", applied)
	return nil
}

// queue normalizes a model and adds it to the batch.
func queue(batch *docstore.Batch, collection, id string, v any) error {
	doc, err := normalize.ToDoc(v)
	if err != nil {
		return fmt.Errorf("seed encode %s/%s: %w", collection, id, err)
	}
	batch.Set(collection, id, doc)
	return nil
}
