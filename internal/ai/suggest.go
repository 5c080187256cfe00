// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"lyonguide/internal/models"
	"lyonguide/internal/store"
)

const suggestSystemPrompt = `Tu es le rédacteur en chef du Guide de Lyon, un portail
sur la vie culturelle, gastronomique et touristique de Lyon. On te donne un article
existant et tu proposes des améliorations éditoriales en français : un titre plus
accrocheur, un extrait plus vendeur, et des métadonnées SEO optimisées.

Réponds UNIQUEMENT avec un objet JSON de cette forme :
{
  "title": "nouveau titre, ou chaîne vide si le titre actuel est bon",
  "excerpt": "nouvel extrait (160 caractères max), ou chaîne vide",
  "metaTitle": "titre SEO (60 caractères max), ou chaîne vide",
  "metaDescription": "description SEO (155 caractères max), ou chaîne vide",
  "keywords": ["mot-clé", "..."],
  "confidence": 0.0,
  "summary": "une phrase expliquant tes changements"
}

Ne propose un champ que si ta version est réellement meilleure. confidence est
ta certitude entre 0 et 1.`

// suggestion is the JSON shape the model is prompted to return.
type suggestion struct {
	Title           string   `json:"title"`
	Excerpt         string   `json:"excerpt"`
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	Keywords        []string `json:"keywords"`
	Confidence      float64  `json:"confidence"`
	Summary         string   `json:"summary"`
}

// Suggester asks the active LLM provider for editorial improvements to an
// article and records them as a pending AI draft. Nothing touches the live
// article until an editor applies the draft.
type Suggester struct {
	registry *Registry
	articles *store.ArticleStore
	drafts   *store.DraftStore
	logger   *slog.Logger
}

// NewSuggester returns a new Suggester.
func NewSuggester(registry *Registry, articles *store.ArticleStore, drafts *store.DraftStore, logger *slog.Logger) *Suggester {
	return &Suggester{registry: registry, articles: articles, drafts: drafts, logger: logger}
}

// Suggest generates an improvement draft for the given article. It returns
// the created draft, or an error when no provider is configured, the model
// output cannot be parsed, or the model had nothing to propose.
func (s *Suggester) Suggest(ctx context.Context, articleID string) (*models.ArticleDraft, error) {
	provider, err := s.registry.Active()
	if err != nil {
		return nil, err
	}

	article, err := s.articles.FindByID(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	if article == nil {
		return nil, fmt.Errorf("suggest: article %s not found", articleID)
	}

	userPrompt := buildSuggestPrompt(article)

	raw, err := provider.Generate(ctx, suggestSystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	var sg suggestion
	if err := parseJSON(raw, &sg); err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	draft := buildDraft(article, sg)
	if draft == nil {
		return nil, fmt.Errorf("suggest: model proposed no changes for article %s", articleID)
	}
	draft.AI = &models.DraftAIMeta{
		Model:      provider.Model(),
		Prompt:     userPrompt,
		Confidence: sg.Confidence,
		Suggestion: sg.Summary,
	}

	if _, err := s.drafts.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	s.logger.Info("ai suggestion created",
		"article", articleID,
		"draft", draft.ID,
		"provider", provider.Name(),
		"changes", len(draft.Changes))

	return draft, nil
}

// buildSuggestPrompt renders the article's current French content for the
// model. Content is truncated: the model only needs enough to judge tone.
func buildSuggestPrompt(a *models.Article) string {
	content := a.Content.FR
	if len(content) > 4000 {
		content = content[:4000] + "\n[...]"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Titre actuel : %s\n", a.Title.FR)
	fmt.Fprintf(&b, "Extrait actuel : %s\n", a.Excerpt.FR)
	if a.SEO.MetaTitle.FR != "" {
		fmt.Fprintf(&b, "Titre SEO actuel : %s\n", a.SEO.MetaTitle.FR)
	}
	if a.SEO.MetaDescription.FR != "" {
		fmt.Fprintf(&b, "Description SEO actuelle : %s\n", a.SEO.MetaDescription.FR)
	}
	fmt.Fprintf(&b, "\nContenu :\n%s\n", content)
	return b.String()
}

// buildDraft converts a model suggestion into a draft, recording one
// FieldChange per field the model actually changed. Returns nil when the
// suggestion leaves everything as-is.
func buildDraft(a *models.Article, sg suggestion) *models.ArticleDraft {
	draft := &models.ArticleDraft{
		ArticleID: a.ID,
		Source:    models.DraftSourceAI,
	}

	if sg.Title != "" && sg.Title != a.Title.FR {
		draft.Title = models.LocalizedText{FR: sg.Title}
		draft.Changes = append(draft.Changes, models.FieldChange{
			Field: "title", OldValue: a.Title.FR, NewValue: sg.Title,
		})
	}
	if sg.Excerpt != "" && sg.Excerpt != a.Excerpt.FR {
		draft.Excerpt = models.LocalizedText{FR: sg.Excerpt}
		draft.Changes = append(draft.Changes, models.FieldChange{
			Field: "excerpt", OldValue: a.Excerpt.FR, NewValue: sg.Excerpt,
		})
	}
	if sg.MetaTitle != "" && sg.MetaTitle != a.SEO.MetaTitle.FR {
		draft.SEO.MetaTitle = models.LocalizedText{FR: sg.MetaTitle}
		draft.Changes = append(draft.Changes, models.FieldChange{
			Field: "seo.metaTitle", OldValue: a.SEO.MetaTitle.FR, NewValue: sg.MetaTitle,
		})
	}
	if sg.MetaDescription != "" && sg.MetaDescription != a.SEO.MetaDescription.FR {
		draft.SEO.MetaDescription = models.LocalizedText{FR: sg.MetaDescription}
		draft.Changes = append(draft.Changes, models.FieldChange{
			Field: "seo.metaDescription", OldValue: a.SEO.MetaDescription.FR, NewValue: sg.MetaDescription,
		})
	}
	if len(sg.Keywords) > 0 {
		draft.SEO.Keywords = sg.Keywords
		draft.Changes = append(draft.Changes, models.FieldChange{
			Field: "seo.keywords", OldValue: a.SEO.Keywords, NewValue: sg.Keywords,
		})
	}

	if len(draft.Changes) == 0 {
		return nil
	}
	return draft
}
