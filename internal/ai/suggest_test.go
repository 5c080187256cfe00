package ai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"lyonguide/internal/docstore"
	"lyonguide/internal/models"
	"lyonguide/internal/store"
)

// fakeChatServer imitates an OpenAI-compatible chat completions endpoint,
// always answering with the given content string.
func fakeChatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req chatRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request body: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}

		resp := chatResponse{Choices: []chatChoice{{Message: chatMessage{
			Role:    "assistant",
			Content: content,
		}}}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func newSuggestEnv(t *testing.T, serverURL string) (*Suggester, *store.ArticleStore, *store.DraftStore) {
	t.Helper()
	ds := docstore.NewMemory()
	categories := store.NewCategoryStore(ds)
	tags := store.NewTagStore(ds)
	articles := store.NewArticleStore(ds, categories, tags)
	drafts := store.NewDraftStore(ds, articles)

	registry := NewRegistry("openai", map[string]ProviderConfig{
		"openai": {APIKey: "test-key", Model: "gpt-4o-mini", BaseURL: serverURL},
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSuggester(registry, articles, drafts, logger), articles, drafts
}

func TestSuggestCreatesAIDraft(t *testing.T) {
	srv := fakeChatServer(t, `{
		"title": "Les traboules, passages secrets de Lyon",
		"excerpt": "",
		"metaTitle": "Traboules de Lyon",
		"metaDescription": "",
		"keywords": ["traboules", "vieux lyon"],
		"confidence": 0.85,
		"summary": "Titre plus descriptif et SEO renforcé."
	}`)
	defer srv.Close()

	ctx := context.Background()
	suggester, articles, drafts := newSuggestEnv(t, srv.URL)

	a, err := articles.Create(ctx, &models.Article{
		Title:   models.LocalizedText{FR: "Les traboules"},
		Content: models.LocalizedText{FR: "Les traboules relient les rues à travers les cours."},
	})
	if err != nil {
		t.Fatalf("create article: %v", err)
	}

	draft, err := suggester.Suggest(ctx, a.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}

	if draft.Source != models.DraftSourceAI {
		t.Errorf("source = %s", draft.Source)
	}
	if draft.Title.FR != "Les traboules, passages secrets de Lyon" {
		t.Errorf("title = %q", draft.Title.FR)
	}
	if draft.Excerpt.FR != "" {
		t.Errorf("empty suggestion should not set excerpt, got %q", draft.Excerpt.FR)
	}
	if draft.AI == nil || draft.AI.Model != "gpt-4o-mini" || draft.AI.Confidence != 0.85 {
		t.Errorf("ai meta = %+v", draft.AI)
	}

	// One change per improved field: title, metaTitle, keywords.
	if len(draft.Changes) != 3 {
		t.Errorf("changes = %+v", draft.Changes)
	}
	byField := map[string]models.FieldChange{}
	for _, c := range draft.Changes {
		byField[c.Field] = c
	}
	if c, ok := byField["title"]; !ok || c.OldValue != "Les traboules" {
		t.Errorf("title change = %+v", c)
	}
	if _, ok := byField["seo.keywords"]; !ok {
		t.Error("missing seo.keywords change")
	}

	// The draft is persisted and the article flagged.
	listed, err := drafts.ListByArticle(ctx, a.ID)
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("drafts on file = %d, want 1", len(listed))
	}
	got, _ := articles.FindByID(ctx, a.ID)
	if !got.AI.HasPendingSuggestion {
		t.Error("article should carry the pending-suggestion flag")
	}
}

func TestSuggestWithFencedResponse(t *testing.T) {
	srv := fakeChatServer(t, "```json\n{\"title\": \"Nouveau\", \"confidence\": 0.5}\n```")
	defer srv.Close()

	ctx := context.Background()
	suggester, articles, _ := newSuggestEnv(t, srv.URL)
	a, err := articles.Create(ctx, &models.Article{Title: models.LocalizedText{FR: "Ancien"}})
	if err != nil {
		t.Fatalf("create article: %v", err)
	}

	draft, err := suggester.Suggest(ctx, a.ID)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if draft.Title.FR != "Nouveau" {
		t.Errorf("title = %q", draft.Title.FR)
	}
}

func TestSuggestNoChangesIsAnError(t *testing.T) {
	// The model judged everything fine: no draft should be created.
	srv := fakeChatServer(t, `{"title": "", "excerpt": "", "confidence": 0.9}`)
	defer srv.Close()

	ctx := context.Background()
	suggester, articles, drafts := newSuggestEnv(t, srv.URL)
	a, err := articles.Create(ctx, &models.Article{Title: models.LocalizedText{FR: "Déjà parfait"}})
	if err != nil {
		t.Fatalf("create article: %v", err)
	}

	if _, err := suggester.Suggest(ctx, a.ID); err == nil {
		t.Error("expected an error when the model proposes nothing")
	}
	listed, _ := drafts.ListByArticle(ctx, a.ID)
	if len(listed) != 0 {
		t.Errorf("drafts on file = %d, want 0", len(listed))
	}
}

func TestSuggestUnknownArticle(t *testing.T) {
	srv := fakeChatServer(t, `{}`)
	defer srv.Close()

	suggester, _, _ := newSuggestEnv(t, srv.URL)
	if _, err := suggester.Suggest(context.Background(), "ghost"); err == nil {
		t.Error("expected an error for a missing article")
	}
}

func TestModeratorFlagsUnsafeContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/moderations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"flagged":true,"categories":{"harassment":true,"violence":false}}]}`))
	}))
	defer srv.Close()

	m := NewModerator(ProviderConfig{APIKey: "test-key", BaseURL: srv.URL})
	result, err := m.Check(context.Background(), "some comment")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if result.Safe {
		t.Error("flagged content should not be safe")
	}
	if len(result.Categories) != 1 || result.Categories[0] != "harassment" {
		t.Errorf("categories = %v", result.Categories)
	}
}

func TestNewModeratorWithoutKey(t *testing.T) {
	if m := NewModerator(ProviderConfig{}); m != nil {
		t.Error("no API key should mean no moderator")
	}
}

func TestRegistrySelection(t *testing.T) {
	r := NewRegistry("mistral", map[string]ProviderConfig{
		"openai":  {APIKey: "k1", Model: "gpt-4o-mini"},
		"mistral": {APIKey: "k2", Model: "mistral-small-latest"},
	})

	p, err := r.Active()
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if p.Name() != "mistral" {
		t.Errorf("active = %s", p.Name())
	}

	if err := r.SetActive("openai"); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if r.ActiveName() != "openai" {
		t.Errorf("active name = %s", r.ActiveName())
	}
	if err := r.SetActive("gemini"); err == nil {
		t.Error("unknown provider should be rejected")
	}

	// Providers without keys are not registered.
	empty := NewRegistry("openai", map[string]ProviderConfig{
		"openai": {Model: "gpt-4o-mini"},
	})
	if _, err := empty.Active(); err == nil {
		t.Error("expected error when the active provider has no key")
	}
}
