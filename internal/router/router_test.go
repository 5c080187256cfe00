// End-to-end tests for the HTTP surface: real router, real handlers, real
// stores over the in-memory document store. Only Valkey, S3, and the AI
// providers are absent; all of them are optional at runtime too.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lyonguide/internal/docstore"
	"lyonguide/internal/handlers"
	"lyonguide/internal/middleware"
	"lyonguide/internal/models"
	"lyonguide/internal/normalize"
	"lyonguide/internal/store"
)

const testAPIKey = "test-admin-key"

type apiTest struct {
	srv      *httptest.Server
	articles *store.ArticleStore
	comments *store.CommentStore
	drafts   *store.DraftStore
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()

	ds := docstore.NewMemory()
	categories := store.NewCategoryStore(ds)
	tags := store.NewTagStore(ds)
	articles := store.NewArticleStore(ds, categories, tags)
	drafts := store.NewDraftStore(ds, articles)
	comments := store.NewCommentStore(ds)
	authors := store.NewAuthorStore(ds)

	public := handlers.NewPublic(articles, categories, tags, authors, comments, nil, nil)
	admin := handlers.NewAdmin(articles, categories, tags, authors, drafts, comments, nil, nil, nil, nil)

	limiter := middleware.NewRateLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)

	srv := httptest.NewServer(New(public, admin, testAPIKey, limiter))
	t.Cleanup(srv.Close)

	return &apiTest{srv: srv, articles: articles, comments: comments, drafts: drafts}
}

func (at *apiTest) addPublished(t *testing.T, id, slug string, day int) {
	t.Helper()
	pub := normalize.NewTime(time.Date(2026, 1, day, 12, 0, 0, 0, time.UTC))
	_, err := at.articles.Create(context.Background(), &models.Article{
		ID:          id,
		Title:       models.LocalizedText{FR: "Titre " + id},
		Slug:        models.LocalizedText{FR: slug},
		Content:     models.LocalizedText{FR: "## Bonjour\n\nContenu de " + id},
		Status:      models.StatusPublished,
		PublishedAt: &pub,
		Moderation:  models.Moderation{Status: models.ModerationApproved},
	})
	if err != nil {
		t.Fatalf("create article: %v", err)
	}
}

// do performs a request and decodes the JSON body into out (when non-nil).
func (at *apiTest) do(t *testing.T, method, path, apiKey string, body string, out any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, at.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode body: %v", method, path, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	at := newAPITest(t)
	var body map[string]string
	resp := at.do(t, "GET", "/health", "", "", &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
}

func TestPublicArticleFlow(t *testing.T) {
	at := newAPITest(t)
	for i := 1; i <= 3; i++ {
		at.addPublished(t, fmt.Sprintf("a%d", i), fmt.Sprintf("slug-%d", i), i)
	}

	var listing struct {
		Articles   []models.Article `json:"articles"`
		Total      int              `json:"total"`
		Pagination struct {
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}
	resp := at.do(t, "GET", "/api/articles?limit=2", "", "", &listing)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	if len(listing.Articles) != 2 || listing.Total != 3 || listing.Pagination.TotalPages != 2 {
		t.Errorf("listing = %d articles, total %d, pages %d",
			len(listing.Articles), listing.Total, listing.Pagination.TotalPages)
	}
	if listing.Articles[0].ID != "a3" {
		t.Errorf("newest first expected, got %s", listing.Articles[0].ID)
	}

	// Single article: markdown is rendered for the client.
	var article struct {
		ID          string `json:"id"`
		ContentHTML string `json:"contentHtml"`
	}
	resp = at.do(t, "GET", "/api/articles/slug-2", "", "", &article)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	if article.ID != "a2" {
		t.Errorf("article id = %s", article.ID)
	}
	if !strings.Contains(article.ContentHTML, "<h2") {
		t.Errorf("contentHtml = %q, want rendered heading", article.ContentHTML)
	}

	resp = at.do(t, "GET", "/api/articles/no-such-slug", "", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing slug status = %d, want 404", resp.StatusCode)
	}
}

func TestAdminRequiresAPIKey(t *testing.T) {
	at := newAPITest(t)

	resp := at.do(t, "GET", "/admin/api/articles", "", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no key status = %d, want 401", resp.StatusCode)
	}

	resp = at.do(t, "GET", "/admin/api/articles", "wrong-key", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong key status = %d, want 401", resp.StatusCode)
	}

	resp = at.do(t, "GET", "/admin/api/articles", testAPIKey, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("valid key status = %d, want 200", resp.StatusCode)
	}
}

func TestAdminArticleCRUD(t *testing.T) {
	at := newAPITest(t)

	var created models.Article
	resp := at.do(t, "POST", "/admin/api/articles", testAPIKey,
		`{"title": {"fr": "Guignol et le théâtre"}, "content": {"fr": "Texte."}}`, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	if created.Slug.FR != "guignol-et-le-theatre" {
		t.Errorf("slug = %s", created.Slug.FR)
	}
	if created.Status != models.StatusDraft {
		t.Errorf("status = %s, want draft", created.Status)
	}

	// Drafts are invisible on the public surface.
	resp = at.do(t, "GET", "/api/articles/guignol-et-le-theatre", "", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("draft on public surface: status = %d, want 404", resp.StatusCode)
	}

	// Publish with moderation approval via update.
	payload, _ := json.Marshal(map[string]any{
		"title":      created.Title,
		"slug":       created.Slug,
		"content":    created.Content,
		"status":     "published",
		"moderation": map[string]any{"status": "approved"},
	})
	resp = at.do(t, "PUT", "/admin/api/articles/"+created.ID, testAPIKey, string(payload), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}

	resp = at.do(t, "GET", "/api/articles/guignol-et-le-theatre", "", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("published article status = %d, want 200", resp.StatusCode)
	}

	resp = at.do(t, "DELETE", "/admin/api/articles/"+created.ID, testAPIKey, "", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
}

func TestCommentSubmissionAndModeration(t *testing.T) {
	at := newAPITest(t)
	at.addPublished(t, "a1", "slug-1", 1)

	var comment models.Comment
	resp := at.do(t, "POST", "/api/articles/slug-1/comments", "",
		`{"name": "Camille", "content": "Très bel article !"}`, &comment)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}
	if comment.Status != models.CommentPending {
		t.Errorf("status = %s, want pending", comment.Status)
	}

	// Invisible until approved.
	var visible struct {
		Comments []models.Comment `json:"comments"`
	}
	at.do(t, "GET", "/api/articles/slug-1/comments", "", "", &visible)
	if len(visible.Comments) != 0 {
		t.Errorf("pending comment is publicly visible")
	}

	resp = at.do(t, "POST", "/admin/api/comments/"+comment.ID+"/status", testAPIKey,
		`{"status": "approved"}`, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve status = %d", resp.StatusCode)
	}

	at.do(t, "GET", "/api/articles/slug-1/comments", "", "", &visible)
	if len(visible.Comments) != 1 || visible.Comments[0].Author.Name != "Camille" {
		t.Errorf("approved comments = %+v", visible.Comments)
	}

	// Validation.
	resp = at.do(t, "POST", "/api/articles/slug-1/comments", "", `{"name": "", "content": ""}`, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty comment status = %d, want 400", resp.StatusCode)
	}
}

func TestDraftLifecycleOverHTTP(t *testing.T) {
	at := newAPITest(t)
	at.addPublished(t, "a1", "slug-1", 1)

	var created struct {
		ID string `json:"id"`
	}
	resp := at.do(t, "POST", "/admin/api/articles/a1/drafts", testAPIKey,
		`{"title": {"fr": "Titre corrigé"}}`, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create draft status = %d", resp.StatusCode)
	}

	var applied models.Article
	resp = at.do(t, "POST", "/admin/api/drafts/"+created.ID+"/apply", testAPIKey, "", &applied)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("apply status = %d", resp.StatusCode)
	}
	if applied.Title.FR != "Titre corrigé" {
		t.Errorf("title = %s", applied.Title.FR)
	}

	// Applying again: the draft is gone.
	resp = at.do(t, "POST", "/admin/api/drafts/"+created.ID+"/apply", testAPIKey, "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("re-apply status = %d, want 404", resp.StatusCode)
	}

	// Discard is idempotent even for unknown ids.
	resp = at.do(t, "DELETE", "/admin/api/drafts/never-existed", testAPIKey, "", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("discard status = %d, want 204", resp.StatusCode)
	}
}

func TestSuggestWithoutProvider(t *testing.T) {
	at := newAPITest(t)
	at.addPublished(t, "a1", "slug-1", 1)

	resp := at.do(t, "POST", "/admin/api/articles/a1/suggest", testAPIKey, "", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("suggest status = %d, want 503 without a provider", resp.StatusCode)
	}

	resp = at.do(t, "POST", "/admin/api/media", testAPIKey, "", nil)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("media status = %d, want 503 without storage", resp.StatusCode)
	}
}

func TestSupportingEndpointsDoNotCountViews(t *testing.T) {
	at := newAPITest(t)
	at.addPublished(t, "a1", "slug-1", 1)

	for i := 0; i < 3; i++ {
		resp := at.do(t, "GET", "/api/articles/slug-1/comments", "", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("comments status = %d", resp.StatusCode)
		}
	}
	resp := at.do(t, "GET", "/api/articles/slug-1/related", "", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("related status = %d", resp.StatusCode)
	}
	resp = at.do(t, "POST", "/api/articles/slug-1/comments", "",
		`{"name": "Camille", "content": "Bonjour"}`, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d", resp.StatusCode)
	}

	// Only the article read itself records a view; give a stray async
	// increment time to land before asserting.
	time.Sleep(50 * time.Millisecond)
	a, err := at.articles.FindByID(context.Background(), "a1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if a.Metrics.Views != 0 {
		t.Fatalf("views = %d after comments/related only, want 0", a.Metrics.Views)
	}

	resp = at.do(t, "GET", "/api/articles/slug-1", "", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get article status = %d", resp.StatusCode)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		a, err := at.articles.FindByID(context.Background(), "a1")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if a.Metrics.Views == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("views = %d after one article read, want 1", a.Metrics.Views)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRelatedDefaultsToFour(t *testing.T) {
	at := newAPITest(t)
	for i := 0; i <= 5; i++ {
		pub := normalize.NewTime(time.Date(2026, 1, i+1, 12, 0, 0, 0, time.UTC))
		id := fmt.Sprintf("c%d", i)
		_, err := at.articles.Create(context.Background(), &models.Article{
			ID:          id,
			Title:       models.LocalizedText{FR: "Titre " + id},
			Slug:        models.LocalizedText{FR: "slug-" + id},
			Content:     models.LocalizedText{FR: "Contenu"},
			CategoryID:  "culture",
			Status:      models.StatusPublished,
			PublishedAt: &pub,
			Moderation:  models.Moderation{Status: models.ModerationApproved},
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	var body struct {
		Articles []models.Article `json:"articles"`
	}
	resp := at.do(t, "GET", "/api/articles/slug-c0/related", "", "", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("related status = %d", resp.StatusCode)
	}
	if len(body.Articles) != 4 {
		t.Errorf("related = %d articles, want the default of 4", len(body.Articles))
	}
	for _, a := range body.Articles {
		if a.ID == "c0" {
			t.Error("related includes the source article")
		}
	}
}

func TestUpdateMissingArticleIs404(t *testing.T) {
	at := newAPITest(t)

	resp := at.do(t, "PUT", "/admin/api/articles/never-existed", testAPIKey,
		`{"title": {"fr": "Fantôme"}, "content": {"fr": "..."}}`, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("update missing article status = %d, want 404", resp.StatusCode)
	}
}

func TestCommentRateLimit(t *testing.T) {
	ds := docstore.NewMemory()
	categories := store.NewCategoryStore(ds)
	tags := store.NewTagStore(ds)
	articles := store.NewArticleStore(ds, categories, tags)
	drafts := store.NewDraftStore(ds, articles)
	comments := store.NewCommentStore(ds)
	authors := store.NewAuthorStore(ds)

	public := handlers.NewPublic(articles, categories, tags, authors, comments, nil, nil)
	admin := handlers.NewAdmin(articles, categories, tags, authors, drafts, comments, nil, nil, nil, nil)

	limiter := middleware.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()

	srv := httptest.NewServer(New(public, admin, testAPIKey, limiter))
	defer srv.Close()

	at := &apiTest{srv: srv, articles: articles}
	at.addPublished(t, "a1", "slug-1", 1)

	body := `{"name": "Camille", "content": "Encore moi"}`
	for i := 0; i < 2; i++ {
		resp := at.do(t, "POST", "/api/articles/slug-1/comments", "", body, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("submit %d status = %d", i+1, resp.StatusCode)
		}
	}
	resp := at.do(t, "POST", "/api/articles/slug-1/comments", "", body, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("third submit status = %d, want 429", resp.StatusCode)
	}

	// Reads stay unthrottled.
	resp = at.do(t, "GET", "/api/articles/slug-1/comments", "", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("read status = %d", resp.StatusCode)
	}
}
