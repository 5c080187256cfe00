// store_test.go provides shared helpers for the store tests. All tests run
// against the in-memory document store, which mirrors the query semantics
// of the Postgres adapter.
package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"lyonguide/internal/docstore"
	"lyonguide/internal/models"
	"lyonguide/internal/normalize"
)

// testEnv bundles the stores wired over one in-memory document store.
type testEnv struct {
	ds         *docstore.Memory
	articles   *ArticleStore
	categories *CategoryStore
	tags       *TagStore
	authors    *AuthorStore
	drafts     *DraftStore
	comments   *CommentStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ds := docstore.NewMemory()
	categories := NewCategoryStore(ds)
	tags := NewTagStore(ds)
	articles := NewArticleStore(ds, categories, tags)
	return &testEnv{
		ds:         ds,
		articles:   articles,
		categories: categories,
		tags:       tags,
		authors:    NewAuthorStore(ds),
		drafts:     NewDraftStore(ds, articles),
		comments:   NewCommentStore(ds),
	}
}

// publishedAt builds a publish timestamp n days into 2026.
func publishedAt(day int) *normalize.Time {
	t := normalize.NewTime(time.Date(2026, 1, day, 12, 0, 0, 0, time.UTC))
	return &t
}

// addPublished creates a published, approved article. The id doubles as
// the French title so listing assertions stay readable.
func (e *testEnv) addPublished(t *testing.T, id string, day int, mutate func(*models.Article)) *models.Article {
	t.Helper()
	a := &models.Article{
		ID:          id,
		Title:       models.LocalizedText{FR: id},
		Status:      models.StatusPublished,
		PublishedAt: publishedAt(day),
		Moderation:  models.Moderation{Status: models.ModerationApproved},
	}
	if mutate != nil {
		mutate(a)
	}
	created, err := e.articles.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("create article %s: %v", id, err)
	}
	return created
}

// addMany creates n published articles with sequential ids and days.
func (e *testEnv) addMany(t *testing.T, n int, mutate func(i int, a *models.Article)) {
	t.Helper()
	for i := 1; i <= n; i++ {
		i := i
		e.addPublished(t, fmt.Sprintf("art-%02d", i), i, func(a *models.Article) {
			if mutate != nil {
				mutate(i, a)
			}
		})
	}
}

// waitForViews polls until the article's view counter reaches want, or
// fails after a short deadline. The increment runs in a detached
// goroutine, so tests cannot observe it synchronously.
func (e *testEnv) waitForViews(t *testing.T, id string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		a, err := e.articles.FindByID(context.Background(), id)
		if err != nil {
			t.Fatalf("find article: %v", err)
		}
		if a != nil && a.Metrics.Views >= want {
			if a.Metrics.Views > want {
				t.Fatalf("views = %d, want %d", a.Metrics.Views, want)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("view counter never reached %d", want)
}
