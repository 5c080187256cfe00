// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a client for integration tests, or skips when
// Valkey is unreachable. Uses DB 15 to stay clear of development data.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	host := envOr("VALKEY_HOST", "localhost")
	port := envOr("VALKEY_PORT", "6379")

	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, responseKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// A nil cache must be safe to call: handler tests run without Valkey and
// every handler shares this code path.
func TestNilResponseCacheIsNoOp(t *testing.T) {
	var rc *ResponseCache
	ctx := context.Background()

	if _, ok := rc.Get(ctx, "/api/articles"); ok {
		t.Error("nil cache reported a hit")
	}
	rc.Set(ctx, "/api/articles", []byte("{}"))
	rc.InvalidateAll(ctx)
}

func TestResponseCacheSetGet(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewResponseCache(client, time.Minute)
	ctx := context.Background()

	if _, ok := rc.Get(ctx, "/api/articles?page=1"); ok {
		t.Fatal("hit before set")
	}

	body := []byte(`{"articles":[]}`)
	rc.Set(ctx, "/api/articles?page=1", body)

	got, ok := rc.Get(ctx, "/api/articles?page=1")
	if !ok {
		t.Fatal("miss after set")
	}
	if string(got) != string(body) {
		t.Errorf("cached body = %q", got)
	}
}

func TestResponseCacheTTL(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewResponseCache(client, 100*time.Millisecond)
	ctx := context.Background()

	rc.Set(ctx, "/api/tags", []byte("[]"))
	time.Sleep(200 * time.Millisecond)

	if _, ok := rc.Get(ctx, "/api/tags"); ok {
		t.Error("entry survived past its TTL")
	}
}

func TestResponseCacheInvalidateAll(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewResponseCache(client, time.Minute)
	ctx := context.Background()

	for _, key := range []string{"/api/articles", "/api/categories", "/api/articles?page=2"} {
		rc.Set(ctx, key, []byte("{}"))
	}

	rc.InvalidateAll(ctx)

	for _, key := range []string{"/api/articles", "/api/categories", "/api/articles?page=2"} {
		if _, ok := rc.Get(ctx, key); ok {
			t.Errorf("key %s survived invalidation", key)
		}
	}
}
