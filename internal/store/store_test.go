package store

import (
	"context"
	"path/filepath"
	"testing"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestCacheRoundTrip(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	hash := HashText("some document text")
	vector := []float32{0.1, -0.5, 2.25, 0}

	if _, ok, err := cache.Get(ctx, "model-a", hash); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v, want miss", ok, err)
	}

	if err := cache.Put(ctx, "model-a", hash, vector); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := cache.Get(ctx, "model-a", hash)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get after Put: miss")
	}
	if len(got) != len(vector) {
		t.Fatalf("got %d dimensions, want %d", len(got), len(vector))
	}
	for i := range vector {
		if got[i] != vector[i] {
			t.Fatalf("vector[%d] = %v, want %v", i, got[i], vector[i])
		}
	}
}

func TestCacheKeyedByModel(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	hash := HashText("shared text")
	if err := cache.Put(ctx, "model-a", hash, []float32{1}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, ok, err := cache.Get(ctx, "model-b", hash); err != nil || ok {
		t.Fatalf("other model's entry visible: ok=%v err=%v", ok, err)
	}
}

func TestCachePutReplaces(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	hash := HashText("text")
	if err := cache.Put(ctx, "m", hash, []float32{1, 2}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Put(ctx, "m", hash, []float32{3, 4}); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, ok, err := cache.Get(ctx, "m", hash)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got[0] != 3 || got[1] != 4 {
		t.Fatalf("got %v, want [3 4]", got)
	}
}

func TestHashTextStable(t *testing.T) {
	if HashText("a") != HashText("a") {
		t.Fatal("hash not stable")
	}
	if HashText("a") == HashText("b") {
		t.Fatal("distinct texts collide")
	}
	if len(HashText("a")) != 64 {
		t.Fatalf("hash length %d, want 64 hex chars", len(HashText("a")))
	}
}
