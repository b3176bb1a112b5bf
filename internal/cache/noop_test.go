package cache

import (
	"context"
	"testing"
	"time"
)

// TestNoOpCache verifies that NoOpCache implements the Cache interface correctly
func TestNoOpCache(t *testing.T) {
	cache := NewNoOpCache()
	ctx := context.Background()

	// GetSearchResult should always return nil (cache miss)
	result, err := cache.GetSearchResult(ctx, "test-key")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result (cache miss), got %v", result)
	}

	// SetSearchResult should succeed silently
	err = cache.SetSearchResult(ctx, "test-key", &SearchResult{
		Matches: []Match{{ChunkID: "123", Score: 0.9, Preview: "hello", TokenCount: 2}},
	}, 1*time.Hour)
	if err != nil {
		t.Errorf("Expected no error on SetSearchResult, got %v", err)
	}

	// Verify it still returns nil (nothing was actually cached)
	result, err = cache.GetSearchResult(ctx, "test-key")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result (no-op cache doesn't store), got %v", result)
	}

	// Close should succeed silently
	if err := cache.Close(); err != nil {
		t.Errorf("Expected no error on Close, got %v", err)
	}
}

func TestKeyStable(t *testing.T) {
	a := Key("how does chunking work", []string{"doc-1", "doc-2"}, 5)
	b := Key("how does chunking work", []string{"doc-2", "doc-1"}, 5)
	if a != b {
		t.Error("expected key to be independent of document id order")
	}

	c := Key("how does chunking work", []string{"doc-1", "doc-2"}, 10)
	if a == c {
		t.Error("expected different top_k to produce a different key")
	}
}
