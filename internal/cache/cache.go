package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Cache provides search result caching
type Cache interface {
	// GetSearchResult retrieves a cached search result by key.
	// Returns nil if not found
	GetSearchResult(ctx context.Context, key string) (*SearchResult, error)

	// SetSearchResult stores a search result with TTL
	SetSearchResult(ctx context.Context, key string, result *SearchResult, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// SearchResult represents a cached search response
type SearchResult struct {
	Matches []Match `json:"matches"`
}

// Match represents one ranked chunk in cached search results
type Match struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Score      float32 `json:"score"`
	Preview    string  `json:"preview"` // Truncated text preview
	TokenCount int     `json:"token_count"`
}

// Key derives a stable cache key from the search parameters. Document
// ids are sorted so that the same set always hashes identically.
func Key(query string, docIDs []string, topK int) string {
	ids := append([]string(nil), docIDs...)
	sort.Strings(ids)
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", query, strings.Join(ids, ","), topK)))
	return hex.EncodeToString(h[:])
}
