package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"doc-chunker/internal/app"
	"doc-chunker/internal/cache"
	"doc-chunker/internal/httputil"
	"doc-chunker/internal/store"
)

type searchRequest struct {
	Query       string   `json:"query" validate:"required,min=3,max=500"`
	DocumentIDs []string `json:"document_ids" validate:"required,min=1,dive,uuid4"`
	TopK        int      `json:"top_k" validate:"omitempty,min=1,max=20"`
}

func main() {
	deps, err := app.BuildQuery()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/search", searchHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	deps.Log.Info("query service listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		deps.Log.Error("server error", "err", err)
	}
}

func searchHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}

		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		if req.TopK == 0 {
			req.TopK = 5
		}

		ctx := r.Context()

		// Check cache first
		cacheKey := cache.Key(req.Query, req.DocumentIDs, req.TopK)
		if cached, err := deps.Cache.GetSearchResult(ctx, cacheKey); err == nil && cached != nil {
			deps.Log.Info("cache hit", "query", req.Query)
			httputil.WriteJSON(w, http.StatusOK, map[string]any{
				"matches": cached.Matches,
				"cached":  true,
			})
			return
		}

		ids := parseDocumentIDs(req.DocumentIDs)
		vec, err := deps.Embedder.Embed(req.Query)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to embed query", err, http.StatusInternalServerError)
			return
		}
		results, err := deps.Store.TopK(ctx, ids, vec, req.TopK)
		if err != nil {
			httputil.Fail(deps.Log, w, "search failed", err, http.StatusInternalServerError)
			return
		}

		matches := buildMatches(results)

		cacheTTL := time.Duration(deps.Config.CacheTTL) * time.Second
		if err := deps.Cache.SetSearchResult(ctx, cacheKey, &cache.SearchResult{Matches: matches}, cacheTTL); err != nil {
			// Log cache write failure but don't fail the request
			deps.Log.Warn("failed to cache result", "err", err)
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"matches": matches,
			"cached":  false,
		})
	}
}

// parseDocumentIDs converts string UUIDs to uuid.UUID slice, skipping invalid ones.
func parseDocumentIDs(ids []string) []uuid.UUID {
	var result []uuid.UUID
	for _, s := range ids {
		if id, err := uuid.Parse(s); err == nil {
			result = append(result, id)
		}
	}
	return result
}

// buildMatches converts search results into cacheable matches with truncated previews.
func buildMatches(results []store.SearchResult) []cache.Match {
	matches := make([]cache.Match, len(results))
	for i, res := range results {
		matches[i] = cache.Match{
			ChunkID:    res.Chunk.ID.String(),
			DocumentID: res.Chunk.DocumentID.String(),
			Score:      res.Score,
			Preview:    truncate(res.Chunk.Text, 150),
			TokenCount: res.Chunk.TokenCount,
		}
	}
	return matches
}

// truncate limits text to maxLen characters, cutting at word boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	// Find last space before maxLen to avoid cutting words
	if idx := strings.LastIndex(s[:maxLen], " "); idx > 0 {
		return s[:idx] + "..."
	}
	return s[:maxLen] + "..."
}
