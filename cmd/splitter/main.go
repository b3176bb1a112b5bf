package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"doc-chunker/internal/app"
	"doc-chunker/internal/httputil"
	"doc-chunker/internal/queue"
	"doc-chunker/internal/store"
)

type splitTaskPayload struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Content    string `json:"content"`
}

func main() {
	deps, err := app.BuildSplitter()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("splitter worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeSplit, func(ctx context.Context, task queue.Task) error {
			var payload splitTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleSplit(ctx, deps, payload)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, "splitter", deps.Config.Port)
	})

	// Wait for either to fail
	if err := g.Wait(); err != nil {
		deps.Log.Error("splitter service stopped", "err", err)
	}
}

func handleSplit(ctx context.Context, deps app.Deps, payload splitTaskPayload) error {
	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return err
	}

	chunks := deps.Splitter.Split(payload.Content, deps.Config.ChunkSize, deps.Config.ChunkOverlap)
	if len(chunks) == 0 {
		// Empty or unsplittable input. Retrying cannot help, so mark the
		// document failed and consume the task.
		deps.Log.Warn("document produced no chunks", "document_id", docID, "filename", payload.Filename)
		if err := deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusFailed); err != nil {
			deps.Log.Error("failed to mark document failed", "document_id", docID, "err", err)
		}
		return nil
	}

	storeChunks := make([]store.Chunk, len(chunks))
	for i, c := range chunks {
		storeChunks[i] = store.Chunk{
			Index:      c.Index,
			Text:       c.Text,
			Tokens:     c.Tokens,
			TokenCount: c.TokenCount(),
		}
	}
	if _, err := deps.Store.SaveChunks(ctx, docID, storeChunks); err != nil {
		return err
	}
	if err := deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusChunked); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"document_id": docID.String(),
	})
	if err != nil {
		return err
	}
	task := queue.Task{Type: queue.TaskTypeIndex, Payload: body, NotBefore: time.Now()}
	return queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond)
}
