package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"doc-chunker/internal/app"
	"doc-chunker/internal/httputil"
	"doc-chunker/internal/queue"
	"doc-chunker/internal/store"
)

type indexTaskPayload struct {
	DocumentID string `json:"document_id"`
}

func main() {
	deps, err := app.BuildIndexer()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	deps.Log.Info("indexer worker starting")

	g, ctx := errgroup.WithContext(context.Background())

	// Run queue worker
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeIndex, func(ctx context.Context, task queue.Task) error {
			var payload indexTaskPayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleIndex(ctx, deps, payload)
		})
	})

	// Run health check server
	g.Go(func() error {
		return httputil.ServeHealth(deps.Log, "indexer", deps.Config.Port)
	})

	// Wait for either to fail
	if err := g.Wait(); err != nil {
		deps.Log.Error("indexer service stopped", "err", err)
	}
}

func handleIndex(ctx context.Context, deps app.Deps, payload indexTaskPayload) error {
	docID, err := uuid.Parse(payload.DocumentID)
	if err != nil {
		return err
	}

	chunks, err := deps.Store.ListChunks(ctx, docID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("document %s has no chunks to index", docID)
	}

	// Prefix each chunk with the filename so embeddings carry document
	// context across chunk boundaries.
	doc, err := deps.Store.GetDocument(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = fmt.Sprintf("Document: %s\n\n%s", doc.Filename, c.Text)
	}

	vectors, err := deps.Embedder.EmbedBatch(texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	embs := make([]store.Embedding, len(chunks))
	for i, c := range chunks {
		embs[i] = store.Embedding{
			ChunkID: c.ID,
			Vector:  vectors[i],
			Model:   deps.Config.EmbeddingModel,
		}
	}
	if err := deps.Store.SaveEmbeddings(ctx, embs); err != nil {
		return err
	}

	return deps.Store.UpdateDocumentStatus(ctx, docID, store.StatusReady)
}
