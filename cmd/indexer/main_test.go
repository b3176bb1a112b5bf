package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"doc-chunker/internal/app"
	"doc-chunker/internal/config"
	"doc-chunker/internal/embeddings"
	"doc-chunker/internal/store"
)

func newTestDeps(st store.Store, e embeddings.Embedder) app.Deps {
	return app.Deps{
		Store:    st,
		Embedder: e,
		Config: config.Config{
			EmbeddingModel: "test-model",
		},
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestHandleIndex(t *testing.T) {
	validDocID := uuid.New()
	chunkA := store.Chunk{ID: uuid.New(), DocumentID: validDocID, Index: 0, Text: "first chunk", TokenCount: 2}
	chunkB := store.Chunk{ID: uuid.New(), DocumentID: validDocID, Index: 1, Text: "second chunk", TokenCount: 2}

	tests := []struct {
		name    string
		payload indexTaskPayload
		setup   func(*store.MockStore, *embeddings.MockEmbedder)
		wantErr bool
	}{
		{
			name:    "successful indexing",
			payload: indexTaskPayload{DocumentID: validDocID.String()},
			setup: func(s *store.MockStore, e *embeddings.MockEmbedder) {
				s.On("ListChunks", mock.Anything, validDocID).
					Return([]store.Chunk{chunkA, chunkB}, nil).Once()
				s.On("GetDocument", mock.Anything, validDocID).
					Return(store.Document{ID: validDocID, Filename: "doc.txt"}, nil).Once()

				e.On("EmbedBatch", mock.MatchedBy(func(texts []string) bool {
					return len(texts) == 2
				})).Return([]embeddings.Vector{{0.1, 0.2}, {0.3, 0.4}}, nil).Once()

				s.On("SaveEmbeddings", mock.Anything, mock.MatchedBy(func(embs []store.Embedding) bool {
					return len(embs) == 2 &&
						embs[0].ChunkID == chunkA.ID &&
						embs[1].ChunkID == chunkB.ID &&
						embs[0].Model == "test-model"
				})).Return(nil).Once()

				s.On("UpdateDocumentStatus", mock.Anything, validDocID, store.StatusReady).Return(nil).Once()
			},
			wantErr: false,
		},
		{
			name:    "invalid document ID returns error",
			payload: indexTaskPayload{DocumentID: "not-a-uuid"},
			setup:   func(s *store.MockStore, e *embeddings.MockEmbedder) {},
			wantErr: true,
		},
		{
			name:    "document without chunks returns error",
			payload: indexTaskPayload{DocumentID: validDocID.String()},
			setup: func(s *store.MockStore, e *embeddings.MockEmbedder) {
				s.On("ListChunks", mock.Anything, validDocID).
					Return([]store.Chunk{}, nil).Once()
			},
			wantErr: true,
		},
		{
			name:    "embedding failure propagates error",
			payload: indexTaskPayload{DocumentID: validDocID.String()},
			setup: func(s *store.MockStore, e *embeddings.MockEmbedder) {
				s.On("ListChunks", mock.Anything, validDocID).
					Return([]store.Chunk{chunkA}, nil).Once()
				s.On("GetDocument", mock.Anything, validDocID).
					Return(store.Document{ID: validDocID, Filename: "doc.txt"}, nil).Once()
				e.On("EmbedBatch", mock.Anything).
					Return(nil, errors.New("api error")).Once()
			},
			wantErr: true,
		},
		{
			name:    "save embeddings failure propagates error",
			payload: indexTaskPayload{DocumentID: validDocID.String()},
			setup: func(s *store.MockStore, e *embeddings.MockEmbedder) {
				s.On("ListChunks", mock.Anything, validDocID).
					Return([]store.Chunk{chunkA}, nil).Once()
				s.On("GetDocument", mock.Anything, validDocID).
					Return(store.Document{ID: validDocID, Filename: "doc.txt"}, nil).Once()
				e.On("EmbedBatch", mock.Anything).
					Return([]embeddings.Vector{{0.1}}, nil).Once()
				s.On("SaveEmbeddings", mock.Anything, mock.Anything).
					Return(errors.New("database error")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(store.MockStore)
			mockEmbedder := new(embeddings.MockEmbedder)
			tt.setup(mockStore, mockEmbedder)

			deps := newTestDeps(mockStore, mockEmbedder)
			err := handleIndex(context.Background(), deps, tt.payload)

			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}

			mockStore.AssertExpectations(t)
			mockEmbedder.AssertExpectations(t)
		})
	}
}
