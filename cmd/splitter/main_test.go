package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"doc-chunker/internal/app"
	"doc-chunker/internal/config"
	"doc-chunker/internal/queue"
	"doc-chunker/internal/splitter"
	"doc-chunker/internal/store"
	"doc-chunker/internal/tokenizer"
)

func newTestDeps(st store.Store, q queue.Queue) app.Deps {
	return app.Deps{
		Store:    st,
		Queue:    q,
		Splitter: splitter.New(tokenizer.Words{}),
		Config: config.Config{
			ChunkSize:    4,
			ChunkOverlap: 1,
		},
		Log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func generateLongText(words int) string {
	return strings.TrimSpace(strings.Repeat("lorem ipsum dolor sit amet ", (words+4)/5))
}

func TestHandleSplit(t *testing.T) {
	validDocID := uuid.New()

	tests := []struct {
		name    string
		payload splitTaskPayload
		setup   func(*store.MockStore, *queue.MockQueue)
		wantErr bool
	}{
		{
			name: "short text produces one chunk",
			payload: splitTaskPayload{
				DocumentID: validDocID.String(),
				Filename:   "test.txt",
				Content:    "just four short words",
			},
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("SaveChunks", mock.Anything, validDocID, mock.MatchedBy(func(chunks []store.Chunk) bool {
					return len(chunks) == 1 && chunks[0].TokenCount == 4
				})).Return([]store.Chunk{{ID: uuid.New(), DocumentID: validDocID}}, nil).Once()

				s.On("UpdateDocumentStatus", mock.Anything, validDocID, store.StatusChunked).Return(nil).Once()

				q.On("Enqueue", mock.Anything, mock.MatchedBy(func(task queue.Task) bool {
					if task.Type != queue.TaskTypeIndex {
						return false
					}
					var payload map[string]any
					json.Unmarshal(task.Payload, &payload)
					return payload["document_id"] == validDocID.String()
				})).Return(nil).Once()
			},
			wantErr: false,
		},
		{
			name: "long text produces multiple budget-bounded chunks",
			payload: splitTaskPayload{
				DocumentID: validDocID.String(),
				Filename:   "long.txt",
				Content:    generateLongText(1000),
			},
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("SaveChunks", mock.Anything, validDocID, mock.MatchedBy(func(chunks []store.Chunk) bool {
					if len(chunks) < 2 {
						return false
					}
					for _, c := range chunks {
						if c.TokenCount > 4 {
							return false
						}
					}
					return true
				})).Return([]store.Chunk{{ID: uuid.New()}}, nil).Once()

				s.On("UpdateDocumentStatus", mock.Anything, validDocID, store.StatusChunked).Return(nil).Once()

				q.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()
			},
			wantErr: false,
		},
		{
			name: "empty content marks document failed without retrying",
			payload: splitTaskPayload{
				DocumentID: validDocID.String(),
				Filename:   "empty.txt",
				Content:    "",
			},
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("UpdateDocumentStatus", mock.Anything, validDocID, store.StatusFailed).Return(nil).Once()
				// SaveChunks and Enqueue must not be called.
			},
			wantErr: false,
		},
		{
			name: "invalid document ID returns error",
			payload: splitTaskPayload{
				DocumentID: "invalid-uuid",
				Filename:   "test.txt",
				Content:    "Test content",
			},
			setup:   func(s *store.MockStore, q *queue.MockQueue) {},
			wantErr: true,
		},
		{
			name: "store SaveChunks failure propagates error",
			payload: splitTaskPayload{
				DocumentID: validDocID.String(),
				Filename:   "test.txt",
				Content:    "Test content",
			},
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("SaveChunks", mock.Anything, validDocID, mock.Anything).
					Return(nil, errors.New("database error")).Once()
			},
			wantErr: true,
		},
		{
			name: "queue enqueue failure returns error",
			payload: splitTaskPayload{
				DocumentID: validDocID.String(),
				Filename:   "test.txt",
				Content:    "Test content",
			},
			setup: func(s *store.MockStore, q *queue.MockQueue) {
				s.On("SaveChunks", mock.Anything, validDocID, mock.Anything).
					Return([]store.Chunk{{ID: uuid.New()}}, nil).Once()
				s.On("UpdateDocumentStatus", mock.Anything, validDocID, store.StatusChunked).Return(nil).Once()

				// Enqueue fails (may be retried)
				q.On("Enqueue", mock.Anything, mock.Anything).
					Return(errors.New("queue error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockStore := new(store.MockStore)
			mockQueue := new(queue.MockQueue)
			tt.setup(mockStore, mockQueue)

			deps := newTestDeps(mockStore, mockQueue)
			err := handleSplit(context.Background(), deps, tt.payload)

			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}

			mockStore.AssertExpectations(t)
			mockQueue.AssertExpectations(t)
		})
	}
}

func TestHandleSplitPersistsTokens(t *testing.T) {
	docID := uuid.New()
	mockStore := new(store.MockStore)
	mockQueue := new(queue.MockQueue)

	mockStore.On("SaveChunks", mock.Anything, docID, mock.MatchedBy(func(chunks []store.Chunk) bool {
		for _, c := range chunks {
			if len(c.Tokens) != c.TokenCount {
				return false
			}
		}
		return true
	})).Return([]store.Chunk{{ID: uuid.New()}}, nil).Once()
	mockStore.On("UpdateDocumentStatus", mock.Anything, docID, store.StatusChunked).Return(nil).Once()
	mockQueue.On("Enqueue", mock.Anything, mock.Anything).Return(nil).Once()

	deps := newTestDeps(mockStore, mockQueue)
	err := handleSplit(context.Background(), deps, splitTaskPayload{
		DocumentID: docID.String(),
		Filename:   "tokens.txt",
		Content:    "alpha beta gamma delta epsilon zeta",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	mockStore.AssertExpectations(t)
	mockQueue.AssertExpectations(t)
}
