package app

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"doc-chunker/internal/cache"
	"doc-chunker/internal/config"
	"doc-chunker/internal/embeddings"
	"doc-chunker/internal/logger"
	"doc-chunker/internal/queue"
	"doc-chunker/internal/splitter"
	"doc-chunker/internal/store"
	"doc-chunker/internal/tokenizer"
)

// Deps bundles common runtime dependencies for services. Build
// functions populate only what each service needs.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Store    store.Store
	Queue    queue.Queue
	Splitter *splitter.Splitter
	Embedder embeddings.Embedder
	Cache    cache.Cache
}

// Build loads env, config, and the store/queue pair every pipeline
// service shares.
func Build() (Deps, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "err", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	return Deps{
		Config: cfg,
		Log:    log,
		Store:  st,
		Queue:  q,
	}, nil
}

// BuildGateway wires the gateway: store, queue, and a splitter for the
// synchronous split endpoint.
func BuildGateway() (Deps, error) {
	deps, err := Build()
	if err != nil {
		return Deps{}, err
	}
	sp, err := buildSplitter(deps.Config, deps.Log)
	if err != nil {
		return Deps{}, err
	}
	deps.Splitter = sp
	return deps, nil
}

// BuildSplitter wires the split worker.
func BuildSplitter() (Deps, error) {
	return BuildGateway()
}

// BuildIndexer wires the indexing worker: store, queue, embedder.
func BuildIndexer() (Deps, error) {
	deps, err := Build()
	if err != nil {
		return Deps{}, err
	}
	embedder, err := buildEmbedder(deps.Config, deps.Log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	deps.Embedder = embedder
	return deps, nil
}

// BuildQuery wires the search service: store, embedder, cache. No queue.
func BuildQuery() (Deps, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file loaded", "err", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	c := buildCache(cfg, log)
	return Deps{
		Config:   cfg,
		Log:      log,
		Store:    st,
		Embedder: embedder,
		Cache:    c,
	}, nil
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid option: postgres)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

func buildSplitter(cfg config.Config, log *slog.Logger) (*splitter.Splitter, error) {
	switch cfg.Tokenizer {
	case "tiktoken":
		tok, err := tokenizer.NewTiktoken(cfg.TokenizerEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
		}
		log.Info("using tiktoken tokenizer", "encoding", cfg.TokenizerEncoding)
		return splitter.New(tok), nil
	case "words":
		log.Info("using whitespace word tokenizer")
		return splitter.New(tokenizer.Words{}), nil
	default:
		return nil, fmt.Errorf("invalid TOKENIZER: %s (valid options: tiktoken, words)", cfg.Tokenizer)
	}
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
	}
	log.Info("using OpenAI embedder", "model", cfg.EmbeddingModel)
	return embedder, nil
}

func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, falling back to no-op cache", "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr)
		return c
	default:
		log.Info("using no-op cache")
		return cache.NewNoOpCache()
	}
}
