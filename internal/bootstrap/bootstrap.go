package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	httpadapter "github.com/kirillkom/document-chat/internal/adapters/http"
	"github.com/kirillkom/document-chat/internal/config"
	"github.com/kirillkom/document-chat/internal/core/ports"
	"github.com/kirillkom/document-chat/internal/core/usecase"
	"github.com/kirillkom/document-chat/internal/infrastructure/auth"
	"github.com/kirillkom/document-chat/internal/infrastructure/chunking"
	"github.com/kirillkom/document-chat/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/document-chat/internal/infrastructure/loader"
	natsqueue "github.com/kirillkom/document-chat/internal/infrastructure/queue/nats"
	"github.com/kirillkom/document-chat/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/document-chat/internal/infrastructure/resilience"
	"github.com/kirillkom/document-chat/internal/infrastructure/status"
	"github.com/kirillkom/document-chat/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/document-chat/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/document-chat/internal/infrastructure/workerpool"
	"github.com/kirillkom/document-chat/internal/observability/metrics"
)

const serviceName = "document-chat"

// App wires the full service graph: API surface, pipeline and their shared
// infrastructure.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Handler    http.Handler
	Queue      *natsqueue.Queue
	Pool       *workerpool.Pool
	Vectorizer ports.DocumentVectorizer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chatLog := postgres.NewChatRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	completer := ollama.NewCompleter(ollamaClient)

	index := qdrant.NewIndex(cfg.QdrantURL, embedder)

	splitter, err := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init splitter: %w", err)
	}

	pool, err := workerpool.New(cfg.PipelineWorkers)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("init worker pool: %w", err)
	}

	tracker := status.NewTracker()
	pipelineMetrics := metrics.NewPipelineMetrics(serviceName)
	httpMetrics := metrics.NewHTTPServerMetrics(serviceName, pipelineMetrics)

	uploader := usecase.NewUploader(repo, storage, tracker, queue, logger)
	vectorizer := usecase.NewVectorizer(tracker, repo, storage, loader.New(), splitter, index, pipelineMetrics, cfg.QdrantCollection, logger)
	assembler := usecase.NewAssembler(index)
	chatService := usecase.NewChatService(repo, assembler, completer, chatLog, cfg.QdrantCollection, logger).
		WithMetrics(httpMetrics, serviceName)
	remover := usecase.NewRemover(repo, storage, index, chatLog, tracker, cfg.QdrantCollection, logger)
	liveChat := usecase.NewLiveChat(completer, cfg.LiveChatHistoryTurns, logger)

	var verifier ports.TokenVerifier
	if cfg.APIAuthToken != "" {
		verifier, err = auth.NewStaticVerifier(cfg.APIAuthToken, "api")
		if err != nil {
			pool.Release()
			queue.Close()
			_ = db.Close()
			return nil, fmt.Errorf("init token verifier: %w", err)
		}
	}

	router := httpadapter.NewRouter(
		uploader, chatService, remover, liveChat,
		repo, tracker, verifier,
		httpMetrics, pipelineMetrics.Handler(),
		httpadapter.Config{
			Service:        serviceName,
			RateLimitRPS:   cfg.APIRateLimitRPS,
			RateLimitBurst: cfg.APIRateLimitBurst,
			MaxInFlight:    cfg.APIMaxInFlight,
			StreamChars:    cfg.LiveChatStreamChars,
			Logger:         logger,
		},
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Handler:    router.Handler(),
		Queue:      queue,
		Pool:       pool,
		Vectorizer: vectorizer,

		closeFn: func() {
			pool.Release()
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
