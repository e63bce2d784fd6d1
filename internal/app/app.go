package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nsqio/go-nsq"

	"governai/features/mcp"
	"governai/features/news"
	"governai/features/stats"
	"governai/internal/adapter/reranker"
	"governai/internal/config"
	"governai/internal/digest"
	"governai/internal/fetch"
	"governai/internal/index"
	"governai/internal/middleware"
	"governai/internal/pipeline"
	"governai/internal/retrieval"
	"governai/internal/scheduler"
	"governai/internal/text"
	"governai/internal/worker"
)

const shutdownTimeout = 30 * time.Second

type App struct {
	Handler         http.Handler
	Service         *news.Service
	Sessions        *pipeline.Sessions
	Scheduler       *scheduler.Scheduler
	RefreshConsumer *worker.RefreshConsumer

	cfg      *config.Config
	consumer *nsq.Consumer
	producer *nsq.Producer
	queryLog *retrieval.QueryLog
}

func New(cfg *config.Config, deps *Dependencies, logger *slog.Logger) (*App, error) {
	// Fetch, merge, index
	feeds := fetch.NewFeedFetcher(deps.Registry.Feeds, deps.HTTPClient, cfg.FeedTimeout)
	search := fetch.NewSearchFetcher(cfg.SerperURL, cfg.SerperAPIKey, cfg.SearchResultCount, deps.Registry, deps.HTTPClient)
	if cfg.SerperAPIKey == "" {
		logger.Warn("SERPER_API_KEY not set, web search contributes no articles")
	}
	indexer := index.NewIndexer(text.NewSplitter(text.DefaultChunkSize, text.DefaultChunkOverlap), deps.Embedder, deps.Store, cfg.EmbedBatchSize)
	sessions := pipeline.NewSessions(pipeline.New(feeds, search, deps.Registry.SearchQuery(), indexer), cfg.SessionTTL)
	sessions.SetReleaseGrace(cfg.SessionReleaseGrace)

	// Answering and digests
	queryLog, err := retrieval.OpenQueryLog(cfg.QueryLogPath)
	if err != nil {
		logger.Warn("query log unavailable, writing to stdout", "path", cfg.QueryLogPath, "error", err)
		queryLog = retrieval.NewQueryLog(os.Stdout)
	}

	var rr retrieval.Reranker
	if cfg.RerankProvider != "" {
		if !reranker.Supported(cfg.RerankProvider) {
			return nil, fmt.Errorf("%w: unknown rerank provider %q", config.ErrInvalidConfig, cfg.RerankProvider)
		}
		rr = reranker.NewClient(cfg.RerankProvider, cfg.RerankAPIKey)
	}

	responder := retrieval.NewResponder(deps.Generator, rr, queryLog)
	digester := digest.NewDigester(deps.Generator)
	service := news.NewService(sessions, responder, digester, deps.Registry, cfg.DefaultDays, cfg.DefaultLimit)

	// Features
	newsHandler := news.NewHandler(service)
	statsHandler := stats.NewHandler(sessions, deps.Store, len(deps.Registry.Feeds))
	mcpHandler := mcp.NewHandler(service)

	// Routes
	mux := http.NewServeMux()

	mux.Handle("GET /articles", middleware.CorrelationID(http.HandlerFunc(newsHandler.Articles)))
	mux.Handle("POST /ask", middleware.CorrelationID(http.HandlerFunc(newsHandler.Ask)))
	mux.Handle("GET /digest", middleware.CorrelationID(http.HandlerFunc(newsHandler.Digest)))
	mux.Handle("GET /insights", middleware.CorrelationID(http.HandlerFunc(newsHandler.Insights)))
	mux.Handle("POST /refresh", middleware.CorrelationID(http.HandlerFunc(newsHandler.Refresh)))
	mux.Handle("GET /sources", middleware.CorrelationID(http.HandlerFunc(newsHandler.Sources)))
	mux.Handle("GET /stats", middleware.CorrelationID(http.HandlerFunc(statsHandler.GetStats)))

	mux.Handle("/mcp", middleware.CorrelationID(mcpHandler))
	mux.Handle("GET /mcp/sse", middleware.CorrelationID(http.HandlerFunc(mcpHandler.HandleSSE)))
	mux.Handle("POST /mcp/messages", middleware.CorrelationID(http.HandlerFunc(mcpHandler.HandleMessage)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})

	a := &App{
		// CORS wraps the mux so preflight requests never hit method routing
		Handler:         middleware.CORS(mux.ServeHTTP),
		Service:         service,
		Sessions:        sessions,
		RefreshConsumer: worker.NewRefreshConsumer(sessions, service.Window),
		cfg:             cfg,
		producer:        deps.NSQProducer,
		queryLog:        queryLog,
	}

	// Scheduled digests
	if cfg.DigestSchedule != "" {
		w, err := service.Window(cfg.DefaultDays, cfg.DefaultLimit)
		if err != nil {
			return nil, err
		}
		var pub scheduler.Publisher = scheduler.LogPublisher{Logger: logger}
		if deps.NSQProducer != nil {
			pub = deps.NSQProducer
		}
		a.Scheduler, err = scheduler.New(cfg.DigestSchedule, w, sessions, digester, pub)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
	}

	return a, nil
}

// Run serves HTTP and the optional background jobs until ctx is done.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.Scheduler != nil {
		a.Scheduler.Start()
	}
	if a.cfg.NSQLookupd != "" {
		if err := a.startConsumer(); err != nil {
			slog.Error("failed to start refresh consumer", "error", err)
		}
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
		a.stop(shutdownCtx)
	}()

	slog.Info("server starting", "port", a.cfg.ServerPort)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) startConsumer() error {
	consumer, err := nsq.NewConsumer(config.TopicSessionRefresh, config.ChannelBackend, nsq.NewConfig())
	if err != nil {
		return fmt.Errorf("nsq consumer error: %w", err)
	}
	consumer.AddHandler(a.RefreshConsumer)
	if err := consumer.ConnectToNSQLookupd(a.cfg.NSQLookupd); err != nil {
		return fmt.Errorf("connect to lookupd: %w", err)
	}
	a.consumer = consumer
	slog.Info("NSQ refresh consumer connected", "topic", config.TopicSessionRefresh)
	return nil
}

func (a *App) stop(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop(ctx)
	}
	if a.consumer != nil {
		a.consumer.Stop()
		select {
		case <-a.consumer.StopChan:
		case <-ctx.Done():
		}
	}
	if a.producer != nil {
		a.producer.Stop()
	}
	a.Sessions.Close(ctx)
	if err := a.queryLog.Close(); err != nil {
		slog.WarnContext(ctx, "failed to close query log", "error", err)
	}
}
