package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"github.com/veritia-ai/policygate/internal/api"
	"github.com/veritia-ai/policygate/internal/audit"
	"github.com/veritia-ai/policygate/internal/llm"
	"github.com/veritia-ai/policygate/internal/pipeline"
	"github.com/veritia-ai/policygate/internal/pipeline/gates"
	"github.com/veritia-ai/policygate/internal/retrieval"
	"github.com/veritia-ai/policygate/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Logger
	logger := mustBuildLogger(envOrDefault("POLICYGATE_LOG_LEVEL", "info"))
	defer logger.Sync() //nolint:errcheck // best-effort flush

	// Config from env
	httpPort := envOrDefault("POLICYGATE_HTTP_PORT", "8080")
	confidenceThreshold := envOrDefaultFloat("POLICYGATE_CONFIDENCE_THRESHOLD", pipeline.DefaultConfidenceThreshold)
	minDocs := envOrDefaultInt("POLICYGATE_MIN_DOCS", pipeline.DefaultMinDocs)
	minScore := envOrDefaultFloat("POLICYGATE_MIN_SCORE", pipeline.DefaultMinScore)
	topK := envOrDefaultInt("POLICYGATE_TOP_K", pipeline.DefaultTopK)
	cacheTTL := envOrDefaultInt("POLICYGATE_AUTH_CACHE_TTL_S", 30)
	clickhouseDSN := os.Getenv("CLICKHOUSE_DSN")
	postgresDSN := os.Getenv("POSTGRES_DSN")

	thresholds := pipeline.DefaultThresholds()
	thresholds.ConfidenceThreshold = confidenceThreshold
	thresholds.MinDocs = minDocs
	thresholds.MinScore = minScore
	thresholds.TopK = topK

	logger.Info("starting policygate server",
		zap.String("http_port", httpPort),
		zap.Float64("confidence_threshold", confidenceThreshold),
		zap.Int("min_docs", minDocs),
		zap.Float64("min_score", minScore),
		zap.Int("top_k", topK),
	)

	// Retrieval backend — hosted search service or local chromem index
	searcher := mustBuildSearcher(logger)

	// Generation backend
	generator := llm.NewOpenAIClient(llm.OpenAIConfig{
		Model:   envOrDefault("LLM_MODEL", "gpt-4o-mini"),
		APIKey:  os.Getenv("LLM_API_KEY"),
		BaseURL: os.Getenv("LLM_BASE_URL"),
		Timeout: time.Duration(envOrDefaultInt("LLM_TIMEOUT_S", 60)) * time.Second,
		Logger:  logger,
	})

	// Pipeline — gates wired up here in their required order
	gs := []pipeline.Gate{
		gates.NewDomainGate(),
		gates.NewAccessGate(),
		gates.NewEligibilityGate(),
	}
	pipe := pipeline.New(gs, searcher, generator, thresholds, logger)

	// Audit — ClickHouse or LogWriter fallback
	var writer audit.Writer
	if clickhouseDSN != "" {
		chWriter, err := audit.NewClickHouseWriter(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse connection failed, falling back to log writer",
				zap.Error(err),
			)
			writer = audit.NewLogWriter(logger)
		} else {
			writer = chWriter
			logger.Info("clickhouse writer connected")
		}
	} else {
		writer = audit.NewLogWriter(logger)
		logger.Info("no CLICKHOUSE_DSN set, using log writer")
	}
	defer writer.Close()

	// Postgres pool (required for HTTP API)
	var pgStore *store.Store
	if postgresDSN != "" {
		db, err := sql.Open("pgx", postgresDSN)
		if err != nil {
			logger.Fatal("failed to open postgres", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(context.Background()); err != nil {
			logger.Fatal("failed to ping postgres", zap.Error(err))
		}
		pgStore = store.NewStore(db)
		logger.Info("postgres connected")
	} else {
		logger.Fatal("POSTGRES_DSN is required")
	}

	// ClickHouse reader (for decision history/analytics endpoints)
	var chReader *audit.Reader
	if clickhouseDSN != "" {
		var err error
		chReader, err = audit.NewReader(clickhouseDSN, logger)
		if err != nil {
			logger.Warn("clickhouse reader connection failed", zap.Error(err))
		} else {
			defer func() { _ = chReader.Close() }()
			logger.Info("clickhouse reader connected")
		}
	}

	// HTTP API server
	deps := &api.Dependencies{
		Store:    pgStore,
		Pipeline: pipe,
		Writer:   writer,
		Reader:   chReader,
		Logger:   logger,
		CacheTTL: time.Duration(cacheTTL) * time.Second,
	}
	httpServer := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// Block until shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", zap.Error(err))
	}

	logger.Info("policygate server stopped")
}

// mustBuildSearcher wires the retrieval backend. A hosted search service
// (RETRIEVAL_URL) takes precedence; otherwise a local chromem index
// (POLICY_INDEX_PATH) with an embeddings client is used.
func mustBuildSearcher(logger *zap.Logger) retrieval.Searcher {
	if url := os.Getenv("RETRIEVAL_URL"); url != "" {
		logger.Info("using hosted retrieval backend", zap.String("url", url))
		return retrieval.NewHTTPSearcher(retrieval.HTTPSearcherConfig{
			BaseURL: url,
			APIKey:  os.Getenv("RETRIEVAL_API_KEY"),
			Timeout: time.Duration(envOrDefaultInt("RETRIEVAL_TIMEOUT_S", 10)) * time.Second,
			Logger:  logger,
		})
	}

	indexPath := os.Getenv("POLICY_INDEX_PATH")
	if indexPath == "" {
		logger.Fatal("either RETRIEVAL_URL or POLICY_INDEX_PATH is required")
	}

	embedder, err := retrieval.NewEmbedder(retrieval.EmbedderConfig{
		Model:   os.Getenv("EMBEDDINGS_MODEL"),
		APIKey:  os.Getenv("EMBEDDINGS_API_KEY"),
		BaseURL: os.Getenv("EMBEDDINGS_BASE_URL"),
	})
	if err != nil {
		logger.Fatal("failed to create embedder", zap.Error(err))
	}

	searcher, err := retrieval.NewChromemSearcher(retrieval.ChromemConfig{
		PersistPath: indexPath,
		Collection:  os.Getenv("POLICY_INDEX_COLLECTION"),
	}, embedder.EmbeddingFunc())
	if err != nil {
		logger.Fatal("failed to open policy index", zap.Error(err))
	}
	logger.Info("using local policy index", zap.String("path", indexPath))
	return searcher
}

func mustBuildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return logger
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envOrDefaultFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
