package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/papertoc/papertoc/internal/api"
	"github.com/papertoc/papertoc/internal/config"
	"github.com/papertoc/papertoc/internal/pipeline"
	"github.com/papertoc/papertoc/internal/search"
	"github.com/papertoc/papertoc/internal/storage"
	"github.com/papertoc/papertoc/internal/toc"
)

func main() {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open storage.
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	stores := pipeline.Stores{
		Documents: storage.NewDocumentRepo(db),
		Titles:    storage.NewTitleRepo(db),
		Chunks:    storage.NewChunkRepo(db),
	}

	// LLM client is optional: without a key documents are processed and
	// stored, only the TOC formatting step is skipped.
	var formatter pipeline.TOCFormatter
	var client *toc.Client
	if cfg.OpenAIAPIKey != "" {
		client = toc.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.Temperature, cfg.MaxTokens)
		formatter = client
	} else {
		log.Warn("OPENAI_API_KEY not set, toc formatting disabled")
	}
	stats := toc.NewLLMStats(time.Hour)

	index := search.NewManager()

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, formatter, stats, stores, index, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, stores, index, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if client != nil {
			client.Close()
		}
		index.Close()
	}()

	log.Info("starting papertoc", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
