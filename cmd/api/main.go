package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"shelfsearch/internal/chunkdb"
	"shelfsearch/internal/config"
	"shelfsearch/internal/embedder"
	"shelfsearch/internal/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	db, err := chunkdb.Load(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to load chunk database: %v", err)
	}
	slog.Info("Chunk database loaded",
		"path", cfg.DatabasePath,
		"chunks", len(db.Chunks),
		"dimension", db.Metadata.Dimension,
		"model", db.Metadata.EmbeddingModel,
	)

	if db.Metadata.Dimension != cfg.EmbeddingVectorSize {
		log.Fatalf("Database dimension %d does not match EMBEDDING_VECTOR_SIZE %d", db.Metadata.Dimension, cfg.EmbeddingVectorSize)
	}

	emb := embedder.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize)

	deps := &http.Deps{
		Database: db,
		Embedder: emb,
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
