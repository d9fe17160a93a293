package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"shelfsearch/internal/builder"
	"shelfsearch/internal/chunkdb"
	"shelfsearch/internal/config"
	"shelfsearch/internal/embedder"
	"shelfsearch/internal/storage"
	"shelfsearch/internal/token"
	"shelfsearch/internal/vectorstore"
)

func main() {
	manifestPath := flag.String("manifest", "", "path to the build manifest JSON file")
	mirror := flag.Bool("mirror", false, "mirror the finished database into Qdrant")
	flag.Parse()

	if *manifestPath == "" {
		log.Fatal("-manifest is required")
	}

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

	manifest, err := builder.LoadManifest(*manifestPath)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}

	client := embedder.NewClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.EmbeddingVectorSize)
	unsubscribe := client.Progress().Subscribe(func(snap embedder.ProgressSnapshot) {
		slog.Debug("Embedding progress", "stage", snap.Stage, "completed", snap.Completed, "total", snap.Total)
	})
	defer unsubscribe()

	var emb chunkdb.Embedder = client
	if cfg.CacheDBPath != "" {
		cacheDB, err := storage.New(cfg.CacheDBPath)
		if err != nil {
			log.Fatalf("Failed to open embedding cache: %v", err)
		}
		defer func() {
			_ = cacheDB.Close()
		}()
		if err := storage.Migrate(cacheDB); err != nil {
			log.Fatalf("Failed to migrate embedding cache: %v", err)
		}
		emb = storage.NewCachingEmbedder(client, storage.NewEmbeddingCache(cacheDB, cfg.EmbeddingModelName))
		slog.Info("Embedding cache enabled", "path", cfg.CacheDBPath)
	}

	counter := token.NewCounter(cfg.TokenizerBaseURL)

	b := builder.New(counter, emb, cfg.EmbeddingModelName,
		builder.Budgets{
			MaxTokens:     cfg.MaxTokens,
			TargetTokens:  cfg.TargetTokens,
			OverlapTokens: cfg.OverlapTokens,
		},
		builder.Budgets{
			MaxTokens:     cfg.TextMaxTokens,
			TargetTokens:  cfg.TextMaxTokens,
			OverlapTokens: cfg.TextOverlapTokens,
		},
	)

	ctx := context.Background()
	db, err := b.Run(ctx, manifest)
	if err != nil {
		log.Fatalf("Build failed: %v", err)
	}
	slog.Info("Build completed", "output", manifest.Output, "chunks", len(db.Chunks))

	if *mirror {
		if cfg.QdrantURL == "" {
			log.Fatal("QDRANT_URL is required with -mirror")
		}
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		if err := builder.Mirror(ctx, store, cfg.QdrantCollection, db); err != nil {
			log.Fatalf("Mirror failed: %v", err)
		}
		slog.Info("Database mirrored", "collection", cfg.QdrantCollection)
	}
}
