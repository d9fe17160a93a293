package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingAPIKey     string
	EmbeddingVectorSize int

	// TokenizerBaseURL selects the llama.cpp tokenize endpoint; empty means
	// the approximate counter is used for sizing heuristics.
	TokenizerBaseURL string

	// DatabasePath is the chunk database JSON file the API serves from.
	DatabasePath string
	// CacheDBPath is the SQLite embedding cache; empty disables caching.
	CacheDBPath string

	// QdrantURL and QdrantCollection configure the optional post-build
	// mirror; both empty disables it.
	QdrantURL        string
	QdrantCollection string

	// Chunking budgets for the markdown path.
	MaxTokens     int
	TargetTokens  int
	OverlapTokens int

	// Smaller budgets for the plain-text path.
	TextMaxTokens     int
	TextOverlapTokens int

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config.
// It applies defaults for optional fields and validates required fields.
// A .env file in the current directory or an ancestor is loaded
// automatically; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	cfg := &Config{
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", "dummy-key"),
		TokenizerBaseURL:   getEnv("TOKENIZER_BASE_URL", ""),
		DatabasePath:       getEnv("DATABASE_PATH", "./data/corpus.json"),
		CacheDBPath:        getEnv("CACHE_DB_PATH", "./data/embedding-cache.db"),
		QdrantURL:          getEnv("QDRANT_URL", ""),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "chunks"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	// EMBEDDING_VECTOR_SIZE must match the output size of the embedding
	// model; there is no safe default.
	vectorSizeStr := getEnv("EMBEDDING_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}
	cfg.EmbeddingVectorSize = vectorSize

	if cfg.MaxTokens, err = getEnvInt("MAX_TOKENS", 500); err != nil {
		return nil, err
	}
	if cfg.TargetTokens, err = getEnvInt("TARGET_TOKENS", 250); err != nil {
		return nil, err
	}
	if cfg.OverlapTokens, err = getEnvInt("OVERLAP_TOKENS", 50); err != nil {
		return nil, err
	}
	if cfg.TextMaxTokens, err = getEnvInt("TEXT_MAX_TOKENS", 200); err != nil {
		return nil, err
	}
	if cfg.TextOverlapTokens, err = getEnvInt("TEXT_OVERLAP_TOKENS", 20); err != nil {
		return nil, err
	}

	if cfg.MaxTokens <= 0 || cfg.TargetTokens <= 0 || cfg.TextMaxTokens <= 0 {
		return nil, fmt.Errorf("token budgets must be greater than 0")
	}
	if cfg.OverlapTokens >= cfg.MaxTokens {
		return nil, fmt.Errorf("OVERLAP_TOKENS (%d) must be smaller than MAX_TOKENS (%d)", cfg.OverlapTokens, cfg.MaxTokens)
	}
	if cfg.TextOverlapTokens >= cfg.TextMaxTokens {
		return nil, fmt.Errorf("TEXT_OVERLAP_TOKENS (%d) must be smaller than TEXT_MAX_TOKENS (%d)", cfg.TextOverlapTokens, cfg.TextMaxTokens)
	}

	level, err := parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	dataDir := filepath.Dir(cfg.DatabasePath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL: %q", value)
	}
}
