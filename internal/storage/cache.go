package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// EmbeddingCache persists embedding vectors keyed by (model, content hash)
// so corpus rebuilds only embed texts that changed.
type EmbeddingCache struct {
	db    *sql.DB
	model string
}

// NewEmbeddingCache creates a cache scoped to one embedding model.
func NewEmbeddingCache(db *sql.DB, model string) *EmbeddingCache {
	return &EmbeddingCache{db: db, model: model}
}

// Get returns the cached vector for text, if present.
func (c *EmbeddingCache) Get(ctx context.Context, text string) ([]float32, bool, error) {
	var blob []byte
	var dimension int
	err := c.db.QueryRowContext(ctx,
		"SELECT vector, dimension FROM embeddings WHERE model = ? AND content_hash = ?",
		c.model, contentHash(text)).Scan(&blob, &dimension)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query embedding cache: %w", err)
	}

	vec := deserializeVector(blob)
	if len(vec) != dimension {
		return nil, false, fmt.Errorf("cached vector has %d values, recorded dimension %d", len(vec), dimension)
	}
	return vec, true, nil
}

// Put stores a vector for text, replacing any previous entry.
func (c *EmbeddingCache) Put(ctx context.Context, text string, vec []float32) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO embeddings (model, content_hash, dimension, vector) VALUES (?, ?, ?, ?)",
		c.model, contentHash(text), len(vec), serializeVector(vec))
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

// embedFunc matches the embedder contract without importing it.
type embedFunc interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// CachingEmbedder wraps an embedder with the cache: hits are served locally,
// misses are embedded in a single inner call, and input order is preserved.
type CachingEmbedder struct {
	inner embedFunc
	cache *EmbeddingCache
}

// NewCachingEmbedder wraps inner with cache.
func NewCachingEmbedder(inner embedFunc, cache *EmbeddingCache) *CachingEmbedder {
	return &CachingEmbedder{inner: inner, cache: cache}
}

// EmbedTexts returns one vector per input text in input order.
func (e *CachingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		vec, ok, err := e.cache.Get(ctx, text)
		if err != nil {
			return nil, err
		}
		if ok {
			result[i] = vec
			continue
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return result, nil
	}

	embedded, err := e.inner.EmbedTexts(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(embedded) != len(missing) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(missing), len(embedded))
	}

	for j, vec := range embedded {
		result[missingIdx[j]] = vec
		if err := e.cache.Put(ctx, missing[j], vec); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func contentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// serializeVector converts a float32 slice to a little-endian byte blob.
func serializeVector(vec []float32) []byte {
	blob := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice.
func deserializeVector(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}
