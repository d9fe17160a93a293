package chunkdb

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks shelfsearch/internal/chunkdb Embedder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shelfsearch/internal/chunker"
)

var (
	// ErrDimensionMismatch is returned when embedding row or column counts
	// are inconsistent with the chunk list or the declared dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrSerialization is returned when a persisted payload fails shape
	// validation.
	ErrSerialization = errors.New("invalid database payload")
)

// embedBatchSize bounds per-call payload size when embedding chunk texts.
const embedBatchSize = 25

// Embedder generates one unit-normalized vector per input text, preserving
// input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Matrix is a dense row-major float32 matrix. Rows are unit-normalized
// embedding vectors.
type Matrix struct {
	Data []float32
	Rows int
	Cols int
}

// Row returns row i as a slice into the matrix data.
func (m Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Metadata describes how a database was built.
type Metadata struct {
	EmbeddingModel string    `json:"embeddingModel"`
	Dimension      int       `json:"dimension"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Database pairs an ordered chunk list with its embedding matrix. Row i of
// the matrix corresponds to Chunks[i]. Once built or loaded, a database is
// read-only; any number of concurrent queries may read it.
type Database struct {
	Chunks     []chunker.Chunk
	Embeddings Matrix
	Metadata   Metadata
}

// Build embeds all chunk raw texts in fixed-size batches, preserving chunk
// order, and returns a validated database. Any validation failure aborts the
// build; no partial database is ever returned.
func Build(ctx context.Context, chunks []chunker.Chunk, embedder Embedder, model string) (*Database, error) {
	vectors := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, chunk.RawText)
		}

		batch, err := embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunks %d-%d: %w", start, end-1, err)
		}
		vectors = append(vectors, batch...)
	}

	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: %d embeddings for %d chunks", ErrDimensionMismatch, len(vectors), len(chunks))
	}

	dimension := 0
	if len(vectors) > 0 {
		dimension = len(vectors[0])
		if dimension <= 0 {
			return nil, fmt.Errorf("%w: zero-length embedding vector", ErrDimensionMismatch)
		}
	}

	matrix := Matrix{
		Data: make([]float32, 0, len(vectors)*dimension),
		Rows: len(vectors),
		Cols: dimension,
	}
	for i, vec := range vectors {
		if len(vec) != dimension {
			return nil, fmt.Errorf("%w: row %d has dimension %d, expected %d", ErrDimensionMismatch, i, len(vec), dimension)
		}
		matrix.Data = append(matrix.Data, vec...)
	}

	return &Database{
		Chunks:     chunks,
		Embeddings: matrix,
		Metadata: Metadata{
			EmbeddingModel: model,
			Dimension:      dimension,
			CreatedAt:      time.Now().UTC(),
		},
	}, nil
}
