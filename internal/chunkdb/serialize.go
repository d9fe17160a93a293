package chunkdb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"shelfsearch/internal/chunker"
)

// persistedMatrix transports the embedding matrix as a flat row-major array
// with explicit dimensions.
type persistedMatrix struct {
	DataType   string    `json:"dataType"`
	Data       []float32 `json:"data"`
	Dimensions [2]int    `json:"dimensions"`
}

// persistedDatabase is the on-disk JSON document shape.
type persistedDatabase struct {
	Chunks     []chunker.Chunk `json:"chunks"`
	Embeddings persistedMatrix `json:"embeddings"`
	Metadata   Metadata        `json:"metadata"`
}

// Encode writes the database as JSON.
func (db *Database) Encode(w io.Writer) error {
	doc := persistedDatabase{
		Chunks: db.Chunks,
		Embeddings: persistedMatrix{
			DataType:   "float32",
			Data:       db.Embeddings.Data,
			Dimensions: [2]int{db.Embeddings.Rows, db.Embeddings.Cols},
		},
		Metadata: db.Metadata,
	}

	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("failed to encode database: %w", err)
	}
	return nil
}

// Decode reads and validates a persisted database.
func Decode(r io.Reader) (*Database, error) {
	var doc persistedDatabase
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	if doc.Embeddings.DataType != "float32" {
		return nil, fmt.Errorf("%w: unsupported data type %q", ErrSerialization, doc.Embeddings.DataType)
	}

	rows := doc.Embeddings.Dimensions[0]
	cols := doc.Embeddings.Dimensions[1]
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative dimensions [%d, %d]", ErrSerialization, rows, cols)
	}
	if len(doc.Embeddings.Data) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for dimensions [%d, %d]", ErrSerialization, len(doc.Embeddings.Data), rows, cols)
	}
	if rows != len(doc.Chunks) {
		return nil, fmt.Errorf("%w: %d embedding rows for %d chunks", ErrSerialization, rows, len(doc.Chunks))
	}

	for i, chunk := range doc.Chunks {
		if len(chunk.RawText) < chunk.TotalTokens {
			return nil, fmt.Errorf("%w: chunk %d raw text shorter than its token count", ErrSerialization, i)
		}
	}

	return &Database{
		Chunks: doc.Chunks,
		Embeddings: Matrix{
			Data: doc.Embeddings.Data,
			Rows: rows,
			Cols: cols,
		},
		Metadata: doc.Metadata,
	}, nil
}

// Save writes the database to path. The file must not already exist; a
// finished corpus is never silently overwritten.
func (db *Database) Save(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create database file: %w", err)
	}

	if err := db.Encode(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close database file: %w", err)
	}
	return nil
}

// Load reads a database from path.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return Decode(f)
}
