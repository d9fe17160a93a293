package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"shelfsearch/internal/chunkdb"
	"shelfsearch/internal/chunker"
	"shelfsearch/internal/document"
	"shelfsearch/internal/token"
	"shelfsearch/internal/vectorstore"
)

// Budgets holds the chunking token budgets for one parsing path.
type Budgets struct {
	MaxTokens     int
	TargetTokens  int
	OverlapTokens int
}

// Builder runs a corpus build: manifest documents in order, chunked,
// embedded, validated, and written as a single database file. Documents are
// processed strictly sequentially in manifest order, so chunk order is fully
// deterministic for identical inputs and config.
type Builder struct {
	counter  token.Counter
	embedder chunkdb.Embedder
	model    string

	markdown Budgets
	text     Budgets

	parser *document.MarkdownParser
	logger *slog.Logger
}

// New creates a builder. markdown and text carry the budgets for the two
// parsing paths; the text path is expected to use the smaller ones.
func New(counter token.Counter, embedder chunkdb.Embedder, model string, markdown, text Budgets) *Builder {
	return &Builder{
		counter:  counter,
		embedder: embedder,
		model:    model,
		markdown: markdown,
		text:     text,
		parser:   document.NewMarkdownParser(),
		logger:   slog.Default(),
	}
}

// Run executes the build and writes the database to the manifest's output
// path. The build aborts entirely on the first fatal error, writing nothing.
func (b *Builder) Run(ctx context.Context, m *Manifest) (*chunkdb.Database, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	chunks, err := b.chunkAll(m)
	if err != nil {
		return nil, err
	}

	b.logger.InfoContext(ctx, "chunking completed", "documents", len(m.Documents), "chunks", len(chunks))

	db, err := chunkdb.Build(ctx, chunks, b.embedder, b.model)
	if err != nil {
		return nil, fmt.Errorf("failed to build database: %w", err)
	}

	if err := db.Save(m.Output); err != nil {
		return nil, err
	}

	b.logger.InfoContext(ctx, "database written", "output", m.Output, "chunks", len(db.Chunks), "dimension", db.Metadata.Dimension)
	return db, nil
}

// chunkAll parses and assembles every manifest document in order.
func (b *Builder) chunkAll(m *Manifest) ([]chunker.Chunk, error) {
	var chunks []chunker.Chunk

	for _, doc := range m.Documents {
		content, err := os.ReadFile(doc.File)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read %s: %v", ErrConfig, doc.File, err)
		}

		var nodes []document.Node
		budgets := b.text
		switch doc.Type {
		case TypeMarkdown:
			budgets = b.markdown
			nodes, err = b.parser.Parse(content)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", doc.File, err)
			}
		case TypeText:
			nodes = document.ParseText(content)
		}

		blockParser := chunker.NewBlockParser(b.counter, chunker.SplitConfig{
			MaxTokens:    budgets.MaxTokens,
			TargetTokens: budgets.TargetTokens,
		})
		assembler := chunker.NewAssembler(b.counter, chunker.AssembleConfig{
			MaxTokens:     budgets.MaxTokens,
			OverlapTokens: budgets.OverlapTokens,
		})

		blocks := blockParser.Parse(nodes)
		docChunks := assembler.Assemble(blocks, doc.Work, doc.Title)

		b.logger.Info("chunked document", "file", doc.File, "work", doc.Work, "blocks", len(blocks), "chunks", len(docChunks))
		chunks = append(chunks, docChunks...)
	}

	return chunks, nil
}

// Mirror exports a finished database into a vector store collection so
// external consumers can query it. The in-process ranker does not depend on
// the mirror.
func Mirror(ctx context.Context, store vectorstore.VectorStore, collection string, db *chunkdb.Database) error {
	if err := store.EnsureCollection(ctx, collection, db.Metadata.Dimension); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	const batchSize = 100
	for start := 0; start < len(db.Chunks); start += batchSize {
		end := start + batchSize
		if end > len(db.Chunks) {
			end = len(db.Chunks)
		}

		points := make([]vectorstore.Point, 0, end-start)
		for i := start; i < end; i++ {
			chunk := db.Chunks[i]
			headingPath := make([]any, len(chunk.HeadingPath))
			for j, h := range chunk.HeadingPath {
				headingPath[j] = h
			}
			points = append(points, vectorstore.Point{
				ID:  chunk.ID,
				Vec: db.Embeddings.Row(i),
				Meta: map[string]any{
					"work":         chunk.Work,
					"title":        chunk.Title,
					"heading_path": headingPath,
					"total_tokens": chunk.TotalTokens,
				},
			})
		}

		if err := store.Upsert(ctx, collection, points); err != nil {
			return fmt.Errorf("failed to mirror chunks %d-%d: %w", start, end-1, err)
		}
	}

	return nil
}
