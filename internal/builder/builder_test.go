package builder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/mock/gomock"

	"shelfsearch/internal/chunkdb"
	chunkdb_mocks "shelfsearch/internal/chunkdb/mocks"
	"shelfsearch/internal/token"
	"shelfsearch/internal/vectorstore"
	vectorstore_mocks "shelfsearch/internal/vectorstore/mocks"
)

// unitEmbedder answers every call with unit basis vectors of the given
// dimension, one per text.
func unitEmbedder(ctrl *gomock.Controller, dimension int) *chunkdb_mocks.MockEmbedder {
	m := chunkdb_mocks.NewMockEmbedder(ctrl)
	m.EXPECT().
		EmbedTexts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range texts {
				vec := make([]float32, dimension)
				vec[0] = 1
				out[i] = vec
			}
			return out, nil
		}).
		AnyTimes()
	return m
}

func testBudgets() (markdown, text Budgets) {
	markdown = Budgets{MaxTokens: 50, TargetTokens: 25, OverlapTokens: 5}
	text = Budgets{MaxTokens: 20, TargetTokens: 20, OverlapTokens: 2}
	return markdown, text
}

func TestBuilderRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	first := writeFile(t, dir, "first.md", "# Alpha\n\nAlpha body text for the first document.\n")
	second := writeFile(t, dir, "second.txt", "Plain text body for the second document.\n\nAnother paragraph.\n")

	m := &Manifest{
		Output: filepath.Join(dir, "corpus.json"),
		Documents: []Entry{
			{Type: TypeMarkdown, Work: "alpha", Title: "Alpha", File: first},
			{Type: TypeText, Work: "beta", Title: "Beta", File: second},
		},
	}

	markdown, text := testBudgets()
	b := New(token.ApproxCounter{}, unitEmbedder(ctrl, 4), "test-model", markdown, text)

	db, err := b.Run(context.Background(), m)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(db.Chunks) == 0 {
		t.Fatal("Run() produced no chunks")
	}
	if db.Metadata.EmbeddingModel != "test-model" || db.Metadata.Dimension != 4 {
		t.Errorf("metadata = %+v", db.Metadata)
	}

	// Manifest order is preserved: every alpha chunk precedes every beta chunk.
	seenBeta := false
	for i, chunk := range db.Chunks {
		switch chunk.Work {
		case "alpha":
			if seenBeta {
				t.Errorf("chunk %d from alpha appears after beta chunks", i)
			}
		case "beta":
			seenBeta = true
		default:
			t.Errorf("chunk %d has unexpected work %q", i, chunk.Work)
		}
	}
	if !seenBeta {
		t.Error("no chunks produced for the second document")
	}

	loaded, err := chunkdb.Load(m.Output)
	if err != nil {
		t.Fatalf("Load() of the written database failed: %v", err)
	}
	if len(loaded.Chunks) != len(db.Chunks) {
		t.Errorf("written database has %d chunks, want %d", len(loaded.Chunks), len(db.Chunks))
	}
}

func TestBuilderRunRefusesExistingOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	m := validManifest(t, dir)
	writeFile(t, dir, "out.json", "{}")

	// No embedding calls expected; validation fails first.
	mockEmbedder := chunkdb_mocks.NewMockEmbedder(ctrl)

	markdown, text := testBudgets()
	b := New(token.ApproxCounter{}, mockEmbedder, "test-model", markdown, text)

	if _, err := b.Run(context.Background(), m); !errors.Is(err, ErrConfig) {
		t.Fatalf("Run() error = %v, want ErrConfig", err)
	}
}

func TestBuilderRunAbortsWritingNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	m := validManifest(t, dir)

	mockEmbedder := chunkdb_mocks.NewMockEmbedder(ctrl)
	mockEmbedder.EXPECT().
		EmbedTexts(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("embedding backend down"))

	markdown, text := testBudgets()
	b := New(token.ApproxCounter{}, mockEmbedder, "test-model", markdown, text)

	if _, err := b.Run(context.Background(), m); err == nil {
		t.Fatal("Run() should fail when embedding fails")
	}
	if _, err := os.Stat(m.Output); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("output file exists after a failed build: %v", err)
	}
}

func TestMirror(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dir := t.TempDir()
	m := validManifest(t, dir)

	markdown, text := testBudgets()
	b := New(token.ApproxCounter{}, unitEmbedder(ctrl, 4), "test-model", markdown, text)

	db, err := b.Run(context.Background(), m)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mockStore := vectorstore_mocks.NewMockVectorStore(ctrl)
	mockStore.EXPECT().
		EnsureCollection(gomock.Any(), "shelf", 4).
		Return(nil)

	var mirrored []vectorstore.Point
	mockStore.EXPECT().
		Upsert(gomock.Any(), "shelf", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			mirrored = append(mirrored, points...)
			return nil
		}).
		AnyTimes()

	if err := Mirror(context.Background(), mockStore, "shelf", db); err != nil {
		t.Fatalf("Mirror() error = %v", err)
	}

	if len(mirrored) != len(db.Chunks) {
		t.Fatalf("mirrored %d points, want %d", len(mirrored), len(db.Chunks))
	}
	for i, point := range mirrored {
		if point.ID != db.Chunks[i].ID {
			t.Errorf("point %d id = %q, want %q", i, point.ID, db.Chunks[i].ID)
		}
		if point.Meta["work"] != db.Chunks[i].Work {
			t.Errorf("point %d work = %v, want %q", i, point.Meta["work"], db.Chunks[i].Work)
		}
	}
}
