package ranker

import (
	"fmt"
	"math"
	"testing"

	"shelfsearch/internal/chunkdb"
	"shelfsearch/internal/chunker"
)

// databaseWithScores builds a 2-column database whose dot product with the
// query [1, 0] equals the given score for each row. Rows stay unit length by
// putting the remainder in the second component.
func databaseWithScores(scores []float32) *chunkdb.Database {
	chunks := make([]chunker.Chunk, len(scores))
	data := make([]float32, 0, len(scores)*2)
	for i, s := range scores {
		chunks[i] = chunker.Chunk{ID: fmt.Sprintf("id-%d", i), RawText: "text", TotalTokens: 1}
		rest := float32(math.Sqrt(float64(1 - s*s)))
		data = append(data, s, rest)
	}
	return &chunkdb.Database{
		Chunks: chunks,
		Embeddings: chunkdb.Matrix{
			Data: data,
			Rows: len(scores),
			Cols: 2,
		},
		Metadata: chunkdb.Metadata{Dimension: 2},
	}
}

func TestRankKneePoint(t *testing.T) {
	// The sharp drop between 0.82 and 0.3 places the knee at rank 2, so the
	// top three chunks come back.
	db := databaseWithScores([]float32{0.9, 0.85, 0.82, 0.3, 0.25, 0.2})

	results, err := Rank(db, []float32{1, 0})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Rank() returned %d results, want 3", len(results))
	}
	wantIDs := []string{"id-0", "id-1", "id-2"}
	for i, want := range wantIDs {
		if results[i].Chunk.ID != want {
			t.Errorf("results[%d].Chunk.ID = %q, want %q", i, results[i].Chunk.ID, want)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted descending at %d: %v > %v", i, results[i].Score, results[i-1].Score)
		}
	}
}

func TestRankSortsUnorderedScores(t *testing.T) {
	db := databaseWithScores([]float32{0.3, 0.9, 0.25, 0.85, 0.2, 0.82})

	results, err := Rank(db, []float32{1, 0})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Rank() returned %d results, want 3", len(results))
	}
	wantIDs := []string{"id-1", "id-3", "id-5"}
	for i, want := range wantIDs {
		if results[i].Chunk.ID != want {
			t.Errorf("results[%d].Chunk.ID = %q, want %q", i, results[i].Chunk.ID, want)
		}
	}
}

func TestRankSmallDatabasesReturnEverything(t *testing.T) {
	for _, scores := range [][]float32{{0.9}, {0.9, 0.1}} {
		db := databaseWithScores(scores)
		results, err := Rank(db, []float32{1, 0})
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		if len(results) != len(scores) {
			t.Errorf("Rank() with %d chunks returned %d results, want all", len(scores), len(results))
		}
	}
}

func TestRankDimensionMismatch(t *testing.T) {
	db := databaseWithScores([]float32{0.9, 0.8})
	if _, err := Rank(db, []float32{1, 0, 0}); err == nil {
		t.Fatal("Rank() with a mismatched query dimension should fail")
	}
}

func TestKneeCutoff(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   int
	}{
		{name: "sharp drop after three", scores: []float64{0.9, 0.85, 0.82, 0.3, 0.25, 0.2}, want: 3},
		{name: "sharp drop after one", scores: []float64{0.95, 0.2, 0.18, 0.15}, want: 2},
		{name: "single", scores: []float64{0.5}, want: 1},
		{name: "pair", scores: []float64{0.5, 0.4}, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := kneeCutoff(tt.scores); got != tt.want {
				t.Errorf("kneeCutoff(%v) = %d, want %d", tt.scores, got, tt.want)
			}
		})
	}
}

func TestKneeCutoffLinearDescent(t *testing.T) {
	scores := []float64{0.9, 0.8, 0.7, 0.6, 0.5, 0.4}
	got := kneeCutoff(scores)
	if got < 1 || got > len(scores) {
		t.Errorf("kneeCutoff(linear) = %d, want within [1, %d]", got, len(scores))
	}
}

func TestKneeCutoffFlatScores(t *testing.T) {
	scores := []float64{0.5, 0.5, 0.5, 0.5}
	got := kneeCutoff(scores)
	if got < 1 || got > len(scores) {
		t.Errorf("kneeCutoff(flat) = %d, want within [1, %d]", got, len(scores))
	}
}
