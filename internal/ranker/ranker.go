package ranker

import (
	"fmt"
	"math"
	"sort"

	"shelfsearch/internal/chunkdb"
	"shelfsearch/internal/chunker"
)

// ChunkWithScore pairs a chunk with its similarity score for one query.
type ChunkWithScore struct {
	Chunk chunker.Chunk
	Score float32
}

// Rank scores a unit-normalized query vector against every stored embedding
// and returns the chunks above the knee-point cutoff, sorted by descending
// score. Both sides are unit length, so the dot product is the cosine
// similarity. Rank is a pure function of (database, query); concurrent calls
// over the same database need no coordination.
func Rank(db *chunkdb.Database, query []float32) ([]ChunkWithScore, error) {
	if len(query) != db.Embeddings.Cols {
		return nil, fmt.Errorf("query dimension %d does not match database dimension %d", len(query), db.Embeddings.Cols)
	}

	n := db.Embeddings.Rows
	scored := make([]ChunkWithScore, n)
	for i := 0; i < n; i++ {
		scored[i] = ChunkWithScore{
			Chunk: db.Chunks[i],
			Score: dot(query, db.Embeddings.Row(i)),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	scores := make([]float64, n)
	for i, s := range scored {
		scores[i] = float64(s.Score)
	}

	return scored[:kneeCutoff(scores)], nil
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// kneeCutoff returns how many of the descending scores to keep. The sorted
// scores form a curve (x = rank, y = score); the chord runs from the first
// point to the last, and the interior point farthest from it marks the knee.
// Everything up to and including the knee is kept. For two or fewer scores
// all are kept.
func kneeCutoff(scores []float64) int {
	n := len(scores)
	if n <= 2 {
		return n
	}

	x1, y1 := 0.0, scores[0]
	x2, y2 := float64(n-1), scores[n-1]

	dx := x2 - x1
	dy := y2 - y1
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return n
	}

	maxDist := -1.0
	maxIdx := 1
	for i := 1; i < n-1; i++ {
		dist := math.Abs(dy*float64(i)-dx*scores[i]+x2*y1-y2*x1) / norm
		if dist > maxDist {
			maxDist = dist
			maxIdx = i
		}
	}

	return maxIdx + 1
}
