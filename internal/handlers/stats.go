package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"shelfsearch/internal/chunkdb"
	"shelfsearch/internal/contextutil"
)

// StatsHandler reports database metadata.
type StatsHandler struct {
	db *chunkdb.Database
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(db *chunkdb.Database) *StatsHandler {
	return &StatsHandler{db: db}
}

// StatsResponse describes the loaded chunk database.
type StatsResponse struct {
	Chunks         int       `json:"chunks"`
	Dimension      int       `json:"dimension"`
	EmbeddingModel string    `json:"embeddingModel"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	resp := StatsResponse{
		Chunks:         len(h.db.Chunks),
		Dimension:      h.db.Metadata.Dimension,
		EmbeddingModel: h.db.Metadata.EmbeddingModel,
		CreatedAt:      h.db.Metadata.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
