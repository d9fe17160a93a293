package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"shelfsearch/internal/chunkdb"
	"shelfsearch/internal/contextutil"
	"shelfsearch/internal/ranker"
)

// SearchHandler handles similarity queries against the loaded chunk database.
type SearchHandler struct {
	db       *chunkdb.Database
	embedder chunkdb.Embedder
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(db *chunkdb.Database, embedder chunkdb.Embedder) *SearchHandler {
	return &SearchHandler{db: db, embedder: embedder}
}

// SearchRequest is the HTTP request payload for similarity queries.
type SearchRequest struct {
	Query string `json:"query"`
	// Limit optionally trims the result set after the adaptive cutoff.
	// Zero means no trim.
	Limit int `json:"limit,omitempty"`
}

// SearchResult is one ranked chunk in the response.
type SearchResult struct {
	ID          string   `json:"id"`
	Work        string   `json:"work"`
	Title       string   `json:"title"`
	HeadingPath []string `json:"headingPath"`
	Score       float32  `json:"score"`
	Text        string   `json:"text"`
	Markdown    string   `json:"markdown"`
}

// SearchResponse is the HTTP response payload for similarity queries.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP embeds the query, ranks chunks with the adaptive cutoff, and
// applies the caller's trim on top.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		logger.WarnContext(ctx, "empty query in request")
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if req.Limit < 0 {
		req.Limit = 0
	}

	embeddings, err := h.embedder.EmbedTexts(ctx, []string{req.Query})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed query", "error", err)
		writeError(w, http.StatusBadGateway, "Embedding service error")
		return
	}
	if len(embeddings) == 0 {
		writeError(w, http.StatusBadGateway, "No embedding returned for query")
		return
	}

	ranked, err := ranker.Rank(h.db, embeddings[0])
	if err != nil {
		logger.ErrorContext(ctx, "failed to rank chunks", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to rank chunks")
		return
	}

	if req.Limit > 0 && len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	logger.InfoContext(ctx, "search completed", "results", len(ranked))

	results := make([]SearchResult, 0, len(ranked))
	for _, item := range ranked {
		results = append(results, SearchResult{
			ID:          item.Chunk.ID,
			Work:        item.Chunk.Work,
			Title:       item.Chunk.Title,
			HeadingPath: item.Chunk.HeadingPath,
			Score:       item.Score,
			Text:        item.Chunk.RawText,
			Markdown:    item.Chunk.MarkdownText,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(SearchResponse{Results: results}); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
