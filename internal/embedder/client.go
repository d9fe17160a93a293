package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
)

// Client generates embeddings via an OpenAI-compatible /v1/embeddings
// endpoint (llama.cpp server in the default deployment). Returned vectors
// are validated against the expected size and unit-normalized so cosine
// similarity reduces to a dot product.
type Client struct {
	BaseURL      string
	APIKey       string
	Model        string
	ExpectedSize int

	client   *http.Client
	progress *Progress
}

// NewClient creates an embeddings client. expectedSize is the embedding
// dimension the configured model produces; every returned vector is
// validated against it.
func NewClient(baseURL, apiKey, model string, expectedSize int) *Client {
	return &Client{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		ExpectedSize: expectedSize,
		client:       http.DefaultClient,
		progress:     NewProgress(),
	}
}

// Progress exposes the client's progress publisher.
func (c *Client) Progress() *Progress {
	return c.progress
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Embedding []float64 `json:"embedding"`
}

type embeddingsResponse struct {
	Data []embeddingData `json:"data"`
}

// EmbedTexts generates one unit-normalized vector per input text, order
// preserved. Model inference may be slow on first use while the model loads;
// this is the pipeline's only suspension point.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	c.progress.Publish(ProgressSnapshot{Stage: "embedding", Completed: 0, Total: len(texts)})

	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)
	body, err := json.Marshal(embeddingsRequest{Model: c.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var embResp embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(embResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embResp.Data))
	}

	result := make([][]float32, len(embResp.Data))
	for i, data := range embResp.Data {
		if len(data.Embedding) != c.ExpectedSize {
			return nil, fmt.Errorf("embedding %d has size %d, expected %d", i, len(data.Embedding), c.ExpectedSize)
		}
		result[i] = normalize(data.Embedding)
	}

	c.progress.Publish(ProgressSnapshot{Stage: "embedding", Completed: len(texts), Total: len(texts)})

	return result, nil
}

// normalize converts to float32 and scales the vector to unit length.
// A zero vector passes through unchanged.
func normalize(vec []float64) []float32 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(vec))
	if norm == 0 {
		for i, v := range vec {
			out[i] = float32(v)
		}
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
