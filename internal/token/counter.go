package token

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_counter.go -package=mocks shelfsearch/internal/token Counter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"unicode/utf8"
)

// RunesPerToken is the approximation used by the fallback counter (~4 chars per token).
const RunesPerToken = 4.0

// Counter maps text to a token count, deterministic for a given model.
type Counter interface {
	Count(text string) int
}

// ApproxCounter estimates token counts from rune counts.
// It is used for sizing heuristics when no tokenizer endpoint is configured;
// the estimate never exceeds the byte length of the input.
type ApproxCounter struct{}

// Count returns the approximate token count for text.
func (ApproxCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	runes := utf8.RuneCountInString(text)
	return int(math.Ceil(float64(runes) / RunesPerToken))
}

// RemoteCounter counts tokens via a llama.cpp /tokenize endpoint.
// Results are deterministic for a given model. Requests that fail fall back
// to the approximate count so sizing never blocks on the tokenizer.
type RemoteCounter struct {
	baseURL string
	client  *http.Client
	approx  ApproxCounter
}

// NewRemoteCounter creates a counter backed by a llama.cpp server.
func NewRemoteCounter(baseURL string) *RemoteCounter {
	return &RemoteCounter{
		baseURL: baseURL,
		client:  http.DefaultClient,
	}
}

type tokenizeRequest struct {
	Content string `json:"content"`
}

type tokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

// Count returns the token count reported by the tokenizer endpoint.
func (c *RemoteCounter) Count(text string) int {
	if text == "" {
		return 0
	}

	n, err := c.countRemote(context.Background(), text)
	if err != nil {
		return c.approx.Count(text)
	}
	return n
}

func (c *RemoteCounter) countRemote(ctx context.Context, text string) (int, error) {
	body, err := json.Marshal(tokenizeRequest{Content: text})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/tokenize", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var tokResp tokenizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokResp); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	return len(tokResp.Tokens), nil
}

// NewCounter selects the remote counter when a tokenizer endpoint is
// configured and the approximate counter otherwise.
func NewCounter(tokenizerBaseURL string) Counter {
	if tokenizerBaseURL == "" {
		return ApproxCounter{}
	}
	return NewRemoteCounter(tokenizerBaseURL)
}
