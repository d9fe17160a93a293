package token

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestApproxCounterCount(t *testing.T) {
	counter := ApproxCounter{}

	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "single rune", text: "a", want: 1},
		{name: "four runes", text: "abcd", want: 1},
		{name: "five runes", text: "abcde", want: 2},
		{name: "eight runes", text: "abcdefgh", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := counter.Count(tt.text); got != tt.want {
				t.Errorf("Count(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestApproxCounterNeverExceedsByteLength(t *testing.T) {
	counter := ApproxCounter{}
	texts := []string{"hello world", strings.Repeat("é", 100), "a\nb\nc"}

	for _, text := range texts {
		if got := counter.Count(text); got > len(text) {
			t.Errorf("Count(%q) = %d exceeds byte length %d", text, got, len(text))
		}
	}
}

func TestRemoteCounterCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tokenize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req tokenizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		// One token per whitespace-separated word.
		tokens := make([]int, len(strings.Fields(req.Content)))
		_ = json.NewEncoder(w).Encode(tokenizeResponse{Tokens: tokens})
	}))
	defer server.Close()

	counter := NewRemoteCounter(server.URL)

	if got := counter.Count("three word phrase"); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
	if got := counter.Count(""); got != 0 {
		t.Errorf("Count(\"\") = %d, want 0", got)
	}
}

func TestRemoteCounterFallsBackOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	counter := NewRemoteCounter(server.URL)
	approx := ApproxCounter{}

	text := "fallback please"
	if got, want := counter.Count(text), approx.Count(text); got != want {
		t.Errorf("Count(%q) = %d, want approximate %d", text, got, want)
	}
}

func TestNewCounterSelection(t *testing.T) {
	if _, ok := NewCounter("").(ApproxCounter); !ok {
		t.Error("NewCounter(\"\") should return the approximate counter")
	}
	if _, ok := NewCounter("http://localhost:8081").(*RemoteCounter); !ok {
		t.Error("NewCounter with a URL should return the remote counter")
	}
}
