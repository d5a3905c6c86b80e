package encode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testConfig(endpoint string) *Config {
	return &Config{
		Provider:    "test",
		Model:       "test-model",
		Endpoint:    endpoint,
		MaxRetries:  2,
		TimeoutSecs: 5,
	}
}

func embeddingsHandler(t *testing.T, vectors map[string][]float32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
			w.WriteHeader(400)
			return
		}
		resp := response{}
		for i, text := range req.Input {
			vec, ok := vectors[text]
			if !ok {
				t.Errorf("unexpected input text %q", text)
				w.WriteHeader(400)
				return
			}
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: vec, Index: i})
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func TestClientEncodeOrdersByIndex(t *testing.T) {
	server := httptest.NewServer(embeddingsHandler(t, map[string][]float32{
		"first":  {1, 0},
		"second": {0, 1},
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	vectors, err := client.Encode(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("vectors out of order: %v", vectors)
	}
}

func TestClientEncodeEmptyInput(t *testing.T) {
	client, err := NewClient(testConfig("http://localhost:1"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	vectors, err := client.Encode(context.Background(), nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if vectors != nil {
		t.Fatalf("got %v for empty input, want nil", vectors)
	}
}

func TestClientRetriesOnServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(500)
			return
		}
		embeddingsHandler(t, map[string][]float32{"text": {1}})(w, r)
	}))
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	vectors, err := client.Encode(context.Background(), []string{"text"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("server saw %d attempts, want 2", attempts)
	}
	if len(vectors) != 1 || vectors[0][0] != 1 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(500)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 1
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Encode(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if attempts != 2 {
		t.Fatalf("server saw %d attempts, want 2", attempts)
	}
}

func TestClientRejectsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(response{})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxRetries = 0
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Encode(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected error for embedding count mismatch")
	}
}

func TestParseFlag(t *testing.T) {
	cfg, err := ParseFlag("ollama/nomic-embed-text")
	if err != nil {
		t.Fatalf("ParseFlag: %v", err)
	}
	if cfg.Provider != "ollama" || cfg.Model != "nomic-embed-text" {
		t.Fatalf("got %s/%s", cfg.Provider, cfg.Model)
	}
	if cfg.Endpoint == "" {
		t.Fatal("ollama endpoint not defaulted")
	}

	// Model names may contain slashes.
	cfg, err = ParseFlag("openrouter/sentence-transformers/all-MiniLM-L6-v2")
	if err != nil {
		t.Fatalf("ParseFlag: %v", err)
	}
	if cfg.Model != "sentence-transformers/all-MiniLM-L6-v2" {
		t.Fatalf("got model %q", cfg.Model)
	}

	for _, bad := range []string{"", "noslash", "/model", "provider/", "mystery/model"} {
		if _, err := ParseFlag(bad); err == nil {
			t.Fatalf("ParseFlag(%q): expected error", bad)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	valid := testConfig("http://localhost:1")
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	missing := *valid
	missing.Model = ""
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error for missing model")
	}

	needsKey := *valid
	needsKey.Provider = "openai"
	if err := needsKey.Validate(); err == nil {
		t.Fatal("expected error for missing API key")
	}
}
