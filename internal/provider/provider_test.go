package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllama_Complete(t *testing.T) {
	var gotPath string
	var gotReq ollamaRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"response": "Here is the formatted post:\n\n# Title\n\nBody.",
		})
	}))
	defer server.Close()

	o := NewOllama(server.URL, "test-model")
	out, err := o.Complete(context.Background(), "format this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/api/generate" {
		t.Errorf("expected /api/generate, got %s", gotPath)
	}
	if gotReq.Model != "test-model" || gotReq.Prompt != "format this" || gotReq.Stream {
		t.Errorf("unexpected request payload: %+v", gotReq)
	}
	// The instruction echo must already be stripped at the client boundary.
	if out != "# Title\n\nBody." {
		t.Errorf("expected cleaned completion, got %q", out)
	}
}

func TestOllama_CompleteServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	o := NewOllama(server.URL, "")
	if _, err := o.Complete(context.Background(), "x"); err == nil {
		t.Error("expected error on HTTP 500")
	}
}

func TestOllama_Defaults(t *testing.T) {
	o := NewOllama("", "")
	if o.baseURL != "http://localhost:11434" {
		t.Errorf("unexpected default base URL: %s", o.baseURL)
	}
	if o.model != DefaultOllamaModel {
		t.Errorf("unexpected default model: %s", o.model)
	}
	if o.Name() != "ollama" {
		t.Errorf("unexpected name: %s", o.Name())
	}
}

func TestOllama_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("expected /api/tags, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := NewOllama(server.URL, "").IsAvailable(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOpenRouter_Complete(t *testing.T) {
	var gotAuth, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "# Title\n\nBody."}},
			},
		})
	}))
	defer server.Close()

	s := NewOpenRouter("sk-test", server.URL, "")
	out, err := s.Complete(context.Background(), "format this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Errorf("expected /chat/completions, got %s", gotPath)
	}
	if out != "# Title\n\nBody." {
		t.Errorf("unexpected completion: %q", out)
	}
}

func TestOpenRouter_RequiresAPIKey(t *testing.T) {
	s := NewOpenRouter("", "", "")
	if _, err := s.Complete(context.Background(), "x"); err == nil {
		t.Error("expected error without an API key")
	}
}

func TestOpenRouter_EmptyCompletionIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": ""}},
			},
		})
	}))
	defer server.Close()

	s := NewOpenRouter("sk-test", server.URL, "")
	if _, err := s.Complete(context.Background(), "x"); err == nil {
		t.Error("expected error on empty completion")
	}
}

func TestExtractText(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"chat content", `{"choices":[{"message":{"content":"hello"}}]}`, "hello"},
		{"chat text", `{"choices":[{"text":"hello"}]}`, "hello"},
		{"ollama response", `{"response":"hello"}`, "hello"},
		{"bare content", `{"content":"hello"}`, "hello"},
		{"bare text", `{"text":"hello"}`, "hello"},
		{"json string", `"hello"`, "hello"},
		{"plain body", "hello\n", "hello"},
	}
	for _, tc := range cases {
		if got := ExtractText([]byte(tc.body)); got != tc.want {
			t.Errorf("%s: ExtractText(%q) = %q, want %q", tc.name, tc.body, got, tc.want)
		}
	}
}
