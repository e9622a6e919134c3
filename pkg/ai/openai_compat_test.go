package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAICompatGenerateText(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var req oaiChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  hello  "}},
			},
		})
	}))
	defer srv.Close()

	g := NewOpenAICompatGenerator(srv.URL+"/v1", "sk-test", "gpt-test")
	text, err := g.GenerateText(context.Background(), "be brief", "say hello")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q, want %q", text, "hello")
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("auth header = %q", gotAuth)
	}
}

func TestOpenAICompatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
		})
	}))
	defer srv.Close()

	g := NewOpenAICompatGenerator(srv.URL+"/v1", "", "gpt-test")
	if _, err := g.GenerateText(context.Background(), "", "hi"); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestOpenAICompatEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	g := NewOpenAICompatGenerator(srv.URL+"/v1", "", "gpt-test")
	if _, err := g.GenerateText(context.Background(), "", "hi"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestJobDescWriter(t *testing.T) {
	w := NewJobDescWriter(&stubGenerator{text: "## Backend Engineer\n\nWe build things."})
	text, err := w.Write(context.Background(), "Backend Engineer", "Go, Postgres")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if text == "" {
		t.Error("expected draft text")
	}
}

func TestJobDescWriterPropagatesErrors(t *testing.T) {
	w := NewJobDescWriter(&stubGenerator{err: context.DeadlineExceeded})
	if _, err := w.Write(context.Background(), "Backend Engineer", ""); err == nil {
		t.Fatal("expected error from generator")
	}

	w = NewJobDescWriter(nil)
	if _, err := w.Write(context.Background(), "Backend Engineer", ""); err == nil {
		t.Fatal("expected error with no provider")
	}

	w = NewJobDescWriter(&stubGenerator{text: "x"})
	if _, err := w.Write(context.Background(), "   ", ""); err == nil {
		t.Fatal("expected error for empty title")
	}
}
