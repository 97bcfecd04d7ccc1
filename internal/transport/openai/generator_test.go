package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

func chatCompletionResponse(answer string, promptTokens, completionTokens int) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": answer,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatCompletionResponse("MFA is required.", 50, 10))
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:      "test-key",
		BaseURL:     server.URL,
		Model:       "test-model",
		Temperature: 0.3,
		MaxTokens:   500,
		Provider:    "test",
		Logger:      zap.NewNop(),
	})

	result, err := gen.Generate(context.Background(), "[Security]\nMFA is required for admins.", "Is MFA required?")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.Answer != "MFA is required." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if result.PromptTokens != 50 || result.CompletionTokens != 10 || result.TotalTokens != 60 {
		t.Errorf("unexpected usage: %+v", result)
	}

	if len(gotBody.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(gotBody.Messages))
	}
	if gotBody.Messages[0].Role != "system" {
		t.Errorf("expected system role first, got %q", gotBody.Messages[0].Role)
	}
	if !strings.Contains(gotBody.Messages[0].Content, "based on provided context") {
		t.Errorf("unexpected system prompt: %q", gotBody.Messages[0].Content)
	}
	if !strings.Contains(gotBody.Messages[1].Content, "Context:\n[Security]\nMFA is required for admins.") {
		t.Errorf("user message missing context block: %q", gotBody.Messages[1].Content)
	}
	if !strings.Contains(gotBody.Messages[1].Content, "Question: Is MFA required?") {
		t.Errorf("user message missing question: %q", gotBody.Messages[1].Content)
	}
	if gotBody.Temperature != 0.3 {
		t.Errorf("expected temperature 0.3, got %v", gotBody.Temperature)
	}
	if gotBody.MaxTokens != 500 {
		t.Errorf("expected max_tokens 500, got %d", gotBody.MaxTokens)
	}
}

func TestGenerator_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message": "backend exploded",
				"type":    "server_error",
			},
		})
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	_, err := gen.Generate(context.Background(), "ctx", "q")
	if err == nil {
		t.Fatal("expected error from API")
	}
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Errorf("expected ErrGenerationProviderError, got %v", err)
	}
}

func TestGenerator_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"model":   "test-model",
			"choices": []any{},
		})
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	_, err := gen.Generate(context.Background(), "ctx", "q")
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	if !errors.Is(err, domain.ErrGenerationProviderError) {
		t.Errorf("expected ErrGenerationProviderError, got %v", err)
	}
}

func streamChunk(t *testing.T, delta string) string {
	t.Helper()
	chunk := map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion.chunk",
		"model":  "test-model",
		"choices": []map[string]any{
			{
				"index": 0,
				"delta": map[string]any{"content": delta},
			},
		},
	}
	b, err := json.Marshal(chunk)
	if err != nil {
		t.Fatalf("marshal chunk: %v", err)
	}
	return fmt.Sprintf("data: %s\n\n", b)
}

func TestGenerator_GenerateStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")

		fmt.Fprint(w, streamChunk(t, "The "))
		fmt.Fprint(w, streamChunk(t, "answer"))
		fmt.Fprint(w, streamChunk(t, "."))

		// Финальный chunk с usage и пустыми choices
		final := map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion.chunk",
			"model":   "test-model",
			"choices": []any{},
			"usage": map[string]any{
				"prompt_tokens":     30,
				"completion_tokens": 3,
				"total_tokens":      33,
			},
		}
		b, _ := json.Marshal(final)
		fmt.Fprintf(w, "data: %s\n\n", b)
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	var deltas []string
	result, err := gen.GenerateStream(context.Background(), "ctx", "q", func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}

	if result.Answer != "The answer." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if len(deltas) != 3 {
		t.Fatalf("expected 3 deltas, got %d: %v", len(deltas), deltas)
	}
	if deltas[0] != "The " || deltas[1] != "answer" || deltas[2] != "." {
		t.Errorf("deltas out of order: %v", deltas)
	}
	if result.TotalTokens != 33 {
		t.Errorf("expected TotalTokens=33, got %d", result.TotalTokens)
	}
}

func TestGenerator_GenerateStream_DeltaError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, streamChunk(t, "partial"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	sentinel := errors.New("client gone")
	_, err := gen.GenerateStream(context.Background(), "ctx", "q", func(string) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected delta error to propagate, got %v", err)
	}
}
