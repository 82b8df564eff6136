package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewProvidersRequireKey(t *testing.T) {
	if _, err := NewAnthropicProvider(""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("anthropic: expected ErrNoAPIKey, got %v", err)
	}
	if _, err := NewOpenAIProvider(""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("openai: expected ErrNoAPIKey, got %v", err)
	}
}

func TestAnthropicComplete(t *testing.T) {
	var gotVersion, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.Header.Get("anthropic-version")
		gotKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"content": [{"type": "text", "text": "[{\"sentiment\":\"POSITIVE\"}]"}],
			"model": "claude-sonnet-4-20250514",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 120, "output_tokens": 30}
		}`))
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider("sk-ant-test", WithAnthropicBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Complete(context.Background(), Request{
		System:      "classify posts",
		Prompt:      "1. great product",
		MaxTokens:   8192,
		Temperature: 0.15,
	})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}

	if gotKey != "sk-ant-test" {
		t.Errorf("x-api-key = %q", gotKey)
	}
	if gotVersion != "2023-06-01" {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
	if resp.Content != `[{"sentiment":"POSITIVE"}]` {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 120 || resp.Usage.OutputTokens != 30 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestAnthropicErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized,
			`{"type":"error","error":{"type":"authentication_error","message":"bad key"}}`, ErrNoAPIKey},
		{"rate limited", http.StatusTooManyRequests,
			`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, ErrRateLimit},
		{"server error", http.StatusServiceUnavailable,
			`{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`, ErrProviderDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, _ := NewAnthropicProvider("sk-ant-test", WithAnthropicBaseURL(srv.URL))
			_, err := p.Complete(context.Background(), Request{Prompt: "x"})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "[]"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 50, "completion_tokens": 2, "total_tokens": 52}
		}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider("sk-test", WithOpenAIBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Complete(context.Background(), Request{Prompt: "classify"})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if resp.Content != "[]" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 50 || resp.Usage.OutputTokens != 2 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}
