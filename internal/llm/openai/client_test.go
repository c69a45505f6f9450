package openai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/narratext/narratext/internal/llm"
	"github.com/narratext/narratext/internal/parallel"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	}, slog.Default())
}

func TestCompleteReturnsContent(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  {\"keep\": []}  "}},
			},
		})
	})

	content, err := client.Complete(context.Background(), llm.Request{
		System:     "classify",
		User:       "candidates",
		ExpectJSON: true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if content != `{"keep": []}` {
		t.Fatalf("content = %q, want trimmed JSON", content)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Fatalf("model = %v", gotBody["model"])
	}
	rf, ok := gotBody["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_object" {
		t.Fatalf("response_format = %v", gotBody["response_format"])
	}
}

func TestCompleteHTTPErrorClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream failure", tt.status)
			})
			_, err := client.Complete(context.Background(), llm.Request{System: "s", User: "u"})
			if err == nil {
				t.Fatal("expected error")
			}
			var httpErr *llm.HTTPError
			if !errors.As(err, &httpErr) || httpErr.Status != tt.status {
				t.Fatalf("err = %v, want HTTPError with status %d", err, tt.status)
			}
			if got := parallel.Transient(err); got != tt.wantTransient {
				t.Fatalf("Transient = %v, want %v", got, tt.wantTransient)
			}
		})
	}
}

func TestCompleteNoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})
	if _, err := client.Complete(context.Background(), llm.Request{System: "s", User: "u"}); err == nil {
		t.Fatal("empty choices must fail")
	}
}

func TestDecodeChatContent(t *testing.T) {
	raw := []byte(`{"choices": [{"message": {"content": " hello "}}]}`)
	got, err := DecodeChatContent(raw)
	if err != nil || got != "hello" {
		t.Fatalf("got %q, err %v", got, err)
	}
	if _, err := DecodeChatContent([]byte("not json")); err == nil {
		t.Fatal("malformed body must fail")
	}
}

func TestVisionRequestCarriesImagePart(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"paragraphs": []}`}},
			},
		})
	})

	_, err := client.Complete(context.Background(), llm.Request{
		System:       "transcribe",
		User:         "page 1 of 1",
		ImageDataURL: "data:image/jpeg;base64,ZmFrZQ==",
		ExpectJSON:   true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	messages, ok := gotBody["messages"].([]any)
	if !ok || len(messages) < 2 {
		t.Fatalf("messages = %v", gotBody["messages"])
	}
	user, ok := messages[1].(map[string]any)
	if !ok {
		t.Fatalf("user message = %v", messages[1])
	}
	parts, ok := user["content"].([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("vision content = %v", user["content"])
	}
	image, ok := parts[1].(map[string]any)
	if !ok || image["type"] != "image_url" {
		t.Fatalf("second part = %v", parts[1])
	}
}
