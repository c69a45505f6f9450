package llm

import (
	"context"
	"fmt"
)

/// Request is one LLM call: a system instruction, a user payload (text or
// text+image), and optional hints that the reply must be a JSON object
// matching Schema.
type Request struct {
	System       string
	User         string
	ImageDataURL string // optional; switches the call to vision input
	ExpectJSON   bool
	Schema       map[string]any // optional structured-output hint
}

// ChatClient is the live-mode contract the pipeline depends on. Complete
// returns the raw model text, which is expected to contain one JSON object.
type ChatClient interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// HTTPError is a typed transport failure. The retry layer classifies it:
// 429 and >=500 are transient, everything else is permanent.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("llm http status %d: %s", e.Status, excerpt(e.Body, 200))
}

// HTTPStatus implements parallel.HTTPStatusError.
func (e *HTTPError) HTTPStatus() int { return e.Status }

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
