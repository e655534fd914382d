package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "dial tcp 127.0.0.1:11434: i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyTransportTimeoutIsRetryable(t *testing.T) {
	err := fmt.Errorf("ollama embed request: %w", timeoutError{})

	class := classifyOllamaError(err)
	if !class.Retryable || !class.RecordFailure {
		t.Fatalf("expected retryable recorded failure, got %+v", class)
	}
	if !domain.IsKind(wrapTemporaryIfNeeded("ollama.embed", err), domain.ErrTemporary) {
		t.Fatal("expected transport timeout to surface as temporary")
	}
}

func TestClassifyUnknownModelIsPermanent(t *testing.T) {
	err := error(&HTTPStatusError{
		Operation:  "chat",
		StatusCode: http.StatusNotFound,
		Status:     "404 Not Found",
		Body:       `{"error":"model 'llama3.1:8b' not found"}`,
	})

	class := classifyOllamaError(err)
	if class.Retryable || class.RecordFailure {
		t.Fatalf("missing model should not retry or trip the breaker, got %+v", class)
	}
	if domain.IsKind(wrapTemporaryIfNeeded("ollama.chat", err), domain.ErrTemporary) {
		t.Fatal("missing model must not be reported as temporary")
	}
}

func TestClassifyOverloadedServerIsTemporary(t *testing.T) {
	err := error(&HTTPStatusError{Operation: "embed", StatusCode: http.StatusServiceUnavailable, Status: "503 Service Unavailable"})

	if class := classifyOllamaError(err); !class.Retryable {
		t.Fatalf("expected 503 to be retryable, got %+v", class)
	}
	if !domain.IsKind(wrapTemporaryIfNeeded("ollama.embed", err), domain.ErrTemporary) {
		t.Fatal("expected 503 to surface as temporary")
	}
}

func TestClassifyMalformedBodyCountsAgainstBreaker(t *testing.T) {
	err := fmt.Errorf("decode embed response: %w", errors.New("unexpected EOF"))

	class := classifyOllamaError(err)
	if class.Retryable {
		t.Fatal("a malformed body will not improve on retry")
	}
	if !class.RecordFailure {
		t.Fatal("a malformed body should count against the breaker")
	}
}

func TestClassifyCanceledContextIsNeutral(t *testing.T) {
	err := fmt.Errorf("ollama chat request: %w", context.Canceled)

	if class := classifyOllamaError(err); class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation should neither retry nor record, got %+v", class)
	}
}
