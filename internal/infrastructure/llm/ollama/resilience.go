package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/document-chat/internal/core/domain"
	"github.com/kirillkom/document-chat/internal/infrastructure/resilience"
)

// HTTPStatusError is returned by postJSON for any non-2xx Ollama response.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// classifyOllamaError maps the failures /api/embed and /api/chat actually
// produce onto retry and breaker decisions: non-2xx statuses from Ollama,
// transport errors from the HTTP client, and malformed response bodies.
func classifyOllamaError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The caller gave up; neither retrying nor penalizing Ollama helps.
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return classifyOllamaStatus(statusErr.StatusCode)
	}

	// Anything else from the HTTP client is a transport failure worth
	// another attempt. Malformed JSON on a 2xx response is not, but it
	// still counts against the breaker because the server misbehaved.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

// classifyOllamaStatus interprets Ollama's status codes. 404 means the
// configured model is not pulled and 400 a bad request body; retrying
// cannot fix either, and neither says anything about server health.
func classifyOllamaStatus(statusCode int) resilience.ErrorClassification {
	switch {
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusTooManyRequests:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case statusCode == http.StatusNotImplemented:
		return resilience.ErrorClassification{RecordFailure: true}
	case statusCode >= 500:
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{}
	}
}

func wrapTemporaryIfNeeded(operation string, err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyOllamaError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
