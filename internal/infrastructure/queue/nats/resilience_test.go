package nats

import (
	"context"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

func TestClassifyReconnectingConnectionIsRetryable(t *testing.T) {
	for _, cause := range []error{
		nats.ErrConnectionClosed,
		nats.ErrConnectionReconnecting,
		nats.ErrReconnectBufExceeded,
		nats.ErrNoServers,
	} {
		err := fmt.Errorf("nats publish: %w", cause)
		class := classifyNATSError(err)
		if !class.Retryable || !class.RecordFailure {
			t.Errorf("%v: expected retryable recorded failure, got %+v", cause, class)
		}
		if !domain.IsKind(wrapTemporaryIfNeeded("queue publish", err), domain.ErrTemporary) {
			t.Errorf("%v: expected temporary wrapping", cause)
		}
	}
}

func TestClassifyOversizedMessageIsPermanent(t *testing.T) {
	err := fmt.Errorf("nats publish: %w", nats.ErrMaxPayload)

	class := classifyNATSError(err)
	if class.Retryable {
		t.Fatal("an oversized message does not shrink on retry")
	}
	if !class.RecordFailure {
		t.Fatal("an oversized message should still count against the breaker")
	}
	if domain.IsKind(wrapTemporaryIfNeeded("queue publish", err), domain.ErrTemporary) {
		t.Fatal("an oversized message must not be reported as temporary")
	}
}

func TestClassifyCanceledPublishIsNeutral(t *testing.T) {
	err := fmt.Errorf("nats publish: %w", context.Canceled)

	if class := classifyNATSError(err); class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation should neither retry nor record, got %+v", class)
	}
}
