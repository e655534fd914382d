package auth

import (
	"context"
	"testing"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

func TestVerifyAcceptsConfiguredToken(t *testing.T) {
	verifier, err := NewStaticVerifier("s3cret", "ops")
	if err != nil {
		t.Fatalf("NewStaticVerifier() error = %v", err)
	}

	identity, err := verifier.Verify(context.Background(), "s3cret")
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if identity.Subject != "ops" {
		t.Fatalf("unexpected subject %q", identity.Subject)
	}
}

func TestVerifyRejectsWrongToken(t *testing.T) {
	verifier, err := NewStaticVerifier("s3cret", "")
	if err != nil {
		t.Fatalf("NewStaticVerifier() error = %v", err)
	}

	_, err = verifier.Verify(context.Background(), "other")
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestEmptyTokenIsConfigError(t *testing.T) {
	_, err := NewStaticVerifier("  ", "ops")
	if !domain.IsKind(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
