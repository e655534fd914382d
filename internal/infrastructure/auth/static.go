package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/kirillkom/document-chat/internal/core/domain"
)

// StaticVerifier accepts exactly one preconfigured bearer token and maps it
// to a fixed caller identity.
type StaticVerifier struct {
	token   string
	subject string
}

func NewStaticVerifier(token, subject string) (*StaticVerifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, domain.WrapError(domain.ErrConfig, "auth", fmt.Errorf("empty api token"))
	}
	if strings.TrimSpace(subject) == "" {
		subject = "api"
	}
	return &StaticVerifier{token: token, subject: subject}, nil
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	if subtle.ConstantTimeCompare([]byte(token), []byte(v.token)) != 1 {
		return domain.Identity{}, domain.WrapError(domain.ErrUnauthorized, "auth", fmt.Errorf("token mismatch"))
	}
	return domain.Identity{Subject: v.subject}, nil
}
