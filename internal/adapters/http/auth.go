package httpadapter

import (
	"context"
	"net/http"
	"strings"

	"github.com/kirillkom/document-chat/internal/core/domain"
	"github.com/kirillkom/document-chat/internal/core/ports"
)

type identityContextKey struct{}

func identityFromContext(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityContextKey{}).(domain.Identity)
	return identity
}

func authMiddleware(next http.Handler, verifier ports.TokenVerifier) http.Handler {
	if verifier == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		identity, err := verifier.Verify(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if meta := metaFromContext(r.Context()); meta != nil {
			meta.caller = identity.Subject
		}
		ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(headerValue string) (string, bool) {
	headerValue = strings.TrimSpace(headerValue)
	const bearerPrefix = "Bearer "
	if headerValue == "" || !strings.HasPrefix(headerValue, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(headerValue, bearerPrefix))
	if token == "" {
		return "", false
	}
	return token, true
}
