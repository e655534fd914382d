package httpadapter

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Inbound X-Request-Id values are honored so traces line up across callers;
// otherwise one is minted. The id is always echoed on the response.
const requestIDHeader = "X-Request-Id"

// requestMeta travels with the request context. The auth middleware fills
// caller in once the bearer token is verified, so the access record can
// name who made the call even though observation wraps the auth layer.
type requestMeta struct {
	id     string
	caller string
}

type requestMetaKey struct{}

func metaFromContext(ctx context.Context) *requestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(*requestMeta)
	return meta
}

func requestIDFromContext(ctx context.Context) string {
	if meta := metaFromContext(ctx); meta != nil {
		return meta.id
	}
	return ""
}

// observeMiddleware assigns the request id and emits one structured access
// record per request on the service logger.
func observeMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := &requestMeta{id: strings.TrimSpace(r.Header.Get(requestIDHeader))}
		if meta.id == "" {
			meta.id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, meta.id)

		recorder := newResponseRecorder(w)
		start := time.Now()
		next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), requestMetaKey{}, meta)))

		attrs := []any{
			"request_id", meta.id,
			"caller", meta.caller,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status(),
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes", recorder.bytes,
			"remote_addr", clientAddr(r),
		}
		switch {
		case recorder.status() >= 500:
			logger.Error("http_request", attrs...)
		case recorder.status() >= 400:
			logger.Warn("http_request", attrs...)
		default:
			logger.Info("http_request", attrs...)
		}
	})
}

func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// responseRecorder captures status and byte count while passing through the
// optional interfaces the SSE handler relies on.
type responseRecorder struct {
	http.ResponseWriter
	code  int
	bytes int
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w}
}

func (w *responseRecorder) status() int {
	if w.code == 0 {
		return http.StatusOK
	}
	return w.code
}

func (w *responseRecorder) WriteHeader(statusCode int) {
	if w.code == 0 {
		w.code = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *responseRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *responseRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
