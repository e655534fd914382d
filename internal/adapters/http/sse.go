package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"
)

// streamAnswer writes the completed answer as a server-sent event stream,
// one delta event per rune-bounded slice, terminated by a [DONE] marker.
func streamAnswer(w http.ResponseWriter, answer string, chunkChars int) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming is not supported by response writer")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, part := range splitByRunes(answer, chunkChars) {
		payload, err := json.Marshal(map[string]string{"delta": part})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		flusher.Flush()
	}

	if _, err := io.WriteString(w, "data: [DONE]\n\n"); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func splitByRunes(text string, chunkChars int) []string {
	if chunkChars <= 0 {
		chunkChars = 120
	}
	if strings.TrimSpace(text) == "" {
		return []string{""}
	}
	if utf8.RuneCountInString(text) <= chunkChars {
		return []string{text}
	}

	runes := []rune(text)
	parts := make([]string, 0, len(runes)/chunkChars+1)
	for start := 0; start < len(runes); start += chunkChars {
		end := start + chunkChars
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

func slogError(r *http.Request, err error) {
	slog.Error("sse_stream_failed",
		"request_id", requestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
}
