package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/document-chat/internal/core/domain"
	"github.com/kirillkom/document-chat/internal/core/ports"
)

// Index stores embedded chunks in qdrant collections. Embeddings are
// computed through the Embedder port before upserting, so a failed embedding
// call leaves the collection untouched.
type Index struct {
	baseURL    string
	embedder   ports.Embedder
	httpClient *http.Client

	ensureMu sync.Mutex
	ensured  map[string]int
}

func NewIndex(baseURL string, embedder ports.Embedder) *Index {
	return &Index{
		baseURL:    strings.TrimRight(baseURL, "/"),
		embedder:   embedder,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		ensured:    make(map[string]int),
	}
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func (c *Index) Add(ctx context.Context, collection string, chunks []domain.Chunk) ([]string, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.WrapError(domain.ErrEmbedding, "embed chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)))
	}

	if err := c.ensureCollection(ctx, collection, len(vectors[0])); err != nil {
		return nil, domain.WrapError(domain.ErrStore, "ensure collection", err)
	}

	ids := make([]string, len(chunks))
	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		ids[i] = uuid.NewString()
		points = append(points, point{
			ID:     ids[i],
			Vector: vectors[i],
			Payload: map[string]any{
				"document_id": chunk.DocumentID,
				"source_file": chunk.SourceFile,
				"page":        chunk.Page,
				"chunk_index": chunk.Index,
				"text":        chunk.Text,
			},
		})
	}

	// wait=true makes the upsert durable before returning, so a successful
	// Add is visible to the next QueryByDocument.
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, collection)
	if err := c.doJSON(ctx, http.MethodPut, url, map[string]any{"points": points}, nil); err != nil {
		return nil, domain.WrapError(domain.ErrStore, "qdrant upsert", err)
	}
	return ids, nil
}

func (c *Index) QueryByDocument(ctx context.Context, collection, documentID string) ([]domain.StoredChunk, error) {
	out := make([]domain.StoredChunk, 0)

	var offset any
	for {
		reqBody := map[string]any{
			"limit":        256,
			"with_payload": true,
			"filter": map[string]any{
				"must": []map[string]any{
					{
						"key": "document_id",
						"match": map[string]any{
							"value": documentID,
						},
					},
				},
			},
		}
		if offset != nil {
			reqBody["offset"] = offset
		}

		var scrollResp struct {
			Result struct {
				Points []struct {
					ID      string         `json:"id"`
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}

		url := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, collection)
		err := c.doJSON(ctx, http.MethodPost, url, reqBody, &scrollResp)
		if err != nil {
			// An absent collection is an empty result, not a failure.
			var statusErr *httpStatusError
			if asHTTPStatus(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
				return out, nil
			}
			return nil, domain.WrapError(domain.ErrStore, "qdrant scroll", err)
		}

		for _, p := range scrollResp.Result.Points {
			out = append(out, domain.StoredChunk{
				ID:         p.ID,
				Text:       payloadString(p.Payload, "text"),
				DocumentID: payloadString(p.Payload, "document_id"),
				SourceFile: payloadString(p.Payload, "source_file"),
				Page:       payloadInt(p.Payload, "page"),
				Index:      payloadInt(p.Payload, "chunk_index"),
			})
		}

		if scrollResp.Result.NextPageOffset == nil {
			return out, nil
		}
		offset = scrollResp.Result.NextPageOffset
	}
}

func (c *Index) DeleteByDocument(ctx context.Context, collection, documentID string) error {
	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key": "document_id",
					"match": map[string]any{
						"value": documentID,
					},
				},
			},
		},
	}

	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", c.baseURL, collection)
	if err := c.doJSON(ctx, http.MethodPost, url, reqBody, nil); err != nil {
		var statusErr *httpStatusError
		if asHTTPStatus(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return domain.WrapError(domain.ErrStore, "qdrant delete points", err)
	}
	return nil
}

func (c *Index) ensureCollection(ctx context.Context, collection string, vectorSize int) error {
	c.ensureMu.Lock()
	if size, ok := c.ensured[collection]; ok && size == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, collection)
	err := c.doJSON(ctx, http.MethodPut, url, reqBody, nil)
	if err != nil {
		// 409 means the collection already exists (version dependent).
		var statusErr *httpStatusError
		if asHTTPStatus(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
			c.markEnsured(collection, vectorSize)
			return nil
		}
		return err
	}
	c.markEnsured(collection, vectorSize)
	return nil
}

func (c *Index) markEnsured(collection string, vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensured[collection] = vectorSize
}

func (c *Index) doJSON(ctx context.Context, method, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &httpStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func payloadInt(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}
