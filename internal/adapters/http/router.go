package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/document-chat/internal/core/ports"
	"github.com/kirillkom/document-chat/internal/observability/metrics"
)

const backpressureWait = 100 * time.Millisecond

type Config struct {
	Service        string
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	StreamChars    int
	Logger         *slog.Logger
}

type Router struct {
	uploader ports.DocumentIngestor
	chat     ports.DocumentChatService
	remover  ports.DocumentRemover
	liveChat ports.LiveChatService
	repo     ports.DocumentRepository
	tracker  ports.StatusTracker
	verifier ports.TokenVerifier

	httpMetrics    *metrics.HTTPServerMetrics
	metricsHandler http.Handler
	cfg            Config
}

func NewRouter(
	uploader ports.DocumentIngestor,
	chat ports.DocumentChatService,
	remover ports.DocumentRemover,
	liveChat ports.LiveChatService,
	repo ports.DocumentRepository,
	tracker ports.StatusTracker,
	verifier ports.TokenVerifier,
	httpMetrics *metrics.HTTPServerMetrics,
	metricsHandler http.Handler,
	cfg Config,
) *Router {
	return &Router{
		uploader:       uploader,
		chat:           chat,
		remover:        remover,
		liveChat:       liveChat,
		repo:           repo,
		tracker:        tracker,
		verifier:       verifier,
		httpMetrics:    httpMetrics,
		metricsHandler: metricsHandler,
		cfg:            cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/documents", rt.uploadDocument)
	api.HandleFunc("GET /v1/documents", rt.listDocuments)
	api.HandleFunc("GET /v1/documents/{id}", rt.getDocument)
	api.HandleFunc("DELETE /v1/documents/{id}", rt.deleteDocument)
	api.HandleFunc("GET /v1/documents/{id}/status", rt.documentStatus)
	api.HandleFunc("POST /v1/documents/{id}/chat", rt.askDocument)
	api.HandleFunc("GET /v1/documents/{id}/chat", rt.chatHistory)
	api.HandleFunc("POST /v1/sessions", rt.openSession)
	api.HandleFunc("POST /v1/sessions/{id}/messages", rt.sendSessionMessage)
	api.HandleFunc("DELETE /v1/sessions/{id}", rt.closeSession)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metricsHandler != nil {
		mux.Handle("GET /metrics", rt.metricsHandler)
	}
	mux.Handle("/v1/", authMiddleware(api, rt.verifier))

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.MaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	if rt.httpMetrics != nil {
		handler = rt.httpMetrics.Middleware(rt.cfg.Service, handler)
	}
	handler = observeMiddleware(rt.cfg.Logger, handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	doc, err := rt.uploader.Upload(r.Context(), identityFromContext(r.Context()), fileHeader.Filename, contentType, file)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.repo.ListByOwner(r.Context(), identityFromContext(r.Context()).Subject)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := rt.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := rt.remover.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) documentStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status, ok := rt.tracker.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no ingestion status for document")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (rt *Router) askDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	turn, err := rt.chat.Ask(r.Context(), identityFromContext(r.Context()), r.PathValue("id"), req.Question)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

func (rt *Router) chatHistory(w http.ResponseWriter, r *http.Request) {
	turns, err := rt.chat.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (rt *Router) openSession(w http.ResponseWriter, r *http.Request) {
	session, err := rt.liveChat.Open(r.Context(), identityFromContext(r.Context()))
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (rt *Router) sendSessionMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	answer, err := rt.liveChat.Send(r.Context(), r.PathValue("id"), req.Message)
	if err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if err := streamAnswer(w, answer, rt.cfg.StreamChars); err != nil {
		slogError(r, err)
	}
}

func (rt *Router) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := rt.liveChat.Close(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	// Error bodies carry only a short message, never internal detail.
	if i := strings.Index(message, ": "); status >= 500 && i > 0 {
		message = message[:i]
	}
	writeJSON(w, status, map[string]string{"error": message})
}
