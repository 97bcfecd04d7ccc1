package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	corpusuc "github.com/kailas-cloud/ragdex/internal/usecase/corpus"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	raguc "github.com/kailas-cloud/ragdex/internal/usecase/rag"
	searchuc "github.com/kailas-cloud/ragdex/internal/usecase/search"
)

// errorCode identifies the machine-readable error kind in API responses.
type errorCode string

const (
	codeBadRequest              errorCode = "bad_request"
	codeValidationFailed        errorCode = "validation_failed"
	codeVectorDimMismatch       errorCode = "vector_dim_mismatch"
	codeEmbeddingProviderError  errorCode = "embedding_provider_error"
	codeGenerationProviderError errorCode = "generation_provider_error"
	codeCorpusEmpty             errorCode = "corpus_empty"
	codeStreamingNotSupported   errorCode = "streaming_not_supported"
	codeInternalError           errorCode = "internal_error"
)

// errorResponse is the JSON error body returned by all endpoints.
type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the HTTP API to the retrieval and RAG services.
type Server struct {
	search        *searchuc.Service
	rag           *raguc.Service
	health        *healthuc.Service
	corpus        *corpusuc.Corpus
	defaultTopK   int
	maxTopK       int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	rag *raguc.Service,
	health *healthuc.Service,
	corpus *corpusuc.Corpus,
	defaultTopK, maxTopK int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:      search,
		rag:         rag,
		health:      health,
		corpus:      corpus,
		defaultTopK: defaultTopK,
		maxTopK:     maxTopK,
		logger:      logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrGenerationProviderError, http.StatusBadGateway, codeGenerationProviderError),
		sentinelHandler(domain.ErrCorpusEmpty, http.StatusServiceUnavailable, codeCorpusEmpty),
		sentinelHandler(domain.ErrStreamingNotSupported, http.StatusNotImplemented, codeStreamingNotSupported),
	}
	return s
}

// RegisterRoutes mounts all API routes on the router.
func (s *Server) RegisterRoutes(r chirouter.Router) {
	r.Post("/search", s.SearchDocuments)
	r.Post("/ask", s.Ask)
	r.Post("/ask/stream", s.AskStream)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type searchRequest struct {
	Query string `json:"query"`
	TopK  *int   `json:"top_k,omitempty"`
}

type searchResultItem struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type searchResponse struct {
	Results []searchResultItem `json:"results"`
	Total   int                `json:"total"`
}

// SearchDocuments handles POST /search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	topK, ok := s.resolveTopK(w, req.TopK)
	if !ok {
		return
	}

	candidates, err := s.search.Search(r.Context(), req.Query, s.corpus.Documents(), s.corpus.Vectors(), topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]searchResultItem, len(candidates))
	for i, c := range candidates {
		items[i] = searchResultItem{
			Title:   c.Document().Title(),
			Content: c.Document().Content(),
			Score:   c.Score(),
		}
	}

	writeJSON(w, http.StatusOK, searchResponse{Results: items, Total: len(items)})
}

type askRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k,omitempty"`
}

type sourceItem struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type usageInfo struct {
	EmbeddingTokens  int `json:"embedding_tokens"`
	GenerationTokens int `json:"generation_tokens"`
}

type askResponse struct {
	Answer  string       `json:"answer"`
	Sources []sourceItem `json:"sources"`
	Usage   usageInfo    `json:"usage"`
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	topK, ok := s.resolveTopK(w, req.TopK)
	if !ok {
		return
	}

	answer, err := s.rag.Answer(r.Context(), req.Question, s.corpus.Documents(), s.corpus.Vectors(), topK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Answer:  answer.Text,
		Sources: sourcesToItems(answer.Sources),
		Usage: usageInfo{
			EmbeddingTokens:  answer.EmbeddingTokens,
			GenerationTokens: answer.GenerationTokens,
		},
	})
}

// AskStream handles POST /ask/stream. The answer is delivered as SSE events:
// "sources" with the retrieved documents, "delta" per answer fragment and a
// final "done" with token usage. Errors before the first delta are plain JSON.
func (s *Server) AskStream(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	topK, ok := s.resolveTopK(w, req.TopK)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		writeError(w, http.StatusInternalServerError, codeInternalError, "streaming unsupported by connection")
		return
	}

	// Генерация может жить дольше WriteTimeout сервера — снимаем дедлайн
	// на время стрима, иначе SSE обрывается посреди ответа.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	streaming := false
	startStream := func() {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		streaming = true
	}

	answer, err := s.rag.AnswerStream(
		r.Context(), req.Question, s.corpus.Documents(), s.corpus.Vectors(), topK,
		func(delta string) error {
			if !streaming {
				startStream()
			}
			return writeSSE(w, flusher, "delta", map[string]string{"text": delta})
		},
	)
	if err != nil {
		if streaming {
			// Заголовки уже ушли — сообщаем об ошибке событием
			s.logger.Warn("stream aborted", zap.Error(err))
			_ = writeSSE(w, flusher, "error", errorResponse{
				Code:    codeInternalError,
				Message: safeDomainMessage(err),
			})
			return
		}
		s.handleDomainError(w, err)
		return
	}

	if !streaming {
		startStream()
	}
	_ = writeSSE(w, flusher, "sources", sourcesToItems(answer.Sources))
	_ = writeSSE(w, flusher, "done", usageInfo{
		EmbeddingTokens:  answer.EmbeddingTokens,
		GenerationTokens: answer.GenerationTokens,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
		"corpus": map[string]int{
			"documents":  s.corpus.Size(),
			"dimensions": s.corpus.Dimensions(),
		},
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// resolveTopK validates the requested top_k and falls back to the default.
func (s *Server) resolveTopK(w http.ResponseWriter, topK *int) (int, bool) {
	if topK == nil {
		return s.defaultTopK, true
	}
	if *topK < 0 || *topK > s.maxTopK {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("top_k must be between 0 and %d", s.maxTopK))
		return 0, false
	}
	return *topK, true
}

func sourcesToItems(sources []domain.Candidate) []sourceItem {
	items := make([]sourceItem, len(sources))
	for i, c := range sources {
		items[i] = sourceItem{Title: c.Document().Title(), Score: c.Score()}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// writeSSE emits a single server-sent event with a JSON payload and flushes.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("write sse event: %w", err)
	}
	flusher.Flush()
	return nil
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidArgument,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationProviderError,
		domain.ErrCorpusEmpty,
		domain.ErrStreamingNotSupported,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
