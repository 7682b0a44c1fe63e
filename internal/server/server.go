package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"normalizer/internal/corrector"
	"normalizer/internal/customdict"
	"normalizer/internal/pipeline"
	"normalizer/internal/sequence"
)

const maxBody = 1 << 20

// Server exposes the pipeline over HTTP. enc may be nil when the vocabulary
// artifact carries no word_index; /api/v1/encode then answers 503.
type Server struct {
	svc    *pipeline.Service
	enc    *sequence.Encoder
	logger *slog.Logger
}

// New builds a Server; a nil logger means slog.Default.
func New(svc *pipeline.Service, enc *sequence.Encoder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, enc: enc, logger: logger}
}

// Handler returns the routed handler with request ids and access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/normalize", s.handleNormalize)
	mux.HandleFunc("/api/v1/explain", s.handleExplain)
	mux.HandleFunc("/api/v1/encode", s.handleEncode)
	mux.HandleFunc("/api/v1/custom-word", s.handleCustomWords)
	mux.HandleFunc("/api/v1/custom-word/", s.handleRemoveWord)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	return s.withRequestID(mux)
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type normalizeRequest struct {
	// Text is a pointer so an absent field round-trips as null.
	Text       *string `json:"text"`
	Correction *bool   `json:"correction,omitempty"`
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req normalizeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Text == nil {
		writeJSON(w, http.StatusOK, map[string]any{"original": nil, "normalized": nil})
		return
	}
	enabled := s.svc.Options().CorrectionEnabled
	if req.Correction != nil {
		enabled = *req.Correction
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"original":   *req.Text,
		"normalized": s.svc.NormalizeWith(*req.Text, enabled),
	})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	sanitized, tokens := s.svc.Explain(req.Text)
	if tokens == nil {
		tokens = []corrector.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sanitized": sanitized,
		"tokens":    tokens,
	})
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if s.enc == nil {
		writeError(w, http.StatusServiceUnavailable, "encoder unavailable: vocabulary has no word_index")
		return
	}
	var req struct {
		Texts []string `json:"texts"`
	}
	if err := decode(w, r, &req); err != nil || len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	normalized := make([]string, len(req.Texts))
	for i, t := range req.Texts {
		normalized[i] = s.svc.Normalize(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"normalized": normalized,
		"sequences":  s.enc.EncodeBatch(normalized),
		"max_len":    s.enc.MaxLen(),
	})
}

func (s *Server) handleCustomWords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"words": s.svc.CustomWords()})
	case http.MethodPost:
		var req struct {
			Word string `json:"word"`
		}
		if err := decode(w, r, &req); err != nil || strings.TrimSpace(req.Word) == "" {
			writeError(w, http.StatusBadRequest, "invalid request")
			return
		}
		if err := s.svc.AddWord(r.Context(), req.Word); err != nil {
			s.wordError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleRemoveWord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	word := strings.TrimPrefix(r.URL.Path, "/api/v1/custom-word/")
	if word == "" {
		writeError(w, http.StatusBadRequest, "word is required")
		return
	}
	if err := s.svc.RemoveWord(r.Context(), word); err != nil {
		s.wordError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) wordError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, customdict.ErrInvalidWord) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("custom word update failed", "request_id", requestID(r), "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	status := "ready"
	if s.svc.Degraded() {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":             status,
		"vocab_size":         s.svc.VocabSize(),
		"correction_enabled": s.svc.Options().CorrectionEnabled,
		"encoder":            s.enc != nil,
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return sonic.ConfigStd.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	sonic.ConfigStd.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
