package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/thywilljoshua/pdf-extract/internal/common"
	"github.com/thywilljoshua/pdf-extract/internal/convert"
	"github.com/thywilljoshua/pdf-extract/internal/metrics"
)

// Pipeline is one configured conversion.
type Pipeline interface {
	Run(ctx context.Context, path string) (convert.Result, error)
}

// Server exposes the pipeline over HTTP.
type Server struct {
	base        convert.Config
	newPipeline func(cfg convert.Config) Pipeline
	logger      *zap.Logger
	metrics     *metrics.Metrics
	maxUpload   int64
}

// New serves conv. Each request runs on a copy of conv whose config may
// be narrowed by form fields.
func New(conv *convert.Converter, logger *zap.Logger, m *metrics.Metrics, maxUploadMB int) *Server {
	if maxUploadMB <= 0 {
		maxUploadMB = 64
	}
	return &Server{
		base: conv.Config,
		newPipeline: func(cfg convert.Config) Pipeline {
			c := *conv
			c.Config = cfg
			return &c
		},
		logger:    common.OrNop(logger),
		metrics:   m,
		maxUpload: int64(maxUploadMB) << 20,
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/v1/extract", s.handleExtract).Methods(http.MethodPost)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	return router
}

// ListenAndServe blocks until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.start", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("server.shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.ObserveRequest("/healthz", "200")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	w.Header().Set("X-Request-ID", reqID)
	log := s.logger.With(zap.String("request_id", reqID))
	start := time.Now()

	status, body := s.extract(r, log)
	s.metrics.ObserveRequest("/v1/extract", strconv.Itoa(status))
	log.Info("server.extract",
		zap.Int("status", status),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	writeJSON(w, status, body)
}

func (s *Server) extract(r *http.Request, log *zap.Logger) (int, any) {
	r.Body = http.MaxBytesReader(nil, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return http.StatusBadRequest, errorBody("invalid multipart form", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return http.StatusBadRequest, errorBody("missing file field", err)
	}
	defer file.Close()

	cfg, err := s.overrides(r)
	if err != nil {
		return http.StatusBadRequest, errorBody("invalid form field", err)
	}

	path, cleanup, err := spool(file)
	if err != nil {
		log.Error("server.spool.failed", zap.Error(err))
		return http.StatusInternalServerError, errorBody("cannot store upload", err)
	}
	defer cleanup()

	res, err := s.newPipeline(cfg).Run(r.Context(), path)
	if err != nil {
		log.Warn("server.extract.failed", zap.Error(err))
		return statusFor(err), errorBody("extraction failed", err)
	}
	return http.StatusOK, extractResponse{Content: res.Content, Stats: res.Stats}
}

// overrides narrows the base config from form fields. Images are never
// written to disk on behalf of a remote caller.
func (s *Server) overrides(r *http.Request) (convert.Config, error) {
	cfg := s.base
	cfg.SaveImages = false
	if v := r.FormValue("pages"); v != "" {
		cfg.TablePages = v
	}
	for field, dst := range map[string]*bool{
		"no_tables":  &cfg.ExtractTables,
		"no_images":  &cfg.ExtractImages,
		"no_llm_ocr": &cfg.UseVisionFallback,
	} {
		v := r.FormValue(field)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", field, err)
		}
		if b {
			*dst = false
		}
	}
	return cfg, nil
}

func spool(src io.Reader) (string, func(), error) {
	f, err := os.CreateTemp("", "pdfextract-*.pdf")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.Remove(f.Name()) }
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return f.Name(), cleanup, nil
}

func statusFor(err error) int {
	switch common.ErrorCode(err) {
	case common.CodeInvalidPageSpec:
		return http.StatusBadRequest
	case common.CodeSourceUnreadable:
		return http.StatusUnprocessableEntity
	case common.CodeCombinationFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type extractResponse struct {
	Content string        `json:"content"`
	Stats   convert.Stats `json:"stats"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func errorBody(msg string, err error) errorResponse {
	return errorResponse{Error: msg, Code: common.ErrorCode(err), Detail: err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
