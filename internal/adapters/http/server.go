package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"policyguard/internal/domain"
	"policyguard/internal/ports"
	"policyguard/internal/telemetry"
)

// maxBodyBytes bounds request bodies; submitted text is capped far below it.
const maxBodyBytes = 1 << 20

// Server exposes the compliance and policy services over JSON/HTTP.
type Server struct {
	compliance ports.Compliance
	policies   ports.Policies
	health     ports.Pinger
	metrics    *telemetry.Metrics
	logger     *slog.Logger
}

func New(compliance ports.Compliance, policies ports.Policies, health ports.Pinger, metrics *telemetry.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		compliance: compliance,
		policies:   policies,
		health:     health,
		metrics:    metrics,
		logger:     logger.With("component", "http"),
	}
}

// Routes returns the chi router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.getHealthz)
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/rules", s.getRules)

	r.Route("/compliance", func(r chi.Router) {
		r.Post("/check", s.postCheck)
		r.Get("/logs", s.getLogs)
		r.Get("/logs/{id}", s.getLog)
	})
	r.Route("/policies", func(r chi.Router) {
		r.Get("/", s.getPolicies)
		r.Post("/", s.postPolicy)
		r.Get("/{id}", s.getPolicy)
		r.Post("/{id}/versions", s.postPolicyVersion)
	})
	return r
}

func (s *Server) getHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	resp := healthResponse{Status: "ok", StoreOK: true}
	if s.health != nil {
		if err := s.health.Ping(ctx); err != nil {
			s.logger.Warn("store ping failed", "error", err)
			resp = healthResponse{Status: "degraded", StoreOK: false}
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type healthResponse struct {
	Status  string `json:"status"`
	StoreOK bool   `json:"store_ok"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto status codes: validation failures are
// 400, missing records 404, anything else 500 with the cause only logged.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		nf *domain.NotFoundError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Reason, Field: ve.Field})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no such entry", Detail: nf.Error()})
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Reason: "malformed JSON body: " + err.Error()}
	}
	return nil
}
