// Package api exposes the inference service over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/data"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/metrics"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/predict"
	"github.com/saurabhpandey2108/Holiday-Package-Prediction/pkg/segment"
)

// Predictor is the inference surface the handlers need.
type Predictor interface {
	Ready() bool
	Family() string
	Predict(rec *data.RawRecord) (predict.Label, error)
	AssignSegment(rec *data.RawRecord) (predict.Assignment, error)
	Segments() (*segment.Metadata, bool)
}

// Handler serves the API.
type Handler struct {
	svc Predictor
	log zerolog.Logger
}

// NewHandler wraps svc.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewHandler(svc Predictor, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Router builds the chi router.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.instrument)
		r.Use(chimiddleware.AllowContentType("application/json"))
		r.Post("/predict", h.Predict)
		r.Post("/segments/assign", h.AssignSegment)
		r.Get("/segments", h.Segments)
	})
	return r
}

// instrument records request metrics and logs each request.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequest(r.Method, route, status, time.Since(start))
		h.log.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", status).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
