// CineScout - Conversational Movie & TV Recommendation Service
// Copyright 2026 Mraprguild
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mraprguild/cinescout

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mraprguild/cinescout/internal/config"
	"github.com/mraprguild/cinescout/internal/logging"
	"github.com/mraprguild/cinescout/internal/metrics"
)

// NewRouter wires the API routes with their middleware stack.
func NewRouter(handler *Handler, cfg *config.RateLimitConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.Requests, cfg.Window))

		r.Get("/health", handler.Health)
		r.Get("/stats", handler.Stats)

		r.Get("/search", handler.Search)
		r.Get("/popular", handler.Popular)
		r.Get("/trending", handler.Trending)
		r.Get("/content/{kind}/{id}", handler.ContentDetails)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/user/{userID}", handler.Recommendations)
			r.Get("/similar/{kind}/{id}", handler.Similar)
			r.Get("/genre/{genre}", handler.ByGenre)
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/profile", handler.Profile)
			r.Get("/history", handler.History)
			r.Get("/favorites", handler.Favorites)
			r.Post("/favorites", handler.AddFavorite)
			r.Delete("/favorites/{kind}/{id}", handler.RemoveFavorite)
		})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// requestMetrics records per-request metrics and an access log line.
// The chi route pattern (not the raw path) is the metric label, so
// /users/alice and /users/bob share a series.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		duration := time.Since(start)

		metrics.RecordAPIRequest(r.Method, pattern, rec.status, duration)
		logging.Debug().
			Str("method", r.Method).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Int("status", rec.status).
			Dur("duration", duration).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("Request handled")
	})
}
