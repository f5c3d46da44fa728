package server

import (
	"net/http"
	"strings"

	"hrassist/internal/observability"
)

// Handler returns the full HTTP handler: otelhttp instrumentation around request
// metrics around the routes.
func (s *Server) Handler() http.Handler {
	mux := s.setupRoutes()
	metered := observability.RequestMetricsMiddleware(s.metrics())(mux)
	return s.deps.Observability.HTTPMiddleware()(metered)
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	protect := func(limit int64, h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware()(s.authMiddleware(s.requestSizeLimitMiddleware(limit)(h)))
	}
	api := func(h http.HandlerFunc) http.HandlerFunc { return protect(s.MaxRequestSize, h) }

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /leave/apply", api(s.leaveApplyHandler))
	mux.HandleFunc("GET /leave/policies", api(s.listPoliciesHandler))
	mux.HandleFunc("PUT /leave/policies/{type}", api(s.updatePolicyHandler))
	mux.HandleFunc("GET /leave/history/{employee_id}", api(s.leaveHistoryHandler))

	mux.HandleFunc("POST /resume/upload", protect(s.MaxUploadSize, s.uploadHandler))
	mux.HandleFunc("POST /resume/match", api(s.matchHandler))
	mux.HandleFunc("POST /resume/match-all", api(s.matchAllHandler))
	mux.HandleFunc("GET /resume/jobs/{name}/matches", api(s.jobMatchesHandler))
	mux.HandleFunc("GET /resume/stats", api(s.storeStatsHandler))
	mux.HandleFunc("GET /resume/debug", api(s.debugHandler))

	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if s.apiKeyCount() == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.validAPIKey(apiKey) {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware(limit int64) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next(w, r)
		}
	}
}

// requestAPIKey reads the X-API-Key header, falling back to a Bearer token.
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
