package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	hrErrors "hrassist/internal/errors"
)

// healthHandler reports the store, the AI models and the policy source.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.HealthCheckTimeout)
	defer cancel()

	healthy := true
	checks := map[string]any{}

	if s.deps.Records != nil {
		if err := s.deps.Records.Ping(ctx); err != nil {
			healthy = false
			checks["store"] = map[string]any{"available": false, "error": err.Error()}
		} else {
			checks["store"] = map[string]any{"available": true}
		}
	} else {
		checks["store"] = map[string]any{"available": false, "enabled": false}
	}

	if s.deps.Models != nil {
		models := s.deps.Models.ModelInfo(ctx)
		for _, info := range models {
			if info != nil && !info.Available {
				healthy = false
			}
		}
		checks["ai_models"] = models
	}

	checks["policies"] = map[string]any{"source": s.deps.Policies.Policies(ctx).Source}

	response := map[string]any{
		"status":  "healthy",
		"service": "hrassist",
		"version": s.Version,
		"checks":  checks,
	}
	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "hrassist",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_upload_size_bytes":  s.MaxUploadSize,
			"api_keys":               s.apiKeyCount(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.SecretWatcher != nil {
		response["secret_watcher"] = s.SecretWatcher.Status()
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "application/json" && ct != "application/json; charset=utf-8" {
		return requestError("content-type must be application/json", nil)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return requestError("failed to read request body", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return requestError("failed to parse JSON", err)
	}
	return nil
}

func requestError(message string, cause error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(cause, &maxBytesErr) {
		message = fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
	}
	return hrErrors.NewValidationError(hrErrors.ErrCodeInvalidRequest, message, cause)
}

// statusFor maps an error to its response status.
func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	var appErr *hrErrors.AppError
	if errors.As(err, &appErr) && appErr.Code == hrErrors.ErrCodeMissingAPIKey {
		return http.StatusServiceUnavailable
	}
	return hrErrors.HTTPStatus(err)
}

// writeAppError writes err with the status derived from its category.
func writeAppError(w http.ResponseWriter, title string, err error) {
	message := err.Error()
	var appErr *hrErrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	writeErrorResponse(w, title, message, statusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, title, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: title, Message: message})
}
