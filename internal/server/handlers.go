package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log"
	"net/http"

	"skilllink/internal/credentials"
	skilllinkErrors "skilllink/internal/errors"
	"skilllink/internal/parser"

	"go.opentelemetry.io/otel/attribute"
)

// analyzeHandler accepts a multipart resume upload and runs the full
// pipeline on it. The runner processes one document at a time, so a
// concurrent upload is rejected with 409.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorResponse(w, "Method not allowed", "METHOD_NOT_ALLOWED",
			"POST required", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	tracer := s.obs.Tracer("skilllink.api")
	ctx, span := tracer.Start(ctx, "api.analyze")
	defer span.End()

	file, header, err := r.FormFile("file")
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.type", "validation"))
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			writeErrorResponse(w, "Request too large", "FILE_TOO_LARGE",
				"upload exceeds the configured size limit", http.StatusRequestEntityTooLarge)
			return
		}
		writeErrorResponse(w, "Invalid upload", "INVALID_UPLOAD",
			"multipart 'file' field is required", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.Logger.Warn("Failed to close uploaded file", "error", err)
		}
	}()

	if header.Filename == "" {
		writeErrorResponse(w, "Invalid upload", "INVALID_UPLOAD",
			"uploaded file carries no name", http.StatusBadRequest)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		span.RecordError(err)
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			writeErrorResponse(w, "Request too large", "FILE_TOO_LARGE",
				"upload exceeds the configured size limit", http.StatusRequestEntityTooLarge)
			return
		}
		writeErrorResponse(w, "Failed to read upload", "UPLOAD_READ_FAILED",
			err.Error(), http.StatusBadRequest)
		return
	}

	span.SetAttributes(
		attribute.String("request.file_name", header.Filename),
		attribute.Int("request.file_size", len(content)),
		attribute.String("operation", "analyze"),
	)

	doc := parser.Document{
		FileName: header.Filename,
		Content:  content,
	}

	report, err := s.deps.Runner.Run(ctx, doc)
	if err != nil {
		span.RecordError(err)
		status, code, message := statusForError(err)
		span.SetAttributes(attribute.String("error.code", code))
		writeErrorResponse(w, "Analysis failed", code, message, status)
		return
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("response.overall_score", report.Assessment.OverallScore),
		attribute.Int("response.opportunities", len(report.Opportunities)),
	)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// healthHandler reports credential configuration per service and
// circuit breaker state. Secret values never appear in the response.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "skilllink",
		"version": s.Version,
	}

	credentialStatus := s.checkCredentialHealth()
	response["credentials"] = credentialStatus

	breakerStatus := s.checkBreakerHealth()
	response["circuit_breakers"] = breakerStatus

	response["pipeline"] = s.deps.Runner.State()

	overallHealthy := true
	for service, status := range credentialStatus {
		info := status.(map[string]any)
		if configured, ok := info["configured"].(bool); ok && !configured {
			// A missing embed credential degrades nothing: the enhance
			// stage falls back to the canonical rewrites alone.
			if service != credentials.ServiceEmbed {
				overallHealthy = false
			}
		}
	}
	for _, status := range breakerStatus {
		info := status.(map[string]any)
		if healthy, ok := info["healthy"].(bool); ok && !healthy {
			overallHealthy = false
		}
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// checkCredentialHealth reports per-service credential presence
func (s *Server) checkCredentialHealth() map[string]any {
	status := make(map[string]any)
	for _, service := range []string{
		credentials.ServiceParser,
		credentials.ServiceAnalysis,
		credentials.ServiceRecommend,
		credentials.ServiceEmbed,
	} {
		_, err := s.deps.Store.Get(service)
		entry := map[string]any{"configured": err == nil}
		if err != nil && service == credentials.ServiceEmbed {
			entry["note"] = "optional; skill enhancement degrades to canonical rewrites only"
		}
		status[service] = entry
	}
	return status
}

// checkBreakerHealth reports circuit breaker state for the two stages
// that carry one.
func (s *Server) checkBreakerHealth() map[string]any {
	status := make(map[string]any)

	status["analysis"] = map[string]any{
		"healthy": s.deps.Assessor.Healthy(),
		"stats":   s.deps.Assessor.Stats(),
	}
	status["recommend"] = map[string]any{
		"healthy": s.deps.Recommender.Healthy(),
		"stats":   s.deps.Recommender.Stats(),
	}

	return status
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "skilllink",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"pipeline": s.deps.Runner.State(),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	response["rate_limit_config"] = map[string]any{
		"enabled":          s.RateLimit.Enabled,
		"requests_per_min": s.RateLimit.RequestsPerMin,
		"burst_capacity":   s.RateLimit.BurstCapacity,
		"by_ip":            s.RateLimit.ByIP,
		"by_api_key":       s.RateLimit.ByAPIKey,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// statusForError maps a pipeline failure onto an HTTP status plus the
// structured code and message for the response body.
func statusForError(err error) (int, string, string) {
	var appErr *skilllinkErrors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError, "INTERNAL", err.Error()
	}

	if appErr.Code == skilllinkErrors.ErrCodePipelineBusy {
		return http.StatusConflict, appErr.Code, appErr.Message
	}

	switch appErr.Type {
	case skilllinkErrors.ErrorTypeValidation, skilllinkErrors.ErrorTypeIO:
		return http.StatusBadRequest, appErr.Code, appErr.Message
	case skilllinkErrors.ErrorTypeConfig:
		return http.StatusServiceUnavailable, appErr.Code, appErr.Message
	case skilllinkErrors.ErrorTypeTransport, skilllinkErrors.ErrorTypeContract:
		return http.StatusBadGateway, appErr.Code, appErr.Message
	default:
		return http.StatusInternalServerError, appErr.Code, appErr.Message
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, errorText, code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   errorText,
		Code:    code,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
