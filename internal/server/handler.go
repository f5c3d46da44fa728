package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	hrErrors "hrassist/internal/errors"
	"hrassist/internal/leave"
	"hrassist/internal/matching"
	"hrassist/internal/types"
	"hrassist/internal/utils"
)

const (
	tracerName        = "hrassist.api"
	notMatchedMessage = "Candidate did not meet job requirements"
)

func (s *Server) startSpan(r *http.Request, name string) (*http.Request, oteltrace.Span) {
	ctx, span := s.deps.Observability.Tracer(tracerName).Start(r.Context(), name)
	return r.WithContext(ctx), span
}

// fail records err on the span and writes the matching error response.
func (s *Server) fail(w http.ResponseWriter, span oteltrace.Span, title string, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", errorType(err)))
	writeAppError(w, title, err)
}

func (s *Server) leaveApplyHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.leave.apply")
	defer span.End()

	var body LeaveApplyRequest
	if err := parseJSONRequest(r, &body); err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}
	req := body.LeaveRequest()

	span.SetAttributes(
		attribute.String("leave.type", leave.NormalizeLeaveType(req.LeaveType)),
		attribute.String("employee.id", req.EmployeeID),
	)

	analysis, err := s.deps.Leave.Analyze(r.Context(), req)
	if err != nil {
		s.fail(w, span, "Invalid leave request", err)
		return
	}

	span.SetAttributes(
		attribute.String("leave.decision", analysis.Decision),
		attribute.Bool("leave.agent_used", analysis.AgentUsed),
	)
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) listPoliciesHandler(w http.ResponseWriter, r *http.Request) {
	listing := s.deps.Policies.Policies(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"policies": listing.Policies,
		"source":   listing.Source,
	})
}

func (s *Server) updatePolicyHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.leave.update_policy")
	defer span.End()

	if !s.deps.Policies.Available() {
		writeErrorResponse(w, "Database unavailable", "Database connection is not available.", http.StatusServiceUnavailable)
		return
	}

	leaveType := leave.NormalizeLeaveType(r.PathValue("type"))
	var policy types.LeavePolicy
	if err := parseJSONRequest(r, &policy); err != nil {
		s.fail(w, span, "Invalid request body", err)
		return
	}
	if err := leave.ValidatePolicy(policy); err != nil {
		s.fail(w, span, "Invalid policy", err)
		return
	}

	updated, err := s.deps.Policies.Update(r.Context(), leaveType, policy)
	if err != nil {
		s.fail(w, span, "Failed to update policy", err)
		return
	}

	s.Logger.Info("Leave policy updated", "leave_type", leaveType)
	writeJSON(w, http.StatusOK, PolicyUpdateResponse{
		Status:        "success",
		Message:       fmt.Sprintf("Policy for '%s' leave updated successfully.", leaveType),
		UpdatedPolicy: map[string]types.LeavePolicy{leaveType: updated},
	})
}

func (s *Server) leaveHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireRecords(w) {
		return
	}
	records, err := s.deps.Records.LeaveHistory(r.Context(), r.PathValue("employee_id"))
	if err != nil {
		writeAppError(w, "Failed to load leave history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"employee_id": r.PathValue("employee_id"), "records": records})
}

func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.resume.upload")
	defer span.End()

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.fail(w, span, "Invalid upload", requestError("failed to parse multipart form", err))
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		s.fail(w, span, "Missing resume", requestError("resume file is required", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, span, "Invalid upload", requestError("failed to read resume", err))
		return
	}

	resume := types.ResumeDocument{
		Filename: header.Filename,
		MIMEType: uploadMIMEType(header.Filename, header.Header.Get("Content-Type")),
		Data:     data,
	}
	job := types.JobDocument{
		Name: strings.TrimSpace(r.FormValue("jd_name")),
		Text: r.FormValue("jd_text"),
	}

	span.SetAttributes(
		attribute.String("resume.filename", header.Filename),
		attribute.String("resume.mime_type", resume.MIMEType),
		attribute.Int("resume.size", len(data)),
		attribute.String("job.name", job.Name),
	)

	result, matched, err := s.deps.Recruit.UploadAndMatch(r.Context(), resume, job)
	if err != nil {
		s.fail(w, span, "Processing failed", err)
		return
	}

	span.SetAttributes(attribute.Bool("match.matched", matched))
	if !matched {
		writeJSON(w, http.StatusOK, MatchResponse{Success: false, Message: notMatchedMessage})
		return
	}

	span.SetAttributes(attribute.Int("match.score", result.MatchPercentage))
	writeJSON(w, http.StatusOK, MatchResponse{
		Success:       true,
		Message:       "Resume and job description processed and stored",
		Score:         result.MatchPercentage,
		FullMatchData: &result,
	})
}

func (s *Server) matchHandler(w http.ResponseWriter, r *http.Request) {
	var body MatchRequest
	if err := parseJSONRequest(r, &body); err != nil {
		writeAppError(w, "Invalid request body", err)
		return
	}

	result, ok := matching.MatchCandidate(body.Resume, body.Job)
	if !ok {
		writeJSON(w, http.StatusOK, MatchResponse{Success: false, Message: notMatchedMessage})
		return
	}
	writeJSON(w, http.StatusOK, MatchResponse{
		Success:       true,
		Message:       "Candidate matched",
		Score:         result.MatchPercentage,
		FullMatchData: &result,
	})
}

func (s *Server) matchAllHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "api.resume.match_all")
	defer span.End()

	summary, err := s.deps.Recruit.MatchAll(r.Context())
	if err != nil {
		s.fail(w, span, "Matching failed", err)
		return
	}
	span.SetAttributes(attribute.Int("match.total", summary.TotalMatches))
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) jobMatchesHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireRecords(w) {
		return
	}
	matches, err := s.deps.Records.MatchesForJob(r.Context(), r.PathValue("name"))
	if err != nil {
		writeAppError(w, "Failed to load matches", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job_name": r.PathValue("name"), "matches": matches})
}

func (s *Server) storeStatsHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireRecords(w) {
		return
	}
	stats, err := s.deps.Records.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}
	stats.PolicySource = s.deps.Policies.Policies(r.Context()).Source
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "database_stats": stats})
}

func (s *Server) debugHandler(w http.ResponseWriter, r *http.Request) {
	if !s.requireRecords(w) {
		return
	}
	collections, err := s.deps.Records.Collections(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}
	stats, err := s.deps.Records.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"collections":    collections,
		"database_stats": stats,
	})
}

func (s *Server) requireRecords(w http.ResponseWriter) bool {
	if s.deps.Records == nil {
		writeErrorResponse(w, "Database unavailable", "Database connection is not available.", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// uploadMIMEType trusts a PDF extension or content type and treats everything else as text.
func uploadMIMEType(filename, contentType string) string {
	if strings.HasPrefix(contentType, utils.MIMETypePDF) {
		return utils.MIMETypePDF
	}
	return utils.MIMEType(filename)
}

func errorType(err error) string {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return "request_too_large"
	}
	return string(hrErrors.TypeOf(err))
}
