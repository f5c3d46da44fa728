package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrassist/internal/assistant"
	"hrassist/internal/config"
	hrErrors "hrassist/internal/errors"
	"hrassist/internal/leave"
	"hrassist/internal/store"
	"hrassist/internal/types"
)

type recruitStub struct {
	result  types.MatchResult
	matched bool
	err     error

	resume types.ResumeDocument
	job    types.JobDocument
}

func (r *recruitStub) UploadAndMatch(_ context.Context, resume types.ResumeDocument, job types.JobDocument) (types.MatchResult, bool, error) {
	r.resume, r.job = resume, job
	return r.result, r.matched, r.err
}

func (r *recruitStub) MatchAll(context.Context) (types.MatchRunSummary, error) {
	return types.MatchRunSummary{TotalMatches: 3, PerJob: map[string]int{"backend": 3}, Message: "done"}, r.err
}

func testServer(t *testing.T, cfg ServerConfig, recruit *recruitStub) *Server {
	t.Helper()
	policies := store.NewPolicyRepository(nil, 0, nil)
	evaluator := &leave.Evaluator{Now: func() time.Time {
		return time.Date(2025, time.August, 1, 9, 0, 0, 0, time.UTC)
	}}
	if recruit == nil {
		recruit = &recruitStub{}
	}
	s := NewServer(cfg, Dependencies{
		Leave:    assistant.NewLeaveAssistant(policies, nil, assistant.WithEvaluator(evaluator)),
		Policies: policies,
		Recruit:  recruit,
	}, hrErrors.Discard())
	t.Cleanup(s.cleanup)
	return s
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLeaveApplyAcceptsBothFieldStyles(t *testing.T) {
	h := testServer(t, ServerConfig{}, nil).Handler()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "snake case",
			body: `{"employee_id":"E-1","employee_name":"Asha","leave_type":"annual","start_date":"2025-08-11","end_date":"2025-08-12","reason":"trip","available_balance":10}`,
		},
		{
			name: "camel case",
			body: `{"employeeId":"E-1","employeeName":"Asha","typeOfLeave":"Annual","startDate":"2025-08-11","endDate":"2025-08-12","reason":"trip","left":10}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/leave/apply", tt.body, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var got types.LeaveAnalysis
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "success", got.Status)
			assert.Equal(t, "APPROVED", got.Decision)
			assert.Equal(t, "annual", got.Details.LeaveType)
			assert.Equal(t, 2, got.Details.RequestedDays)
			assert.Equal(t, float64(10), got.Details.AvailableBalance)
		})
	}
}

func TestLeaveApplyValidation(t *testing.T) {
	h := testServer(t, ServerConfig{}, nil).Handler()

	rec := doJSON(t, h, http.MethodPost, "/leave/apply", `{"employee_id":"E-1","leave_type":"annual"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Invalid leave request", got.Error)
	assert.Contains(t, got.Message, "employee_name")

	rec = doJSON(t, h, http.MethodPost, "/leave/apply", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	h := testServer(t, ServerConfig{MaxRequestSize: 16}, nil).Handler()

	rec := doJSON(t, h, http.MethodPost, "/leave/apply", `{"employee_name":"`+strings.Repeat("a", 64)+`"}`, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAuthentication(t *testing.T) {
	h := testServer(t, ServerConfig{APIKeys: []string{"secret-key-123"}}, nil).Handler()

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"header key", map[string]string{"X-API-Key": "secret-key-123"}, http.StatusOK},
		{"bearer token", map[string]string{"Authorization": "Bearer secret-key-123"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodGet, "/leave/policies", "", tt.headers)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSetAPIKeysRotates(t *testing.T) {
	s := testServer(t, ServerConfig{APIKeys: []string{"old-key"}}, nil)
	h := s.Handler()

	s.SetAPIKeys([]string{"new-key"})

	assert.Equal(t, http.StatusUnauthorized,
		doJSON(t, h, http.MethodGet, "/leave/policies", "", map[string]string{"X-API-Key": "old-key"}).Code)
	assert.Equal(t, http.StatusOK,
		doJSON(t, h, http.MethodGet, "/leave/policies", "", map[string]string{"X-API-Key": "new-key"}).Code)
}

func TestRateLimit(t *testing.T) {
	s := testServer(t, ServerConfig{RateLimit: &config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstCapacity:  1,
		ByIP:           true,
	}}, nil)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/leave/policies", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, doJSON(t, h, http.MethodGet, "/leave/policies", "", nil).Code)

	other := map[string]string{"X-Forwarded-For": "203.0.113.9"}
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/leave/policies", "", other).Code)
}

func TestPolicyEndpoints(t *testing.T) {
	h := testServer(t, ServerConfig{}, nil).Handler()

	rec := doJSON(t, h, http.MethodGet, "/leave/policies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Policies types.PolicySet `json:"policies"`
		Source   string          `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, store.PolicySourceDefault, listing.Source)
	assert.Len(t, listing.Policies, 3)

	rec = doJSON(t, h, http.MethodPut, "/leave/policies/annual", `{"max_days_per_request":20,"requires_notice":7}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPolicyUpdateWithStore(t *testing.T) {
	db, err := store.Open(context.Background(), store.Config{Path: t.TempDir() + "/hr.db"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	policies := store.NewPolicyRepository(db, time.Minute, nil)
	s := NewServer(ServerConfig{}, Dependencies{
		Leave:    assistant.NewLeaveAssistant(policies, nil),
		Policies: policies,
		Recruit:  &recruitStub{},
		Records:  db,
	}, nil)
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPut, "/leave/policies/Annual", `{"max_days_per_request":20,"requires_notice":3}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got PolicyUpdateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "success", got.Status)
	require.NotNil(t, got.UpdatedPolicy["annual"].MaxDaysPerRequest)
	assert.Equal(t, 20, *got.UpdatedPolicy["annual"].MaxDaysPerRequest)

	listing := policies.Policies(context.Background())
	assert.Equal(t, store.PolicySourceStore, listing.Source)
	assert.Equal(t, 3, listing.Policies["annual"].RequiresNotice)

	rec = doJSON(t, h, http.MethodPut, "/leave/policies/annual", `{"requires_notice":-1}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/resume/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"policy_source":"store"`)

	rec = doJSON(t, h, http.MethodGet, "/resume/debug", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"policies":3`)
}

func TestRecordsRequireStore(t *testing.T) {
	h := testServer(t, ServerConfig{}, nil).Handler()

	for _, path := range []string{"/leave/history/E-1", "/resume/jobs/backend/matches", "/resume/stats", "/resume/debug"} {
		rec := doJSON(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}

func multipartUpload(t *testing.T, filename, jdName, jdText string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("resume", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 resume"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("jd_name", jdName))
	require.NoError(t, w.WriteField("jd_text", jdText))
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func TestUploadEnvelope(t *testing.T) {
	recruit := &recruitStub{
		result:  types.MatchResult{Name: "Asha", JobName: "backend", MatchPercentage: 82},
		matched: true,
	}
	h := testServer(t, ServerConfig{}, recruit).Handler()

	body, contentType := multipartUpload(t, "asha.pdf", " backend ", "Go engineer")
	req := httptest.NewRequest(http.MethodPost, "/resume/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got MatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, 82, got.Score)
	require.NotNil(t, got.FullMatchData)
	assert.Equal(t, "Asha", got.FullMatchData.Name)

	assert.Equal(t, "asha.pdf", recruit.resume.Filename)
	assert.Equal(t, "application/pdf", recruit.resume.MIMEType)
	assert.Equal(t, "backend", recruit.job.Name)
	assert.Equal(t, "Go engineer", recruit.job.Text)
}

func TestUploadNotMatched(t *testing.T) {
	h := testServer(t, ServerConfig{}, &recruitStub{}).Handler()

	body, contentType := multipartUpload(t, "cv.txt", "backend", "Go engineer")
	req := httptest.NewRequest(http.MethodPost, "/resume/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Candidate did not meet job requirements"}`, rec.Body.String())
}

func TestUploadWithoutAIKey(t *testing.T) {
	recruit := &recruitStub{err: hrErrors.NewConfigError(hrErrors.ErrCodeMissingAPIKey, "no API key configured", nil)}
	h := testServer(t, ServerConfig{}, recruit).Handler()

	body, contentType := multipartUpload(t, "cv.pdf", "backend", "Go engineer")
	req := httptest.NewRequest(http.MethodPost, "/resume/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMatchEndpoint(t *testing.T) {
	h := testServer(t, ServerConfig{}, nil).Handler()

	matched := `{"resume":{"filename":"asha","name":"Asha","technical_skills":["Go"],"btech_cgpa":8},
		"job":{"filename":"backend","required_technical_skills":["go"],"criteria":{"graduation_percentage_cutoff":7}}}`
	rec := doJSON(t, h, http.MethodPost, "/resume/match", matched, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got MatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, 70, got.Score)

	ineligible := `{"resume":{"name":"Asha","technical_skills":["Go"],"btech_cgpa":6},
		"job":{"required_technical_skills":["go"],"criteria":{"graduation_percentage_cutoff":7}}}`
	rec = doJSON(t, h, http.MethodPost, "/resume/match", ineligible, nil)
	assert.JSONEq(t, `{"success":false,"message":"Candidate did not meet job requirements"}`, rec.Body.String())
}

func TestMatchAllEndpoint(t *testing.T) {
	h := testServer(t, ServerConfig{}, nil).Handler()

	rec := doJSON(t, h, http.MethodPost, "/resume/match-all", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_matches":3`)
}

func TestHealthAndStats(t *testing.T) {
	h := testServer(t, ServerConfig{Version: "1.2.3"}, nil).Handler()

	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "1.2.3", health["version"])

	rec = doJSON(t, h, http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rate_limiting":{"enabled":false}`)

	rec = doJSON(t, h, http.MethodPost, "/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestBuildTLSConfig(t *testing.T) {
	s := &Server{TLSConfig: config.TLSConfig{Mode: "disabled"}}
	cfg, err := s.buildTLSConfig()
	require.NoError(t, err)
	assert.Nil(t, cfg)

	s.TLSConfig.Mode = "bogus"
	_, err = s.buildTLSConfig()
	assert.ErrorContains(t, err, "invalid TLS mode")

	s.TLSConfig.Mode = "server"
	_, err = s.buildTLSConfig()
	assert.ErrorContains(t, err, "certificate and key are required")
}

func TestCipherSuites(t *testing.T) {
	assert.Nil(t, cipherSuites(nil))
	ids := cipherSuites([]string{"TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256", "NOT_A_SUITE"})
	assert.Len(t, ids, 1)
}
