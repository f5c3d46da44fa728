package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	hrErrors "hrassist/internal/errors"
	"hrassist/internal/leave"
	"hrassist/internal/types"
)

type staticPolicies struct{ listing types.PolicyListing }

func (s staticPolicies) Policies(context.Context) types.PolicyListing {
	return s.listing
}

type recorderStub struct {
	recorded []types.LeaveDecision
	err      error
}

func (r *recorderStub) RecordLeave(_ context.Context, req types.LeaveRequest, d types.LeaveDecision) (types.LeaveRecord, error) {
	if r.err != nil {
		return types.LeaveRecord{}, r.err
	}
	r.recorded = append(r.recorded, d)
	return types.LeaveRecord{Request: req, Decision: d}, nil
}

type summarizerStub struct {
	summary string
	err     error
	input   types.LeaveSummaryInput
}

func (s *summarizerStub) SummarizeLeave(_ context.Context, in types.LeaveSummaryInput) (string, error) {
	s.input = in
	return s.summary, s.err
}

func friday() *leave.Evaluator {
	return &leave.Evaluator{Now: func() time.Time {
		return time.Date(2025, time.August, 1, 9, 0, 0, 0, time.UTC)
	}}
}

func defaultListing() staticPolicies {
	return staticPolicies{types.PolicyListing{Policies: leave.DefaultPolicies(), Source: "default"}}
}

func annualRequest() types.LeaveRequest {
	return types.LeaveRequest{
		EmployeeID:       "E-7",
		EmployeeName:     "Asha Rao",
		LeaveType:        "Annual",
		StartDate:        "2025-08-11",
		EndDate:          "2025-08-12",
		Reason:           "family trip",
		AvailableBalance: 10,
	}
}

func TestAnalyzeWithoutAgent(t *testing.T) {
	recorder := &recorderStub{}
	a := NewLeaveAssistant(defaultListing(), hrErrors.Discard(), WithEvaluator(friday()), WithRecorder(recorder))

	got, err := a.Analyze(context.Background(), annualRequest())
	require.NoError(t, err)

	assert.Equal(t, "success", got.Status)
	assert.Equal(t, "APPROVED", got.Decision)
	assert.False(t, got.AgentUsed)
	assert.Equal(t, "annual", got.Details.LeaveType)
	assert.Equal(t, 2, got.Details.RequestedDays)
	assert.False(t, got.Details.HasViolations)
	assert.True(t, strings.HasPrefix(got.Summary, "LEAVE REQUEST ANALYSIS FOR ASHA RAO"))
	assert.Contains(t, got.Summary, "DECISION: FULLY APPROVED")
	require.Len(t, recorder.recorded, 1)
	assert.Equal(t, types.StatusApproved, recorder.recorded[0].Status)
}

func TestAnalyzeUsesAgentSummary(t *testing.T) {
	agent := &summarizerStub{summary: "  Approve: balance and notice are fine.\n"}
	a := NewLeaveAssistant(defaultListing(), nil, WithEvaluator(friday()), WithSummarizer(agent))

	got, err := a.Analyze(context.Background(), annualRequest())
	require.NoError(t, err)

	assert.True(t, got.AgentUsed)
	assert.Equal(t, "Approve: balance and notice are fine.", got.Summary)
	assert.Equal(t, "annual", agent.input.Request.LeaveType)
	assert.Equal(t, types.StatusApproved, agent.input.Decision.Status)
}

func TestAnalyzeFallsBackWhenAgentFails(t *testing.T) {
	tests := []struct {
		name  string
		agent *summarizerStub
	}{
		{"agent error", &summarizerStub{err: errors.New("quota exhausted")}},
		{"empty summary", &summarizerStub{summary: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewLeaveAssistant(defaultListing(), nil, WithEvaluator(friday()), WithSummarizer(tt.agent))

			got, err := a.Analyze(context.Background(), annualRequest())
			require.NoError(t, err)
			assert.False(t, got.AgentUsed)
			assert.Equal(t, "success", got.Status)
			assert.Contains(t, got.Summary, "DECISION: FULLY APPROVED")
		})
	}
}

func TestAnalyzeRejectsIncompleteRequest(t *testing.T) {
	a := NewLeaveAssistant(defaultListing(), nil)
	req := annualRequest()
	req.EmployeeName = ""

	got, err := a.Analyze(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "error", got.Status)
	assert.Equal(t, hrErrors.ErrorTypeValidation, hrErrors.TypeOf(err))
}

func TestAnalyzeIgnoresRecorderFailure(t *testing.T) {
	a := NewLeaveAssistant(defaultListing(), nil,
		WithEvaluator(friday()),
		WithRecorder(&recorderStub{err: errors.New("disk full")}))

	got, err := a.Analyze(context.Background(), annualRequest())
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", got.Decision)
}

func TestAnalyzeRejectedRequest(t *testing.T) {
	a := NewLeaveAssistant(defaultListing(), nil, WithEvaluator(friday()))
	req := annualRequest()
	req.AvailableBalance = 1

	got, err := a.Analyze(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", got.Decision)
	assert.True(t, got.Details.HasViolations)
	assert.Contains(t, got.Summary, "1. Insufficient Balance: You requested 2 days but only have 1 available.")
}
