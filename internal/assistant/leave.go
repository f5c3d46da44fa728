// Package assistant ties the deterministic cores to storage, the AI services and
// metrics. Both assistants work with every collaborator missing except the policies.
package assistant

import (
	"context"
	"strings"

	"hrassist/internal/errors"
	"hrassist/internal/formatters"
	"hrassist/internal/leave"
	"hrassist/internal/observability"
	"hrassist/internal/types"
)

// PolicySource supplies the current policy set.
type PolicySource interface {
	Policies(ctx context.Context) types.PolicyListing
}

// LeaveRecorder persists evaluated requests.
type LeaveRecorder interface {
	RecordLeave(ctx context.Context, req types.LeaveRequest, decision types.LeaveDecision) (types.LeaveRecord, error)
}

// LeaveSummarizer writes an HR narrative of a decision.
type LeaveSummarizer interface {
	SummarizeLeave(ctx context.Context, input types.LeaveSummaryInput) (string, error)
}

// LeaveAssistant evaluates leave requests and explains the decision.
type LeaveAssistant struct {
	policies   PolicySource
	recorder   LeaveRecorder
	summarizer LeaveSummarizer
	evaluator  *leave.Evaluator
	metrics    *observability.Metrics
	logger     *errors.Logger
}

// LeaveOption configures a LeaveAssistant.
type LeaveOption func(*LeaveAssistant)

// WithRecorder persists every evaluated request.
func WithRecorder(r LeaveRecorder) LeaveOption {
	return func(a *LeaveAssistant) { a.recorder = r }
}

// WithSummarizer asks an AI agent for the summary text.
func WithSummarizer(s LeaveSummarizer) LeaveOption {
	return func(a *LeaveAssistant) { a.summarizer = s }
}

// WithEvaluator replaces the wall-clock evaluator.
func WithEvaluator(e *leave.Evaluator) LeaveOption {
	return func(a *LeaveAssistant) { a.evaluator = e }
}

// WithLeaveMetrics records decision metrics.
func WithLeaveMetrics(m *observability.Metrics) LeaveOption {
	return func(a *LeaveAssistant) { a.metrics = m }
}

// NewLeaveAssistant creates a leave assistant reading policies from policies.
func NewLeaveAssistant(policies PolicySource, logger *errors.Logger, opts ...LeaveOption) *LeaveAssistant {
	if logger == nil {
		logger = errors.Discard()
	}
	a := &LeaveAssistant{
		policies:  policies,
		evaluator: leave.NewEvaluator(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze evaluates req against the current policies, records it and summarizes the
// decision. Only a request missing required fields is an error; AI and storage
// failures degrade to the formatted summary and an unrecorded decision.
func (a *LeaveAssistant) Analyze(ctx context.Context, req types.LeaveRequest) (types.LeaveAnalysis, error) {
	req.LeaveType = leave.NormalizeLeaveType(req.LeaveType)
	if err := leave.ValidateRequest(req); err != nil {
		return types.LeaveAnalysis{Status: "error"}, err
	}

	listing := a.policies.Policies(ctx)
	decision := a.evaluator.Evaluate(req, listing.Policies)
	a.metrics.RecordLeaveDecision(ctx, decision)

	a.logger.Info("Leave request evaluated",
		"employee_id", req.EmployeeID,
		"leave_type", req.LeaveType,
		"requested_days", decision.RequestedDays,
		"status", decision.Status,
		"violations", len(decision.Violations),
		"flags", len(decision.Flags),
		"policy_source", listing.Source)

	if a.recorder != nil {
		if _, err := a.recorder.RecordLeave(ctx, req, decision); err != nil {
			a.logger.LogError(err, "Failed to record leave request", "employee_id", req.EmployeeID)
		}
	}

	summary, agentUsed := a.summarize(ctx, req, decision)

	return types.LeaveAnalysis{
		Status:   "success",
		Summary:  summary,
		Decision: strings.ToUpper(decision.Status),
		Details: types.LeaveDetails{
			EmployeeName:     decision.EmployeeName,
			LeaveType:        decision.LeaveType,
			RequestedDays:    decision.RequestedDays,
			AvailableBalance: decision.AvailableBalance,
			DateRange:        decision.DateRange,
			HasViolations:    len(decision.Violations) > 0,
			HasFlags:         len(decision.Flags) > 0,
		},
		AgentUsed:  agentUsed,
		Evaluation: decision,
	}, nil
}

func (a *LeaveAssistant) summarize(ctx context.Context, req types.LeaveRequest, decision types.LeaveDecision) (string, bool) {
	fallback := formatters.LeaveDecisionText(decision)
	if a.summarizer == nil {
		return fallback, false
	}

	summary, err := a.summarizer.SummarizeLeave(ctx, types.LeaveSummaryInput{Request: req, Decision: decision})
	if err != nil {
		a.logger.Warn("AI summary unavailable, using formatted summary",
			"employee_id", req.EmployeeID,
			"error", err.Error())
		return fallback, false
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fallback, false
	}
	return summary, true
}
