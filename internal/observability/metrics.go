package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hrassist/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Metrics holds the custom metrics of hrassist. A nil *Metrics records nothing.
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Leave metrics
	LeaveDecisions  metric.Int64Counter
	LeaveViolations metric.Int64Counter

	// Matching metrics
	MatchRuns          metric.Int64Counter
	MatchScore         metric.Int64Histogram
	DocumentsExtracted metric.Int64Counter

	// Transport metrics
	RateLimitHits metric.Int64Counter
	HTTPRequests  metric.Int64Counter
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.AIProcessingTime, err = meter.Float64Histogram(
		"hrassist_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}
	if m.AIRequestCount, err = meter.Int64Counter(
		"hrassist_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}
	if m.AIErrorCount, err = meter.Int64Counter(
		"hrassist_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}
	if m.AITokenUsage, err = meter.Int64Histogram(
		"hrassist_ai_token_usage",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	if m.LeaveDecisions, err = meter.Int64Counter(
		"hrassist_leave_decisions_total",
		metric.WithDescription("Leave requests evaluated, by decision status"),
	); err != nil {
		return nil, fmt.Errorf("failed to create leave decisions metric: %w", err)
	}
	if m.LeaveViolations, err = meter.Int64Counter(
		"hrassist_leave_violations_total",
		metric.WithDescription("Leave policy violations, by rule"),
	); err != nil {
		return nil, fmt.Errorf("failed to create leave violations metric: %w", err)
	}

	if m.MatchRuns, err = meter.Int64Counter(
		"hrassist_match_runs_total",
		metric.WithDescription("Full matching runs over stored documents"),
	); err != nil {
		return nil, fmt.Errorf("failed to create match runs metric: %w", err)
	}
	if m.MatchScore, err = meter.Int64Histogram(
		"hrassist_match_score",
		metric.WithDescription("Match percentage of eligible candidates"),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return nil, fmt.Errorf("failed to create match score metric: %w", err)
	}
	if m.DocumentsExtracted, err = meter.Int64Counter(
		"hrassist_documents_extracted_total",
		metric.WithDescription("Resumes and job descriptions extracted, by type"),
	); err != nil {
		return nil, fmt.Errorf("failed to create documents extracted metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"hrassist_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit rejections"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}
	if m.HTTPRequests, err = meter.Int64Counter(
		"hrassist_http_requests_total",
		metric.WithDescription("HTTP requests served, by route and status"),
	); err != nil {
		return nil, fmt.Errorf("failed to create HTTP requests metric: %w", err)
	}

	return m, nil
}

// TrackAIOperationWithTokens instruments an AI operation with a span, request and
// error counters, duration and token usage.
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult) error {
	if m == nil {
		if result := fn(ctx); result != nil {
			return result.Error
		}
		return nil
	}

	ctx, span := otel.Tracer("hrassist.ai").Start(ctx, "ai."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}
	m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}
	if result != nil && result.TokenUsage != nil {
		m.recordTokenUsage(ctx, operation, result.TokenUsage, span)
	}
	span.SetAttributes(attrs...)

	return err
}

func (m *Metrics) recordTokenUsage(ctx context.Context, operation string, usage *TokenUsage, span oteltrace.Span) {
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	} {
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.tokenType),
		))
	}

	span.SetAttributes(
		attribute.Int64("ai.tokens.input", usage.InputTokens),
		attribute.Int64("ai.tokens.output", usage.OutputTokens),
		attribute.Int64("ai.tokens.total", usage.TotalTokens),
	)
}

// RecordLeaveDecision counts a decision and each of its violations by rule.
func (m *Metrics) RecordLeaveDecision(ctx context.Context, decision types.LeaveDecision) {
	if m == nil {
		return
	}
	m.LeaveDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", decision.Status),
		attribute.String("leave_type", decision.LeaveType),
	))
	for _, violation := range decision.Violations {
		m.LeaveViolations.Add(ctx, 1, metric.WithAttributes(attribute.String("rule", RuleName(violation))))
	}
}

// RecordMatchRun counts a full matching run.
func (m *Metrics) RecordMatchRun(ctx context.Context, summary types.MatchRunSummary, err error) {
	if m == nil {
		return
	}
	m.MatchRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", err == nil),
		attribute.Int("jobs", len(summary.PerJob)),
	))
}

// RecordMatchScore records the score of one matched candidate.
func (m *Metrics) RecordMatchScore(ctx context.Context, jobName string, score int) {
	if m == nil {
		return
	}
	m.MatchScore.Record(ctx, int64(score), metric.WithAttributes(attribute.String("job", jobName)))
}

// RecordDocumentExtracted counts one extraction of docType ("resume" or "job").
func (m *Metrics) RecordDocumentExtracted(ctx context.Context, docType string, success bool) {
	if m == nil {
		return
	}
	m.DocumentsExtracted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", docType),
		attribute.Bool("success", success),
	))
}

// RecordRateLimitHit counts a rejected request. keyType is "ip" or "api_key".
func (m *Metrics) RecordRateLimitHit(ctx context.Context, keyType string) {
	if m == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("key_type", keyType)))
}

// RecordHTTPRequest counts a served request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.Int("status", status),
	))
}

// RuleName turns a violation message such as "Exceeds Limit: ..." into "exceeds_limit".
func RuleName(violation string) string {
	name, _, found := strings.Cut(violation, ":")
	if !found {
		return "other"
	}
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, " ", "_")
}
