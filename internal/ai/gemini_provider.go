package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"hrassist/internal/config"
	hrErrors "hrassist/internal/errors"
	"hrassist/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const (
	mimePDF         = "application/pdf"
	modelCheckLimit = 10 * time.Second
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client    *genai.Client
	config    *config.OperationAIConfig
	operation string
	breaker   *generateBreaker
	models    *modelBreaker
	logger    *hrErrors.Logger
}

var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider for one operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operation string, logger *hrErrors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, hrErrors.NewConfigError(hrErrors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured", nil)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, hrErrors.NewAIError(hrErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:    client,
		config:    cfg,
		operation: operation,
		breaker:   newGenerateBreaker(operation, cfg, logger),
		models:    newModelBreaker(operation, cfg, logger),
		logger:    logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	info := &ModelInfo{Name: g.config.Model}
	defer func() { info.CircuitBreaker = g.breakerStats() }()

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckLimit)
	defer cancel()

	model, err := g.models.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		info.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation", g.operation,
			"error", err.Error())
		return info
	}

	info.Available = true
	info.DisplayName = model.DisplayName
	info.Version = model.Version
	return info
}

// executeWithRetry executes an AI call with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *g.config.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(backoffDelay(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)

	return nil, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

// backoffDelay doubles from one second per attempt, adds up to 10% jitter and caps at 30s.
func backoffDelay(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(0)
	if n, err := rand.Int(rand.Reader, big.NewInt(int64(float64(base)*0.1)+1)); err == nil {
		jitter = time.Duration(n.Int64())
	}
	return min(base+jitter, 30*time.Second)
}

// isRetryableError reports whether err is worth another attempt
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}

	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// executeAIOperation runs one generate call with tracing, the circuit breaker, retries
// and JSON decoding of the answer.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	contents []*genai.Content,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("hrassist.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.String("ai.operation", g.operation),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	ctx, cancel := context.WithTimeout(ctx, *g.config.Timeout)
	defer cancel()

	start := time.Now()
	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, contents, genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, hrErrors.NewAIError(hrErrors.ErrCodeAIServiceFailed,
			"Failed to generate content for "+operationName, err)
	}

	if err := decodeModelJSON(result.Text(), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, hrErrors.NewAIError(hrErrors.ErrCodeExtractionFailed,
			"Failed to parse AI response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}
	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int64("ai.duration_ms", time.Since(start).Milliseconds()),
	)
	return output, tokenUsage, nil
}

// ExtractResume turns a PDF or plain text resume into a Resume
func (g *GeminiProvider) ExtractResume(ctx context.Context, doc types.ResumeDocument) (types.Resume, *TokenUsage, error) {
	systemPrompt, userTemplate := g.prompts()

	var parts []*genai.Part
	if doc.MIMEType == mimePDF {
		parts = []*genai.Part{
			genai.NewPartFromBytes(doc.Data, mimePDF),
			genai.NewPartFromText(fmt.Sprintf(userTemplate, "(the attached PDF document)")),
		}
	} else {
		parts = []*genai.Part{
			genai.NewPartFromText(fmt.Sprintf(userTemplate, truncate(string(doc.Data), MaxExtractionChars))),
		}
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	output, usage, err := executeAIOperation[types.Resume](
		g, ctx, "extract_resume", contents, systemPrompt, g.generateConfig(resumeSchema()),
		attribute.String("input.filename", doc.Filename),
		attribute.String("input.mime_type", doc.MIMEType),
		attribute.Int("input.size", len(doc.Data)),
	)
	if err != nil {
		return types.Resume{}, nil, err
	}
	output.Filename = doc.Filename

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.Int("output.technical_skills", len(output.TechnicalSkills)))
	}
	return output, usage, nil
}

// ExtractJob turns a job posting into a JobDescription named doc.Name
func (g *GeminiProvider) ExtractJob(ctx context.Context, doc types.JobDocument) (types.JobDescription, *TokenUsage, error) {
	systemPrompt, userTemplate := g.prompts()

	var parts []*genai.Part
	size := len(doc.Text)
	if doc.IsPDF() {
		size = len(doc.Data)
		parts = []*genai.Part{
			genai.NewPartFromBytes(doc.Data, mimePDF),
			genai.NewPartFromText(fmt.Sprintf(userTemplate, "(the attached PDF document)")),
		}
	} else {
		parts = []*genai.Part{
			genai.NewPartFromText(fmt.Sprintf(userTemplate, truncate(doc.Text, MaxExtractionChars))),
		}
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	output, usage, err := executeAIOperation[types.JobDescription](
		g, ctx, "extract_job", contents, systemPrompt, g.generateConfig(jobSchema()),
		attribute.String("input.job_name", doc.Name),
		attribute.Bool("input.pdf", doc.IsPDF()),
		attribute.Int("input.size", size),
	)
	if err != nil {
		return types.JobDescription{}, nil, err
	}
	output.Filename = doc.Name
	return output, usage, nil
}

// SummarizeLeave writes a narrative of an already made leave decision
func (g *GeminiProvider) SummarizeLeave(ctx context.Context, input types.LeaveSummaryInput) (types.LeaveSummaryOutput, *TokenUsage, error) {
	systemPrompt, userTemplate := g.prompts()

	payload, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return types.LeaveSummaryOutput{}, nil, hrErrors.NewInternalError(hrErrors.ErrCodeInvalidRequest,
			"Failed to encode leave decision", err)
	}
	userPrompt := fmt.Sprintf(userTemplate, string(payload))

	output, usage, err := executeAIOperation[types.LeaveSummaryOutput](
		g, ctx, "summarize_leave", genai.Text(userPrompt), systemPrompt, g.generateConfig(leaveSummarySchema()),
		attribute.String("leave.type", input.Request.LeaveType),
		attribute.String("leave.status", input.Decision.Status),
	)
	if err != nil {
		return types.LeaveSummaryOutput{}, nil, err
	}
	if output.Summary == "" {
		return types.LeaveSummaryOutput{}, nil, hrErrors.NewAIError(hrErrors.ErrCodeExtractionFailed,
			"AI returned an empty leave summary", nil)
	}
	return output, usage, nil
}

func (g *GeminiProvider) breakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.breaker.Stats(),
		"model_operations": g.models.Stats(),
		"overall_healthy":  g.breaker.Healthy() && g.models.Healthy(),
	}
}

// Close implements AIProvider. The genai client holds no resources in unary mode.
func (g *GeminiProvider) Close() error {
	return nil
}

// prompts returns the system prompt and user template of the provider's operation
func (g *GeminiProvider) prompts() (string, string) {
	defaults := DefaultPrompts[g.operation]
	system := resolvePrompt(g.config.LoadedPrompts.System, g.config.CustomPrompts.System, defaults.System)
	user := resolvePrompt(g.config.LoadedPrompts.User, g.config.CustomPrompts.User, defaults.User)
	return system, user
}

func (g *GeminiProvider) generateConfig(schema *genai.Schema) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	}
	if *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	return cfg
}

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
