package ai

import (
	"context"
	"fmt"

	"hrassist/internal/config"
	"hrassist/internal/errors"
	"hrassist/internal/observability"
	"hrassist/internal/types"
)

// Service runs one AI operation through its provider and records metrics for it
type Service struct {
	Provider  AIProvider
	operation string
	logger    *errors.Logger
	metrics   *observability.Metrics
}

// NewService creates a new AI service instance with configuration for a specific operation
func NewService(cfg *config.OperationAIConfig, operation string, logger *errors.Logger, metrics *observability.Metrics) (*Service, error) {
	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation", operation,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	var provider AIProvider
	var err error
	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operation, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, err
	}

	return NewServiceWithProvider(provider, operation, logger, metrics), nil
}

// NewServiceWithProvider wraps an existing provider.
func NewServiceWithProvider(provider AIProvider, operation string, logger *errors.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Service{Provider: provider, operation: operation, logger: logger, metrics: metrics}
}

// ExtractResume extracts a structured resume
func (s *Service) ExtractResume(ctx context.Context, doc types.ResumeDocument) (types.Resume, error) {
	return track(s, ctx, func(ctx context.Context) (types.Resume, *TokenUsage, error) {
		return s.Provider.ExtractResume(ctx, doc)
	})
}

// ExtractJob extracts a structured job description
func (s *Service) ExtractJob(ctx context.Context, doc types.JobDocument) (types.JobDescription, error) {
	return track(s, ctx, func(ctx context.Context) (types.JobDescription, *TokenUsage, error) {
		return s.Provider.ExtractJob(ctx, doc)
	})
}

// SummarizeLeave writes an HR narrative of a leave decision
func (s *Service) SummarizeLeave(ctx context.Context, input types.LeaveSummaryInput) (string, error) {
	out, err := track(s, ctx, func(ctx context.Context) (types.LeaveSummaryOutput, *TokenUsage, error) {
		return s.Provider.SummarizeLeave(ctx, input)
	})
	return out.Summary, err
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// Close releases the provider
func (s *Service) Close() error {
	return s.Provider.Close()
}

func track[Out any](s *Service, ctx context.Context, call func(context.Context) (Out, *TokenUsage, error)) (Out, error) {
	var out Out
	err := s.metrics.TrackAIOperationWithTokens(ctx, s.operation, func(ctx context.Context) *observability.AIOperationResult {
		var usage *TokenUsage
		var err error
		out, usage, err = call(ctx)

		result := &observability.AIOperationResult{Error: err}
		if usage != nil {
			result.TokenUsage = &observability.TokenUsage{
				InputTokens:  usage.InputTokens,
				OutputTokens: usage.OutputTokens,
				TotalTokens:  usage.TotalTokens,
			}
		}
		return result
	})
	if err != nil {
		s.logger.LogError(err, "AI operation failed", "operation", s.operation)
	}
	return out, err
}

// Services holds one Service per AI operation. Every field is nil when no API key is
// configured.
type Services struct {
	Resume *Service
	Job    *Service
	Leave  *Service
}

// NewServices builds the services of every operation from cfg.
func NewServices(cfg *config.Config, logger *errors.Logger, metrics *observability.Metrics) (*Services, error) {
	services := &Services{}
	if !cfg.AIEnabled() {
		logger.Debug("AI API key not configured, AI operations are disabled")
		return services, nil
	}

	for _, target := range []struct {
		op  string
		dst **Service
	}{
		{config.OpResumeExtraction, &services.Resume},
		{config.OpJobExtraction, &services.Job},
		{config.OpLeaveSummary, &services.Leave},
	} {
		opCfg, err := cfg.OperationConfig(target.op)
		if err != nil {
			return nil, err
		}
		svc, err := NewService(&opCfg, target.op, logger, metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s service: %w", target.op, err)
		}
		*target.dst = svc
	}
	return services, nil
}

// Enabled reports whether the AI services were created.
func (s *Services) Enabled() bool {
	return s != nil && s.Resume != nil && s.Job != nil && s.Leave != nil
}

func (s *Services) require(svc *Service, op string) error {
	if svc == nil {
		return errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			fmt.Sprintf("AI operation %s is not available: no API key configured", op), nil)
	}
	return nil
}

// ExtractResume runs resume extraction. It fails with a config error when AI is disabled.
func (s *Services) ExtractResume(ctx context.Context, doc types.ResumeDocument) (types.Resume, error) {
	if err := s.require(s.Resume, config.OpResumeExtraction); err != nil {
		return types.Resume{}, err
	}
	return s.Resume.ExtractResume(ctx, doc)
}

// ExtractJob runs job description extraction.
func (s *Services) ExtractJob(ctx context.Context, doc types.JobDocument) (types.JobDescription, error) {
	if err := s.require(s.Job, config.OpJobExtraction); err != nil {
		return types.JobDescription{}, err
	}
	return s.Job.ExtractJob(ctx, doc)
}

// SummarizeLeave runs the leave summary.
func (s *Services) SummarizeLeave(ctx context.Context, input types.LeaveSummaryInput) (string, error) {
	if err := s.require(s.Leave, config.OpLeaveSummary); err != nil {
		return "", err
	}
	return s.Leave.SummarizeLeave(ctx, input)
}

// ModelInfo reports the model of every configured operation, keyed by operation.
func (s *Services) ModelInfo(ctx context.Context) map[string]*ModelInfo {
	info := map[string]*ModelInfo{}
	if s == nil {
		return info
	}
	for op, svc := range map[string]*Service{
		config.OpResumeExtraction: s.Resume,
		config.OpJobExtraction:    s.Job,
		config.OpLeaveSummary:     s.Leave,
	} {
		if svc != nil {
			info[op] = svc.GetModelInfo(ctx)
		}
	}
	return info
}

// Close closes every service.
func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	for _, svc := range []*Service{s.Resume, s.Job, s.Leave} {
		if svc != nil {
			if err := svc.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}
