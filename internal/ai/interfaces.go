package ai

import (
	"context"

	"hrassist/internal/types"
)

// AIProvider interface for different AI implementations.
// Every call also reports token usage; callers may ignore it.
type AIProvider interface {
	ExtractResume(ctx context.Context, doc types.ResumeDocument) (types.Resume, *TokenUsage, error)
	ExtractJob(ctx context.Context, doc types.JobDocument) (types.JobDescription, *TokenUsage, error)
	SummarizeLeave(ctx context.Context, input types.LeaveSummaryInput) (types.LeaveSummaryOutput, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name           string         `json:"name"`
	DisplayName    string         `json:"displayName,omitempty"`
	Version        string         `json:"version,omitempty"`
	Available      bool           `json:"available"`
	Error          string         `json:"error,omitempty"`
	CircuitBreaker map[string]any `json:"circuitBreaker,omitempty"`
}
