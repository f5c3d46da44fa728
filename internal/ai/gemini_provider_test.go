package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"hrassist/internal/config"
	hrErrors "hrassist/internal/errors"
	"hrassist/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

func TestDecodeModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: `{"summary":"ok"}`, want: "ok"},
		{name: "fenced", raw: "```json\n{\"summary\": \"fenced\"}\n```", want: "fenced"},
		{name: "bare fence", raw: "```\n{\"summary\": \"bare\"}\n```", want: "bare"},
		{name: "surrounding prose", raw: "Here you go:\n{\"summary\": \"prose\"}\nThanks!", want: "prose"},
		{name: "trailing comma", raw: `{"summary": "comma",}`, want: "comma"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out types.LeaveSummaryOutput
			require.NoError(t, decodeModelJSON(tt.raw, &out))
			assert.Equal(t, tt.want, out.Summary)
		})
	}
}

func TestDecodeModelJSONNullNumbers(t *testing.T) {
	raw := "```json\n{\"name\": \"Asha\", \"high_school_percentage\": null, \"btech_cgpa\": 8.1, \"technical_skills\": [\"Go\"]}\n```"

	var resume types.Resume
	require.NoError(t, decodeModelJSON(raw, &resume))
	assert.Equal(t, "Asha", resume.Name)
	assert.Nil(t, resume.HighSchoolPercentage)
	require.NotNil(t, resume.BTechCGPA)
	assert.InDelta(t, 8.1, *resume.BTechCGPA, 1e-9)
	assert.Equal(t, []string{"Go"}, resume.TechnicalSkills)
}

func TestDecodeModelJSONEmpty(t *testing.T) {
	var out types.LeaveSummaryOutput
	assert.Error(t, decodeModelJSON("   ", &out))
}

func TestResolvePrompt(t *testing.T) {
	assert.Equal(t, "file", resolvePrompt("file", "config", "default"))
	assert.Equal(t, "config", resolvePrompt("", "config", "default"))
	assert.Equal(t, "default", resolvePrompt("", "", "default"))
}

func TestProviderPrompts(t *testing.T) {
	cfg := &config.OperationAIConfig{
		CustomPrompts: config.PromptConfig{System: "custom system"},
		LoadedPrompts: config.LoadedPrompts{User: "loaded user %s"},
	}
	g := &GeminiProvider{config: cfg, operation: config.OpJobExtraction}

	system, user := g.prompts()
	assert.Equal(t, "custom system", system)
	assert.Equal(t, "loaded user %s", user)

	g.config = &config.OperationAIConfig{}
	system, user = g.prompts()
	assert.Equal(t, DefaultPrompts[config.OpJobExtraction].System, system)
	assert.Equal(t, DefaultPrompts[config.OpJobExtraction].User, user)
}

func TestDefaultPromptsTakeOneArgument(t *testing.T) {
	for _, op := range []string{config.OpResumeExtraction, config.OpJobExtraction, config.OpLeaveSummary} {
		prompts, ok := DefaultPrompts[op]
		require.True(t, ok, op)
		assert.NotEmpty(t, prompts.System, op)
		assert.Equal(t, 1, strings.Count(prompts.User, "%s"), op)
		assert.NotContains(t, fmt.Sprintf(prompts.User, "doc"), "%!", op)
	}
}

func TestGenerateConfigTemperature(t *testing.T) {
	zero, warm := float32(0), float32(0.3)

	g := &GeminiProvider{config: &config.OperationAIConfig{Temperature: &zero}}
	cfg := g.generateConfig(leaveSummarySchema())
	assert.Nil(t, cfg.Temperature)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)

	g.config.Temperature = &warm
	cfg = g.generateConfig(leaveSummarySchema())
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.3, float64(*cfg.Temperature), 1e-6)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "héé", truncate("hééllo", 3))
	assert.Len(t, []rune(truncate(strings.Repeat("x", MaxExtractionChars+10), MaxExtractionChars)), MaxExtractionChars)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("bad request"), want: false},
		{name: "net timeout", err: fmt.Errorf("wrapped: %w", timeoutErr{}), want: true},
		{name: "too many requests", err: &googleapi.Error{Code: http.StatusTooManyRequests}, want: true},
		{name: "unavailable", err: &googleapi.Error{Code: http.StatusServiceUnavailable}, want: true},
		{name: "bad gateway", err: &googleapi.Error{Code: http.StatusBadGateway}, want: true},
		{name: "unauthorized", err: &googleapi.Error{Code: http.StatusUnauthorized}, want: false},
		{name: "bad request", err: &googleapi.Error{Code: http.StatusBadRequest}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration
	}{
		{attempt: 1, min: time.Second, max: 1100 * time.Millisecond},
		{attempt: 2, min: 2 * time.Second, max: 2200 * time.Millisecond},
		{attempt: 3, min: 4 * time.Second, max: 4400 * time.Millisecond},
		{attempt: 10, min: 30 * time.Second, max: 30 * time.Second},
	}

	for _, tt := range tests {
		d := backoffDelay(tt.attempt)
		assert.GreaterOrEqual(t, d, tt.min, "attempt %d", tt.attempt)
		assert.LessOrEqual(t, d, tt.max, "attempt %d", tt.attempt)
	}
}

func TestExecuteWithRetryStopsOnPermanentError(t *testing.T) {
	retries := 3
	g := &GeminiProvider{config: &config.OperationAIConfig{MaxRetries: &retries}, logger: hrErrors.Discard()}

	calls := 0
	_, err := g.executeWithRetry(context.Background(), "extract_job", func() (*genai.GenerateContentResponse, error) {
		calls++
		return nil, &googleapi.Error{Code: http.StatusForbidden}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetryHonoursContext(t *testing.T) {
	retries := 2
	g := &GeminiProvider{config: &config.OperationAIConfig{MaxRetries: &retries}, logger: hrErrors.Discard()}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := g.executeWithRetry(ctx, "extract_job", func() (*genai.GenerateContentResponse, error) {
		calls++
		cancel()
		return nil, &googleapi.Error{Code: http.StatusServiceUnavailable}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
