package formatters

import (
	"encoding/json"
	"fmt"
	"slices"

	"hrassist/internal/types"
)

// Output formats
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Data type keys of the registry
const (
	TypeAny           = "any"
	TypeLeaveDecision = "LeaveDecision"
	TypeLeaveAnalysis = "LeaveAnalysis"
	TypePolicyListing = "PolicyListing"
	TypeLeaveHistory  = "LeaveHistory"
	TypeMatchResult   = "MatchResult"
	TypeMatchResults  = "MatchResults"
	TypeMatchRun      = "MatchRunSummary"
	TypeStoreStats    = "StoreStats"
	TypeParseReport   = "ParseReport"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterFunc adapts a typed rendering function to Formatter.
type FormatterFunc[T any] struct {
	Type   string
	Render func(T) string
}

func (f FormatterFunc[T]) Format(data any) (string, error) {
	v, ok := data.(T)
	if !ok {
		return "", fmt.Errorf("expected %s, got %T", f.Type, data)
	}
	return f.Render(v), nil
}

func (f FormatterFunc[T]) SupportedType() string {
	return f.Type
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter(FormatJSON, TypeAny, &JSONFormatter{})

	registry.register(FormatterFunc[types.LeaveDecision]{TypeLeaveDecision, LeaveDecisionText}, FormatterFunc[types.LeaveDecision]{TypeLeaveDecision, LeaveDecisionMarkdown})
	registry.register(FormatterFunc[types.LeaveAnalysis]{TypeLeaveAnalysis, leaveAnalysisText}, FormatterFunc[types.LeaveAnalysis]{TypeLeaveAnalysis, leaveAnalysisMarkdown})
	registry.register(FormatterFunc[types.PolicyListing]{TypePolicyListing, policyListingText}, FormatterFunc[types.PolicyListing]{TypePolicyListing, policyListingMarkdown})
	registry.register(FormatterFunc[[]types.LeaveRecord]{TypeLeaveHistory, leaveHistoryText}, FormatterFunc[[]types.LeaveRecord]{TypeLeaveHistory, leaveHistoryMarkdown})
	registry.register(FormatterFunc[types.MatchResult]{TypeMatchResult, matchResultText}, FormatterFunc[types.MatchResult]{TypeMatchResult, matchResultMarkdown})
	registry.register(FormatterFunc[[]types.MatchResult]{TypeMatchResults, matchResultsText}, FormatterFunc[[]types.MatchResult]{TypeMatchResults, matchResultsMarkdown})
	registry.register(FormatterFunc[types.MatchRunSummary]{TypeMatchRun, matchRunText}, FormatterFunc[types.MatchRunSummary]{TypeMatchRun, matchRunMarkdown})
	registry.register(FormatterFunc[types.StoreStats]{TypeStoreStats, storeStatsText}, FormatterFunc[types.StoreStats]{TypeStoreStats, storeStatsMarkdown})
	registry.register(FormatterFunc[types.ParseReport]{TypeParseReport, parseReportText}, FormatterFunc[types.ParseReport]{TypeParseReport, parseReportMarkdown})

	return registry
}

func (fr *FormatterRegistry) register(text, markdown Formatter) {
	fr.RegisterFormatter(FormatText, text.SupportedType(), text)
	fr.RegisterFormatter(FormatMarkdown, markdown.SupportedType(), markdown)
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.LeaveDecision:
		return TypeLeaveDecision
	case types.LeaveAnalysis:
		return TypeLeaveAnalysis
	case types.PolicyListing:
		return TypePolicyListing
	case []types.LeaveRecord:
		return TypeLeaveHistory
	case types.MatchResult:
		return TypeMatchResult
	case []types.MatchResult:
		return TypeMatchResults
	case types.MatchRunSummary:
		return TypeMatchRun
	case types.StoreStats:
		return TypeStoreStats
	case types.ParseReport:
		return TypeParseReport
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}
