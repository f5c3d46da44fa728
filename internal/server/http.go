package server

import (
	"cmp"
	"context"
	"sync"
	"time"

	"hrassist/internal/ai"
	"hrassist/internal/config"
	hrErrors "hrassist/internal/errors"
	"hrassist/internal/observability"
	"hrassist/internal/types"
)

// LeaveApplyRequest is the body of POST /leave/apply. Both the snake_case fields and
// the camelCase names used by older clients are accepted; snake_case wins.
type LeaveApplyRequest struct {
	EmployeeID       string   `json:"employee_id"`
	EmployeeName     string   `json:"employee_name"`
	LeaveType        string   `json:"leave_type"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	Reason           string   `json:"reason"`
	AvailableBalance *float64 `json:"available_balance"`

	LegacyEmployeeID   string   `json:"employeeId"`
	LegacyEmployeeName string   `json:"employeeName"`
	TypeOfLeave        string   `json:"typeOfLeave"`
	LegacyStartDate    string   `json:"startDate"`
	LegacyEndDate      string   `json:"endDate"`
	Left               *float64 `json:"left"`
}

// LeaveRequest merges both field spellings.
func (r LeaveApplyRequest) LeaveRequest() types.LeaveRequest {
	balance := r.AvailableBalance
	if balance == nil {
		balance = r.Left
	}
	req := types.LeaveRequest{
		EmployeeID:   cmp.Or(r.EmployeeID, r.LegacyEmployeeID),
		EmployeeName: cmp.Or(r.EmployeeName, r.LegacyEmployeeName),
		LeaveType:    cmp.Or(r.LeaveType, r.TypeOfLeave),
		StartDate:    cmp.Or(r.StartDate, r.LegacyStartDate),
		EndDate:      cmp.Or(r.EndDate, r.LegacyEndDate),
		Reason:       r.Reason,
	}
	if balance != nil {
		req.AvailableBalance = *balance
	}
	return req
}

// MatchRequest is the body of POST /resume/match.
type MatchRequest struct {
	Resume types.Resume         `json:"resume"`
	Job    types.JobDescription `json:"job"`
}

// MatchResponse is returned by the upload and match endpoints.
type MatchResponse struct {
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	Score         int                `json:"score,omitempty"`
	FullMatchData *types.MatchResult `json:"full_match_data,omitempty"`
}

// PolicyUpdateResponse is returned by PUT /leave/policies/{type}.
type PolicyUpdateResponse struct {
	Status        string                       `json:"status"`
	Message       string                       `json:"message"`
	UpdatedPolicy map[string]types.LeavePolicy `json:"updated_policy"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// LeaveService evaluates leave requests.
type LeaveService interface {
	Analyze(ctx context.Context, req types.LeaveRequest) (types.LeaveAnalysis, error)
}

// PolicyService reads and changes leave policies.
type PolicyService interface {
	Policies(ctx context.Context) types.PolicyListing
	Update(ctx context.Context, leaveType string, p types.LeavePolicy) (types.LeavePolicy, error)
	Available() bool
}

// RecruitService extracts and matches documents.
type RecruitService interface {
	UploadAndMatch(ctx context.Context, resume types.ResumeDocument, job types.JobDocument) (types.MatchResult, bool, error)
	MatchAll(ctx context.Context) (types.MatchRunSummary, error)
}

// RecordStore is the read side of the document store.
type RecordStore interface {
	LeaveHistory(ctx context.Context, employeeID string) ([]types.LeaveRecord, error)
	MatchesForJob(ctx context.Context, jobName string) ([]types.MatchResult, error)
	Stats(ctx context.Context) (types.StoreStats, error)
	Collections(ctx context.Context) (map[string]int, error)
	Ping(ctx context.Context) error
}

// ModelReporter reports the availability of the configured AI models.
type ModelReporter interface {
	ModelInfo(ctx context.Context) map[string]*ai.ModelInfo
}

// Dependencies are the services the handlers call. Records and Models may be nil.
type Dependencies struct {
	Leave         LeaveService
	Policies      PolicyService
	Recruit       RecruitService
	Records       RecordStore
	Models        ModelReporter
	Observability *observability.ObservabilityManager
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	TLSConfig config.TLSConfig

	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	HealthCheckTimeout time.Duration

	// Request size limit; multipart uploads get MaxUploadSize instead
	MaxRequestSize int64
	MaxUploadSize  int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// SecretWatcher rotates API keys from Vault while serving
	SecretWatcher *SecretWatcher

	deps Dependencies

	keysMu  sync.RWMutex
	apiKeys map[string]bool

	Logger *hrErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host               string
	Port               string
	Version            string
	TLSConfig          config.TLSConfig
	APIKeys            []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	HealthCheckTimeout time.Duration
	MaxRequestSize     int64
	MaxUploadSize      int64
	RateLimit          *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(cfg ServerConfig, deps Dependencies, logger *hrErrors.Logger) *Server {
	if logger == nil {
		logger = hrErrors.Discard()
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	s := &Server{
		Host:               cfg.Host,
		Port:               cfg.Port,
		Version:            cfg.Version,
		TLSConfig:          cfg.TLSConfig,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		IdleTimeout:        cfg.IdleTimeout,
		HealthCheckTimeout: cmp.Or(cfg.HealthCheckTimeout, 5*time.Second),
		MaxRequestSize:     cfg.MaxRequestSize,
		MaxUploadSize:      cmp.Or(cfg.MaxUploadSize, cfg.MaxRequestSize),
		RateLimit:          cfg.RateLimit,
		RateLimiter:        rateLimiter,
		deps:               deps,
		Logger:             logger,
	}
	s.SetAPIKeys(cfg.APIKeys)
	return s
}

// SetAPIKeys replaces the accepted API keys. An empty list disables authentication.
func (s *Server) SetAPIKeys(keys []string) {
	keyMap := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key != "" {
			keyMap[key] = true
		}
	}
	s.keysMu.Lock()
	s.apiKeys = keyMap
	s.keysMu.Unlock()
}

func (s *Server) apiKeyCount() int {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return len(s.apiKeys)
}

func (s *Server) validAPIKey(key string) bool {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return s.apiKeys[key]
}

func (s *Server) metrics() *observability.Metrics {
	return s.deps.Observability.GetMetrics()
}
