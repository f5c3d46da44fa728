package types

import "time"

// Leave decision statuses
const (
	StatusApproved = "approved"
	StatusFlagged  = "flagged"
	StatusRejected = "rejected"
)

// Leave types known to the default policy set
const (
	LeaveCasual = "casual"
	LeaveSick   = "sick"
	LeaveAnnual = "annual"
)

// LeaveRequest represents an employee's request for time off
type LeaveRequest struct {
	EmployeeID       string  `json:"employee_id" mapstructure:"employee_id"`
	EmployeeName     string  `json:"employee_name" mapstructure:"employee_name"`
	LeaveType        string  `json:"leave_type" mapstructure:"leave_type"`
	StartDate        string  `json:"start_date" mapstructure:"start_date"` // YYYY-MM-DD
	EndDate          string  `json:"end_date" mapstructure:"end_date"`     // YYYY-MM-DD
	Reason           string  `json:"reason" mapstructure:"reason"`
	AvailableBalance float64 `json:"available_balance" mapstructure:"available_balance"`
}

// LeavePolicy holds the rules for one leave type. Nil limits mean "no limit".
type LeavePolicy struct {
	MaxDaysPerRequest               *int `json:"max_days_per_request,omitempty" yaml:"max_days_per_request,omitempty" mapstructure:"max_days_per_request"`
	RequiresNotice                  int  `json:"requires_notice" yaml:"requires_notice" mapstructure:"requires_notice"`
	RequiresMedicalCertificateAfter *int `json:"requires_medical_certificate_after,omitempty" yaml:"requires_medical_certificate_after,omitempty" mapstructure:"requires_medical_certificate_after"`
}

// PolicySet maps a leave type to its policy
type PolicySet map[string]LeavePolicy

// LeaveDecision is the outcome of evaluating a request against a policy set
type LeaveDecision struct {
	Status           string   `json:"status"`
	Message          string   `json:"message"`
	EmployeeName     string   `json:"employee_name"`
	LeaveType        string   `json:"leave_type"`
	RequestedDays    int      `json:"requested_days"`
	DateRange        string   `json:"date_range"`
	AvailableBalance float64  `json:"available_balance"`
	Violations       []string `json:"violations"`
	Flags            []string `json:"flags"`
}

// LeaveDetails is the compact view of a decision returned with an analysis
type LeaveDetails struct {
	EmployeeName     string  `json:"employee_name"`
	LeaveType        string  `json:"leave_type"`
	RequestedDays    int     `json:"requested_days"`
	AvailableBalance float64 `json:"available_balance"`
	DateRange        string  `json:"date_range"`
	HasViolations    bool    `json:"has_violations"`
	HasFlags         bool    `json:"has_flags"`
}

// LeaveAnalysis is what the leave assistant returns to callers
type LeaveAnalysis struct {
	Status     string        `json:"status"` // "success" or "error"
	Summary    string        `json:"summary"`
	Decision   string        `json:"decision"` // upper-case decision status
	Details    LeaveDetails  `json:"details"`
	AgentUsed  bool          `json:"agent_used"`
	Evaluation LeaveDecision `json:"evaluation"`
}

// LeaveRecord is a persisted leave request together with its decision
type LeaveRecord struct {
	ID        string        `json:"id"`
	Request   LeaveRequest  `json:"request"`
	Decision  LeaveDecision `json:"decision"`
	CreatedAt time.Time     `json:"created_at"`
}

// PolicyListing is a policy set together with where it came from
type PolicyListing struct {
	Policies PolicySet `json:"policies"`
	Source   string    `json:"source"` // "store" or "default"
}

// LeaveSummaryInput is what the summary agent receives
type LeaveSummaryInput struct {
	Request  LeaveRequest  `json:"request"`
	Decision LeaveDecision `json:"decision"`
}

// LeaveSummaryOutput is the agent's narrative for HR
type LeaveSummaryOutput struct {
	Summary string `json:"summary"`
}
