package leave

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"hrassist/internal/types"
)

// DateLayout is the wire format of leave dates. Requests may also leave the
// month and day unpadded.
const (
	DateLayout     = "2006-01-02"
	unpaddedLayout = "2006-1-2"
)

// HighUsageRatio is the share of the remaining balance above which a request is flagged.
const HighUsageRatio = 0.5

// medicalKeywords are the words a sick leave reason is expected to contain.
var medicalKeywords = []string{
	"sick", "ill", "medical", "doctor", "hospital",
	"fever", "injury", "disease", "accident", "suffering",
}

const (
	msgRejected = "The leave request is rejected due to policy violations."
	msgFlagged  = "The leave request is approved but has been flagged for HR review."
	msgApproved = "The leave request is fully approved."
)

// Evaluator checks leave requests against a policy set. Now supplies "today"
// for notice calculations and defaults to time.Now.
type Evaluator struct {
	Now func() time.Time
}

// NewEvaluator creates an evaluator using the wall clock.
func NewEvaluator() *Evaluator {
	return &Evaluator{Now: time.Now}
}

// Evaluate is a convenience wrapper using the wall clock.
func Evaluate(req types.LeaveRequest, policies types.PolicySet) types.LeaveDecision {
	return NewEvaluator().Evaluate(req, policies)
}

// Evaluate runs every hard rule, then the soft rules when no hard rule failed.
// It never returns an error: malformed input becomes a violation.
func (e *Evaluator) Evaluate(req types.LeaveRequest, policies types.PolicySet) types.LeaveDecision {
	var violations []string

	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		violations = append(violations, fmt.Sprintf("Invalid date format: %v", err))
		return buildDecision(req, 0, violations, nil)
	}

	days := daysBetween(start, end) + 1
	if days <= 0 {
		violations = append(violations, "Invalid date range: End date must be on or after the start date.")
	}

	policy, known := policies[req.LeaveType]
	if !known {
		violations = append(violations,
			fmt.Sprintf("Unknown leave type: '%s' is not a valid leave category.", req.LeaveType))
	} else {
		violations = append(violations, e.checkPolicy(req, policy, start, days)...)
	}

	if len(violations) > 0 {
		return buildDecision(req, days, violations, nil)
	}

	return buildDecision(req, days, nil, checkFlags(req, start, end, days))
}

func (e *Evaluator) checkPolicy(req types.LeaveRequest, policy types.LeavePolicy, start time.Time, days int) []string {
	var violations []string

	if req.AvailableBalance < float64(days) {
		violations = append(violations, fmt.Sprintf(
			"Insufficient Balance: You requested %d days but only have %s available.",
			days, FormatDays(req.AvailableBalance)))
	}

	if policy.MaxDaysPerRequest != nil && days > *policy.MaxDaysPerRequest {
		violations = append(violations, fmt.Sprintf(
			"Exceeds Limit: Your request for %d days exceeds the maximum of %d days allowed per request.",
			days, *policy.MaxDaysPerRequest))
	}

	if policy.RequiresNotice > 0 {
		given := daysBetween(e.today(), start)
		if given < policy.RequiresNotice {
			violations = append(violations, fmt.Sprintf(
				"Insufficient Notice: This leave requires %d days notice, but you provided %d.",
				policy.RequiresNotice, given))
		}
	}

	if req.LeaveType == types.LeaveSick && policy.RequiresMedicalCertificateAfter != nil &&
		days > *policy.RequiresMedicalCertificateAfter {
		violations = append(violations, fmt.Sprintf(
			"Medical Certificate Required: A doctor's note is needed for sick leave longer than %d days.",
			*policy.RequiresMedicalCertificateAfter))
	}

	return violations
}

func checkFlags(req types.LeaveRequest, start, end time.Time, days int) []string {
	var flags []string

	if req.AvailableBalance > 0 && float64(days) > req.AvailableBalance*HighUsageRatio {
		flags = append(flags, "High Usage: This request uses a significant portion of the remaining leave balance.")
	}

	if req.LeaveType == types.LeaveSick && !mentionsMedicalReason(req.Reason) {
		flags = append(flags, "Reason Mismatch: The reason provided may not align with a sick leave request. Please ensure it is for a medical issue.")
	}

	if start.Weekday() == time.Friday && (end.Weekday() == time.Saturday || end.Weekday() == time.Sunday) {
		flags = append(flags, "Weekend Bridge: This leave extends over a weekend, which might impact weekly handovers.")
	}

	return flags
}

func mentionsMedicalReason(reason string) bool {
	reason = strings.ToLower(reason)
	for _, word := range medicalKeywords {
		if strings.Contains(reason, word) {
			return true
		}
	}
	return false
}

func buildDecision(req types.LeaveRequest, days int, violations, flags []string) types.LeaveDecision {
	status, message := types.StatusApproved, msgApproved
	switch {
	case len(violations) > 0:
		status, message = types.StatusRejected, msgRejected
		flags = nil
	case len(flags) > 0:
		status, message = types.StatusFlagged, msgFlagged
	}

	if violations == nil {
		violations = []string{}
	}
	if flags == nil {
		flags = []string{}
	}

	return types.LeaveDecision{
		Status:           status,
		Message:          message,
		EmployeeName:     req.EmployeeName,
		LeaveType:        req.LeaveType,
		RequestedDays:    days,
		DateRange:        fmt.Sprintf("%s to %s", req.StartDate, req.EndDate),
		AvailableBalance: req.AvailableBalance,
		Violations:       violations,
		Flags:            flags,
	}
}

func (e *Evaluator) today() time.Time {
	now := time.Now
	if e != nil && e.Now != nil {
		now = e.Now
	}
	t := now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// parseDate reports the DateLayout error when neither layout matches.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err == nil {
		return t, nil
	}
	if t, uerr := time.Parse(unpaddedLayout, s); uerr == nil {
		return t, nil
	}
	return time.Time{}, err
}

// daysBetween returns whole calendar days from a to b; both must be UTC midnights.
// Unix seconds avoid the ~292 year limit of time.Duration.
func daysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// FormatDays renders a day count without a trailing ".0" when it is integral.
func FormatDays(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
