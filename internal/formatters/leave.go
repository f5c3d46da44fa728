package formatters

import (
	"fmt"
	"strings"
	"unicode"

	"hrassist/internal/leave"
	"hrassist/internal/types"
)

// verdict is the headline and explanation of a decision, plus the items listed under it.
type verdict struct {
	headline    string
	explanation string
	items       []string
}

func decisionVerdict(d types.LeaveDecision) verdict {
	switch d.Status {
	case types.StatusApproved:
		if len(d.Flags) > 0 {
			return verdict{"APPROVED WITH NOTES", "This leave request can be approved but has some points for HR attention:", d.Flags}
		}
		return verdict{"FULLY APPROVED", "This leave request meets all company policies and can be approved without any concerns.", nil}
	case types.StatusRejected:
		return verdict{"REJECTED", "This leave request cannot be approved due to the following policy violations:", d.Violations}
	case types.StatusFlagged:
		return verdict{"REQUIRES HR REVIEW", "This leave request needs manual review by HR due to:", d.Flags}
	}
	return verdict{}
}

// LeaveDecisionText renders the plain text summary of a decision. It is the
// summary returned when no AI narrative is available.
func LeaveDecisionText(d types.LeaveDecision) string {
	employee := d.EmployeeName
	if employee == "" {
		employee = "Employee"
	}

	lines := []string{
		"LEAVE REQUEST ANALYSIS FOR " + strings.ToUpper(employee),
		"Leave Type: " + TitleCase(d.LeaveType),
		fmt.Sprintf("Duration: %d days (%s)", d.RequestedDays, d.DateRange),
		fmt.Sprintf("Available Balance: %s days", leave.FormatDays(d.AvailableBalance)),
		"",
	}

	v := decisionVerdict(d)
	if v.headline != "" {
		lines = append(lines, "DECISION: "+v.headline, v.explanation)
		for i, item := range v.items {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
		}
	}

	return strings.Join(lines, "\n")
}

// LeaveDecisionMarkdown renders a decision as markdown.
func LeaveDecisionMarkdown(d types.LeaveDecision) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Leave Request Analysis: %s\n\n", d.EmployeeName)
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Leave Type | %s |\n", TitleCase(d.LeaveType))
	fmt.Fprintf(&b, "| Duration | %d days |\n", d.RequestedDays)
	fmt.Fprintf(&b, "| Dates | %s |\n", d.DateRange)
	fmt.Fprintf(&b, "| Available Balance | %s days |\n\n", leave.FormatDays(d.AvailableBalance))

	v := decisionVerdict(d)
	if v.headline != "" {
		fmt.Fprintf(&b, "## Decision: %s\n\n%s\n", v.headline, v.explanation)
		if len(v.items) > 0 {
			b.WriteString("\n")
		}
		for i, item := range v.items {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item)
		}
	}

	return b.String()
}

func leaveAnalysisText(a types.LeaveAnalysis) string {
	if !a.AgentUsed {
		return a.Summary
	}
	return LeaveDecisionText(a.Evaluation) + "\n\nHR SUMMARY\n" + a.Summary
}

func leaveAnalysisMarkdown(a types.LeaveAnalysis) string {
	out := LeaveDecisionMarkdown(a.Evaluation)
	if a.AgentUsed {
		out += "\n## HR Summary\n\n" + a.Summary + "\n"
	}
	return out
}

func describePolicy(leaveType string, p types.LeavePolicy) string {
	parts := []string{}
	if p.MaxDaysPerRequest != nil {
		parts = append(parts, fmt.Sprintf("max %d days per request", *p.MaxDaysPerRequest))
	} else {
		parts = append(parts, "no per-request limit")
	}
	if p.RequiresNotice > 0 {
		parts = append(parts, fmt.Sprintf("%d days notice", p.RequiresNotice))
	} else {
		parts = append(parts, "no notice required")
	}
	if leaveType == types.LeaveSick && p.RequiresMedicalCertificateAfter != nil {
		parts = append(parts, fmt.Sprintf("medical certificate after %d days", *p.RequiresMedicalCertificateAfter))
	}
	return strings.Join(parts, ", ")
}

func policyListingText(l types.PolicyListing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "LEAVE POLICIES (source: %s)\n", l.Source)
	for _, leaveType := range leave.LeaveTypes(l.Policies) {
		fmt.Fprintf(&b, "%s: %s\n", leaveType, describePolicy(leaveType, l.Policies[leaveType]))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func policyListingMarkdown(l types.PolicyListing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Leave Policies\n\n_Source: %s_\n\n", l.Source)
	b.WriteString("| Leave Type | Max Days | Notice | Certificate After |\n|---|---|---|---|\n")
	for _, leaveType := range leave.LeaveTypes(l.Policies) {
		p := l.Policies[leaveType]
		fmt.Fprintf(&b, "| %s | %s | %d | %s |\n", leaveType,
			optionalInt(p.MaxDaysPerRequest), p.RequiresNotice, optionalInt(p.RequiresMedicalCertificateAfter))
	}
	return b.String()
}

func leaveHistoryText(records []types.LeaveRecord) string {
	if len(records) == 0 {
		return "No leave requests recorded."
	}
	var b strings.Builder
	for _, r := range records {
		fmt.Fprintf(&b, "%s  %-8s %-8s %2d days  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Request.LeaveType,
			strings.ToUpper(r.Decision.Status),
			r.Decision.RequestedDays,
			r.Decision.DateRange)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func leaveHistoryMarkdown(records []types.LeaveRecord) string {
	var b strings.Builder
	b.WriteString("# Leave History\n\n")
	if len(records) == 0 {
		b.WriteString("No leave requests recorded.\n")
		return b.String()
	}
	b.WriteString("| Recorded | Type | Days | Dates | Decision |\n|---|---|---|---|---|\n")
	for _, r := range records {
		fmt.Fprintf(&b, "| %s | %s | %d | %s | %s |\n",
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Request.LeaveType,
			r.Decision.RequestedDays,
			r.Decision.DateRange,
			strings.ToUpper(r.Decision.Status))
	}
	return b.String()
}

func optionalInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
// A word starts after any character that is not a letter.
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}
