package leave

import (
	"fmt"
	"strings"
	"time"

	"hrassist/internal/errors"
	"hrassist/internal/types"
)

// Layouts accepted for the interactive "DD/MM/YY-DD/MM/YY" range.
var rangeLayouts = []string{"02/01/06", "02/01/2006", "2/1/06", "2/1/2006"}

// ParseDateRange converts an interactive range such as "20/08/25-22/08/25" into
// start and end dates in DateLayout.
func ParseDateRange(s string) (string, string, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return "", "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
			"date range must look like DD/MM/YY-DD/MM/YY", nil).WithContext("input", s)
	}

	start, err := parseShortDate(parts[0])
	if err != nil {
		return "", "", errors.NewValidationError(errors.ErrCodeInvalidFormat, "invalid start date", err).
			WithContext("input", parts[0])
	}
	end, err := parseShortDate(parts[1])
	if err != nil {
		return "", "", errors.NewValidationError(errors.ErrCodeInvalidFormat, "invalid end date", err).
			WithContext("input", parts[1])
	}

	return start.Format(DateLayout), end.Format(DateLayout), nil
}

func parseShortDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range rangeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// ValidateRequest checks that the fields the evaluator cannot work without are present.
// Date syntax is deliberately left to Evaluate, which reports it as a violation.
func ValidateRequest(req types.LeaveRequest) error {
	missing := []string{}
	if strings.TrimSpace(req.EmployeeName) == "" {
		missing = append(missing, "employee_name")
	}
	if strings.TrimSpace(req.LeaveType) == "" {
		missing = append(missing, "leave_type")
	}
	if strings.TrimSpace(req.StartDate) == "" {
		missing = append(missing, "start_date")
	}
	if strings.TrimSpace(req.EndDate) == "" {
		missing = append(missing, "end_date")
	}
	if len(missing) > 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidLeave,
			fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")), nil).
			WithContext("missing", missing)
	}
	if req.AvailableBalance < 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidLeave,
			"available_balance must not be negative", nil).
			WithContext("available_balance", req.AvailableBalance)
	}
	return nil
}
