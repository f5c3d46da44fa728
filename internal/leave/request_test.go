package leave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrassist/internal/errors"
	"hrassist/internal/types"
)

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		input     string
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{input: "20/08/25-22/08/25", wantStart: "2025-08-20", wantEnd: "2025-08-22"},
		{input: " 01/12/2025 - 03/12/2025 ", wantStart: "2025-12-01", wantEnd: "2025-12-03"},
		{input: "5/1/26-7/1/26", wantStart: "2026-01-05", wantEnd: "2026-01-07"},
		{input: "20/08/25", wantErr: true},
		{input: "2025-08-20-2025-08-22", wantErr: true},
		{input: "32/08/25-01/09/25", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			start, end, err := ParseDateRange(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	valid := types.LeaveRequest{
		EmployeeName: "Asha",
		LeaveType:    "casual",
		StartDate:    "2025-08-20",
		EndDate:      "2025-08-21",
	}
	assert.NoError(t, ValidateRequest(valid))

	missing := valid
	missing.EmployeeName = " "
	missing.EndDate = ""
	err := ValidateRequest(missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "employee_name, end_date")

	negative := valid
	negative.AvailableBalance = -1
	assert.Error(t, ValidateRequest(negative))
}
