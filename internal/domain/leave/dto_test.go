package leave

import (
	"testing"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitLeaveRequestValidate(t *testing.T) {
	req := SubmitLeaveRequest{Type: LeaveTypeCasual, StartDate: "2024-03-08", EndDate: "2024-03-11", Reason: "family"}
	require.NoError(t, req.Validate())
	start, end := req.Dates()
	assert.Equal(t, "2024-03-08", start.Format("2006-01-02"))
	assert.Equal(t, "2024-03-11", end.Format("2006-01-02"))

	bad := SubmitLeaveRequest{Type: "XL", StartDate: "2024-03-11", EndDate: "2024-03-08"}
	err := bad.Validate()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	m := verrs.ToMap()
	assert.Contains(t, m, "type")
	assert.Contains(t, m, "start_date")
	assert.Contains(t, m, "reason")
}

func TestDecideLeaveRequestValidate(t *testing.T) {
	req := DecideLeaveRequest{Status: " Approved "}
	require.NoError(t, req.Validate())
	assert.True(t, req.Approve())

	reject := DecideLeaveRequest{Status: "rejected"}
	assert.Error(t, reject.Validate())

	comment := "overlaps audit week"
	reject.Comment = &comment
	require.NoError(t, reject.Validate())
	assert.False(t, reject.Approve())
}

func TestUpdateLeaveStatusRequestValidate(t *testing.T) {
	assert.Error(t, (&UpdateLeaveStatusRequest{Status: StatusPendingManager}).Validate())
	assert.Error(t, (&UpdateLeaveStatusRequest{Status: "Done"}).Validate())
	assert.NoError(t, (&UpdateLeaveStatusRequest{Status: StatusApproved}).Validate())
}
