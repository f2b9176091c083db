package report

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

// MonthlyAttendanceExportRequest selects the month to export.
type MonthlyAttendanceExportRequest struct {
	Month string `json:"month"` // YYYY-MM

	month time.Time
}

func (r *MonthlyAttendanceExportRequest) Validate() error {
	var errs validator.ValidationErrors
	m, ok := validator.IsValidMonth(r.Month)
	if !ok {
		errs.Add("month", "month must be in YYYY-MM format")
	}
	if err := errs.Err(); err != nil {
		return err
	}
	r.month = m
	return nil
}

// Period returns the first day of the requested month. Only meaningful after Validate.
func (r *MonthlyAttendanceExportRequest) Period() time.Time {
	return r.month
}

// Export is a rendered workbook ready to be streamed.
type Export struct {
	FileName    string
	ContentType string
	Content     []byte
}
