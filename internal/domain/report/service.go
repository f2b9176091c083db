package report

import "context"

type ReportService interface {
	// ExportMonthlyAttendance renders every attendance record of the month as an xlsx workbook.
	ExportMonthlyAttendance(ctx context.Context, req MonthlyAttendanceExportRequest) (Export, error)
}
