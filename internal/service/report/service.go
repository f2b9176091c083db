package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/report"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/xuri/excelize/v2"
)

const (
	detailSheet  = "Attendance"
	summarySheet = "Summary"
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var detailHeaders = []string{
	"Date", "Employee", "User ID", "Check In", "Check Out", "Status",
	"Late (min)", "Break (min)", "Sessions", "Work Hours", "Overtime Hours",
}

var summaryHeaders = []string{
	"Employee", "User ID", "Days Present", "Late Days", "Late (min)", "Work Hours", "Overtime Hours",
}

type ReportServiceImpl struct {
	attendanceService attendance.AttendanceService
	directory         employee.Directory
	location          *time.Location
}

func NewReportService(attendanceService attendance.AttendanceService, directory employee.Directory, location *time.Location) report.ReportService {
	if location == nil {
		location = time.Local
	}
	return &ReportServiceImpl{
		attendanceService: attendanceService,
		directory:         directory,
		location:          location,
	}
}

type employeeSummary struct {
	name        string
	userID      string
	daysPresent int
	lateDays    int
	lateMinutes int
	workHours   float64
	overtime    float64
}

// ExportMonthlyAttendance implements report.ReportService.
func (s *ReportServiceImpl) ExportMonthlyAttendance(ctx context.Context, req report.MonthlyAttendanceExportRequest) (report.Export, error) {
	if err := req.Validate(); err != nil {
		return report.Export{}, err
	}

	records, err := s.attendanceService.ListByMonth(ctx, req.Period())
	if err != nil {
		return report.Export{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", detailSheet); err != nil {
		return report.Export{}, fmt.Errorf("%w: %w", report.ErrExportFailed, err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return report.Export{}, fmt.Errorf("%w: %w", report.ErrExportFailed, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return report.Export{}, fmt.Errorf("%w: %w", report.ErrExportFailed, err)
	}

	names := make(map[string]string)
	summaries := make(map[string]*employeeSummary)

	if err := writeRow(f, detailSheet, 1, toCells(detailHeaders)); err != nil {
		return report.Export{}, err
	}
	for i, rec := range records {
		name := s.employeeName(ctx, names, rec.UserID)
		row := []interface{}{
			rec.Date.Format(timeutil.DateLayout),
			name,
			rec.UserID,
			s.clock(rec.CheckIn),
			s.clock(rec.CheckOut),
			string(rec.Status()),
			rec.LateMinutes,
			rec.BreakMinutes,
			rec.CheckInCount,
			rec.TotalWorkHours,
			rec.OvertimeHours,
		}
		if err := writeRow(f, detailSheet, i+2, row); err != nil {
			return report.Export{}, err
		}

		sum, ok := summaries[rec.UserID]
		if !ok {
			sum = &employeeSummary{name: name, userID: rec.UserID}
			summaries[rec.UserID] = sum
		}
		if rec.CheckIn != nil {
			sum.daysPresent++
		}
		if rec.IsLate {
			sum.lateDays++
			sum.lateMinutes += rec.LateMinutes
		}
		sum.workHours = timeutil.Round2(sum.workHours + rec.TotalWorkHours)
		sum.overtime = timeutil.Round2(sum.overtime + rec.OvertimeHours)
	}

	if err := writeRow(f, summarySheet, 1, toCells(summaryHeaders)); err != nil {
		return report.Export{}, err
	}
	ordered := make([]*employeeSummary, 0, len(summaries))
	for _, sum := range summaries {
		ordered = append(ordered, sum)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].name != ordered[j].name {
			return ordered[i].name < ordered[j].name
		}
		return ordered[i].userID < ordered[j].userID
	})
	for i, sum := range ordered {
		row := []interface{}{sum.name, sum.userID, sum.daysPresent, sum.lateDays, sum.lateMinutes, sum.workHours, sum.overtime}
		if err := writeRow(f, summarySheet, i+2, row); err != nil {
			return report.Export{}, err
		}
	}

	for _, sheet := range []struct {
		name    string
		columns int
	}{{detailSheet, len(detailHeaders)}, {summarySheet, len(summaryHeaders)}} {
		last, _ := excelize.ColumnNumberToName(sheet.columns)
		if err := f.SetCellStyle(sheet.name, "A1", last+"1", headerStyle); err != nil {
			return report.Export{}, fmt.Errorf("%w: %w", report.ErrExportFailed, err)
		}
		if err := f.SetColWidth(sheet.name, "A", last, 16); err != nil {
			return report.Export{}, fmt.Errorf("%w: %w", report.ErrExportFailed, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return report.Export{}, fmt.Errorf("%w: %w", report.ErrExportFailed, err)
	}

	slog.Info("attendance export generated", "month", req.Month, "records", len(records), "employees", len(ordered))
	return report.Export{
		FileName:    fmt.Sprintf("attendance-%s.xlsx", req.Month),
		ContentType: xlsxMIME,
		Content:     buf.Bytes(),
	}, nil
}

func (s *ReportServiceImpl) employeeName(ctx context.Context, cache map[string]string, userID string) string {
	if name, ok := cache[userID]; ok {
		return name
	}
	name := userID
	if emp, err := s.directory.GetByUserID(ctx, userID); err == nil && emp.FullName != "" {
		name = emp.FullName
	}
	cache[userID] = name
	return name
}

func (s *ReportServiceImpl) clock(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(s.location).Format("15:04")
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%w: %w", report.ErrExportFailed, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%w: %w", report.ErrExportFailed, err)
	}
	return nil
}
