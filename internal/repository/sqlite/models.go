package sqlite

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

// Calendar days are stored as "2006-01-02" text so range filters compare lexically.

type attendanceModel struct {
	ID                    string     `gorm:"primaryKey"`
	UserID                string     `gorm:"not null;uniqueIndex:idx_attendance_user_date"`
	Date                  string     `gorm:"not null;uniqueIndex:idx_attendance_user_date;index"`
	CheckIn               *time.Time
	CheckOut              *time.Time
	BreakStart            *time.Time
	BreakEnd              *time.Time
	BreakType             *string
	BreakAllowanceMinutes int        `gorm:"not null;default:0"`
	IsLate                bool       `gorm:"not null;default:false"`
	LateMinutes           int        `gorm:"not null;default:0"`
	GracePeriodUsed       bool       `gorm:"not null;default:false"`
	CheckInCount          int        `gorm:"not null;default:0"`
	BreakMinutes          int        `gorm:"not null;default:0"`
	GrossWorkMinutes      int        `gorm:"not null;default:0"`
	TotalWorkHours        float64    `gorm:"not null;default:0"`
	OvertimeHours         float64    `gorm:"not null;default:0"`
	LateNotificationSent  bool       `gorm:"not null;default:false"`
	BreakReminderSent     bool       `gorm:"not null;default:false"`
	CreatedAt             time.Time  `gorm:"autoCreateTime"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime"`
}

func (attendanceModel) TableName() string { return "attendance_records" }

func attendanceFromDomain(a attendance.Attendance) attendanceModel {
	m := attendanceModel{
		ID:                    a.ID,
		UserID:                a.UserID,
		Date:                  a.Date.Format(timeutil.DateLayout),
		CheckIn:               a.CheckIn,
		CheckOut:              a.CheckOut,
		BreakStart:            a.BreakStart,
		BreakEnd:              a.BreakEnd,
		BreakAllowanceMinutes: a.BreakAllowanceMinutes,
		IsLate:                a.IsLate,
		LateMinutes:           a.LateMinutes,
		GracePeriodUsed:       a.GracePeriodUsed,
		CheckInCount:          a.CheckInCount,
		BreakMinutes:          a.BreakMinutes,
		GrossWorkMinutes:      a.GrossWorkMinutes,
		TotalWorkHours:        a.TotalWorkHours,
		OvertimeHours:         a.OvertimeHours,
		LateNotificationSent:  a.LateNotificationSent,
		BreakReminderSent:     a.BreakReminderSent,
		CreatedAt:             a.CreatedAt,
	}
	if a.BreakType != nil {
		bt := string(*a.BreakType)
		m.BreakType = &bt
	}
	return m
}

func (m attendanceModel) toDomain() attendance.Attendance {
	a := attendance.Attendance{
		ID:                    m.ID,
		UserID:                m.UserID,
		Date:                  parseDay(m.Date),
		CheckIn:               m.CheckIn,
		CheckOut:              m.CheckOut,
		BreakStart:            m.BreakStart,
		BreakEnd:              m.BreakEnd,
		BreakAllowanceMinutes: m.BreakAllowanceMinutes,
		IsLate:                m.IsLate,
		LateMinutes:           m.LateMinutes,
		GracePeriodUsed:       m.GracePeriodUsed,
		CheckInCount:          m.CheckInCount,
		BreakMinutes:          m.BreakMinutes,
		GrossWorkMinutes:      m.GrossWorkMinutes,
		TotalWorkHours:        m.TotalWorkHours,
		OvertimeHours:         m.OvertimeHours,
		LateNotificationSent:  m.LateNotificationSent,
		BreakReminderSent:     m.BreakReminderSent,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
	if m.BreakType != nil {
		bt := attendance.BreakType(*m.BreakType)
		a.BreakType = &bt
	}
	return a
}

type breakReminderModel struct {
	ID           string    `gorm:"primaryKey"`
	AttendanceID string    `gorm:"not null;index"`
	UserID       string    `gorm:"not null"`
	Date         string    `gorm:"not null"`
	BreakStart   time.Time `gorm:"not null"`
	BreakType    string    `gorm:"not null"`
	FireAt       time.Time `gorm:"not null;index"`
	Status       string    `gorm:"not null;default:'pending';index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ProcessedAt  *time.Time
}

func (breakReminderModel) TableName() string { return "break_reminders" }

func (m breakReminderModel) toDomain() attendance.BreakReminder {
	return attendance.BreakReminder{
		ID:           m.ID,
		AttendanceID: m.AttendanceID,
		UserID:       m.UserID,
		Date:         parseDay(m.Date),
		BreakStart:   m.BreakStart,
		BreakType:    attendance.BreakType(m.BreakType),
		FireAt:       m.FireAt,
		Status:       attendance.ReminderStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		ProcessedAt:  m.ProcessedAt,
	}
}

type leaveBalanceModel struct {
	UserID      string `gorm:"primaryKey"`
	LeaveYear   int    `gorm:"primaryKey;autoIncrement:false"`
	Casual      int    `gorm:"not null"`
	CasualUsed  int    `gorm:"not null;default:0"`
	Sick        int    `gorm:"not null"`
	SickUsed    int    `gorm:"not null;default:0"`
	YearJoined  int    `gorm:"not null"`
	LastUpdated time.Time
}

func (leaveBalanceModel) TableName() string { return "leave_balances" }

type leaveRequestModel struct {
	ID                string `gorm:"primaryKey"`
	UserID            string `gorm:"not null;index"`
	Type              string `gorm:"not null"`
	StartDate         string `gorm:"not null"`
	EndDate           string `gorm:"not null"`
	Days              int    `gorm:"not null"`
	LeaveYear         int    `gorm:"not null"`
	Reason            string `gorm:"not null"`
	Status            string `gorm:"not null;index"`
	ApprovedByManager bool   `gorm:"not null;default:false"`
	ApprovedByHR      bool   `gorm:"not null;default:false"`
	ApprovedByMD      bool   `gorm:"not null;default:false"`
	RejectionReason   *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (leaveRequestModel) TableName() string { return "leave_requests" }

func leaveRequestFromDomain(r leave.LeaveRequest) leaveRequestModel {
	return leaveRequestModel{
		ID:                r.ID,
		UserID:            r.UserID,
		Type:              string(r.Type),
		StartDate:         r.StartDate.Format(timeutil.DateLayout),
		EndDate:           r.EndDate.Format(timeutil.DateLayout),
		Days:              r.Days,
		LeaveYear:         r.LeaveYear,
		Reason:            r.Reason,
		Status:            string(r.Status),
		ApprovedByManager: r.ApprovedByManager,
		ApprovedByHR:      r.ApprovedByHR,
		ApprovedByMD:      r.ApprovedByMD,
		RejectionReason:   r.RejectionReason,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func (m leaveRequestModel) toDomain() leave.LeaveRequest {
	return leave.LeaveRequest{
		ID:                m.ID,
		UserID:            m.UserID,
		Type:              leave.LeaveType(m.Type),
		StartDate:         parseDay(m.StartDate),
		EndDate:           parseDay(m.EndDate),
		Days:              m.Days,
		LeaveYear:         m.LeaveYear,
		Reason:            m.Reason,
		Status:            leave.Status(m.Status),
		ApprovedByManager: m.ApprovedByManager,
		ApprovedByHR:      m.ApprovedByHR,
		ApprovedByMD:      m.ApprovedByMD,
		RejectionReason:   m.RejectionReason,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

type approvalHistoryModel struct {
	Seq        uint   `gorm:"primaryKey;autoIncrement"`
	ID         string `gorm:"not null;uniqueIndex"`
	RequestID  string `gorm:"not null;index"`
	FromStatus string
	ToStatus   string `gorm:"not null"`
	ActorID    string `gorm:"not null"`
	Comment    *string
	CreatedAt  time.Time
}

func (approvalHistoryModel) TableName() string { return "leave_approval_history" }

type settingModel struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (settingModel) TableName() string { return "system_settings" }

type notificationModel struct {
	ID          string                 `gorm:"primaryKey"`
	RecipientID string                 `gorm:"not null;index"`
	Type        string                 `gorm:"not null"`
	Title       string                 `gorm:"not null"`
	Message     string                 `gorm:"not null"`
	Data        map[string]interface{} `gorm:"serializer:json"`
	IsRead      bool                   `gorm:"not null;default:false"`
	ReadAt      *time.Time
	CreatedAt   time.Time
}

func (notificationModel) TableName() string { return "notifications" }

func (m notificationModel) toDomain() *notification.Notification {
	return &notification.Notification{
		ID:          m.ID,
		RecipientID: m.RecipientID,
		Type:        notification.NotificationType(m.Type),
		Title:       m.Title,
		Message:     m.Message,
		Data:        m.Data,
		IsRead:      m.IsRead,
		ReadAt:      m.ReadAt,
		CreatedAt:   m.CreatedAt,
	}
}

type employeeModel struct {
	UserID         string `gorm:"primaryKey"`
	FullName       string `gorm:"not null"`
	Email          *string
	ManagerID      *string `gorm:"index"`
	Role           string  `gorm:"not null;index"`
	JoinedAt       string  `gorm:"not null"`
	TelegramChatID *int64
}

func (employeeModel) TableName() string { return "employees" }

func (m employeeModel) toDomain() employee.Employee {
	return employee.Employee{
		UserID:         m.UserID,
		FullName:       m.FullName,
		Email:          m.Email,
		ManagerID:      m.ManagerID,
		Role:           user.Role(m.Role),
		JoinedAt:       parseDay(m.JoinedAt),
		TelegramChatID: m.TelegramChatID,
	}
}

func parseDay(s string) time.Time {
	t, _ := time.Parse(timeutil.DateLayout, s)
	return t
}
