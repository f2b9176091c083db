package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/config"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/memory"
	attendanceService "github.com/cmlabs-hris/hris-timekeeping/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/hris-timekeeping/internal/service/leave"
	notificationService "github.com/cmlabs-hris/hris-timekeeping/internal/service/notification"
	reportService "github.com/cmlabs-hris/hris-timekeeping/internal/service/report"
	settingService "github.com/cmlabs-hris/hris-timekeeping/internal/service/setting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	employeeID = "0190a6f2-0000-7000-8000-0000000000e1"
	managerID  = "0190a6f2-0000-7000-8000-0000000000a1"
	adminID    = "0190a6f2-0000-7000-8000-0000000000d1"
)

type discardDispatcher struct{}

func (discardDispatcher) Dispatch(context.Context, notification.Message) {}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	handler http.Handler
	jwt     jwt.Service
	clock   *timeutil.ManualClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := memory.NewDB()
	mgr := managerID
	joined := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	db.SeedEmployees(
		employee.Employee{UserID: employeeID, FullName: "Rina", Role: user.RoleEmployee, ManagerID: &mgr, JoinedAt: joined},
		employee.Employee{UserID: managerID, FullName: "Sari", Role: user.RoleManager, JoinedAt: joined},
		employee.Employee{UserID: adminID, FullName: "Admin", Role: user.RoleAdmin, JoinedAt: joined},
	)

	clock := timeutil.NewManualClock(time.Date(2024, 5, 6, 8, 55, 0, 0, time.UTC))
	tx := memory.NewTransactor(db)
	directory := memory.NewEmployeeDirectory(db)

	settings := settingService.NewSettingService(memory.NewSettingRepository(db), 30, clock)
	policy := attendance.DefaultPolicy()
	policy.Location = time.UTC
	intent := attendance.LunchWindowPolicy{Location: time.UTC, From: 12 * 60, To: 15 * 60}
	attendanceSvc := attendanceService.NewAttendanceService(tx,
		memory.NewAttendanceRepository(db), memory.NewBreakReminderRepository(db),
		settings, discardDispatcher{}, policy, intent, clock)

	requests := memory.NewLeaveRequestRepository(db)
	quota := leaveService.NewQuotaService(memory.NewLeaveBalanceRepository(db), directory,
		leaveService.NewQuotaCalculator(config.LeaveConfig{CasualEntitlement: 12, SickEntitlement: 12}))
	leaveSvc := leaveService.NewLeaveService(tx, requests, directory, quota,
		leaveService.NewRequestService(requests, quota, directory, discardDispatcher{}), time.UTC, clock)

	notifSvc := notificationService.NewNotificationService(memory.NewNotificationRepository(db), sse.NewHub(), notificationService.Config{})
	t.Cleanup(notifSvc.Stop)

	jwtSvc := jwt.NewJWTService("test-secret", "15m")
	router := NewRouter(
		RouterOptions{Env: "test", CORSOrigins: []string{"http://localhost:3000"}, LogLevel: slog.LevelError},
		jwtSvc,
		NewAuthHandler(jwtSvc),
		NewAttendanceHandler(attendanceSvc, reportService.NewReportService(attendanceSvc, directory, time.UTC)),
		NewLeaveHandler(leaveSvc),
		NewSettingHandler(settings),
		NewNotificationHandler(notifSvc, jwtSvc),
	)
	return &testServer{handler: router, jwt: jwtSvc, clock: clock}
}

func (s *testServer) do(t *testing.T, method, path string, as user.Principal, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as.UserID != "" {
		token, _, err := s.jwt.GenerateAccessToken(as.UserID, as.Role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

var (
	asEmployee = user.Principal{UserID: employeeID, Role: user.RoleEmployee}
	asManager  = user.Principal{UserID: managerID, Role: user.RoleManager}
	asAdmin    = user.Principal{UserID: adminID, Role: user.RoleAdmin}
)

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodPost, "/api/v1/attendance/check-in", user.Principal{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RejectsRevokedToken(t *testing.T) {
	s := newTestServer(t)
	token, _, err := s.jwt.GenerateAccessToken(employeeID, user.RoleEmployee)
	require.NoError(t, err)
	s.jwt.RevokeToken(token)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance/today", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRoutes_LogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token, _, err := s.jwt.GenerateAccessToken(employeeID, user.RoleEmployee)
	require.NoError(t, err)

	send := func(method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, send(http.MethodGet, "/api/v1/attendance/today").Code)
	require.Equal(t, http.StatusOK, send(http.MethodPost, "/api/v1/auth/logout").Code)
	assert.True(t, s.jwt.IsTokenRevoked(token))

	assert.Equal(t, http.StatusUnauthorized, send(http.MethodGet, "/api/v1/attendance/today").Code)
	assert.Equal(t, http.StatusUnauthorized, send(http.MethodPost, "/api/v1/auth/logout").Code)
}

func TestAuthRoutes_LogoutRequiresToken(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodPost, "/api/v1/auth/logout", user.Principal{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttendanceRoutes_DayCycle(t *testing.T) {
	s := newTestServer(t)
	s.clock.Set(time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC))

	rec, env := s.do(t, http.MethodPost, "/api/v1/attendance/check-in", asEmployee, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var checkedIn attendance.AttendanceResponse
	require.NoError(t, json.Unmarshal(env.Data, &checkedIn))
	assert.Equal(t, attendance.StateWorking, checkedIn.State)
	assert.False(t, checkedIn.IsLate)

	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/check-in", asEmployee, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ALREADY_CHECKED_IN", env.Error.Code)

	// 10:30 is outside the lunch window, so a bare checkout needs an intent
	s.clock.Set(time.Date(2024, 5, 6, 10, 30, 0, 0, time.UTC))
	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/check-out", asEmployee, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, env.Error.Details, "checkout_type")

	s.clock.Set(time.Date(2024, 5, 6, 12, 30, 0, 0, time.UTC))
	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/check-out", asEmployee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Break started", env.Message)

	rec, env = s.do(t, http.MethodGet, "/api/v1/attendance/today", asEmployee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var today attendance.TodayResponse
	require.NoError(t, json.Unmarshal(env.Data, &today))
	assert.Equal(t, attendance.StateOnBreak, today.State)
	require.NotNil(t, today.BreakRemainingMinutes)
	assert.Equal(t, 60, *today.BreakRemainingMinutes)

	s.clock.Set(time.Date(2024, 5, 6, 13, 30, 0, 0, time.UTC))
	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/check-out", asEmployee, map[string]string{"checkout_type": "FINAL"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Resumed from break", env.Message)

	s.clock.Set(time.Date(2024, 5, 6, 18, 0, 0, 0, time.UTC))
	rec, env = s.do(t, http.MethodPost, "/api/v1/attendance/check-out", asEmployee, map[string]string{"checkout_type": "FINAL"})
	require.Equal(t, http.StatusOK, rec.Code)
	var done attendance.AttendanceResponse
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.Equal(t, attendance.StateCompleted, done.State)
	assert.Equal(t, 60, done.BreakMinutes)
	assert.InDelta(t, 8.0, done.TotalWorkHours, 0.001)

	rec, env = s.do(t, http.MethodGet, "/api/v1/attendance/my?start_date=2024-05-01&end_date=2024-05-31", asEmployee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []attendance.AttendanceResponse
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Len(t, history, 1)
}

func TestAttendanceRoutes_BadBody(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/attendance/check-in", asEmployee, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-out", bytes.NewBufferString("{not json"))
	token, _, err := s.jwt.GenerateAccessToken(employeeID, user.RoleEmployee)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttendanceRoutes_Export(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/v1/attendance/check-in", asEmployee, nil)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/attendance/export?month=2024-05", asEmployee, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/export?month=2024-05", asManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance-2024-05.xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())

	rec, _ = s.do(t, http.MethodGet, "/api/v1/attendance/export?month=May", asManager, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLeaveRoutes_SubmitAndDecide(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/leave/requests", asEmployee, map[string]string{
		"type": "CL", "start_date": "2024-05-13", "end_date": "2024-05-15", "reason": "family event",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var submitted struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Days   int    `json:"days"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &submitted))
	assert.Equal(t, "PendingManager", submitted.Status)
	assert.Equal(t, 3, submitted.Days)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/leave/requests/"+submitted.ID+"/decision", asEmployee, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/leave/requests/pending", asManager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, submitted.ID, pending[0].ID)

	rec, env = s.do(t, http.MethodPost, "/api/v1/leave/requests/"+submitted.ID+"/decision", asManager, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, rec.Code)
	var decided struct {
		Status            string `json:"status"`
		ApprovedByManager bool   `json:"approved_by_manager"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &decided))
	assert.Equal(t, "PendingHR", decided.Status)
	assert.True(t, decided.ApprovedByManager)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/leave/requests/"+submitted.ID+"/status", asManager, map[string]string{"status": "Approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/leave/requests/"+submitted.ID+"/status", asAdmin, map[string]string{"status": "Approved"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/leave/balance", asEmployee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance struct {
		Casual struct {
			Used      int `json:"used"`
			Remaining int `json:"remaining"`
		} `json:"casual"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &balance))
	assert.Equal(t, 3, balance.Casual.Used)
	assert.Equal(t, 9, balance.Casual.Remaining)

	rec, env = s.do(t, http.MethodPost, "/api/v1/leave/requests/"+submitted.ID+"/decision", asManager, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "LEAVE_ALREADY_DECIDED", env.Error.Code)
}

func TestLeaveRoutes_InsufficientBalance(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodPost, "/api/v1/leave/requests", asEmployee, map[string]string{
		"type": "CL", "start_date": "2024-05-01", "end_date": "2024-05-31", "reason": "long trip",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INSUFFICIENT_BALANCE", env.Error.Code)
	assert.Equal(t, "12", env.Error.Details["available"])
	assert.Equal(t, "23", env.Error.Details["requested"])
}

func TestSettingRoutes_AdminOnly(t *testing.T) {
	s := newTestServer(t)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/settings/permission-default", asEmployee, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := s.do(t, http.MethodGet, "/api/v1/settings/permission-default", asAdmin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"minutes":30}`, string(env.Data))

	rec, _ = s.do(t, http.MethodPut, "/api/v1/settings/permission-default", asAdmin, map[string]int{"minutes": 0})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, env = s.do(t, http.MethodPut, "/api/v1/settings/permission-default", asAdmin, map[string]int{"minutes": 45})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated struct {
		Minutes int `json:"minutes"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 45, updated.Minutes)
}

func TestNotificationRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", asEmployee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread_count":0}`, string(env.Data))

	rec, _ = s.do(t, http.MethodPost, "/api/v1/notifications/read", asEmployee, map[string][]string{"notification_ids": {}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/api/v1/notifications/sse-token", asEmployee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var token notification.SSETokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &token))
	assert.NotEmpty(t, token.Token)

	userID, err := s.jwt.ValidateSSEToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, employeeID, userID)
}

func TestNotificationStream_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream?token=garbage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
