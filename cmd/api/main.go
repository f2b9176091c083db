package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-timekeeping/internal/handler/http"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/email"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/telegram"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	attendanceService "github.com/cmlabs-hris/hris-timekeeping/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/hris-timekeeping/internal/service/leave"
	notificationService "github.com/cmlabs-hris/hris-timekeeping/internal/service/notification"
	reportService "github.com/cmlabs-hris/hris-timekeeping/internal/service/report"
	settingService "github.com/cmlabs-hris/hris-timekeeping/internal/service/setting"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logLevel := parseLogLevel(cfg.App.LogLevel)
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if err := run(cfg, logLevel); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logLevel slog.Level) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := timeutil.SystemClock()
	st, err := openStore(ctx, cfg.Store, cfg.DatabaseURL(), clock)
	if err != nil {
		return err
	}
	defer st.close()
	slog.Info("Store opened", "driver", cfg.Store.Driver)

	if cfg.Store.DirectorySeedFile != "" {
		if err := seedDirectory(ctx, st, cfg.Store.DirectorySeedFile); err != nil {
			return err
		}
	}

	policy, intent, err := attendanceService.NewPolicy(cfg.Attendance)
	if err != nil {
		return err
	}

	// Notification channels: in-app always, email and Telegram when configured
	notifCfg := notificationService.ConfigFrom(cfg.Notification)
	notifCfg.Clock = clock
	notifSvc := notificationService.NewNotificationService(st.notifications, sse.NewHub(), notifCfg)
	defer notifSvc.Stop()

	sink := notificationService.NewMultiSink().Add("in_app", notifSvc)
	if cfg.SMTP.Host != "" {
		mailer, err := email.NewEmailService(cfg.SMTP)
		if err != nil {
			return err
		}
		sink.Add("email", notificationService.NewEmailSink(st.directory, mailer))
	}
	bot, err := telegram.NewClient(cfg.Telegram)
	if err != nil {
		return err
	}
	if bot != nil {
		sink.Add("telegram", notificationService.NewTelegramSink(st.directory, bot))
	}
	dispatcher := notificationService.NewAsyncDispatcher(sink)
	defer dispatcher.Wait()

	settingSvc := settingService.NewSettingService(st.settings, cfg.Attendance.PermissionDefaultMinutes, clock)
	attendanceSvc := attendanceService.NewAttendanceService(
		st.tx,
		st.attendance,
		st.reminders,
		settingSvc,
		dispatcher,
		policy,
		intent,
		clock,
	)

	quotaSvc := leaveService.NewQuotaService(st.balances, st.directory, leaveService.NewQuotaCalculator(cfg.Leave))
	requestSvc := leaveService.NewRequestService(st.requests, quotaSvc, st.directory, dispatcher)
	leaveSvc := leaveService.NewLeaveService(st.tx, st.requests, st.directory, quotaSvc, requestSvc, policy.Location, clock)
	reportSvc := reportService.NewReportService(attendanceSvc, st.directory, policy.Location)

	scheduler := cron.NewScheduler()
	cron.NewAttendanceJobs(attendanceSvc, cfg.Cron.ReminderInterval).RegisterJobs(scheduler)
	scheduler.Start()
	defer scheduler.Stop()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{Env: cfg.App.Env, CORSOrigins: cfg.App.CORSOrigins, LogLevel: logLevel},
		JWTService,
		appHTTP.NewAuthHandler(JWTService),
		appHTTP.NewAttendanceHandler(attendanceSvc, reportSvc),
		appHTTP.NewLeaveHandler(leaveSvc),
		appHTTP.NewSettingHandler(settingSvc),
		appHTTP.NewNotificationHandler(notifSvc, JWTService),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
