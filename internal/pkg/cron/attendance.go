package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
)

const reminderBatchSize = 200

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	interval          time.Duration
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, interval time.Duration) *AttendanceJobs {
	if interval <= 0 {
		interval = time.Minute
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		interval:          interval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("dispatch_break_reminders", j.interval, j.DispatchBreakReminders)
}

// DispatchBreakReminders fires due break reminders in batches until none
// are left.
func (j *AttendanceJobs) DispatchBreakReminders(ctx context.Context) error {
	total := 0
	for {
		batch, err := j.attendanceService.DispatchDueReminders(ctx, reminderBatchSize)
		if err != nil {
			return fmt.Errorf("failed to dispatch break reminders: %w", err)
		}
		total += batch.Sent
		// skipped reminders still leave the queue, so a full batch means more may be due
		if batch.Processed < reminderBatchSize || ctx.Err() != nil {
			break
		}
	}

	if total > 0 {
		slog.Info("Cron: Break reminders sent", "count", total)
	}
	return nil
}
