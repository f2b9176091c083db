package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipientID = "0190a6f2-0000-7000-8000-0000000000e1"

func lateMessage() notification.Message {
	return notification.Message{
		RecipientID: recipientID,
		Type:        notification.TypeLateArrival,
		Title:       "Late check-in",
		Body:        "You checked in 20 minutes after office start.",
		Data:        map[string]interface{}{"late_minutes": 20},
	}
}

func TestInAppService_NotifyStoresAndStreams(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewNotificationRepository(memory.NewDB())
	hub := sse.NewHub()
	svc := NewNotificationService(repo, hub, Config{BatchSize: 10, FlushInterval: 10 * time.Millisecond, WorkerCount: 1, QueueSize: 10})
	defer svc.Stop()

	stream, cancel := svc.Subscribe(ctx, recipientID)
	defer cancel()

	require.NoError(t, svc.Notify(ctx, lateMessage()))

	select {
	case ev := <-stream:
		assert.Equal(t, "notification", ev.Event)
		assert.Equal(t, notification.TypeLateArrival, ev.Data.Type)
		assert.Equal(t, "Late check-in", ev.Data.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("no SSE event received")
	}

	list, err := svc.GetNotifications(ctx, recipientID, 1, 20, false)
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, 1, list.UnreadCount)
	assert.Equal(t, "You checked in 20 minutes after office start.", list.Notifications[0].Message)

	require.NoError(t, svc.MarkAsRead(ctx, recipientID, notification.MarkAsReadRequest{NotificationIDs: []string{list.Notifications[0].ID}}))
	count, err := svc.GetUnreadCount(ctx, recipientID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	err = svc.MarkAsRead(ctx, recipientID, notification.MarkAsReadRequest{})
	assert.Error(t, err)
}

func TestInAppService_StopFlushesQueue(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewNotificationRepository(memory.NewDB())
	svc := NewNotificationService(repo, sse.NewHub(), Config{BatchSize: 100, FlushInterval: time.Hour, WorkerCount: 2, QueueSize: 100})

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Notify(ctx, lateMessage()))
	}
	svc.Stop()
	svc.Stop()

	count, err := repo.GetUnreadCount(ctx, recipientID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestInAppService_Pagination(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewNotificationRepository(memory.NewDB())
	svc := NewNotificationService(repo, sse.NewHub(), Config{FlushInterval: time.Hour})
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Notify(ctx, lateMessage()))
	}
	svc.Stop()

	list, err := svc.GetNotifications(ctx, recipientID, 0, 1000, false)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.PageSize)
	assert.Equal(t, 3, list.Total)

	require.NoError(t, svc.MarkAllAsRead(ctx, recipientID))
	list, err = svc.GetNotifications(ctx, recipientID, 1, 20, true)
	require.NoError(t, err)
	assert.Empty(t, list.Notifications)
}

type recordingSink struct {
	mu       sync.Mutex
	messages []notification.Message
	err      error
}

func (s *recordingSink) Notify(ctx context.Context, msg notification.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func TestMultiSink(t *testing.T) {
	ok := &recordingSink{}
	broken := &recordingSink{err: errors.New("smtp down")}
	sink := NewMultiSink().Add("in_app", ok).Add("email", broken).Add("telegram", nil)

	err := sink.Notify(context.Background(), lateMessage())
	require.Error(t, err)
	assert.ErrorIs(t, err, notification.ErrDispatch)
	assert.Contains(t, err.Error(), "email: smtp down")
	assert.Equal(t, 1, ok.count())
	assert.Equal(t, 1, broken.count())

	assert.NoError(t, NewMultiSink().Add("in_app", ok).Notify(context.Background(), lateMessage()))
}

func TestAsyncDispatcher(t *testing.T) {
	sink := &recordingSink{}
	d := NewAsyncDispatcher(sink)

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 10; i++ {
		d.Dispatch(ctx, lateMessage())
	}
	cancel()
	d.Wait()
	assert.Equal(t, 10, sink.count())

	failing := NewAsyncDispatcher(&recordingSink{err: errors.New("boom")})
	failing.Dispatch(context.Background(), lateMessage())
	failing.Wait()
}

type fakeMailer struct {
	to, name, subject string
}

func (m *fakeMailer) SendNotification(to, recipientName, subject, title, body string) error {
	m.to, m.name, m.subject = to, recipientName, subject
	return nil
}

type fakeTelegram struct {
	chatID int64
	text   string
}

func (f *fakeTelegram) SendMessage(chatID int64, text string) error {
	f.chatID, f.text = chatID, text
	return nil
}

func TestChannelSinks(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	mail := "rina@example.com"
	chat := int64(777)
	db.SeedEmployees(
		employee.Employee{UserID: recipientID, FullName: "Rina", Role: user.RoleEmployee, Email: &mail, TelegramChatID: &chat},
		employee.Employee{UserID: "no-contact", FullName: "Dimas", Role: user.RoleEmployee},
	)
	directory := memory.NewEmployeeDirectory(db)

	mailer := &fakeMailer{}
	require.NoError(t, NewEmailSink(directory, mailer).Notify(ctx, lateMessage()))
	assert.Equal(t, "rina@example.com", mailer.to)
	assert.Equal(t, "Rina", mailer.name)
	assert.Equal(t, "[HRIS] Late check-in", mailer.subject)

	tg := &fakeTelegram{}
	require.NoError(t, NewTelegramSink(directory, tg).Notify(ctx, lateMessage()))
	assert.Equal(t, int64(777), tg.chatID)
	assert.Contains(t, tg.text, "Late check-in")

	skipped := &fakeMailer{}
	msg := lateMessage()
	msg.RecipientID = "no-contact"
	require.NoError(t, NewEmailSink(directory, skipped).Notify(ctx, msg))
	assert.Empty(t, skipped.to)

	msg.RecipientID = "unknown"
	require.NoError(t, NewTelegramSink(directory, &fakeTelegram{}).Notify(ctx, msg))
}
