package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/email"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/telegram"
)

// EmailSink mails messages to the recipient's directory address.
type EmailSink struct {
	directory employee.Directory
	mailer    email.EmailService
}

func NewEmailSink(directory employee.Directory, mailer email.EmailService) *EmailSink {
	return &EmailSink{directory: directory, mailer: mailer}
}

// Notify implements notification.Sink.
func (s *EmailSink) Notify(ctx context.Context, msg notification.Message) error {
	emp, err := lookupRecipient(ctx, s.directory, msg.RecipientID)
	if err != nil || emp == nil {
		return err
	}
	if emp.Email == nil || *emp.Email == "" {
		return nil
	}
	return s.mailer.SendNotification(*emp.Email, emp.FullName, "[HRIS] "+msg.Title, msg.Title, msg.Body)
}

// TelegramSink posts messages to the recipient's linked chat.
type TelegramSink struct {
	directory employee.Directory
	sender    telegram.Sender
}

func NewTelegramSink(directory employee.Directory, sender telegram.Sender) *TelegramSink {
	return &TelegramSink{directory: directory, sender: sender}
}

// Notify implements notification.Sink.
func (s *TelegramSink) Notify(ctx context.Context, msg notification.Message) error {
	emp, err := lookupRecipient(ctx, s.directory, msg.RecipientID)
	if err != nil || emp == nil {
		return err
	}
	if emp.TelegramChatID == nil {
		return nil
	}
	return s.sender.SendMessage(*emp.TelegramChatID, msg.Title+"\n\n"+msg.Body)
}

// lookupRecipient returns nil, nil for recipients missing from the directory.
func lookupRecipient(ctx context.Context, directory employee.Directory, userID string) (*employee.Employee, error) {
	emp, err := directory.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			slog.Debug("Notification recipient not in directory", "user_id", userID)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up recipient: %w", err)
	}
	return &emp, nil
}
