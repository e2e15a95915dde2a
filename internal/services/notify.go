package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"sync"

	"seatdesk/internal/models"
)

// Reminder is one membership-expiry notice.
type Reminder struct {
	TemplateID string
	To         mail.Address
	Params     map[string]string
}

func ReminderFor(student models.Student, templateID string) Reminder {
	params := map[string]string{
		"name":           student.Name,
		"membership_end": student.MembershipEnd.String(),
	}
	if student.ShiftTitle.Valid {
		params["shift"] = student.ShiftTitle.String
	}
	if student.SeatNumber.Valid {
		params["seat_number"] = student.SeatNumber.String
	}
	return Reminder{
		TemplateID: templateID,
		To:         mail.Address{Name: student.Name, Address: student.Email.String},
		Params:     params,
	}
}

// Notifier delivers reminders. Send blocks until the provider accepted or
// rejected the message.
type Notifier interface {
	Send(ctx context.Context, reminder Reminder) error
}

// ConsoleNotifier logs reminders instead of sending them. Sent keeps a copy
// of everything it was asked to deliver.
type ConsoleNotifier struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []Reminder
}

var _ Notifier = (*ConsoleNotifier)(nil)

func NewConsoleNotifier(logger *slog.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{logger: logger}
}

func (n *ConsoleNotifier) Send(ctx context.Context, reminder Reminder) error {
	if reminder.To.Address == "" {
		return fmt.Errorf("reminder without recipient")
	}
	if n.logger != nil {
		n.logger.InfoContext(ctx, "reminder email",
			"to", reminder.To.String(),
			"template", reminder.TemplateID,
			"params", reminder.Params)
	}
	n.mu.Lock()
	n.sent = append(n.sent, reminder)
	n.mu.Unlock()
	return nil
}

func (n *ConsoleNotifier) Sent() []Reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Reminder(nil), n.sent...)
}
