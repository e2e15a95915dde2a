package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
)

const brevoSendURL = "https://api.brevo.com/v3/smtp/email"

// BrevoNotifier sends reminders through a Brevo transactional template.
type BrevoNotifier struct {
	key  string
	from brevoContact
	url  string
}

var _ Notifier = (*BrevoNotifier)(nil)

type brevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoMessage struct {
	TemplateID int               `json:"templateId"`
	Sender     brevoContact      `json:"sender"`
	To         []brevoContact    `json:"to"`
	Params     map[string]string `json:"params,omitempty"`
}

func NewBrevoNotifier(key, fromName, fromAddress string) *BrevoNotifier {
	return &BrevoNotifier{
		key:  key,
		from: brevoContact{Email: fromAddress, Name: fromName},
		url:  brevoSendURL,
	}
}

func (n *BrevoNotifier) Send(ctx context.Context, reminder Reminder) error {
	templateID, err := strconv.Atoi(reminder.TemplateID)
	if err != nil {
		return errors.Errorf("brevo template id %q is not numeric", reminder.TemplateID)
	}
	body, err := json.Marshal(brevoMessage{
		TemplateID: templateID,
		Sender:     n.from,
		To:         []brevoContact{{Email: reminder.To.Address, Name: reminder.To.Name}},
		Params:     reminder.Params,
	})
	if err != nil {
		return errors.Wrap(err, "encode brevo message")
	}
	req := rest.Request{
		Method:  rest.Post,
		BaseURL: n.url,
		Headers: map[string]string{
			"api-key":      n.key,
			"Accept":       "application/json",
			"Content-Type": "application/json",
		},
		Body: body,
	}
	res, err := rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "brevo send")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("brevo send: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
