package services

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendgridNotifier sends reminders through a SendGrid dynamic template.
type SendgridNotifier struct {
	key  string
	from *sgmail.Email
}

var _ Notifier = (*SendgridNotifier)(nil)

func NewSendgridNotifier(key, fromName, fromAddress string) *SendgridNotifier {
	return &SendgridNotifier{
		key:  key,
		from: sgmail.NewEmail(fromName, fromAddress),
	}
}

func (n *SendgridNotifier) prepare(reminder Reminder) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(reminder.To.Name, reminder.To.Address))
	for key, value := range reminder.Params {
		p.SetDynamicTemplateData(key, value)
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(n.from)
	m.SetTemplateID(reminder.TemplateID)
	m.AddPersonalizations(p)
	return m
}

func (n *SendgridNotifier) Send(ctx context.Context, reminder Reminder) error {
	req := sendgrid.GetRequest(n.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(n.prepare(reminder))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return errors.Wrap(err, "sendgrid send")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("sendgrid send: status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
