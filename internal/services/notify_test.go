package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"seatdesk/internal/models"
)

type capturedRequest struct {
	path    string
	headers http.Header
	body    map[string]interface{}
}

func captureServer(t *testing.T, status int) (*httptest.Server, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		got.path = r.URL.Path
		got.headers = r.Header.Clone()
		require.NoError(t, json.Unmarshal(raw, &got.body))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(ts.Close)
	return ts, got
}

func reminderStudent() models.Student {
	return models.Student{
		Name:          "Ravi",
		Email:         null.StringFrom("ravi@example.com"),
		MembershipEnd: *datePtr("2026-03-08"),
		ShiftTitle:    null.StringFrom("Morning"),
		SeatNumber:    null.StringFrom("12"),
	}
}

func TestReminderFor(t *testing.T) {
	r := ReminderFor(reminderStudent(), "42")
	assert.Equal(t, "42", r.TemplateID)
	assert.Equal(t, "ravi@example.com", r.To.Address)
	assert.Equal(t, map[string]string{
		"name":           "Ravi",
		"membership_end": "2026-03-08",
		"shift":          "Morning",
		"seat_number":    "12",
	}, r.Params)

	bare := reminderStudent()
	bare.ShiftTitle = null.String{}
	bare.SeatNumber = null.String{}
	assert.NotContains(t, ReminderFor(bare, "42").Params, "shift")
}

func TestConsoleNotifier(t *testing.T) {
	n := NewConsoleNotifier(nil)
	require.NoError(t, n.Send(context.Background(), ReminderFor(reminderStudent(), "42")))
	assert.Error(t, n.Send(context.Background(), Reminder{TemplateID: "42"}))
	require.Len(t, n.Sent(), 1)
	assert.Equal(t, "Ravi", n.Sent()[0].Params["name"])
}

func TestBrevoNotifier_Send(t *testing.T) {
	ts, got := captureServer(t, http.StatusCreated)
	n := NewBrevoNotifier("xkeysib-test", "Seatdesk", "desk@example.com")
	n.url = ts.URL + "/v3/smtp/email"

	require.NoError(t, n.Send(context.Background(), ReminderFor(reminderStudent(), "7")))
	assert.Equal(t, "/v3/smtp/email", got.path)
	assert.Equal(t, "xkeysib-test", got.headers.Get("api-key"))
	assert.Equal(t, 7.0, got.body["templateId"])
	assert.Equal(t, []interface{}{map[string]interface{}{"email": "ravi@example.com", "name": "Ravi"}}, got.body["to"])
	assert.Equal(t, "Morning", got.body["params"].(map[string]interface{})["shift"])

	assert.Error(t, n.Send(context.Background(), ReminderFor(reminderStudent(), "welcome")))
}

func TestBrevoNotifier_RejectedByProvider(t *testing.T) {
	ts, _ := captureServer(t, http.StatusBadRequest)
	n := NewBrevoNotifier("key", "Seatdesk", "desk@example.com")
	n.url = ts.URL

	err := n.Send(context.Background(), ReminderFor(reminderStudent(), "7"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestSendgridNotifier_Send(t *testing.T) {
	ts, got := captureServer(t, http.StatusAccepted)
	host := sendgridHost
	sendgridHost = ts.URL
	t.Cleanup(func() { sendgridHost = host })

	n := NewSendgridNotifier("SG.test", "Seatdesk", "desk@example.com")
	require.NoError(t, n.Send(context.Background(), ReminderFor(reminderStudent(), "d-123")))

	assert.Equal(t, "/v3/mail/send", got.path)
	assert.Equal(t, "Bearer SG.test", got.headers.Get("Authorization"))
	assert.Equal(t, "d-123", got.body["template_id"])
	personalization := got.body["personalizations"].([]interface{})[0].(map[string]interface{})
	data := personalization["dynamic_template_data"].(map[string]interface{})
	assert.Equal(t, "2026-03-08", data["membership_end"])
}
