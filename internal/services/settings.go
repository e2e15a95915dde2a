package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"seatdesk/internal/store"
)

const (
	SettingTemplateID       = "brevo_template_id"
	SettingDaysBeforeExpiry = "days_before_expiration"
)

// SettingsInput is the PUT body. Absent keys are left untouched.
type SettingsInput struct {
	TemplateID       *string         `json:"brevo_template_id"`
	DaysBeforeExpiry json.RawMessage `json:"days_before_expiration"`
}

// ReminderSettings is the parsed form the reminder job needs.
type ReminderSettings struct {
	TemplateID       string
	DaysBeforeExpiry int
}

type SettingsService struct {
	store store.SettingStore
}

func NewSettingsService(st store.SettingStore) *SettingsService {
	return &SettingsService{store: st}
}

func (s *SettingsService) Get(ctx context.Context) (map[string]string, error) {
	return s.store.GetSettings(ctx)
}

func (s *SettingsService) Put(ctx context.Context, in SettingsInput) (map[string]string, error) {
	values := map[string]string{}
	if in.TemplateID != nil {
		values[SettingTemplateID] = strings.TrimSpace(*in.TemplateID)
	}
	if raw := bytes.TrimSpace(in.DaysBeforeExpiry); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		days, ok := positiveInt(raw)
		if !ok {
			return nil, ErrBadRequest("days_before_expiration must be a positive integer")
		}
		values[SettingDaysBeforeExpiry] = strconv.Itoa(days)
	}
	if len(values) == 0 {
		return nil, ErrBadRequest("No settings provided")
	}
	if err := s.store.PutSettings(ctx, values); err != nil {
		return nil, err
	}
	return s.store.GetSettings(ctx)
}

// Reminder reads the settings the reminder job depends on. ok is false
// when either is missing or invalid.
func (s *SettingsService) Reminder(ctx context.Context) (ReminderSettings, bool, error) {
	values, err := s.store.GetSettings(ctx)
	if err != nil {
		return ReminderSettings{}, false, err
	}
	templateID := strings.TrimSpace(values[SettingTemplateID])
	days, err := strconv.Atoi(strings.TrimSpace(values[SettingDaysBeforeExpiry]))
	if templateID == "" || err != nil || days < 1 {
		return ReminderSettings{}, false, nil
	}
	return ReminderSettings{TemplateID: templateID, DaysBeforeExpiry: days}, true, nil
}

// positiveInt accepts 7 or "7".
func positiveInt(raw json.RawMessage) (int, bool) {
	text := string(raw)
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
