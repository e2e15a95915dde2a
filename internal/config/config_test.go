package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/seatdesk")
	t.Setenv("SESSION_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "0 0 * * *", cfg.ReminderSpec)
	assert.Equal(t, "console", cfg.EmailProvider)
	assert.Equal(t, 30, cfg.ExpiringSoonDays)
	assert.Equal(t, "UTC", cfg.Location().String())
	assert.Nil(t, cfg.CorsOrigins)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SESSION_SECRET", "secret")

	_, err := Load()
	assert.EqualError(t, err, "missing env var: DATABASE_URL")
}

func TestLoad_ProviderNeedsKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/seatdesk")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("EMAIL_PROVIDER", "brevo")
	t.Setenv("BREVO_API_KEY", "")

	_, err := Load()
	assert.EqualError(t, err, "missing env var: BREVO_API_KEY")
}

func TestParseCSV(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, parseCSV(" http://a, ,http://b "))
	assert.Nil(t, parseCSV("  "))
}
