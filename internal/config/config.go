package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Environment          string
	Port                 int
	DatabaseURL          string
	SessionSecret        string
	SessionName          string
	SessionTTLSeconds    int
	CookieSecure         bool
	CorsOrigins          []string
	MediaStoragePath     string
	MaxUploadBytes       int64
	ReminderSpec         string
	Timezone             string
	ExpiringSoonDays     int
	DashboardPushSeconds int
	EmailProvider        string
	EmailFromAddress     string
	EmailFromName        string
	SendgridAPIKey       string
	BrevoAPIKey          string
	RollbarToken         string
	LogDir               string
	LogRetentionDays     int
	LogLevel             string
	LogFormat            string
	DefaultAdminUsername string
	DefaultAdminPassword string
}

var defaults = map[string]interface{}{
	"ENVIRONMENT":            "development",
	"PORT":                   8080,
	"SESSION_NAME":           "seatdesk.sid",
	"SESSION_TTL_SECONDS":    86400,
	"COOKIE_SECURE":          false,
	"CORS_ORIGINS":           "",
	"MEDIA_STORAGE_PATH":     "storage/media",
	"MAX_UPLOAD_BYTES":       10 << 20,
	"REMINDER_CRON":          "0 0 * * *",
	"APP_TIMEZONE":           "UTC",
	"EXPIRING_SOON_DAYS":     30,
	"DASHBOARD_PUSH_SECONDS": 15,
	"EMAIL_PROVIDER":         "console",
	"EMAIL_FROM_ADDRESS":     "no-reply@seatdesk.local",
	"EMAIL_FROM_NAME":        "Seatdesk",
	"LOG_DIR":                "storage/logs",
	"LOG_RETENTION_DAYS":     7,
	"LOG_LEVEL":              "info",
	"LOG_FORMAT":             "text",
	"DEFAULT_ADMIN_USERNAME": "admin",
	"DEFAULT_ADMIN_PASSWORD": "admin",
}

// Load resolves the configuration from the process environment. Call
// godotenv.Load first when a .env file should be honoured.
func Load() (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Environment:          strings.TrimSpace(v.GetString("ENVIRONMENT")),
		Port:                 v.GetInt("PORT"),
		DatabaseURL:          strings.TrimSpace(v.GetString("DATABASE_URL")),
		SessionSecret:        strings.TrimSpace(v.GetString("SESSION_SECRET")),
		SessionName:          strings.TrimSpace(v.GetString("SESSION_NAME")),
		SessionTTLSeconds:    v.GetInt("SESSION_TTL_SECONDS"),
		CookieSecure:         v.GetBool("COOKIE_SECURE"),
		CorsOrigins:          parseCSV(v.GetString("CORS_ORIGINS")),
		MediaStoragePath:     v.GetString("MEDIA_STORAGE_PATH"),
		MaxUploadBytes:       v.GetInt64("MAX_UPLOAD_BYTES"),
		ReminderSpec:         strings.TrimSpace(v.GetString("REMINDER_CRON")),
		Timezone:             strings.TrimSpace(v.GetString("APP_TIMEZONE")),
		ExpiringSoonDays:     v.GetInt("EXPIRING_SOON_DAYS"),
		DashboardPushSeconds: v.GetInt("DASHBOARD_PUSH_SECONDS"),
		EmailProvider:        strings.ToLower(strings.TrimSpace(v.GetString("EMAIL_PROVIDER"))),
		EmailFromAddress:     v.GetString("EMAIL_FROM_ADDRESS"),
		EmailFromName:        v.GetString("EMAIL_FROM_NAME"),
		SendgridAPIKey:       v.GetString("SENDGRID_API_KEY"),
		BrevoAPIKey:          v.GetString("BREVO_API_KEY"),
		RollbarToken:         v.GetString("ROLLBAR_TOKEN"),
		LogDir:               v.GetString("LOG_DIR"),
		LogRetentionDays:     v.GetInt("LOG_RETENTION_DAYS"),
		LogLevel:             strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:            strings.ToLower(v.GetString("LOG_FORMAT")),
		DefaultAdminUsername: v.GetString("DEFAULT_ADMIN_USERNAME"),
		DefaultAdminPassword: v.GetString("DEFAULT_ADMIN_PASSWORD"),
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing env var: DATABASE_URL")
	}
	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("missing env var: SESSION_SECRET")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	switch cfg.EmailProvider {
	case "console":
	case "sendgrid":
		if cfg.SendgridAPIKey == "" {
			return Config{}, fmt.Errorf("missing env var: SENDGRID_API_KEY")
		}
	case "brevo":
		if cfg.BrevoAPIKey == "" {
			return Config{}, fmt.Errorf("missing env var: BREVO_API_KEY")
		}
	default:
		return Config{}, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
	if cfg.LogRetentionDays < 1 || cfg.LogRetentionDays > 7 {
		cfg.LogRetentionDays = 7
	}
	if cfg.ExpiringSoonDays < 1 {
		cfg.ExpiringSoonDays = 30
	}
	if cfg.DashboardPushSeconds < 1 {
		cfg.DashboardPushSeconds = 15
	}
	return cfg, nil
}

// Location returns the configured time zone used for calendar dates.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
