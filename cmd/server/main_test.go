package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatdesk/internal/config"
	"seatdesk/internal/services"
)

func TestReadPassword_Piped(t *testing.T) {
	password, err := readPassword(strings.NewReader("s3cret\nignored\n"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)

	password, err = readPassword(strings.NewReader("crlf\r\n"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "crlf", password)

	_, err = readPassword(strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewNotifier_ByProvider(t *testing.T) {
	cfg := config.Config{EmailFromName: "Seatdesk", EmailFromAddress: "desk@example.com"}

	cfg.EmailProvider = "console"
	assert.IsType(t, &services.ConsoleNotifier{}, newNotifier(cfg))

	cfg.EmailProvider = "sendgrid"
	cfg.SendgridAPIKey = "SG.key"
	assert.IsType(t, &services.SendgridNotifier{}, newNotifier(cfg))

	cfg.EmailProvider = "brevo"
	cfg.BrevoAPIKey = "xkeysib"
	assert.IsType(t, &services.BrevoNotifier{}, newNotifier(cfg))
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "remind", "user"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	add, _, err := rootCmd.Find([]string{"user", "add"})
	require.NoError(t, err)
	assert.Equal(t, "add", add.Name())
	assert.NotNil(t, add.Flags().Lookup("permissions"))
}
