package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "accounts", cfg.DynamoTables.Accounts)
	assert.Equal(t, 3, cfg.Verification.MaxSends)
	assert.Equal(t, 3*time.Minute, cfg.Verification.Window)
	assert.Equal(t, 30*time.Second, cfg.Verification.MinInterval)
	assert.Equal(t, 10*time.Minute, cfg.Verification.CodeTTL)
	assert.Equal(t, 5*time.Second, cfg.Mail.SendTimeout)
	assert.Equal(t, "smtp", cfg.Mail.Secondary)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MAIL_PACING_MS", "50")
	t.Setenv("MAIL_SECONDARY", "Resend")
	t.Setenv("SMTP_SSL", "true")
	t.Setenv("VERIFY_MAX_SENDS", "not-a-number")

	cfg := Load()
	assert.Equal(t, 50*time.Millisecond, cfg.Mail.Pacing)
	assert.Equal(t, "resend", cfg.Mail.Secondary)
	assert.True(t, cfg.Mail.SMTPSSL)
	assert.Equal(t, 3, cfg.Verification.MaxSends)
}
