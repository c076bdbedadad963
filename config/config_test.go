package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MAIL_DRIVER", "")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("SMTP_SECURE", "")
	t.Setenv("SMTP_USER", "mailer@nexulsly.com")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("FROM_EMAIL", "hello@nexulsly.ca")
	t.Setenv("TEAM_EMAILS", "team@nexulsly.ca, sales@nexulsly.ca ,")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("STORAGE_TIMEOUT", "")
	t.Setenv("EMAIL_TIMEOUT", "")
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults and team list normalization", func(t *testing.T) {
		setBaseEnv(t)

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, MailDriverSMTP, cfg.MailDriver)
		assert.Equal(t, "smtp.office365.com", cfg.SMTPHost)
		assert.Equal(t, 587, cfg.SMTPPort)
		assert.False(t, cfg.SMTPSecure)
		assert.Equal(t, []string{"team@nexulsly.ca", "sales@nexulsly.ca"}, cfg.TeamEmails)
		assert.Equal(t, 5*time.Second, cfg.StorageTimeout)
		assert.Equal(t, 15*time.Second, cfg.EmailTimeout)
		assert.False(t, cfg.StorageEnabled())
	})

	t.Run("missing SMTP credentials fail fast", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("SMTP_USER", "")
		t.Setenv("SMTP_PASSWORD", "")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "SMTP_USER")
		assert.Contains(t, err.Error(), "SMTP_PASSWORD")
	})

	t.Run("malformed team address", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("TEAM_EMAILS", "team@nexulsly.ca,not-an-email")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not-an-email")
	})

	t.Run("empty team list", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("TEAM_EMAILS", " , ")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TEAM_EMAILS")
	})

	t.Run("missing from address", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("FROM_EMAIL", "")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "FROM_EMAIL")
	})

	t.Run("postmark driver needs tokens, not SMTP credentials", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("MAIL_DRIVER", "postmark")
		t.Setenv("SMTP_USER", "")
		t.Setenv("SMTP_PASSWORD", "")
		t.Setenv("POSTMARK_SERVER_TOKEN", "")
		t.Setenv("POSTMARK_ACCOUNT_TOKEN", "")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "POSTMARK_SERVER_TOKEN")

		t.Setenv("POSTMARK_SERVER_TOKEN", "server")
		t.Setenv("POSTMARK_ACCOUNT_TOKEN", "account")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, MailDriverPostmark, cfg.MailDriver)
	})

	t.Run("unknown mail driver", func(t *testing.T) {
		setBaseEnv(t)
		t.Setenv("MAIL_DRIVER", "carrier-pigeon")

		_, err := LoadConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "carrier-pigeon")
	})
}

func TestStorageDriver(t *testing.T) {
	tests := []struct {
		url    string
		driver string
	}{
		{"", StorageNone},
		{"postgres://u:p@localhost:5432/db", StoragePostgres},
		{"postgresql://u:p@localhost:5432/db", StoragePostgres},
		{"sqlite://contacts.db", StorageSQLite},
		{"file:contacts.db?cache=shared", StorageSQLite},
		{"mysql://nope", StorageNone},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := &Config{DatabaseURL: tt.url}
			assert.Equal(t, tt.driver, cfg.StorageDriver())
		})
	}

	cfg := &Config{DatabaseURL: "sqlite://data/contacts.db"}
	assert.Equal(t, "data/contacts.db", cfg.SQLiteDSN())
}

func TestValidateRejectsUnknownDatabaseScheme(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_URL", "mysql://nope")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
