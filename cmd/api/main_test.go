package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"nexulsly-backend/config"
	"nexulsly-backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_StartupFailureReturnsAndFlushesLog(t *testing.T) {
	previous := logger.Log
	t.Cleanup(func() { logger.Log = previous })

	dir := t.TempDir()
	logFile := filepath.Join(dir, "api.log")

	cfg := &config.Config{
		Port:         "0",
		GinMode:      "test",
		MailDriver:   config.MailDriverDev,
		MailDevDir:   filepath.Join(dir, "mail"),
		DatabaseURL:  "sqlite://" + filepath.Join(dir, "missing", "contacts.db"),
		EmailTimeout: time.Second,
		LogLevel:     "info",
		LogFile:      logFile,
		LogMaxSizeMB: 1,
	}

	err := run(cfg)
	require.Error(t, err)

	contents, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "Failed to open contact storage")
}
