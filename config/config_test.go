package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "s3cret", cfg.MFAJWTSecret)
	assert.Equal(t, 5, cfg.Security.Thresholds.BruteForce.Limit)
	assert.Equal(t, 15*time.Minute, cfg.Security.Thresholds.BruteForce.Window)
	assert.Equal(t, 20, cfg.Security.Thresholds.Suspicious.Limit)
	assert.Equal(t, 3, cfg.Security.Thresholds.DataExport.Limit)
	assert.Equal(t, 24*time.Hour, cfg.Security.Thresholds.DataExport.Window)
	assert.Equal(t, 10, cfg.Security.Thresholds.AdminAction.Limit)
	assert.Zero(t, cfg.Security.BlockTTL)
	assert.Equal(t, 30, cfg.GDPR.RetentionDays)
	assert.Equal(t, time.Hour, cfg.GDPR.MinExportAge)
	assert.True(t, cfg.CookieSecure)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("MFA_JWT_SECRET", "other")
	t.Setenv("BRUTE_FORCE_LIMIT", "3")
	t.Setenv("BRUTE_FORCE_WINDOW", "10m")
	t.Setenv("ADMIN_ACTION_LIMIT", "not-a-number")
	t.Setenv("BLOCK_TTL", "24h")
	t.Setenv("EXPORT_RETENTION_DAYS", "7")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("ALERT_EMAIL_TO", "sec@learnhub.io")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "other", cfg.MFAJWTSecret)
	assert.Equal(t, 3, cfg.Security.Thresholds.BruteForce.Limit)
	assert.Equal(t, 10*time.Minute, cfg.Security.Thresholds.BruteForce.Window)
	assert.Equal(t, 10, cfg.Security.Thresholds.AdminAction.Limit)
	assert.Equal(t, 24*time.Hour, cfg.Security.BlockTTL)
	assert.Equal(t, 7, cfg.GDPR.RetentionDays)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"sec@learnhub.io"}, cfg.AlertEmailTo)
	assert.False(t, cfg.CookieSecure)
}

func TestFromEnvRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := FromEnv()
	assert.EqualError(t, err, "JWT_SECRET is required")
}

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger(Config{LogLevel: "debug"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger = NewLogger(Config{LogLevel: "loud"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}
