package config

import (
	"errors"
	"time"

	"learnhub/internal/gdpr"
	"learnhub/internal/security"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string

	JWTSecret    string
	JWTIssuer    string
	MFAJWTSecret string

	ResendAPIKey string
	EmailFrom    string
	AppBaseURL   string
	AlertEmailTo []string

	RedisURL        string
	KafkaBrokers    []string
	KafkaAlertTopic string

	SecurityLogDir string
	GDPRAuditDir   string

	Security security.Config
	GDPR     gdpr.Config

	LogLevel string
	LogFile  string

	CookieDomain string
	CookieSecure bool
}

// Load reads .env when present and builds the process configuration from
// the environment. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	defaults := security.DefaultConfig()
	t := defaults.Thresholds

	cfg := Config{
		DatabaseURL: GetEnv("DATABASE_URL", ""),
		HTTPAddr:    GetEnv("HTTP_ADDR", ":8080"),

		JWTSecret:    GetEnv("JWT_SECRET", ""),
		JWTIssuer:    GetEnv("JWT_ISSUER", "learnhub"),
		MFAJWTSecret: GetEnv("MFA_JWT_SECRET", ""),

		ResendAPIKey: GetEnv("RESEND_API_KEY", ""),
		EmailFrom:    GetEnv("EMAIL_FROM", ""),
		AppBaseURL:   GetEnv("APP_BASE_URL", ""),
		AlertEmailTo: GetEnvList("ALERT_EMAIL_TO"),

		RedisURL:        GetEnv("REDIS_URL", ""),
		KafkaBrokers:    GetEnvList("KAFKA_BROKERS"),
		KafkaAlertTopic: GetEnv("KAFKA_ALERT_TOPIC", "learnhub.security.alerts"),

		SecurityLogDir: GetEnv("SECURITY_LOG_DIR", "logs/security"),
		GDPRAuditDir:   GetEnv("GDPR_AUDIT_DIR", "logs/gdpr"),

		Security: security.Config{
			Thresholds: security.Thresholds{
				BruteForce: security.Threshold{
					Limit:  GetEnvInt("BRUTE_FORCE_LIMIT", t.BruteForce.Limit),
					Window: GetEnvDuration("BRUTE_FORCE_WINDOW", t.BruteForce.Window),
				},
				Suspicious: security.Threshold{
					Limit:  GetEnvInt("SUSPICIOUS_LIMIT", t.Suspicious.Limit),
					Window: GetEnvDuration("SUSPICIOUS_WINDOW", t.Suspicious.Window),
				},
				DataExport: security.Threshold{
					Limit:  GetEnvInt("DATA_EXPORT_LIMIT", t.DataExport.Limit),
					Window: GetEnvDuration("DATA_EXPORT_WINDOW", t.DataExport.Window),
				},
				AdminAction: security.Threshold{
					Limit:  GetEnvInt("ADMIN_ACTION_LIMIT", t.AdminAction.Limit),
					Window: GetEnvDuration("ADMIN_ACTION_WINDOW", t.AdminAction.Window),
				},
			},
			Retention:     GetEnvDuration("EVENT_RETENTION", defaults.Retention),
			SweepInterval: defaults.SweepInterval,
			BlockTTL:      GetEnvDuration("BLOCK_TTL", 0),
			NotifyTimeout: defaults.NotifyTimeout,
		},
		GDPR: gdpr.Config{
			ExportDir:     GetEnv("GDPR_EXPORT_DIR", "exports"),
			RetentionDays: GetEnvInt("EXPORT_RETENTION_DAYS", 30),
			MinExportAge:  GetEnvDuration("EXPORT_MIN_AGE", time.Hour),
		},

		LogLevel: GetEnv("LOG_LEVEL", "info"),
		LogFile:  GetEnv("LOG_FILE", ""),

		CookieDomain: GetEnv("COOKIE_DOMAIN", ""),
		CookieSecure: GetEnvBool("COOKIE_SECURE", true),
	}

	if cfg.MFAJWTSecret == "" {
		cfg.MFAJWTSecret = cfg.JWTSecret
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}
