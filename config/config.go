package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"nexulsly-backend/pkg/validation"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Mail drivers
const (
	MailDriverSMTP     = "smtp"
	MailDriverPostmark = "postmark"
	MailDriverDev      = "dev"
)

// Storage drivers
const (
	StorageNone     = ""
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type Config struct {
	Port              string `env:"PORT" envDefault:"8080"`
	GinMode           string `env:"GIN_MODE" envDefault:"debug"`
	CORSAllowedOrigin string `env:"CORS_ALLOWED_ORIGIN" envDefault:"*"`
	SiteURL           string `env:"SITE_URL" envDefault:"https://nexulsly.com"`
	CompanyLocation   string `env:"COMPANY_LOCATION" envDefault:"Toronto, Ontario"`

	// Mail
	MailDriver           string   `env:"MAIL_DRIVER" envDefault:"smtp"`
	SMTPHost             string   `env:"SMTP_HOST" envDefault:"smtp.office365.com"`
	SMTPPort             int      `env:"SMTP_PORT" envDefault:"587"`
	SMTPSecure           bool     `env:"SMTP_SECURE" envDefault:"false"` // implicit TLS, usually port 465
	SMTPUser             string   `env:"SMTP_USER"`
	SMTPPassword         string   `env:"SMTP_PASSWORD"`
	PostmarkServerToken  string   `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string   `env:"POSTMARK_ACCOUNT_TOKEN"`
	MailDevDir           string   `env:"MAIL_DEV_DIR" envDefault:"tmp/mail"`
	FromEmail            string   `env:"FROM_EMAIL"`
	FromName             string   `env:"FROM_NAME" envDefault:"Nexulsly"`
	TeamEmails           []string `env:"TEAM_EMAILS" envSeparator:","`

	// Storage. Empty DATABASE_URL runs the service in email-only mode.
	DatabaseURL    string        `env:"DATABASE_URL"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"5s"`
	EmailTimeout   time.Duration `env:"EMAIL_TIMEOUT" envDefault:"15s"`

	// Redis backs the rate limiter; in-memory buckets are used without it
	RedisURL                  string `env:"REDIS_URL"`
	RedisPassword             string `env:"REDIS_PASSWORD"`
	RateLimitContactPerMinute int    `env:"RATE_LIMIT_CONTACT_PER_MINUTE" envDefault:"5"`
	RateLimitGlobalPerMinute  int    `env:"RATE_LIMIT_GLOBAL_PER_MINUTE" envDefault:"100"`

	// Admin listing is open when unset
	AdminJWTSecret string `env:"ADMIN_JWT_SECRET"`

	// Logging
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"50"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"28"`
}

func LoadConfig() (*Config, error) {
	// Only effective locally; a missing .env is fine in production
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		log.Println("WARNING: DATABASE_URL is missing. Contact submissions will not be persisted.")
	}
	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Rate limiting will use in-memory fallback.")
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.MailDriver = strings.ToLower(strings.TrimSpace(c.MailDriver))
	c.FromEmail = strings.TrimSpace(c.FromEmail)
	c.DatabaseURL = strings.TrimSpace(c.DatabaseURL)

	team := make([]string, 0, len(c.TeamEmails))
	for _, addr := range c.TeamEmails {
		if addr = strings.TrimSpace(addr); addr != "" {
			team = append(team, addr)
		}
	}
	c.TeamEmails = team
}

// Validate fails on anything that would make the service start in a broken or insecure state.
func (c *Config) Validate() error {
	var errs []error

	switch c.MailDriver {
	case MailDriverSMTP:
		if c.SMTPHost == "" {
			errs = append(errs, errors.New("SMTP_HOST is required"))
		}
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			errs = append(errs, fmt.Errorf("SMTP_PORT %d is out of range", c.SMTPPort))
		}
		var missing []string
		if c.SMTPUser == "" {
			missing = append(missing, "SMTP_USER")
		}
		if c.SMTPPassword == "" {
			missing = append(missing, "SMTP_PASSWORD")
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", ")))
		}
	case MailDriverPostmark:
		if c.PostmarkServerToken == "" || c.PostmarkAccountToken == "" {
			errs = append(errs, errors.New("POSTMARK_SERVER_TOKEN and POSTMARK_ACCOUNT_TOKEN are required for the postmark mail driver"))
		}
	case MailDriverDev:
		if c.MailDevDir == "" {
			errs = append(errs, errors.New("MAIL_DEV_DIR is required for the dev mail driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_DRIVER %q", c.MailDriver))
	}

	if c.FromEmail == "" {
		errs = append(errs, errors.New("FROM_EMAIL is required"))
	} else if !validation.IsEmail(c.FromEmail) {
		errs = append(errs, fmt.Errorf("FROM_EMAIL %q is not a valid email address", c.FromEmail))
	}

	if len(c.TeamEmails) == 0 {
		errs = append(errs, errors.New("TEAM_EMAILS must list at least one recipient"))
	}
	for _, addr := range c.TeamEmails {
		if !validation.IsEmail(addr) {
			errs = append(errs, fmt.Errorf("TEAM_EMAILS entry %q is not a valid email address", addr))
		}
	}

	if c.DatabaseURL != "" && c.StorageDriver() == StorageNone {
		errs = append(errs, errors.New("DATABASE_URL must start with postgres://, postgresql://, sqlite:// or file:"))
	}

	if c.StorageTimeout <= 0 {
		errs = append(errs, errors.New("STORAGE_TIMEOUT must be positive"))
	}
	if c.EmailTimeout <= 0 {
		errs = append(errs, errors.New("EMAIL_TIMEOUT must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// StorageDriver derives the contact store from the DATABASE_URL scheme.
func (c *Config) StorageDriver() string {
	switch {
	case c.DatabaseURL == "":
		return StorageNone
	case strings.HasPrefix(c.DatabaseURL, "postgres://"), strings.HasPrefix(c.DatabaseURL, "postgresql://"):
		return StoragePostgres
	case strings.HasPrefix(c.DatabaseURL, "sqlite://"), strings.HasPrefix(c.DatabaseURL, "file:"):
		return StorageSQLite
	default:
		return StorageNone
	}
}

// StorageEnabled reports whether submissions are persisted.
func (c *Config) StorageEnabled() bool {
	return c.StorageDriver() != StorageNone
}

// SQLiteDSN strips the sqlite:// scheme; file: URIs are passed through.
func (c *Config) SQLiteDSN() string {
	return strings.TrimPrefix(c.DatabaseURL, "sqlite://")
}

func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}
