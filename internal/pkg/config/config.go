package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"

	"github.com/ManuelReschke/MemberPortal/internal/pkg/env"
)

// Config holds every runtime setting of the portal.
type Config struct {
	AppName string `env:"APP_NAME" envDefault:"Member Portal"`
	AppHost string `env:"APP_HOST" envDefault:"localhost"`
	AppPort int    `env:"APP_PORT" envDefault:"4000"`
	AppEnv  string `env:"APP_ENV" envDefault:"prod"`
	// PublicURL is used for links inside emails.
	PublicURL   string   `env:"PUBLIC_URL" envDefault:"http://localhost:4000"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"portal"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"portal"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBLogLevel string `env:"DB_LOG_LEVEL" envDefault:"warn"`

	CacheHost     string `env:"CACHE_HOST"`
	CachePort     int    `env:"CACHE_PORT" envDefault:"6379"`
	CachePassword string `env:"CACHE_PASSWORD"`

	SessionExpiration   time.Duration `env:"SESSION_EXPIRATION" envDefault:"24h"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`

	SMTPHost       string `env:"SMTP_HOST"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername   string `env:"SMTP_USERNAME"`
	SMTPPassword   string `env:"SMTP_PASSWORD"`
	SMTPSender     string `env:"SMTP_SENDER" envDefault:"noreply@localhost"`
	SMTPSenderName string `env:"SMTP_SENDER_NAME" envDefault:"Member Portal"`

	SMSAPIURL   string `env:"SMS_API_URL"`
	SMSUsername string `env:"SMS_USERNAME"`
	SMSPassword string `env:"SMS_PASSWORD"`
	SMSSender   string `env:"SMS_SENDER" envDefault:"10004346"`

	NotifyWorkers   int           `env:"NOTIFY_WORKERS" envDefault:"2"`
	NotifySendDelay time.Duration `env:"NOTIFY_SEND_DELAY" envDefault:"100ms"`

	SchedulerEnabled     bool   `env:"SCHEDULER_ENABLED" envDefault:"true"`
	ReminderSchedule     string `env:"REMINDER_SCHEDULE" envDefault:"0 9 * * *"`
	CounterFlushSchedule string `env:"COUNTER_FLUSH_SCHEDULE" envDefault:"@every 1m"`
	EventCloseSchedule   string `env:"EVENT_CLOSE_SCHEDULE" envDefault:"@every 5m"`
	LoginCleanupSchedule string `env:"LOGIN_CLEANUP_SCHEDULE" envDefault:"@every 10m"`

	APIRateLimit     int           `env:"API_RATE_LIMIT" envDefault:"300"`
	LoginRate        float64       `env:"LOGIN_RATE" envDefault:"0.2"`
	LoginBurst       int           `env:"LOGIN_BURST" envDefault:"10"`
	LoginMaxFailures int           `env:"LOGIN_MAX_FAILURES" envDefault:"5"`
	LoginLockout     time.Duration `env:"LOGIN_LOCKOUT" envDefault:"15m"`

	MetricsUser     string `env:"METRICS_USER" envDefault:"admin"`
	MetricsPassword string `env:"METRICS_PASSWORD"`

	SeedUsers bool `env:"SEED_USERS" envDefault:"false"`
}

// Load reads the configuration from the process environment and the .env file.
func Load() (*Config, error) {
	return LoadFrom(env.Merged())
}

// LoadFrom reads the configuration from the given variables only.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := cenv.ParseWithOptions(cfg, cenv.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres, mysql or sqlite, got %q", c.DBDriver))
	}
	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT out of range: %d", c.AppPort))
	}
	if c.NotifyWorkers <= 0 {
		errs = append(errs, errors.New("NOTIFY_WORKERS must be positive"))
	}
	if c.SessionExpiration <= 0 {
		errs = append(errs, errors.New("SESSION_EXPIRATION must be positive"))
	}
	if c.APIRateLimit <= 0 {
		errs = append(errs, errors.New("API_RATE_LIMIT must be positive"))
	}

	return errors.Join(errs...)
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.AppHost, c.AppPort)
}

// CacheEnabled reports whether a Redis compatible cache is configured.
func (c *Config) CacheEnabled() bool {
	return c.CacheHost != ""
}

func (c *Config) CacheAddr() string {
	return fmt.Sprintf("%s:%d", c.CacheHost, c.CachePort)
}

// MetricsEnabled reports whether /metrics should be mounted.
func (c *Config) MetricsEnabled() bool {
	return c.MetricsPassword != ""
}

func (c *Config) AllowedOrigins() string {
	return strings.Join(c.CORSOrigins, ",")
}
