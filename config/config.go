package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	StateDriverFile  = "file"
	StateDriverMySQL = "mysql"
)

// Config holds the settings for the client and for the development backend.
type Config struct {
	APIBaseURL       string `env:"REVIEW_API_URL,default=http://localhost:8000"`
	StateDriver      string `env:"REVIEW_STATE_DRIVER,default=file"`
	StateDir         string `env:"REVIEW_STATE_DIR,default=.reviewctl"`
	StateDSN         string `env:"REVIEW_STATE_DSN"`
	NotificationSync bool   `env:"REVIEW_NOTIFICATION_SYNC,default=false"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`
	LogFile   string `env:"LOG_FILE"`

	Server ServerConfig
	SMTP   SMTPConfig
}

// ServerConfig configures cmd/devserver.
type ServerConfig struct {
	Port                  string `env:"SERVER_PORT,default=8000"`
	GinMode               string `env:"GIN_MODE,default=debug"`
	JWTSecret             string `env:"JWT_SECRET,default=dev-secret-change-me"`
	JWTExpireHours        int    `env:"JWT_EXPIRE_HOURS,default=24"`
	LoginRatePerMinute    int    `env:"LOGIN_RATE_PER_MINUTE,default=10"`
	RegisterRatePerMinute int    `env:"REGISTER_RATE_PER_MINUTE,default=5"`
	MonitorToken          string `env:"MONITOR_TOKEN"`
}

type SMTPConfig struct {
	Host          string `env:"SMTP_HOST"`
	Port          int    `env:"SMTP_PORT,default=587"`
	User          string `env:"SMTP_USER"`
	Pass          string `env:"SMTP_PASS"`
	From          string `env:"SMTP_FROM"`
	SkipTLSVerify bool   `env:"SMTP_SKIP_TLS_VERIFY,default=false"`
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv decodes the process environment without touching .env files.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.APIBaseURL = strings.TrimSuffix(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.StateDriver = strings.ToLower(strings.TrimSpace(cfg.StateDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("config: REVIEW_API_URL is required")
	}
	switch c.StateDriver {
	case StateDriverFile:
		if c.StateDir == "" {
			return fmt.Errorf("config: REVIEW_STATE_DIR is required for the file state driver")
		}
	case StateDriverMySQL:
		if c.StateDSN == "" {
			return fmt.Errorf("config: REVIEW_STATE_DSN is required for the mysql state driver")
		}
	default:
		return fmt.Errorf("config: unknown REVIEW_STATE_DRIVER %q", c.StateDriver)
	}
	return nil
}
