package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Email drivers
const (
	EmailDriverLog      = "log"
	EmailDriverSMTP     = "smtp"
	EmailDriverSendGrid = "sendgrid"
)

// Meeting providers
const (
	MeetingProviderNone = "none"
	MeetingProviderZoom = "zoom"
)

// Config mirrors configs/config.yaml. Every leaf can be overridden by the
// environment variable in its env tag.
type Config struct {
	Server struct {
		Port        string `yaml:"port" env:"SERVER_PORT"`
		Mode        string `yaml:"mode" env:"SERVER_MODE"`
		BaseURL     string `yaml:"base_url" env:"SERVER_BASE_URL"`
		StoragePath string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
		AllowedMethods []string `yaml:"allowed_methods" env:"CORS_ALLOWED_METHODS"`
		AllowedHeaders []string `yaml:"allowed_headers" env:"CORS_ALLOWED_HEADERS"`
		MaxAge         string   `yaml:"max_age" env:"CORS_MAX_AGE"`
	} `yaml:"cors"`

	Email struct {
		Driver         string `yaml:"driver" env:"EMAIL_DRIVER"`
		FromAddress    string `yaml:"from_address" env:"EMAIL_FROM_ADDRESS"`
		FromName       string `yaml:"from_name" env:"EMAIL_FROM_NAME"`
		SMTPHost       string `yaml:"smtp_host" env:"SMTP_HOST"`
		SMTPPort       int    `yaml:"smtp_port" env:"SMTP_PORT"`
		SMTPUsername   string `yaml:"smtp_username" env:"SMTP_USERNAME"`
		SMTPPassword   string `yaml:"smtp_password" env:"SMTP_PASSWORD"`
		SMTPUseTLS     bool   `yaml:"smtp_use_tls" env:"SMTP_USE_TLS"`
		SendGridAPIKey string `yaml:"sendgrid_api_key" env:"SENDGRID_API_KEY"`
	} `yaml:"email"`

	Meeting struct {
		Provider     string `yaml:"provider" env:"MEETING_PROVIDER"`
		AccountID    string `yaml:"account_id" env:"ZOOM_ACCOUNT_ID"`
		ClientID     string `yaml:"client_id" env:"ZOOM_CLIENT_ID"`
		ClientSecret string `yaml:"client_secret" env:"ZOOM_CLIENT_SECRET"`
		SDKKey       string `yaml:"sdk_key" env:"ZOOM_SDK_KEY"`
		SDKSecret    string `yaml:"sdk_secret" env:"ZOOM_SDK_SECRET"`
		APIBaseURL   string `yaml:"api_base_url" env:"ZOOM_API_BASE_URL"`
		AuthURL      string `yaml:"auth_url" env:"ZOOM_AUTH_URL"`
		Timeout      string `yaml:"timeout" env:"MEETING_TIMEOUT"`
	} `yaml:"meeting"`

	Reminders struct {
		Enabled  bool   `yaml:"enabled" env:"REMINDERS_ENABLED"`
		Schedule string `yaml:"schedule" env:"REMINDERS_SCHEDULE"`
		Timezone string `yaml:"timezone" env:"REMINDERS_TIMEZONE"`
	} `yaml:"reminders"`
}

// LoadConfig loads configuration from a YAML file, optional dotenv files and
// environment variables, in that order of precedence (last wins). When no
// dotenv file is given ".env" in the working directory is tried.
func LoadConfig(configPath string, envFiles ...string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", configPath, err)
		}
		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadDotEnv populates the process environment from dotenv files. Variables
// already present in the environment are left untouched; missing files are skipped.
func loadDotEnv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.BaseURL = "http://localhost:8080"
	config.Server.StoragePath = "uploads"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "lms"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.AutoMigrate = true

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "psych-lms"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.CORS.AllowedOrigins = []string{"*"}
	config.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.CORS.AllowedHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.CORS.MaxAge = "12h"

	config.Email.Driver = EmailDriverLog
	config.Email.FromAddress = "no-reply@lms.local"
	config.Email.FromName = "Psychology Workshops"
	config.Email.SMTPPort = 587
	config.Email.SMTPUseTLS = true

	config.Meeting.Provider = MeetingProviderNone
	config.Meeting.APIBaseURL = "https://api.zoom.us/v2"
	config.Meeting.AuthURL = "https://zoom.us/oauth/token"
	config.Meeting.Timeout = "15s"

	config.Reminders.Enabled = false
	config.Reminders.Schedule = "0 9 * * *"
	config.Reminders.Timezone = "UTC"
}

// validateConfig reports every problem at once so a bad deployment can be
// fixed in one pass.
func validateConfig(config *Config) error {
	var errs []error
	fail := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if config.Database.Host == "" {
		fail("database host is required")
	}
	if config.JWT.Secret == "" {
		fail("JWT secret is required")
	}

	for _, d := range []struct{ name, value string }{
		{"JWT access token expiration", config.JWT.AccessTokenExpiration},
		{"JWT refresh token expiration", config.JWT.RefreshTokenExpiration},
		{"database conn max lifetime", config.Database.ConnMaxLifetime},
		{"CORS max age", config.CORS.MaxAge},
		{"meeting timeout", config.Meeting.Timeout},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			fail("invalid %s: %w", d.name, err)
		}
	}

	switch config.Email.Driver {
	case EmailDriverLog:
	case EmailDriverSMTP:
		if config.Email.SMTPHost == "" {
			fail("SMTP host is required for the smtp email driver")
		}
	case EmailDriverSendGrid:
		if config.Email.SendGridAPIKey == "" {
			fail("SendGrid API key is required for the sendgrid email driver")
		}
	default:
		fail("unknown email driver %q", config.Email.Driver)
	}

	switch config.Meeting.Provider {
	case MeetingProviderNone, "":
	case MeetingProviderZoom:
		if config.Meeting.AccountID == "" || config.Meeting.ClientID == "" || config.Meeting.ClientSecret == "" {
			fail("zoom account id, client id and client secret are required")
		}
	default:
		fail("unknown meeting provider %q", config.Meeting.Provider)
	}

	if config.Reminders.Enabled {
		if strings.TrimSpace(config.Reminders.Schedule) == "" {
			fail("reminder schedule is required when reminders are enabled")
		}
		if _, err := time.LoadLocation(config.Reminders.Timezone); err != nil {
			fail("invalid reminder timezone: %w", err)
		}
	}

	return errors.Join(errs...)
}

// GetPostgresConnectionString builds the pgx URL. sslmode defaults to disable.
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}

// GetEnv returns the variable, or defaultValue when it is unset.
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
