// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/gurkanbulca/taskhub/pkg/email"
)

const (
	devJWTSecret = "dev-secret-change-in-production"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Email    EmailConfig    `mapstructure:"email"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Events   EventsConfig   `mapstructure:"events"`
}

type ServerConfig struct {
	HTTPPort         string        `mapstructure:"http_port"`
	GRPCPort         string        `mapstructure:"grpc_port"`
	Environment      string        `mapstructure:"environment"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
	EnableReflection bool          `mapstructure:"grpc_reflection"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"db_name"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	TokenDuration time.Duration `mapstructure:"token_duration"`
	CookieName    string        `mapstructure:"cookie_name"`
}

// AdminConfig guards admin self-registration.
type AdminConfig struct {
	Secret string `mapstructure:"secret"`
}

type EmailConfig struct {
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	FromEmail    string `mapstructure:"from_email"`
	FromName     string `mapstructure:"from_name"`
	AppName      string `mapstructure:"app_name"`
	SupportEmail string `mapstructure:"support_email"`
	TestingMode  bool   `mapstructure:"testing_mode"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type EventsConfig struct {
	Buffer int `mapstructure:"buffer"`
}

// envKeys maps config keys to the environment variables that set them.
var envKeys = map[string]string{
	"server.http_port":        "HTTP_PORT",
	"server.grpc_port":        "GRPC_PORT",
	"server.environment":      "ENVIRONMENT",
	"server.request_timeout":  "REQUEST_TIMEOUT",
	"server.shutdown_timeout": "SHUTDOWN_TIMEOUT",
	"server.grpc_reflection":  "GRPC_REFLECTION",
	"database.driver":         "DB_DRIVER",
	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASSWORD",
	"database.db_name":        "DB_NAME",
	"database.ssl_mode":       "DB_SSL_MODE",
	"database.max_open_conns": "DB_MAX_OPEN_CONNS",
	"database.auto_migrate":   "DB_AUTO_MIGRATE",
	"jwt.secret":              "JWT_SECRET",
	"jwt.token_duration":      "JWT_TOKEN_DURATION",
	"jwt.cookie_name":         "AUTH_COOKIE_NAME",
	"admin.secret":            "ADMIN_SECRET",
	"email.smtp_host":         "SMTP_HOST",
	"email.smtp_port":         "SMTP_PORT",
	"email.smtp_username":     "SMTP_USERNAME",
	"email.smtp_password":     "SMTP_PASSWORD",
	"email.from_email":        "EMAIL_FROM",
	"email.from_name":         "EMAIL_FROM_NAME",
	"email.app_name":          "EMAIL_APP_NAME",
	"email.support_email":     "EMAIL_SUPPORT",
	"email.testing_mode":      "EMAIL_TESTING_MODE",
	"logging.level":           "LOG_LEVEL",
	"events.buffer":           "EVENTS_BUFFER",
}

// Load reads .env (when present) and the process environment into a Config.
func Load() (*Config, error) {
	if envMap, err := godotenv.Read(); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.Environment = strings.ToLower(cfg.Server.Environment)
	cfg.Database.Driver = strings.ToLower(cfg.Database.Driver)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_port", "8080")
	v.SetDefault("server.grpc_port", "50051")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.request_timeout", 5*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.grpc_reflection", false)

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.db_name", "taskhub")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("jwt.secret", devJWTSecret)
	v.SetDefault("jwt.token_duration", 7*24*time.Hour)
	v.SetDefault("jwt.cookie_name", "Authtoken")

	v.SetDefault("admin.secret", "")

	v.SetDefault("email.smtp_host", "localhost")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.from_email", "noreply@taskhub.local")
	v.SetDefault("email.from_name", "TaskHub")
	v.SetDefault("email.app_name", "TaskHub")
	v.SetDefault("email.support_email", "support@taskhub.local")
	v.SetDefault("email.testing_mode", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("events.buffer", 64)
}

// ValidateConfig rejects settings the server cannot start with.
func (c *Config) ValidateConfig() error {
	if c.Server.HTTPPort == "" {
		return errors.New("HTTP_PORT is required")
	}
	if c.Server.GRPCPort == "" {
		return errors.New("GRPC_PORT is required")
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
			return errors.New("postgres host, user and database name are required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q: must be postgres or memory", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWT.Secret == devJWTSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWT.TokenDuration <= 0 {
		return errors.New("JWT_TOKEN_DURATION must be positive")
	}
	if c.Events.Buffer < 0 {
		return errors.New("EVENTS_BUFFER must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// ToEmailConfig converts to the email package configuration.
func (c *Config) ToEmailConfig() *email.Config {
	return &email.Config{
		SMTPHost:     c.Email.SMTPHost,
		SMTPPort:     c.Email.SMTPPort,
		SMTPUsername: c.Email.SMTPUsername,
		SMTPPassword: c.Email.SMTPPassword,
		FromEmail:    c.Email.FromEmail,
		FromName:     c.Email.FromName,
		AppName:      c.Email.AppName,
		SupportEmail: c.Email.SupportEmail,
	}
}
