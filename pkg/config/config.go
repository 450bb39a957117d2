package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Session       SessionConfig
	Confirmation  ConfirmationConfig
	PasswordReset PasswordResetConfig
	Mail          MailConfig
	Storage       StorageConfig
	Frontend      FrontendConfig
	RateLimit     RateLimitConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	BaseURL        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
}

// SessionConfig controls the per-client rolling session tokens.
type SessionConfig struct {
	ExpiryHours  int
	GraceSeconds int
}

// ConfirmationConfig controls the signed email-confirmation link tokens.
type ConfirmationConfig struct {
	Secret   string
	TTLHours int
}

type PasswordResetConfig struct {
	WindowHours int
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type StorageConfig struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// FrontendConfig holds the external URLs confirmation and password-reset
// links redirect to.
type FrontendConfig struct {
	ConfirmationURL  string
	PasswordResetURL string
}

type RateLimitConfig struct {
	Requests      int
	WindowSeconds int
}

func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (s *SessionConfig) Expiry() time.Duration {
	return time.Duration(s.ExpiryHours) * time.Hour
}

func (s *SessionConfig) Grace() time.Duration {
	return time.Duration(s.GraceSeconds) * time.Second
}

func (c *ConfirmationConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

func (p *PasswordResetConfig) Window() time.Duration {
	return time.Duration(p.WindowHours) * time.Hour
}

func (m *MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s *ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("SERVER_BASE_URL", "http://localhost:8080")
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", 5432)
	v.SetDefault("DATABASE_USER", "recipebox")
	v.SetDefault("DATABASE_PASSWORD", "recipebox_secret")
	v.SetDefault("DATABASE_NAME", "recipebox")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("SESSION_EXPIRY_HOURS", 24*14)
	v.SetDefault("SESSION_GRACE_SECONDS", 5)
	v.SetDefault("CONFIRMATION_SECRET", "change-me-in-production")
	v.SetDefault("CONFIRMATION_TTL_HOURS", 24)
	v.SetDefault("PASSWORD_RESET_WINDOW_HOURS", 4)
	v.SetDefault("MAIL_HOST", "localhost")
	v.SetDefault("MAIL_PORT", 1025)
	v.SetDefault("MAIL_USERNAME", "")
	v.SetDefault("MAIL_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "no-reply@recipe-box.example.com")
	v.SetDefault("STORAGE_BUCKET", "recipebox-images")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("FRONTEND_CONFIRMATION_URL", "http://localhost:3000/confirmed")
	v.SetDefault("FRONTEND_PASSWORD_RESET_URL", "http://localhost:3000/password-reset")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	// Load from .env file if present
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Host:           v.GetString("SERVER_HOST"),
			Port:           v.GetInt("SERVER_PORT"),
			Env:            v.GetString("SERVER_ENV"),
			BaseURL:        v.GetString("SERVER_BASE_URL"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DATABASE_HOST"),
			Port:     v.GetInt("DATABASE_PORT"),
			User:     v.GetString("DATABASE_USER"),
			Password: v.GetString("DATABASE_PASSWORD"),
			Name:     v.GetString("DATABASE_NAME"),
			SSLMode:  v.GetString("DATABASE_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		Session: SessionConfig{
			ExpiryHours:  v.GetInt("SESSION_EXPIRY_HOURS"),
			GraceSeconds: v.GetInt("SESSION_GRACE_SECONDS"),
		},
		Confirmation: ConfirmationConfig{
			Secret:   v.GetString("CONFIRMATION_SECRET"),
			TTLHours: v.GetInt("CONFIRMATION_TTL_HOURS"),
		},
		PasswordReset: PasswordResetConfig{
			WindowHours: v.GetInt("PASSWORD_RESET_WINDOW_HOURS"),
		},
		Mail: MailConfig{
			Host:     v.GetString("MAIL_HOST"),
			Port:     v.GetInt("MAIL_PORT"),
			Username: v.GetString("MAIL_USERNAME"),
			Password: v.GetString("MAIL_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
		},
		Storage: StorageConfig{
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
		},
		Frontend: FrontendConfig{
			ConfirmationURL:  v.GetString("FRONTEND_CONFIRMATION_URL"),
			PasswordResetURL: v.GetString("FRONTEND_PASSWORD_RESET_URL"),
		},
		RateLimit: RateLimitConfig{
			Requests:      v.GetInt("RATE_LIMIT_REQUESTS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	return cfg, nil
}
