package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Mail transports.
const (
	MailTransportSES  = "ses"
	MailTransportSMTP = "smtp"
	MailTransportLog  = "log"
)

// MailConfig holds the transactional email settings.
type MailConfig struct {
	Transport    string
	From         string
	AWSRegion    string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MaxPerSecond float64
}

// RateLimitConfig is the global fixed window applied to every route.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// Config holds the application configuration. It is built once in main and
// handed to the components that need it.
type Config struct {
	Port        string
	Environment string // "development", "staging", "production"
	LogLevel    string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret     string
	JWTIssuer     string
	SessionTTL    time.Duration
	RememberMeTTL time.Duration
	TokenTTL      time.Duration

	FrontendHost string
	CORSOrigin   string

	Mail      MailConfig
	RateLimit RateLimitConfig

	TokenCleanupInterval time.Duration
	InvalidateOnReissue  bool
	RunMigrations        bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first if it exists.
func Load() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "5000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("POSTGRES_HOST", "localhost"),
		DBPort:     getEnv("POSTGRES_PORT", "5432"),
		DBUser:     getEnv("POSTGRES_USER", "taskboard"),
		DBPassword: getEnv("POSTGRES_PASSWORD", "taskboard"),
		DBName:     getEnv("POSTGRES_DB", "taskboard"),
		DBSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "taskboard"),

		FrontendHost: getEnv("FE_HOST", "http://localhost:3000"),
		CORSOrigin:   getEnv("CORS_ORIGIN", "*"),

		Mail: MailConfig{
			Transport:    getEnv("MAIL_TRANSPORT", "log"),
			From:         getEnv("MAIL_FROM", "no-reply@taskboard.local"),
			AWSRegion:    getEnv("AWS_REGION", ""),
			SMTPHost:     getEnv("MAIL_SERVER_HOST", ""),
			SMTPUser:     getEnv("MAIL_SERVER_USER", ""),
			SMTPPassword: getEnv("MAIL_SERVER_PASS", ""),
		},
	}

	var err error
	if cfg.SessionTTL, err = getEnvAsDuration("SESSION_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RememberMeTTL, err = getEnvAsDuration("REMEMBER_ME_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getEnvAsDuration("EMAIL_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.TokenCleanupInterval, err = getEnvAsDuration("TOKEN_CLEANUP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Window, err = getEnvAsDuration("RATE_LIMIT_WINDOW", time.Hour); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Max, err = getEnvAsInt("RATE_LIMIT_MAX", 1000); err != nil {
		return nil, err
	}
	if cfg.Mail.SMTPPort, err = getEnvAsInt("MAIL_SERVER_PORT", 587); err != nil {
		return nil, err
	}
	if cfg.Mail.MaxPerSecond, err = getEnvAsFloat("MAIL_MAX_PER_SECOND", 14); err != nil {
		return nil, err
	}
	if cfg.InvalidateOnReissue, err = getEnvAsBool("INVALIDATE_ON_REISSUE", true); err != nil {
		return nil, err
	}
	if cfg.RunMigrations, err = getEnvAsBool("RUN_MIGRATIONS", true); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted safely.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET must be set outside development")
		}
		c.JWTSecret = "development_only_secret_change_me"
	}
	switch c.Mail.Transport {
	case MailTransportSES:
		if c.Mail.AWSRegion == "" {
			return errors.New("AWS_REGION is required when MAIL_TRANSPORT=ses")
		}
	case MailTransportSMTP:
		if c.Mail.SMTPHost == "" {
			return errors.New("MAIL_SERVER_HOST is required when MAIL_TRANSPORT=smtp")
		}
	case MailTransportLog:
	default:
		return fmt.Errorf("unsupported MAIL_TRANSPORT %q", c.Mail.Transport)
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("RATE_LIMIT_MAX and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// DSN returns the postgres connection string used by gorm.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// DatabaseURL returns the postgres URL used by golang-migrate.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return v, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number for %s: %w", key, err)
	}
	return v, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for %s: %w", key, err)
	}
	return v, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return v, nil
}
