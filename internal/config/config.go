package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	JWT      JWTConfig
	App      AppConfig
	Redis    RedisConfig
	Payroll  PayrollConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// RedisConfig - an empty Addr disables the settings cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PayrollConfig holds the knobs of the payroll jobs and API.
type PayrollConfig struct {
	Timezone         string
	CronInterval     time.Duration
	RateLimit        string
	SettingsCacheTTL time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file loaded, using environment", "error", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	migrate, err := strconv.ParseBool(getEnv("DB_MIGRATE", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIGRATE: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "payroll_mx"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		Migrate:  migrate,
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// Payroll configuration
	cronInterval, err := time.ParseDuration(getEnv("PAYROLL_CRON_INTERVAL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_CRON_INTERVAL: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("PAYROLL_SETTINGS_CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_SETTINGS_CACHE_TTL: %w", err)
	}

	config.Payroll = PayrollConfig{
		Timezone:         getEnv("PAYROLL_TIMEZONE", "America/Mexico_City"),
		CronInterval:     cronInterval,
		RateLimit:        getEnv("PAYROLL_RATE_LIMIT", "120-M"),
		SettingsCacheTTL: cacheTTL,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Payroll.CronInterval <= 0 {
		return fmt.Errorf("PAYROLL_CRON_INTERVAL must be positive")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid PAYROLL_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the timezone payroll dates are taken in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Payroll.Timezone)
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	return strings.Split(value, ",")
}
