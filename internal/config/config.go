package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Check-in scheduling configuration
	CheckIn CheckInConfig

	// Notifier configuration
	Notifier NotifierConfig

	// Photo storage configuration
	Photo PhotoConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string
	Environment  string // development, staging, production
	LogLevel     string // debug, info, warn, error
	AdminKeyHash string // bcrypt hash of the admin API key
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// CheckInConfig holds the scheduling engine configuration.
// TimezoneOffsetMinutes shifts the virtual local clock; there is no
// timezone-database handling by design.
type CheckInConfig struct {
	TimezoneOffsetMinutes int
	DailyScheduleCronTime string // "HH:MM" on the virtual local clock
	ReportDeadlineMinutes int
	MinCheckInGapMinutes  int
}

// NotifierConfig holds push notifier gateway configuration
type NotifierConfig struct {
	Mode          string // "dev" or "production" - dev logs instead of sending
	GatewayURL    string
	APIKey        string
	ActionBaseURL string // base URL embedded in check-in action links
}

// PhotoConfig holds photo storage configuration
type PhotoConfig struct {
	Dir string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			AdminKeyHash: getEnv("ADMIN_API_KEY_HASH", ""),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 86400)) * time.Second,
		},
		CheckIn: CheckInConfig{
			TimezoneOffsetMinutes: getEnvAsInt("TIMEZONE_OFFSET_MINUTES", 180),
			DailyScheduleCronTime: getEnv("DAILY_SCHEDULE_CRON_TIME", "00:05"),
			ReportDeadlineMinutes: getEnvAsInt("REPORT_DEADLINE_MINUTES", 5),
			MinCheckInGapMinutes:  getEnvAsInt("MIN_CHECKIN_GAP_MINUTES", 5),
		},
		Notifier: NotifierConfig{
			Mode:          getEnv("NOTIFIER_MODE", "dev"), // "dev" or "production"
			GatewayURL:    getEnv("NOTIFIER_GATEWAY_URL", ""),
			APIKey:        getEnv("NOTIFIER_API_KEY", ""),
			ActionBaseURL: getEnv("NOTIFIER_ACTION_BASE_URL", "https://app.geocheck.local/checkin"),
		},
		Photo: PhotoConfig{
			Dir: getEnv("PHOTO_STORAGE_DIR", "./photos"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if _, err := time.Parse("15:04", c.CheckIn.DailyScheduleCronTime); err != nil {
		return fmt.Errorf("DAILY_SCHEDULE_CRON_TIME must be in HH:MM format")
	}

	if c.CheckIn.ReportDeadlineMinutes <= 0 {
		return fmt.Errorf("REPORT_DEADLINE_MINUTES must be positive")
	}

	if c.CheckIn.MinCheckInGapMinutes <= 0 {
		return fmt.Errorf("MIN_CHECKIN_GAP_MINUTES must be positive")
	}

	// Validate notifier configuration only in production mode
	if c.Notifier.Mode == "production" {
		if c.Notifier.GatewayURL == "" {
			return fmt.Errorf("NOTIFIER_GATEWAY_URL is required in production mode")
		}

		if c.Notifier.APIKey == "" {
			return fmt.Errorf("NOTIFIER_API_KEY is required in production mode")
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
