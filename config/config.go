package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort        string
	DatabaseURL       string
	LogLevel          string
	PlacesAPIKey      string
	PlacesBaseURL     string
	PlacesRadius      string
	PlacesTimeoutSecs string
	SessionTTLHours   string
	PageSize          string
}

// DatabaseConfig holds connection pool settings applied in database.Connect.
type DatabaseConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultDatabaseConfig returns pool settings sized for a single instance.
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}

// GetPlacesTimeout returns the places lookup timeout from environment or default.
func (c *Config) GetPlacesTimeout() time.Duration {
	secs, err := strconv.Atoi(c.PlacesTimeoutSecs)
	if err != nil || secs <= 0 {
		logrus.Warnf("Invalid PLACES_TIMEOUT_SECONDS value: %s, using default 10 seconds", c.PlacesTimeoutSecs)
		return 10 * time.Second
	}

	return time.Duration(secs) * time.Second
}

// GetSessionTTL returns the session expiration from environment or default.
func (c *Config) GetSessionTTL() time.Duration {
	hours, err := strconv.Atoi(c.SessionTTLHours)
	if err != nil || hours <= 0 {
		logrus.Warnf("Invalid SESSION_TTL_HOURS value: %s, using default 24 hours", c.SessionTTLHours)
		return 24 * time.Hour
	}

	return time.Duration(hours) * time.Hour
}

// GetPageSize returns the listing page size from environment or default.
func (c *Config) GetPageSize() int {
	size, err := strconv.Atoi(c.PageSize)
	if err != nil || size <= 0 {
		return 5
	}
	return size
}

// GetPlacesRadius returns the search radius in meters from environment or default.
func (c *Config) GetPlacesRadius() int {
	radius, err := strconv.Atoi(c.PlacesRadius)
	if err != nil || radius <= 0 {
		return 50000
	}
	return radius
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		PlacesAPIKey:      getEnv("PLACES_API_KEY", ""),
		PlacesBaseURL:     getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place/nearbysearch/json"),
		PlacesRadius:      getEnv("PLACES_RADIUS_METERS", "50000"),
		PlacesTimeoutSecs: getEnv("PLACES_TIMEOUT_SECONDS", "10"),
		SessionTTLHours:   getEnv("SESSION_TTL_HOURS", "24"),
		PageSize:          getEnv("PAGE_SIZE", "5"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
