package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Broker   BrokerConfig
	App      AppConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string
	MetricsPort string
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// CacheConfig holds the Redis caching layer configuration.
type CacheConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	TTL      time.Duration
}

// BrokerConfig holds the RabbitMQ connection configuration used for
// click fan-out. An empty Host disables publishing.
type BrokerConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Exchange string
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	BaseURL          string // base URL for generated short links
	Environment      string // "development" or "production"
	OTLPEndpoint     string // empty means traces are not exported
	ShortCodeLen     int
	ShortCodeRetries int
}

// Load loads configuration from environment variables, with a .env
// file as optional bootstrap.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			MetricsPort: getEnv("METRICS_PORT", "9090"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "linklet"),
			Password: getEnv("DB_PASSWORD", "linklet_secret"),
			DBName:   getEnv("DB_NAME", "linklet"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Cache: CacheConfig{
			Host:     getEnv("RDB_HOST", "localhost"),
			Port:     getEnv("RDB_PORT", "6379"),
			Password: getEnv("RDB_PASSWORD", ""),
			TTL:      time.Duration(getEnvInt("RDB_TTL_SECONDS", 300)) * time.Second,
		},
		Broker: BrokerConfig{
			Host:     getEnv("AMQP_HOST", "localhost"),
			Port:     getEnv("AMQP_PORT", "5672"),
			User:     getEnv("AMQP_USER", "guest"),
			Password: getEnv("AMQP_PASSWORD", "guest"),
			Exchange: getEnv("AMQP_EXCHANGE", "linklet.events"),
		},
		App: AppConfig{
			BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
			Environment:      getEnv("APP_ENV", "development"),
			OTLPEndpoint:     getEnv("OTLP_ENDPOINT", ""),
			ShortCodeLen:     getEnvInt("SHORT_CODE_LENGTH", 6),
			ShortCodeRetries: getEnvInt("SHORT_CODE_MAX_RETRIES", 10),
		},
	}, nil
}

// ConnectionString returns the PostgreSQL connection string.
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// ConnectionString returns the Redis connection string.
func (c *CacheConfig) ConnectionString() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/0", c.User, c.Password, c.Host, c.Port)
}

// ConnectionString returns the AMQP connection string.
func (b *BrokerConfig) ConnectionString() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", b.User, b.Password, b.Host, b.Port)
}

func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
