package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process-wide configuration assembled from the environment.
type Config struct {
	Port        string
	Env         string
	Store       string
	CORSOrigins string

	// ScanRateLimit caps partner scanner requests per IP and minute.
	ScanRateLimit int

	DB       DBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Exchange ExchangeConfig
}

// DBConfig holds PostgreSQL connection and pool settings.
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds the balance cache connection settings.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig configures the optional event forwarder. An empty broker
// list disables it.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// ExchangeConfig carries the hand-off policies.
type ExchangeConfig struct {
	PairTTL       time.Duration
	StandaloneTTL time.Duration
	RewardPoints  int
}

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// Load reads the whole configuration, applying defaults.
func Load() *Config {
	return &Config{
		Port:          GetEnv("PORT", "3000"),
		Env:           GetEnv("ENV", "development"),
		Store:         GetEnv("STORE", "postgres"),
		CORSOrigins:   GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		ScanRateLimit: GetIntEnv("SCAN_RATE_LIMIT", 60),
		DB: DBConfig{
			Host:            GetEnv("DB_HOST", "localhost"),
			Port:            GetEnv("DB_PORT", "5432"),
			User:            GetEnv("DB_USER", "postgres"),
			Password:        GetEnv("DB_PASSWORD", "postgres"),
			Name:            GetEnv("DB_NAME", "handoff"),
			MaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetIntEnv("REDIS_DB", 0),
			TTL:      GetDurationEnv("REDIS_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: GetListEnv("KAFKA_BROKERS"),
			Topic:   GetEnv("EVENTS_TOPIC", "exchange-events"),
		},
		Exchange: ExchangeConfig{
			PairTTL:       GetDurationEnv("QR_PAIR_TTL", 48*time.Hour),
			StandaloneTTL: GetDurationEnv("QR_STANDALONE_TTL", 24*time.Hour),
			RewardPoints:  GetIntEnv("REWARD_POINTS", 25),
		},
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
		log.Printf("invalid %s=%q, using default %s", key, val, defaultVal)
	}
	return defaultVal
}

// GetListEnv splits a comma-separated variable, dropping empty entries.
func GetListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}
