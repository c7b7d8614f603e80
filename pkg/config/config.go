package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Files produced by training and read by serving
	Paths PathsConfig

	// Raw dataset location (.csv, .xlsx or postgres:// URL)
	Dataset DatasetConfig

	// Database (only used when the dataset lives in PostgreSQL)
	Database DatabaseConfig

	// Redis (prediction cache)
	Redis RedisConfig

	// Serving
	AutoTrain bool // 아티팩트가 없거나 오래되면 서빙 전에 동기 학습
	RateLimit RateLimitConfig

	// Scheduler
	RetrainSchedule string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// PathsConfig holds the locations of the serving files
type PathsConfig struct {
	Artifact       string
	Schema         string
	Catalog        string
	TrainingConfig string
}

// DatasetConfig holds the raw dataset location
type DatasetConfig struct {
	Location string
	Sheet    string // xlsx only; empty = first sheet
	Query    string // postgres only
}

// DatabaseConfig holds PostgreSQL pool configuration
type DatabaseConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// RateLimitConfig holds the token bucket settings for the prediction API
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Paths: PathsConfig{
			Artifact:       getEnv("ARTIFACT_PATH", "modelo_precio.gob"),
			Schema:         getEnv("SCHEMA_PATH", "columns.json"),
			Catalog:        getEnv("CATALOG_PATH", "catalogo_distritos_barrios.csv"),
			TrainingConfig: getEnv("TRAINING_CONFIG", "config/training.yaml"),
		},

		Dataset: DatasetConfig{
			Location: getEnv("DATASET_PATH", "data/vivienda_imputada.xlsx"),
			Sheet:    getEnv("DATASET_SHEET", ""),
			Query:    getEnv("DATASET_QUERY", "SELECT * FROM vivienda"),
		},

		Database: DatabaseConfig{
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 0),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("CACHE_TTL", "1h"),
		},

		AutoTrain: getEnvAsBool("AUTO_TRAIN", true),
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		},

		RetrainSchedule: getEnv("RETRAIN_SCHEDULE", "0 0 3 * * *"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Dataset.Location == "" {
		return fmt.Errorf("DATASET_PATH is required")
	}

	if c.Paths.Artifact == "" || c.Paths.Schema == "" || c.Paths.Catalog == "" {
		return fmt.Errorf("ARTIFACT_PATH, SCHEMA_PATH and CATALOG_PATH are required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be > 0")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
