package config

import (
	"os"
	"strconv"
)

// Catalog drivers accepted by CATALOG_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

// DefaultMaxUploadBytes is the ingestion ceiling (5 MiB).
const DefaultMaxUploadBytes int64 = 5 << 20

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// StorageConfig holds settings for the document backends.
type StorageConfig struct {
	// UploadDir is the root directory of the filesystem backend.
	UploadDir string
	// PublicPath is the URL prefix under which UploadDir is served.
	PublicPath     string
	MaxUploadBytes int64
	// RollbackOnCatalogFailure removes written bytes when the catalog insert fails.
	RollbackOnCatalogFailure bool
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string
	Environment string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost       string
	Port          string
	CatalogDriver string
	Database      DatabaseConfig
	Mongo         MongoConfig
	Storage       StorageConfig
	Log           LogConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:       getEnv("APP_HOST", "localhost:8080"),
		Port:          getEnv("PORT", "8080"),
		CatalogDriver: getEnv("CATALOG_DRIVER", DriverPostgres),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "docstore"),
		},
		Storage: StorageConfig{
			UploadDir:                getEnv("UPLOAD_DIR", "uploads"),
			PublicPath:               getEnv("UPLOAD_PUBLIC_PATH", "/uploads"),
			MaxUploadBytes:           getEnvInt64("UPLOAD_MAX_BYTES", DefaultMaxUploadBytes),
			RollbackOnCatalogFailure: getEnvBool("UPLOAD_ROLLBACK_ON_CATALOG_FAILURE", true),
		},
		Log: LogConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Environment: getEnv("APP_ENV", "development"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil && i > 0 {
			return i
		}
	}
	return def
}
