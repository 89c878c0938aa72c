package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings, resolved once at startup.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	ServerPort string
	ServerHost string

	// Ingestion knobs
	ChunkSize    int // characters per chunk
	ChunkOverlap int // characters shared between consecutive chunks
	MaxPDFPages  int // page-count ceiling enforced before extraction
	MaxUploadMB  int

	// Retrieval
	NResults int

	// Whether binding a new document to a session clears its prior
	// conversation history.
	ResetHistoryOnUpload bool

	// Observability
	JaegerEndpoint string
}

// Load reads configuration from the environment, after sourcing a .env
// file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "rag_engine"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		ServerPort: getEnv("SERVER_PORT", "8080"),
		ServerHost: getEnv("SERVER_HOST", "localhost"),

		ChunkSize:    getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 50),
		MaxPDFPages:  getEnvInt("MAX_PDF_PAGES", 100),
		MaxUploadMB:  getEnvInt("MAX_UPLOAD_MB", 20),

		NResults: getEnvInt("N_RESULTS", 3),

		ResetHistoryOnUpload: getEnvBool("RESET_HISTORY_ON_UPLOAD", true),

		JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
	}

	return cfg, nil
}

// DatabaseURL assembles the postgres DSN.
func (c *Config) DatabaseURL() string {
	return "host=" + c.DBHost +
		" port=" + c.DBPort +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
