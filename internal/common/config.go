package common

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/docintake/constants"
)

// Storage backends.
const (
	BackendS3 = "s3"
	BackendFS = "fs"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Analysis AnalysisConfig
	Database DatabaseConfig
	Queue    QueueConfig
	Upload   UploadConfig
}

// ServerConfig holds listener configuration
type ServerConfig struct {
	HTTPAddr      string
	GRPCAddr      string
	PublicBaseURL string
}

// StorageConfig selects and configures the blob store
type StorageConfig struct {
	Backend        string
	ImageBucket    string
	DataBucket     string
	Region         string
	Endpoint       string
	UsePathStyle   bool
	FSRoot         string
	LinkSigningKey string
	URLExpiry      time.Duration
	WatchUploads   bool
}

// AnalysisConfig holds document-analysis configuration
type AnalysisConfig struct {
	Region string
}

// DatabaseConfig holds job-log database configuration
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// QueueConfig holds local trigger queue configuration
type QueueConfig struct {
	Workers        int
	Size           int
	ProcessTimeout time.Duration
}

// UploadConfig holds upload validation limits
type UploadConfig struct {
	MaxBytes int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	region := getEnv("AWS_REGION", "us-east-1")
	backend := strings.ToLower(getEnv("STORAGE_BACKEND", BackendS3))
	return &Config{
		Server: ServerConfig{
			HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
			GRPCAddr:      os.Getenv("GRPC_ADDR"),
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		},
		Storage: StorageConfig{
			Backend:        backend,
			ImageBucket:    getEnv("IMAGE_BUCKET", "image-items"),
			DataBucket:     getEnv("DATA_BUCKET", "data-items"),
			Region:         region,
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			UsePathStyle:   getEnvAsBool("S3_USE_PATH_STYLE", false),
			FSRoot:         getEnv("FS_ROOT", "./data"),
			LinkSigningKey: os.Getenv("LINK_SIGNING_KEY"),
			URLExpiry:      getEnvAsDuration("URL_EXPIRATION", time.Hour),
			WatchUploads:   getEnvAsBool("WATCH_UPLOADS", backend == BackendFS),
		},
		Analysis: AnalysisConfig{
			Region: getEnv("TEXTRACT_REGION", region),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(os.Getenv("DB_DRIVER")),
			DSN:             os.Getenv("DB_URL"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Queue: QueueConfig{
			Workers:        getEnvAsInt("QUEUE_WORKERS", 4),
			Size:           getEnvAsInt("QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 3*time.Minute),
		},
		Upload: UploadConfig{
			MaxBytes: getEnvAsInt("UPLOAD_MAX_BYTES", constants.MaxUploadBytes),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// bare integers are seconds
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendS3:
	case BackendFS:
		if c.Storage.LinkSigningKey == "" {
			return NewAppError("CONFIG_ERROR", "LINK_SIGNING_KEY is required for the fs backend", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "STORAGE_BACKEND must be s3 or fs", ErrInvalidInput)
	}
	if c.Storage.ImageBucket == "" || c.Storage.DataBucket == "" {
		return NewAppError("CONFIG_ERROR", "IMAGE_BUCKET and DATA_BUCKET are required", ErrInvalidInput)
	}
	if c.Storage.URLExpiry <= 0 {
		return NewAppError("CONFIG_ERROR", "URL_EXPIRATION must be positive", ErrInvalidInput)
	}
	if c.Upload.MaxBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "UPLOAD_MAX_BYTES must be positive", ErrInvalidInput)
	}
	switch c.Database.Driver {
	case "":
	case "postgres", "sqlite":
		if c.Database.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required when DB_DRIVER is set", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	return nil
}
