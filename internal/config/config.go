package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"medtranslate/internal/logger"
)

// Provider names accepted in configuration.
const (
	StorageS3     = "s3"
	StorageMemory = "memory"

	OCRRekognition = "rekognition"
	OCRVision      = "vision"
	OCRDocumentAI  = "documentai"

	TranslationAWS    = "aws"
	TranslationOpenAI = "openai"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	// Storage Configuration
	StorageBucket  string
	StorageBackend string
	AWSRegion      string

	// Stage providers
	OCRProvider         string
	TranslationProvider string

	// OpenAI Configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Google Cloud Configuration
	GoogleCloudProject    string
	GoogleCloudLocation   string
	DocumentAIProcessorID string

	// Translation cache
	TranslationCache    string
	TranslationCacheTTL time.Duration
	RedisAddr           string
	RedisPassword       string
	RedisDB             int

	// Speech synthesis polling
	SpeechPollInterval    time.Duration
	SpeechPollMaxInterval time.Duration
	SpeechMaxWait         time.Duration
	SpeechMakePublic      bool

	// HTTP server
	HTTPAddr           string
	HTTPRequestTimeout time.Duration
	MaxUploadMB        int
	CallbackTimeout    time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		StorageBucket:         getEnv("STORAGE_BUCKET", ""),
		StorageBackend:        strings.ToLower(getEnv("STORAGE_BACKEND", StorageS3)),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		OCRProvider:           strings.ToLower(getEnv("OCR_PROVIDER", OCRRekognition)),
		TranslationProvider:   strings.ToLower(getEnv("TRANSLATION_PROVIDER", TranslationAWS)),
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GoogleCloudProject:    getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:   getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID: getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		TranslationCache:      strings.ToLower(getEnv("TRANSLATION_CACHE", CacheNone)),
		TranslationCacheTTL:   getDuration("TRANSLATION_CACHE_TTL", 24*time.Hour),
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getInt("REDIS_DB", 0),
		SpeechPollInterval:    getDuration("SPEECH_POLL_INTERVAL", time.Second),
		SpeechPollMaxInterval: getDuration("SPEECH_POLL_MAX_INTERVAL", 5*time.Second),
		SpeechMaxWait:         getDuration("SPEECH_MAX_WAIT", 2*time.Minute),
		SpeechMakePublic:      getBool("SPEECH_MAKE_PUBLIC", true),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		HTTPRequestTimeout:    getDuration("HTTP_REQUEST_TIMEOUT", 3*time.Minute),
		MaxUploadMB:           getInt("MAX_UPLOAD_MB", 10),
		CallbackTimeout:       getDuration("CALLBACK_TIMEOUT", 10*time.Second),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.StorageBucket == "" {
		return fmt.Errorf("STORAGE_BUCKET is required")
	}

	switch c.StorageBackend {
	case StorageS3, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.OCRProvider {
	case OCRRekognition:
		if c.StorageBackend != StorageS3 {
			return fmt.Errorf("OCR_PROVIDER=rekognition reads images from S3 and requires STORAGE_BACKEND=s3")
		}
	case OCRVision:
	case OCRDocumentAI:
		if c.GoogleCloudProject == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required for OCR_PROVIDER=documentai")
		}
		if c.DocumentAIProcessorID == "" {
			return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required for OCR_PROVIDER=documentai")
		}
	default:
		return fmt.Errorf("unknown OCR_PROVIDER %q", c.OCRProvider)
	}

	switch c.TranslationProvider {
	case TranslationAWS:
	case TranslationOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for TRANSLATION_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown TRANSLATION_PROVIDER %q", c.TranslationProvider)
	}

	switch c.TranslationCache {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for TRANSLATION_CACHE=redis")
		}
	default:
		return fmt.Errorf("unknown TRANSLATION_CACHE %q", c.TranslationCache)
	}

	if c.SpeechPollInterval <= 0 || c.SpeechMaxWait <= 0 {
		return fmt.Errorf("SPEECH_POLL_INTERVAL and SPEECH_MAX_WAIT must be positive")
	}
	if c.SpeechPollMaxInterval < c.SpeechPollInterval {
		return fmt.Errorf("SPEECH_POLL_MAX_INTERVAL must not be shorter than SPEECH_POLL_INTERVAL")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	return nil
}

// MaxUploadBytes is the upload body limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
