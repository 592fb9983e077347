package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application settings read from the environment.
type Config struct {
	Addr          string
	DBPath        string
	MediaRoot     string
	MediaURL      string
	MediaBackend  string
	S3Region      string
	S3Bucket      string
	PageSize      int
	IndexCacheTTL time.Duration
	SessionTTL    time.Duration
	CSRFKey       string
	SecureCookies bool
	LogLevel      string
	LoginRate     float64
	LoginBurst    int
}

// Default returns the configuration used when no environment overrides it.
func Default() *Config {
	return &Config{
		Addr:          ":8080",
		DBPath:        "data/badger",
		MediaRoot:     "data/media",
		MediaURL:      "/media/",
		MediaBackend:  "local",
		S3Region:      "us-east-1",
		PageSize:      10,
		IndexCacheTTL: 15 * time.Minute,
		SessionTTL:    14 * 24 * time.Hour,
		LogLevel:      "info",
		LoginRate:     1,
		LoginBurst:    5,
	}
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	def := Default()
	cfg := &Config{
		Addr:          getEnv("ADDR", def.Addr),
		DBPath:        getEnv("DB_PATH", def.DBPath),
		MediaRoot:     getEnv("MEDIA_ROOT", def.MediaRoot),
		MediaURL:      getEnv("MEDIA_URL", def.MediaURL),
		MediaBackend:  strings.ToLower(getEnv("MEDIA_BACKEND", def.MediaBackend)),
		S3Region:      getEnv("S3_REGION", def.S3Region),
		S3Bucket:      getEnv("S3_BUCKET", ""),
		PageSize:      getEnvAsInt("PAGE_SIZE", def.PageSize),
		IndexCacheTTL: getEnvAsDuration("INDEX_CACHE_TTL", def.IndexCacheTTL),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", def.SessionTTL),
		CSRFKey:       getEnv("CSRF_KEY", ""),
		SecureCookies: getEnvAsBool("SECURE_COOKIES", false),
		LogLevel:      getEnv("LOG_LEVEL", def.LogLevel),
		LoginRate:     getEnvAsFloat("LOGIN_RATE", def.LoginRate),
		LoginBurst:    getEnvAsInt("LOGIN_BURST", def.LoginBurst),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.IndexCacheTTL < 0 {
		return fmt.Errorf("INDEX_CACHE_TTL must not be negative")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	switch c.MediaBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when MEDIA_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown MEDIA_BACKEND %q", c.MediaBackend)
	}
	if c.CSRFKey != "" && len(c.CSRFKey) != 32 {
		return fmt.Errorf("CSRF_KEY must be exactly 32 bytes")
	}
	if !strings.HasSuffix(c.MediaURL, "/") {
		c.MediaURL += "/"
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
