package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends understood by the service.
const (
	StoreBackendMemory     = "memory"
	StoreBackendFilesystem = "filesystem"
	StoreBackendPostgres   = "postgres"
	StoreBackendRedis      = "redis"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	StoreBackend string
	DatabaseURL  string
	RedisURL     string
	DataDir      string

	GeminiAPIKey    string
	GeminiBaseURL   string
	GeminiFastModel string
	GeminiProModel  string

	MaxConcurrentJobs   int
	DispatchTimeout     time.Duration
	MirrorDebounce      time.Duration
	MaxSourceImages     int
	MaxImageDimension   int
	JPEGQuality         int
	PreprocessSkipBytes int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	CORSOrigins      []string
	DefaultLocale    string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("PORT", "8080"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreBackendFilesystem)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		DataDir:      getEnv("DATA_DIR", "./data"),

		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiFastModel: getEnv("GEMINI_FAST_MODEL", "gemini-2.5-flash-image"),
		GeminiProModel:  getEnv("GEMINI_PRO_MODEL", "gemini-3-pro-image-preview"),

		MaxConcurrentJobs:   getEnvInt("MAX_CONCURRENT_JOBS", 2),
		DispatchTimeout:     time.Second * time.Duration(getEnvInt("DISPATCH_TIMEOUT_SECONDS", 120)),
		MirrorDebounce:      time.Millisecond * time.Duration(getEnvInt("MIRROR_DEBOUNCE_MS", 500)),
		MaxSourceImages:     getEnvInt("MAX_SOURCE_IMAGES", 4),
		MaxImageDimension:   getEnvInt("MAX_IMAGE_DIMENSION", 1024),
		JPEGQuality:         getEnvInt("JPEG_QUALITY", 70),
		PreprocessSkipBytes: getEnvInt("PREPROCESS_SKIP_BYTES", 256*1024),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
	}

	switch cfg.StoreBackend {
	case StoreBackendMemory, StoreBackendFilesystem:
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case StoreBackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORE_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", cfg.StoreBackend)
	}

	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = 2
	}
	if cfg.MaxSourceImages <= 0 {
		cfg.MaxSourceImages = 4
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
