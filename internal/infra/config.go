package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv string
	Port   string

	KieAPIKey         string
	KieBaseURL        string
	KieImageModel     string
	KieTextModel      string
	NanoBananaAPIKey  string
	NanoBananaBaseURL string
	SoraTextModel     string
	SoraImageModel    string
	CallbackURL       string
	DefaultProvider   string

	ImagePollInterval time.Duration
	ImageTimeout      time.Duration
	VideoPollInterval time.Duration
	VideoTimeout      time.Duration
	RequestTimeout    time.Duration

	UploadBackendsFile string
	UploadTimeout      time.Duration
	ImgbbAPIKey        string
	FreeImageAPIKey    string
	StoragePath        string
	StorageBaseURL     string
	MaxResultBytes     int64

	AllowedOrigins    []string
	MaxConcurrentJobs int
	JobRetention      time.Duration
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	RateLimitPerMin   int
}

// LoadConfig loads configuration from the environment (and optional .env
// files) and applies defaults where needed.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   port,

		KieAPIKey:         strings.TrimSpace(os.Getenv("KIE_API_KEY")),
		KieBaseURL:        getEnv("KIE_BASE_URL", "https://api.kie.ai"),
		KieImageModel:     getEnv("KIE_IMAGE_MODEL", "google/nano-banana-edit"),
		KieTextModel:      getEnv("KIE_TEXT_MODEL", "google/nano-banana"),
		NanoBananaAPIKey:  strings.TrimSpace(os.Getenv("NANOBANANA_API_KEY")),
		NanoBananaBaseURL: getEnv("NANOBANANA_BASE_URL", "https://api.nanobananaapi.ai"),
		SoraTextModel:     getEnv("SORA_TEXT_MODEL", "sora-2-text-to-video"),
		SoraImageModel:    getEnv("SORA_IMAGE_MODEL", "sora-2-image-to-video"),
		CallbackURL:       os.Getenv("PROVIDER_CALLBACK_URL"),
		DefaultProvider:   getEnv("DEFAULT_IMAGE_PROVIDER", "kie"),

		ImagePollInterval: getEnvDuration("IMAGE_POLL_INTERVAL", 2*time.Second),
		ImageTimeout:      getEnvDuration("IMAGE_TIMEOUT", 60*time.Second),
		VideoPollInterval: getEnvDuration("VIDEO_POLL_INTERVAL", 5*time.Second),
		VideoTimeout:      getEnvDuration("VIDEO_TIMEOUT", 15*time.Minute),
		RequestTimeout:    getEnvDuration("PROVIDER_REQUEST_TIMEOUT", 45*time.Second),

		UploadBackendsFile: os.Getenv("UPLOAD_BACKENDS_FILE"),
		UploadTimeout:      getEnvDuration("UPLOAD_TIMEOUT", 30*time.Second),
		ImgbbAPIKey:        strings.TrimSpace(os.Getenv("IMGBB_API_KEY")),
		FreeImageAPIKey:    strings.TrimSpace(os.Getenv("FREEIMAGE_API_KEY")),
		StoragePath:        getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%s/static", port)),
		MaxResultBytes:     int64(getEnvInt("MAX_RESULT_MB", 64)) << 20,

		AllowedOrigins:    splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", 4),
		JobRetention:      getEnvDuration("JOB_RETENTION", 15*time.Minute),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.KieAPIKey == "" && cfg.NanoBananaAPIKey == "" {
		return nil, fmt.Errorf("KIE_API_KEY or NANOBANANA_API_KEY is required")
	}
	switch cfg.DefaultProvider {
	case "kie", "nanobanana":
	default:
		return nil, fmt.Errorf("DEFAULT_IMAGE_PROVIDER must be kie or nanobanana, got %q", cfg.DefaultProvider)
	}
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = 1
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
