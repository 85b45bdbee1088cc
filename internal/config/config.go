package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ModeProduction  = "production"
	ModeDevelopment = "development"

	PlatformAndroid = "android"
	PlatformLambda  = "lambda"
	PlatformDefault = "default"
)

type Config struct {
	Server    ServerConfig
	Runtime   RuntimeConfig
	Download  DownloadConfig
	Extractor ExtractorConfig
	Cache     CacheConfig
	Admission AdmissionConfig
	API       APIConfig
	CORS      CORSConfig
	S3        S3Config
	Janitor   JanitorConfig
}

type ServerConfig struct {
	Port              string
	Host              string
	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration
}

// RuntimeConfig describes where and how the service runs.
type RuntimeConfig struct {
	Mode     string
	Platform string
}

func (r RuntimeConfig) IsProduction() bool {
	return r.Mode == ModeProduction
}

func (r RuntimeConfig) IsAndroid() bool {
	return r.Platform == PlatformAndroid
}

type DownloadConfig struct {
	TempDir                  string
	MaxDuration              time.Duration
	EnforceMaxDuration       bool
	CleanupGrace             time.Duration
	KeepFiles                bool
	MaxConcurrentExtractions int
	ThumbnailTimeout         time.Duration
	MaxThumbnailSize         int64
}

// ExtractorConfig holds the options forwarded to yt-dlp on every call.
type ExtractorConfig struct {
	Executable            string   `yaml:"executable"`
	UserAgent             string   `yaml:"user_agent"`
	Referer               string   `yaml:"referer"`
	Headers               []string `yaml:"headers"`
	ExtractorArgs         string   `yaml:"extractor_args"`
	PlaylistExtractorArgs string   `yaml:"playlist_extractor_args"`
	FFmpegLocation        string   `yaml:"ffmpeg_location"`

	MetadataTimeout time.Duration `yaml:"-"`
	AudioTimeout    time.Duration `yaml:"-"`
}

type CacheConfig struct {
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type AdmissionConfig struct {
	Threshold int
}

type APIConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitBurst    int
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	EndpointURL     string
	KeyPrefix       string
}

// Enabled reports whether delivered artifacts should be archived.
func (s S3Config) Enabled() bool {
	return s.BucketName != ""
}

type JanitorConfig struct {
	SweepSchedule  string
	ReportSchedule string
	StaleAge       time.Duration
	// KeepFiles mirrors Download.KeepFiles; kept artifacts are never swept.
	KeepFiles bool
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	cfg := &Config{}
	var err error

	// Runtime
	cfg.Runtime.Platform = detectPlatform()
	defaultMode := ModeDevelopment
	if cfg.Runtime.Platform == PlatformAndroid {
		defaultMode = ModeProduction
	}
	cfg.Runtime.Mode = strings.ToLower(getEnv("APP_ENV", getEnv("NODE_ENV", defaultMode)))
	if cfg.Runtime.Mode != ModeProduction {
		cfg.Runtime.Mode = ModeDevelopment
	}

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", getEnv("PORT", "3000"))
	cfg.Server.Host = getEnv("SERVER_HOST", "0.0.0.0")
	if cfg.Server.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.Server.ReadHeaderTimeout, err = getEnvDuration("READ_HEADER_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	// Download configuration
	cfg.Download.TempDir = getEnv("DOWNLOAD_DIR", ScratchDir(cfg.Runtime.Platform))
	if cfg.Download.MaxDuration, err = getEnvDuration("MAX_DURATION", "10m"); err != nil {
		return nil, err
	}
	cfg.Download.EnforceMaxDuration = cfg.Runtime.IsProduction()
	if cfg.Download.CleanupGrace, err = getEnvDuration("CLEANUP_GRACE", "5s"); err != nil {
		return nil, err
	}
	// Artifacts may only be kept on a development workstation.
	cfg.Download.KeepFiles = getEnvBool("DOWNLOAD_KEEP_FILES", false) &&
		!cfg.Runtime.IsProduction() && !cfg.Runtime.IsAndroid()
	cfg.Download.MaxConcurrentExtractions = getEnvInt("MAX_CONCURRENT_EXTRACTIONS", 4)
	if cfg.Download.ThumbnailTimeout, err = getEnvDuration("THUMBNAIL_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	cfg.Download.MaxThumbnailSize = getEnvInt64("MAX_THUMBNAIL_SIZE", 5*1024*1024)

	// Extractor configuration
	cfg.Extractor = defaultExtractorConfig(cfg.Runtime.Platform)
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadExtractorFile(path, &cfg.Extractor); err != nil {
			return nil, err
		}
	}
	cfg.Extractor.Executable = getEnv("YTDLP_PATH", cfg.Extractor.Executable)
	cfg.Extractor.FFmpegLocation = getEnv("FFMPEG_LOCATION", cfg.Extractor.FFmpegLocation)
	if cfg.Extractor.MetadataTimeout, err = getEnvDuration("EXTRACTOR_METADATA_TIMEOUT", "60s"); err != nil {
		return nil, err
	}
	if cfg.Extractor.AudioTimeout, err = getEnvDuration("EXTRACTOR_TIMEOUT", "10m"); err != nil {
		return nil, err
	}

	// Cache configuration
	if cfg.Cache.TTL, err = getEnvDuration("CACHE_TTL", "5m"); err != nil {
		return nil, err
	}
	cfg.Cache.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.Cache.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.Cache.RedisDB = getEnvInt("REDIS_DB", 0)

	// Admission configuration
	cfg.Admission.Threshold = getEnvInt("DOWNLOADS_BEFORE_AD", 20)
	if cfg.Admission.Threshold < 1 {
		return nil, fmt.Errorf("invalid DOWNLOADS_BEFORE_AD: must be positive")
	}

	// API configuration
	cfg.API.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", 100)
	cfg.API.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 20)
	if cfg.API.RateLimitWindow, err = getEnvDuration("RATE_LIMIT_WINDOW", "1m"); err != nil {
		return nil, err
	}

	// CORS configuration
	cfg.CORS = loadCORSConfig()

	// S3 configuration (optional archive)
	cfg.S3.Region = getEnv("AWS_REGION", "us-east-1")
	cfg.S3.BucketName = getEnv("S3_BUCKET_NAME", "")
	cfg.S3.EndpointURL = getEnv("AWS_ENDPOINT_URL", "")
	cfg.S3.AccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.S3.SecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.S3.KeyPrefix = getEnv("S3_KEY_PREFIX", "audio")

	// Janitor configuration
	cfg.Janitor.SweepSchedule = getEnv("JANITOR_SWEEP_SCHEDULE", "@every 1m")
	cfg.Janitor.ReportSchedule = getEnv("JANITOR_REPORT_SCHEDULE", "@every 24h")
	if cfg.Janitor.StaleAge, err = getEnvDuration("JANITOR_STALE_AGE", "1h"); err != nil {
		return nil, err
	}
	cfg.Janitor.KeepFiles = cfg.Download.KeepFiles

	return cfg, nil
}

// detectPlatform picks the execution target from well-known environment markers.
func detectPlatform() string {
	if p := strings.ToLower(os.Getenv("PLATFORM")); p == PlatformAndroid {
		return PlatformAndroid
	}
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" || os.Getenv("LAMBDA_TASK_ROOT") != "" {
		return PlatformLambda
	}
	return PlatformDefault
}

// ScratchDir returns the default artifact directory for a platform.
// Lambda only allows writes under /tmp and the mobile runtime must stay
// out of the install directory.
func ScratchDir(platform string) string {
	switch platform {
	case PlatformLambda:
		return filepath.Join("/tmp", "downloads")
	case PlatformAndroid:
		return filepath.Join(os.TempDir(), "audiograb", "downloads")
	default:
		return filepath.Join("temp", "downloads")
	}
}

func defaultExtractorConfig(platform string) ExtractorConfig {
	cfg := ExtractorConfig{
		Executable: "yt-dlp",
		UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Referer:    "https://www.youtube.com/",
		Headers: []string{
			"Accept-Language:en-US,en;q=0.9",
			"Accept:text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Sec-Fetch-Mode:navigate",
		},
		ExtractorArgs:         "youtube:player_client=android,web",
		PlaylistExtractorArgs: "youtube:player_client=android,web",
	}
	if platform == PlatformAndroid {
		cfg.FFmpegLocation = "/data/data/com.termux/files/usr/bin"
	}
	return cfg
}

// loadExtractorFile overlays extractor options from a YAML document.
func loadExtractorFile(path string, cfg *ExtractorConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read CONFIG_FILE: %w", err)
	}

	var doc struct {
		Extractor ExtractorConfig `yaml:"extractor"`
	}
	doc.Extractor = *cfg
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid CONFIG_FILE %s: %w", path, err)
	}
	*cfg = doc.Extractor
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(strings.TrimSpace(value), ",")
	}
	return defaultValue
}

// loadCORSConfig mirrors the permissive cors() defaults of the public API.
func loadCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled:        getEnvBool("CORS_ENABLED", true),
		AllowedOrigins: getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods: getEnvStringSlice("CORS_ALLOWED_METHODS", []string{
			"GET", "POST", "OPTIONS",
		}),
		AllowedHeaders: getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{
			"Origin", "Content-Type", "Accept", "Authorization", "X-Correlation-ID",
		}),
		ExposedHeaders: getEnvStringSlice("CORS_EXPOSED_HEADERS", []string{
			"Content-Disposition", "X-Requires-Ad", "X-Downloads-Count", "X-Downloads-Until-Ad", "X-Request-ID",
		}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", false),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
	}
}
