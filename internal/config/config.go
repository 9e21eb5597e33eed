package config

import (
	"fmt"
	"golang.org/x/time/rate"
	"strconv"
	"strings"
	"time"
)

type StorageBackend string

const (
	StorageBackendLocal StorageBackend = "local"
	StorageBackendS3    StorageBackend = "s3"
)

// DefaultClientMaxUploadBytes is the 4.5 MiB soft cap the UI enforces.
const DefaultClientMaxUploadBytes int64 = 4718592

type ServerConfig struct {
	Port               string
	UseHsts            bool
	UseSecurityHeaders bool
	ReadHeaderTimeout  time.Duration
	IdleTimeout        time.Duration
	ShutdownTimeout    time.Duration
}

type RateLimitConfig struct {
	Limit rate.Limit
	Burst int
}

type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	PublicBaseUrl  string
	ForcePathStyle bool
	MaxRetries     int
}

type StorageConfig struct {
	Backend      StorageBackend
	Path         string
	DatabasePath string
	S3           *S3Config
}

type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type UploadConfig struct {
	// MaxBytes is a server-side guard; 0 disables it.
	MaxBytes       int64
	ClientMaxBytes int64
}

type LogConfig struct {
	Level  string
	Format string
}

type Config struct {
	BaseUrl   string
	Server    *ServerConfig
	RateLimit *RateLimitConfig
	Storage   *StorageConfig
	Cache     *CacheConfig
	Upload    *UploadConfig
	Log       *LogConfig
}

// LoadConfig reads the configuration from the environment, falling back to
// the file named by CONFIG_FILE and then to defaults.
func LoadConfig() (*Config, error) {
	return Load(getenv("CONFIG_FILE"))
}

// Load is LoadConfig with an explicit config file path. An empty path
// means environment and defaults only.
func Load(path string) (*Config, error) {
	src := &source{}
	if path != "" {
		values, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = values
	}

	serverPort := src.get("SERVER_PORT", "8080")
	if _, err := strconv.Atoi(serverPort); err != nil {
		return nil, fmt.Errorf("failed to parse SERVER_PORT: %v", err)
	}
	baseURL := strings.TrimRight(src.get("BASE_URL", "http://localhost:"+serverPort), "/")

	useHsts, err := src.getBool("USE_HSTS", false)
	if err != nil {
		return nil, err
	}
	useSecurityHeaders, err := src.getBool("USE_SECURITY_HEADERS", true)
	if err != nil {
		return nil, err
	}
	readHeaderTimeout, err := src.getDuration("READ_HEADER_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	idleTimeout, err := src.getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := src.getDuration("SHUTDOWN_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	rateLimit, err := src.getFloat("RATE_LIMIT", 0)
	if err != nil {
		return nil, err
	}
	if rateLimit < 0 {
		return nil, fmt.Errorf("RATE_LIMIT must not be negative")
	}
	rateBurst, err := src.getInt("RATE_BURST", 10)
	if err != nil {
		return nil, err
	}

	backend := StorageBackend(src.get("STORAGE_BACKEND", string(StorageBackendLocal)))
	if backend != StorageBackendLocal && backend != StorageBackendS3 {
		return nil, fmt.Errorf("invalid STORAGE_BACKEND: %s", backend)
	}
	s3Region := src.get("S3_REGION", "us-east-1")
	s3Bucket := src.get("S3_BUCKET", "")
	if backend == StorageBackendS3 && s3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_BACKEND is s3")
	}
	s3ForcePathStyle, err := src.getBool("S3_FORCE_PATH_STYLE", false)
	if err != nil {
		return nil, err
	}
	s3MaxRetries, err := src.getInt("S3_MAX_RETRIES", 0)
	if err != nil {
		return nil, err
	}

	redisDB, err := src.getInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := src.getDuration("CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	uploadMaxBytes, err := src.getInt64("UPLOAD_MAX_BYTES", 0)
	if err != nil {
		return nil, err
	}
	clientMaxBytes, err := src.getInt64("CLIENT_MAX_UPLOAD_BYTES", DefaultClientMaxUploadBytes)
	if err != nil {
		return nil, err
	}

	logFormat := strings.ToLower(src.get("LOG_FORMAT", "text"))
	if logFormat != "text" && logFormat != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT: %s", logFormat)
	}

	cfg := &Config{
		BaseUrl: baseURL,
		Server: &ServerConfig{
			Port:               serverPort,
			UseHsts:            useHsts,
			UseSecurityHeaders: useSecurityHeaders,
			ReadHeaderTimeout:  readHeaderTimeout,
			IdleTimeout:        idleTimeout,
			ShutdownTimeout:    shutdownTimeout,
		},
		RateLimit: &RateLimitConfig{
			Limit: rate.Limit(rateLimit),
			Burst: rateBurst,
		},
		Storage: &StorageConfig{
			Backend:      backend,
			Path:         src.get("STORAGE_PATH", "data/blobs"),
			DatabasePath: src.get("DATABASE_PATH", "data/upload-project.db"),
			S3: &S3Config{
				Bucket:         s3Bucket,
				Region:         s3Region,
				Endpoint:       src.get("S3_ENDPOINT", ""),
				PublicBaseUrl:  src.get("S3_PUBLIC_BASE_URL", ""),
				ForcePathStyle: s3ForcePathStyle,
				MaxRetries:     s3MaxRetries,
			},
		},
		Cache: &CacheConfig{
			RedisAddr:     src.get("REDIS_ADDR", ""),
			RedisPassword: src.get("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			TTL:           cacheTTL,
		},
		Upload: &UploadConfig{
			MaxBytes:       uploadMaxBytes,
			ClientMaxBytes: clientMaxBytes,
		},
		Log: &LogConfig{
			Level:  src.get("LOG_LEVEL", "info"),
			Format: logFormat,
		},
	}
	return cfg, nil
}
