package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Env           string
	Log           LogConfig
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	NATS          NATSConfig
	Cache         CacheConfig
	Auth          AuthConfig
	Storage       StorageConfig
	Images        ImagesConfig
	Reconcile     ReconcileConfig
	Observability ObservabilityConfig
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string
}

// CacheConfig holds caching TTL configuration
type CacheConfig struct {
	ParkReviewsTTL time.Duration
	ProfileTTL     time.Duration
}

// AuthConfig holds settings for verifying identity provider access tokens
type AuthConfig struct {
	JWTSecret string
	Issuer    string
	Audience  string
}

// StorageConfig selects and configures the object store for review images
type StorageConfig struct {
	Driver string // "s3" or "cloudinary"

	S3Bucket        string
	S3Region        string
	S3AccessKeyID   string
	S3SecretKey     string
	S3Endpoint      string
	S3PublicBaseURL string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	OperationTimeout time.Duration
}

// ImagesConfig holds the external HEIC converter settings
type ImagesConfig struct {
	ConverterURL     string
	ConverterTimeout time.Duration
}

// ReconcileConfig holds likes_count reconciliation settings
type ReconcileConfig struct {
	Interval time.Duration
}

// ObservabilityConfig holds OpenTelemetry settings
type ObservabilityConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

// Load reads configuration from environment variables and returns a Config struct.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	viper.SetDefault("SERVER_REQUEST_TIMEOUT", "25s")
	viper.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "30s")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:8080")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "park_reviews")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("DB_AUTO_MIGRATE", true)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("NATS_URL", "nats://localhost:4222")

	viper.SetDefault("CACHE_TTL_PARK_REVIEWS", "120s")
	viper.SetDefault("CACHE_TTL_PROFILE", "1h")

	viper.SetDefault("AUTH_JWT_SECRET", "")
	viper.SetDefault("AUTH_JWT_ISSUER", "")
	viper.SetDefault("AUTH_JWT_AUDIENCE", "authenticated")

	viper.SetDefault("STORAGE_DRIVER", "s3")
	viper.SetDefault("STORAGE_S3_BUCKET", "review-images")
	viper.SetDefault("STORAGE_S3_REGION", "us-east-1")
	viper.SetDefault("STORAGE_S3_ACCESS_KEY_ID", "")
	viper.SetDefault("STORAGE_S3_SECRET_ACCESS_KEY", "")
	viper.SetDefault("STORAGE_S3_ENDPOINT", "")
	viper.SetDefault("STORAGE_S3_PUBLIC_BASE_URL", "")
	viper.SetDefault("STORAGE_CLOUDINARY_CLOUD_NAME", "")
	viper.SetDefault("STORAGE_CLOUDINARY_API_KEY", "")
	viper.SetDefault("STORAGE_CLOUDINARY_API_SECRET", "")
	viper.SetDefault("STORAGE_CLOUDINARY_FOLDER", "park-reviews")
	viper.SetDefault("STORAGE_OPERATION_TIMEOUT", "15s")

	viper.SetDefault("IMAGE_CONVERTER_URL", "")
	viper.SetDefault("IMAGE_CONVERTER_TIMEOUT", "20s")

	viper.SetDefault("RECONCILE_INTERVAL", "10m")

	viper.SetDefault("OTEL_SERVICE_NAME", "park-reviews")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	durations := map[string]*time.Duration{}
	parse := func(key string) (time.Duration, error) {
		d, err := time.ParseDuration(viper.GetString(key))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}

	keys := []string{
		"SERVER_READ_TIMEOUT",
		"SERVER_WRITE_TIMEOUT",
		"SERVER_REQUEST_TIMEOUT",
		"SERVER_SHUTDOWN_TIMEOUT",
		"DB_CONN_MAX_LIFETIME",
		"CACHE_TTL_PARK_REVIEWS",
		"CACHE_TTL_PROFILE",
		"STORAGE_OPERATION_TIMEOUT",
		"IMAGE_CONVERTER_TIMEOUT",
		"RECONCILE_INTERVAL",
	}
	for _, key := range keys {
		d, err := parse(key)
		if err != nil {
			return nil, err
		}
		durations[key] = &d
	}

	allowedOrigins := strings.Split(viper.GetString("CORS_ALLOWED_ORIGINS"), ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	config := &Config{
		Env: viper.GetString("ENV"),
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Server: ServerConfig{
			Port:            viper.GetString("SERVER_PORT"),
			ReadTimeout:     *durations["SERVER_READ_TIMEOUT"],
			WriteTimeout:    *durations["SERVER_WRITE_TIMEOUT"],
			RequestTimeout:  *durations["SERVER_REQUEST_TIMEOUT"],
			ShutdownTimeout: *durations["SERVER_SHUTDOWN_TIMEOUT"],
			AllowedOrigins:  allowedOrigins,
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetString("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: *durations["DB_CONN_MAX_LIFETIME"],
			AutoMigrate:     viper.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		NATS: NATSConfig{
			URL: viper.GetString("NATS_URL"),
		},
		Cache: CacheConfig{
			ParkReviewsTTL: *durations["CACHE_TTL_PARK_REVIEWS"],
			ProfileTTL:     *durations["CACHE_TTL_PROFILE"],
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("AUTH_JWT_SECRET"),
			Issuer:    viper.GetString("AUTH_JWT_ISSUER"),
			Audience:  viper.GetString("AUTH_JWT_AUDIENCE"),
		},
		Storage: StorageConfig{
			Driver:              strings.ToLower(viper.GetString("STORAGE_DRIVER")),
			S3Bucket:            viper.GetString("STORAGE_S3_BUCKET"),
			S3Region:            viper.GetString("STORAGE_S3_REGION"),
			S3AccessKeyID:       viper.GetString("STORAGE_S3_ACCESS_KEY_ID"),
			S3SecretKey:         viper.GetString("STORAGE_S3_SECRET_ACCESS_KEY"),
			S3Endpoint:          viper.GetString("STORAGE_S3_ENDPOINT"),
			S3PublicBaseURL:     viper.GetString("STORAGE_S3_PUBLIC_BASE_URL"),
			CloudinaryCloudName: viper.GetString("STORAGE_CLOUDINARY_CLOUD_NAME"),
			CloudinaryAPIKey:    viper.GetString("STORAGE_CLOUDINARY_API_KEY"),
			CloudinaryAPISecret: viper.GetString("STORAGE_CLOUDINARY_API_SECRET"),
			CloudinaryFolder:    viper.GetString("STORAGE_CLOUDINARY_FOLDER"),
			OperationTimeout:    *durations["STORAGE_OPERATION_TIMEOUT"],
		},
		Images: ImagesConfig{
			ConverterURL:     viper.GetString("IMAGE_CONVERTER_URL"),
			ConverterTimeout: *durations["IMAGE_CONVERTER_TIMEOUT"],
		},
		Reconcile: ReconcileConfig{
			Interval: *durations["RECONCILE_INTERVAL"],
		},
		Observability: ObservabilityConfig{
			ServiceName:  viper.GetString("OTEL_SERVICE_NAME"),
			OTLPEndpoint: viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	return config, nil
}

// Validate checks settings the API server cannot run without
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least 32 characters")
	}

	switch c.Storage.Driver {
	case "s3":
		if c.Storage.S3Bucket == "" || c.Storage.S3Region == "" {
			return fmt.Errorf("STORAGE_S3_BUCKET and STORAGE_S3_REGION are required for the s3 driver")
		}
	case "cloudinary":
		if c.Storage.CloudinaryCloudName == "" || c.Storage.CloudinaryAPIKey == "" || c.Storage.CloudinaryAPISecret == "" {
			return fmt.Errorf("cloudinary credentials are required for the cloudinary driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}
