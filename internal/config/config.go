package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Clone     CloneConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	Schema       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN builds a postgres connection URL for the pgx driver
func (c DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	q := u.Query()
	q.Set("sslmode", c.SSLMode)
	if c.Schema != "" {
		q.Set("search_path", c.Schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host is configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

// StorageConfig selects and configures the blob store
type StorageConfig struct {
	Backend         string // "s3" or "gcs"
	Bucket          string
	Region          string
	Endpoint        string // S3-compatible endpoint, e.g. LocalStack
	PublicBaseURL   string
	UsePathStyle    bool
	AccessKeyID     string
	SecretAccessKey string
	CredentialsFile string // GCS service account file
}

// CloneConfig holds the clone pipeline limits
type CloneConfig struct {
	Timeout             time.Duration
	ImageFetchTimeout   time.Duration
	MaxImageBytes       int64
	BatchSize           int
	BatchPause          time.Duration
	DefaultListingLimit int
	DefaultMaxProducts  int
	LockTTL             time.Duration
	APIKey              string
	AdminRoles          []string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 20)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("REDIS_HOST", "")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 60)
	viper.SetDefault("STORAGE_BACKEND", "s3")
	viper.SetDefault("STORAGE_BUCKET", "storefront-images")
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_PATH_STYLE", true)
	viper.SetDefault("CLONE_TIMEOUT", "5m")
	viper.SetDefault("CLONE_IMAGE_TIMEOUT", "30s")
	viper.SetDefault("CLONE_MAX_IMAGE_BYTES", 10*1024*1024)
	viper.SetDefault("CLONE_BATCH_SIZE", 5)
	viper.SetDefault("CLONE_BATCH_PAUSE", "500ms")
	viper.SetDefault("CLONE_DEFAULT_LISTING_LIMIT", 50)
	viper.SetDefault("CLONE_MAX_PRODUCTS", 1000)
	viper.SetDefault("CLONE_LOCK_TTL", "10m")
	viper.SetDefault("CLONE_ADMIN_ROLES", "admin")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "storefront.clone-events")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 10)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			Database:     viper.GetString("DB_DATABASE"),
			Schema:       viper.GetString("DB_SCHEMA"),
			SSLMode:      viper.GetString("DB_SSLMODE"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: viper.GetInt("JWT_ACCESS_EXPIRY"),
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(viper.GetString("STORAGE_BACKEND")),
			Bucket:          viper.GetString("STORAGE_BUCKET"),
			Region:          viper.GetString("STORAGE_REGION"),
			Endpoint:        viper.GetString("STORAGE_ENDPOINT"),
			PublicBaseURL:   viper.GetString("STORAGE_PUBLIC_BASE_URL"),
			UsePathStyle:    viper.GetBool("STORAGE_PATH_STYLE"),
			AccessKeyID:     viper.GetString("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("AWS_SECRET_ACCESS_KEY"),
			CredentialsFile: viper.GetString("GCS_CREDENTIALS_FILE"),
		},
		Clone: CloneConfig{
			Timeout:             viper.GetDuration("CLONE_TIMEOUT"),
			ImageFetchTimeout:   viper.GetDuration("CLONE_IMAGE_TIMEOUT"),
			MaxImageBytes:       viper.GetInt64("CLONE_MAX_IMAGE_BYTES"),
			BatchSize:           viper.GetInt("CLONE_BATCH_SIZE"),
			BatchPause:          viper.GetDuration("CLONE_BATCH_PAUSE"),
			DefaultListingLimit: viper.GetInt("CLONE_DEFAULT_LISTING_LIMIT"),
			DefaultMaxProducts:  viper.GetInt("CLONE_MAX_PRODUCTS"),
			LockTTL:             viper.GetDuration("CLONE_LOCK_TTL"),
			APIKey:              viper.GetString("CLONE_API_KEY"),
			AdminRoles:          splitList(viper.GetString("CLONE_ADMIN_ROLES")),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(viper.GetString("KAFKA_BROKERS")),
			Topic:   viper.GetString("KAFKA_TOPIC"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}
}

// splitList parses a comma separated env value
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
