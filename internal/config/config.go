package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"development"`
	ServerPort string `env:"SERVER_PORT" envDefault:"3000"`
	APIPrefix  string `env:"API_PREFIX" envDefault:"api"`
	// BaseURL is the externally visible origin, used to build avatar URLs.
	BaseURL string `env:"BASE_URL"`

	JWTSecret    string        `env:"JWT_SECRET" envDefault:"change-me"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"24h"`
	JWTIssuer    string        `env:"JWT_ISSUER" envDefault:"trajectfit"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"mysql"`
	MySQLDSN    string `env:"MYSQL_DSN" envDefault:"user:password@tcp(localhost:3306)/trajectfit?charset=utf8mb4&parseTime=True&loc=UTC"`
	PostgresDSN string `env:"POSTGRES_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=trajectfit port=5432 sslmode=disable"`
	// ResetDB drops and recreates the schema on startup. Development only.
	ResetDB bool `env:"RESET_DB" envDefault:"false"`

	RedisAddr string `env:"REDIS_ADDR"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGODB_DATABASE" envDefault:"trajectfit"`

	KafkaBrokers   []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaGoalTopic string   `env:"KAFKA_GOAL_TOPIC" envDefault:"fitness-goals"`

	AvatarStorage string `env:"AVATAR_STORAGE" envDefault:"local"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"uploads/avatars"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	S3PublicURL   string `env:"S3_PUBLIC_URL"`

	SwaggerHost string `env:"SWAGGER_HOST"`

	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	SeedAdminUsername string `env:"SEED_ADMIN_USERNAME" envDefault:"admin"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`
}

// Load reads an optional .env file, then builds Config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.AvatarStorage {
	case "local", "s3":
	default:
		return fmt.Errorf("unsupported AVATAR_STORAGE %q", c.AvatarStorage)
	}
	if c.AvatarStorage == "s3" && c.S3Bucket == "" {
		return errors.New("S3_BUCKET is required when AVATAR_STORAGE=s3")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.IsProduction() && c.JWTSecret == "change-me" {
		return errors.New("JWT_SECRET must be changed in production")
	}
	if c.JWTExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	return nil
}

// Prefix is the API mount path, e.g. "/api".
func (c *Config) Prefix() string {
	p := strings.Trim(c.APIPrefix, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// AvatarBaseURL is where locally stored avatars are served from.
func (c *Config) AvatarBaseURL() string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = "http://localhost:" + c.ServerPort
	}
	return base + c.Prefix() + "/uploads/avatars"
}
