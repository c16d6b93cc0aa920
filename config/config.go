package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	StorageDriver    string        `envconfig:"STORAGE_DRIVER"     default:"postgres"`
	DatabaseURL      string        `envconfig:"DATABASE_URL"`
	HTTPPort         string        `envconfig:"HTTP_PORT"          default:":8080"`
	GrpcPort         string        `envconfig:"GRPC_PORT"          default:":50051"`
	LogLevel         string        `envconfig:"LOG_LEVEL"          default:"info"`
	JWTSecret        string        `envconfig:"JWT_SECRET"         required:"true"`
	TokenTTL         time.Duration `envconfig:"TOKEN_TTL"          default:"24h"`
	OTPTTL           time.Duration `envconfig:"OTP_TTL"            default:"5m"`
	RedisAddr        string        `envconfig:"REDIS_ADDR"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD"`
	RedisDB          int           `envconfig:"REDIS_DB"           default:"0"`
	KafkaBrokers     []string      `envconfig:"KAFKA_BROKERS"`
	KafkaStockTopic  string        `envconfig:"KAFKA_STOCK_TOPIC"  default:"inventory.stock"`
	SMTPHost         string        `envconfig:"SMTP_HOST"`
	SMTPPort         int           `envconfig:"SMTP_PORT"          default:"587"`
	SMTPUsername     string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword     string        `envconfig:"SMTP_PASSWORD"`
	MailFrom         string        `envconfig:"MAIL_FROM"          default:"no-reply@example.com"`
	CorsAllowOrigins []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"*"`
	AdminEmails      []string      `envconfig:"ADMIN_EMAILS"`
}

var (
	config Config
	once   sync.Once
)

// Load processes the environment into a fresh Config without touching the
// process-wide copy.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.StorageDriver = strings.ToLower(c.StorageDriver)
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("configuration error: DATABASE_URL is required for storage driver %q", c.StorageDriver)
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("configuration error: unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("configuration error: JWT_SECRET is not set")
	}
	if c.TokenTTL <= 0 || c.OTPTTL <= 0 {
		return fmt.Errorf("configuration error: TOKEN_TTL and OTP_TTL must be positive")
	}
	return nil
}

func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		cfg, err := Load()
		if err != nil {
			logger.Fatalf("Failed to load configuration: %v", err)
		}
		config = *cfg

		logger.Infof("Configuration loaded: Storage=%s, HTTP Port=%s, GRPC Port=%s, LogLevel=%s",
			config.StorageDriver, config.HTTPPort, config.GrpcPort, config.LogLevel)
		if config.DatabaseURL != "" {
			logger.Info("Configuration loaded: DatabaseURL is set")
		}
	})
	return &config
}
