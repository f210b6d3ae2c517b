package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// SendParcel
	APIKey  string        `envconfig:"SENDPARCEL_API_KEY"`
	Sandbox bool          `envconfig:"SENDPARCEL_SANDBOX" default:"true"`
	Timeout time.Duration `envconfig:"SENDPARCEL_TIMEOUT" default:"30s"`
	UseMock bool          `envconfig:"SENDPARCEL_USE_MOCK" default:"false"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"sendparcel"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables, after loading
// an optional .env file from the working directory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// APIKEY is the variable name used by older setups.
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("APIKEY")
	}
	return &cfg, nil
}

// Validate checks that a usable client can be built from the configuration.
func (c *Config) Validate() error {
	if c.APIKey == "" && !c.UseMock {
		return errors.New("SENDPARCEL_API_KEY is required unless SENDPARCEL_USE_MOCK is set")
	}
	return nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("sendparcel.sandbox", c.Sandbox),
		attribute.Bool("sendparcel.mock", c.UseMock),
	}
}
