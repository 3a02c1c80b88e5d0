package cli

import (
	"time"

	"github.com/txsentinel/txsentinel/internal/pkg/validator"

	"github.com/kelseyhightower/envconfig"
)

// Config is the process configuration, loaded from TXSENTINEL_* environment
// variables and validated before any service is built.
type Config struct {
	Network   string   `envconfig:"NETWORK" default:"eth" validate:"required,oneof=btc eth bsc"`
	Addresses []string `envconfig:"ADDRESSES"`

	PollInterval      time.Duration     `envconfig:"POLL_INTERVAL" default:"30s" validate:"required,gt=0"`
	ExplorerEndpoints map[string]string `envconfig:"EXPLORER_ENDPOINTS"`
	ExplorerAPIKey    string            `envconfig:"EXPLORER_API_KEY"`
	ExplorerTimeout   time.Duration     `envconfig:"EXPLORER_TIMEOUT" default:"10s" validate:"required,gt=0"`

	WSListenAddr string `envconfig:"WS_LISTEN_ADDR" default:":8765" validate:"required"`
	WebhookURL   string `envconfig:"WEBHOOK_URL" validate:"omitempty,url"`

	HighValueThreshold  string   `envconfig:"HIGH_VALUE_THRESHOLD" default:"1000000000000000000" validate:"required,number"`
	SuspiciousAddresses []string `envconfig:"SUSPICIOUS_ADDRESSES"`
	KnownSenders        []string `envconfig:"KNOWN_SENDERS"`
	NormalizeAddresses  bool     `envconfig:"NORMALIZE_ADDRESSES"`

	SanctionedAddresses  []string      `envconfig:"SANCTIONED_ADDRESSES"`
	ConfirmationInterval time.Duration `envconfig:"CONFIRMATION_INTERVAL" default:"30s" validate:"required,gt=0"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB"`

	LogLevel         string `envconfig:"LOG_LEVEL" default:"info" validate:"required"`
	TelemetryEnabled bool   `envconfig:"TELEMETRY_ENABLED"`
}

// LoadConfig reads and validates the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("txsentinel", &cfg); err != nil {
		return Config{}, err
	}

	if err := validator.Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
