package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Storage driver names accepted by StorageDriver
const (
	StorageDriverPostgres = "postgres"
	StorageDriverInMemory = "inmem"
)

var (
	ErrUnknownStorageDriver = errors.New("unknown storage driver")
	ErrMissingPostgresDSN   = errors.New("the PostgreSQL storage driver requires a DSN")
	ErrMissingOpsAPIToken   = errors.New("the operations API requires a bearer token")
)

// Config represents the application configuration structure
type Config struct {
	Environment string `default:"dev"`

	WebhookAPIListenAddress string `default:":8081" split_words:"true"`
	OpsAPIListenAddress     string `default:":8080" split_words:"true"`
	OpsAPIAllowedOrigin     string `default:"*" split_words:"true"`
	OpsAPIToken             string `split_words:"true"`

	StorageDriver string        `default:"postgres" split_words:"true"`
	PostgresDSN   string        `split_words:"true"`
	CacheLifetime time.Duration `default:"1m" split_words:"true"`

	TripletexBaseURL           string        `default:"https://tripletex.no/v2" split_words:"true"`
	TripletexConsumerToken     string        `split_words:"true"`
	TripletexEmployeeToken     string        `split_words:"true"`
	TripletexCompanyID         int           `default:"0" split_words:"true"`
	TripletexTimeout           time.Duration `default:"20s" split_words:"true"`
	TripletexSessionLifetime   time.Duration `default:"48h" split_words:"true"`
	TripletexRequestsPerSecond float64       `default:"0" split_words:"true"`
	TripletexWebhookSecret     string        `split_words:"true"`
}

// IsEnvProduction returns whether the application runs in production mode
func (config *Config) IsEnvProduction() bool {
	return strings.EqualFold(config.Environment, "prod") || strings.EqualFold(config.Environment, "production")
}

// Validate checks the combinations envconfig cannot express via tags
func (config *Config) Validate() error {
	switch config.StorageDriver {
	case StorageDriverPostgres:
		if config.PostgresDSN == "" {
			return ErrMissingPostgresDSN
		}
	case StorageDriverInMemory:
	default:
		return ErrUnknownStorageDriver
	}
	if config.OpsAPIToken == "" {
		return ErrMissingOpsAPIToken
	}
	return nil
}

// LoadFromEnv loads a new configuration structure using environment variables and an optional .env file
func LoadFromEnv() (*Config, error) {
	// Load a .env file if it exists
	_ = godotenv.Overload()

	// Load a new configuration structure using environment variables
	config := new(Config)
	if err := envconfig.Process("ttx", config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
