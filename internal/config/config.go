package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	ServerPort  string `mapstructure:"port" validate:"required,numeric"`
	Environment string `mapstructure:"environment" validate:"oneof=development production"`
	LogLevel    string `mapstructure:"log_level" validate:"oneof=debug info warn error"`

	// TokenSecret signs the `token` cookie.
	TokenSecret string `mapstructure:"access_token_secret" validate:"required"`

	StoreDriver      string        `mapstructure:"store_driver" validate:"oneof=mongo postgres memory"`
	MongoURI         string        `mapstructure:"mongo_uri" validate:"required_if=StoreDriver mongo"`
	MongoDatabase    string        `mapstructure:"mongo_database" validate:"required_if=StoreDriver mongo"`
	DatabaseURL      string        `mapstructure:"database_url" validate:"required_if=StoreDriver postgres"`
	DBMaxPoolSize    uint64        `mapstructure:"db_max_pool_size" validate:"gt=0"`
	DBConnectTimeout time.Duration `mapstructure:"db_connect_timeout" validate:"gt=0"`
	DBHealthTTL      time.Duration `mapstructure:"db_health_ttl"`

	CORSOrigins []string `mapstructure:"cors_origins"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

var defaults = map[string]any{
	"port":                "5000",
	"environment":         EnvDevelopment,
	"log_level":           "info",
	"access_token_secret": "",
	"store_driver":        DriverMongo,
	"mongo_uri":           "mongodb://localhost:27017",
	"mongo_database":      "TaskMateDB",
	"database_url":        "",
	"db_max_pool_size":    10,
	"db_connect_timeout":  5 * time.Second,
	"db_health_ttl":       10 * time.Second,
	"cors_origins":        []string{"https://job-task-cb3d2.web.app", "http://localhost:5173"},
}

// Load reads an optional .env file, then the process environment.
// Environment variables win over .env values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
