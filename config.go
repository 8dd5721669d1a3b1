package auth

import (
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration of the service. Values load
// from YAML and can be overridden through environment variables.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Auth struct {
		SigningKey             string `yaml:"signing_key"`
		Issuer                 string `yaml:"issuer"`
		AccessTokenTTLSeconds  int    `yaml:"access_token_ttl_seconds"`
		RefreshTokenTTLSeconds int    `yaml:"refresh_token_ttl_seconds"`
	} `yaml:"auth"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// DefaultConfig returns a config with the stock token lifetimes.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Auth.Issuer = "castlink"
	cfg.Auth.AccessTokenTTLSeconds = 1800
	cfg.Auth.RefreshTokenTTLSeconds = 604800
	cfg.Log.Level = "info"
	return cfg
}

// LoadConfig reads the YAML file at path, applies environment
// overrides, and validates the result. An empty path skips the file
// and builds the config from defaults plus environment alone.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "unable to read config file")
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "unable to parse config file")
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid configuration")
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CASTLINK_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CASTLINK_DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("CASTLINK_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CASTLINK_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("CASTLINK_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("CASTLINK_AUTH_SIGNING_KEY"); v != "" {
		c.Auth.SigningKey = v
	}
	if v := os.Getenv("CASTLINK_AUTH_ISSUER"); v != "" {
		c.Auth.Issuer = v
	}
	if v := os.Getenv("CASTLINK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks the fields the service cannot run without.
func (c *Config) Validate() error {
	if err := validation.Validate(c.Server.Addr, validation.Required); err != nil {
		return errors.New("server.addr is required", errors.CategoryValidation)
	}
	if err := validation.Validate(c.Auth.SigningKey, validation.Required, validation.Length(32, 0)); err != nil {
		return errors.New("auth.signing_key is required and must be at least 32 bytes", errors.CategoryValidation)
	}
	if c.Auth.AccessTokenTTLSeconds <= 0 {
		return errors.New("auth.access_token_ttl_seconds must be positive", errors.CategoryValidation)
	}
	if c.Auth.RefreshTokenTTLSeconds <= 0 {
		return errors.New("auth.refresh_token_ttl_seconds must be positive", errors.CategoryValidation)
	}
	return nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenTTLSeconds) * time.Second
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (c *Config) RefreshTokenTTL() time.Duration {
	return time.Duration(c.Auth.RefreshTokenTTLSeconds) * time.Second
}
