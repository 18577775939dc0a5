// Package config loads bot settings from an optional file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session backends.
const (
	BackendRedis    = "redis"
	BackendDynamoDB = "dynamodb"
	BackendFile     = "file"
)

// Config is the bot configuration.
type Config struct {
	BotToken      string   `mapstructure:"bot_token"`
	AllowedUsers  []string `mapstructure:"allowed_users"`
	LogLevel      string   `mapstructure:"log_level"`
	ProxyURL      string   `mapstructure:"proxy_url"`
	Workers       int      `mapstructure:"workers"`
	MenuPageLimit int      `mapstructure:"menu_page_limit"`
	VerifyCartAdd bool     `mapstructure:"verify_cart_add"`
	MetricsAddr   string   `mapstructure:"metrics_addr"`

	Commerce Commerce `mapstructure:"commerce"`
	Session  Session  `mapstructure:"session"`
}

// Commerce configures the backend client and the credential cache.
type Commerce struct {
	BaseURL      string        `mapstructure:"base_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// Session selects and configures the session store.
type Session struct {
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
	DynamoDBTable string        `mapstructure:"dynamodb_table"`
	FilePath      string        `mapstructure:"file_path"`
}

// envBindings maps config keys to the environment variables the bot has
// always been deployed with.
var envBindings = map[string]string{
	"bot_token":              "TG_TOKEN",
	"log_level":              "LOG_LEVEL",
	"commerce.base_url":      "MOLTIN_API_BASE_URL",
	"commerce.client_id":     "CLIENT_ID",
	"commerce.client_secret": "CLIENT_SECRET",
	"session.redis_password": "DATABASE_PASSWORD",
	"session.backend":        "SESSION_BACKEND",
	"session.dynamodb_table": "DYNAMODB_TABLE",
	"metrics_addr":           "METRICS_ADDR",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("workers", 4)
	v.SetDefault("menu_page_limit", 8)
	v.SetDefault("commerce.base_url", "https://api.moltin.com")
	v.SetDefault("commerce.token_ttl", time.Hour)
	v.SetDefault("commerce.timeout", 30*time.Second)
	v.SetDefault("session.backend", BackendRedis)
	v.SetDefault("session.redis_addr", "localhost:6379")
}

// Load reads the config file at path, when present, and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// DATABASE_HOST/DATABASE_PORT override the configured redis address.
	if host, port := os.Getenv("DATABASE_HOST"), os.Getenv("DATABASE_PORT"); host != "" || port != "" {
		cfgHost, cfgPort, err := net.SplitHostPort(v.GetString("session.redis_addr"))
		if err != nil {
			cfgHost, cfgPort = "localhost", "6379"
		}
		if host == "" {
			host = cfgHost
		}
		if port == "" {
			port = cfgPort
		}
		v.Set("session.redis_addr", net.JoinHostPort(host, port))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Session.Backend = strings.ToLower(cfg.Session.Backend)
	return &cfg, nil
}

// Validate checks that the settings needed to start are present.
func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("bot_token is required"))
	}
	if c.Commerce.ClientID == "" {
		errs = append(errs, errors.New("commerce.client_id is required"))
	}
	if c.Commerce.ClientSecret == "" {
		errs = append(errs, errors.New("commerce.client_secret is required"))
	}
	if c.Commerce.TokenTTL <= 0 {
		errs = append(errs, errors.New("commerce.token_ttl must be positive"))
	}
	if c.Workers < 1 {
		errs = append(errs, errors.New("workers must be at least 1"))
	}
	if c.MenuPageLimit < 0 {
		errs = append(errs, errors.New("menu_page_limit must not be negative"))
	}

	switch c.Session.Backend {
	case BackendRedis:
		if c.Session.RedisAddr == "" {
			errs = append(errs, errors.New("session.redis_addr is required for the redis backend"))
		}
	case BackendDynamoDB:
		if c.Session.DynamoDBTable == "" {
			errs = append(errs, errors.New("session.dynamodb_table is required for the dynamodb backend"))
		}
	case BackendFile:
	default:
		errs = append(errs, fmt.Errorf("unknown session.backend %q", c.Session.Backend))
	}
	return errors.Join(errs...)
}
