package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ErrInvalid is returned by Validate for unusable configuration.
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Server struct {
		Port               string `yaml:"port"`
		ReadTimeout        string `yaml:"read_timeout"`
		WriteTimeout       string `yaml:"write_timeout"`
		CORSAllowedOrigins string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`
	Store struct {
		URL    string `yaml:"url"`
		APIKey string `yaml:"api_key"`
		Driver string `yaml:"driver"`
	} `yaml:"store"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Auth struct {
		Secret        string `yaml:"secret"`
		SessionTTL    string `yaml:"session_ttl"`
		MaxAttempts   int    `yaml:"max_attempts"`
		AttemptWindow string `yaml:"attempt_window"`
	} `yaml:"auth"`
	Identity struct {
		ResolveTimeout string `yaml:"resolve_timeout"`
	} `yaml:"identity"`
	Quiz struct {
		Price float64 `yaml:"price"`
	} `yaml:"quiz"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Load reads YAML config from path, then applies .env and environment
// overrides. A missing file is not an error; Validate decides whether the
// result is usable.
func Load(path string) (Config, error) {
	cfg := Config{}
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, err
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	override(&cfg.Store.URL, "STORE_URL")
	override(&cfg.Store.APIKey, "STORE_API_KEY")
	override(&cfg.Store.Driver, "STORE_DRIVER")
	override(&cfg.Redis.Addr, "REDIS_ADDR")
	override(&cfg.Redis.Password, "REDIS_PASSWORD")
	override(&cfg.Auth.Secret, "JWT_SECRET")
	override(&cfg.Server.Port, "PORT")
	if v := os.Getenv("QUIZ_PRICE"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Quiz.Price = price
		}
	}
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = DriverPostgres
	}
	if cfg.Auth.MaxAttempts == 0 {
		cfg.Auth.MaxAttempts = 5
	}
	if cfg.Quiz.Price == 0 {
		cfg.Quiz.Price = 9.99
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate reports missing store values every command needs.
func (c Config) Validate() error {
	var missing []string
	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.URL == "" {
			missing = append(missing, "store.url (STORE_URL)")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%w: unknown store.driver %q", ErrInvalid, c.Store.Driver)
	}
	if c.Store.APIKey == "" {
		missing = append(missing, "store.api_key (STORE_API_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}
	return nil
}

// ValidateAuth reports missing values needed to issue sessions.
func (c Config) ValidateAuth() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("%w: missing auth.secret (JWT_SECRET)", ErrInvalid)
	}
	return nil
}

// AllowedOrigins splits server.cors_allowed_origins on commas.
func (c Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.Server.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
