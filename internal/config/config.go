// Package config loads application settings from the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. REPO_CARDS_CACHE_BACKEND.
const Prefix = "REPO_CARDS"

type Config struct {
	// GitHub
	GithubToken       string        `split_words:"true"`
	APIBaseURL        string        `envconfig:"API_BASE_URL" validate:"omitempty,url"`
	Transport         string        `default:"rest" validate:"oneof=rest graphql"`
	RequestsPerMinute int           `split_words:"true" default:"0" validate:"gte=0"`
	HTTPTimeout       time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s" validate:"gte=0"`

	// Cache
	CacheBackend string        `split_words:"true" default:"memory" validate:"oneof=memory bolt sqlite redis"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"10m" validate:"gt=0"`
	CacheSize    int           `split_words:"true" default:"256" validate:"gt=0"`
	BoltPath     string        `split_words:"true" default:"repo-cards.bolt" validate:"required_if=CacheBackend bolt"`
	SQLitePath   string        `envconfig:"SQLITE_PATH" default:"repo-cards.sqlite" validate:"required_if=CacheBackend sqlite"`
	RedisURL     string        `split_words:"true" validate:"required_if=CacheBackend redis"`

	// Rendering
	Locale string `default:"en-US" validate:"required"`

	// HTTP server
	ListenAddr string `split_words:"true" default:"localhost:8080" validate:"required"`
}

// Error is a validation failure for a single setting.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Message
}

// Load reads .env (if present) and the environment, then validates the result.
func Load(logger *log.Logger) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		logger.Printf("dotenv: %v", err)
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("env load: %w", err)
	}
	if cfg.GithubToken == "" {
		// Fall back to the variable the gh tooling uses.
		cfg.GithubToken = os.Getenv("GITHUB_TOKEN")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Printf("config loaded transport=%s cache=%s ttl=%s token_set=%t",
		cfg.Transport, cfg.CacheBackend, cfg.CacheTTL, cfg.GithubToken != "")
	return &cfg, nil
}

var validate = validator.New()

// Validate checks every setting and reports the first failure as an *Error.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &Error{Field: fe.Field(), Message: fmt.Sprintf("failed %q validation (value %v)", fe.Tag(), fe.Value())}
		}
		return fmt.Errorf("config validation: %w", err)
	}
	if c.Transport == "graphql" && c.GithubToken == "" {
		return &Error{Field: "GithubToken", Message: "a token is required for the graphql transport"}
	}
	return nil
}

func loadDotEnv() error {
	files := []string{".env"}
	if appEnv := strings.TrimSpace(os.Getenv("APP_ENV")); appEnv != "" {
		files = append(files, ".env."+appEnv)
	}

	var loadedAny bool
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		// Load never overrides variables that are already set.
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed loading %s: %w", f, err)
		}
		loadedAny = true
	}
	if !loadedAny {
		return fmt.Errorf("no .env files found (looked for: %s)", strings.Join(files, ", "))
	}
	return nil
}
