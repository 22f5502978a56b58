// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Provider names accepted in LLM_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const defaultSessionSecret = "supersecret"

// Default models per provider: a fast one for classification and a
// stronger one for generation.
var defaultModels = map[string]struct{ classifier, generator string }{
	ProviderOpenAI: {classifier: "gpt-3.5-turbo", generator: "gpt-4"},
	ProviderGemini: {classifier: "gemini-2.0-flash", generator: "gemini-2.5-pro"},
}

// Config holds all application configuration.
type Config struct {
	Port              string `validate:"required,numeric"`
	MaxInputBytes     int64  `validate:"gt=0"`
	TrustProxyHeaders bool
	LLM               LLMConfig
	Auth              AuthConfig
	RateLimit         RateLimitConfig
	Log               LogConfig
}

// LLMConfig selects the provider and the two models.
type LLMConfig struct {
	Provider        string        `validate:"oneof=openai gemini"`
	OpenAIAPIKey    string        `validate:"required_if=Provider openai"`
	OpenAIBaseURL   string        `validate:"omitempty,url"`
	GeminiAPIKey    string        `validate:"required_if=Provider gemini"`
	GeminiBaseURL   string        `validate:"omitempty,url"`
	ClassifierModel string        `validate:"required"`
	GeneratorModel  string        `validate:"required"`
	Timeout         time.Duration `validate:"gt=0"`
	MaxRetries      int           `validate:"gte=0,lte=10"`
	RetryDelay      time.Duration `validate:"gte=0"`
}

// AuthConfig holds the Basic auth credentials and the cookie signing secret.
type AuthConfig struct {
	Username      string `validate:"required"`
	Password      string `validate:"required"`
	SessionSecret string `validate:"required"`
}

// RateLimitConfig bounds prompts per client address.
type RateLimitConfig struct {
	MaxPrompts   int `validate:"gt=0"`
	MaxAddresses int `validate:"gte=0"`
}

// LogConfig controls the process logger and the two log files.
type LogConfig struct {
	Level         slog.Level
	Format        string `validate:"oneof=json text"`
	AuditPath     string `validate:"required"`
	PromptLogPath string `validate:"required"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	provider := strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", ProviderOpenAI)))
	models := defaultModels[provider]

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Port:          getEnv("PORT", "5000"),
		MaxInputBytes: int64(getEnvInt("MAX_INPUT_BYTES", 64<<10)),

		// Off by default: the per-address limit keys on the socket peer.
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
		LLM: LLMConfig{
			Provider:        provider,
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			GeminiBaseURL:   getEnv("GEMINI_BASE_URL", ""),
			ClassifierModel: getEnv("CLASSIFIER_MODEL", models.classifier),
			GeneratorModel:  getEnv("GENERATOR_MODEL", models.generator),
			Timeout:         getEnvDuration("LLM_TIMEOUT", 60*time.Second),
			MaxRetries:      getEnvInt("LLM_MAX_RETRIES", 0),
			RetryDelay:      getEnvDuration("LLM_RETRY_DELAY", time.Second),
		},
		Auth: AuthConfig{
			Username:      getEnv("BASIC_AUTH_USERNAME", "demo"),
			Password:      getEnv("BASIC_AUTH_PASSWORD", ""),
			SessionSecret: getEnv("SESSION_SECRET", getEnv("FLASK_SECRET_KEY", defaultSessionSecret)),
		},
		RateLimit: RateLimitConfig{
			MaxPrompts:   getEnvInt("RATE_LIMIT_MAX_PROMPTS", 5),
			MaxAddresses: getEnvInt("RATE_LIMIT_MAX_ADDRESSES", 0),
		},
		Log: LogConfig{
			Level:         level,
			Format:        strings.ToLower(getEnv("LOG_FORMAT", "json")),
			AuditPath:     getEnv("LOG_PATH", "logs/prompts.log"),
			PromptLogPath: getEnv("PROMPT_LOG_PATH", "prompt_logs.txt"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks struct tags and the rules that span fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return err
	}
	if c.LLM.Timeout < time.Second {
		return fmt.Errorf("LLM_TIMEOUT must be at least 1s")
	}
	return nil
}

// UsesDefaultSecret reports whether cookies are signed with the built-in
// development secret.
func (c *Config) UsesDefaultSecret() bool {
	return c.Auth.SessionSecret == defaultSessionSecret
}

// Addr returns the listen address on all interfaces.
func (c *Config) Addr() string {
	return ":" + c.Port
}

var envNames = map[string]string{
	"Port":            "PORT",
	"MaxInputBytes":   "MAX_INPUT_BYTES",
	"Provider":        "LLM_PROVIDER",
	"OpenAIAPIKey":    "OPENAI_API_KEY",
	"OpenAIBaseURL":   "OPENAI_BASE_URL",
	"GeminiAPIKey":    "GEMINI_API_KEY",
	"GeminiBaseURL":   "GEMINI_BASE_URL",
	"ClassifierModel": "CLASSIFIER_MODEL",
	"GeneratorModel":  "GENERATOR_MODEL",
	"Timeout":         "LLM_TIMEOUT",
	"MaxRetries":      "LLM_MAX_RETRIES",
	"RetryDelay":      "LLM_RETRY_DELAY",
	"Username":        "BASIC_AUTH_USERNAME",
	"Password":        "BASIC_AUTH_PASSWORD",
	"SessionSecret":   "SESSION_SECRET",
	"MaxPrompts":      "RATE_LIMIT_MAX_PROMPTS",
	"MaxAddresses":    "RATE_LIMIT_MAX_ADDRESSES",
	"Format":          "LOG_FORMAT",
	"AuditPath":       "LOG_PATH",
	"PromptLogPath":   "PROMPT_LOG_PATH",
}

func fieldError(fe validator.FieldError) error {
	name, ok := envNames[fe.Field()]
	if !ok {
		name = fe.Namespace()
	}
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s cannot be empty", name)
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", name, fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s failed %q check (value %v)", name, fe.Tag(), fe.Value())
	}
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
