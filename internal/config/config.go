// Package config loads the graphvm tool configuration from the environment.
//
// Values come from GRAPHVM_* variables, optionally seeded from a .env file
// in the working directory. Variables already set in the environment win
// over the file.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/dshills/graphvm/graph/codec"
	"github.com/dshills/graphvm/graph/store"
)

// Providers lists the accepted GRAPHVM_LLM_PROVIDER values.
var Providers = []string{"anthropic", "openai", "google", "mock"}

// providerKeyEnv names the vendor variable consulted when
// GRAPHVM_LLM_API_KEY is unset.
var providerKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"google":    "GOOGLE_API_KEY",
}

// Config is the full tool configuration.
type Config struct {
	Store   StoreConfig   `json:"store"`
	LLM     LLMConfig     `json:"llm"`
	Log     LogConfig     `json:"log"`
	Metrics MetricsConfig `json:"metrics"`
}

// StoreConfig selects the persistence backend and blob encoding.
type StoreConfig struct {
	Driver      string `json:"driver" validate:"required,store_driver"`
	DSN         string `json:"dsn" validate:"required_unless=Driver memory"`
	Codec       string `json:"codec" validate:"oneof=json msgpack"`
	Compression string `json:"compression" validate:"oneof=none gzip zstd"`
}

// LLMConfig configures the advisor's chat model. An empty provider disables
// the advisor.
type LLMConfig struct {
	Provider   string        `json:"provider" validate:"omitempty,llm_provider"`
	Model      string        `json:"model"`
	APIKey     string        `json:"apiKey"`
	MaxRetries int           `json:"maxRetries" validate:"gte=0,lte=10"`
	Timeout    time.Duration `json:"timeout" validate:"gt=0"`
}

// LogConfig configures event output.
type LogConfig struct {
	Format  string `json:"format" validate:"oneof=text json"`
	Tracing bool   `json:"tracing"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `json:"addr" validate:"required"`
}

// Load reads .env (if present) and the environment, then validates.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			Driver:      getEnvWithDefault("GRAPHVM_STORE_DRIVER", "sqlite"),
			DSN:         getEnvWithDefault("GRAPHVM_STORE_DSN", "graphvm.db"),
			Codec:       getEnvWithDefault("GRAPHVM_CODEC", "msgpack"),
			Compression: getEnvWithDefault("GRAPHVM_COMPRESSION", "zstd"),
		},
		LLM: LLMConfig{
			Provider:   strings.ToLower(os.Getenv("GRAPHVM_LLM_PROVIDER")),
			Model:      os.Getenv("GRAPHVM_LLM_MODEL"),
			MaxRetries: getEnvAsInt("GRAPHVM_LLM_MAX_RETRIES", 2),
			Timeout:    getEnvAsDuration("GRAPHVM_LLM_TIMEOUT", 60*time.Second),
		},
		Log: LogConfig{
			Format:  getEnvWithDefault("GRAPHVM_LOG_FORMAT", "text"),
			Tracing: getEnvAsBool("GRAPHVM_TRACING", false),
		},
		Metrics: MetricsConfig{
			Addr: getEnvWithDefault("GRAPHVM_METRICS_ADDR", ":9090"),
		},
	}

	cfg.LLM.APIKey = os.Getenv("GRAPHVM_LLM_API_KEY")
	if cfg.LLM.APIKey == "" {
		if name, ok := providerKeyEnv[cfg.LLM.Provider]; ok {
			cfg.LLM.APIKey = os.Getenv(name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every field and reports all failures at once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// Serializer returns the blob serializer selected by the store settings.
func (c *Config) Serializer() (*codec.Serializer, error) {
	cd, err := codec.CodecByName(c.Store.Codec)
	if err != nil {
		return nil, err
	}
	comp, err := codec.ParseCompression(c.Store.Compression)
	if err != nil {
		return nil, err
	}
	return codec.NewSerializer(cd, comp), nil
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value,omitempty"`
	Message string      `json:"message"`
}

// ValidationErrors is every invalid field of a Config.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Field + ": " + e.Message
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("store_driver", func(fl validator.FieldLevel) bool {
		return contains(store.Drivers(), fl.Field().String())
	})
	_ = v.RegisterValidation("llm_provider", func(fl validator.FieldLevel) bool {
		return contains(Providers, fl.Field().String())
	})

	// Report fields by their json path, e.g. "store.driver".
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func formatValidationErrors(err error) error {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		out = append(out, ValidationError{
			Field:   ns,
			Value:   fe.Value(),
			Message: errorMessage(fe),
		})
	}
	return out
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "store_driver":
		return fmt.Sprintf("must be one of [%s]", strings.Join(store.Drivers(), " "))
	case "llm_provider":
		return fmt.Sprintf("must be one of [%s]", strings.Join(Providers, " "))
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return "must be positive"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
