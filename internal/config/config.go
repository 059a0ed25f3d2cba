// Package config resolves the tool configuration once, from defaults, an
// optional .uxtran.yaml file, UXTRAN_* environment variables and bound
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/uxtran/internal/backend"
	"github.com/valpere/uxtran/internal/batch"
	"github.com/valpere/uxtran/internal/chunker"
	"github.com/valpere/uxtran/internal/orchestrator"
	"github.com/valpere/uxtran/internal/retry"
)

const (
	EnvPrefix = "UXTRAN"
	FileName  = ".uxtran"
)

type ChunkConfig struct {
	MaxItems  int           `mapstructure:"max_items" json:"max_items"`
	MaxTokens int           `mapstructure:"max_tokens" json:"max_tokens"`
	Delay     time.Duration `mapstructure:"delay" json:"delay"`
}

type GenerationConfig struct {
	Temperature     float32 `mapstructure:"temperature" json:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens" json:"max_output_tokens"`
}

type RewriteConfig struct {
	Tone    string `mapstructure:"tone" json:"tone"`
	Context string `mapstructure:"context" json:"context"`
}

type Config struct {
	Backend    backend.Config      `mapstructure:"backend" json:"backend"`
	Chunk      ChunkConfig         `mapstructure:"chunk" json:"chunk"`
	Retry      retry.Config        `mapstructure:"retry" json:"retry"`
	Breaker    retry.BreakerConfig `mapstructure:"breaker" json:"breaker"`
	Generation GenerationConfig    `mapstructure:"generation" json:"generation"`
	Rewrite    RewriteConfig       `mapstructure:"rewrite" json:"rewrite"`
	LogLevel   string              `mapstructure:"log_level" json:"log_level"`
}

// SetDefaults registers every key with its default so environment
// variables can override keys absent from the config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend.provider", backend.ProviderOpenAI)
	v.SetDefault("backend.model", "")
	v.SetDefault("backend.api_key", "")
	v.SetDefault("backend.api_key_env", "")
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.timeout", backend.DefaultTimeout)
	v.SetDefault("backend.credentials", "")
	v.SetDefault("backend.project_id", "")
	v.SetDefault("backend.requests_per_minute", 0)

	v.SetDefault("chunk.max_items", chunker.DefaultMaxItems)
	v.SetDefault("chunk.max_tokens", chunker.DefaultMaxTokens)
	v.SetDefault("chunk.delay", orchestrator.DefaultChunkDelay)

	v.SetDefault("retry.max_attempts", retry.DefaultMaxAttempts)
	v.SetDefault("retry.delay", retry.DefaultDelay)

	v.SetDefault("breaker.failures", 5)
	v.SetDefault("breaker.cooldown", 30*time.Second)

	v.SetDefault("generation.temperature", batch.DefaultTemperature)
	v.SetDefault("generation.max_output_tokens", batch.DefaultMaxOutputTokens)

	v.SetDefault("rewrite.tone", "")
	v.SetDefault("rewrite.context", "")

	v.SetDefault("log_level", "warn")
}

// Load reads file, or .uxtran.yaml from the working or home directory when
// file is empty, and returns the merged configuration. A missing default
// config file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Chunk.MaxItems < 0 || c.Chunk.MaxTokens < 0 {
		return fmt.Errorf("chunk limits must not be negative")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must not be negative")
	}
	if c.Generation.Temperature < 0 || c.Generation.Temperature > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2")
	}
	known := false
	for _, p := range backend.Providers() {
		if strings.EqualFold(c.Backend.Provider, p) {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown backend provider %q (want one of %s)", c.Backend.Provider, strings.Join(backend.Providers(), ", "))
	}
	return nil
}

func (c *Config) Batch() batch.Config {
	return batch.Config{
		Temperature:       c.Generation.Temperature,
		MaxOutputTokens:   c.Generation.MaxOutputTokens,
		RequestsPerMinute: c.Backend.RequestsPerMinute,
		Tone:              c.Rewrite.Tone,
		Context:           c.Rewrite.Context,
	}
}

func (c *Config) Orchestrator() orchestrator.Config {
	return orchestrator.Config{
		Limits:     chunker.Limits{MaxItems: c.Chunk.MaxItems, MaxTokens: c.Chunk.MaxTokens},
		ChunkDelay: c.Chunk.Delay,
	}
}
