// Package backend adapts generative-language services to a single
// request/response contract: a system instruction and a user payload in,
// raw model text out.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/valpere/uxtran/internal"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderGoogle = "google"
	ProviderOllama = "ollama"

	DefaultTimeout = 60 * time.Second
)

var (
	// ErrNoCredential is returned before any network call when the backend
	// needs a credential and none is configured.
	ErrNoCredential = errors.New("no credential configured")

	// ErrUnsupportedMode is returned by backends that cannot serve a mode.
	ErrUnsupportedMode = errors.New("mode not supported by backend")
)

// Config selects and configures one backend.
type Config struct {
	Provider    string        `mapstructure:"provider" json:"provider"`
	Model       string        `mapstructure:"model" json:"model"`
	APIKey      string        `mapstructure:"api_key" json:"api_key"`
	APIKeyEnv   string        `mapstructure:"api_key_env" json:"api_key_env"`
	BaseURL     string        `mapstructure:"base_url" json:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" json:"timeout"`
	Credentials string        `mapstructure:"credentials" json:"credentials"`
	ProjectID   string        `mapstructure:"project_id" json:"project_id"`

	// RequestsPerMinute throttles calls; 0 disables throttling.
	RequestsPerMinute int `mapstructure:"requests_per_minute" json:"requests_per_minute"`
}

// Request is one backend call. SystemInstruction and UserPayload are what
// generative backends send; Texts, Mode and SourceLang let non-generative
// backends serve the same request.
type Request struct {
	SystemInstruction string
	UserPayload       string
	Texts             []string
	Mode              internal.Mode
	SourceLang        string
	Temperature       float32
	MaxOutputTokens   int
}

// Backend returns the raw text answer to a Request.
type Backend interface {
	Name() string
	Supports(kind internal.ModeKind) bool
	Complete(ctx context.Context, req Request) (string, error)
}

var defaultKeyEnv = map[string]string{
	ProviderOpenAI: "OPENAI_API_KEY",
	ProviderGemini: "GEMINI_API_KEY",
	ProviderGoogle: "GOOGLE_API_KEY",
}

// ResolveAPIKey returns the configured key, then the key named by APIKeyEnv,
// then the provider's conventional environment variable.
func (c Config) ResolveAPIKey() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.APIKeyEnv != "" {
		if v := os.Getenv(c.APIKeyEnv); v != "" {
			return v
		}
	}
	if env, ok := defaultKeyEnv[c.provider()]; ok {
		return os.Getenv(env)
	}
	return ""
}

func (c Config) provider() string {
	p := strings.ToLower(strings.TrimSpace(c.Provider))
	if p == "" {
		return ProviderOpenAI
	}
	return p
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// New builds the backend named by cfg.Provider. A missing credential is not
// an error here; the backend reports ErrNoCredential when called.
func New(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.provider() {
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg)
	case ProviderGoogle:
		return NewGoogle(cfg), nil
	case ProviderOllama:
		return NewOllama(cfg), nil
	default:
		return nil, fmt.Errorf("unknown backend provider %q", cfg.Provider)
	}
}

// Providers lists the names accepted by New.
func Providers() []string {
	return []string{ProviderOpenAI, ProviderGemini, ProviderGoogle, ProviderOllama}
}
