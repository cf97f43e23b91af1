// Package ai provides the generative fallback used for texts too complex for
// the deterministic rewriter.
package ai

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

// Provider is a chat-completion transport.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// Complete sends one chat request and returns the content of the first choice.
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is a single chat completion request.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Config contains provider configuration.
type Config struct {
	// Provider is the provider name (openai, openai_compat, ollama).
	Provider string

	// APIKey is the bearer credential. It is held in memory only.
	APIKey string

	// BaseURL is the base URL for the API, including the /v1 suffix.
	BaseURL string

	// Model is the model to use.
	Model string

	// Temperature controls randomness. Kept near zero for stable output.
	Temperature float64

	// MaxTokens is the maximum tokens to generate.
	MaxTokens int

	// Timeout bounds one request, including reading the response.
	Timeout time.Duration

	// MaxAttempts is the number of tries per request. 1 means no retry.
	MaxAttempts int
}

// Default request settings.
const (
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 1000
	DefaultTimeout     = 30 * time.Second
	DefaultMaxAttempts = 1
)

// DefaultConfig returns default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:    "openai",
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// Factory creates a provider from configuration.
type Factory func(cfg *Config) (Provider, error)

var providers = make(map[string]Factory)

// RegisterProvider registers a provider factory.
func RegisterProvider(name string, factory Factory) {
	providers[name] = factory
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewProvider creates a provider from configuration.
func NewProvider(cfg *Config) (Provider, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: provider %q", converrors.ErrNotFound, cfg.Provider)
	}

	return factory(cfg)
}

var redactPatterns = []*regexp.Regexp{
	// API keys
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)["']?\s*[:=]\s*["']?[a-zA-Z0-9_\-]{20,}["']?`),
	regexp.MustCompile(`(?i)sk-[a-zA-Z0-9_\-]{20,}`),
	regexp.MustCompile(`(?i)pk-[a-zA-Z0-9_\-]{20,}`),
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	// Tokens
	regexp.MustCompile(`(?i)(token|access[_-]?token|refresh[_-]?token)["']?\s*[:=]\s*["']?[a-zA-Z0-9_\-\.~=]{20,}["']?`),
	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_\-\.~=]+`),
	// Secrets
	regexp.MustCompile(`(?i)(secret|secret[_-]?key)["']?\s*[:=]\s*["']?[a-zA-Z0-9_\-]{16,}["']?`),
}

// Redact masks credentials in s. Use it on anything derived from a provider
// response or error before it is logged.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for _, re := range redactPatterns {
		s = re.ReplaceAllString(s, "<REDACTED>")
	}
	return s
}
