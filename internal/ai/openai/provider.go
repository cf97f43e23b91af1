// Package openai provides an OpenAI-compatible chat completion provider.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/chazuruo/tmplconv/internal/ai"
	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	ollamaBaseURL  = "http://localhost:11434/v1"

	// noCredential marks providers that accept unauthenticated calls.
	noCredential = "not-needed"
)

// Provider is an OpenAI-compatible provider.
type Provider struct {
	name   string
	config ai.Config
	client *resty.Client
}

// NewProvider creates a provider named name. The client applies cfg.Timeout
// to every request and retries cfg.MaxAttempts-1 times (none by default).
// A missing API key yields ErrMissingCredential.
func NewProvider(name string, cfg *ai.Config) (*Provider, error) {
	if cfg == nil {
		cfg = ai.DefaultConfig()
	}
	c := *cfg

	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = ai.DefaultTimeout
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = ai.DefaultMaxAttempts
	}
	if c.Model == "" {
		return nil, fmt.Errorf("%w: %s provider needs a model", converrors.ErrInvalid, name)
	}
	if c.APIKey == "" {
		return nil, fmt.Errorf("%w: %s provider has no API key", converrors.ErrMissingCredential, name)
	}

	client := resty.New().
		SetTimeout(c.Timeout).
		SetRetryCount(c.MaxAttempts-1).
		SetBaseURL(strings.TrimRight(c.BaseURL, "/")).
		SetHeader("Content-Type", "application/json")

	return &Provider{name: name, config: c, client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return p.name
}

// chatResponse represents a chat API response.
type chatResponse struct {
	Choices []choice  `json:"choices"`
	Error   *apiError `json:"error,omitempty"`
}

// choice represents a choice in the response.
type choice struct {
	Message ai.Message `json:"message"`
}

// apiError represents an API error.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Complete posts req to {base}/chat/completions and returns the content of
// the first choice.
func (p *Provider) Complete(ctx context.Context, req ai.ChatRequest) (string, error) {
	if req.Model == "" {
		req.Model = p.config.Model
	}

	var out chatResponse
	r := p.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out)
	if p.config.APIKey != "" && p.config.APIKey != noCredential {
		r.SetAuthToken(p.config.APIKey)
	}

	resp, err := r.Post("/chat/completions")
	if err != nil {
		return "", p.fail(0, fmt.Errorf("%w: %s", converrors.ErrGenerativeCall, ai.Redact(err.Error())))
	}
	if resp.IsError() {
		msg := resp.Status()
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", p.fail(resp.StatusCode(), fmt.Errorf("%w: %s", converrors.ErrGenerativeCall, ai.Redact(msg)))
	}
	if out.Error != nil {
		return "", p.fail(resp.StatusCode(), fmt.Errorf("%w: %s", converrors.ErrGenerativeCall, ai.Redact(out.Error.Message)))
	}
	if len(out.Choices) == 0 {
		return "", p.fail(resp.StatusCode(), fmt.Errorf("%w: no choices in response", converrors.ErrGenerativeCall))
	}

	return out.Choices[0].Message.Content, nil
}

func (p *Provider) fail(status int, err error) error {
	return &converrors.GenerativeError{Provider: p.name, Status: status, Err: err}
}

func init() {
	ai.RegisterProvider("openai", func(cfg *ai.Config) (ai.Provider, error) {
		return NewProvider("openai", cfg)
	})
	ai.RegisterProvider("openai_compat", func(cfg *ai.Config) (ai.Provider, error) {
		return NewProvider("openai_compat", cfg)
	})
	ai.RegisterProvider("ollama", func(cfg *ai.Config) (ai.Provider, error) {
		if cfg == nil {
			cfg = ai.DefaultConfig()
		}
		c := *cfg
		if c.BaseURL == "" || c.BaseURL == defaultBaseURL {
			c.BaseURL = ollamaBaseURL
		}
		if c.APIKey == "" {
			c.APIKey = noCredential
		}
		return NewProvider("ollama", &c)
	})
}
