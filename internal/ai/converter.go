package ai

import (
	"context"
	"fmt"

	"github.com/chazuruo/tmplconv/internal/catalog"
	"github.com/chazuruo/tmplconv/internal/convert"
	converrors "github.com/chazuruo/tmplconv/internal/errors"
)

// Converter turns one text into a target expression through a Provider and
// gates the result with the output validator.
type Converter struct {
	provider Provider
	model    string
	temp     float64
	maxTok   int
	system   string
}

// NewConverter binds a provider to the prompt built from cat. A nil cfg uses
// DefaultConfig request settings.
func NewConverter(p Provider, cat *catalog.Catalog, cfg *Config) *Converter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	maxTok := cfg.MaxTokens
	if maxTok <= 0 {
		maxTok = DefaultMaxTokens
	}
	return &Converter{
		provider: p,
		model:    cfg.Model,
		temp:     cfg.Temperature,
		maxTok:   maxTok,
		system:   SystemPrompt(cat),
	}
}

// Name returns the underlying provider name.
func (c *Converter) Name() string {
	return c.provider.Name()
}

// Convert asks the provider for an expression for text. Every failure is a
// *errors.GenerativeError wrapping ErrGenerativeCall or ErrInvalidOutput.
func (c *Converter) Convert(ctx context.Context, text string) (string, error) {
	content, err := c.provider.Complete(ctx, ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: c.system},
			{Role: "user", Content: UserPrompt(text)},
		},
		Temperature: c.temp,
		MaxTokens:   c.maxTok,
	})
	if err != nil {
		if _, ok := converrors.AsGenerativeError(err); ok {
			return "", err
		}
		return "", &converrors.GenerativeError{
			Provider: c.Name(),
			Err:      fmt.Errorf("%w: %v", converrors.ErrGenerativeCall, err),
		}
	}

	candidate := StripCodeFence(content)
	if candidate == "" {
		return "", &converrors.GenerativeError{
			Provider: c.Name(),
			Err:      fmt.Errorf("%w: empty content", converrors.ErrGenerativeCall),
		}
	}

	if err := convert.Validate(candidate); err != nil {
		return "", &converrors.GenerativeError{
			Provider: c.Name(),
			Err:      fmt.Errorf("%w: %v", converrors.ErrInvalidOutput, err),
		}
	}

	return candidate, nil
}
