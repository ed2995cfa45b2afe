package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ds124wfegd/imagecaption/config"
	"github.com/ds124wfegd/imagecaption/internal/entity"
)

var (
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrEmptyDescription    = errors.New("provider returned an empty description")
)

// DescriptionProvider turns an image into caption text.
type DescriptionProvider interface {
	Describe(ctx context.Context, image entity.Image) (string, error)
}

// Func adapts a plain function to DescriptionProvider.
type Func func(ctx context.Context, image entity.Image) (string, error)

func (f Func) Describe(ctx context.Context, image entity.Image) (string, error) {
	return f(ctx, image)
}

// Named is implemented by providers that know their backend name.
type Named interface {
	Name() string
}

// NameOf returns the backend name of p, or "custom" when p does not report one.
func NameOf(p DescriptionProvider) string {
	if n, ok := p.(Named); ok {
		return n.Name()
	}
	return "custom"
}

// New builds the provider selected by cfg.Name, wrapped with cfg.Timeout.
func New(ctx context.Context, cfg config.ProviderConfig) (DescriptionProvider, error) {
	var (
		p   DescriptionProvider
		err error
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "", "mock":
		p = NewMockProvider(cfg.MockDelay)
	case "ollama":
		p, err = NewOllamaProvider(cfg.OllamaHost, cfg.Model, cfg.Prompt)
	case "gemini":
		p, err = NewGeminiProvider(ctx, cfg.GeminiKey, cfg.Model, cfg.Prompt)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Name)
	}
	if err != nil {
		return nil, err
	}

	return WithTimeout(p, cfg.Timeout), nil
}

// Close releases the provider's resources if it holds any.
func Close(p DescriptionProvider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type timeoutProvider struct {
	next    DescriptionProvider
	timeout time.Duration
}

// WithTimeout bounds every Describe call by d. A zero d disables the bound.
func WithTimeout(p DescriptionProvider, d time.Duration) DescriptionProvider {
	if d <= 0 {
		return p
	}
	return &timeoutProvider{next: p, timeout: d}
}

func (t *timeoutProvider) Describe(ctx context.Context, image entity.Image) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Describe(ctx, image)
}

func (t *timeoutProvider) Name() string {
	return NameOf(t.next)
}

func (t *timeoutProvider) Close() error {
	return Close(t.next)
}

const defaultPrompt = "Describe this image in detail."

func promptOrDefault(prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return defaultPrompt
	}
	return prompt
}
