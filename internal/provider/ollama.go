package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/ollama/ollama/api"
)

const defaultOllamaModel = "llama3.2-vision:11b"

type ollamaProvider struct {
	client *api.Client
	model  string
	prompt string
}

// NewOllamaProvider talks to an Ollama server at host, e.g. http://localhost:11434.
func NewOllamaProvider(host, model, prompt string) (DescriptionProvider, error) {
	base, err := url.Parse(strings.TrimSuffix(host, "/"))
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid host %q: %w", host, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ollama: invalid host %q: scheme and host are required", host)
	}

	if model == "" {
		model = defaultOllamaModel
	}

	return &ollamaProvider{
		client: api.NewClient(base, http.DefaultClient),
		model:  model,
		prompt: promptOrDefault(prompt),
	}, nil
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

func (p *ollamaProvider) Describe(ctx context.Context, image entity.Image) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  p.model,
		Prompt: p.prompt,
		Images: []api.ImageData{image.Data},
		Stream: &stream,
	}

	var sb strings.Builder
	err := p.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama: generate with model %s: %w", p.model, err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyDescription
	}
	return text, nil
}
