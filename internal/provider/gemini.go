package provider

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ds124wfegd/imagecaption/internal/entity"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

type geminiProvider struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	prompt    string
}

// NewGeminiProvider falls back to GEMINI_API_KEY when apiKey is empty.
func NewGeminiProvider(ctx context.Context, apiKey, model, prompt string) (DescriptionProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("gemini: api key is not set")
	}

	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &geminiProvider{
		client:    client,
		model:     client.GenerativeModel(model),
		modelName: model,
		prompt:    promptOrDefault(prompt),
	}, nil
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) Describe(ctx context.Context, image entity.Image) (string, error) {
	resp, err := p.model.GenerateContent(ctx,
		genai.ImageData(geminiFormat(image), image.Data),
		genai.Text(p.prompt),
	)
	if err != nil {
		return "", fmt.Errorf("gemini: generate with model %s: %w", p.modelName, err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		break
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyDescription
	}
	return text, nil
}

func (p *geminiProvider) Close() error {
	return p.client.Close()
}

func geminiFormat(image entity.Image) string {
	switch f := image.Format(); f {
	case "jpg", "pjpeg":
		return "jpeg"
	default:
		return f
	}
}
