package provider

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/ds124wfegd/imagecaption/internal/entity"
)

var cannedDescriptions = []string{
	"A beautiful landscape featuring rolling hills covered in lush green grass, with a clear blue sky dotted with fluffy white clouds. The scene captures the tranquility of nature with warm sunlight illuminating the pastoral setting.",
	"A modern urban scene showing tall glass buildings reflecting the golden hour sunlight. People walk along busy sidewalks while cars move through the streets, creating a dynamic cityscape full of energy and movement.",
	"A cozy indoor scene with warm lighting, featuring comfortable furniture and decorative elements that create an inviting atmosphere. The space appears well-lived and thoughtfully designed with attention to both comfort and aesthetics.",
	"A close-up portrait showing detailed facial features with natural lighting that highlights the subject's expression. The image captures genuine emotion and personality through careful composition and focus.",
	"A vibrant food photograph displaying a carefully plated dish with rich colors and textures. The presentation appears professionally styled with attention to visual appeal and appetizing details.",
}

// mockProvider waits for a fixed delay and then picks a canned description.
// The image content is ignored.
type mockProvider struct {
	delay time.Duration
}

func NewMockProvider(delay time.Duration) DescriptionProvider {
	return &mockProvider{delay: delay}
}

func (p *mockProvider) Name() string {
	return "mock"
}

func (p *mockProvider) Describe(ctx context.Context, _ entity.Image) (string, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	return cannedDescriptions[rand.IntN(len(cannedDescriptions))], nil
}
