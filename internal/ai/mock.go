package ai

import (
	"context"
	"fmt"
	"math/rand"
)

// MockProvider simulates a slow generation backend. It waits for Delay (or
// context cancellation), then returns placeholder artwork.
type MockProvider struct {
	Delay Delayer
}

// Delayer abstracts the simulated processing interval so tests can run the
// provider without sleeping.
type Delayer interface {
	Wait(ctx context.Context) error
}

func NewMockProvider(d Delayer) *MockProvider {
	return &MockProvider{Delay: d}
}

func (p *MockProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationResult, error) {
	if p.Delay != nil {
		if err := p.Delay.Wait(ctx); err != nil {
			return nil, err
		}
	}

	n := rand.Intn(20) + 1
	prompt := input.SceneDescription
	if prompt == "" {
		prompt = "Generated image"
	}
	return &GenerationResult{
		ImageURL:     fmt.Sprintf("/mock-images/panel-%d.jpg", n),
		ThumbnailURL: fmt.Sprintf("/mock-images/thumb-%d.jpg", n),
		Width:        1024,
		Height:       576,
		PromptUsed:   prompt,
		Metadata: map[string]any{
			"model": "mock",
			"seed":  rand.Intn(9000) + 1000,
			"steps": 30,
		},
	}, nil
}
