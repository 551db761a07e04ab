package ai

import "context"

// GenerationInput is the caller-supplied description of the artwork to
// produce. Style is opaque JSON except for the quality tier, which pricing
// reads upstream.
type GenerationInput struct {
	SceneDescription string         `json:"scene_description"`
	Style            map[string]any `json:"style,omitempty"`
	CharacterRefs    []string       `json:"character_refs,omitempty"`
	NegativePrompt   string         `json:"negative_prompt,omitempty"`
}

// GenerationResult is the successful outcome of one generation call.
type GenerationResult struct {
	ImageURL     string         `json:"image_url"`
	ThumbnailURL string         `json:"thumbnail_url"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	PromptUsed   string         `json:"prompt_used"`
	Metadata     map[string]any `json:"generation_metadata,omitempty"`
}

// Provider produces an image for the given input. Generate may block for the
// full duration of the generation; callers run it off the request path and
// should pass a cancellable context.
type Provider interface {
	Generate(ctx context.Context, input GenerationInput) (*GenerationResult, error)
}
