package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// GeminiProvider calls a hosted image-generation endpoint. It treats the
// backend as a black box: one POST, one JSON result or an error.
type GeminiProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

func NewGeminiProvider(baseURL, apiKey, model string) *GeminiProvider {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	if model == "" {
		model = "gemini-pro-vision"
	}
	return &GeminiProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type geminiGenerateReq struct {
	Model          string         `json:"model"`
	Prompt         string         `json:"prompt"`
	NegativePrompt string         `json:"negative_prompt,omitempty"`
	Style          map[string]any `json:"style,omitempty"`
	CharacterRefs  []string       `json:"character_refs,omitempty"`
}

type geminiGenerateResp struct {
	ImageURL     string         `json:"image_url"`
	ThumbnailURL string         `json:"thumbnail_url"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Error        string         `json:"error,omitempty"`
}

func (p *GeminiProvider) Generate(ctx context.Context, input GenerationInput) (*GenerationResult, error) {
	if p.Client == nil {
		return nil, errors.New("gemini: http client is nil")
	}

	b, err := json.Marshal(geminiGenerateReq{
		Model:          p.Model,
		Prompt:         input.SceneDescription,
		NegativePrompt: input.NegativePrompt,
		Style:          input.Style,
		CharacterRefs:  input.CharacterRefs,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/images:generate", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		req.Header.Set("X-Goog-Api-Key", p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini: status %d", resp.StatusCode)
	}

	var decoded geminiGenerateResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if decoded.Error != "" {
		return nil, errors.New(decoded.Error)
	}

	return &GenerationResult{
		ImageURL:     decoded.ImageURL,
		ThumbnailURL: decoded.ThumbnailURL,
		Width:        decoded.Width,
		Height:       decoded.Height,
		PromptUsed:   input.SceneDescription,
		Metadata:     decoded.Metadata,
	}, nil
}
