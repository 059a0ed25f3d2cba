package backend

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/valpere/uxtran/internal"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini calls the Gemini API through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	key := cfg.ResolveAPIKey()
	if key == "" {
		return &Gemini{model: model}, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.timeout()},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (s *Gemini) Name() string {
	return ProviderGemini
}

func (s *Gemini) Supports(internal.ModeKind) bool {
	return true
}

func (s *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	if s.client == nil {
		return "", ErrNoCredential
	}

	gc := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(req.Temperature),
		ResponseMIMEType:  "application/json",
	}
	if req.MaxOutputTokens > 0 {
		gc.MaxOutputTokens = int32(req.MaxOutputTokens)
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(req.UserPayload), gc)
	if err != nil {
		return "", fmt.Errorf("generate content failed: %w", err)
	}
	return resp.Text(), nil
}
