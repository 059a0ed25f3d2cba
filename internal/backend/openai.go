package backend

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/valpere/uxtran/internal"
)

const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI talks to the chat completions API or any compatible server.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(cfg Config) *OpenAI {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	key := cfg.ResolveAPIKey()
	if key == "" {
		return &OpenAI{model: model}
	}

	oc := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.timeout()}

	return &OpenAI{client: openai.NewClientWithConfig(oc), model: model}
}

func (s *OpenAI) Name() string {
	return ProviderOpenAI
}

func (s *OpenAI) Supports(internal.ModeKind) bool {
	return true
}

func (s *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	if s.client == nil {
		return "", ErrNoCredential
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: req.SystemInstruction,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.UserPayload,
			},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
