package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/valpere/uxtran/internal"
)

// Google uses the Cloud Translation API. It only serves translate requests
// and answers with a JSON array so the response goes through the same
// validation as generative backends.
type Google struct {
	credentials string
	apiKey      string
}

func NewGoogle(cfg Config) *Google {
	return &Google{
		credentials: cfg.Credentials,
		apiKey:      cfg.ResolveAPIKey(),
	}
}

func (s *Google) Name() string {
	return ProviderGoogle
}

func (s *Google) Supports(kind internal.ModeKind) bool {
	return kind == internal.KindTranslate
}

func (s *Google) clientOptions() ([]option.ClientOption, error) {
	switch {
	case s.credentials != "":
		return []option.ClientOption{option.WithCredentialsFile(s.credentials)}, nil
	case s.apiKey != "":
		return []option.ClientOption{option.WithAPIKey(s.apiKey)}, nil
	case os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "":
		return nil, nil
	default:
		return nil, ErrNoCredential
	}
}

func (s *Google) Complete(ctx context.Context, req Request) (string, error) {
	if !s.Supports(req.Mode.Kind) {
		return "", fmt.Errorf("%s: %w", req.Mode.Kind, ErrUnsupportedMode)
	}

	opts, err := s.clientOptions()
	if err != nil {
		return "", err
	}

	target, err := language.Parse(req.Mode.TargetLang)
	if err != nil {
		return "", fmt.Errorf("invalid target language: %w", err)
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	topts := &translate.Options{Format: translate.Text}
	if req.SourceLang != "" {
		if source, err := language.Parse(req.SourceLang); err == nil {
			topts.Source = source
		}
	}

	translations, err := client.Translate(ctx, req.Texts, target, topts)
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}

	out := make([]string, len(translations))
	for i, t := range translations {
		out[i] = t.Text
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode translations: %w", err)
	}
	return string(data), nil
}
