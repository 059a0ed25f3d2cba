// Package batch issues one structured request per chunk of texts and
// validates the answer against the request shape.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/valpere/uxtran/internal"
	"github.com/valpere/uxtran/internal/backend"
	"github.com/valpere/uxtran/internal/detector"
	"github.com/valpere/uxtran/internal/logging"
	"github.com/valpere/uxtran/internal/placeholder"
	"github.com/valpere/uxtran/internal/prompt"
	"github.com/valpere/uxtran/internal/sanitize"
	"github.com/valpere/uxtran/internal/validator"
)

const (
	DefaultTemperature     = 0.3
	DefaultMaxOutputTokens = 4096
)

// Config tunes the generation parameters and rewrite hints of each request.
type Config struct {
	Temperature     float32 `mapstructure:"temperature" json:"temperature"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens" json:"max_output_tokens"`

	// RequestsPerMinute throttles backend calls; 0 disables throttling.
	RequestsPerMinute int `mapstructure:"requests_per_minute" json:"requests_per_minute"`

	// Tone and Context are passed to rewrite instructions.
	Tone    string `mapstructure:"tone" json:"tone"`
	Context string `mapstructure:"context" json:"context"`
}

// Glossary supplies terms that translate requests must use.
type Glossary interface {
	Terms(ctx context.Context, sourceLang, targetLang string) ([]prompt.Term, error)
}

// Result is the validated answer for one chunk, aligned with its input.
// Improvements is only set in rewrite-with-reason mode; Texts always is.
type Result struct {
	Texts        []string
	Improvements []internal.ImprovementResult
}

// Client turns a chunk of texts into one backend call.
type Client struct {
	backend  backend.Backend
	cfg      Config
	limiter  *rate.Limiter
	detector *detector.Detector
	glossary Glossary
	checker  *validator.Validator
	logger   *log.Logger
}

// Option configures optional collaborators of a Client.
type Option func(*Client)

// WithDetector names the detected source language in translate requests.
func WithDetector(d *detector.Detector) Option {
	return func(c *Client) { c.detector = d }
}

// WithValidator logs translations that do not look like the target language.
func WithValidator(v *validator.Validator) Option {
	return func(c *Client) { c.checker = v }
}

func WithGlossary(g Glossary) Option {
	return func(c *Client) { c.glossary = g }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = logging.WithPrefix(l, "batch") }
}

func New(b backend.Backend, cfg Config, opts ...Option) *Client {
	if cfg.Temperature <= 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	c := &Client{
		backend: b,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend returns the backend the client calls.
func (c *Client) Backend() backend.Backend {
	return c.backend
}

// ImproveOne rewrites a single text; it is Request over a list of one.
func (c *Client) ImproveOne(ctx context.Context, text string, withReason bool) (internal.ImprovementResult, error) {
	mode := internal.Rewrite()
	if withReason {
		mode = internal.RewriteWithReason()
	}
	res, err := c.Request(ctx, []string{text}, mode)
	if err != nil {
		return internal.ImprovementResult{}, err
	}
	if withReason {
		return res.Improvements[0], nil
	}
	return internal.ImprovementResult{Original: text, Improved: res.Texts[0]}, nil
}

// Request sends texts to the backend in one call and returns the validated,
// order-preserved result. Blank texts are not sent and come back unchanged.
func (c *Client) Request(ctx context.Context, texts []string, mode internal.Mode) (Result, error) {
	if err := mode.Validate(); err != nil {
		return Result{}, err
	}

	result := passThrough(texts, mode)

	var idx []int
	var pending []string
	for i, t := range texts {
		if strings.TrimSpace(t) != "" {
			idx = append(idx, i)
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return result, nil
	}

	protected, markers := placeholder.ProtectAll(pending)

	req, err := c.buildRequest(ctx, pending, protected, markers, mode)
	if err != nil {
		return Result{}, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	raw, err := c.backend.Complete(ctx, req)
	if err != nil {
		if errors.Is(err, backend.ErrNoCredential) {
			return Result{}, fmt.Errorf("%w: %s", ErrMissingCredential, c.backend.Name())
		}
		return Result{}, fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, c.backend.Name(), err)
	}

	if strings.TrimSpace(raw) == "" {
		return Result{}, ErrEmptyResponse
	}

	array, ok := sanitize.ExtractArray(raw)
	if !ok {
		return Result{}, ErrMalformedResponse
	}

	if mode.WithReason() {
		imps, err := c.parseImprovements(array, pending, markers)
		if err != nil {
			return Result{}, err
		}
		for k, i := range idx {
			result.Improvements[i] = imps[k]
			result.Texts[i] = imps[k].Improved
		}
	} else {
		out, err := c.parseTexts(array, pending, markers)
		if err != nil {
			return Result{}, err
		}
		for k, i := range idx {
			result.Texts[i] = out[k]
		}
		if mode.Kind == internal.KindTranslate && c.checker != nil {
			for _, m := range c.checker.Check(out, mode.TargetLang) {
				c.logger.Warn("response may not be translated", "element", idx[m.Index], "err", m.Err)
			}
		}
	}

	return result, nil
}

func (c *Client) buildRequest(ctx context.Context, pending, protected []string, markers [][]string, mode internal.Mode) (backend.Request, error) {
	opts := prompt.Options{
		Placeholders: placeholder.Any(markers),
		Tone:         c.cfg.Tone,
		Context:      c.cfg.Context,
	}

	if mode.Kind == internal.KindTranslate {
		if c.detector != nil {
			if lang, ok := c.detector.DetectBatch(pending); ok {
				opts.SourceLang = lang
			}
		}
		if c.glossary != nil {
			terms, err := c.glossary.Terms(ctx, opts.SourceLang, mode.TargetLang)
			if err != nil {
				c.logger.Warn("glossary lookup failed", "err", err)
			}
			opts.Glossary = relevantTerms(terms, pending)
		}
	}

	payload, err := prompt.Payload(mode, protected)
	if err != nil {
		return backend.Request{}, err
	}

	return backend.Request{
		SystemInstruction: prompt.System(mode, protected, opts),
		UserPayload:       payload,
		Texts:             protected,
		Mode:              mode,
		SourceLang:        opts.SourceLang,
		Temperature:       c.cfg.Temperature,
		MaxOutputTokens:   c.cfg.MaxOutputTokens,
	}, nil
}

// relevantTerms keeps the glossary terms that occur in at least one text.
func relevantTerms(terms []prompt.Term, texts []string) []prompt.Term {
	var out []prompt.Term
	for _, t := range terms {
		for _, text := range texts {
			if strings.Contains(text, t.Source) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func passThrough(texts []string, mode internal.Mode) Result {
	res := Result{Texts: make([]string, len(texts))}
	copy(res.Texts, texts)
	if mode.WithReason() {
		res.Improvements = make([]internal.ImprovementResult, len(texts))
		for i, t := range texts {
			res.Improvements[i] = internal.ImprovementResult{Original: t, Improved: t}
		}
	}
	return res
}

func decodeArray(array string, n int) ([]json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(array), &elems); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(elems) != n {
		return nil, fmt.Errorf("%w: expected %d elements, got %d", ErrShapeMismatch, n, len(elems))
	}
	return elems, nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// finish restores placeholders and cleans one returned element. ok is false
// when nothing is left of it.
func (c *Client) finish(i int, source, out string, markers []string) (string, bool) {
	if missing := placeholder.Validate(out, markers); len(missing) > 0 {
		c.logger.Warn("placeholder lost in response", "element", i, "missing", len(missing))
	}
	out = sanitize.CleanItem(source, placeholder.Restore(out, markers))
	return out, out != ""
}

func (c *Client) parseTexts(array string, sources []string, markers [][]string) ([]string, error) {
	elems, err := decodeArray(array, len(sources))
	if err != nil {
		return nil, err
	}

	out := make([]string, len(elems))
	for i, raw := range elems {
		s, ok := decodeString(raw)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not a string", ErrShapeMismatch, i)
		}
		if out[i], ok = c.finish(i, sources[i], s, markers[i]); !ok {
			return nil, fmt.Errorf("%w: element %d is empty", ErrShapeMismatch, i)
		}
	}
	return out, nil
}

func (c *Client) parseImprovements(array string, sources []string, markers [][]string) ([]internal.ImprovementResult, error) {
	elems, err := decodeArray(array, len(sources))
	if err != nil {
		return nil, err
	}

	out := make([]internal.ImprovementResult, len(elems))
	for i, raw := range elems {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrShapeMismatch, i)
		}

		fields := make(map[string]string, 3)
		for _, key := range []string{"original", "improved", "reason"} {
			v, ok := obj[key]
			if !ok {
				return nil, fmt.Errorf("%w: element %d has no %q", ErrShapeMismatch, i, key)
			}
			s, ok := decodeString(v)
			if !ok {
				return nil, fmt.Errorf("%w: element %d field %q is not a string", ErrShapeMismatch, i, key)
			}
			fields[key] = s
		}

		improved, ok := c.finish(i, sources[i], fields["improved"], markers[i])
		if !ok {
			return nil, fmt.Errorf("%w: element %d is empty", ErrShapeMismatch, i)
		}
		out[i] = internal.ImprovementResult{
			Original: sources[i],
			Improved: improved,
			Reason:   placeholder.Restore(fields["reason"], markers[i]),
		}
	}
	return out, nil
}

// Supports reports whether the backend can serve mode.
func (c *Client) Supports(mode internal.Mode) bool {
	return c.backend.Supports(mode.Kind)
}
