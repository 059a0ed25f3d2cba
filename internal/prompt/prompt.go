// Package prompt builds the instructions and payload of one batch request.
// All mode dispatch for the request side lives here.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/valpere/uxtran/internal"
	"github.com/valpere/uxtran/internal/placeholder"
)

// Languages are the target languages offered to users. Other codes are
// passed through to the backend as-is.
var Languages = []string{"ko", "en", "ja", "zh", "es", "fr", "de"}

var languageNames = map[string]string{
	"ko": "Korean",
	"en": "English",
	"ja": "Japanese",
	"zh": "Chinese",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
}

// Term is one glossary entry applied to translate requests.
type Term struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Options carry the optional context of a request.
type Options struct {
	// SourceLang is the detected source language code, empty when unknown.
	SourceLang string
	Glossary   []Term
	// Placeholders is set when the texts carry [PHn] markers.
	Placeholders bool
	// Tone overrides the per-item detected tone for rewrites.
	Tone string
	// Context describes the screen the texts belong to.
	Context string
}

// LanguageName returns the English name of a language code, falling back
// to the code itself.
func LanguageName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if name, ok := languageNames[code]; ok {
		return name
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

// System returns the system instruction for mode. texts are the (protected)
// texts of the chunk; rewrites derive per-item hints from them.
func System(mode internal.Mode, texts []string, opts Options) string {
	var b strings.Builder

	switch mode.Kind {
	case internal.KindTranslate:
		writeTranslate(&b, mode.TargetLang, opts)
	default:
		writeRewrite(&b, texts, opts)
	}

	if opts.Placeholders {
		b.WriteString("\n")
		b.WriteString(placeholder.InstructionHint())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(outputRule(mode, len(texts)))
	return b.String()
}

func writeTranslate(b *strings.Builder, target string, opts Options) {
	fmt.Fprintf(b, "You are a professional translator of user interface text. Translate each text to %s.\n", LanguageName(target))
	if opts.SourceLang != "" && !strings.EqualFold(opts.SourceLang, target) {
		fmt.Fprintf(b, "The texts are written in %s.\n", LanguageName(opts.SourceLang))
	}
	b.WriteString("Maintain the original tone and style. Keep translations as short as the interface requires.\n")

	if len(opts.Glossary) > 0 {
		b.WriteString("\nUse these glossary terms exactly:\n")
		for _, t := range opts.Glossary {
			fmt.Fprintf(b, "- %s => %s\n", t.Source, t.Target)
		}
	}
}

func writeRewrite(b *strings.Builder, texts []string, opts Options) {
	b.WriteString(`You are a UX writing expert specializing in clear, concise, and user-friendly interface text.

Improve each text following these principles:
- Clarity: make it immediately understandable
- Conciseness: remove unnecessary words
- User-friendliness: use language that feels natural and helpful
- Consistency: maintain an appropriate tone throughout
- Accessibility: consider diverse user needs

Rules:
1. Keep the core meaning intact
2. Make it more actionable and clear
3. Remove jargon and complex terms
4. Use active voice when possible
5. Keep the language of each text unchanged
`)
	ctx := opts.Context
	if ctx == "" {
		ctx = "General UI element"
	}
	fmt.Fprintf(b, "\nContext: %s\n", ctx)

	b.WriteString("\nElement type and desired tone per position:\n")
	for i, t := range texts {
		tone := opts.Tone
		if tone == "" {
			tone = DetectTone(t)
		}
		fmt.Fprintf(b, "%d. %s, %s\n", i+1, DetectElement(t), tone)
	}
}

func outputRule(mode internal.Mode, n int) string {
	if mode.WithReason() {
		return fmt.Sprintf(`Return ONLY a JSON array of exactly %d objects in the same order as the input, each of the form {"original": <input text>, "improved": <improved text>, "reason": <one short sentence>}. No prose, no code fences.`, n)
	}
	return fmt.Sprintf("Return ONLY a JSON array of exactly %d strings in the same order as the input. No prose, no code fences.", n)
}

// Payload renders the user message: the texts as a JSON array followed by
// the output rule.
func Payload(mode internal.Mode, texts []string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if texts == nil {
		texts = []string{}
	}
	if err := enc.Encode(texts); err != nil {
		return "", fmt.Errorf("failed to encode texts: %w", err)
	}
	return "Texts:\n" + buf.String() + "\n" + outputRule(mode, len(texts)), nil
}
