package retry

import (
	"strings"

	"github.com/valpere/uxtran/internal"
)

const (
	// RewriteFailedSuffix marks a rewrite that fell back to the source text.
	RewriteFailedSuffix = " (improvement failed)"

	// FallbackReason is the reason reported for a fallen-back rewrite.
	FallbackReason = "processing error occurred"
)

var langTags = map[string]string{
	"en": "EN",
	"ja": "JP",
	"zh": "CN",
	"es": "ES",
	"fr": "FR",
	"de": "DE",
}

// LangTag returns the bracketed marker used for fallback translations.
func LangTag(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if tag, ok := langTags[lang]; ok {
		return "[" + tag + "]"
	}
	return "[" + strings.ToUpper(lang) + "]"
}

// FallbackTranslate is the deterministic offline stand-in for a translation.
func FallbackTranslate(text, lang string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	return LangTag(lang) + " " + text
}

// FallbackRewrite is the deterministic offline stand-in for a rewrite.
func FallbackRewrite(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	return text + RewriteFailedSuffix
}

// Fallback synthesizes one degraded output per text for mode.
func Fallback(texts []string, mode internal.Mode) Result {
	res := Result{Texts: make([]string, len(texts)), Degraded: true}

	for i, t := range texts {
		if mode.Kind == internal.KindTranslate {
			res.Texts[i] = FallbackTranslate(t, mode.TargetLang)
		} else {
			res.Texts[i] = FallbackRewrite(t)
		}
	}

	if mode.WithReason() {
		res.Improvements = make([]internal.ImprovementResult, len(texts))
		for i, t := range texts {
			reason := FallbackReason
			if strings.TrimSpace(t) == "" {
				reason = ""
			}
			res.Improvements[i] = internal.ImprovementResult{Original: t, Improved: res.Texts[i], Reason: reason}
		}
	}
	return res
}
