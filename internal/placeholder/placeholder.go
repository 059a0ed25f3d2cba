// Package placeholder protects interpolation tokens and inline markup in UI
// strings ({name}, {{count}}, %s, %1$d, <b>…</b>, `code`) by replacing them
// with numbered markers ([PH0], [PH1], …) that models are told to preserve.
// After transformation, Restore substitutes the markers back.
package placeholder

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// inline code spans: `...`
	reInlineCode = regexp.MustCompile("`[^`]+`")

	// HTML/XML tags: opening, closing, and self-closing
	reHTMLTag = regexp.MustCompile(`<[^<>]+>`)

	// mustache / handlebars variables: {{ name }}
	reDoubleBrace = regexp.MustCompile(`\{\{[^{}]+\}\}`)

	// ICU / i18next style variables: {name}, {0}
	reSingleBrace = regexp.MustCompile(`\{[A-Za-z0-9_.\-]+\}`)

	// printf verbs, positional or not: %s, %d, %1$s, %.2f
	rePrintf = regexp.MustCompile(`%(?:\d+\$)?(?:\.\d+)?[sdifuxXv@]`)

	// placeholder reference in transformed text
	rePlaceholder = regexp.MustCompile(`\[PH(\d+)\]`)
)

// Protect replaces protected tokens with numbered placeholders in the order
// the patterns are applied. It returns the modified text and the captured
// originals so Restore can put them back.
func Protect(text string) (string, []string) {
	var markers []string

	replace := func(match string) string {
		id := fmt.Sprintf("[PH%d]", len(markers))
		markers = append(markers, match)
		return id
	}

	// Order matters: inline code first, then tags, then double braces before single.
	text = reInlineCode.ReplaceAllStringFunc(text, replace)
	text = reHTMLTag.ReplaceAllStringFunc(text, replace)
	text = reDoubleBrace.ReplaceAllStringFunc(text, replace)
	text = reSingleBrace.ReplaceAllStringFunc(text, replace)
	text = rePrintf.ReplaceAllStringFunc(text, replace)

	return text, markers
}

// ProtectAll applies Protect to every text and returns the per-text markers.
func ProtectAll(texts []string) ([]string, [][]string) {
	out := make([]string, len(texts))
	markers := make([][]string, len(texts))
	for i, t := range texts {
		out[i], markers[i] = Protect(t)
	}
	return out, markers
}

// Restore substitutes [PHn] markers in text back with the originals captured
// by Protect. Unrecognised indices leave the placeholder as-is.
func Restore(text string, markers []string) string {
	if len(markers) == 0 {
		return text
	}
	return rePlaceholder.ReplaceAllStringFunc(text, func(match string) string {
		sub := rePlaceholder.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// InstructionHint returns a short sentence to append to a system instruction
// so the model leaves placeholders intact.
func InstructionHint() string {
	return "Preserve all [PHn] markers exactly as they appear; do not translate, move, or remove them."
}

// Validate returns the indices of markers missing from the transformed text.
func Validate(text string, markers []string) []int {
	var missing []int
	for i := range markers {
		if !strings.Contains(text, fmt.Sprintf("[PH%d]", i)) {
			missing = append(missing, i)
		}
	}
	return missing
}

// Any reports whether at least one text carries markers.
func Any(markers [][]string) bool {
	for _, m := range markers {
		if len(m) > 0 {
			return true
		}
	}
	return false
}
