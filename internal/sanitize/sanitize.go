// Package sanitize isolates the handling of free-form model output.
//
// Backends are told to answer with a bare JSON array, but models still wrap
// it in prose, code fences or reasoning blocks. ExtractArray finds the first
// balanced, well-formed top-level JSON array in such text; CleanItem removes
// the artifacts models add to individual array elements.
package sanitize

import (
	"encoding/json"
	"regexp"
	"strings"
)

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks.
// Each tag variant is listed explicitly because Go's RE2 engine does not
// support backreferences.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>|<reflection>).*$`,
)

// fenceRe matches a code fence marker line opener such as ``` or ```json.
var fenceRe = regexp.MustCompile("(?m)^[ \t]*```[A-Za-z0-9_-]*[ \t]*$")

// edgeFenceRe matches fence markers at the very start or end of a
// single-line fenced answer: ```json [...] ```
var edgeFenceRe = regexp.MustCompile("\\A\\s*```[A-Za-z0-9_-]*|```\\s*\\z")

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// StripFences removes Markdown code fence marker lines, keeping their content.
func StripFences(text string) string {
	text = fenceRe.ReplaceAllString(text, "")
	text = edgeFenceRe.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.TrimSpace(text)
}

// ExtractArray returns the first well-formed top-level JSON array found in
// raw, after reasoning blocks and code fences are removed. Brackets inside
// JSON string literals are ignored while scanning. ok is false when no
// candidate parses as JSON.
func ExtractArray(raw string) (array string, ok bool) {
	text := StripFences(removeThinkingBlocks(raw))

	for start := strings.IndexByte(text, '['); start >= 0; {
		if end := matchBracket(text, start); end > start {
			candidate := text[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, true
			}
		}
		next := strings.IndexByte(text[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBracket returns the index of the ']' closing the '[' at start, or -1.
func matchBracket(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				if c != ']' {
					return -1
				}
				return i
			}
			if depth < 0 {
				return -1
			}
		}
	}
	return -1
}

// echoPatterns match introductory phrases that LLMs sometimes prepend even
// when instructed not to. Each pattern is anchored to the start of the string
// and requires a colon to reduce false positives on legitimate content.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:improved |rewritten |translated )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:improved |rewritten )?(?:translation|translated text|improved text)\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:improved |translated )?(?:translation|text)\s*:`),
}

func removeInstructionEchoes(text string) string {
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] == 0 {
			text = strings.TrimSpace(text[loc[1]:])
		}
	}
	return text
}

// removeQuoteWrapping strips a matching pair of outer quotes when the entire
// text is wrapped in them. Supported pairs:
//
//	"…"  '…'  «…»  “…”  ‘…’
func removeQuoteWrapping(text string) string {
	if !isQuoteWrapped(text) {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[1 : len(runes)-1]))
}

func isQuoteWrapped(text string) bool {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return false
	}
	first, last := runes[0], runes[n-1]
	return (first == '"' && last == '"') ||
		(first == '\'' && last == '\'') ||
		(first == '«' && last == '»') ||
		(first == '“' && last == '”') ||
		(first == '‘' && last == '’')
}

// CleanItem removes echo prefixes and outer quote wrapping that the model
// added to one returned element. Wrapping already present in source is kept.
func CleanItem(source, out string) string {
	out = strings.TrimSpace(out)
	if out == "" {
		return out
	}
	out = removeInstructionEchoes(out)
	if !isQuoteWrapped(strings.TrimSpace(source)) {
		out = removeQuoteWrapping(out)
	}
	return out
}
