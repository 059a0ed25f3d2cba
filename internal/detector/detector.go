// Package detector guesses the source language of UI text so translate
// instructions can name it. Only the languages the tool targets are
// considered.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// Supported are the languages the detector distinguishes between.
var Supported = []lingua.Language{
	lingua.Korean,
	lingua.English,
	lingua.Japanese,
	lingua.Chinese,
	lingua.Spanish,
	lingua.French,
	lingua.German,
}

type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(Supported...).
		WithMinimumRelativeDistance(0.1).
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if strings.TrimSpace(text) == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lowercase ISO 639-1 code of the detected language.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// DetectBatch detects the language of the texts taken together. UI labels
// are often too short to classify one by one.
func (d *Detector) DetectBatch(texts []string) (string, bool) {
	var nonEmpty []string
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			nonEmpty = append(nonEmpty, t)
		}
	}
	return d.DetectISO(strings.Join(nonEmpty, "\n"))
}
