// Package validator checks that translated texts are in the expected target language.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/uxtran/internal/detector"
)

// minValidationLength is the minimum rune count required to attempt language detection.
// UI strings are short; below this the detector guesses.
const minValidationLength = 20

// Validator checks that a translation result is written in the expected target language.
// The underlying language detector is expensive to build; share the instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator on top of det, or a fresh detector when det is nil.
func New(det *detector.Detector) *Validator {
	if det == nil {
		det = detector.New()
	}
	return &Validator{det: det}
}

// IsValid returns true when translatedText appears to be written in targetLang.
//
// Short texts and texts whose language cannot be determined pass without
// error. When the detected language differs from targetLang the returned
// error names both codes.
func (v *Validator) IsValid(translatedText, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return true, nil
	}

	if !strings.EqualFold(detected, targetLang) {
		return false, fmt.Errorf("expected %s but detected %s", targetLang, detected)
	}

	return true, nil
}

// Mismatch is one text that failed IsValid.
type Mismatch struct {
	Index int
	Err   error
}

// Check runs IsValid over texts and returns the failures in order.
func (v *Validator) Check(texts []string, targetLang string) []Mismatch {
	var out []Mismatch
	for i, t := range texts {
		if ok, err := v.IsValid(t, targetLang); !ok {
			out = append(out, Mismatch{Index: i, Err: err})
		}
	}
	return out
}
