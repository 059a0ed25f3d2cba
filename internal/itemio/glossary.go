package itemio

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// GlossaryTerm is one entry of a glossary file.
type GlossaryTerm struct {
	SourceLang string `json:"source_lang" yaml:"source_lang"`
	TargetLang string `json:"target_lang" yaml:"target_lang"`
	Source     string `json:"source" yaml:"source"`
	Target     string `json:"target" yaml:"target"`
}

// ReadGlossary loads a YAML (or JSON) list of glossary terms.
func ReadGlossary(path string) ([]GlossaryTerm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read glossary: %w", err)
	}
	var terms []GlossaryTerm
	if err := yaml.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("failed to parse glossary: %w", err)
	}
	for i, t := range terms {
		if t.Source == "" || t.Target == "" || t.TargetLang == "" {
			return nil, fmt.Errorf("glossary entry %d: source, target and target_lang are required", i+1)
		}
	}
	return terms, nil
}
