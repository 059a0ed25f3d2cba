package internal

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ModeKind selects the transformation applied to a batch of texts.
type ModeKind string

const (
	KindTranslate         ModeKind = "translate"
	KindRewrite           ModeKind = "rewrite"
	KindRewriteWithReason ModeKind = "rewrite-with-reason"
)

// Mode is the requested transformation. TargetLang is only meaningful for
// KindTranslate.
type Mode struct {
	Kind       ModeKind `json:"kind" yaml:"kind"`
	TargetLang string   `json:"target_lang,omitempty" yaml:"target_lang,omitempty"`
}

func Translate(targetLang string) Mode {
	return Mode{Kind: KindTranslate, TargetLang: strings.TrimSpace(targetLang)}
}

func Rewrite() Mode {
	return Mode{Kind: KindRewrite}
}

func RewriteWithReason() Mode {
	return Mode{Kind: KindRewriteWithReason}
}

// WithReason reports whether the backend must return {original, improved, reason} objects.
func (m Mode) WithReason() bool {
	return m.Kind == KindRewriteWithReason
}

func (m Mode) Validate() error {
	switch m.Kind {
	case KindTranslate:
		if m.TargetLang == "" {
			return fmt.Errorf("translate mode requires a target language")
		}
		return nil
	case KindRewrite, KindRewriteWithReason:
		return nil
	default:
		return fmt.Errorf("unknown mode %q", m.Kind)
	}
}

func (m Mode) String() string {
	if m.Kind == KindTranslate {
		return fmt.Sprintf("%s:%s", m.Kind, m.TargetLang)
	}
	return string(m.Kind)
}

// TextItem is a single text fragment supplied by the host surface.
type TextItem struct {
	ID      string `json:"id" yaml:"id"`
	Content string `json:"content" yaml:"content"`
}

// ImprovementResult is one element of a rewrite-with-reason response.
type ImprovementResult struct {
	Original string `json:"original" yaml:"original"`
	Improved string `json:"improved" yaml:"improved"`
	Reason   string `json:"reason" yaml:"reason"`
}

// Progress is emitted at chunk start and at job end.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// Entry is the transformed state of one TextItem.
type Entry struct {
	ID                 string `json:"id" yaml:"id"`
	Content            string `json:"content" yaml:"content"`
	TransformedContent string `json:"transformed_content" yaml:"transformed_content"`
	Reason             string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Degraded           bool   `json:"degraded" yaml:"degraded"`
	Changed            bool   `json:"changed" yaml:"changed"`
}

// Outcome accumulates entries in input order. Entries are only ever appended.
type Outcome struct {
	JobID     string `json:"job_id" yaml:"job_id"`
	Mode      Mode   `json:"mode" yaml:"mode"`
	Cancelled bool   `json:"cancelled" yaml:"cancelled"`

	entries []Entry
	index   map[string]int
}

func NewOutcome(jobID string, mode Mode) *Outcome {
	return &Outcome{JobID: jobID, Mode: mode, index: make(map[string]int)}
}

// Append adds an entry. Appending an id twice is a programming error.
func (o *Outcome) Append(e Entry) error {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if _, ok := o.index[e.ID]; ok {
		return fmt.Errorf("outcome already has an entry for id %q", e.ID)
	}
	e.Changed = Differs(e.Content, e.TransformedContent)
	o.index[e.ID] = len(o.entries)
	o.entries = append(o.entries, e)
	return nil
}

func (o *Outcome) Get(id string) (Entry, bool) {
	i, ok := o.index[id]
	if !ok {
		return Entry{}, false
	}
	return o.entries[i], true
}

// Entries returns a copy of the entries in input order.
func (o *Outcome) Entries() []Entry {
	out := make([]Entry, len(o.entries))
	copy(out, o.entries)
	return out
}

func (o *Outcome) Len() int {
	return len(o.entries)
}

// DegradedCount returns how many entries came from the fallback path.
func (o *Outcome) DegradedCount() int {
	n := 0
	for _, e := range o.entries {
		if e.Degraded {
			n++
		}
	}
	return n
}

// Transformed returns the id -> transformed content mapping handed back to the host.
func (o *Outcome) Transformed() map[string]string {
	m := make(map[string]string, len(o.entries))
	for _, e := range o.entries {
		m[e.ID] = e.TransformedContent
	}
	return m
}

// Differs compares two texts after NFC normalization and whitespace collapsing.
func Differs(a, b string) bool {
	return normalizeSpace(a) != normalizeSpace(b)
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
