// Package report renders a job outcome as a Markdown review table, and that
// table as HTML or plain text.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/valpere/uxtran/internal"
)

// Markdown renders o as a heading, a summary line and one table row per entry.
func Markdown(o *internal.Outcome) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", title(o.Mode))
	fmt.Fprintf(&b, "Job `%s`: %d items, %d changed, %d degraded", o.JobID, o.Len(), changed(o), o.DegradedCount())
	if o.Cancelled {
		b.WriteString(", cancelled")
	}
	b.WriteString("\n\n")

	withReason := o.Mode.WithReason()
	if withReason {
		b.WriteString("| ID | Original | Result | Reason | Status |\n")
		b.WriteString("|----|----------|--------|--------|--------|\n")
	} else {
		b.WriteString("| ID | Original | Result | Status |\n")
		b.WriteString("|----|----------|--------|--------|\n")
	}

	for _, e := range o.Entries() {
		cells := []string{cell(e.ID), cell(e.Content), cell(e.TransformedContent)}
		if withReason {
			cells = append(cells, cell(e.Reason))
		}
		cells = append(cells, status(e))
		fmt.Fprintf(&b, "| %s |\n", strings.Join(cells, " | "))
	}
	return b.Bytes()
}

func title(m internal.Mode) string {
	switch m.Kind {
	case internal.KindTranslate:
		return fmt.Sprintf("Translation to %s", m.TargetLang)
	case internal.KindRewriteWithReason:
		return "UX rewrite with reasons"
	default:
		return "UX rewrite"
	}
}

func changed(o *internal.Outcome) int {
	n := 0
	for _, e := range o.Entries() {
		if e.Changed && !e.Degraded {
			n++
		}
	}
	return n
}

func status(e internal.Entry) string {
	switch {
	case e.Degraded:
		return "degraded"
	case e.Changed:
		return "changed"
	default:
		return "unchanged"
	}
}

var cellEscaper = strings.NewReplacer(
	"|", `\|`,
	"\r\n", "<br>",
	"\n", "<br>",
	"<", "&lt;",
	">", "&gt;",
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
)

// cell escapes text so it stays inside one table cell and renders literally.
func cell(s string) string {
	return cellEscaper.Replace(strings.TrimSpace(s))
}

func ToHTML(md []byte) string {
	opts := html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	}
	renderer := html.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes
	p := parser.NewWithExtensions(ext)
	doc := p.Parse(md)
	return string(markdown.Render(doc, renderer))
}

func ToPlainText(md []byte) string {
	return StripHTMLTags(ToHTML(md))
}

func StripHTMLTags(htmlContent string) string {
	var result bytes.Buffer
	inTag := false

	for _, ch := range htmlContent {
		switch ch {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				result.WriteRune(ch)
			}
		}
	}

	return result.String()
}

// Write renders o to path: .html gets a standalone page, .txt plain text,
// anything else Markdown.
func Write(path string, o *internal.Outcome) error {
	md := Markdown(o)

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		data = []byte(page(title(o.Mode), ToHTML(md)))
	case ".txt":
		data = []byte(ToPlainText(md))
	default:
		data = md
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func page(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 8px; vertical-align: top; }
</style>
</head>
<body>
%s</body>
</html>
`, title, body)
}
