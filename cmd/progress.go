/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/valpere/uxtran/internal"
)

// progressPrinter renders pipeline progress and the final summary on w.
type progressPrinter struct {
	w       io.Writer
	counter lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	r := lipgloss.NewRenderer(w)
	return &progressPrinter{
		w:       w,
		counter: r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

func (p *progressPrinter) Print(ev internal.Progress) {
	fmt.Fprintf(p.w, "%s %s\n", p.counter.Render(fmt.Sprintf("[%d/%d]", ev.Current, ev.Total)), ev.Message)
}

func (p *progressPrinter) Summary(o *internal.Outcome) {
	line := fmt.Sprintf("%s: %d items, job %s", o.Mode, o.Len(), o.JobID)
	switch {
	case o.Cancelled:
		fmt.Fprintln(p.w, p.warn.Render("Cancelled after "+line))
	case o.DegradedCount() > 0:
		fmt.Fprintln(p.w, p.warn.Render(fmt.Sprintf("Done with fallbacks %s, %d degraded", line, o.DegradedCount())))
	default:
		fmt.Fprintln(p.w, p.ok.Render("Done "+line))
	}
}
