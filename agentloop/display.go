package agentloop

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Display writes the user-facing progress of a run. Styles come from a
// renderer bound to the writer, so output that is not a terminal stays plain.
type Display struct {
	w io.Writer

	label   lipgloss.Style
	dim     lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
}

// NewDisplay creates a Display writing to w.
func NewDisplay(w io.Writer) *Display {
	r := lipgloss.NewRenderer(w)
	return &Display{
		w:       w,
		label:   r.NewStyle().Foreground(lipgloss.Color("12")),
		dim:     r.NewStyle().Faint(true),
		success: r.NewStyle().Foreground(lipgloss.Color("10")),
		failure: r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// paint styles each line separately so that a color never spans a newline.
func paint(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

// Goal prints the user's goal once at the start of a run.
func (d *Display) Goal(goal string) {
	fmt.Fprintf(d.w, "%s %s\n", paint(d.label, "Goal:"), goal)
}

// Separator precedes every model turn.
func (d *Display) Separator() {
	fmt.Fprintln(d.w, "\n----------")
}

// Outcome prints the terminal banner and the model's closing context.
func (d *Display) Outcome(t Terminal) {
	if t.Succeeded() {
		fmt.Fprintln(d.w, paint(d.success, "✅ Goal successfully achieved."))
	} else {
		fmt.Fprintln(d.w, paint(d.failure, "❌ Goal failed."))
	}
	if t.Context != "" {
		fmt.Fprintln(d.w, t.Context)
	}
}

// Context prints the model's explanation; an empty context prints nothing.
func (d *Display) Context(context string) {
	if context == "" {
		return
	}
	fmt.Fprintf(d.w, "%s %s\n", paint(d.label, "Context:"), context)
}

// Command prints the command about to run; index is its position in the
// batch.
func (d *Display) Command(index int, command string) {
	if index > 0 {
		fmt.Fprintln(d.w)
	}
	fmt.Fprintf(d.w, "%s %s\n", paint(d.label, "Command:"), paint(d.dim, command))
}

// Result prints the colored exit code, then the output when there is any.
func (d *Display) Result(res *ExecResult) {
	style := d.success
	if res.ExitCode != 0 {
		style = d.failure
	}
	fmt.Fprintf(d.w, "%s %s\n", paint(style, "Exit code:"), paint(d.dim, fmt.Sprint(res.ExitCode)))
	if res.Output != "" {
		fmt.Fprintln(d.w, paint(d.dim, res.Output))
	}
}

// Error prints a fatal condition in red, prefixed with ERROR.
func (d *Display) Error(msg string) {
	fmt.Fprintln(d.w, paint(d.failure, "ERROR: "+msg))
}
