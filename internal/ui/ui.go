// Package ui renders human-facing summaries of index and check passes and
// the GitHub Actions workflow annotations consumed by CI.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papapumpkin/kitchen/internal/catalog"
	"github.com/papapumpkin/kitchen/internal/uniqueness"
)

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // headings
	colorSuccess = lipgloss.Color("#00E676") // passed
	colorDanger  = lipgloss.Color("#FF5252") // failures
	colorAccent  = lipgloss.Color("#FFD700") // warnings
	colorMuted   = lipgloss.Color("#8C8C8C") // de-emphasized
)

var (
	styleHeading = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleError   = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleWarn    = lipgloss.NewStyle().Foreground(colorAccent)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
)

const (
	iconDone   = "✓"
	iconFailed = "✗"
	iconSkip   = "–"
)

// Printer writes results to the terminal. Annotations go to Out unstyled so
// the CI runner can parse them; everything else goes to Err.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New returns a Printer on stdout and stderr.
func New() *Printer {
	return &Printer{Out: os.Stdout, Err: os.Stderr}
}

// Error prints an error message.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.Err, "%s %s\n", styleError.Render("error:"), msg)
}

// Info prints a de-emphasized informational line.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.Err, styleMuted.Render(msg))
}

// Annotate prints a GitHub Actions workflow command such as
// "::error title=T::message". Title may be empty.
func (p *Printer) Annotate(level, title, msg string) {
	if title != "" {
		fmt.Fprintf(p.Out, "::%s title=%s::%s\n", level, escapeProperty(title), escapeData(msg))
		return
	}
	fmt.Fprintf(p.Out, "::%s::%s\n", level, escapeData(msg))
}

// IndexResult summarizes an index pass.
func (p *Printer) IndexResult(path string, m *catalog.Manifest, skipped []catalog.Skipped) {
	for _, s := range skipped {
		fmt.Fprintf(p.Err, "  %s %-28s %s\n",
			styleWarn.Render(iconSkip), s.Dir, styleMuted.Render(string(s.Reason)))
	}
	fmt.Fprintf(p.Err, "%s generated %s with %d recipes\n",
		styleSuccess.Render(iconDone), path, len(m.Recipes))
}

// IndexStale reports that the committed catalog differs from the tree.
func (p *Printer) IndexStale(path, diff string) {
	fmt.Fprintf(p.Err, "%s %s is out of date:\n", styleError.Render(iconFailed), path)
	fmt.Fprint(p.Out, diff)
}

// IndexFresh reports that the committed catalog matches the tree.
func (p *Printer) IndexFresh(path string, count int) {
	fmt.Fprintf(p.Err, "%s %s is up to date (%d recipes)\n", styleSuccess.Render(iconDone), path, count)
}

// CheckResult prints the outcome of a uniqueness pass. Conflicts are emitted
// as error annotations, one per identifier.
func (p *Printer) CheckResult(res uniqueness.Result) {
	if res.Passed() {
		fmt.Fprintf(p.Out, "identifier uniqueness check passed: %d unique recipes\n", res.Count)
		return
	}
	p.Annotate("error", "", "Duplicate identifiers found!")
	for _, c := range res.Conflicts {
		p.Annotate("error", "Duplicate identifier", c.Error())
	}
	fmt.Fprintf(p.Err, "%s %d identifier(s) claimed by more than one recipe\n",
		styleError.Render(iconFailed), len(res.Conflicts))
}

// RecipeIdentity describes one recipe for the id command.
type RecipeIdentity struct {
	Dir        string
	UUID       string
	Simplified string
	Fallback   bool
	Icon       string
	Screenshot string
}

// Identity prints the derived identity of a recipe directory.
func (p *Printer) Identity(r RecipeIdentity) {
	fmt.Fprintln(p.Out, styleHeading.Render(r.Dir))
	fmt.Fprintf(p.Out, "  uuid:        %s", r.UUID)
	if r.Fallback {
		fmt.Fprint(p.Out, styleWarn.Render("  (from directory name)"))
	}
	fmt.Fprintln(p.Out)
	fmt.Fprintf(p.Out, "  simplified:  %s\n", r.Simplified)
	fmt.Fprintf(p.Out, "  icon:        %s\n", orNone(r.Icon))
	fmt.Fprintf(p.Out, "  screenshot:  %s\n", orNone(r.Screenshot))
}

func orNone(s string) string {
	if s == "" {
		return styleMuted.Render("(none)")
	}
	return s
}

// escapeData escapes a workflow command message.
func escapeData(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A").Replace(s)
}

// escapeProperty escapes a workflow command property value.
func escapeProperty(s string) string {
	return strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C").Replace(s)
}
