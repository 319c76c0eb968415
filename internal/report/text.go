package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/phobologic/defsindex/internal/issue"
)

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// issueGroup is one titled block of the text report. Codes outside every
// group print under "Other issues".
type issueGroup struct {
	title string
	codes []issue.Code
	// counted titles read "Found N <title>:".
	counted bool
}

var issueGroups = []issueGroup{
	{"Discovery errors", []issue.Code{issue.CodeDuplicateDefinition, issue.CodeReadError, issue.CodeIndexParse}, false},
	{"Canonical link warnings", []issue.Code{
		issue.CodeCanonicalInvalidLink, issue.CodeCanonicalFileNotFound,
		issue.CodeCanonicalUnsafePath, issue.CodeCanonicalAnchorNotFound,
	}, false},
	{"orphaned entry/entries in index", []issue.Code{issue.CodeOrphanedEntry}, true},
	{"definition(s) in wrong section", []issue.Code{issue.CodeWrongSection}, true},
	{"entry/entries with incorrect links", []issue.Code{issue.CodeIncorrectLink}, true},
	{"Ordering warnings", []issue.Code{issue.CodeEntryOrder}, false},
	{"Anchor errors", []issue.Code{
		issue.CodeDefinitionNotFound, issue.CodeDefinitionNotInTarget, issue.CodeTargetFileNotFound,
		issue.CodeAnchorNoMatch, issue.CodeDefinitionBeforeAnchor, issue.CodeDefinitionAfterAnchor,
		issue.CodeCodeBlockOutsideSection, issue.CodeCodeBlockNotGo, issue.CodeCodeBlockUnterminated,
		issue.CodeDefinitionNotInBlock,
	}, false},
	{"Description errors", []issue.Code{
		issue.CodeMissingDescription, issue.CodeDescriptionTooShort, issue.CodeDuplicateDescription,
	}, false},
}

// rendered elsewhere in the report, as entry blocks.
var entryCodes = map[issue.Code]bool{
	issue.CodeNotInIndex:    true,
	issue.CodeLowConfidence: true,
}

type textWriter struct {
	b     strings.Builder
	color bool
}

func (t *textWriter) style(s lipgloss.Style, text string) string {
	if !t.color {
		return text
	}
	return s.Render(text)
}

func (t *textWriter) line(format string, args ...any) {
	fmt.Fprintf(&t.b, format, args...)
	t.b.WriteByte('\n')
}

func (t *textWriter) heading(text string) {
	t.line("%s", t.style(headingStyle, text))
	t.line("")
}

func (t *textWriter) issue(is *issue.Issue) {
	sev := t.style(warningStyle, "warning")
	if is.Severity == issue.SeverityError {
		sev = t.style(errorStyle, "error")
	}
	loc := is.Location()
	if loc == "" {
		loc = "-"
	}
	t.line("  %s: %s: %s: %s", loc, sev, is.Title, is.Message)
	if is.Suggestion != "" {
		t.line("    %s", t.style(dimStyle, "Suggestion: "+is.Suggestion))
	}
}

// WriteText writes the human-readable report. color enables lipgloss styling.
func (r *Report) WriteText(w io.Writer, color bool) error {
	t := &textWriter{color: color}

	if r.Clean() {
		t.line("%s", t.style(successStyle, SuccessMessage))
		r.writeVerbose(t)
		_, err := io.WriteString(w, t.b.String())
		return err
	}

	grouped := make(map[issue.Code]issue.List)
	for _, is := range r.Issues {
		grouped[is.Code] = append(grouped[is.Code], is)
	}
	known := make(map[issue.Code]bool)
	writeGroup := func(g issueGroup) {
		var list issue.List
		for _, c := range g.codes {
			known[c] = true
			list = append(list, grouped[c]...)
		}
		if len(list) == 0 {
			return
		}
		if g.counted {
			t.heading(fmt.Sprintf("Found %d %s:", len(list), g.title))
		} else {
			t.heading(g.title + ":")
		}
		for _, is := range list.Sorted() {
			t.issue(is)
		}
		t.line("")
	}

	writeGroup(issueGroups[0])
	writeGroup(issueGroups[1])
	r.writeAdded(t)
	for _, g := range issueGroups[2:5] {
		writeGroup(g)
	}
	r.writeUnresolved(t)
	for _, g := range issueGroups[5:] {
		writeGroup(g)
	}

	var other issue.List
	for _, is := range r.Issues {
		if !known[is.Code] && !entryCodes[is.Code] {
			other = append(other, is)
		}
	}
	if len(other) > 0 {
		t.heading("Other issues:")
		for _, is := range other {
			t.issue(is)
		}
		t.line("")
	}

	r.writeVerbose(t)

	s := r.Summary
	t.line("%s %d files, %d definitions, %d placed, %d deferred, %s, %s",
		t.style(headingStyle, "Summary:"),
		s.Files, s.Definitions, s.Placed, s.Deferred,
		t.style(errorStyle, fmt.Sprintf("%d errors", s.Errors)),
		t.style(warningStyle, fmt.Sprintf("%d warnings", s.Warnings)))

	_, err := io.WriteString(w, t.b.String())
	return err
}

func (r *Report) writeAdded(t *textWriter) {
	if len(r.Added) == 0 {
		return
	}
	t.heading(fmt.Sprintf("Found %d high-confidence sorted definition(s) not in index:", len(r.Added)))
	for _, e := range r.Added {
		canonical := "(no canonical link)"
		if e.LinkFile != "" {
			canonical = e.LinkTarget()
		}
		t.line("  %s", e.Name)
		t.line("    - Kind: %s", e.Kind)
		if e.SourceFile != "" {
			t.line("    - File: %s:%d", e.SourceFile, e.SourceLine)
		}
		t.line("    - Suggested section: %s (confidence: %d%%)", e.SuggestedSection, pct(e.Confidence))
		t.line("    - Canonical location: %s", canonical)
	}
	t.line("")
}

func (r *Report) writeUnresolved(t *textWriter) {
	if len(r.Unresolved) == 0 {
		return
	}
	t.heading(fmt.Sprintf("Found %d definition(s) with low confidence (< %d%%) not in index:",
		len(r.Unresolved), pct(r.Threshold)))
	for _, e := range r.Unresolved {
		suggested := e.SuggestedSection
		if suggested == "" {
			suggested = "(unresolved)"
		}
		reasoning := "no matches"
		if len(e.Reasons) > 0 {
			reasoning = strings.Join(e.Reasons, ", ")
		}
		t.line("  %s", e.Name)
		if e.SourceFile != "" {
			t.line("    - File: %s:%d", e.SourceFile, e.SourceLine)
		}
		t.line("    - Suggested section: %s (confidence: %d%%)", suggested, pct(e.Confidence))
		t.line("    - Reasoning: %s", reasoning)
		t.line("    - %s", t.style(dimStyle, "Manual review required - confidence too low for automatic placement"))
	}
	t.line("")
}

func (r *Report) writeVerbose(t *textWriter) {
	if len(r.Trace) > 0 {
		t.heading("Placement trace:")
		for _, l := range r.Trace {
			t.line("  %s", l)
		}
		t.line("")
	}
	if len(r.Tree) > 0 {
		t.heading("Expected index (full tree):")
		for _, l := range r.Tree {
			t.line("%s", l)
		}
	}
}
