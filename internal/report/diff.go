package report

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffContext is the number of unchanged lines around each hunk.
const DiffContext = 3

// Diff returns a unified diff turning before into after, or "" when they
// are equal.
func Diff(name, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	u := difflib.UnifiedDiff{
		A:        splitLinesKeepNL(before),
		B:        splitLinesKeepNL(after),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  DiffContext,
	}
	return difflib.GetUnifiedDiffString(u)
}

// splitLinesKeepNL keeps each line's newline so hunks print verbatim. A
// missing final newline is added so the last hunk line stays separate.
func splitLinesKeepNL(s string) []string {
	if s == "" {
		return []string{}
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if last := lines[len(lines)-1]; !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n"
	}
	return lines
}
