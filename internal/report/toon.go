package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phobologic/defsindex/internal/toon"
)

// TOON encodes the report as Token-Oriented Object Notation.
func (r *Report) TOON() string {
	var d toon.Document
	d.Field("run_id", r.RunID)
	d.Field("index", r.IndexFile)
	d.Field("threshold", strconv.FormatFloat(r.Threshold, 'f', -1, 64))

	s := r.Summary
	d.Table("summary", []string{"files", "definitions", "placed", "deferred", "errors", "warnings"}, [][]string{{
		strconv.Itoa(s.Files), strconv.Itoa(s.Definitions), strconv.Itoa(s.Placed),
		strconv.Itoa(s.Deferred), strconv.Itoa(s.Errors), strconv.Itoa(s.Warnings),
	}})

	var added [][]string
	for _, e := range r.Added {
		added = append(added, []string{
			e.Name,
			string(e.Kind),
			sourceLocation(e.SourceFile, e.SourceLine),
			e.SuggestedSection,
			strconv.Itoa(pct(e.Confidence)),
			e.LinkTarget(),
		})
	}
	d.Table("added", []string{"name", "kind", "source", "section", "confidence", "target"}, added)

	var unresolved [][]string
	for _, e := range r.Unresolved {
		unresolved = append(unresolved, []string{
			e.Name,
			sourceLocation(e.SourceFile, e.SourceLine),
			e.SuggestedSection,
			strconv.Itoa(pct(e.Confidence)),
			strings.Join(e.Reasons, "; "),
		})
	}
	d.Table("unresolved", []string{"name", "source", "suggested", "confidence", "reasons"}, unresolved)

	var issues [][]string
	for _, is := range r.Issues {
		issues = append(issues, []string{
			string(is.Code),
			string(is.Severity),
			is.File,
			strconv.Itoa(is.Line),
			is.Message,
			is.Suggestion,
		})
	}
	d.Table("issues", []string{"code", "severity", "file", "line", "message", "suggestion"}, issues)

	if len(r.Trace) > 0 {
		rows := make([][]string, len(r.Trace))
		for i, l := range r.Trace {
			rows[i] = []string{l}
		}
		d.Table("trace", []string{"line"}, rows)
	}
	return d.String()
}

func sourceLocation(file string, line int) string {
	if file == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", file, line)
}
