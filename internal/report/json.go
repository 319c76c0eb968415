package report

import (
	"encoding/json"
	"io"
)

type jsonEntry struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Source     string   `json:"source,omitempty"`
	Section    string   `json:"section,omitempty"`
	Confidence int      `json:"confidence"`
	Target     string   `json:"target,omitempty"`
	Reasons    []string `json:"reasons,omitempty"`
}

type jsonIssue struct {
	Code       string         `json:"code"`
	Severity   string         `json:"severity"`
	File       string         `json:"file,omitempty"`
	Line       int            `json:"line,omitempty"`
	Title      string         `json:"title"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

type jsonReport struct {
	RunID      string      `json:"run_id"`
	Index      string      `json:"index"`
	Threshold  float64     `json:"threshold"`
	Summary    Summary     `json:"summary"`
	Added      []jsonEntry `json:"added"`
	Unresolved []jsonEntry `json:"unresolved"`
	Issues     []jsonIssue `json:"issues"`
	Trace      []string    `json:"trace,omitempty"`
	Tree       []string    `json:"tree,omitempty"`
}

// WriteJSON writes the report as an indented JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	out := jsonReport{
		RunID:      r.RunID,
		Index:      r.IndexFile,
		Threshold:  r.Threshold,
		Summary:    r.Summary,
		Added:      []jsonEntry{},
		Unresolved: []jsonEntry{},
		Issues:     []jsonIssue{},
		Trace:      r.Trace,
		Tree:       r.Tree,
	}
	for _, e := range r.Added {
		out.Added = append(out.Added, jsonEntry{
			Name:       e.Name,
			Kind:       string(e.Kind),
			Source:     sourceLocation(e.SourceFile, e.SourceLine),
			Section:    e.SuggestedSection,
			Confidence: pct(e.Confidence),
			Target:     e.LinkTarget(),
		})
	}
	for _, e := range r.Unresolved {
		out.Unresolved = append(out.Unresolved, jsonEntry{
			Name:       e.Name,
			Kind:       string(e.Kind),
			Source:     sourceLocation(e.SourceFile, e.SourceLine),
			Section:    e.SuggestedSection,
			Confidence: pct(e.Confidence),
			Reasons:    e.Reasons,
		})
	}
	for _, is := range r.Issues {
		out.Issues = append(out.Issues, jsonIssue{
			Code:       string(is.Code),
			Severity:   string(is.Severity),
			File:       is.File,
			Line:       is.Line,
			Title:      is.Title,
			Message:    is.Message,
			Suggestion: is.Suggestion,
			Context:    is.Context,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
