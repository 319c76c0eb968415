// Package report renders the outcome of a run as text, TOON or JSON, and
// previews index rewrites as unified diffs.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/phobologic/defsindex/internal/index"
	"github.com/phobologic/defsindex/internal/issue"
	"github.com/phobologic/defsindex/internal/model"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatTOON Format = "toon"
	FormatJSON Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatTOON, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, toon or json)", s)
}

// SuccessMessage is printed by the text report when nothing needs doing.
const SuccessMessage = "No errors or suggestions found. All definitions are correctly indexed."

// Input carries the run statistics that are not part of the parsed index.
type Input struct {
	IndexFile   string
	Threshold   float64
	Files       int
	Definitions int
	Placed      int
	Deferred    int
	Issues      issue.List
	Trace       []string
	Verbose     bool
}

// Summary counts the headline numbers of a run.
type Summary struct {
	Files       int `json:"files"`
	Definitions int `json:"definitions"`
	Placed      int `json:"placed"`
	Deferred    int `json:"deferred"`
	Errors      int `json:"errors"`
	Warnings    int `json:"warnings"`
}

// Report is the render-ready view of one run.
type Report struct {
	RunID     string
	IndexFile string
	Threshold float64

	Added      []*model.IndexEntry
	Unresolved []*model.IndexEntry
	Issues     issue.List
	Trace      []string
	Tree       []string
	Summary    Summary
}

// Build collects the added and unresolved expected entries of pi, and
// stamps the report with a fresh run id.
func Build(pi *model.ParsedIndex, in Input) *Report {
	r := &Report{
		RunID:     uuid.New().String(),
		IndexFile: in.IndexFile,
		Threshold: in.Threshold,
		Issues:    in.Issues.Sorted(),
		Summary: Summary{
			Files:       in.Files,
			Definitions: in.Definitions,
			Placed:      in.Placed,
			Deferred:    in.Deferred,
			Errors:      len(in.Issues.Errors()),
			Warnings:    len(in.Issues.Warnings()),
		},
	}

	for _, sec := range pi.OrderedSections() {
		for _, e := range sec.Expected.All() {
			if e.Status == model.StatusAdded {
				if e.SuggestedSection == "" {
					e.SuggestedSection = sec.Path()
				}
				r.Added = append(r.Added, e)
			}
		}
	}
	for _, bucket := range pi.UnsortedSections() {
		for _, e := range bucket.Expected.All() {
			if e.Status == model.StatusUnresolved {
				r.Unresolved = append(r.Unresolved, e)
			}
		}
	}
	byName := func(entries []*model.IndexEntry) {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	}
	byName(r.Added)
	byName(r.Unresolved)

	if in.Verbose {
		r.Trace = in.Trace
		r.Tree = index.RenderFullTree(pi)
	}
	return r
}

// Clean reports whether the run found nothing to change or flag.
func (r *Report) Clean() bool {
	return len(r.Issues) == 0 && len(r.Added) == 0 && len(r.Unresolved) == 0
}

// Write encodes the report in the given format.
func (r *Report) Write(w io.Writer, format Format, color bool) error {
	switch format {
	case FormatTOON:
		_, err := io.WriteString(w, r.TOON()+"\n")
		return err
	case FormatJSON:
		return r.WriteJSON(w)
	default:
		return r.WriteText(w, color)
	}
}

func pct(score float64) int {
	return int(score * 100)
}
