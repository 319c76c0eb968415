package index

import (
	"sort"

	"github.com/phobologic/defsindex/internal/issue"
	"github.com/phobologic/defsindex/internal/model"
)

const maxOrderWarningsPerSection = 5

// CheckOrdering compares each section's current entries with their sorted
// order, marks out-of-place entries reordered and returns one warning per
// misplaced entry (at most five per section).
func CheckOrdering(pi *model.ParsedIndex, indexFile string) issue.List {
	var out issue.List
	for _, sec := range pi.OrderedSections() {
		if len(sec.Entries) < 2 {
			continue
		}
		sorted := append([]*model.IndexEntry(nil), sec.Entries...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return model.EntryLess(sorted[i], sorted[j])
		})

		mismatches := 0
		for i, entry := range sec.Entries {
			want := sorted[i]
			if entry.Name == want.Name {
				continue
			}
			if entry.Status == model.StatusNone || entry.Status == model.StatusPresent {
				entry.Status = model.StatusReordered
			}
			if exp := sec.Expected.Get(entry.Name); exp != nil && (exp.Status == model.StatusNone || exp.Status == model.StatusPresent) {
				exp.Status = model.StatusReordered
			}
			out.Add(issue.Warnf(issue.CodeEntryOrder, "Incorrect entry order",
				"`%s` appears before `%s`", entry.RawName, want.RawName).
				At(indexFile, entry.Line).
				Suggest("Reorder entries to maintain alphabetical ordering by name.").
				WithContext(issue.CtxSection, sec.Path()))

			mismatches++
			if mismatches >= maxOrderWarningsPerSection {
				out.Add(issue.Warnf(issue.CodeEntryOrder, "Incorrect entry order",
					"Additional ordering issues in '%s' omitted.", sec.Path()).
					At(indexFile, sec.Line))
				break
			}
		}
	}
	return out
}

// SortExpected orders the expected entries of every section, unsorted
// buckets included, with the same key CheckOrdering uses.
func SortExpected(pi *model.ParsedIndex) {
	for _, sec := range pi.AllSections() {
		sec.Expected.Sort()
	}
}
