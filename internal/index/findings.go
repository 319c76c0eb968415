package index

import (
	"github.com/phobologic/defsindex/internal/issue"
	"github.com/phobologic/defsindex/internal/model"
)

// Findings turns the statuses set by Compare into issues: definitions
// missing from the index, orphaned entries, entries in the wrong section
// and stale links. Unresolved entries are reported by placement.
func Findings(pi *model.ParsedIndex, indexFile string) issue.List {
	var out issue.List
	for _, sec := range pi.OrderedSections() {
		path := sec.Path()
		for _, e := range sec.Expected.All() {
			switch e.Status {
			case model.StatusAdded:
				out.Add(issue.Errorf(issue.CodeNotInIndex, "Definition not in index",
					"`%s` is not in the index", e.Name).
					At(e.SourceFile, e.SourceLine).
					Suggest("Add to '"+path+"'").
					WithContext(issue.CtxName, e.Name).
					WithContext(issue.CtxSection, path))
			case model.StatusMoved:
				from := pi.FindSectionByCurrent(e.Name)
				if from == nil {
					continue
				}
				cur := from.Current.Get(e.Name)
				out.Add(issue.Errorf(issue.CodeWrongSection, "Wrong section",
					"`%s` in '%s'", e.Name, from.Path()).
					At(indexFile, cur.Line).
					Suggest("Move to '"+path+"'").
					WithContext(issue.CtxName, e.Name).
					WithContext(issue.CtxSection, path))
			}
		}

		for _, e := range sec.Current.All() {
			if e.Status == model.StatusOrphaned {
				out.Add(issue.Errorf(issue.CodeOrphanedEntry, "Orphaned entry",
					"`%s` not found in any tech spec file", e.Name).
					At(indexFile, e.Line).
					WithContext(issue.CtxName, e.Name).
					WithContext(issue.CtxSection, path))
			}
			if e.NeedsLinkUpdate {
				out.Add(issue.Errorf(issue.CodeIncorrectLink, "Incorrect link",
					"`%s`: %s", e.Name, e.LinkTarget()).
					At(indexFile, e.Line).
					Suggest("Update to: "+e.ExpectedTarget()).
					WithContext(issue.CtxName, e.Name).
					WithContext(issue.CtxTarget, e.ExpectedTarget()))
			}
		}
	}
	return out
}
