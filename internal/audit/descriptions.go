package audit

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/phobologic/defsindex/internal/index"
	"github.com/phobologic/defsindex/internal/issue"
	"github.com/phobologic/defsindex/internal/model"
)

// Descriptions checks the description of every current entry that is also
// expected somewhere in the index. minLength <= 0 selects
// index.MinDescriptionLength. Identical descriptions produce one issue per
// group naming every entry in it.
func Descriptions(pi *model.ParsedIndex, indexFile string, minLength int) issue.List {
	if minLength <= 0 {
		minLength = index.MinDescriptionLength
	}

	expected := make(map[string]*model.IndexEntry)
	for _, sec := range pi.AllSections() {
		for _, e := range sec.Expected.All() {
			if _, ok := expected[e.Name]; !ok {
				expected[e.Name] = e
			}
		}
	}

	var out issue.List
	var order []string
	groups := make(map[string][]*model.IndexEntry)

	for _, sec := range pi.OrderedSections() {
		for _, entry := range sec.Entries {
			exp, ok := expected[entry.Name]
			if !ok {
				continue
			}
			text := strings.TrimSpace(entry.Description)
			length := utf8.RuneCountInString(text)
			if length < minLength {
				out.Add(descriptionIssue(entry, exp, text, length, minLength).
					At(indexFile, entry.Line).
					WithContext(issue.CtxName, entry.Name).
					WithContext(issue.CtxSection, sec.Path()))
				continue
			}
			if _, seen := groups[text]; !seen {
				order = append(order, text)
			}
			groups[text] = append(groups[text], entry)
		}
	}

	for _, text := range order {
		entries := groups[text]
		if len(entries) < 2 {
			continue
		}
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = "`" + e.Name + "`"
		}
		out.Add(issue.Errorf(issue.CodeDuplicateDescription, "Duplicate description",
			"Multiple entries share the same description: %s", strings.Join(names, ", ")).
			At(indexFile, entries[0].Line).
			Suggest("Each entry should have a unique description").
			WithContext(issue.CtxName, entries[0].Name))
	}
	return out
}

func descriptionIssue(entry, exp *model.IndexEntry, text string, length, minLength int) *issue.Issue {
	var is *issue.Issue
	if text == "" {
		is = issue.Errorf(issue.CodeMissingDescription, "Missing description",
			"Entry `%s` has no descriptive text (minimum %d characters required)", entry.Name, minLength)
	} else {
		is = issue.Errorf(issue.CodeDescriptionTooShort, "Description too short",
			"Entry `%s` has descriptive text that is too short (%d characters, minimum %d required)",
			entry.Name, length, minLength)
	}
	if comment := strings.Join(strings.Fields(exp.DocComment), " "); comment != "" {
		return is.Suggest("Review the definition comments for potential summary: " + comment)
	}
	return is.Suggest(fmt.Sprintf("Add descriptive text (minimum %d characters) below this entry.", minLength))
}
