package index

import (
	"strings"
	"unicode/utf8"

	"github.com/phobologic/defsindex/internal/model"
)

// SyncExpectedDescriptions copies the description of each current entry onto
// the expected entry of the same name that has none.
func SyncExpectedDescriptions(pi *model.ParsedIndex) {
	descriptions := make(map[string]*model.IndexEntry)
	for _, sec := range pi.OrderedSections() {
		for _, entry := range sec.Current.All() {
			if len(entry.DescriptionLines) > 0 {
				descriptions[entry.Name] = entry
			}
		}
	}
	for _, sec := range pi.AllSections() {
		for _, entry := range sec.Expected.All() {
			if len(entry.DescriptionLines) > 0 {
				continue
			}
			if cur, ok := descriptions[entry.Name]; ok {
				entry.DescriptionLines = append([]string(nil), cur.DescriptionLines...)
				entry.DescriptionLayout = append([]string(nil), cur.DescriptionLayout...)
				entry.Description = cur.Description
				entry.HasDescription = cur.HasDescription
			}
		}
	}
}

// PopulateDescriptions fills expected entries that still have no description
// from their definition's doc comment, one sentence per bullet. Comments
// shorter than minLength are skipped. It returns the number of entries
// filled.
func PopulateDescriptions(pi *model.ParsedIndex, minLength int) int {
	if minLength <= 0 {
		minLength = MinDescriptionLength
	}
	filled := 0
	for _, sec := range pi.OrderedSections() {
		for _, entry := range sec.Expected.All() {
			if len(entry.DescriptionLines) > 0 {
				continue
			}
			comment := strings.Join(strings.Fields(entry.DocComment), " ")
			if utf8.RuneCountInString(comment) < minLength {
				continue
			}
			entry.DescriptionLines = sentences(comment)
			entry.Description = comment
			entry.HasDescription = true
			filled++
		}
	}
	return filled
}

func sentences(text string) []string {
	var out, cur []string
	for _, word := range strings.Fields(text) {
		cur = append(cur, word)
		if strings.HasSuffix(word, ".") || strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?") {
			out = append(out, strings.Join(cur, " "))
			cur = nil
		}
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}
