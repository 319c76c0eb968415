package index

import (
	"sort"

	"github.com/phobologic/defsindex/internal/model"
)

var statusMarkers = map[model.Status]string{
	model.StatusAdded:      " [ADDED]",
	model.StatusMoved:      " [MOVED]",
	model.StatusReordered:  " [REORDERED]",
	model.StatusUnresolved: " [UNRESOLVED]",
	model.StatusOrphaned:   " [ORPHANED]",
	model.StatusRemoved:    " [REMOVED]",
}

// RenderFullTree lists every section path with its expected entries plus the
// current entries that are leaving it, each tagged with its change marker.
// Non-empty unsorted buckets come last.
func RenderFullTree(pi *model.ParsedIndex) []string {
	var lines []string
	sections := pi.OrderedSections()
	for _, bucket := range pi.UnsortedSections() {
		if bucket.Expected.Len() > 0 {
			sections = append(sections, bucket)
		}
	}

	for _, sec := range sections {
		lines = append(lines, sec.Path())
		entries := make(map[string]*model.IndexEntry)
		for _, e := range sec.Expected.All() {
			entries[e.Name] = e
		}
		for _, e := range sec.Current.All() {
			if _, ok := entries[e.Name]; ok {
				continue
			}
			if e.Status == model.StatusOrphaned || e.Status == model.StatusRemoved {
				entries[e.Name] = e
			}
		}
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lines = append(lines, "- "+name+statusMarkers[entries[name].Status])
		}
		lines = append(lines, "")
	}
	return lines
}
