package index

import "github.com/phobologic/defsindex/internal/model"

// Compare classifies every current and expected entry. Deferred entries
// that already sit in a real section stay there; the rest of the unsorted
// buckets end up unresolved.
func Compare(pi *model.ParsedIndex) {
	for _, bucket := range pi.UnsortedSections() {
		for _, entry := range bucket.Expected.All() {
			cur := pi.FindSectionByCurrent(entry.Name)
			if cur == nil || pi.IsUnsorted(cur) {
				continue
			}
			bucket.Expected.Delete(entry.Name)
			cur.Expected.Put(entry)
		}
	}

	for _, sec := range pi.OrderedSections() {
		for _, entry := range sec.Current.All() {
			exp := pi.FindSectionByExpected(entry.Name)
			switch {
			case exp == nil:
				entry.Status = model.StatusOrphaned
			case exp != sec:
				entry.Status = model.StatusRemoved
				entry.SuggestedSection = exp.Path()
			default:
				entry.Status = model.StatusPresent
			}
		}

		for _, entry := range sec.Expected.All() {
			cur := pi.FindSectionByCurrent(entry.Name)
			switch {
			case cur == nil:
				entry.Status = model.StatusAdded
			case cur != sec:
				entry.Status = model.StatusMoved
			default:
				entry.Status = model.StatusPresent
			}
		}

		for _, expected := range sec.Expected.All() {
			current := sec.Current.Get(expected.Name)
			if current == nil {
				continue
			}
			if expected.LinkTarget() != current.LinkTarget() {
				current.NeedsLinkUpdate = true
				current.ExpectedLinkFile = expected.LinkFile
				current.ExpectedLinkAnchor = expected.LinkAnchor
			}
		}
	}

	for _, bucket := range pi.UnsortedSections() {
		for _, entry := range bucket.Expected.All() {
			if entry.Status == model.StatusNone {
				entry.Status = model.StatusUnresolved
			}
		}
	}
}
