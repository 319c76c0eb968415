package index

import (
	"fmt"
	"strings"

	"github.com/phobologic/defsindex/internal/markdown"
	"github.com/phobologic/defsindex/internal/model"
)

// Render serializes the expected tree as an index document. Unchanged
// entries keep their current raw name, link text and link target.
func Render(pi *model.ParsedIndex) string {
	var lines []string
	if title := strings.TrimSpace(pi.Title); title != "" {
		lines = append(lines, "# "+title, "")
	}

	if toc := renderTOC(pi); len(toc) > 0 {
		lines = append(lines, toc...)
		lines = append(lines, "")
	}

	for _, prose := range pi.Overview {
		lines = append(lines, strings.Repeat("#", prose.Level)+" "+prose.Title, "")
		if len(prose.Lines) > 0 {
			lines = append(lines, prose.Lines...)
			lines = append(lines, "")
		}
	}

	for _, sec := range pi.OrderedSections() {
		lines = append(lines, renderSection(pi, sec)...)
	}

	return strings.TrimRight(strings.Join(lines, "\n"), "\n \t") + "\n"
}

func renderTOC(pi *model.ParsedIndex) []string {
	var toc []string
	for _, prose := range pi.Overview {
		toc = append(toc, tocLine(prose.Level, prose.Title))
	}
	for _, sec := range pi.OrderedSections() {
		toc = append(toc, tocLine(sec.Level, sec.HeadingLabel()))
	}
	return toc
}

func tocLine(level int, label string) string {
	indent := strings.Repeat(" ", max(level-2, 0)*2)
	return fmt.Sprintf("%s- [%s](%s)", indent, label, markdown.Anchor(label))
}

func renderSection(pi *model.ParsedIndex, sec *model.IndexSection) []string {
	lines := []string{strings.Repeat("#", sec.Level) + " " + sec.HeadingLabel(), ""}
	entries := sec.Expected.All()
	if len(entries) == 0 {
		return lines
	}
	for _, entry := range entries {
		rawName := entry.RawName
		linkText := entry.LinkText
		target := entry.LinkTarget()
		if cur := findCurrent(pi, entry.Name); cur != nil {
			if cur.RawName != "" {
				rawName = cur.RawName
			}
			if cur.LinkText != "" {
				linkText = cur.LinkText
			}
			if !cur.NeedsLinkUpdate && entry.Status != model.StatusMoved && cur.LinkFile != "" {
				target = cur.LinkTarget()
			}
		}
		if linkText == "" {
			linkText = "Spec"
		}
		lines = append(lines, fmt.Sprintf("- **`%s`** - [%s](%s)", rawName, linkText, target))
		if len(entry.DescriptionLayout) > 0 {
			lines = append(lines, entry.DescriptionLayout...)
			continue
		}
		for _, d := range entry.DescriptionLines {
			lines = append(lines, "  - "+d)
		}
	}
	return append(lines, "")
}

func findCurrent(pi *model.ParsedIndex, name string) *model.IndexEntry {
	if sec := pi.FindSectionByCurrent(name); sec != nil {
		return sec.Current.Get(name)
	}
	return nil
}
