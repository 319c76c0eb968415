// Package index reads, reconciles and writes the definitions index document.
package index

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/phobologic/defsindex/internal/model"
)

var (
	titleRe         = regexp.MustCompile(`^#\s+(.+)$`)
	headingRe       = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	sectionNumberRe = regexp.MustCompile(`^(\d+(?:\.\d+)*)(?:\.)?\s+(.+)$`)
	entryRe         = regexp.MustCompile("^\\s*-\\s+\\*\\*`([^`]+)`\\*\\*")
	linkRe          = regexp.MustCompile(`\[([^\]]+)\]\(([^)#]+)(?:#([^)]+))?\)`)
	subHeadingRe    = regexp.MustCompile(`^##+\s+`)
)

// MinDescriptionLength is the shortest description that counts as present.
const MinDescriptionLength = 20

// ParseError reports a structural problem in the index document.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Parse reads the index document into sections and current entries.
// minDescription is the length a description needs to count as present;
// zero selects MinDescriptionLength.
func Parse(content string, minDescription int) (*model.ParsedIndex, error) {
	if minDescription <= 0 {
		minDescription = MinDescriptionLength
	}
	lines := strings.Split(content, "\n")
	pi := model.NewParsedIndex()

	for _, line := range lines {
		if m := titleRe.FindStringSubmatch(line); m != nil {
			pi.Title = strings.TrimSpace(m[1])
			break
		}
	}

	first := firstSectionLine(lines)
	pi.Overview = parseOverview(lines, first-1)

	var h2, h3, h4 *model.IndexSection
	pathLines := make(map[string][]int)

	for i := first - 1; i < len(lines); i++ {
		lineNum := i + 1
		line := lines[i]

		if level, number, text, ok := sectionHeading(line); ok {
			if strings.Split(number, ".")[0] == "0" {
				h2, h3, h4 = nil, nil, nil
				continue
			}
			var parent *model.IndexSection
			switch level {
			case 2:
				h2, h3, h4 = nil, nil, nil
			case 3:
				parent = h2
				h3, h4 = nil, nil
			case 4:
				parent = h3
				if parent == nil {
					parent = h2
				}
				h4 = nil
			}
			if level > 2 && parent == nil {
				return nil, &ParseError{Line: lineNum, Msg: fmt.Sprintf("level %d heading %q has no enclosing section", level, text)}
			}

			sec := &model.IndexSection{
				Number: number,
				Level:  level,
				Text:   text,
				Kind:   model.DeriveHeadingKind(text),
				Line:   lineNum,
				Parent: parent,
			}
			if err := sec.Validate(); err != nil {
				return nil, &ParseError{Line: lineNum, Msg: err.Error()}
			}

			path := sec.Path()
			pathLines[path] = append(pathLines[path], lineNum)
			if _, dup := pi.Sections[path]; dup {
				continue
			}
			if parent != nil {
				parent.Children = append(parent.Children, sec)
			}
			pi.Sections[path] = sec
			pi.Order = append(pi.Order, path)

			switch level {
			case 2:
				h2 = sec
			case 3:
				h3 = sec
			case 4:
				h4 = sec
			}
			continue
		}

		m := entryRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sec := h4
		if sec == nil {
			sec = h3
		}
		if sec == nil {
			sec = h2
		}
		if sec == nil {
			continue
		}

		entry := &model.IndexEntry{
			Name:    model.NormalizeGenericName(m[1]),
			RawName: m[1],
			Kind:    sec.Kind,
			Line:    lineNum,
		}
		if lm := linkRe.FindStringSubmatch(line); lm != nil {
			entry.LinkText = strings.TrimSpace(lm[1])
			entry.LinkFile = strings.TrimSpace(lm[2])
			entry.LinkAnchor = strings.TrimSpace(lm[3])
		}
		entry.DescriptionLines, entry.DescriptionLayout = descriptionLines(lines, i+1)
		if len(entry.DescriptionLines) > 0 {
			entry.Description = strings.TrimSpace(strings.Join(entry.DescriptionLines, " "))
			entry.HasDescription = len(entry.Description) >= minDescription
		}

		sec.Entries = append(sec.Entries, entry)
		sec.Current.Put(entry)
	}

	if err := duplicatePaths(pathLines); err != nil {
		return nil, err
	}
	return pi, nil
}

// sectionHeading matches a numbered level 2-4 heading.
func sectionHeading(line string) (level int, number, text string, ok bool) {
	m := headingRe.FindStringSubmatch(line)
	if m == nil {
		return 0, "", "", false
	}
	level = len(m[1])
	if level < 2 || level > 4 {
		return 0, "", "", false
	}
	n := sectionNumberRe.FindStringSubmatch(strings.TrimSpace(m[2]))
	if n == nil {
		return 0, "", "", false
	}
	return level, strings.TrimSpace(n[1]), strings.TrimSpace(n[2]), true
}

// firstSectionLine returns the 1-based line of the first numbered non-zero
// section heading, or len(lines)+1 when there is none.
func firstSectionLine(lines []string) int {
	for i, line := range lines {
		if _, number, _, ok := sectionHeading(line); ok && strings.Split(number, ".")[0] != "0" {
			return i + 1
		}
	}
	return len(lines) + 1
}

// parseOverview collects the prose headings (level 2 and below) before the
// first index section. Text between the title and the first of them is the
// generated table of contents and is dropped.
func parseOverview(lines []string, end int) []model.ProseSection {
	var out []model.ProseSection
	inCode := false
	for i := 0; i < end && i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
		}
		if !inCode {
			if m := headingRe.FindStringSubmatch(lines[i]); m != nil && len(m[1]) >= 2 {
				out = append(out, model.ProseSection{Level: len(m[1]), Title: strings.TrimSpace(m[2])})
				continue
			}
		}
		if len(out) > 0 {
			cur := &out[len(out)-1]
			cur.Lines = append(cur.Lines, lines[i])
		}
	}
	for i := range out {
		out[i].Lines = trimBlank(out[i].Lines)
	}
	return out
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// descriptionLines reads the indented bullets below an entry. start is the
// 0-based index of the line after the entry.
// descriptionLines returns the description bullets below an entry, with
// continuation lines joined, and the same text in its written layout.
func descriptionLines(lines []string, start int) (out, layout []string) {
	for i := start; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t\r")
		if entryRe.MatchString(line) || subHeadingRe.MatchString(line) {
			break
		}
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "  ") {
			break
		}
		if strings.HasPrefix(line, "  - ") || strings.HasPrefix(line, "    - ") {
			_, text, _ := strings.Cut(line, "- ")
			if text = strings.TrimSpace(text); text != "" {
				out = append(out, text)
				layout = append(layout, "  - "+text)
			}
			continue
		}
		if len(out) > 0 {
			text := strings.TrimSpace(line)
			out[len(out)-1] += " " + text
			layout = append(layout, "    "+text)
		}
	}
	return out, layout
}

func duplicatePaths(pathLines map[string][]int) error {
	var dups []string
	for path, ls := range pathLines {
		if len(ls) < 2 {
			continue
		}
		nums := make([]string, len(ls))
		for i, n := range ls {
			nums[i] = fmt.Sprint(n)
		}
		dups = append(dups, fmt.Sprintf("%s (lines %s)", path, strings.Join(nums, ", ")))
	}
	if len(dups) == 0 {
		return nil
	}
	sort.Strings(dups)
	return &ParseError{Msg: "Duplicate headings detected in index file: " + strings.Join(dups, ", ")}
}
