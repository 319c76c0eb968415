// Package markdown scans specification documents: fenced code blocks,
// headings, section bounds and GitHub-style heading anchors.
package markdown

import (
	"regexp"
	"strings"
)

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	backtickRe  = regexp.MustCompile("`([^`]+)`")
	slugStripRe = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	slugJoinRe  = regexp.MustCompile(`[-\s]+`)
)

// Heading is one ATX heading outside code blocks.
type Heading struct {
	Text  string
	Level int
	Line  int // 1-based
}

// Fence is one fenced code block.
type Fence struct {
	Start      int // 1-based line of the opening fence
	End        int // 1-based line of the closing fence, 0 when unterminated
	Info       string
	Lines      []string
	Terminated bool
}

// Content returns the code between the fences.
func (f Fence) Content() string {
	return strings.Join(f.Lines, "\n")
}

// Contains reports whether the 1-based line lies inside the code.
func (f Fence) Contains(line int) bool {
	if !f.Terminated {
		return line > f.Start
	}
	return line > f.Start && line < f.End
}

// SplitLines splits content on newlines, keeping a trailing empty line the
// way the line numbers of an editor do.
func SplitLines(content string) []string {
	return strings.Split(content, "\n")
}

// ScanFences returns every fenced block in document order. An opening line
// is any line whose trimmed text starts with ```; the next line whose
// trimmed text is exactly ``` closes it.
func ScanFences(lines []string) []Fence {
	var fences []Fence
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "```") {
			continue
		}
		f := Fence{Start: i + 1, Info: strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))}
		j := i + 1
		for ; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "```" {
				f.End = j + 1
				f.Terminated = true
				break
			}
			f.Lines = append(f.Lines, lines[j])
		}
		fences = append(fences, f)
		i = j
	}
	return fences
}

// FenceAt returns the fence whose opening line is line.
func FenceAt(fences []Fence, line int) (Fence, bool) {
	for _, f := range fences {
		if f.Start == line {
			return f, true
		}
	}
	return Fence{}, false
}

// Headings extracts every heading outside fenced code blocks.
func Headings(lines []string) []Heading {
	var out []Heading
	inCode := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			continue
		}
		if h, ok := ParseHeading(trimmed); ok {
			h.Line = i + 1
			out = append(out, h)
		}
	}
	return out
}

// ParseHeading parses one ATX heading line.
func ParseHeading(line string) (Heading, bool) {
	m := headingRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Heading{}, false
	}
	return Heading{Text: strings.TrimSpace(m[2]), Level: len(m[1])}, true
}

// HeadingBefore returns the most recent heading at or above line.
func HeadingBefore(headings []Heading, line int) (Heading, bool) {
	for i := len(headings) - 1; i >= 0; i-- {
		if headings[i].Line <= line {
			return headings[i], true
		}
	}
	return Heading{}, false
}

// ParentOf returns the last heading above h with a lower level.
func ParentOf(headings []Heading, h Heading) (Heading, bool) {
	for i := len(headings) - 1; i >= 0; i-- {
		p := headings[i]
		if p.Line < h.Line && p.Level < h.Level {
			return p, true
		}
	}
	return Heading{}, false
}

// SectionEnd returns the last 1-based line of the section opened by h: the
// line before the next heading of the same or higher level, or the last line.
func SectionEnd(headings []Heading, h Heading, total int) int {
	for _, next := range headings {
		if next.Line > h.Line && next.Level <= h.Level {
			return next.Line - 1
		}
	}
	return total
}

// SectionText returns the section of h, heading line included.
func SectionText(lines []string, headings []Heading, h Heading) string {
	end := SectionEnd(headings, h, len(lines))
	if h.Line < 1 || h.Line > end {
		return ""
	}
	return strings.Join(lines[h.Line-1:end], "\n")
}

// FindHeading returns the first heading whose slug is anchor.
func FindHeading(headings []Heading, anchor string) (Heading, bool) {
	anchor = strings.TrimPrefix(anchor, "#")
	for _, h := range headings {
		if Slug(h.Text) == anchor {
			return h, true
		}
	}
	return Heading{}, false
}

// Slug generates a GitHub-style anchor (without '#') from heading text.
func Slug(heading string) string {
	if heading == "" {
		return ""
	}
	const placeholder = "TRPLDASH"
	s := backtickRe.ReplaceAllString(heading, "$1")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " - ", placeholder)
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugJoinRe.ReplaceAllString(s, "-")
	s = strings.ReplaceAll(s, placeholder, "---")
	return strings.Trim(s, "-")
}

// Anchor is Slug with a leading '#', or "" for an empty slug.
func Anchor(heading string) string {
	if s := Slug(heading); s != "" {
		return "#" + s
	}
	return ""
}
