package markdown

import (
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3 AddFile Package Method", "123-addfile-package-method"},
		{"File Management with `Package` type", "file-management-with-package-type"},
		{"Heading - With  Multiple   Spaces", "heading---with-multiple-spaces"},
		{"Package.Close() Method", "packageclose-method"},
		{"  ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := Slug(tt.in); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
	if got := Anchor("Widgets"); got != "#widgets" {
		t.Errorf("Anchor = %q", got)
	}
}

const doc = `# Widgets

## 1. Widget Types

Intro text.

` + "```go" + `
type Widget struct{}
` + "```" + `

### 1.1 Widget Methods

` + "```go" + `
# not a heading
func (w *Widget) Spin() error
` + "```" + `

## 2. Functions

` + "```text" + `
unterminated
`

func TestScanFences(t *testing.T) {
	t.Parallel()

	fences := ScanFences(SplitLines(doc))
	if len(fences) != 3 {
		t.Fatalf("expected 3 fences, got %d", len(fences))
	}
	if fences[0].Start != 7 || fences[0].End != 9 || fences[0].Info != "go" {
		t.Errorf("fence 0 = %+v", fences[0])
	}
	if fences[0].Content() != "type Widget struct{}" {
		t.Errorf("content = %q", fences[0].Content())
	}
	if !fences[0].Contains(8) || fences[0].Contains(9) {
		t.Error("Contains bounds wrong")
	}
	if fences[2].Terminated || fences[2].Info != "text" {
		t.Errorf("fence 2 = %+v", fences[2])
	}
	if _, ok := FenceAt(fences, 13); !ok {
		t.Error("FenceAt(13) not found")
	}
}

func TestHeadingsSkipCode(t *testing.T) {
	t.Parallel()

	lines := SplitLines(doc)
	hs := Headings(lines)
	var texts []string
	for _, h := range hs {
		texts = append(texts, h.Text)
	}
	want := "Widgets|1. Widget Types|1.1 Widget Methods|2. Functions"
	if got := strings.Join(texts, "|"); got != want {
		t.Fatalf("headings = %q, want %q", got, want)
	}

	h, ok := HeadingBefore(hs, 14)
	if !ok || h.Text != "1.1 Widget Methods" {
		t.Errorf("HeadingBefore = %+v", h)
	}
	p, ok := ParentOf(hs, h)
	if !ok || p.Text != "1. Widget Types" {
		t.Errorf("ParentOf = %+v", p)
	}

	sec := SectionText(lines, hs, hs[1])
	if !strings.HasPrefix(sec, "## 1. Widget Types") || !strings.Contains(sec, "Spin") || strings.Contains(sec, "2. Functions") {
		t.Errorf("SectionText = %q", sec)
	}

	found, ok := FindHeading(hs, "#11-widget-methods")
	if !ok || found.Line != 11 {
		t.Errorf("FindHeading = %+v, %v", found, ok)
	}
}

func TestIsExampleDecl(t *testing.T) {
	t.Parallel()

	build := func(prose, code string) ([]string, Fence) {
		content := "## Section\n\n" + prose + "\n\n```go\n" + code + "\n```\n"
		lines := SplitLines(content)
		return lines, ScanFences(lines)[0]
	}

	tests := []struct {
		name    string
		heading string
		prose   string
		code    string
		decl    string
		want    bool
	}{
		{"plain", "Widget Types", "The widget type.", "type Widget struct{}", "Widget", false},
		{"heading", "Usage Example", "The widget type.", "type Widget struct{}", "Widget", true},
		{"prose marker", "Widget Types", "This is a hypothetical widget.", "type Widget struct{}", "Widget", true},
		{"prose for example", "Widget Types", "For example, widgets spin.", "type Widget struct{}", "Widget", false},
		{"code comment", "Widget Types", "Widgets.", "// Example widget\ntype Widget struct{}", "Widget", true},
		{"code for example", "Widget Types", "Widgets.", "// for example spins\ntype Widget struct{}", "Widget", false},
		{"name prefix", "Widget Types", "Widgets.", "type MockWidget struct{}", "MockWidget", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lines, fence := build(tt.prose, tt.code)
			declLine := fence.End - 1
			if got := IsExampleDecl(lines, fence, tt.heading, declLine, tt.decl); got != tt.want {
				t.Errorf("IsExampleDecl = %v, want %v", got, tt.want)
			}
		})
	}
}
