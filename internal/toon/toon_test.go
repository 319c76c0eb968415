package toon

import (
	"strings"
	"testing"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"true keyword", "true", `"true"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "0.75", "0.75"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "Pool[T]", `"Pool[T]"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"file", "api_core.md", "api_core.md"},
		{"method name", "Package.Close", "Package.Close"},
		{"section path", "1. Package Types > 1.1 Package Methods", "1. Package Types > 1.1 Package Methods"},
		{"link", "api_core.md#21-open", "api_core.md#21-open"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDocument(t *testing.T) {
	t.Parallel()

	var d Document
	d.Field("index", "api_go_defs_index.md")
	d.Int("files", 3)
	d.Table("added", []string{"name", "section", "confidence"}, [][]string{
		{"NewWidget", "2. Widget Types > 2.2 Widgets Helper Functions", "85"},
		{"Widget", "2. Widget Types", "80"},
	})
	d.Table("orphaned", []string{"name", "line"}, nil)

	lines := strings.Split(d.String(), "\n")
	want := []string{
		"index: api_go_defs_index.md",
		"files: 3",
		"added[2]{name,section,confidence}:",
		"  NewWidget,2. Widget Types > 2.2 Widgets Helper Functions,85",
		"  Widget,2. Widget Types,80",
		"orphaned[0]{name,line}:",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), d.String())
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestDocumentQuotesCells(t *testing.T) {
	t.Parallel()

	var d Document
	d.Table("issues", []string{"code", "message"}, [][]string{
		{"entry_order", "`b` appears before `a`, twice"},
	})
	got := d.String()
	if !strings.Contains(got, "  entry_order,\"`b` appears before `a`, twice\"") {
		t.Errorf("unexpected encoding:\n%s", got)
	}
}
