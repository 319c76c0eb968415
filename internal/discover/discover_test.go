package discover

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/phobologic/defsindex/internal/issue"
	"github.com/phobologic/defsindex/internal/model"
)

func TestDiscoverMarkdownFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "api_core.md", "# Core")
	writeFile(t, dir, "api_basic.md", "# Basic")
	// Index file is excluded
	writeFile(t, dir, "api_go_defs_index.md", "# Index")
	// Non-markdown and hidden files are ignored
	writeFile(t, dir, "notes.txt", "hello")
	writeFile(t, dir, ".draft.md", "secret")
	// Nested documents are not scanned
	writeFile(t, dir, "sub/api_nested.md", "# Nested")

	files, err := Files(dir, Options{IndexFile: "api_go_defs_index.md", RespectGitignore: true})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []string{"api_basic.md", "api_core.md"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestDiscoverGitignoreAndExclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "api_core.md", "# Core")
	writeFile(t, dir, "scratch.md", "# Scratch")
	writeFile(t, dir, "drafts_one.md", "# Draft")
	writeFile(t, dir, ".gitignore", "scratch.md\n")

	files, err := Files(dir, Options{Exclude: []string{"drafts_*.md"}, RespectGitignore: true})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0] != "api_core.md" {
		t.Errorf("files = %v, want [api_core.md]", files)
	}

	files, err = Files(dir, Options{RespectGitignore: false})
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 3 {
		t.Errorf("files = %v, want 3 entries with gitignore disabled", files)
	}
}

func TestDiscoverBadGlob(t *testing.T) {
	t.Parallel()

	if _, err := Files(t.TempDir(), Options{Exclude: []string{"["}}); err == nil {
		t.Error("expected error for invalid glob")
	}
}

const widgetsDoc = "# Widgets\n" +
	"\n" +
	"## 1. Widget Types\n" +
	"\n" +
	"### 1.1 Widget Structure\n" +
	"\n" +
	"```go\n" +
	"// Widget spins.\n" +
	"type Widget struct {\n" +
	"\tName string\n" +
	"}\n" +
	"\n" +
	"func (w *Widget) Spin(ctx context.Context, n int) error\n" +
	"```\n" +
	"\n" +
	"### 1.2 Widget Helpers\n" +
	"\n" +
	"```go\n" +
	"func NewWidget(cfg WidgetConfig, opts ...Option) (*Widget, error)\n" +
	"\n" +
	"func CopyFrom(src Package.Reader) *Widget\n" +
	"```\n" +
	"\n" +
	"### 1.3 Usage Example\n" +
	"\n" +
	"```go\n" +
	"type Gadget struct{}\n" +
	"```\n"

func TestDefinitions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "api_widgets.md", widgetsDoc)

	res := Definitions(NewCorpus(dir), []string{"api_widgets.md"})
	if len(res.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", res.Issues)
	}

	byName := make(map[string]*model.Definition)
	for _, d := range res.Definitions {
		byName[d.Name] = d
	}
	if len(byName) != 4 {
		t.Fatalf("expected 4 definitions, got %d: %v", len(byName), names(res.Definitions))
	}
	if _, ok := byName["Gadget"]; ok {
		t.Error("example type Gadget should be skipped")
	}

	w := byName["Widget"]
	if w.Form != model.FormStruct || w.DocComment != "Widget spins." {
		t.Errorf("Widget = %+v", w)
	}
	if w.Heading != "1.1 Widget Structure" || w.HeadingLevel != 3 || w.ParentHeading != "1. Widget Types" {
		t.Errorf("Widget heading context = %q/%d/%q", w.Heading, w.HeadingLevel, w.ParentHeading)
	}
	if w.Line != 9 || w.BlockLine != 7 {
		t.Errorf("Widget lines = %d/%d, want 9/7", w.Line, w.BlockLine)
	}
	if w.CanonicalFile != "api_widgets.md" || w.CanonicalAnchor != "#11-widget-structure" {
		t.Errorf("Widget canonical = %s%s", w.CanonicalFile, w.CanonicalAnchor)
	}

	spin := byName["Widget.Spin"]
	if spin == nil || spin.ReceiverType != "Widget" || spin.RawName != "Spin" || spin.Kind != model.KindMethod {
		t.Errorf("Widget.Spin = %+v", spin)
	}

	nw := byName["NewWidget"]
	if got := strings.Join(nw.InputTypes, ","); got != "WidgetConfig,Option" {
		t.Errorf("NewWidget inputs = %q", got)
	}
	if got := strings.Join(nw.OutputTypes, ","); got != "Widget" {
		t.Errorf("NewWidget outputs = %q", got)
	}

	cf := byName["CopyFrom"]
	if got := strings.Join(cf.ReferencedMethods, ","); got != "Package.Reader" {
		t.Errorf("CopyFrom referenced methods = %q", got)
	}
	if got := strings.Join(cf.ReferencedTypes, ","); got != "Reader,Package,Widget" {
		t.Errorf("CopyFrom referenced types = %q", got)
	}
}

func TestDefinitionsDuplicates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	block := "## 1. Types\n\n```go\ntype Shared struct{}\n\ntype Unique%s struct{}\n```\n"
	writeFile(t, dir, "a.md", strings.ReplaceAll(block, "%s", "A"))
	writeFile(t, dir, "b.md", strings.ReplaceAll(block, "%s", "B"))

	res := Definitions(NewCorpus(dir), []string{"a.md", "b.md"})
	if !res.Issues.HasErrors() {
		t.Fatal("expected duplicate error")
	}
	dups := res.Issues.ByCode(issue.CodeDuplicateDefinition)
	if len(dups) != 1 {
		t.Fatalf("expected 1 duplicate issue, got %d", len(dups))
	}
	want := "Definition 'Shared' found in multiple files (a.md#1-types:3,b.md#1-types:3)"
	if dups[0].Message != want {
		t.Errorf("message = %q, want %q", dups[0].Message, want)
	}
	var shared []*model.Definition
	for _, d := range res.Definitions {
		if d.Name == "Shared" {
			shared = append(shared, d)
		}
	}
	if len(shared) != 1 || shared[0].File != "a.md" {
		t.Errorf("duplicate name should keep its first occurrence, got %+v", shared)
	}
	if len(res.Definitions) != 3 {
		t.Errorf("definitions = %v", names(res.Definitions))
	}
	if got := len(res.ByName()["Shared"]); got != 2 {
		t.Errorf("ByName()[Shared] has %d entries, want 2", got)
	}
}

func TestDefinitionsSameFileFirstWins(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.md", "## 1. A\n\n```go\ntype T struct{}\n```\n\n## 2. B\n\n```go\ntype T struct{}\n```\n")

	res := Definitions(NewCorpus(dir), []string{"a.md"})
	if len(res.Definitions) != 1 || res.Definitions[0].Heading != "1. A" {
		t.Errorf("definitions = %+v", res.Definitions)
	}
	if len(res.Issues) != 0 {
		t.Errorf("issues = %v", res.Issues)
	}
}

func TestDefinitionsReadError(t *testing.T) {
	t.Parallel()

	res := Definitions(NewCorpus(t.TempDir()), []string{"missing.md"})
	if len(res.Issues.ByCode(issue.CodeReadError)) != 1 {
		t.Errorf("issues = %v", res.Issues)
	}
}

func TestCanonicalResolution(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "api_core.md", "# Core\n\n## 2. Package Interface\n\nThis is the canonical definition.\n\n```go\ntype Package interface{}\n```\n")

	tests := []struct {
		name     string
		prose    string
		wantFile string
		wantCode issue.Code
	}{
		{"follows link", "See the canonical [Package](api_core.md#2-package-interface).", "api_core.md", ""},
		{"no keyword", "See [Package](api_core.md#2-package-interface).", "api_%s.md", ""},
		{"invalid link", "The canonical copy is [here](../x.md#a).", "api_%s.md", issue.CodeCanonicalInvalidLink},
		{"missing file", "The canonical copy is [here](api_none.md#a).", "api_%s.md", issue.CodeCanonicalFileNotFound},
		{"missing anchor", "The canonical copy is [here](api_core.md#nope).", "api_%s.md", issue.CodeCanonicalAnchorNotFound},
	}
	for i, tt := range tests {
		i, tt := i, tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			name := "api_" + string(rune('a'+i)) + ".md"
			content := "## 1. Package Methods\n\n" + tt.prose + "\n\n```go\nfunc (p *Package) Close" + string(rune('A'+i)) + "() error\n```\n"
			writeFile(t, dir, name, content)

			res := Definitions(NewCorpus(dir), []string{name})
			if len(res.Definitions) != 1 {
				t.Fatalf("definitions = %v", names(res.Definitions))
			}
			d := res.Definitions[0]
			wantFile := strings.ReplaceAll(tt.wantFile, "%s", string(rune('a'+i)))
			if d.CanonicalFile != wantFile {
				t.Errorf("canonical file = %q, want %q", d.CanonicalFile, wantFile)
			}
			if tt.wantCode == "" {
				if len(res.Issues) != 0 {
					t.Errorf("issues = %v", res.Issues)
				}
				return
			}
			if len(res.Issues.ByCode(tt.wantCode)) != 1 {
				t.Errorf("issues = %v, want %s", res.Issues, tt.wantCode)
			}
			if res.Issues.HasErrors() {
				t.Error("canonical failures must be warnings")
			}
		})
	}
}

func TestCorpusCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# A\n")
	c := NewCorpus(dir)

	first, err := c.Get("a.md")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	writeFile(t, dir, "a.md", "# Changed\n")
	second, _ := c.Get("a.md")
	if first != second {
		t.Error("expected cached document")
	}
	c.Invalidate("a.md")
	third, _ := c.Get("a.md")
	if third.Headings[0].Text != "Changed" {
		t.Errorf("after invalidate heading = %q", third.Headings[0].Text)
	}
	if _, err := c.Get("missing.md"); err == nil {
		t.Error("expected error for missing file")
	}
}

func names(defs []*model.Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.Name
	}
	return out
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
