package index

import (
	"errors"
	"strings"
	"testing"

	"github.com/phobologic/defsindex/internal/issue"
	"github.com/phobologic/defsindex/internal/model"
)

const canonicalIndex = "# Go API Definitions Index\n" +
	"\n" +
	"- [Overview](#overview)\n" +
	"- [1. Package Types](#1-package-types)\n" +
	"  - [1.1 Package Methods](#11-package-methods)\n" +
	"- [2. Helper Functions](#2-helper-functions)\n" +
	"\n" +
	"## Overview\n" +
	"\n" +
	"This index lists every documented definition.\n" +
	"\n" +
	"## 1. Package Types\n" +
	"\n" +
	"- **`Package`** - [Package Interface](api_core.md#2-package-interface)\n" +
	"  - Package is the main archive handle used by callers.\n" +
	"\n" +
	"### 1.1 Package Methods\n" +
	"\n" +
	"- **`Package.Close`** - [Close](api_core.md#22-close)\n" +
	"- **`Package.Open`** - [Open](api_core.md#21-open)\n" +
	"  - Opens an archive at the given path for reading.\n" +
	"\n" +
	"## 2. Helper Functions\n" +
	"\n" +
	"- **`NewPackage`** - [NewPackage](api_core.md#3-newpackage)\n"

func mustParse(t *testing.T, content string) *model.ParsedIndex {
	t.Helper()
	pi, err := Parse(content, 0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return pi
}

func expect(sec *model.IndexSection, name, file, anchor string) *model.IndexEntry {
	e := &model.IndexEntry{Name: name, RawName: name, LinkText: name, LinkFile: file, LinkAnchor: anchor}
	sec.Expected.Put(e)
	return e
}

// expectCurrent mirrors the current state into the expected state.
func expectCurrent(pi *model.ParsedIndex) {
	for _, sec := range pi.OrderedSections() {
		for _, e := range sec.Current.All() {
			expect(sec, e.Name, e.LinkFile, e.LinkAnchor)
		}
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	pi := mustParse(t, canonicalIndex)

	if pi.Title != "Go API Definitions Index" {
		t.Errorf("title = %q", pi.Title)
	}
	if len(pi.Overview) != 1 || pi.Overview[0].Title != "Overview" {
		t.Fatalf("overview = %+v", pi.Overview)
	}
	if got := strings.Join(pi.Overview[0].Lines, "|"); got != "This index lists every documented definition." {
		t.Errorf("overview lines = %q", got)
	}

	wantOrder := []string{
		"1. Package Types",
		"1. Package Types > 1.1 Package Methods",
		"2. Helper Functions",
	}
	if strings.Join(pi.Order, "|") != strings.Join(wantOrder, "|") {
		t.Fatalf("order = %v", pi.Order)
	}

	types := pi.Sections[wantOrder[0]]
	methods := pi.Sections[wantOrder[1]]
	funcs := pi.Sections[wantOrder[2]]
	if types.Kind != model.KindType || methods.Kind != model.KindMethod || funcs.Kind != model.KindFunc {
		t.Errorf("kinds = %s/%s/%s", types.Kind, methods.Kind, funcs.Kind)
	}
	if methods.Parent != types || len(types.Children) != 1 {
		t.Error("1.1 should be a child of 1")
	}

	pkg := types.Current.Get("Package")
	if pkg == nil {
		t.Fatal("Package entry missing")
	}
	if pkg.LinkFile != "api_core.md" || pkg.LinkAnchor != "2-package-interface" || pkg.LinkText != "Package Interface" {
		t.Errorf("Package link = %+v", pkg)
	}
	if !pkg.HasDescription || pkg.Line != 14 {
		t.Errorf("Package description/line = %v/%d", pkg.HasDescription, pkg.Line)
	}

	closeEntry := methods.Current.Get("Package.Close")
	if closeEntry.HasDescription || len(closeEntry.DescriptionLines) != 0 {
		t.Errorf("Close should have no description: %+v", closeEntry.DescriptionLines)
	}
}

func TestParseDescriptions(t *testing.T) {
	t.Parallel()

	content := "## 1. Types\n\n" +
		"- **`A`** - [A](a.md#a)\n" +
		"  - first line of the\n" +
		"    continued description\n" +
		"\n" +
		"    - nested bullet\n" +
		"- **`B`** - [B](b.md)\n" +
		"  - short\n" +
		"Trailing prose ends it.\n"
	pi := mustParse(t, content)
	sec := pi.Sections["1. Types"]

	a := sec.Current.Get("A")
	want := []string{"first line of the continued description", "nested bullet"}
	if strings.Join(a.DescriptionLines, "|") != strings.Join(want, "|") {
		t.Errorf("A description = %q", a.DescriptionLines)
	}
	if !a.HasDescription {
		t.Error("A should have a description")
	}
	wantLayout := []string{"  - first line of the", "    continued description", "  - nested bullet"}
	if strings.Join(a.DescriptionLayout, "|") != strings.Join(wantLayout, "|") {
		t.Errorf("A layout = %q", a.DescriptionLayout)
	}

	b := sec.Current.Get("B")
	if b.HasDescription || b.Description != "short" || b.LinkAnchor != "" {
		t.Errorf("B = %+v", b)
	}
}

func TestParseHierarchyErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"orphan level 3", "### 1.1 Package Methods\n\n- **`X`** - [X](x.md)\n", "no enclosing section"},
		{"duplicate path", "## 1. Types\n\n## 1. Types\n", "Duplicate headings detected in index file: 1. Types (lines 1, 3)"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(tt.content, 0)
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("error type = %T", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want %q", err, tt.want)
			}
		})
	}
}

func TestParseLevelFourUnderLevelTwo(t *testing.T) {
	t.Parallel()

	pi := mustParse(t, "## 1. Types\n\n#### 1.0.1 Odd Types\n")
	sec := pi.Sections["1. Types > 1.0.1 Odd Types"]
	if sec == nil || sec.Parent.Level != 2 {
		t.Fatalf("sections = %v", pi.Order)
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	content := canonicalIndex + "- **`OldName`** - [Spec](x.md#anchor)\n\n" +
		"## 3. Package Helper Functions\n"
	pi := mustParse(t, content)
	types := pi.Sections["1. Package Types"]
	methods := pi.Sections["1. Package Types > 1.1 Package Methods"]
	funcs := pi.Sections["2. Helper Functions"]
	helpers := pi.Sections["3. Package Helper Functions"]

	expect(types, "Package", "api_core.md", "2-package-interface")
	expect(methods, "Package.Close", "api_core.md", "23-close")
	added := expect(methods, "Package.Save", "api_core.md", "24-save")
	moved := expect(helpers, "NewPackage", "api_core.md", "3-newpackage")
	stays := expect(pi.Unsorted[model.KindMethod], "Package.Open", "api_core.md", "21-open")
	unresolved := expect(pi.Unsorted[model.KindType], "Mystery", "m.md", "")

	Compare(pi)

	if got := types.Current.Get("Package").Status; got != model.StatusPresent {
		t.Errorf("Package = %s", got)
	}
	closeEntry := methods.Current.Get("Package.Close")
	if !closeEntry.NeedsLinkUpdate || closeEntry.ExpectedTarget() != "api_core.md#23-close" {
		t.Errorf("Close link update = %v %s", closeEntry.NeedsLinkUpdate, closeEntry.ExpectedTarget())
	}
	if added.Status != model.StatusAdded {
		t.Errorf("Save = %s", added.Status)
	}
	if moved.Status != model.StatusMoved {
		t.Errorf("NewPackage expected = %s", moved.Status)
	}
	if got := funcs.Current.Get("NewPackage"); got.Status != model.StatusRemoved || got.SuggestedSection != helpers.Path() {
		t.Errorf("NewPackage current = %s -> %s", got.Status, got.SuggestedSection)
	}
	if got := funcs.Current.Get("OldName").Status; got != model.StatusOrphaned {
		t.Errorf("OldName = %s", got)
	}
	if !methods.Expected.Has("Package.Open") || stays.Status != model.StatusPresent {
		t.Errorf("Package.Open should stay in its current section, status %s", stays.Status)
	}
	if unresolved.Status != model.StatusUnresolved {
		t.Errorf("Mystery = %s", unresolved.Status)
	}

	tree := strings.Join(RenderFullTree(pi), "\n")
	for _, want := range []string{
		"- Package.Save [ADDED]",
		"- NewPackage [MOVED]",
		"- NewPackage [REMOVED]",
		"- OldName [ORPHANED]",
		"0. Unsorted Types\n- Mystery [UNRESOLVED]",
		"- Package\n",
	} {
		if !strings.Contains(tree, want) {
			t.Errorf("full tree missing %q:\n%s", want, tree)
		}
	}
}

func TestFindings(t *testing.T) {
	t.Parallel()

	content := canonicalIndex + "- **`OldName`** - [Spec](x.md#anchor)\n\n" +
		"## 3. Package Helper Functions\n"
	pi := mustParse(t, content)
	methods := pi.Sections["1. Package Types > 1.1 Package Methods"]
	helpers := pi.Sections["3. Package Helper Functions"]

	expect(pi.Sections["1. Package Types"], "Package", "api_core.md", "2-package-interface")
	expect(methods, "Package.Close", "api_core.md", "23-close")
	expect(methods, "Package.Open", "api_core.md", "21-open")
	added := expect(methods, "Package.Save", "api_core.md", "24-save")
	added.SourceFile, added.SourceLine = "api_core.md", 40
	expect(helpers, "NewPackage", "api_core.md", "3-newpackage")

	Compare(pi)
	issues := Findings(pi, "index.md")

	checks := []struct {
		code    issue.Code
		message string
		where   string
		suggest string
	}{
		{issue.CodeNotInIndex, "`Package.Save` is not in the index", "api_core.md:40", "Add to '1. Package Types > 1.1 Package Methods'"},
		{issue.CodeWrongSection, "`NewPackage` in '2. Helper Functions'", "index.md:25", "Move to '3. Package Helper Functions'"},
		{issue.CodeOrphanedEntry, "`OldName` not found in any tech spec file", "index.md:26", ""},
		{issue.CodeIncorrectLink, "`Package.Close`: api_core.md#22-close", "index.md:19", "Update to: api_core.md#23-close"},
	}
	if len(issues) != len(checks) {
		t.Fatalf("got %d issues, want %d: %v", len(issues), len(checks), issues)
	}
	for _, c := range checks {
		got := issues.ByCode(c.code)
		if len(got) != 1 {
			t.Errorf("%s: got %d issues", c.code, len(got))
			continue
		}
		if got[0].Message != c.message || got[0].Location() != c.where || got[0].Suggestion != c.suggest {
			t.Errorf("%s = %q at %s (%q)", c.code, got[0].Message, got[0].Location(), got[0].Suggestion)
		}
		if got[0].Severity != issue.SeverityError {
			t.Errorf("%s severity = %s", c.code, got[0].Severity)
		}
	}
}

func TestCheckOrdering(t *testing.T) {
	t.Parallel()

	content := "## 1. Package Methods\n\n" +
		"- **`Package.Open`** - [Open](a.md#open)\n" +
		"- **`Package.Close`** - [Close](a.md#close)\n" +
		"- **`Package.Write`** - [Write](a.md#write)\n"
	pi := mustParse(t, content)
	expectCurrent(pi)
	Compare(pi)

	warnings := CheckOrdering(pi, "api_go_defs_index.md")
	if len(warnings) != 2 {
		t.Fatalf("warnings = %v", warnings)
	}
	if warnings[0].Message != "`Package.Open` appears before `Package.Close`" || warnings[0].Line != 3 {
		t.Errorf("warning 0 = %q at %d", warnings[0].Message, warnings[0].Line)
	}
	if warnings[0].Severity != issue.SeverityWarning {
		t.Error("ordering issues are warnings")
	}
	sec := pi.Sections["1. Package Methods"]
	if sec.Current.Get("Package.Open").Status != model.StatusReordered {
		t.Error("Open should be reordered")
	}
	if sec.Current.Get("Package.Write").Status != model.StatusPresent {
		t.Error("Write is in place")
	}

	SortExpected(pi)
	var names []string
	for _, e := range sec.Expected.All() {
		names = append(names, e.Name)
	}
	if strings.Join(names, ",") != "Package.Close,Package.Open,Package.Write" {
		t.Errorf("sorted = %v", names)
	}
}

func TestCheckOrderingCap(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("## 1. Helper Functions\n\n")
	for _, n := range []string{"G", "F", "E", "D", "C", "B", "A"} {
		b.WriteString("- **`" + n + "`** - [" + n + "](a.md)\n")
	}
	pi := mustParse(t, b.String())

	warnings := CheckOrdering(pi, "idx.md")
	if len(warnings) != 6 {
		t.Fatalf("warnings = %d, want 5 plus the omitted notice", len(warnings))
	}
	if !strings.Contains(warnings[5].Message, "Additional ordering issues in '1. Helper Functions' omitted.") {
		t.Errorf("last = %q", warnings[5].Message)
	}
}

func TestRenderIdempotent(t *testing.T) {
	t.Parallel()

	pi := mustParse(t, canonicalIndex)
	expectCurrent(pi)
	Compare(pi)
	SyncExpectedDescriptions(pi)
	SortExpected(pi)

	got := Render(pi)
	if got != canonicalIndex {
		t.Fatalf("render mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, canonicalIndex)
	}

	again := mustParse(t, got)
	expectCurrent(again)
	Compare(again)
	if issues := CheckOrdering(again, "idx.md"); len(issues) != 0 {
		t.Errorf("ordering issues after render: %v", issues)
	}
	for _, sec := range again.OrderedSections() {
		for _, e := range sec.Expected.All() {
			if e.Status != model.StatusPresent {
				t.Errorf("%s = %s after rerun", e.Name, e.Status)
			}
		}
	}
}

func TestRenderKeepsDescriptionLayout(t *testing.T) {
	t.Parallel()

	const content = "# Index\n" +
		"\n" +
		"- [1. Types](#1-types)\n" +
		"- [2. Empty](#2-empty)\n" +
		"- [3. More](#3-more)\n" +
		"\n" +
		"## 1. Types\n" +
		"\n" +
		"- **`A`** - [A](a.md#a)\n" +
		"  - first line of the\n" +
		"    continued description\n" +
		"  - second bullet\n" +
		"\n" +
		"## 2. Empty\n" +
		"\n" +
		"## 3. More\n" +
		"\n" +
		"- **`B`** - [B](b.md#b)\n"

	pi := mustParse(t, content)
	expectCurrent(pi)
	Compare(pi)
	SyncExpectedDescriptions(pi)
	SortExpected(pi)

	if got := Render(pi); got != content {
		t.Fatalf("render mismatch:\n--- got ---\n%s\n--- want ---\n%s", got, content)
	}
}

func TestRenderUsesCorrectedLinks(t *testing.T) {
	t.Parallel()

	pi := mustParse(t, canonicalIndex)
	methods := pi.Sections["1. Package Types > 1.1 Package Methods"]
	expectCurrent(pi)
	methods.Expected.Get("Package.Close").LinkAnchor = "23-close"
	expect(methods, "Package.Save", "api_core.md", "24-save")
	Compare(pi)
	SyncExpectedDescriptions(pi)
	SortExpected(pi)

	out := Render(pi)
	if !strings.Contains(out, "- **`Package.Close`** - [Close](api_core.md#23-close)") {
		t.Errorf("corrected link not rendered:\n%s", out)
	}
	if !strings.Contains(out, "- **`Package.Save`** - [Package.Save](api_core.md#24-save)") {
		t.Errorf("added entry not rendered:\n%s", out)
	}
	if !strings.Contains(out, "  - Opens an archive at the given path for reading.") {
		t.Error("description not carried over")
	}
}

func TestPopulateDescriptions(t *testing.T) {
	t.Parallel()

	pi := mustParse(t, canonicalIndex)
	methods := pi.Sections["1. Package Types > 1.1 Package Methods"]
	long := expect(methods, "Package.Save", "api_core.md", "24-save")
	long.DocComment = "Save writes the archive   to disk. It replaces any existing file!"
	short := expect(methods, "Package.Size", "api_core.md", "25-size")
	short.DocComment = "Size in bytes."
	kept := expect(methods, "Package.Sync", "api_core.md", "26-sync")
	kept.DocComment = "Sync flushes pending writes to the underlying storage."
	kept.DescriptionLines = []string{"Existing description stays as written."}

	if n := PopulateDescriptions(pi, 0); n != 1 {
		t.Fatalf("filled = %d, want 1", n)
	}
	want := []string{"Save writes the archive to disk.", "It replaces any existing file!"}
	if strings.Join(long.DescriptionLines, "|") != strings.Join(want, "|") {
		t.Errorf("lines = %q, want %q", long.DescriptionLines, want)
	}
	if !long.HasDescription {
		t.Error("HasDescription not set")
	}
	if len(short.DescriptionLines) != 0 {
		t.Errorf("short comment used: %q", short.DescriptionLines)
	}
	if kept.DescriptionLines[0] != "Existing description stays as written." {
		t.Errorf("existing description replaced: %q", kept.DescriptionLines)
	}
}
