package discover

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/phobologic/defsindex/internal/issue"
	"github.com/phobologic/defsindex/internal/markdown"
	"github.com/phobologic/defsindex/internal/model"
)

var (
	canonicalRe = regexp.MustCompile(`(?i)\bcanonical\b`)
	linkRe      = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// resolveCanonical sets the canonical file, heading and anchor of d. A
// section that mentions "canonical" followed by a link defers to the link
// target; any problem with the target falls back to d's own heading and is
// reported.
func resolveCanonical(corpus *Corpus, d *model.Definition, doc *Document) issue.List {
	self := func() {
		d.CanonicalFile = d.File
		d.CanonicalHeading = d.Heading
		d.CanonicalAnchor = markdown.Anchor(d.Heading)
	}
	self()

	if d.SectionText == "" || strings.Contains(strings.ToLower(d.SectionText), "this is the canonical") {
		return nil
	}
	loc := canonicalRe.FindStringIndex(d.SectionText)
	if loc == nil {
		return nil
	}

	// Search from the line holding the keyword to the end of the section.
	linesBefore := strings.Count(d.SectionText[:loc[0]], "\n")
	start := d.HeadingLine - 1 + linesBefore
	end := min(len(doc.Lines), d.HeadingLine+strings.Count(d.SectionText, "\n"))
	if start >= end {
		return nil
	}
	m := linkRe.FindStringSubmatch(strings.Join(doc.Lines[start:end], "\n"))
	if m == nil {
		return nil
	}

	file, anchor := splitTarget(m[2], d.File)
	report := func(code issue.Code, title, format string, args ...any) issue.List {
		return issue.List{issue.Warnf(code, title, format, args...).
			At(d.File, d.HeadingLine).
			WithContext(issue.CtxName, d.Name).
			WithContext(issue.CtxTarget, m[2])}
	}

	if !validFileName(file) {
		return report(issue.CodeCanonicalInvalidLink, "Invalid canonical link",
			"Canonical link points to invalid file: %s", file)
	}
	if !corpus.Exists(file) {
		return report(issue.CodeCanonicalFileNotFound, "Canonical file not found",
			"Canonical link points to non-existent file: %s", file)
	}
	if !insideRoot(corpus.Root, file) {
		return report(issue.CodeCanonicalUnsafePath, "Unsafe canonical path",
			"Canonical link points outside repository: %s", file)
	}

	target, err := corpus.Get(file)
	if err == nil {
		if h, ok := markdown.FindHeading(target.Headings, anchor); ok && anchor != "" {
			d.CanonicalFile = file
			d.CanonicalHeading = h.Text
			d.CanonicalAnchor = anchor
			return nil
		}
	}
	return report(issue.CodeCanonicalAnchorNotFound, "Canonical anchor not found",
		"Canonical anchor '%s' not found in %s", anchor, file)
}

// splitTarget splits "file#anchor" into the file (defaulting to self) and the
// anchor with its leading '#'.
func splitTarget(target, self string) (string, string) {
	file, anchor, ok := strings.Cut(target, "#")
	if file == "" {
		file = self
	}
	if !ok {
		return file, ""
	}
	return file, "#" + anchor
}

func validFileName(name string) bool {
	return name != "" &&
		!strings.ContainsAny(name, "/\\\x00") &&
		!strings.Contains(name, "..")
}

// insideRoot reports whether name, with symlinks resolved, stays inside root.
func insideRoot(root, name string) bool {
	absRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false
	}
	resolved, err := filepath.EvalSymlinks(filepath.Join(root, name))
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, resolved)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
