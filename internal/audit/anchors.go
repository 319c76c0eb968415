// Package audit checks the current index entries against the corpus: that
// each anchor points at the section documenting the definition, and that
// every entry carries a usable, unique description.
package audit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/defsindex/internal/discover"
	"github.com/phobologic/defsindex/internal/issue"
	"github.com/phobologic/defsindex/internal/lang"
	"github.com/phobologic/defsindex/internal/markdown"
	"github.com/phobologic/defsindex/internal/model"
)

// Context keys specific to anchor findings.
const (
	ctxAnchor     = "anchor"
	ctxDefLine    = "definition_line"
	ctxAnchorLine = "anchor_line"
)

// Anchors verifies every current entry that links to file#anchor. defs maps
// each definition name to every place it is declared.
func Anchors(pi *model.ParsedIndex, corpus *discover.Corpus, defs map[string][]*model.Definition, indexFile string) issue.List {
	var out issue.List
	for _, sec := range pi.OrderedSections() {
		for _, entry := range sec.Entries {
			if entry.LinkAnchor == "" || !plainFileName(entry.LinkFile) {
				continue
			}
			c := &anchorCheck{
				corpus:    corpus,
				entry:     entry,
				indexFile: indexFile,
			}
			out.Add(c.run(defs[entry.Name]))
		}
	}
	return out
}

type anchorCheck struct {
	corpus    *discover.Corpus
	entry     *model.IndexEntry
	indexFile string
}

func (c *anchorCheck) fail(code issue.Code, title, format string, args ...any) *issue.Issue {
	return issue.Errorf(code, title, format, args...).
		At(c.indexFile, c.entry.Line).
		WithContext(issue.CtxName, c.entry.Name).
		WithContext(issue.CtxTarget, c.entry.LinkFile).
		WithContext(ctxAnchor, c.entry.LinkAnchor)
}

func (c *anchorCheck) run(candidates []*model.Definition) *issue.Issue {
	name, target, anchor := c.entry.Name, c.entry.LinkFile, c.entry.LinkAnchor
	if len(candidates) == 0 {
		return c.fail(issue.CodeDefinitionNotFound, "Definition not found",
			"Definition '%s' not found in any tech spec file", name)
	}
	if !c.corpus.Exists(target) {
		return c.fail(issue.CodeTargetFileNotFound, "Target file not found",
			"Target file '%s' does not exist", target)
	}

	var def *model.Definition
	for _, d := range candidates {
		if d.File == target {
			def = d
			break
		}
	}
	if def == nil {
		return c.fail(issue.CodeDefinitionNotInTarget, "Definition not in target",
			"Definition '%s' not found in target file '%s'", name, target)
	}

	doc, err := c.corpus.Get(target)
	if err != nil {
		return issue.Wrap(err, issue.CodeReadError, "Error reading file", "Could not read anchor target").
			At(c.indexFile, c.entry.Line).
			WithContext(issue.CtxTarget, target)
	}

	headings := sectionHeadings(doc.Headings)
	heading, ok := markdown.FindHeading(headings, anchor)
	if !ok {
		return c.fail(issue.CodeAnchorNoMatch, "Anchor does not match",
			"Anchor '%s' does not match any heading in target file", anchor)
	}
	next := len(doc.Lines) + 1
	for _, h := range headings {
		if h.Line > heading.Line {
			next = h.Line
			break
		}
	}

	switch {
	case def.Line < heading.Line:
		return c.fail(issue.CodeDefinitionBeforeAnchor, "Definition before anchor",
			"Definition at line %d is before anchor section at line %d", def.Line, heading.Line).
			WithContext(ctxDefLine, def.Line).
			WithContext(ctxAnchorLine, heading.Line)
	case def.Line >= next:
		return c.fail(issue.CodeDefinitionAfterAnchor, "Definition after anchor",
			"Definition at line %d is after anchor section (next heading at line %d)", def.Line, next).
			WithContext(ctxDefLine, def.Line).
			WithContext(ctxAnchorLine, heading.Line)
	case def.BlockLine < heading.Line || def.BlockLine >= next:
		return c.fail(issue.CodeCodeBlockOutsideSection, "Code block outside section",
			"Definition code block at line %d is not within anchor section (lines %d-%d)",
			def.BlockLine, heading.Line, next-1)
	}

	fence, ok := markdown.FenceAt(doc.Fences, def.BlockLine)
	if !ok || lang.ForFence(fence.Info) != "go" {
		return c.fail(issue.CodeCodeBlockNotGo, "Code block not Go",
			"Definition code block at line %d is not a Go code block (expected ```go)", def.BlockLine)
	}
	if !fence.Terminated || fence.End >= next {
		return c.fail(issue.CodeCodeBlockUnterminated, "Code block not closed",
			"Go code block starting at line %d is not closed", def.BlockLine)
	}
	if !blockMentions(fence.Lines, name) {
		return c.fail(issue.CodeDefinitionNotInBlock, "Definition not in code block",
			"Definition '%s' not found in code block at line %d within anchor section", name, def.BlockLine)
	}
	return nil
}

// sectionHeadings drops the document title; anchors only address level 2
// and deeper.
func sectionHeadings(headings []markdown.Heading) []markdown.Heading {
	out := make([]markdown.Heading, 0, len(headings))
	for _, h := range headings {
		if h.Level >= 2 {
			out = append(out, h)
		}
	}
	return out
}

// blockMentions looks for the declaration's name token. Methods match on
// the qualified name or on "Method(".
func blockMentions(lines []string, name string) bool {
	_, method, isMethod := strings.Cut(name, ".")
	var re *regexp.Regexp
	if isMethod {
		re = regexp.MustCompile(fmt.Sprintf(`\b%s\s*\(`, regexp.QuoteMeta(method)))
	} else {
		re = regexp.MustCompile(fmt.Sprintf(`\b%s\b`, regexp.QuoteMeta(name)))
	}
	for _, line := range lines {
		if (isMethod && strings.Contains(line, name)) || re.MatchString(line) {
			return true
		}
	}
	return false
}

func plainFileName(name string) bool {
	return name != "" &&
		!strings.ContainsAny(name, "/\\\x00:") &&
		!strings.Contains(name, "..")
}
