package discover

import (
	"fmt"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/defsindex/internal/issue"
	"github.com/phobologic/defsindex/internal/lang"
	"github.com/phobologic/defsindex/internal/markdown"
	"github.com/phobologic/defsindex/internal/model"
	"github.com/phobologic/defsindex/internal/parse"
)

var (
	qualifiedRe = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)\b`)
	identRe     = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

// Result is the outcome of a discovery pass.
type Result struct {
	// Definitions holds one entry per name. A name declared in more than
	// one file keeps its first occurrence in file order; every occurrence
	// is listed in Duplicates.
	Definitions []*model.Definition
	Duplicates  map[string][]*model.Definition
	Issues      issue.List
	Files       int
}

// Definitions extracts the documented declarations of every file. Files are
// parsed concurrently and collected back in the given order, so the result
// is the same as a sequential pass.
func Definitions(corpus *Corpus, files []string) *Result {
	type result struct {
		index  int
		defs   []*model.Definition
		issues issue.List
	}

	res := &Result{Duplicates: make(map[string][]*model.Definition), Files: len(files)}
	if len(files) == 0 {
		return res
	}

	goLang := lang.Languages["go"]
	query, err := goLang.GetTagQuery()
	if err != nil {
		res.Issues.Add(issue.Wrap(err, issue.CodeReadError, "Error compiling query", "Could not compile the Go declaration query"))
		return res
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser
			ex := &extractor{corpus: corpus, lang: goLang, parser: goLang.NewParser(), query: query}

			for idx := range work {
				defs, issues := ex.file(files[idx])
				results <- result{index: idx, defs: defs, issues: issues}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	indexed := make([]result, len(files))
	for r := range results {
		indexed[r.index] = r
	}

	byName := make(map[string][]*model.Definition)
	var all []*model.Definition
	for _, r := range indexed {
		res.Issues = append(res.Issues, r.issues...)
		for _, d := range r.defs {
			all = append(all, d)
			byName[d.Name] = append(byName[d.Name], d)
		}
	}

	for name, defs := range byName {
		fileSet := make(map[string]struct{})
		for _, d := range defs {
			fileSet[d.File] = struct{}{}
		}
		if len(fileSet) > 1 {
			res.Duplicates[name] = defs
		}
	}
	res.Issues = append(res.Issues, duplicateIssues(corpus, res.Duplicates)...)

	kept := make(map[string]bool, len(byName))
	for _, d := range all {
		if kept[d.Name] {
			continue
		}
		kept[d.Name] = true
		res.Definitions = append(res.Definitions, d)
	}
	return res
}

type extractor struct {
	corpus *Corpus
	lang   *lang.Language
	parser *sitter.Parser
	query  *sitter.Query
}

// file extracts the non-example declarations of one document. Within one
// file the first occurrence of a name wins.
func (ex *extractor) file(name string) ([]*model.Definition, issue.List) {
	var issues issue.List
	doc, err := ex.corpus.Get(name)
	if err != nil {
		issues.Add(issue.Wrap(err, issue.CodeReadError, "Error reading file", "Could not read file").At(name, 0))
		return nil, issues
	}

	seen := make(map[string]bool)
	var defs []*model.Definition
	for _, fence := range doc.Fences {
		if !fence.Terminated || lang.ForFence(fence.Info) != ex.lang.Name {
			continue
		}
		heading, _ := markdown.HeadingBefore(doc.Headings, fence.Start)
		for _, decl := range parse.ExtractDecls(ex.lang, ex.parser, ex.query, []byte(fence.Content())) {
			line := fence.Start + decl.Line
			if markdown.IsExampleDecl(doc.Lines, fence, heading.Text, line, decl.RawName) {
				continue
			}
			if seen[decl.Name] {
				continue
			}
			seen[decl.Name] = true

			d := newDefinition(decl, doc, fence, line)
			issues.Add(resolveCanonical(ex.corpus, d, doc)...)
			defs = append(defs, d)
		}
	}
	return defs, issues
}

func newDefinition(decl parse.Decl, doc *Document, fence markdown.Fence, line int) *model.Definition {
	d := &model.Definition{
		Name:         decl.Name,
		RawName:      decl.RawName,
		Kind:         decl.Kind,
		Form:         decl.Form,
		ReceiverType: decl.Receiver,
		Signature:    decl.Signature,
		Generic:      decl.Generic,
		File:         doc.Name,
		Line:         line,
		BlockLine:    fence.Start,
		BlockContent: fence.Content(),
		DocComment:   decl.Doc,
	}

	if h, ok := markdown.HeadingBefore(doc.Headings, fence.Start); ok {
		d.Heading = h.Text
		d.HeadingLevel = h.Level
		d.HeadingLine = h.Line
		if p, ok := markdown.ParentOf(doc.Headings, h); ok {
			d.ParentHeading = p.Text
			d.ParentHeadingLevel = p.Level
		}
		d.SectionText = markdown.SectionText(doc.Lines, doc.Headings, h)
	}

	if decl.Kind == model.KindFunc {
		d.InputTypes, d.OutputTypes, d.ReferencedTypes, d.ReferencedMethods = signatureTypes(decl)
	}
	return d
}

// signatureTypes relates a function to the types its signature mentions.
func signatureTypes(decl parse.Decl) (inputs, outputs, referenced, methods []string) {
	for _, p := range splitList(decl.ParamText) {
		inputs = append(inputs, collectTypeNames(paramType(p))...)
	}
	for _, r := range splitList(decl.ResultText) {
		outputs = append(outputs, collectTypeNames(paramType(r))...)
	}
	inputs = dedupe(inputs)
	outputs = dedupe(outputs)

	var refTypes []string
	sig := decl.RawName + decl.ParamText + " " + decl.ResultText
	for _, m := range qualifiedRe.FindAllStringSubmatch(sig, -1) {
		typeName := model.NormalizeGenericName(m[1])
		if startsUpper(typeName) {
			methods = append(methods, typeName+"."+m[2])
			refTypes = append(refTypes, typeName)
		}
	}

	referenced = dedupe(append(append(append([]string(nil), inputs...), outputs...), refTypes...))
	return inputs, outputs, referenced, dedupe(methods)
}

// splitList strips one pair of enclosing parentheses and splits on top-level
// commas.
func splitList(text string) []string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		text = text[1 : len(text)-1]
	}
	var parts []string
	depth, start := 0, 0
	for i, r := range text {
		switch r {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, text[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, text[start:])
}

// paramType drops the parameter name: "opts ...Option" -> "Option".
func paramType(param string) string {
	text := strings.TrimSpace(param)
	if text == "" {
		return ""
	}
	text = strings.TrimPrefix(text, "...")
	fields := strings.Fields(text)
	if len(fields) >= 2 {
		return strings.TrimPrefix(strings.Join(fields[1:], " "), "...")
	}
	return fields[0]
}

func collectTypeNames(typeStr string) []string {
	if typeStr == "" {
		return nil
	}
	var names []string
	for _, m := range qualifiedRe.FindAllStringSubmatch(typeStr, -1) {
		if startsUpper(m[2]) {
			names = append(names, m[2])
		}
	}
	for _, tok := range identRe.FindAllString(typeStr, -1) {
		if startsUpper(tok) {
			names = append(names, tok)
		}
	}
	return dedupe(names)
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func duplicateIssues(corpus *Corpus, dups map[string][]*model.Definition) issue.List {
	names := make([]string, 0, len(dups))
	for name := range dups {
		names = append(names, name)
	}
	sort.Strings(names)

	var out issue.List
	for _, name := range names {
		defs := append([]*model.Definition(nil), dups[name]...)
		sort.SliceStable(defs, func(i, j int) bool {
			if defs[i].File != defs[j].File {
				return defs[i].File < defs[j].File
			}
			return defs[i].BlockLine < defs[j].BlockLine
		})
		locations := make([]string, len(defs))
		for i, d := range defs {
			locations[i] = fmt.Sprintf("%s%s:%d", d.File, blockAnchor(corpus, d), d.BlockLine)
		}
		first := defs[0]
		out.Add(issue.Errorf(issue.CodeDuplicateDefinition, "Duplicate definition",
			"Definition '%s' found in multiple files (%s)", name, strings.Join(locations, ",")).
			At(first.File, first.BlockLine).
			WithContext(issue.CtxName, name))
	}
	return out
}

// blockAnchor is the heading anchor above the definition's block, or
// #line-N when the block has no heading.
func blockAnchor(corpus *Corpus, d *model.Definition) string {
	if doc, err := corpus.Get(d.File); err == nil {
		if h, ok := markdown.HeadingBefore(doc.Headings, d.BlockLine); ok {
			if a := markdown.Anchor(h.Text); a != "" {
				return a
			}
		}
	}
	return fmt.Sprintf("#line-%d", d.BlockLine)
}

// ByName groups every discovered definition by name, duplicates included.
func (r *Result) ByName() map[string][]*model.Definition {
	out := make(map[string][]*model.Definition, len(r.Definitions)+len(r.Duplicates))
	for _, d := range r.Definitions {
		if _, dup := r.Duplicates[d.Name]; dup {
			continue
		}
		out[d.Name] = append(out[d.Name], d)
	}
	for name, defs := range r.Duplicates {
		out[name] = append(out[name], defs...)
	}
	return out
}
