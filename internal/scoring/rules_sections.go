package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phobologic/defsindex/internal/model"
)

func fileTokens(name string) []string {
	n := strings.ToLower(name)
	n = strings.ReplaceAll(n, ".md", "")
	n = strings.ReplaceAll(n, "-", "_")
	var out []string
	for _, tok := range strings.Split(n, "_") {
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// containsSequence reports whether pattern appears in tokens in order,
// not necessarily adjacent.
func containsSequence(tokens, pattern []string) bool {
	if len(tokens) == 0 || len(pattern) == 0 {
		return false
	}
	i := 0
	for _, p := range pattern {
		for i < len(tokens) && tokens[i] != p {
			i++
		}
		if i == len(tokens) {
			return false
		}
		i++
	}
	return true
}

func filePatterns(c *evalCtx) contribution {
	if c.def.File == "" {
		return none()
	}
	tokens := fileTokens(c.def.File)
	for _, p := range fileSectionPatterns {
		if !containsSequence(tokens, fileTokens(p.Pattern)) {
			continue
		}
		for _, s := range p.Sections {
			s = strings.ToLower(s)
			if strings.Contains(c.leafLower, s) || strings.Contains(s, c.leafLower) {
				return add(0.15, fmt.Sprintf("File pattern match (%s): +15%%", c.def.File))
			}
		}
	}
	return none()
}

func headingMatch(c *evalCtx) contribution {
	if c.headingLower == "" {
		return none()
	}
	switch {
	case strings.Contains(c.headingLower, "signature") && !strings.Contains(c.sectionLower, "sign"):
		if c.kind == model.KindMethod && strings.Contains(c.nameLower, "file") {
			return add(-0.2, "Heading domain mismatch (heading mentions different domain): -20%")
		}
	case strings.Contains(c.headingLower, "encrypt"):
		if !strings.Contains(c.sectionLower, "encrypt") &&
			strings.Contains(c.nameLower, "file") && !strings.Contains(c.sectionLower, "file") {
			return add(-0.2, "Heading domain mismatch (heading mentions different domain): -20%")
		}
	}

	sectionText := sectionPrefixRe.ReplaceAllString(c.sectionLower, "")
	if strings.Contains(sectionText, c.headingLower) || strings.Contains(c.headingLower, sectionText) {
		return add(0.20, fmt.Sprintf("Heading text match with '%s': +20%%", c.section))
	}
	var matched []string
	for _, kw := range headingKeywords(c.def.Heading) {
		if strings.Contains(c.sectionLower, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return none()
	}
	return add(0.15, fmt.Sprintf("Heading keyword match (%s in section): +15%%", strings.Join(matched, ", ")))
}

func camelCaseMatch(c *evalCtx) contribution {
	leaf := c.section
	if i := strings.LastIndex(leaf, ">"); i >= 0 {
		leaf = leaf[i+1:]
	}
	leaf = strings.ToLower(leadingNumberRe.ReplaceAllString(strings.TrimSpace(leaf), ""))
	leafTokens := setOf(lowerTokenRe.FindAllString(leaf, -1)...)

	source := c.tables.MapImplementation(c.def.Name)
	if c.kind == model.KindMethod {
		if c.def.ReceiverType != "" {
			source = c.tables.MapImplementation(c.def.ReceiverType)
		} else {
			source, _, _ = strings.Cut(c.def.Name, ".")
		}
	}
	found := make(map[string]struct{})
	for _, w := range splitCamelWords(source) {
		if len(w) >= 4 && has(leafTokens, w) {
			found[w] = struct{}{}
		}
	}
	if len(found) == 0 {
		return none()
	}
	matched := make([]string, 0, len(found))
	for w := range found {
		matched = append(matched, w)
	}
	sort.Strings(matched)
	score := min(0.15*float64(len(matched)), 0.30)
	return add(score, fmt.Sprintf("camelCase word match (%s in section): +%d%%", strings.Join(matched, ", "), pct(score)))
}

func parentHeadingMatch(c *evalCtx) contribution {
	if c.def.ParentHeading == "" {
		return none()
	}
	parent := strings.ToLower(c.def.ParentHeading)
	sectionText := sectionPrefixRe.ReplaceAllString(c.sectionLower, "")
	switch {
	case strings.Contains(sectionText, parent) || strings.Contains(parent, sectionText):
		return add(0.15, fmt.Sprintf("Parent heading match with '%s': +15%%", c.section))
	case strings.Contains(parent, "pathmetadata") && strings.Contains(sectionText, "metadata"):
		return add(0.15, "Parent heading related term match ('PathMetadata' -> 'Metadata'): +15%")
	case strings.Contains(parent, "metadata") && strings.Contains(sectionText, "metadata"):
		return add(0.15, "Parent heading metadata term match: +15%")
	}
	return none()
}

var commentDomains = []struct {
	domain   string
	keywords []string
}{
	{"compression", []string{"compression", "compress", "decompress"}},
	{"encryption", []string{"encryption", "encrypt", "decrypt", "aes", "chacha", "mlkem", "cipher"}},
	{"package", []string{"package"}},
}

var kindWords = setOf("type", "types", "method", "methods", "function", "functions")

func commentDomainMatch(c *evalCtx) contribution {
	if c.comment == "" {
		return none()
	}
	comment := strings.ToLower(c.comment)
	var out contribution
	for _, d := range commentDomains {
		if !containsAny(comment, d.keywords) {
			continue
		}
		switch {
		case d.domain == "compression" && strings.Contains(c.sectionLower, "compress"):
			out.delta += 0.15
			out.reasons = append(out.reasons, "Code comment domain match (compression): +15%")
		case d.domain == "encryption" && c.inAny("encryption", "security"):
			out.delta += 0.15
			out.reasons = append(out.reasons, "Code comment domain match (encryption): +15%")
		case d.domain == "package" && strings.Contains(c.sectionLower, "package"):
			if c.isCorePackageType() {
				out.delta += 0.15
				out.reasons = append(out.reasons, "Code comment domain match (package): +15%")
			} else {
				out.delta += 0.10
				out.reasons = append(out.reasons, "Code comment domain match (package): +10% (weak)")
			}
		}
	}

	words := longWordRe.FindAllString(comment, 5)
	for _, w := range words {
		if strings.Contains(c.sectionLower, w) && !has(kindWords, w) {
			out.delta += 0.10
			out.reasons = append(out.reasons, fmt.Sprintf("Code comment keyword '%s' matches section: +10%%", w))
			break
		}
	}
	return out
}

func proseKeywordMatch(c *evalCtx) contribution {
	keywords := proseKeywords(c.def.SectionText)
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	var matched []string
	for _, kw := range keywords {
		if kw != "section" && !has(kindWords, kw) && strings.Contains(c.sectionLower, kw) {
			matched = append(matched, kw)
		}
	}
	if len(matched) == 0 {
		return none()
	}
	if len(matched) > 3 {
		matched = matched[:3]
	}
	return add(0.15, fmt.Sprintf("Prose keyword match (%s in section): +15%%", strings.Join(matched, ", ")))
}

var contentKeywords = []struct {
	keyword  string
	sections []string
}{
	{"compression", []string{"package compression", "compression"}},
	{"streaming", []string{"streaming and buffer management"}},
	{"security", []string{"security and encryption operations"}},
	{"encryption", []string{"security and encryption operations"}},
	{"signature", []string{"digital signatures"}},
	{"deduplication", []string{"deduplication"}},
	{"writing", []string{"package writing"}},
}

func contentKeywordMatch(c *evalCtx) contribution {
	var out contribution
	matches := 0
	for _, k := range contentKeywords {
		if !strings.Contains(c.nameLower, k.keyword) || !c.inAny(k.sections...) {
			continue
		}
		matches++
		out.delta += 0.05
		out.reasons = append(out.reasons, fmt.Sprintf("Content keyword '%s' in definition name: +5%%", k.keyword))
		if matches == 2 {
			break
		}
	}
	return out
}

// subsectionKeywordMatch looks for the section's own domain words in the
// definition name, then its heading, then its content, stopping at the
// first source that matches.
func subsectionKeywordMatch(c *evalCtx) contribution {
	keywords := subsectionKeywords(c.section)
	if len(keywords) == 0 {
		return none()
	}
	var out contribution
	method := c.methodName()

	matches := 0
	for _, kw := range keywords {
		if has(ambiguousKeywords, kw) || !strings.Contains(c.nameLower, kw) {
			continue
		}
		if method != "" && strings.Contains(method, kw) {
			out.delta += 0.30
			out.reasons = append(out.reasons, fmt.Sprintf("Subsection keyword '%s' in method name: +30%%", kw))
		} else {
			out.delta += 0.20
			out.reasons = append(out.reasons, fmt.Sprintf("Subsection keyword '%s' in definition name: +20%%", kw))
		}
		matches++
		if matches == 2 {
			break
		}
	}
	if matches > 0 {
		return out
	}

	usable := func(kw, text string) bool {
		if has(ambiguousKeywords, kw) || !strings.Contains(text, kw) {
			return false
		}
		return !has(domainSpecificKeywords, kw) || strings.Contains(c.nameLower, kw)
	}
	if c.headingLower != "" {
		for _, kw := range keywords {
			if usable(kw, c.headingLower) {
				return add(0.10, fmt.Sprintf("Subsection keyword '%s' in heading: +10%%", kw))
			}
		}
	}
	for _, kw := range keywords {
		if usable(kw, c.contentLower) {
			return add(0.05, fmt.Sprintf("Subsection keyword '%s' in content: +5%%", kw))
		}
	}
	return none()
}
