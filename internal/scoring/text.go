package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/phobologic/defsindex/internal/model"
)

var (
	wordRe           = regexp.MustCompile(`\b[a-z]{3,}\b`)
	longWordRe       = regexp.MustCompile(`\b[a-z]{4,}\b`)
	leadingNumberRe  = regexp.MustCompile(`^\d+(?:\.\d+)*\.?\s*`)
	camelBoundaryRe  = regexp.MustCompile(`[a-z][A-Z]`)
	returnsRe        = regexp.MustCompile(`(?i)\breturns?\s+(?:\*?[A-Z][a-zA-Z0-9]*|error|bool|string|int\d*|uint\d*|float\d*)(?:\s+if|\s+when|\s+on)?[\s,.]*`)
	parenTypeRe      = regexp.MustCompile(`\([^)]*\*?[A-Z][a-zA-Z0-9]+[^)]*\)`)
	spaceRe          = regexp.MustCompile(`\s+`)
	nonAlnumLowerRe  = regexp.MustCompile(`[^a-z0-9]`)
	nonAlnumRe       = regexp.MustCompile(`[^a-zA-Z0-9]`)
	camelPartRe      = regexp.MustCompile(`[A-Z]+[a-z0-9]*|[a-z0-9]+`)
	lowerTokenRe     = regexp.MustCompile(`\b[a-z0-9]+\b`)
	sectionPrefixRe  = regexp.MustCompile(`^\d+\.\s*`)
	implementsRe     = regexp.MustCompile(`(?i)implements\s+([A-Z][A-Za-z0-9]+)`)
	subsectionNumRe  = regexp.MustCompile(`^\d+\.\d*\s*`)
	trailingKindRe   = regexp.MustCompile(`\s+(?:types?|errors?|methods?|operations?)\s*$`)
	subsectionWordRe = regexp.MustCompile(`[\s\-]+`)
)

var knownCompounds = setOf(
	"fileentry", "pathmetadata", "fileentrytag", "pathmetadatatag", "bufferpool",
	"mlkem", "appid", "vendorid", "mimetype", "filetype", "errorcontext",
	"accesscontrol", "accesscontrollist",
)

// normalizeKeyword lowercases a keyword and folds compounds:
// FileEntry -> fileentry, ML-KEM -> mlkem.
func normalizeKeyword(keyword string) string {
	if keyword == "" {
		return ""
	}
	lower := strings.ToLower(keyword)
	if has(knownCompounds, lower) {
		return lower
	}
	if camelBoundaryRe.MatchString(keyword) {
		return lower
	}
	return strings.ReplaceAll(lower, "-", "")
}

var headingStopWords = setOf(
	"the", "and", "for", "with", "from", "that", "this", "are", "was", "were",
	"has", "have", "had", "but", "not", "all", "any", "can", "will", "may",
	"should", "must", "each", "such", "when", "where", "what", "which", "who",
	"why", "how",
	"method", "methods", "function", "functions", "type", "types",
	"definition", "definitions", "section", "subsection", "overview",
	"summary", "general", "core", "other",
)

var proseStopWords = setOf(
	"the", "and", "for", "with", "from", "that", "this", "are", "was", "were",
	"has", "have", "had", "but", "not", "all", "any", "can", "will", "may",
	"should", "must", "each", "such", "when", "where", "what", "which", "who",
	"why", "how",
)

// headingKeywords returns up to five meaningful words of a heading.
func headingKeywords(heading string) []string {
	if heading == "" {
		return nil
	}
	clean := strings.ToLower(leadingNumberRe.ReplaceAllString(heading, ""))
	var out []string
	for _, w := range wordRe.FindAllString(clean, -1) {
		if has(headingStopWords, w) {
			continue
		}
		out = append(out, w)
		if len(out) == 5 {
			break
		}
	}
	return out
}

// proseKeywords returns up to ten meaningful words from the prose that
// precedes the first code fence of a section.
func proseKeywords(sectionText string) []string {
	if sectionText == "" {
		return nil
	}
	var prose []string
	for _, line := range strings.Split(sectionText, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			break
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		prose = append(prose, line)
	}
	text := strings.ToLower(strings.Join(prose, " "))
	var out []string
	for _, w := range wordRe.FindAllString(text, -1) {
		if has(proseStopWords, w) {
			continue
		}
		out = append(out, w)
		if len(out) == 10 {
			break
		}
	}
	return out
}

// cleanComment drops "returns X" clauses and parenthesized type references,
// which name types rather than describe the definition.
func cleanComment(text string) string {
	text = returnsRe.ReplaceAllString(text, "")
	text = parenTypeRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// commentKeywords extracts the mapped keywords found in a doc comment.
// Priority phrases come first; single words follow; finally multi-word
// keywords are matched loosely, allowing one short word in between.
func (t *Tables) commentKeywords(comment string) []string {
	if comment == "" {
		return nil
	}
	lower := strings.ToLower(comment)
	var keywords []string
	seen := make(map[string]struct{})
	add := func(k string) {
		keywords = append(keywords, k)
		seen[k] = struct{}{}
	}

	for i, phrase := range priorityPhrases {
		compact := strings.ReplaceAll(phrase, " ", "")
		if priorityPhraseRes[i].MatchString(lower) || strings.Contains(lower, compact) {
			if !has(seen, compact) {
				add(compact)
			}
		}
	}

	for _, w := range wordRe.FindAllString(lower, -1) {
		n := normalizeKeyword(w)
		if n == "" || has(seen, n) {
			continue
		}
		if _, ok := t.keyword(n); ok {
			add(n)
		}
	}

	for _, rule := range t.Keywords {
		if has(seen, rule.Keyword) {
			continue
		}
		compact := strings.ReplaceAll(rule.Keyword, " ", "")
		if has(seen, compact) {
			continue
		}
		if strings.Contains(lower, compact) {
			add(compact)
			continue
		}
		if re, ok := t.loose[rule.Keyword]; ok && re.MatchString(lower) {
			add(compact)
		}
	}
	return keywords
}

var priorityPhraseRes = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(priorityPhrases))
	for i, p := range priorityPhrases {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`)
	}
	return out
}()

func loosePhraseRe(phrase string) *regexp.Regexp {
	words := strings.Fields(phrase)
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = `\b` + regexp.QuoteMeta(w) + `\b`
	}
	return regexp.MustCompile(strings.Join(parts, `\s+\w{0,20}?\s+`))
}

// sectionKind infers which kind of definition a section path accepts from
// its wording, or "" when the wording is ambiguous.
func sectionKind(section string) model.Kind {
	s := strings.ToLower(section)
	switch {
	case strings.Contains(s, "methods") && !strings.Contains(s, "helper"):
		return model.KindMethod
	case strings.Contains(s, "helper") && strings.Contains(s, "function"):
		return model.KindFunc
	case strings.Contains(s, "type") && !strings.Contains(s, "method") && !strings.Contains(s, "function"):
		return model.KindType
	case strings.Contains(s, "interface") && !strings.Contains(s, "method"):
		return model.KindType
	case strings.Contains(s, "error") && strings.Contains(s, "type"):
		return model.KindType
	case strings.Contains(s, "generic") && strings.Contains(s, "type"):
		return model.KindType
	}
	return ""
}

// sectionLevel picks the part of a section path keyword matching runs
// against: the top heading for types, the rest of the path otherwise.
func sectionLevel(section string, kind model.Kind) string {
	top, rest, ok := strings.Cut(section, " > ")
	if !ok {
		return section
	}
	top, rest = strings.TrimSpace(top), strings.TrimSpace(rest)
	if kind == model.KindType || rest == "" {
		return top
	}
	return rest
}

// matchPattern reports whether a section contains the pattern, or failing
// that every pattern word of four or more letters (a partial match).
func matchPattern(sectionLower, pattern string) (matched, partial bool) {
	p := strings.ToLower(pattern)
	if strings.Contains(sectionLower, p) {
		return true, false
	}
	var words []string
	for _, w := range strings.Fields(p) {
		if len(w) >= 4 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return false, false
	}
	for _, w := range words {
		if !strings.Contains(sectionLower, w) {
			return false, false
		}
	}
	return true, true
}

func targetWeight(sectionLower string, target Target, base float64) (float64, bool) {
	matched, partial := matchPattern(sectionLower, target.Pattern)
	if !matched {
		return 0, false
	}
	w, ok := strengthWeights[target.Strength]
	if !ok {
		w = base
	}
	if partial {
		w *= 0.8
	}
	return w, partial
}

// matchKeywords scores extracted keywords against a section level. Each
// keyword contributes its first matching target; the total is capped.
func (t *Tables) matchKeywords(keywords []string, level string, limit float64) (float64, []string) {
	if len(keywords) == 0 || level == "" {
		return 0, nil
	}
	sectionLower := strings.ToLower(level)
	kwSet := setOf(keywords...)
	matchedWords := make(map[string]struct{})
	compactPhrases := make(map[string]struct{}, len(priorityPhrases))
	var total float64
	var reasons []string

	for _, phrase := range priorityPhrases {
		compact := strings.ReplaceAll(phrase, " ", "")
		compactPhrases[compact] = struct{}{}
		if !has(kwSet, phrase) && !has(kwSet, compact) {
			continue
		}
		rule, ok := t.keyword(phrase)
		if !ok {
			continue
		}
		for _, target := range rule.Targets {
			w, partial := targetWeight(sectionLower, target, 0.15)
			if w <= 0 {
				continue
			}
			total += w
			if partial {
				reasons = append(reasons, fmt.Sprintf("Priority phrase '%s' partially matches section: +%d%%", phrase, pct(w)))
			} else {
				reasons = append(reasons, fmt.Sprintf("Priority phrase '%s' matches section: +%d%%", phrase, pct(w)))
			}
			for _, word := range strings.Fields(phrase) {
				matchedWords[word] = struct{}{}
			}
			break
		}
	}

	for _, kw := range keywords {
		if has(matchedWords, kw) || has(compactPhrases, strings.ReplaceAll(kw, " ", "")) {
			continue
		}
		rule, ok := t.keyword(kw)
		if !ok {
			continue
		}
		for _, target := range rule.Targets {
			w, partial := targetWeight(sectionLower, target, 0.05)
			if w <= 0 {
				continue
			}
			total += w
			if partial {
				reasons = append(reasons, fmt.Sprintf("Keyword '%s' partially matches section: +%d%%", kw, pct(w)))
			} else {
				reasons = append(reasons, fmt.Sprintf("Keyword '%s' matches section: +%d%%", kw, pct(w)))
			}
			break
		}
	}

	if total > limit {
		total = limit
		if len(reasons) > 1 {
			reasons = append(reasons, fmt.Sprintf("(capped at %d%% total)", int(math.Round(limit*100))))
		}
	}
	return total, reasons
}

// pct renders a weight as a truncated whole percentage.
func pct(w float64) int {
	return int(w * 100)
}

func splitCamelWords(name string) []string {
	if name == "" {
		return nil
	}
	clean := nonAlnumRe.ReplaceAllString(model.NormalizeGenericName(name), "")
	parts := camelPartRe.FindAllString(clean, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.ToLower(p))
	}
	return out
}
