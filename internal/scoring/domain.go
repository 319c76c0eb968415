package scoring

import (
	"regexp"
	"strings"

	"github.com/phobologic/defsindex/internal/model"
)

// sectionDomainRules infer a domain from the section pattern a keyword
// targets.
var sectionDomainRules = []struct {
	Domain   string
	Keywords []string
}{
	{"metadata", []string{"package metadata", "metadata"}},
	{"generic", []string{"generic"}},
	{"streaming", []string{"streaming", "buffer"}},
	{"compression", []string{"compression", "compress", "decompress"}},
	{"encryption", []string{"encryption", "encrypt", "security"}},
	{"signature", []string{"signature", "sign"}},
	{"deduplication", []string{"deduplication", "dedup"}},
	{"filetype", []string{"filetype"}},
	{"writing", []string{"packagewriter", "package writing"}},
	{"package", []string{"package"}},
}

var domainSuffixes = []string{"strategy", "builder", "validator"}

var domainSuffixKeywords = []struct {
	Domain   string
	Keywords []string
}{
	{"compression", []string{"compression", "compress", "decompress"}},
	{"encryption", []string{"encryption", "encrypt", "security"}},
	{"signature", []string{"signature", "sign"}},
	{"streaming", []string{"stream", "streaming", "buffer"}},
	{"deduplication", []string{"dedup", "deduplication"}},
}

var domainFallbackKeywords = []struct {
	Domain   string
	Keywords []string
}{
	{"metadata", []string{"metadata", "comment", "tag", "pathmetadata", "fileentrytag"}},
	{"compression", []string{"compression", "compress", "decompress"}},
	{"encryption", []string{"encryption", "encrypt", "decrypt", "aes", "chacha", "mlkem", "cipher"}},
	{"signature", []string{"signature", "sign"}},
	{"streaming", []string{"streaming", "stream", "buffer", "chunk"}},
	{"deduplication", []string{"deduplication", "dedup"}},
	{"package", []string{"package"}},
	{"concurrency", []string{"concurrency", "thread", "worker", "safety"}},
	{"extraction", []string{"extract", "extraction"}},
	{"creation", []string{"create", "creation"}},
	{"filetype", []string{"filetype"}},
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// DetectDomain returns the functional domain of a definition, or "" when
// none applies. Signals are tried in a fixed order and the first hit wins.
func (t *Tables) DetectDomain(d *model.Definition) string {
	nameLower := strings.ToLower(d.Name)
	receiverLower := strings.ToLower(model.NormalizeGenericName(d.ReceiverType))

	switch {
	case strings.Contains(nameLower, "signature"), strings.Contains(nameLower, "signing"),
		strings.Contains(receiverLower, "signature"), strings.Contains(receiverLower, "signing"),
		strings.Contains(strings.ToLower(d.Heading), "signature"):
		return "signature"
	}
	if domain, ok := t.DomainFiles[d.File]; ok {
		return domain
	}
	if d.Generic {
		return "generic"
	}

	compact := strings.ReplaceAll(nameLower, ".", "")
	for _, rule := range t.Keywords {
		kw := strings.ReplaceAll(rule.Keyword, " ", "")
		if kw == "" {
			continue
		}
		if !strings.Contains(compact, kw) && (receiverLower == "" || !strings.Contains(receiverLower, kw)) {
			continue
		}
		for _, target := range rule.Targets {
			if domain := domainOfPattern(target.Pattern); domain != "" {
				return domain
			}
		}
	}

	if containsAny(nameLower, domainSuffixes) {
		for _, s := range domainSuffixKeywords {
			if containsAny(nameLower, s.Keywords) {
				return s.Domain
			}
		}
	}
	for _, f := range domainFallbackKeywords {
		if containsAny(nameLower, f.Keywords) {
			return f.Domain
		}
	}
	return ""
}

func domainOfPattern(pattern string) string {
	p := strings.ToLower(strings.TrimSpace(pattern))
	for _, rule := range sectionDomainRules {
		if containsAny(p, rule.Keywords) {
			return rule.Domain
		}
	}
	return ""
}

// implementedInterface looks for "implements X" near the definition's name
// in its section prose and returns X.
func implementedInterface(d *model.Definition) string {
	text := d.SectionText
	if text == "" {
		return ""
	}
	nameLower := strings.ToLower(d.Name)
	for _, m := range implementsRe.FindAllStringSubmatchIndex(text, -1) {
		iface := text[m[2]:m[3]]
		if iface == d.Name {
			continue
		}
		start := max(0, m[0]-200)
		end := min(len(text), m[1]+200)
		if strings.Contains(strings.ToLower(text[start:end]), nameLower) {
			return iface
		}
	}
	return ""
}

var subsectionStopWords = setOf("and", "the", "for", "with", "from", "that", "this", "to", "in", "on", "at")

var subsectionDomainWords = setOf(
	"encryption", "encrypt", "decrypt", "compression", "compress", "decompress",
	"signature", "sign", "validation", "validate", "query", "queries",
	"information", "info", "lifecycle", "pattern", "streaming", "stream",
	"buffer", "deduplication", "writing", "write", "security", "mlkem",
	"ml-kem", "symlink", "link", "conversion", "convert", "concurrent",
	"status", "hash", "optional", "data", "tag", "value", "transform",
	"processing", "state", "comment", "pathmetadata", "path-metadata",
)

var subsectionCompoundWords = setOf("fileentry", "compression", "encryption", "signature")

var subsectionNumberWordRe = regexp.MustCompile(`^\d+\.\d*$`)

// subsectionKeywords extracts the domain words of a section path. Symlink
// and path metadata sections only yield their own vocabulary.
func subsectionKeywords(section string) []string {
	lower := strings.ToLower(section)
	symlink := strings.Contains(lower, "symlink") || strings.Contains(lower, "link")
	pathMeta := strings.Contains(lower, "path metadata") || strings.Contains(lower, "pathmetadata")

	text := subsectionNumRe.ReplaceAllString(lower, "")
	text = trailingKindRe.ReplaceAllString(text, "")

	var out []string
	for _, word := range subsectionWordRe.Split(text, -1) {
		word = strings.TrimSpace(word)
		if len(word) < 3 || has(subsectionStopWords, word) || subsectionNumberWordRe.MatchString(word) {
			continue
		}
		switch {
		case symlink:
			if word == "symlink" || word == "link" || word == "conversion" || word == "convert" {
				out = append(out, word)
			}
		case pathMeta:
			if word == "pathmetadata" || word == "path-metadata" || word == "path" {
				out = append(out, word)
			}
		case has(subsectionDomainWords, word):
			out = append(out, word)
		case has(ambiguousKeywords, word):
		case has(subsectionCompoundWords, word):
			out = append(out, word)
		}
	}
	return out
}

var errorDomainPatterns = []string{
	"file", "compression", "encryption", "encrypt", "signature", "sign",
	"package", "security", "validation", "validate", "streaming", "stream",
	"buffer", "writing", "write", "basic", "operation", "management",
	"metadata", "path",
}

// errorDomain extracts the domain word of an error name such as
// ErrFileNotFound or CompressionError.
func errorDomain(name string) string {
	clean := strings.TrimPrefix(strings.ToLower(name), "err")
	clean = strings.TrimSuffix(clean, "error")
	for _, p := range errorDomainPatterns {
		if strings.Contains(clean, p) {
			return p
		}
	}
	return ""
}
