package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/defsindex/internal/model"
)

func strictKindGate(c *evalCtx) contribution {
	sk := sectionKind(c.section)
	if sk == "" || sk == c.kind {
		return none()
	}
	return contribution{
		blocked: true,
		reasons: []string{
			"STRICT kind mismatch (blocked)",
			fmt.Sprintf("definition.kind=%s, section_kind=%s", c.kind, sk),
		},
	}
}

func receiverGate(c *evalCtx) contribution {
	if c.kind != model.KindMethod || c.def.ReceiverType == "" {
		return none()
	}
	valid := c.secs.validTypes(c.section)
	if len(valid) == 0 {
		return none()
	}
	mapped := c.tables.MapImplementation(c.def.ReceiverType)
	if !has(valid, strings.ToLower(model.NormalizeGenericName(mapped))) {
		return contribution{
			blocked: true,
			reasons: []string{
				"Receiver type not allowed by section structure (blocked)",
				fmt.Sprintf("receiver=%s, section=%s", mapped, c.section),
			},
		}
	}
	return add(0.50, fmt.Sprintf("Receiver type match (index structure): +50%% (%s)", mapped))
}

// functionTypes guesses the types a function works on from its name:
// NewWidget -> widget, GetFileEntry -> fileentry, Widget -> widget.
func functionTypes(name string) map[string]struct{} {
	out := make(map[string]struct{})
	lower := strings.ToLower(name)
	addBase := func(s string) {
		base := s
		if i := strings.IndexFunc(s, func(r rune) bool { return !isAlnum(r) }); i >= 0 {
			base = s[:i]
		}
		if base != "" {
			out[strings.ToLower(model.NormalizeGenericName(base))] = struct{}{}
		}
	}
	if strings.HasPrefix(lower, "new") && len(name) > 3 && isUpper(name[3]) {
		out[strings.ToLower(model.NormalizeGenericName(name[3:]))] = struct{}{}
	}
	for _, prefix := range []string{"get", "set", "unmarshal", "marshal", "add", "remove", "has", "is"} {
		if strings.HasPrefix(lower, prefix) && len(name) > len(prefix) && isUpper(name[len(prefix)]) {
			addBase(name[len(prefix):])
		}
	}
	if name != "" && isUpper(name[0]) {
		addBase(name)
	}
	return out
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

func isAlnum(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func functionTypeInteraction(c *evalCtx) contribution {
	if c.kind != model.KindFunc {
		return none()
	}
	valid := c.secs.validTypes(c.section)
	if len(valid) == 0 {
		return none()
	}
	for t := range functionTypes(c.def.Name) {
		if has(valid, t) {
			return add(0.60, "Function interacts with type in section: +60%")
		}
	}
	return none()
}

var primarySuffixes = []string{"interface", "type", "types", "structure", "struct", "definition", "definitions"}

// primaryName reduces a section leaf to the type it is named after:
// "1.2 Package Interface Types" -> "package".
func primaryName(section string) string {
	leaf := section
	if i := strings.LastIndex(section, ">"); i >= 0 {
		leaf = section[i+1:]
	}
	leaf = strings.ToLower(leadingNumberRe.ReplaceAllString(strings.TrimSpace(leaf), ""))
	for trimmed := true; trimmed; {
		trimmed = false
		for _, suffix := range primarySuffixes {
			if strings.HasSuffix(leaf, " "+suffix) {
				leaf = strings.TrimSpace(strings.TrimSuffix(leaf, " "+suffix))
				trimmed = true
				break
			}
		}
	}
	return nonAlnumLowerRe.ReplaceAllString(leaf, "")
}

func exactNameMatch(c *evalCtx) contribution {
	if c.kind != model.KindType {
		return none()
	}
	interfaceLeaf := c.def.Form == model.FormInterface && strings.Contains(c.leafLower, "interface")
	typeLeaf := containsAny(" "+c.leafLower, []string{" type", " types", " structure", " struct"})
	if !interfaceLeaf && !typeLeaf {
		return none()
	}
	mapped := c.tables.MapImplementation(c.def.Name)
	norm := nonAlnumLowerRe.ReplaceAllString(strings.ToLower(model.NormalizeGenericName(mapped)), "")
	primary := primaryName(c.section)
	if norm == "" || primary == "" || norm != primary {
		return none()
	}
	if interfaceLeaf {
		return add(0.60, fmt.Sprintf("Exact interface name match (%s): +60%%", mapped))
	}
	return add(0.60, fmt.Sprintf("Exact type name match (%s): +60%%", mapped))
}

func interfacePattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(name)) + `\s+interface`)
}

func implementationMapping(c *evalCtx) contribution {
	if c.kind != model.KindType {
		return none()
	}
	var out contribution
	iface := implementedInterface(c.def)
	if iface != "" && interfacePattern(iface).MatchString(c.sectionLower) {
		out.delta += 0.40
		out.reasons = append(out.reasons, fmt.Sprintf(
			"Implementation reference: %s implements %s (from section content): +40%%", c.def.Name, iface))
	}
	mapped := c.tables.MapImplementation(c.def.Name)
	if mapped != c.def.Name && interfacePattern(mapped).MatchString(c.sectionLower) && iface != mapped {
		out.delta += 0.30
		out.reasons = append(out.reasons, fmt.Sprintf(
			"Implementation type (%s) maps to interface (%s): +30%%", c.def.Name, mapped))
	}
	return out
}

func kindBlockers(c *evalCtx) contribution {
	var out contribution
	errorSection, errorDefinition, _ := c.errorFlags()
	if errorSection && (c.kind != model.KindType || !errorDefinition) {
		out.delta -= 0.5
		out.reasons = append(out.reasons, fmt.Sprintf("Non-error %s in Error Types section: -50%%", c.kind))
		out.mismatch = true
	}

	block := func(msg string) {
		out.delta -= 999
		out.reasons = append(out.reasons, msg)
		out.mismatch = true
	}
	switch c.kind {
	case model.KindMethod:
		if c.helperFunctions() {
			block("CRITICAL: method in Helper Functions section (must be function): BLOCKED")
		} else if strings.Contains(c.sectionLower, "type") && !strings.Contains(c.sectionLower, "method") {
			block("CRITICAL: method in Type section (must be type): BLOCKED")
		}
	case model.KindFunc:
		if strings.Contains(c.sectionLower, "type") && !strings.Contains(c.sectionLower, "function") {
			block("CRITICAL: function in Type section (must be type): BLOCKED")
		}
	case model.KindType:
		if c.helperFunctions() {
			block("CRITICAL: type in Helper Functions section (must be function): BLOCKED")
		} else if strings.Contains(c.sectionLower, "methods") && !strings.Contains(c.sectionLower, "type") {
			block("CRITICAL: type in Methods section (must be method): BLOCKED")
		}
	}
	return out
}

func kindPositiveMatch(c *evalCtx) contribution {
	if c.mismatch {
		return none()
	}
	switch {
	case c.kind == model.KindMethod && strings.Contains(c.sectionLower, "methods"):
		return add(0.20, "Kind 'method' matches Methods section: +20%")
	case c.kind == model.KindFunc && c.helperFunctions():
		return add(0.20, "Kind 'func' matches Helper Functions section: +20%")
	case c.kind == model.KindType && strings.Contains(c.sectionLower, "type"):
		return add(0.20, "Kind 'type' matches Type section: +20%")
	}
	return none()
}

func keywordCommentMatching(c *evalCtx) contribution {
	if c.mismatch {
		return none()
	}
	keywords := c.tables.commentKeywords(c.comment)
	if len(keywords) == 0 {
		return none()
	}
	score, reasons := c.tables.matchKeywords(keywords, sectionLevel(c.section, c.kind), c.keywordCap)

	n := c.nameLower
	errorName := (strings.HasPrefix(n, "as") && strings.Contains(n, "error")) ||
		(strings.HasPrefix(n, "get") && strings.Contains(n, "error")) ||
		(strings.HasPrefix(n, "add") && strings.Contains(n, "error") && strings.Contains(n, "context")) ||
		(strings.Contains(n, "error") && strings.Contains(n, "map"))
	if errorName && c.in("error", "helper", "function") {
		score += 0.25
		reasons = append(reasons, "Error keyword match => Error Helper Functions: +25%")
	}
	return add(score, reasons...)
}

func currentSection(c *evalCtx) contribution {
	if c.def.CurrentSection != "" && c.def.CurrentSection == c.section {
		return add(0.10, "Current section match: +10%")
	}
	return none()
}

func constructorFunctions(c *evalCtx) contribution {
	if c.kind != model.KindFunc || !strings.HasPrefix(c.def.Name, "New") {
		return none()
	}
	var out contribution
	constructed := c.def.Name[3:]
	constructedLower := strings.ToLower(constructed)
	if strings.Contains(c.sectionLower, constructedLower) {
		out.delta += 0.25
		out.reasons = append(out.reasons, fmt.Sprintf(
			"Constructor function 'New%s' matches constructed type in section: +25%%", constructed))
	}
	if c.helperFunctions() && c.inAny("constructor", "package") {
		out.delta += 0.15
		out.reasons = append(out.reasons, "Constructor function matches constructor/helper section: +15%")
	}
	if strings.Contains(constructedLower, "package") && strings.Contains(c.sectionLower, "package") {
		out.delta += 0.20
		out.reasons = append(out.reasons, "Package-related constructor matches Package section: +20%")
	}
	return out
}

// domainBonuses is the bonus a detected domain earns on a section that
// mentions any of the words.
var domainBonuses = map[string]struct {
	words  []string
	delta  float64
	reason string
}{
	"metadata":      {[]string{"metadata", "comment", "pathmetadata"}, 0.30, "Domain match: metadata-related => Metadata section: +30%"},
	"compression":   {[]string{"compression", "compress"}, 0.30, "Domain match: compression-related => Compression Types: +30%"},
	"generic":       {[]string{"generic"}, 0.30, "Domain match: generic-related => Generic Types: +30%"},
	"creation":      {[]string{"package"}, 0.20, "Domain match: creation-related => Package section: +20%"},
	"extraction":    {[]string{"extract", "fileentry"}, 0.20, "Domain match: extraction-related => Extraction/FileEntry section: +20%"},
	"concurrency":   {[]string{"generic"}, 0.20, "Domain match: concurrency-related => Generic Types section: +20%"},
	"encryption":    {[]string{"encryption", "security", "encrypt"}, 0.30, "Domain match: encryption-related => Encryption and Security: +30%"},
	"signature":     {[]string{"signature", "sign"}, 0.30, "Domain match: signature-related => Signature Types: +30%"},
	"streaming":     {[]string{"streaming", "stream", "buffer"}, 0.30, "Domain match: streaming-related => Streaming and Buffer: +30%"},
	"deduplication": {[]string{"file management", "information and queries", "package file management"}, 0.20, "Domain match: deduplication-related => Package file management/queries: +20%"},
	"filetype":      {[]string{"filetype"}, 0.30, "Domain match: filetype-related => FileType System Types: +30%"},
	"writing":       {[]string{"package write methods", "writing"}, 0.20, "Domain match: writing-related => Package Write Methods: +20%"},
}

func domainMatch(c *evalCtx) contribution {
	if c.domain == "" {
		return none()
	}
	if c.domain == "package" {
		if !strings.Contains(c.sectionLower, "package") {
			return none()
		}
		if c.isCorePackageType() {
			return add(0.20, "Domain match: package-related => Package section: +20%")
		}
		return add(0.10, "Domain match: package-related => Package section: +10% (weak)")
	}
	b, ok := domainBonuses[c.domain]
	if !ok || !c.inAny(b.words...) {
		return none()
	}
	return add(b.delta, b.reason)
}

var typeNameSuffixes = []struct {
	suffix   string
	sections []string
	delta    float64
}{
	{"config", []string{"compression", "encryption", "streaming", "signature", "package"}, 0.15},
	{"builder", []string{"compression", "encryption", "config", "signature", "streaming"}, 0.10},
	{"strategy", []string{"compression", "encryption", "signature", "streaming"}, 0.15},
	{"validator", []string{"compression", "encryption", "validation", "signature"}, 0.10},
	{"handler", []string{"encryption", "file"}, 0.10},
	{"pool", []string{"buffer", "compression", "resource", "streaming", "worker"}, 0.10},
	{"errorcontext", []string{"error"}, 0.20},
	{"options", []string{"file", "package", "compression", "extraction"}, 0.10},
	{"info", []string{"compression", "file", "package", "signature"}, 0.10},
}

// typeNamePatterns rewards *Config, *Builder, *Strategy style names on
// sections of a matching domain.
func typeNamePatterns(c *evalCtx) contribution {
	if c.kind != model.KindType {
		return none()
	}
	for _, p := range typeNameSuffixes {
		if !strings.HasSuffix(c.nameLower, p.suffix) {
			continue
		}
		if c.inAny(p.sections...) {
			return add(p.delta, fmt.Sprintf("Type pattern '*%s' matches section domain: +%d%%", p.suffix, pct(p.delta)))
		}
	}
	return none()
}

func errorContextTypes(c *evalCtx) contribution {
	if c.kind != model.KindType || !strings.HasSuffix(c.nameLower, "errorcontext") {
		return none()
	}
	if strings.Contains(c.sectionLower, "error types") {
		return add(0.20, "ErrorContext type matches Error Types: +20%")
	}
	return none()
}

func domainTypeSubsection(c *evalCtx) contribution {
	if c.kind != model.KindType || !strings.Contains(c.sectionLower, "type") || !strings.Contains(c.sectionLower, "definition") {
		return none()
	}
	priority := domainKeywordsFor(c.domain)
	for _, kw := range subsectionKeywords(c.section) {
		if !strings.Contains(c.nameLower, kw) {
			continue
		}
		for _, p := range priority {
			if p == kw {
				return add(0.30, fmt.Sprintf("Priority domain keyword '%s' in type name matches subsection: +30%%", kw))
			}
		}
		return add(0.15, fmt.Sprintf("Domain keyword '%s' in type name matches subsection: +15%%", kw))
	}
	return none()
}
