package scoring

import (
	"regexp"
	"sort"
	"strings"

	"github.com/phobologic/defsindex/internal/config"
)

// Strength weights for keyword targets.
const (
	Strong = "strong"
	Medium = "medium"
	Weak   = "weak"
)

var strengthWeights = map[string]float64{
	Strong: 0.15,
	Medium: 0.10,
	Weak:   0.05,
}

// Target is a section pattern a keyword points at.
type Target struct {
	Pattern  string
	Strength string
}

// KeywordRule maps one comment keyword to section patterns. Order matters:
// domain detection takes the first keyword found in a name.
type KeywordRule struct {
	Keyword string
	Targets []Target
}

func triple(domain, strength string) []Target {
	return []Target{
		{domain + " Types", strength},
		{domain + " Methods", strength},
		{domain + " Helper Functions", strength},
	}
}

var defaultKeywords = []KeywordRule{
	{"acl", append(triple("Encryption and Security", Strong), Target{"Security", Strong})},
	{"access control", triple("Encryption and Security", Strong)},
	{"access control list", triple("Encryption and Security", Strong)},
	{"encryption", triple("Encryption and Security", Strong)},
	{"encrypt", triple("Encryption and Security", Medium)},
	{"decrypt", triple("Encryption and Security", Medium)},
	{"security", triple("Encryption and Security", Strong)},
	{"mlkem", triple("Encryption and Security", Strong)},
	{"aes", triple("Encryption and Security", Medium)},
	{"chacha", triple("Encryption and Security", Medium)},
	{"cipher", triple("Encryption and Security", Medium)},

	{"error", triple("Error", Strong)},
	{"error context", triple("Error", Strong)},
	{"err", triple("Error", Strong)},
	{"packageerror", triple("Error", Strong)},
	{"validation", append(triple("Error", Medium), Target{"Security Validation", Strong})},
	{"validate", append(triple("Error", Medium), Target{"Security Validation", Strong})},
	{"verify", triple("Error", Medium)},

	{"tag", []Target{
		{"FileEntry Helper Functions", Medium},
		{"Metadata Types", Medium},
		{"Metadata Methods", Strong},
		{"Metadata Helper Functions", Strong},
	}},
	{"fileentrytag", []Target{
		{"FileEntry Helper Functions", Strong},
		{"Metadata Methods", Medium},
		{"Metadata Helper Functions", Medium},
	}},
	{"pathmetadatatag", []Target{
		{"Metadata Methods", Strong},
		{"Metadata Helper Functions", Strong},
	}},
	{"metadata", append(triple("Metadata", Strong), Target{"Package Metadata Methods", Medium})},
	{"pathmetadata", triple("Metadata", Strong)},
	{"fileentry", []Target{
		{"FileEntry", Strong},
		{"FileEntry Methods", Strong},
		{"FileEntry Helper Functions", Strong},
	}},
	{"appid", []Target{{"Package Metadata Methods", Medium}}},
	{"vendorid", []Target{{"Package Metadata Methods", Medium}}},
	{"comment", []Target{{"Package Metadata Methods", Strong}, {"Metadata Types", Medium}}},
	{"packagecomment", []Target{{"Package Metadata Methods", Strong}, {"Metadata Types", Medium}}},
	{"validatecomment", []Target{{"Package Helper Functions", Strong}, {"Package Metadata Methods", Medium}}},
	{"validatepathlength", []Target{{"Package Helper Functions", Strong}}},

	{"streaming", triple("Streaming and Buffer", Strong)},
	{"stream", triple("Streaming and Buffer", Medium)},
	{"buffer", triple("Streaming and Buffer", Strong)},
	{"bufferpool", triple("Streaming and Buffer", Strong)},
	{"chunk", triple("Streaming and Buffer", Medium)},

	{"compression", triple("Compression", Strong)},
	{"compress", triple("Compression", Medium)},
	{"decompress", triple("Compression", Medium)},

	{"signature", triple("Signature", Strong)},
	{"sign", triple("Signature", Medium)},
	{"signing", triple("Signature", Medium)},

	{"deduplication", triple("Deduplication", Strong)},
	{"dedup", triple("Deduplication", Medium)},

	{"filetype", triple("FileType System", Strong)},
	{"file type", triple("FileType System", Strong)},
	{"mimetype", triple("FileType System", Medium)},

	{"generic", triple("Generic", Strong)},
	{"option", triple("Generic", Medium)},
	{"result", triple("Generic", Medium)},
}

// priorityPhrases are matched before single words; a matched phrase
// suppresses its constituent words.
var priorityPhrases = []string{
	"error context",
	"packageerror",
	"fileentry",
	"path metadata",
	"access control",
	"access control list",
	"fileentry tag",
	"path metadata tag",
}

var defaultDomainFiles = map[string]string{
	"api_generics.md":            "generic",
	"api_streaming.md":           "streaming",
	"api_package_compression.md": "compression",
	"api_security.md":            "encryption",
	"api_metadata.md":            "metadata",
	"api_deduplication.md":       "deduplication",
	"api_signatures.md":          "signature",
	"file_type_system.md":        "filetype",
	"api_writing.md":             "writing",
}

var defaultImplementations = map[string]string{
	"filePackage":         "Package",
	"packageImpl":         "Package",
	"readOnlyPackage":     "Package",
	"readOnlyPackageImpl": "Package",
	"packageReader":       "PackageReader",
	"packageWriter":       "PackageWriter",
}

// Tables holds the lookup tables the rules consult. A Tables value is
// read-only once built.
type Tables struct {
	Keywords        []KeywordRule
	keywordIndex    map[string]int
	loose           map[string]*regexp.Regexp
	DomainFiles     map[string]string
	implementations map[string]string
	implLower       map[string]string
}

// DefaultTables returns the built-in tables.
func DefaultTables() *Tables {
	return NewTables(nil)
}

// NewTables returns the built-in tables extended by cfg. Configured keywords
// add targets to an existing keyword or append a new one.
func NewTables(cfg *config.Scoring) *Tables {
	t := &Tables{
		keywordIndex:    make(map[string]int),
		loose:           make(map[string]*regexp.Regexp),
		DomainFiles:     make(map[string]string, len(defaultDomainFiles)),
		implementations: make(map[string]string, len(defaultImplementations)),
		implLower:       make(map[string]string, len(defaultImplementations)),
	}
	for _, k := range defaultKeywords {
		t.addKeyword(k.Keyword, k.Targets...)
	}
	for file, domain := range defaultDomainFiles {
		t.DomainFiles[file] = domain
	}
	for impl, iface := range defaultImplementations {
		t.addImplementation(impl, iface)
	}

	if cfg == nil {
		return t
	}
	for _, k := range cfg.Keywords {
		t.addKeyword(strings.ToLower(strings.TrimSpace(k.Keyword)), Target{Pattern: k.Section, Strength: k.Strength})
	}
	for file, domain := range cfg.DomainFiles {
		t.DomainFiles[file] = domain
	}
	impls := make([]string, 0, len(cfg.Implementations))
	for impl := range cfg.Implementations {
		impls = append(impls, impl)
	}
	sort.Strings(impls)
	for _, impl := range impls {
		t.addImplementation(impl, cfg.Implementations[impl])
	}
	return t
}

func (t *Tables) addKeyword(keyword string, targets ...Target) {
	if i, ok := t.keywordIndex[keyword]; ok {
		rule := &t.Keywords[i]
		rule.Targets = append(append([]Target(nil), rule.Targets...), targets...)
		return
	}
	t.keywordIndex[keyword] = len(t.Keywords)
	if strings.Contains(keyword, " ") {
		t.loose[keyword] = loosePhraseRe(keyword)
	}
	t.Keywords = append(t.Keywords, KeywordRule{Keyword: keyword, Targets: append([]Target(nil), targets...)})
}

func (t *Tables) addImplementation(impl, iface string) {
	t.implementations[impl] = iface
	t.implLower[strings.ToLower(impl)] = iface
}

// keyword returns the rule for keyword, if any.
func (t *Tables) keyword(keyword string) (KeywordRule, bool) {
	i, ok := t.keywordIndex[keyword]
	if !ok {
		return KeywordRule{}, false
	}
	return t.Keywords[i], true
}

// MapImplementation maps a private implementation type to the public
// interface callers see, e.g. packageImpl -> Package. Unknown names are
// returned unchanged.
func (t *Tables) MapImplementation(name string) string {
	if name == "" {
		return name
	}
	if iface, ok := t.implementations[name]; ok {
		return iface
	}
	if iface, ok := t.implLower[strings.ToLower(name)]; ok {
		return iface
	}
	return name
}

// domainKeywords lists the words that identify each domain, in check order.
var domainKeywords = []struct {
	Domain   string
	Keywords []string
}{
	{"metadata", []string{"metadata", "comment", "tag", "pathmetadata", "fileentrytag"}},
	{"compression", []string{"compression", "compress", "decompress"}},
	{"encryption", []string{"encryption", "encrypt", "decrypt", "aes", "chacha", "mlkem", "cipher"}},
	{"security", []string{"security", "validation", "validate", "verify"}},
	{"signature", []string{"signature", "sign"}},
	{"streaming", []string{"streaming", "stream", "buffer", "chunk"}},
	{"deduplication", []string{"deduplication", "dedup"}},
	{"package", []string{"package"}},
	{"concurrency", []string{"concurrency", "thread", "worker", "safety"}},
	{"extraction", []string{"extract", "extraction"}},
	{"creation", []string{"create", "creation"}},
	{"generic", []string{"generic"}},
	{"filetype", []string{"filetype"}},
	{"writing", []string{"write", "writing"}},
}

func domainKeywordsFor(domain string) []string {
	for _, d := range domainKeywords {
		if d.Domain == domain {
			return d.Keywords
		}
	}
	return nil
}

// ambiguousKeywords are subsection words too common to count as evidence.
var ambiguousKeywords = setOf(
	"file", "path", "package", "type", "error", "basic", "management",
	"metadata", "operations", "operation", "methods", "method", "types",
	"definitions", "definition",
)

// domainSpecificKeywords only count when the definition name carries them.
var domainSpecificKeywords = setOf(
	"signature", "encryption", "encrypt", "compression", "compress",
	"deduplication", "streaming", "stream", "security", "validation",
)

// fileSectionPatterns relates file name token sequences to section names.
var fileSectionPatterns = []struct {
	Pattern  string
	Sections []string
}{
	{"file_mgmt_error", []string{"Error Types"}},
	{"file_mgmt_compression", []string{"Compression Types", "FileEntry Types"}},
	{"file_mgmt", []string{
		"FileEntry Types", "FileEntry Query Methods", "FileEntry Data Methods",
		"FileEntry Temp File Methods", "FileEntry Serialization Methods",
		"FileEntry Path Methods", "FileEntry Transformation Methods",
		"FileEntry Helper Functions", "Tag Methods",
	}},
	{"core", []string{
		"Package Interface Types", "Package Lifecycle Methods",
		"Package File Management Methods", "Package Information and Queries Methods",
		"Package Comment Methods", "Package Identity Methods",
		"Package Special File Methods", "Package Path Metadata Methods",
		"Package Symlink Methods", "Package Metadata-Only Methods",
		"Package Info Methods", "Package Metadata Validation Methods",
		"Package Metadata Internal Methods", "Package Compression Methods",
		"Package Path and Configuration Methods", "Package File Encryption Methods",
		"Package Signature Management Methods", "Package Write Methods",
		"Package Other Methods", "Package Helper Functions", "Error Types",
	}},
	{"basic_operation", basicOperationSections},
	{"basic_operations", basicOperationSections},
	{"file_format", []string{
		"Package Interface Types", "Package Information and Queries Methods",
		"Package File Management Methods",
	}},
	{"compression", []string{"Compression Types", "Compression Methods", "Compression Helper Functions"}},
	{"streaming", []string{
		"Streaming and Buffer Types", "Streaming and Buffer Methods",
		"Streaming and Buffer Helper Functions",
	}},
	{"security", securitySections},
	{"encryption", securitySections},
	{"signature", []string{"Signature Types", "Signature Methods", "Signature Helper Functions"}},
	{"metadata", []string{
		"Package Metadata Types", "Package Comment Methods", "Package Identity Methods",
		"Package Special File Methods", "Package Path Metadata Methods",
		"Package Symlink Methods", "Package Metadata-Only Methods", "Package Info Methods",
		"Package Metadata Validation Methods", "Package Metadata Internal Methods",
		"Package Metadata Type Methods", "Package Metadata Helper Functions",
		"Package Interface Types",
	}},
	{"deduplication", []string{"Package File Management Methods", "Package Information and Queries Methods"}},
	{"generic", []string{"Generic Types", "Generic Methods", "Generic Helper Functions"}},
	{"writing", []string{"Package Write Methods", "Package Helper Functions"}},
	{"file_type", []string{"FileType System Types", "FileType System Methods", "FileType System Helper Functions"}},
}

var basicOperationSections = []string{
	"Package Interface Types", "Package Lifecycle Methods",
	"Package File Management Methods", "Package Information and Queries Methods",
	"Package Helper Functions",
}

var securitySections = []string{
	"Encryption and Security Types", "Encryption and Security Methods",
	"Encryption and Security Helper Functions",
}

var corePackageTypes = setOf("package", "packagereader", "packagewriter", "filepackage")

func setOf(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, s := range items {
		m[s] = struct{}{}
	}
	return m
}

func has(set map[string]struct{}, s string) bool {
	_, ok := set[s]
	return ok
}
