// Package scoring rates how well a definition fits an index section.
//
// A score is the sum of independent rule contributions applied in a fixed
// order, clamped to [0, 1]. Each rule is a pure function of the definition
// and the candidate section; rules never see each other's deltas, only the
// kind-mismatch flag raised by the kind blockers.
package scoring

import (
	"math"
	"strings"

	"github.com/phobologic/defsindex/internal/config"
	"github.com/phobologic/defsindex/internal/model"
)

// Defaults for the acceptance threshold and the comment keyword cap.
const (
	DefaultThreshold  = config.DefaultThreshold
	DefaultKeywordCap = config.DefaultKeywordCap
)

// Sections is the structural view of the index the rules consult.
type Sections struct {
	// Paths lists every real section path in document order.
	Paths []string
	// ValidTypes maps a section path to the normalized, lowercased type
	// names the section legitimately covers.
	ValidTypes map[string]map[string]struct{}
}

func (s *Sections) validTypes(path string) map[string]struct{} {
	if s == nil {
		return nil
	}
	return s.ValidTypes[path]
}

// Engine scores definitions against sections.
type Engine struct {
	Tables     *Tables
	Threshold  float64
	KeywordCap float64
}

// NewEngine builds an engine from configuration. A nil cfg selects the
// defaults.
func NewEngine(cfg *config.Config) *Engine {
	if cfg == nil {
		return &Engine{Tables: DefaultTables(), Threshold: DefaultThreshold, KeywordCap: DefaultKeywordCap}
	}
	return &Engine{
		Tables:     NewTables(&cfg.Scoring),
		Threshold:  cfg.Placement.Threshold,
		KeywordCap: cfg.Placement.KeywordCap,
	}
}

// evalCtx carries the precomputed inputs every rule reads.
type evalCtx struct {
	tables     *Tables
	keywordCap float64
	secs       *Sections

	def     *model.Definition
	kind    model.Kind
	section string

	sectionLower string
	leafLower    string
	nameLower    string
	headingLower string
	contentLower string
	domain       string
	comment      string // cleaned doc comment

	mismatch bool
}

// contribution is one rule's output.
type contribution struct {
	delta    float64
	reasons  []string
	mismatch bool
	blocked  bool
}

func none() contribution { return contribution{} }

func add(delta float64, reasons ...string) contribution {
	return contribution{delta: delta, reasons: reasons}
}

type rule struct {
	name string
	fn   func(*evalCtx) contribution
}

// pipeline is the fixed rule order. Order only affects the reasons list.
var pipeline = []rule{
	{"strict kind", strictKindGate},
	{"receiver structure", receiverGate},
	{"function type interaction", functionTypeInteraction},
	{"exact name", exactNameMatch},
	{"implementation mapping", implementationMapping},
	{"kind blockers", kindBlockers},
	{"kind positive", kindPositiveMatch},
	{"comment keywords", keywordCommentMatching},
	{"current section", currentSection},
	{"constructor", constructorFunctions},
	{"domain", domainMatch},
	{"type name patterns", typeNamePatterns},
	{"error context types", errorContextTypes},
	{"domain type subsection", domainTypeSubsection},
	{"method patterns", methodPatterns},
	{"file patterns", filePatterns},
	{"heading", headingMatch},
	{"camelCase", camelCaseMatch},
	{"parent heading", parentHeadingMatch},
	{"comment domain", commentDomainMatch},
	{"prose keywords", proseKeywordMatch},
	{"content keywords", contentKeywordMatch},
	{"subsection keywords", subsectionKeywordMatch},
	{"method classification", methodTypeClassification},
	{"method name preferences", methodNamePreferences},
	{"FileEntry categories", fileEntryMethodCategories},
	{"hash and optional types", hashOptionalTypes},
	{"error domain", errorDomainMatch},
	{"other types suffix", otherTypesSuffix},
	{"generic type keywords", genericTypeKeywords},
	{"metadata type keywords", metadataTypeKeywords},
	{"generic helpers", genericHelperFunctions},
	{"signature type keywords", signatureTypeKeywords},
	{"error type keywords", errorTypeKeywords},
	{"FileEntry type keywords", fileEntryTypeKeywords},
	{"other type helpers", otherTypeHelperFunctions},
	{"signature comment helpers", signatureCommentHelpers},
	{"package open helpers", packageOpenHelpers},
	{"named preferences", namedPreferenceMatch},
	{"type operation penalty", typeOperationPenalty},
	{"kind section map", kindSectionMap},
	{"general heuristics", generalHeuristics},
}

// Score rates def against the section at path. The reasons always start
// with "Base score: 0%". A blocking rule stops evaluation with score 0.
func (e *Engine) Score(def *model.Definition, path string, secs *Sections) (float64, []string) {
	c := e.newCtx(def, path, secs)
	reasons := []string{"Base score: 0%"}
	score := 0.0
	for _, r := range pipeline {
		out := r.fn(c)
		if out.blocked {
			return 0, append(reasons, out.reasons...)
		}
		score += out.delta
		reasons = append(reasons, out.reasons...)
		if out.mismatch {
			c.mismatch = true
		}
	}
	return clamp(score), reasons
}

func (e *Engine) newCtx(def *model.Definition, path string, secs *Sections) *evalCtx {
	sectionLower := strings.ToLower(path)
	leaf := sectionLower
	if i := strings.LastIndex(sectionLower, ">"); i >= 0 {
		leaf = sectionLower[i+1:]
	}
	keywordCap := e.KeywordCap
	if keywordCap <= 0 {
		keywordCap = DefaultKeywordCap
	}
	tables := e.Tables
	if tables == nil {
		tables = DefaultTables()
	}
	return &evalCtx{
		tables:       tables,
		keywordCap:   keywordCap,
		secs:         secs,
		def:          def,
		kind:         def.Kind,
		section:      path,
		sectionLower: sectionLower,
		leafLower:    strings.TrimSpace(leaf),
		nameLower:    strings.ToLower(def.Name),
		headingLower: strings.ToLower(def.Heading),
		contentLower: strings.ToLower(def.SectionText),
		domain:       tables.DetectDomain(def),
		comment:      cleanComment(def.DocComment),
	}
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(1, score))
}

// in reports whether the section path contains every word.
func (c *evalCtx) in(words ...string) bool {
	for _, w := range words {
		if !strings.Contains(c.sectionLower, w) {
			return false
		}
	}
	return true
}

// inAny reports whether the section path contains any word.
func (c *evalCtx) inAny(words ...string) bool {
	return containsAny(c.sectionLower, words)
}

func (c *evalCtx) helperFunctions() bool {
	return c.in("helper", "function")
}

// methodName returns the lowercased part after the receiver, or "" for
// non-methods.
func (c *evalCtx) methodName() string {
	if c.kind != model.KindMethod {
		return ""
	}
	_, after, ok := strings.Cut(c.def.Name, ".")
	if !ok {
		return ""
	}
	return strings.ToLower(after)
}

func (c *evalCtx) isCorePackageType() bool {
	if has(corePackageTypes, c.nameLower) {
		return true
	}
	if c.kind == model.KindMethod && c.def.ReceiverType != "" {
		return has(corePackageTypes, strings.ToLower(model.NormalizeGenericName(c.def.ReceiverType)))
	}
	return false
}

// errorFlags classifies the section and the definition for the error rules.
func (c *evalCtx) errorFlags() (errorSection, errorDefinition, errorHelpers bool) {
	errorHelpers = c.in("error", "helper", "function")
	errorSection = (strings.Contains(c.sectionLower, "error types") ||
		(strings.Contains(c.sectionLower, "error") && c.inAny("type", "errors"))) && !errorHelpers
	errorDefinition = strings.HasPrefix(c.nameLower, "err") ||
		strings.Contains(c.nameLower, "error") ||
		(c.kind == model.KindType && strings.Contains(c.nameLower, "err"))
	return errorSection, errorDefinition, errorHelpers
}
