package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phobologic/defsindex/internal/model"
)

var hashOptionalNames = []string{"hashpurpose", "hashtype", "optionaldata", "processingstate", "tagvaluetype", "transformtype"}

func hashOptionalTypes(c *evalCtx) contribution {
	if c.kind != model.KindType || !strings.Contains(c.sectionLower, "hash and optional data") {
		return none()
	}
	if containsAny(c.nameLower, hashOptionalNames) {
		return add(0.30, "Hash/Optional data type matches 'Hash and Optional Data Types' subsection: +30%")
	}
	return none()
}

func errorDomainMatch(c *evalCtx) contribution {
	errorSection, errorDefinition, _ := c.errorFlags()
	if !errorSection || !errorDefinition {
		return none()
	}
	domain := errorDomain(c.def.Name)
	if domain == "" || !strings.Contains(c.sectionLower, domain) {
		return none()
	}
	return add(0.15, fmt.Sprintf("Error domain '%s' matches subsection domain: +15%%", domain))
}

func penaltyDomain(name string) string {
	switch {
	case strings.Contains(name, "compress"):
		return "compression"
	case strings.Contains(name, "encrypt"):
		return "encryption"
	case strings.Contains(name, "sign"):
		return "signature"
	case strings.Contains(name, "security"):
		return "security"
	case strings.Contains(name, "file") && strings.Contains(name, "handler") &&
		containsAny(name, []string{"encrypt", "aes", "chacha", "mlkem"}):
		return "encryption"
	}
	return ""
}

// typeOperationPenalty pushes domain types out of operation sections when
// the index has a type definitions section for their domain.
func typeOperationPenalty(c *evalCtx) contribution {
	if c.kind != model.KindType || strings.Contains(c.sectionLower, "type definition") {
		return none()
	}
	if c.sectionLower == "core interfaces" || c.sectionLower == "generics" {
		return none()
	}
	domain := penaltyDomain(c.nameLower)
	if domain == "" || c.secs == nil {
		return none()
	}
	paths := append([]string(nil), c.secs.Paths...)
	sort.Strings(paths)
	for _, p := range paths {
		lower := strings.ToLower(p)
		if strings.Contains(lower, "type definition") && strings.Contains(lower, domain) {
			return add(-0.4, fmt.Sprintf("Type should be in Type Definitions section '%s': -40%%", p))
		}
	}
	return none()
}

var kindSections = map[model.Kind][]string{
	model.KindType: {"type definitions", "metadata types"},
	model.KindMethod: {
		"methods", "file management", "package writing", "package compression",
		"package metadata methods", "metadata methods", "basic operations",
		"security and encryption operations", "digital signatures", "deduplication",
		"streaming and buffer management",
	},
	model.KindFunc: {
		"basic operations", "metadata helper functions", "package metadata methods",
		"package helper functions", "file management",
	},
}

// kindSectionMap applies the residual kind penalties and, when none fire,
// rewards sections whose wording fits the definition kind.
func kindSectionMap(c *evalCtx) contribution {
	var out contribution
	penalize := func(delta float64, reason string) {
		out.delta += delta
		out.reasons = append(out.reasons, reason)
		out.mismatch = true
	}
	errorSection, errorDefinition, _ := c.errorFlags()
	typeDefinition := strings.Contains(c.sectionLower, "type definition")

	if errorSection && (c.kind != model.KindType || !errorDefinition) {
		penalize(-0.5, fmt.Sprintf("Non-error %s in Error Types section: -50%%", c.kind))
	}
	switch c.kind {
	case model.KindMethod:
		if typeDefinition {
			penalize(-0.3, "Kind mismatch: method in Type section: -30%")
		}
	case model.KindFunc:
		if typeDefinition {
			penalize(-0.5, "Kind mismatch: function in Type section: -50%")
		}
	case model.KindType:
		if strings.Contains(c.sectionLower, "method") && !strings.Contains(c.sectionLower, "type") {
			penalize(-0.3, "Kind mismatch: type in Method section: -30%")
		}
	}
	if out.mismatch {
		return out
	}

	for _, s := range kindSections[c.kind] {
		if !strings.Contains(c.sectionLower, s) {
			continue
		}
		if c.kind == model.KindType && typeDefinition {
			return add(0.20, "Kind 'type' matches Type Definitions section: +20%")
		}
		return add(0.15, fmt.Sprintf("Kind '%s' matches section type: +15%%", c.kind))
	}
	return none()
}

func generalHeuristics(c *evalCtx) contribution {
	if c.kind != model.KindFunc {
		return none()
	}
	var out contribution
	note := func(delta float64, reason string) {
		out.delta += delta
		out.reasons = append(out.reasons, reason)
	}
	if c.def.File == "api_core.md" && strings.Contains(c.nameLower, "path") &&
		containsAny(c.nameLower, []string{"normalize", "todisplay", "validate"}) {
		if strings.Contains(c.sectionLower, "package helper function") {
			note(0.25, "Path-related core functions prefer Package Helper Functions: +25%")
		}
		if strings.Contains(c.sectionLower, "error helper") {
			note(-0.20, "Path-related core functions are not error helpers: -20%")
		}
	}
	if strings.Contains(c.nameLower, "comment") && strings.Contains(c.nameLower, "validate") {
		if strings.Contains(c.sectionLower, "metadata") {
			note(0.20, "Comment validation prefers Metadata sections: +20%")
		}
		if c.inAny("encryption", "security") {
			note(-0.20, "Comment validation is not encryption/security: -20%")
		}
	}
	return out
}
