package scoring

import (
	"strings"

	"github.com/phobologic/defsindex/internal/model"
)

// Names that belong to a specific section and should not pick up the
// generic suffix bonuses.
var (
	otherTypesExclusions = setOf(
		"addfileoptions", "extractpathoptions", "removedirectoryoptions", "fileinfo",
		"filemetadataupdate", "fileindex", "indexentry", "createoptions", "packageconfig",
		"pathhandling", "destpathspec", "symlinkconvertoptions", "transformpipeline",
		"transformstage", "transformtype", "tag", "tagvaluetype", "recoveryfileheader",
	)
	metadataTypeExclusions = setOf(
		"pathentry", "addfileoptions", "extractpathoptions", "removedirectoryoptions",
		"fileinfo", "filemetadataupdate", "tag", "tagvaluetype", "transformpipeline",
		"transformstage", "transformtype",
	)
)

var otherTypeSuffixes = []string{
	"options", "config", "info", "entry", "type", "spec", "handling", "pipeline",
	"index", "header", "rule", "strategy", "builder", "worker", "pool",
}

func otherTypesSuffix(c *evalCtx) contribution {
	if c.kind != model.KindType || !strings.Contains(c.sectionLower, "other types") || has(otherTypesExclusions, c.nameLower) {
		return none()
	}
	if hasAnySuffix(c.nameLower, otherTypeSuffixes...) {
		return add(0.55, "Type suffix matches Other Types section: +55%")
	}
	return none()
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

var genericTypeWords = []string{
	"config", "builder", "option", "optional", "result", "strategy", "validator",
	"worker", "rule", "pool", "job", "thread", "pathentry",
}

func genericTypeKeywords(c *evalCtx) contribution {
	if c.kind != model.KindType || !strings.Contains(c.sectionLower, "generic types") || has(otherTypesExclusions, c.nameLower) {
		return none()
	}
	if containsAny(c.nameLower, genericTypeWords) {
		return add(0.30, "Generic type keyword matches Generic Types: +30%")
	}
	return none()
}

var metadataTypeWords = []string{
	"metadata", "manifest", "index", "signaturedata", "signatureinfo", "packageconfig",
	"pathhandling", "createoptions", "destpathspec", "symlinkconvertoptions",
	"fileindex", "indexentry", "pathmetadata", "pathinfo", "pathstats", "pathnode",
	"pathtree", "pathfilesystem", "pathinheritance",
}

func metadataTypeKeywords(c *evalCtx) contribution {
	if c.kind != model.KindType || !strings.Contains(c.sectionLower, "metadata types") || has(metadataTypeExclusions, c.nameLower) {
		return none()
	}
	if containsAny(c.nameLower, metadataTypeWords) {
		return add(0.30, "Metadata type keyword matches Package Metadata Types: +30%")
	}
	return none()
}

var genericHelperNames = setOf("err", "ok", "processconcurrently", "composevalidators", "validateall", "validatewith")

func genericHelperFunctions(c *evalCtx) contribution {
	if c.kind != model.KindFunc || !strings.Contains(c.sectionLower, "generic helper functions") {
		return none()
	}
	if c.def.File == "api_generics.md" || has(genericHelperNames, c.nameLower) {
		return add(0.50, "Generic helper function matches Generic Helpers: +50%")
	}
	return none()
}

func signatureTypeKeywords(c *evalCtx) contribution {
	if c.kind != model.KindType || !strings.Contains(c.sectionLower, "signature types") {
		return none()
	}
	switch c.nameLower {
	case "signaturedata", "signatureinfo":
		return none()
	case "unsupportederrorcontext", "validationerrorcontext":
		return add(0.50, "Signature error context matches Signature Types: +50%")
	case "signingkey":
		return add(0.30, "Signature-adjacent type matches Signature Types: +30%")
	}
	if strings.Contains(c.nameLower, "signature") {
		return add(0.30, "Signature type keyword matches Signature Types: +30%")
	}
	return none()
}

var errorTypeNames = setOf(
	"errortype", "packageerror", "packageerrorcontext", "ioerrorcontext",
	"patternerrorcontext", "readonlyerrorcontext",
)

func errorTypeKeywords(c *evalCtx) contribution {
	if c.kind == model.KindType && strings.Contains(c.sectionLower, "error types") && has(errorTypeNames, c.nameLower) {
		return add(0.30, "Error type keyword matches Error Types: +30%")
	}
	return none()
}

var fileEntryTypeWords = []string{
	"fileentry", "filesource", "hash", "optionaldata", "processingstate",
	"addfileoptions", "extractpathoptions", "removedirectoryoptions", "fileinfo",
	"filemetadataupdate", "tag", "tagvaluetype", "transformpipeline",
	"transformstage", "transformtype",
}

func fileEntryTypeKeywords(c *evalCtx) contribution {
	if c.kind == model.KindType && strings.Contains(c.sectionLower, "fileentry types") && containsAny(c.nameLower, fileEntryTypeWords) {
		return add(0.30, "FileEntry type keyword matches FileEntry Types: +30%")
	}
	return none()
}

func otherTypeHelperFunctions(c *evalCtx) contribution {
	if c.kind != model.KindFunc || !strings.Contains(c.sectionLower, "other type helper functions") {
		return none()
	}
	if c.nameLower != "newpackagewithoptions" && strings.HasPrefix(c.nameLower, "new") && strings.Contains(c.nameLower, "options") {
		return add(0.60, "Options constructor matches Other Type Helpers: +60%")
	}
	return none()
}

func signatureCommentHelpers(c *evalCtx) contribution {
	if c.kind == model.KindFunc && strings.Contains(c.sectionLower, "metadata helper functions") &&
		strings.Contains(c.nameLower, "signaturecomment") {
		return add(0.20, "Signature comment helper matches Metadata Helpers: +20%")
	}
	return none()
}

func packageOpenHelpers(c *evalCtx) contribution {
	if c.kind == model.KindFunc && strings.Contains(c.sectionLower, "package helper functions") &&
		strings.HasPrefix(c.nameLower, "open") {
		return add(0.15, "Open helper prefers Package Helper Functions: +15%")
	}
	return none()
}

type preference struct {
	section string
	delta   float64
	reason  string
}

// namedPreferences pins individual well-known names to their home
// sections. Within an entry the first matching section wins.
var namedPreferences = []struct {
	kind  model.Kind
	names map[string]struct{}
	prefs []preference
}{
	{model.KindType, setOf("fileinfo"), []preference{
		{"fileentry types", 0.40, "FileInfo prefers FileEntry Types: +40%"},
		{"package interface types", -0.40, "FileInfo avoids Package Interface Types: -40%"},
	}},
	{model.KindType, setOf("recoveryfileheader"), []preference{
		{"package interface types", 0.40, "RecoveryFileHeader prefers Package Interface Types: +40%"},
	}},
	{model.KindType, setOf("securityerrorcontext", "encryptionerrorcontext"), []preference{
		{"encryption and security types", 0.20, "Security error context matches Security Types: +20%"},
	}},
	{model.KindType, setOf("config", "configbuilder", "strategy", "validationrule", "validator", "workerpool", "pathentry"), []preference{
		{"generic types", 0.30, "Generic core type prefers Generic Types: +30%"},
		{"other types", -0.30, "Generic core type avoids Other Types: -30%"},
	}},
	{model.KindFunc, setOf("newpackageerror"), []preference{
		{"error helper functions", 0.60, "NewPackageError prefers Error Helper Functions: +60%"},
		{"package helper functions", -0.60, "NewPackageError avoids Package Helper Functions: -60%"},
	}},
	{model.KindFunc, setOf("readheader"), []preference{
		{"package helper functions", 0.20, "ReadHeader prefers Package Helper Functions: +20%"},
	}},
	{model.KindFunc, setOf("readheaderfrompath"), []preference{
		{"metadata helper functions", 0.40, "ReadHeaderFromPath matches Metadata Helpers: +40%"},
	}},
	{model.KindFunc, setOf("setdestpath"), []preference{
		{"metadata helper functions", 0.40, "SetDestPath matches Metadata Helpers: +40%"},
	}},
	{model.KindFunc, setOf("newpackagewithoptions"), []preference{
		{"package helper functions", 0.40, "NewPackageWithOptions prefers Package Helper Functions: +40%"},
	}},
	{model.KindFunc, setOf("readheaderfrompath"), []preference{
		{"package helper functions", 0.20, "ReadHeaderFromPath prefers Package Helper Functions: +20%"},
	}},
	{model.KindType, setOf("createoptions"), []preference{
		{"package metadata types", 0.30, "CreateOptions prefers Package Metadata Types: +30%"},
		{"other types", -0.30, "CreateOptions avoids Other Types: -30%"},
		{"generic types", -0.30, "CreateOptions avoids Generic Types: -30%"},
	}},
}

func namedPreferenceMatch(c *evalCtx) contribution {
	var out contribution
	for _, np := range namedPreferences {
		if np.kind != c.kind || !has(np.names, c.nameLower) {
			continue
		}
		for _, p := range np.prefs {
			if strings.Contains(c.sectionLower, p.section) {
				out.delta += p.delta
				out.reasons = append(out.reasons, p.reason)
				break
			}
		}
	}
	return out
}
