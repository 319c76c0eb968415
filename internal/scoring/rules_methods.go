package scoring

import (
	"fmt"
	"strings"
)

var operationPatterns = []struct {
	pattern  string
	keywords []string
}{
	{"get", []string{"query", "information", "info", "queries"}},
	{"has", []string{"query", "information", "info", "queries"}},
	{"is", []string{"query", "information", "info", "queries", "validation", "validate"}},
	{"list", []string{"query", "information", "info", "queries"}},
	{"find", []string{"query", "information", "info", "queries"}},
	{"exists", []string{"query", "information", "info", "queries"}},
	{"set", []string{"configuration", "config", "management", "state"}},
	{"add", []string{"operations", "management", "basic"}},
	{"remove", []string{"operations", "management", "basic"}},
	{"create", []string{"lifecycle", "creation", "operations"}},
	{"new", []string{"lifecycle", "creation", "operations"}},
	{"open", []string{"lifecycle"}},
	{"close", []string{"lifecycle"}},
	{"write", []string{"write", "writing", "operations"}},
	{"read", []string{"streaming", "stream", "operations"}},
	{"validate", []string{"validation", "validate", "verify"}},
	{"verify", []string{"validation", "validate", "verify"}},
	{"compress", []string{"compression", "compress"}},
	{"decompress", []string{"compression", "compress"}},
	{"encrypt", []string{"encryption", "encrypt"}},
	{"decrypt", []string{"encryption", "encrypt"}},
}

var queryPatterns = setOf("get", "has", "is", "list", "find", "exists")

// methodPatterns matches the operation a method name performs against the
// section vocabulary. Only the first operation found in the name counts.
func methodPatterns(c *evalCtx) contribution {
	method := c.methodName()
	if method == "" {
		return none()
	}
	for _, op := range operationPatterns {
		if !strings.Contains(method, op.pattern) {
			continue
		}
		if !c.inAny(op.keywords...) {
			return none()
		}
		switch {
		case has(queryPatterns, op.pattern) && c.inAny("information", "queries", "query"):
			return add(0.25, fmt.Sprintf("Method pattern '%s*' matches query/info subsection: +25%%", op.pattern))
		case op.pattern == "add" || op.pattern == "remove" || op.pattern == "set":
			return add(0.15, fmt.Sprintf("Method pattern '%s*' matches operation subsection: +15%%", op.pattern))
		}
		return add(0.15, fmt.Sprintf("Method pattern '%s*' matches subsection: +15%%", op.pattern))
	}
	return none()
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func methodTypeClassification(c *evalCtx) contribution {
	method := c.methodName()
	if method == "" {
		return none()
	}
	if hasAnyPrefix(method, "get", "is", "has") {
		switch {
		case strings.Contains(c.sectionLower, "query methods"):
			return add(0.25, "Getter method (Get/Is/Has) matches Query Methods: +25%")
		case strings.Contains(c.sectionLower, "data methods"):
			return add(0.15, "Getter method (Get/Is/Has) matches Data Methods: +15%")
		case strings.Contains(c.sectionLower, "transformation methods"):
			return add(-0.25, "Getter method (Get/Is/Has) does not match Transformation Methods: -25%")
		}
	}
	if hasAnyPrefix(method, "add", "update", "set", "remove", "delete", "modify") {
		switch {
		case strings.Contains(c.sectionLower, "transformation methods"):
			return add(0.25, "Transformation method (Add/Update/Set/Remove) matches Transformation Methods: +25%")
		case c.inAny("data methods", "query methods"):
			return add(-0.25, "Transformation method (Add/Update/Set/Remove) does not match Query/Data Methods: -25%")
		}
	}
	return none()
}

var compressionOperationWords = []string{"compress", "decompress", "compressiontype", "compressionratio"}

func methodNamePreferences(c *evalCtx) contribution {
	method := c.methodName()
	if method == "" {
		return none()
	}
	var out contribution
	note := func(delta float64, reason string) {
		out.delta += delta
		out.reasons = append(out.reasons, reason)
	}
	metadataSection := strings.Contains(c.sectionLower, "metadata")
	compressionSection := strings.Contains(c.sectionLower, "compression")

	if strings.Contains(method, "metadata") {
		if metadataSection && !compressionSection {
			note(0.30, "Method name contains 'metadata' matches Metadata section: +30%")
		} else if compressionSection && !metadataSection {
			note(-0.30, "Method name contains 'metadata' does not match Compression section: -30%")
		}
	}
	if strings.Contains(method, "signaturefile") {
		if metadataSection {
			note(0.30, "Signature file method (special metadata) matches Metadata section: +30%")
		} else if strings.Contains(c.sectionLower, "file management") {
			note(-0.30, "Signature file method (special metadata) does not match File Management section: -30%")
		}
	}
	if compressionSection && hasAnyPrefix(method, "get", "is", "has") && !containsAny(method, compressionOperationWords) {
		if c.inAny("information", "queries") {
			note(0.20, "Getter method about compression info prefers Information/Queries: +20%")
		} else if strings.Contains(c.sectionLower, "method") {
			note(-0.20, "Getter method about compression info does not match Compression Methods: -20%")
		}
	}
	return out
}

var fileEntryCategories = []struct {
	section string
	tokens  []string
}{
	{"query methods", []string{"get", "has", "is"}},
	{"data methods", []string{"getdata", "setdata", "loaddata", "unloaddata", "data"}},
	{"temp file methods", []string{"tempfile", "temp"}},
	{"serialization methods", []string{"marshal", "writedata", "writemeta", "writeto"}},
	{"path methods", []string{"path", "symlink", "associate", "resolve"}},
	{"transformation methods", []string{
		"compress", "decompress", "encrypt", "decrypt", "transform", "process",
		"pipeline", "set", "unset", "current", "original", "processingstate",
		"validate", "cleanup", "resume", "execute", "copy",
	}},
}

func fileEntryMethodCategories(c *evalCtx) contribution {
	method := c.methodName()
	if method == "" {
		return none()
	}
	receiver := c.def.ReceiverType
	if receiver == "" {
		receiver, _, _ = strings.Cut(c.def.Name, ".")
	}
	if !strings.EqualFold(receiver, "FileEntry") {
		return none()
	}
	for _, cat := range fileEntryCategories {
		if strings.Contains(c.sectionLower, cat.section) && containsAny(method, cat.tokens) {
			return add(0.40, fmt.Sprintf("FileEntry %s method matches section: +40%%", cat.section))
		}
	}
	return none()
}
