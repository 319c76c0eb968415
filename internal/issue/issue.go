// Package issue defines the coded findings reported by every phase.
package issue

import (
	"errors"
	"fmt"
	"sort"
)

// Code identifies a kind of finding.
type Code string

const (
	// Discovery
	CodeDuplicateDefinition Code = "duplicate_definition"
	CodeReadError           Code = "read_error"

	// Canonical resolution
	CodeCanonicalInvalidLink    Code = "canonical_invalid_link"
	CodeCanonicalFileNotFound   Code = "canonical_file_not_found"
	CodeCanonicalUnsafePath     Code = "canonical_unsafe_path"
	CodeCanonicalAnchorNotFound Code = "canonical_anchor_not_found"

	// Index
	CodeIndexParse    Code = "index_parse"
	CodeEntryOrder    Code = "entry_order"
	CodeNotInIndex    Code = "not_in_index"
	CodeOrphanedEntry Code = "orphaned_entry"
	CodeWrongSection  Code = "wrong_section"
	CodeIncorrectLink Code = "incorrect_link"
	CodeLowConfidence Code = "low_confidence"

	// Descriptions
	CodeMissingDescription   Code = "missing_description"
	CodeDescriptionTooShort  Code = "description_too_short"
	CodeDuplicateDescription Code = "duplicate_description"

	// Anchors
	CodeDefinitionNotFound      Code = "definition_not_found"
	CodeDefinitionNotInTarget   Code = "definition_not_in_target"
	CodeTargetFileNotFound      Code = "target_file_not_found"
	CodeAnchorNoMatch           Code = "anchor_no_match"
	CodeDefinitionBeforeAnchor  Code = "definition_before_anchor"
	CodeDefinitionAfterAnchor   Code = "definition_after_anchor"
	CodeCodeBlockOutsideSection Code = "code_block_outside_section"
	CodeCodeBlockNotGo          Code = "code_block_not_go"
	CodeCodeBlockUnterminated   Code = "code_block_unterminated"
	CodeDefinitionNotInBlock    Code = "definition_not_in_block"
)

// Severity says whether a finding blocks the run.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Common context keys.
const (
	CtxName    = "name"
	CtxSection = "section"
	CtxTarget  = "target"
)

// Issue is a single finding. It doubles as an error value so phases can
// return it through ordinary error paths.
type Issue struct {
	Code       Code
	Severity   Severity
	File       string
	Line       int
	Title      string
	Message    string
	Suggestion string
	Err        error
	Context    map[string]any
}

// WithContext attaches a key/value pair and returns the issue.
func (i *Issue) WithContext(key string, value any) *Issue {
	if i.Context == nil {
		i.Context = make(map[string]any)
	}
	i.Context[key] = value
	return i
}

// At sets the file and line.
func (i *Issue) At(file string, line int) *Issue {
	i.File = file
	i.Line = line
	return i
}

// Suggest sets the suggestion text.
func (i *Issue) Suggest(s string) *Issue {
	i.Suggestion = s
	return i
}

func (i *Issue) Error() string {
	msg := fmt.Sprintf("[%s] %s", i.Code, i.Message)
	if i.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, i.Err)
	}
	if len(i.Context) > 0 {
		msg += fmt.Sprintf(" %v", i.Context)
	}
	return msg
}

func (i *Issue) Unwrap() error {
	return i.Err
}

// Location renders file:line, file, or "".
func (i *Issue) Location() string {
	switch {
	case i.File == "":
		return ""
	case i.Line > 0:
		return fmt.Sprintf("%s:%d", i.File, i.Line)
	default:
		return i.File
	}
}

// Errorf builds an error-severity issue.
func Errorf(code Code, title, format string, args ...any) *Issue {
	return &Issue{Code: code, Severity: SeverityError, Title: title, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-severity issue.
func Warnf(code Code, title, format string, args ...any) *Issue {
	return &Issue{Code: code, Severity: SeverityWarning, Title: title, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an error-severity issue around err.
func Wrap(err error, code Code, title, msg string) *Issue {
	return &Issue{Code: code, Severity: SeverityError, Title: title, Message: msg, Err: err}
}

// IsCode reports whether err is, or wraps, an Issue with the given code.
func IsCode(err error, code Code) bool {
	var is *Issue
	if errors.As(err, &is) {
		return is.Code == code
	}
	return false
}

// List is an ordered collection of issues.
type List []*Issue

// Add appends issues, skipping nils.
func (l *List) Add(issues ...*Issue) {
	for _, i := range issues {
		if i != nil {
			*l = append(*l, i)
		}
	}
}

// Errors returns the error-severity issues.
func (l List) Errors() List {
	return l.filter(SeverityError)
}

// Warnings returns the warning-severity issues.
func (l List) Warnings() List {
	return l.filter(SeverityWarning)
}

// HasErrors reports whether any issue is error severity.
func (l List) HasErrors() bool {
	for _, i := range l {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ByCode returns the issues with the given code.
func (l List) ByCode(code Code) List {
	var out List
	for _, i := range l {
		if i.Code == code {
			out = append(out, i)
		}
	}
	return out
}

// Sorted returns a copy ordered by file, line, code and message.
func (l List) Sorted() List {
	out := append(List(nil), l...)
	sort.SliceStable(out, func(a, b int) bool {
		x, y := out[a], out[b]
		if x.File != y.File {
			return x.File < y.File
		}
		if x.Line != y.Line {
			return x.Line < y.Line
		}
		if x.Code != y.Code {
			return x.Code < y.Code
		}
		return x.Message < y.Message
	})
	return out
}

func (l List) filter(sev Severity) List {
	var out List
	for _, i := range l {
		if i.Severity == sev {
			out = append(out, i)
		}
	}
	return out
}
