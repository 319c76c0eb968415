// Package lang provides the tree-sitter Go grammar used to read fenced code
// blocks, a registry of fence info strings, and the embedded query file.
package lang

import (
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/defsindex/internal/model"
)

//go:embed queries/*.scm
var queryFS embed.FS

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language holds tree-sitter configuration for a supported fence language.
type Language struct {
	Name      string
	FenceTags []string
	lang      *sitter.Language
	queryOnce sync.Once
	query     *sitter.Query
	queryErr  error

	// FindReceiverType returns the base receiver type name for a
	// @definition.method node and whether the receiver carries type
	// arguments. Returns "" if not applicable.
	FindReceiverType func(node *sitter.Node, source []byte) (string, bool)

	// TypeForm classifies a @definition.type node as struct, interface or
	// neither.
	TypeForm func(node *sitter.Node) model.TypeForm

	// ExtractSignature returns the name, parameter text and result text of
	// a function or method node.
	ExtractSignature func(node *sitter.Node, source []byte) (params, result string)
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// GetTagQuery returns the compiled tree-sitter query (safe to share across goroutines).
func (l *Language) GetTagQuery() (*sitter.Query, error) {
	l.queryOnce.Do(func() {
		data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s.scm", l.Name))
		if err != nil {
			l.queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		q, err := sitter.NewQuery(data, l.lang)
		if err != nil {
			l.queryErr = fmt.Errorf("compiling query: %w", err)
			return
		}
		l.query = q
	})
	return l.query, l.queryErr
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

var fenceMap map[string]string
var fenceOnce sync.Once

func getFenceMap() map[string]string {
	fenceOnce.Do(func() {
		fenceMap = make(map[string]string)
		for _, l := range Languages {
			for _, tag := range l.FenceTags {
				fenceMap[tag] = l.Name
			}
		}
	})
	return fenceMap
}

// ForFence returns the language name for a fence info string such as "go"
// or "go title=x", or "" if unsupported.
func ForFence(info string) string {
	fields := strings.Fields(strings.ToLower(info))
	if len(fields) == 0 {
		return ""
	}
	return getFenceMap()[fields[0]]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
