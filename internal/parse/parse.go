// Package parse extracts top-level Go declarations from fenced code blocks
// using tree-sitter.
package parse

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/defsindex/internal/lang"
	"github.com/phobologic/defsindex/internal/model"
)

var captureMap = map[string]model.Kind{
	"definition.type":     model.KindType,
	"definition.function": model.KindFunc,
	"definition.method":   model.KindMethod,
}

// Decl is one declaration found in a code block.
type Decl struct {
	Name       string // normalized; methods are Receiver.Method
	RawName    string
	Kind       model.Kind
	Form       model.TypeForm
	Receiver   string
	Generic    bool
	Line       int // 1-based within the block
	Signature  string
	ParamText  string
	ResultText string
	Doc        string
}

// ExtractDecls parses one code block and returns its declarations in source
// order. The parser must be created for l. Declarations nested inside
// function bodies are ignored.
func ExtractDecls(l *lang.Language, parser *sitter.Parser, query *sitter.Query, source []byte) []Decl {
	if len(source) == 0 {
		return nil
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var decls []Decl
	seen := make(map[uint32]bool)

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode, defNode *sitter.Node
		var kind model.Kind
		for _, c := range match.Captures {
			cname := query.CaptureNameForId(c.Index)
			if cname == "name" {
				nameNode = c.Node
			} else if k, ok := captureMap[cname]; ok {
				kind = k
				defNode = c.Node
			}
		}
		if nameNode == nil || defNode == nil || seen[defNode.StartByte()] {
			continue
		}
		if insideBody(defNode) {
			continue
		}
		seen[defNode.StartByte()] = true

		decls = append(decls, buildDecl(l, kind, defNode, nameNode, source))
	}

	return decls
}

func buildDecl(l *lang.Language, kind model.Kind, defNode, nameNode *sitter.Node, source []byte) Decl {
	raw := lang.NodeText(nameNode, source)
	d := Decl{
		Name:    model.NormalizeGenericName(raw),
		RawName: raw,
		Kind:    kind,
		Line:    int(nameNode.StartPoint().Row) + 1,
		Doc:     docComment(defNode, source),
		Generic: defNode.ChildByFieldName("type_parameters") != nil,
	}

	switch kind {
	case model.KindType:
		d.Form = l.TypeForm(defNode)
		d.Signature = "type " + raw
		if d.Form != model.FormNone {
			d.Signature += " " + string(d.Form)
		}
	case model.KindMethod:
		recv, generic := l.FindReceiverType(defNode, source)
		d.Receiver = model.NormalizeGenericName(recv)
		d.Generic = d.Generic || generic
		d.Name = d.Receiver + "." + raw
		d.ParamText, d.ResultText = l.ExtractSignature(defNode, source)
		d.Signature = signature(raw, d.ParamText, d.ResultText)
	case model.KindFunc:
		d.ParamText, d.ResultText = l.ExtractSignature(defNode, source)
		d.Signature = signature(raw, d.ParamText, d.ResultText)
	}
	return d
}

func signature(name, params, result string) string {
	sig := name + params
	if result != "" {
		sig += " " + result
	}
	return sig
}

// insideBody reports whether node sits inside a function body or func literal.
func insideBody(node *sitter.Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "block", "func_literal":
			return true
		}
	}
	return false
}

// docComment collects the comment lines directly above a declaration. For a
// lone spec in `type X ...` the comment sits above the type_declaration.
func docComment(defNode *sitter.Node, source []byte) string {
	start := defNode
	if parent := defNode.Parent(); parent != nil && parent.Type() == "type_declaration" {
		if prev := defNode.PrevSibling(); prev != nil && prev.Type() == "type" {
			start = parent
		}
	}

	var blocks []string
	nextRow := start.StartPoint().Row
	for n := start.PrevNamedSibling(); n != nil && n.Type() == "comment"; n = n.PrevNamedSibling() {
		if len(blocks) > 0 && n.EndPoint().Row+1 != nextRow {
			break
		}
		if len(blocks) == 0 && n.EndPoint().Row >= nextRow {
			// trailing comment on the declaration's own line
			break
		}
		if prev := n.PrevNamedSibling(); prev != nil && prev.Type() != "comment" && prev.EndPoint().Row == n.StartPoint().Row {
			// trailing comment of the previous statement
			break
		}
		blocks = append(blocks, lang.NodeText(n, source))
		nextRow = n.StartPoint().Row
	}

	var lines []string
	for i := len(blocks) - 1; i >= 0; i-- {
		lines = append(lines, commentLines(blocks[i])...)
	}
	return lang.CollapseWhitespace(strings.Join(lines, " "))
}

func commentLines(text string) []string {
	var out []string
	if strings.HasPrefix(text, "/*") {
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
			if keepDocLine(line) {
				out = append(out, line)
			}
		}
		return out
	}
	line := strings.TrimSpace(strings.TrimPrefix(text, "//"))
	if keepDocLine(line) {
		out = append(out, line)
	}
	return out
}

func keepDocLine(line string) bool {
	if line == "" {
		return false
	}
	upper := strings.ToUpper(line)
	return !strings.HasPrefix(upper, "TODO:") && !strings.HasPrefix(upper, "FIXME:")
}
