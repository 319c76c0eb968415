package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/phobologic/defsindex/internal/model"
)

func init() {
	Languages["go"] = &Language{
		Name:             "go",
		FenceTags:        []string{"go", "golang"},
		lang:             golang.GetLanguage(),
		FindReceiverType: goFindReceiverType,
		TypeForm:         goTypeForm,
		ExtractSignature: goExtractSignature,
	}
}

// goFindReceiverType extracts the receiver type name from a method_declaration node.
// Navigates: method_declaration → receiver parameter_list → parameter_declaration → type.
func goFindReceiverType(node *sitter.Node, source []byte) (string, bool) {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return "", false
	}
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		param := recv.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typ := param.ChildByFieldName("type")
		if typ == nil {
			return "", false
		}
		return goBaseTypeName(typ, source)
	}
	return "", false
}

// goBaseTypeName unwraps pointer, parenthesized and generic types down to
// the declared type name: *Pool[T] -> Pool, true.
func goBaseTypeName(node *sitter.Node, source []byte) (string, bool) {
	switch node.Type() {
	case "type_identifier":
		return NodeText(node, source), false
	case "qualified_type":
		if name := node.ChildByFieldName("name"); name != nil {
			return NodeText(name, source), false
		}
	case "generic_type":
		if typ := node.ChildByFieldName("type"); typ != nil {
			name, _ := goBaseTypeName(typ, source)
			return name, true
		}
	case "pointer_type", "parenthesized_type":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if name, generic := goBaseTypeName(node.NamedChild(i), source); name != "" {
				return name, generic
			}
		}
	}
	return "", false
}

func goTypeForm(node *sitter.Node) model.TypeForm {
	typ := node.ChildByFieldName("type")
	if typ == nil {
		return model.FormNone
	}
	switch typ.Type() {
	case "struct_type":
		return model.FormStruct
	case "interface_type":
		return model.FormInterface
	}
	return model.FormNone
}

func goExtractSignature(defNode *sitter.Node, source []byte) (string, string) {
	var params, result string
	if p := defNode.ChildByFieldName("parameters"); p != nil {
		params = CollapseWhitespace(NodeText(p, source))
	}
	if r := defNode.ChildByFieldName("result"); r != nil {
		result = CollapseWhitespace(NodeText(r, source))
	}
	return params, result
}
