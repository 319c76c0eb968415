package lang

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/defsindex/internal/model"
)

func TestForFence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		info string
		want string
	}{
		{"go", "go"},
		{"Go", "go"},
		{"golang", "go"},
		{"go title=widget.go", "go"},
		{"python", ""},
		{"", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.info, func(t *testing.T) {
			t.Parallel()
			got := ForFence(tt.info)
			if got != tt.want {
				t.Errorf("ForFence(%q) = %q, want %q", tt.info, got, tt.want)
			}
		})
	}
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	g, ok := Languages["go"]
	if !ok {
		t.Fatal("go language not registered")
	}
	if g.GetLanguage() == nil {
		t.Error("go language is nil")
	}
}

func TestGetTagQuery(t *testing.T) {
	t.Parallel()

	q, err := Languages["go"].GetTagQuery()
	if err != nil {
		t.Fatalf("GetTagQuery: %v", err)
	}
	if q == nil {
		t.Fatal("query is nil")
	}
}

func parseFirst(t *testing.T, src, nodeType string) (*sitter.Node, []byte) {
	t.Helper()
	source := []byte(src)
	tree, err := Languages["go"].NewParser().ParseCtx(context.Background(), nil, source)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var found *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if n.Type() == nodeType {
			found = n
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(tree.RootNode())
	if found == nil {
		t.Fatalf("no %s node in %q", nodeType, src)
	}
	return found, source
}

func TestReceiverType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src         string
		wantName    string
		wantGeneric bool
	}{
		{"func (p *Package) Close() error", "Package", false},
		{"func (p Package) Name() string", "Package", false},
		{"func (p *Pool[T]) Get() T", "Pool", true},
		{"func (m Map[K, V]) Len() int", "Map", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			node, source := parseFirst(t, tt.src, "method_declaration")
			name, generic := goFindReceiverType(node, source)
			if name != tt.wantName || generic != tt.wantGeneric {
				t.Errorf("receiver = (%q, %v), want (%q, %v)", name, generic, tt.wantName, tt.wantGeneric)
			}
		})
	}
}

func TestTypeForm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want model.TypeForm
	}{
		{"type Package struct {\n\tName string\n}", model.FormStruct},
		{"type Reader interface {\n\tRead() error\n}", model.FormInterface},
		{"type Mode uint8", model.FormNone},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.want), func(t *testing.T) {
			t.Parallel()
			node, _ := parseFirst(t, tt.src, "type_spec")
			if got := goTypeForm(node); got != tt.want {
				t.Errorf("goTypeForm = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractSignature(t *testing.T) {
	t.Parallel()

	node, source := parseFirst(t, "func Open(ctx context.Context,\n\tpath string) (*Package, error)", "function_declaration")
	params, result := goExtractSignature(node, source)
	if params != "(ctx context.Context, path string)" {
		t.Errorf("params = %q", params)
	}
	if result != "(*Package, error)" {
		t.Errorf("result = %q", result)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	if got := CollapseWhitespace("  a\n\t b  "); got != "a b" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}
