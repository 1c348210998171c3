// # internal/transform/track.go
package transform

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/kunai-consulting/qwikbridge/internal/parser"
)

// ImportIndex maps each locally-bound import name to its source module
// specifier. Last write wins on collisions, which valid input never has.
type ImportIndex map[string]string

// Observe records every specifier of an import statement: named (with or
// without alias), default and namespace bindings all land in the index.
func (ix ImportIndex) Observe(n *sitter.Node, source []byte) {
	if !parser.IsImportStatement(n) {
		return
	}
	spec := importSource(n, source)
	if spec == "" {
		return
	}

	clause := parser.FindChildByKind(n, "import_clause")
	if clause == nil {
		return
	}
	count := clause.ChildCount()
	for i := uint(0); i < count; i++ {
		ch := clause.Child(i)
		if ch == nil {
			continue
		}
		switch ch.Kind() {
		case "identifier":
			ix[parser.SymbolText(ch, source)] = spec
		case "namespace_import":
			if ident := parser.FindChildByKind(ch, "identifier"); ident != nil {
				ix[parser.SymbolText(ident, source)] = spec
			}
		case "named_imports":
			for j := uint(0); j < ch.ChildCount(); j++ {
				item := ch.Child(j)
				if item == nil || item.Kind() != "import_specifier" {
					continue
				}
				local := item.ChildByFieldName("name")
				if alias := item.ChildByFieldName("alias"); alias != nil {
					local = alias
				}
				if local != nil {
					ix[parser.SymbolText(local, source)] = spec
				}
			}
		}
	}
}

// importSource returns the unquoted source specifier of an import statement.
func importSource(n *sitter.Node, source []byte) string {
	str := n.ChildByFieldName("source")
	if str == nil {
		str = parser.FindChildByKind(n, "string")
	}
	return parser.StringLiteralValue(str, source)
}

// LocalComponents records variables initialized by a call to the component
// factory, in declaration order.
type LocalComponents struct {
	names []string
	seen  map[string]struct{}
}

func NewLocalComponents() *LocalComponents {
	return &LocalComponents{seen: make(map[string]struct{})}
}

// Observe records a declarator when its initializer is a direct call to
// the factory identifier. Member-expression factories (qwik.component$)
// are not tracked; the configured factory is a bare name.
func (lc *LocalComponents) Observe(n *sitter.Node, source []byte, factory string) {
	if !parser.IsVariableDeclarator(n) {
		return
	}
	value := n.ChildByFieldName("value")
	if !parser.IsCallExpression(value) {
		return
	}
	callee := value.ChildByFieldName("function")
	if !parser.IsIdentifier(callee) || parser.SymbolText(callee, source) != factory {
		return
	}
	name := n.ChildByFieldName("name")
	if !parser.IsIdentifier(name) {
		return
	}

	local := parser.SymbolText(name, source)
	if _, ok := lc.seen[local]; !ok {
		lc.names = append(lc.names, local)
		lc.seen[local] = struct{}{}
	}
}

func (lc *LocalComponents) Has(name string) bool {
	_, ok := lc.seen[name]
	return ok
}

// Names returns all locally-defined component names in declaration order.
// The full list goes across the bridge, not just the rendered one, because
// sibling components may be referenced transitively.
func (lc *LocalComponents) Names() []string {
	out := make([]string, len(lc.names))
	copy(out, lc.names)
	return out
}

func (lc *LocalComponents) Empty() bool {
	return len(lc.names) == 0
}
