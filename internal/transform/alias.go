// # internal/transform/alias.go
package transform

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/kunai-consulting/qwikbridge/internal/parser"
)

// AliasSet tracks every identifier known to denote the render trigger in
// the current module. The model is flow-insensitive and whole-module: the
// set only grows during a single depth-first walk, and an identifier
// reassigned later in the file stays tracked. Alias chains longer than one
// hop resolve only when the walk discovers them in source order.
type AliasSet struct {
	canonical string
	names     map[string]struct{}
}

func NewAliasSet(canonical string) *AliasSet {
	s := &AliasSet{
		canonical: canonical,
		names:     make(map[string]struct{}),
	}
	s.Add(canonical)
	return s
}

func (s *AliasSet) Add(name string) {
	if name != "" {
		s.names[name] = struct{}{}
	}
}

func (s *AliasSet) Has(name string) bool {
	_, ok := s.names[name]
	return ok
}

func (s *AliasSet) Names() []string {
	out := make([]string, 0, len(s.names))
	for name := range s.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Observe applies the alias-tracking rules to one node during the scan
// walk. It is deliberately permissive: a missed detection costs a broken
// test, an extra one costs a parse attempt.
func (s *AliasSet) Observe(n *sitter.Node, source []byte) {
	switch {
	case parser.IsImportStatement(n):
		s.observeImport(n, source)

	case parser.IsFunctionLike(n):
		// Covers ambient declarations of the trigger name inside the test
		// file itself (`declare function renderSSR(...)`).
		if name := n.ChildByFieldName("name"); name != nil {
			if parser.SymbolText(name, source) == s.canonical {
				s.Add(s.canonical)
			}
		}

	case parser.IsVariableDeclarator(n):
		// One-hop local aliasing: const mine = renderSSR;
		value := n.ChildByFieldName("value")
		if !parser.IsIdentifier(value) {
			return
		}
		if !s.Has(parser.SymbolText(value, source)) {
			return
		}
		if name := n.ChildByFieldName("name"); parser.IsIdentifier(name) {
			s.Add(parser.SymbolText(name, source))
		}
	}
}

func (s *AliasSet) observeImport(n *sitter.Node, source []byte) {
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
			// Default import. Heuristic: a local name that contains the
			// trigger name case-insensitively is treated as the trigger.
			local := parser.SymbolText(ch, source)
			if strings.Contains(strings.ToLower(local), strings.ToLower(s.canonical)) {
				s.Add(local)
			}
		case "named_imports":
			s.observeNamedImports(ch, source)
		}
	}
}

func (s *AliasSet) observeNamedImports(named *sitter.Node, source []byte) {
	count := named.ChildCount()
	for i := uint(0); i < count; i++ {
		spec := named.Child(i)
		if spec == nil || spec.Kind() != "import_specifier" {
			continue
		}
		imported := spec.ChildByFieldName("name")
		if imported == nil || parser.SymbolText(imported, source) != s.canonical {
			continue
		}
		local := imported
		if alias := spec.ChildByFieldName("alias"); alias != nil {
			local = alias
		}
		s.Add(parser.SymbolText(local, source))
	}
}
