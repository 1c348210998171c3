// # internal/bridge/strip.go
package bridge

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	coreerrors "github.com/kunai-consulting/qwikbridge/internal/core/errors"
	"github.com/kunai-consulting/qwikbridge/internal/parser"
	"github.com/kunai-consulting/qwikbridge/internal/transform"
)

// ModulePreparer turns a test module into a loadable component module: the
// test-runner imports and top-level test invocations are stripped (the
// renderer process has no test framework to satisfy them), and every
// inline component the caller names ends up exported.
type ModulePreparer struct {
	parser       *parser.Parser
	testPackages []string
	testCallees  map[string]struct{}
}

func NewModulePreparer(p *parser.Parser) *ModulePreparer {
	callees := map[string]struct{}{}
	for _, name := range []string{
		"test", "it", "describe", "suite",
		"expect", "vi",
		"beforeEach", "afterEach", "beforeAll", "afterAll",
	} {
		callees[name] = struct{}{}
	}
	return &ModulePreparer{
		parser: p,
		testPackages: []string{
			"vitest",
			"vitest-browser-qwik",
			"@vitest/",
		},
		testCallees: callees,
	}
}

// Prepare returns the derived module source. The path only drives grammar
// selection; nothing is read from disk.
func (mp *ModulePreparer) Prepare(path string, source []byte, exports []string) (string, error) {
	mod, err := mp.parser.ParseModule(path, source)
	if err != nil {
		return "", coreerrors.Wrap(err, coreerrors.CodeParseFailure, "parse test module")
	}
	defer mod.Close()

	buf := transform.NewEditBuffer(source)
	exported := map[string]struct{}{}

	parser.WalkTop(mod.Root(), func(stmt *sitter.Node) bool {
		switch {
		case parser.IsImportStatement(stmt) && mp.isTestImport(stmt, source):
			buf.Replace(stmt.StartByte(), statementEnd(stmt, source), "")
		case parser.IsExpressionStatement(stmt) && mp.isTestInvocation(stmt, source):
			buf.Replace(stmt.StartByte(), statementEnd(stmt, source), "")
		case stmt.Kind() == "export_statement":
			collectExportedNames(stmt, source, exported)
		}
		return false
	})

	var missing []string
	for _, name := range exports {
		if _, ok := exported[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		buf.Append("\nexport { " + strings.Join(missing, ", ") + " };\n")
	}

	out, _, err := buf.Apply()
	if err != nil {
		return "", err
	}
	return out, nil
}

func (mp *ModulePreparer) isTestImport(stmt *sitter.Node, source []byte) bool {
	spec := parser.StringLiteralValue(parser.FindChildByKind(stmt, "string"), source)
	for _, pkg := range mp.testPackages {
		if strings.HasSuffix(pkg, "/") {
			if strings.HasPrefix(spec, pkg) {
				return true
			}
			continue
		}
		if spec == pkg || strings.HasPrefix(spec, pkg+"/") {
			return true
		}
	}
	return false
}

// isTestInvocation matches top-level statements whose expression is a call
// to a known test callee, directly (test(...)) or through a member
// (test.skip(...)).
func (mp *ModulePreparer) isTestInvocation(stmt *sitter.Node, source []byte) bool {
	expr := stmt.NamedChild(0)
	if !parser.IsCallExpression(expr) {
		return false
	}
	callee := expr.ChildByFieldName("function")
	if callee == nil {
		return false
	}

	name := ""
	switch callee.Kind() {
	case "identifier":
		name = parser.SymbolText(callee, source)
	case "member_expression":
		if obj := callee.ChildByFieldName("object"); parser.IsIdentifier(obj) {
			name = parser.SymbolText(obj, source)
		}
	}
	_, ok := mp.testCallees[name]
	return ok
}

// statementEnd extends a statement's span over one trailing newline so the
// removal does not leave blank lines behind.
func statementEnd(stmt *sitter.Node, source []byte) uint {
	end := stmt.EndByte()
	if end < uint(len(source)) && source[end] == '\n' {
		end++
	}
	return end
}

// collectExportedNames records names from `export { A, B }` clauses and
// from exported declarations (`export const A = ...`).
func collectExportedNames(stmt *sitter.Node, source []byte, into map[string]struct{}) {
	if clause := parser.FindChildByKind(stmt, "export_clause"); clause != nil {
		count := clause.ChildCount()
		for i := uint(0); i < count; i++ {
			spec := clause.Child(i)
			if spec == nil || spec.Kind() != "export_specifier" {
				continue
			}
			if name := spec.ChildByFieldName("name"); name != nil {
				into[parser.SymbolText(name, source)] = struct{}{}
			}
		}
		return
	}

	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		parser.Walk(decl, func(n *sitter.Node) bool {
			if parser.IsVariableDeclarator(n) {
				if name := n.ChildByFieldName("name"); parser.IsIdentifier(name) {
					into[parser.SymbolText(name, source)] = struct{}{}
				}
			}
			return false
		})
		if name := decl.ChildByFieldName("name"); name != nil {
			into[parser.SymbolText(name, source)] = struct{}{}
		}
	}
}
