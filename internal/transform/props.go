// # internal/transform/props.go
package transform

import (
	"encoding/json"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/kunai-consulting/qwikbridge/internal/parser"
)

// Prop is one attribute, keyed by name, valued by a source-text expression
// string — never a materialized value. Identifiers, calls, templates and
// object literals all survive the rewrite verbatim; expressions that
// capture the enclosing closure cannot be relocated and stay a documented
// correctness gap.
type Prop struct {
	Name string
	Expr string
}

// PropMap preserves attribute order from source for deterministic output.
type PropMap struct {
	props []Prop
}

func (pm *PropMap) Add(name, expr string) {
	pm.props = append(pm.props, Prop{Name: name, Expr: expr})
}

func (pm *PropMap) Len() int {
	return len(pm.props)
}

func (pm *PropMap) Get(name string) (string, bool) {
	for _, p := range pm.props {
		if p.Name == name {
			return p.Expr, true
		}
	}
	return "", false
}

// Serialize emits the prop map as a JS object literal with raw expression
// text for values.
func (pm *PropMap) Serialize() string {
	if len(pm.props) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{ ")
	for i, p := range pm.props {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.Expr)
	}
	b.WriteString(" }")
	return b.String()
}

// ExtractProps converts a JSX opening element's attribute list into an
// ordered PropMap:
//   - plain string values are JSON-quoted from their character content,
//     normalizing quote style (JSX attribute strings carry no escape
//     processing of their own);
//   - expression containers keep the literal source slice of the inner
//     expression;
//   - value-less attributes become `true`;
//   - spread attributes are silently skipped — they are not
//     reconstructible as a single key.
func ExtractProps(opening *sitter.Node, source []byte) *PropMap {
	pm := &PropMap{}
	if opening == nil {
		return pm
	}

	count := opening.ChildCount()
	for i := uint(0); i < count; i++ {
		attr := opening.Child(i)
		if attr == nil || attr.Kind() != "jsx_attribute" {
			continue
		}
		name, expr, ok := extractAttribute(attr, source)
		if ok {
			pm.Add(name, expr)
		}
	}
	return pm
}

func extractAttribute(attr *sitter.Node, source []byte) (string, string, bool) {
	nameNode := attr.Child(0)
	if nameNode == nil || nameNode.Kind() != "property_identifier" {
		return "", "", false
	}
	name := parser.SymbolText(nameNode, source)
	if name == "" {
		return "", "", false
	}

	count := attr.ChildCount()
	for i := uint(1); i < count; i++ {
		value := attr.Child(i)
		if value == nil {
			continue
		}
		switch {
		case parser.IsStringLiteral(value):
			// The character content between the quotes, re-quoted as JSON.
			// Single-quoted attributes and backslashes (literal characters
			// in JSX) come out as equivalent double-quoted JS literals.
			quoted, err := json.Marshal(parser.StringLiteralValue(value, source))
			if err != nil {
				return "", "", false
			}
			return name, string(quoted), true

		case parser.IsJSXExpression(value):
			expr := firstNamedChild(value)
			if expr == nil {
				return "", "", false
			}
			return name, parser.NodeText(expr, source), true
		}
	}

	// Bare attribute: <Comp disabled /> means disabled={true}.
	return name, "true", true
}

func firstNamedChild(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	count := n.NamedChildCount()
	for i := uint(0); i < count; i++ {
		if ch := n.NamedChild(i); ch != nil && ch.Kind() != "comment" {
			return ch
		}
	}
	return nil
}
