// # internal/parser/text.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeText returns the exact source slice spanned by a node. Unlike the
// trimmed symbol-name helpers elsewhere, this preserves formatting — the
// rewriter re-emits these slices verbatim.
func NodeText(n *sitter.Node, source []byte) string {
	if n == nil {
		return ""
	}
	start := n.StartByte()
	end := n.EndByte()
	if start >= end || end > uint(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// SymbolText returns the node text trimmed, for identifier comparison.
func SymbolText(n *sitter.Node, source []byte) string {
	return strings.TrimSpace(NodeText(n, source))
}

// StringLiteralValue returns the unquoted contents of a "string" node by
// concatenating its string_fragment children. Escape sequences are kept
// as written; the prop extractor re-quotes via JSON.
func StringLiteralValue(n *sitter.Node, source []byte) string {
	if !IsStringLiteral(n) {
		return ""
	}
	var b strings.Builder
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		ch := n.Child(i)
		if ch == nil {
			continue
		}
		switch ch.Kind() {
		case "string_fragment", "escape_sequence":
			b.WriteString(NodeText(ch, source))
		}
	}
	return b.String()
}

// FindChildByKind returns the first direct child with the given kind.
func FindChildByKind(n *sitter.Node, kind string) *sitter.Node {
	if n == nil {
		return nil
	}
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		ch := n.Child(i)
		if ch != nil && ch.Kind() == kind {
			return ch
		}
	}
	return nil
}

// OpeningElement normalizes the two JSX element shapes to the node that
// carries the tag name and attributes.
func OpeningElement(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case "jsx_self_closing_element":
		return n
	case "jsx_element":
		return FindChildByKind(n, "jsx_opening_element")
	}
	return nil
}

// TagName returns the tag identifier of a JSX opening or self-closing
// element, or "" when the tag is a member/namespaced expression — those
// are not rewritable.
func TagName(opening *sitter.Node, source []byte) string {
	if opening == nil {
		return ""
	}
	name := opening.ChildByFieldName("name")
	if name == nil || name.Kind() != "identifier" {
		return ""
	}
	return SymbolText(name, source)
}
