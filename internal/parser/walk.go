// # internal/parser/walk.go
package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Visit is called for every node reached by Walk. Returning true stops the
// traversal and propagates a found signal to the Walk caller.
type Visit func(n *sitter.Node) bool

// Walk visits every direct and transitively nested child of node in
// depth-first source order. The node itself is not visited. Trees are
// acyclic by construction of the parser, so no visited-set is kept.
func Walk(node *sitter.Node, visit Visit) bool {
	if node == nil || visit == nil {
		return false
	}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if visit(child) {
			return true
		}
		if Walk(child, visit) {
			return true
		}
	}
	return false
}

// WalkTop visits only the direct children of node, in order. Used for
// top-level statement scans where nested occurrences must not match.
func WalkTop(node *sitter.Node, visit Visit) bool {
	if node == nil || visit == nil {
		return false
	}
	count := node.ChildCount()
	for i := uint(0); i < count; i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if visit(child) {
			return true
		}
	}
	return false
}
