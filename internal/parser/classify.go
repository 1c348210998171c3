// # internal/parser/classify.go
package parser

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Type-guard predicates over tree-sitter node kinds. All of them treat a nil
// node as non-matching; they are used as narrowing guards inside walks and
// must never panic on arbitrary input.

func IsImportStatement(n *sitter.Node) bool {
	return n != nil && n.Kind() == "import_statement"
}

func IsCallExpression(n *sitter.Node) bool {
	return n != nil && n.Kind() == "call_expression"
}

func IsVariableDeclarator(n *sitter.Node) bool {
	return n != nil && n.Kind() == "variable_declarator"
}

func IsExpressionStatement(n *sitter.Node) bool {
	return n != nil && n.Kind() == "expression_statement"
}

func IsJSXElement(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind() {
	case "jsx_element", "jsx_self_closing_element":
		return true
	}
	return false
}

func IsJSXExpression(n *sitter.Node) bool {
	return n != nil && n.Kind() == "jsx_expression"
}

func IsIdentifier(n *sitter.Node) bool {
	return n != nil && n.Kind() == "identifier"
}

func IsStringLiteral(n *sitter.Node) bool {
	return n != nil && n.Kind() == "string"
}

// IsFunctionLike covers every shape that can declare the render trigger
// name: ordinary declarations, function expressions, arrow functions and
// ambient signatures (`declare function renderSSR(...)`), which test files
// use instead of importing the trigger.
func IsFunctionLike(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Kind() {
	case "function_declaration",
		"function_expression",
		"function",
		"arrow_function",
		"function_signature",
		"generator_function_declaration":
		return true
	}
	return false
}
