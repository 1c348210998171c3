// # internal/parser/loader.go
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

type GrammarLoader struct {
	languages map[string]*sitter.Language
}

func NewGrammarLoader() *GrammarLoader {
	gl := &GrammarLoader{
		languages: make(map[string]*sitter.Language),
	}

	gl.languages["tsx"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	gl.languages["typescript"] = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	gl.languages["javascript"] = sitter.NewLanguage(tree_sitter_javascript.Language())

	return gl
}

func (gl *GrammarLoader) Language(name string) (*sitter.Language, error) {
	lang := gl.languages[name]
	if lang == nil {
		return nil, fmt.Errorf("grammar not loaded: %s", name)
	}
	return lang, nil
}

// DetectLanguage maps a module path to a grammar name. JSX syntax appears in
// .tsx and .jsx test files; plain .ts/.js modules still parse for stripping
// and export scanning.
func DetectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx":
		return "tsx"
	case ".ts", ".mts", ".cts":
		return "typescript"
	case ".jsx", ".js", ".mjs", ".cjs":
		return "javascript"
	default:
		return ""
	}
}
