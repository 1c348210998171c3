// # internal/parser/parser.go
package parser

import (
	"errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

type Parser struct {
	loader *GrammarLoader
}

func NewParser(loader *GrammarLoader) *Parser {
	return &Parser{loader: loader}
}

// Module owns one parse result. Callers must Close it when finished; every
// node handed out is only valid until then.
type Module struct {
	Path     string
	Language string
	Source   []byte

	tree *sitter.Tree
}

// ParseModule parses source according to the grammar detected from path.
// Tree-sitter is error-tolerant; HasError on the result distinguishes a
// clean parse from a degraded one.
func (p *Parser) ParseModule(path string, source []byte) (*Module, error) {
	lang := DetectLanguage(path)
	if lang == "" {
		return nil, errors.New("unsupported module extension")
	}

	grammar, err := p.loader.Language(lang)
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, errors.New("parse failed")
	}

	return &Module{
		Path:     path,
		Language: lang,
		Source:   source,
		tree:     tree,
	}, nil
}

func (m *Module) Root() *sitter.Node {
	if m == nil || m.tree == nil {
		return nil
	}
	return m.tree.RootNode()
}

func (m *Module) HasError() bool {
	root := m.Root()
	return root == nil || root.HasError()
}

func (m *Module) Close() {
	if m != nil && m.tree != nil {
		m.tree.Close()
		m.tree = nil
	}
}
