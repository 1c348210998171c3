// # internal/transform/detect.go
package transform

import (
	"bytes"
	"log/slog"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/kunai-consulting/qwikbridge/internal/parser"
)

// ContainsTrigger is the fast reject: a module whose raw text never
// mentions the trigger name cannot contain a call site and is skipped
// before any parse.
func ContainsTrigger(source []byte, trigger string) bool {
	return bytes.Contains(source, []byte(trigger))
}

// containsTriggerCall is the post-parse substring fallback for call sites
// the structural walk might miss due to unusual syntax. Both signals are
// equally authoritative.
func containsTriggerCall(source []byte, trigger string) bool {
	return bytes.Contains(source, []byte(trigger+"("))
}

// Detect answers whether the module contains at least one invocation of
// the tracked render trigger. Aliases accumulate during the same walk that
// checks call sites, so detection is single-pass and order-dependent the
// same way the rewriter is.
func (t *Transformer) Detect(source []byte, moduleID string) bool {
	if !ContainsTrigger(source, t.opts.TriggerName) {
		return false
	}

	mod, err := t.parser.ParseModule(moduleID, source)
	if err != nil {
		slog.Warn("detection parse failed, falling back to substring check",
			"module", moduleID, "error", err)
		return containsTriggerCall(source, t.opts.TriggerName)
	}
	defer mod.Close()

	aliases := NewAliasSet(t.opts.TriggerName)
	found := parser.Walk(mod.Root(), func(n *sitter.Node) bool {
		aliases.Observe(n, source)
		if !parser.IsCallExpression(n) {
			return false
		}
		callee := n.ChildByFieldName("function")
		return parser.IsIdentifier(callee) && aliases.Has(parser.SymbolText(callee, source))
	})

	return found || containsTriggerCall(source, t.opts.TriggerName)
}
