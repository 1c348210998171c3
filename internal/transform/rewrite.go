// # internal/transform/rewrite.go
package transform

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	coreerrors "github.com/kunai-consulting/qwikbridge/internal/core/errors"
	"github.com/kunai-consulting/qwikbridge/internal/parser"
	"github.com/kunai-consulting/qwikbridge/internal/resolver"
	"github.com/kunai-consulting/qwikbridge/internal/shared/observability"
)

// Transformer drives the scan → rewrite → finalize passes over one module
// at a time. It is stateless across invocations.
type Transformer struct {
	parser   *parser.Parser
	resolver *resolver.Resolver
	opts     Options
}

func New(p *parser.Parser, r *resolver.Resolver, opts Options) *Transformer {
	return &Transformer{parser: p, resolver: r, opts: opts}
}

func (t *Transformer) Options() Options {
	return t.opts
}

// Result is the replacement source plus its map. A nil *Result means "no
// change" and lets the surrounding tool skip re-processing.
type Result struct {
	Code string
	Map  *SourceMap
	// Rewrites counts the replaced call sites, not the header or
	// export edits appended afterwards.
	Rewrites int
}

// moduleScan is everything the scanning pass collects before any rewrite
// decision is made. Completing the scan first is what makes forward
// references to local components resolve correctly.
type moduleScan struct {
	aliases       *AliasSet
	imports       ImportIndex
	locals        *LocalComponents
	haveBridge    bool
	lastImportEnd uint
	sawAnyImport  bool
}

// Rewrite transforms every matched call site in the module. It returns
// (nil, nil) when nothing needed rewriting.
func (t *Transformer) Rewrite(source []byte, moduleID string) (*Result, error) {
	mod, err := t.parser.ParseModule(moduleID, source)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeParseFailure, "parse module")
	}
	defer mod.Close()

	if mod.HasError() {
		// Emitting rewrites against a degraded tree risks output that does
		// not compile; the safe default is to leave the file as-is.
		return nil, coreerrors.Newf(coreerrors.CodeParseFailure,
			"module %s has syntax errors", moduleID)
	}

	scan := t.scan(mod, source)

	buf := NewEditBuffer(source)
	localReferenced := t.rewriteCalls(mod.Root(), mod, scan, buf)

	if buf.Len() == 0 {
		return nil, nil
	}

	rewrites := buf.Len()
	t.finalize(buf, scan, localReferenced)

	code, segs, err := buf.Apply()
	if err != nil {
		return nil, err
	}

	return &Result{
		Code:     code,
		Map:      BuildSourceMap(moduleID, string(source), code, segs),
		Rewrites: rewrites,
	}, nil
}

// scan walks the whole tree once, growing the alias set and filling the
// import and local-component indices.
func (t *Transformer) scan(mod *parser.Module, source []byte) *moduleScan {
	scan := &moduleScan{
		aliases: NewAliasSet(t.opts.TriggerName),
		imports: make(ImportIndex),
		locals:  NewLocalComponents(),
	}

	parser.Walk(mod.Root(), func(n *sitter.Node) bool {
		scan.aliases.Observe(n, source)
		scan.imports.Observe(n, source)
		scan.locals.Observe(n, source, t.opts.FactoryName)

		if parser.IsImportStatement(n) && isTopLevel(n) {
			scan.sawAnyImport = true
			if end := n.EndByte(); end > scan.lastImportEnd {
				scan.lastImportEnd = end
			}
			if importSource(n, source) == t.opts.BridgePackage {
				scan.haveBridge = true
			}
		}
		return false
	})

	return scan
}

func isTopLevel(n *sitter.Node) bool {
	parent := n.Parent()
	return parent != nil && parent.Kind() == "program"
}

// rewriteCalls descends the tree recording one edit per matched call site.
// A rewritten call's own subtree is not descended into — its raw text is
// carried inside the replacement. Unknown tags are left untouched but
// their children are still searched for nested calls. Returns whether any
// local-component rewrite happened.
func (t *Transformer) rewriteCalls(n *sitter.Node, mod *parser.Module, scan *moduleScan, buf *EditBuffer) bool {
	localReferenced := false

	var descend func(n *sitter.Node)
	descend = func(n *sitter.Node) {
		count := n.ChildCount()
		for i := uint(0); i < count; i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if t.rewriteOne(child, mod, scan, buf, &localReferenced) {
				continue // matched and replaced; skip its subtree
			}
			descend(child)
		}
	}

	if n != nil {
		descend(n)
	}
	return localReferenced
}

// rewriteOne records an edit for a single matched call expression. It
// reports true only when a replacement was recorded.
func (t *Transformer) rewriteOne(n *sitter.Node, mod *parser.Module, scan *moduleScan, buf *EditBuffer, localReferenced *bool) bool {
	if !parser.IsCallExpression(n) {
		return false
	}
	callee := n.ChildByFieldName("function")
	if !parser.IsIdentifier(callee) || !scan.aliases.Has(parser.SymbolText(callee, mod.Source)) {
		return false
	}

	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return false
	}
	jsx := args.NamedChild(0)
	if !parser.IsJSXElement(jsx) {
		return false
	}
	opening := parser.OpeningElement(jsx)
	tag := parser.TagName(opening, mod.Source)
	if tag == "" {
		// Member and namespaced tags are not rewritable; nested calls in
		// the children may still be.
		return false
	}

	props := ExtractProps(opening, mod.Source)

	switch {
	case scan.locals.Has(tag):
		buf.Replace(n.StartByte(), n.EndByte(),
			t.localCall(mod.Path, tag, scan.locals.Names(), props))
		*localReferenced = true

	case scan.imports[tag] != "":
		path := t.resolver.Resolve(scan.imports[tag], mod.Path)
		buf.Replace(n.StartByte(), n.EndByte(),
			t.externalCall(path, tag, props))

	default:
		// Unknown tag: ambiguous whether the call was meant to be
		// transformed at all, so it is left as-is.
		slog.Debug("call site skipped, tag is neither imported nor local",
			"module", mod.Path, "tag", tag)
		return false
	}

	observability.RewrittenCallsTotal.Inc()
	return true
}

// externalCall emits the replacement for an imported component. The async
// IIFE keeps the call site expression-shaped: callers still get a
// renderable result after the bridge round-trip.
func (t *Transformer) externalCall(path, component string, props *PropMap) string {
	return fmt.Sprintf(
		"await (async () => { const ssrResult = await %s.%s(%q, %q, %s); return %s(ssrResult.html); })()",
		t.opts.BridgeNamespace, t.opts.ExternalCommand,
		path, component, props.Serialize(), t.opts.HelperName)
}

// localCall emits the replacement for an inline-defined component. The
// full ordered local-name list crosses the bridge because sibling locals
// may be referenced transitively by the rendered one.
func (t *Transformer) localCall(moduleID, component string, allLocals []string, props *PropMap) string {
	nameList, _ := json.Marshal(allLocals)
	return fmt.Sprintf(
		"await (async () => { const ssrResult = await %s.%s(%q, %q, %s, %s); return %s(ssrResult.html); })()",
		t.opts.BridgeNamespace, t.opts.LocalCommand,
		moduleID, component, string(nameList), props.Serialize(), t.opts.HelperName)
}

// finalize appends the bridge import header and the local-component
// exports. With no imports at all there is no insertion point for the
// header and that step is skipped.
func (t *Transformer) finalize(buf *EditBuffer, scan *moduleScan, localReferenced bool) {
	if !scan.haveBridge && scan.sawAnyImport {
		header := t.opts.ImportHeader()
		buf.Insert(scan.lastImportEnd, "\n"+header[0]+"\n"+header[1])
	}
	if localReferenced && !scan.locals.Empty() {
		buf.Append("\n\nexport { " + strings.Join(scan.locals.Names(), ", ") + " };\n")
	}
}
