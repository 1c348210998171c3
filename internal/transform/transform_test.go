// # internal/transform/transform_test.go
package transform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kunai-consulting/qwikbridge/internal/parser"
	"github.com/kunai-consulting/qwikbridge/internal/resolver"
)

// newTestTransformer builds a transformer over a throwaway project root
// containing the fixture components the test modules import.
func newTestTransformer(t *testing.T) *Transformer {
	t.Helper()
	root := t.TempDir()
	for _, f := range []string{"test/fixtures/Counter.tsx", "src/Button.tsx"} {
		path := filepath.Join(root, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("export {};\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	p := parser.NewParser(parser.NewGrammarLoader())
	r := resolver.New(root, nil, "")
	return New(p, r, DefaultOptions())
}

const importedCallModule = `import { renderSSR } from "vitest-browser-qwik";
import { Counter } from "./fixtures/Counter";

test("renders remotely", () => {
  renderSSR(<Counter initialCount={5} />);
});
`

func TestRewriteImportedComponent(t *testing.T) {
	tr := newTestTransformer(t)

	result, err := tr.Rewrite([]byte(importedCallModule), "/test/transform.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("expected a rewrite")
	}

	for _, want := range []string{
		`ssrCommands.renderExternal("./test/fixtures/Counter.tsx", "Counter", { initialCount: 5 })`,
		`import { ssrCommands } from "vitest-browser-qwik/commands";`,
		`import { renderSSRHTML } from "vitest-browser-qwik/client";`,
		`renderSSRHTML(ssrResult.html)`,
	} {
		if !strings.Contains(result.Code, want) {
			t.Errorf("output missing %q\n---\n%s", want, result.Code)
		}
	}
	if strings.Contains(result.Code, "renderSSR(<Counter") {
		t.Error("original call site survived the rewrite")
	}
	if result.Map == nil || result.Map.Version != 3 {
		t.Error("missing or wrong-version source map")
	}
	if len(result.Map.Sources) != 1 || result.Map.Sources[0] != "/test/transform.test.tsx" {
		t.Errorf("source map sources = %v", result.Map.Sources)
	}
}

func TestRewriteAliasedImport(t *testing.T) {
	tr := newTestTransformer(t)
	code := `import { renderSSR as ssr } from "vitest-browser-qwik";
import { Counter } from "./fixtures/Counter";

ssr(<Counter />);
`
	result, err := tr.Rewrite([]byte(code), "/test/alias.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("aliased import not detected")
	}
	if strings.Contains(result.Code, "ssr(<Counter") {
		t.Error("aliased call site survived")
	}
	if !strings.Contains(result.Code, `"Counter", {}`) {
		t.Errorf("expected empty prop map, got:\n%s", result.Code)
	}
}

func TestRewriteOneHopLocalAlias(t *testing.T) {
	tr := newTestTransformer(t)
	code := `import { renderSSR } from "vitest-browser-qwik";
import { Counter } from "./fixtures/Counter";

const mine = renderSSR;
mine(<Counter />);
`
	result, err := tr.Rewrite([]byte(code), "/test/copy.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("one-hop alias not detected")
	}
	if !strings.Contains(result.Code, "ssrCommands.renderExternal") {
		t.Errorf("expected external bridge call:\n%s", result.Code)
	}
}

func TestRewriteLocalComponent(t *testing.T) {
	tr := newTestTransformer(t)
	code := `import { renderSSR } from "vitest-browser-qwik";
import { component$ } from "@builder.io/qwik";

const Local = component$(() => <div />);

test("local", () => {
  renderSSR(<Local />);
});
`
	result, err := tr.Rewrite([]byte(code), "/test/local.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("expected a rewrite")
	}
	if !strings.Contains(result.Code, `ssrCommands.renderLocal("/test/local.test.tsx", "Local", ["Local"], {})`) {
		t.Errorf("local bridge call malformed:\n%s", result.Code)
	}
	if !strings.Contains(result.Code, "export { Local };") {
		t.Errorf("missing export statement:\n%s", result.Code)
	}
}

func TestRewriteMixedLocalAndImported(t *testing.T) {
	tr := newTestTransformer(t)
	code := `import { renderSSR } from "vitest-browser-qwik";
import { component$ } from "@builder.io/qwik";
import { Counter } from "./fixtures/Counter";

const Local = component$(() => <span />);
const Other = component$(() => <Local />);

test("both", () => {
  renderSSR(<Counter initialCount={1} />);
  renderSSR(<Local />);
});
`
	result, err := tr.Rewrite([]byte(code), "/test/mixed.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("expected a rewrite")
	}
	if !strings.Contains(result.Code, "ssrCommands.renderExternal(") {
		t.Error("imported component should route through renderExternal")
	}
	// The full ordered local list crosses the bridge, not just the
	// rendered component.
	if !strings.Contains(result.Code, `"Local", ["Local","Other"]`) {
		t.Errorf("full local-name list missing:\n%s", result.Code)
	}
	// Exports list declared locals only, never imported names.
	if !strings.Contains(result.Code, "export { Local, Other };") {
		t.Errorf("export statement malformed:\n%s", result.Code)
	}
	if strings.Contains(result.Code, "export { Counter") {
		t.Error("imported name leaked into exports")
	}
}

func TestUnknownTagLeftUntouched(t *testing.T) {
	tr := newTestTransformer(t)
	code := `import { renderSSR } from "vitest-browser-qwik";

test("unknown", () => {
  renderSSR(<Unknown />);
});
`
	result, err := tr.Rewrite([]byte(code), "/test/unknown.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Errorf("unknown tag should produce no change:\n%s", result.Code)
	}
}

func TestUnknownTagDoesNotBlockSiblingRewrites(t *testing.T) {
	tr := newTestTransformer(t)
	code := `import { renderSSR } from "vitest-browser-qwik";
import { Counter } from "./fixtures/Counter";

test("partial", () => {
  renderSSR(<Unknown />);
  renderSSR(<Counter />);
});
`
	result, err := tr.Rewrite([]byte(code), "/test/partial.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("expected the known call to be rewritten")
	}
	if !strings.Contains(result.Code, "renderSSR(<Unknown />)") {
		t.Error("unknown call site should stay untouched")
	}
	if strings.Contains(result.Code, "renderSSR(<Counter />)") {
		t.Error("known call site should be rewritten")
	}
}

func TestRewriteIdempotent(t *testing.T) {
	tr := newTestTransformer(t)

	first, err := tr.Rewrite([]byte(importedCallModule), "/test/transform.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if first == nil {
		t.Fatal("expected a first rewrite")
	}

	second, err := tr.Rewrite([]byte(first.Code), "/test/transform.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if second != nil {
		t.Errorf("re-running on rewritten output must be a no-op:\n%s", second.Code)
	}
}

func TestExistingBridgeImportNotDuplicated(t *testing.T) {
	tr := newTestTransformer(t)
	code := `import { ssrCommands } from "vitest-browser-qwik/commands";
import { renderSSR } from "vitest-browser-qwik";
import { Counter } from "./fixtures/Counter";

renderSSR(<Counter />);
`
	result, err := tr.Rewrite([]byte(code), "/test/dup.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("expected a rewrite")
	}
	if strings.Count(result.Code, `from "vitest-browser-qwik/commands"`) != 1 {
		t.Errorf("bridge import duplicated:\n%s", result.Code)
	}
}

func TestNoImportsSkipsHeader(t *testing.T) {
	tr := newTestTransformer(t)
	code := `declare function renderSSR(jsx: unknown): unknown;
declare function component$(fn: unknown): unknown;

const Local = component$(() => <div />);
renderSSR(<Local />);
`
	result, err := tr.Rewrite([]byte(code), "/test/ambient.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("expected a rewrite via the ambient declaration")
	}
	// No import statement exists, so there is no insertion point.
	if strings.Contains(result.Code, "vitest-browser-qwik/commands") {
		t.Errorf("header inserted without an anchor:\n%s", result.Code)
	}
	if !strings.Contains(result.Code, "export { Local };") {
		t.Error("export statement still expected")
	}
}

func TestNestedCallInsideUnknownTagProps(t *testing.T) {
	tr := newTestTransformer(t)
	code := `import { renderSSR } from "vitest-browser-qwik";
import { Counter } from "./fixtures/Counter";

renderSSR(<Unknown inner={renderSSR(<Counter />)} />);
`
	result, err := tr.Rewrite([]byte(code), "/test/nested.test.tsx")
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("nested call should still be rewritten")
	}
	if !strings.Contains(result.Code, "ssrCommands.renderExternal(") {
		t.Errorf("nested known call missed:\n%s", result.Code)
	}
}

func TestDetect(t *testing.T) {
	tr := newTestTransformer(t)

	if tr.Detect([]byte(`const x = 1;`), "/test/none.test.tsx") {
		t.Error("no trigger substring should fast-reject")
	}
	if !tr.Detect([]byte(importedCallModule), "/test/transform.test.tsx") {
		t.Error("structural detection missed a plain call")
	}

	aliased := `import { renderSSR as ssr } from "vitest-browser-qwik";
ssr(<div />);
`
	if !tr.Detect([]byte(aliased), "/test/a.test.tsx") {
		t.Error("aliased detection failed")
	}

	copyAlias := `import { renderSSR } from "vitest-browser-qwik";
const mine = renderSSR;
mine(1);
`
	if !tr.Detect([]byte(copyAlias), "/test/b.test.tsx") {
		t.Error("one-hop copy detection failed")
	}

	// Default import whose local name contains the trigger
	// case-insensitively. The callee is not `renderSSR(`, so only the
	// structural pass can find it.
	defaultImport := `import renderSSRClient from "vitest-browser-qwik";
renderSSRClient(<div />);
`
	if !tr.Detect([]byte(defaultImport), "/test/c.test.tsx") {
		t.Error("default-import alias detection failed")
	}
	unrelatedDefault := `import renderChart from "charts";
renderChart(<div />);
`
	if tr.Detect([]byte(unrelatedDefault), "/test/d.test.tsx") {
		t.Error("unrelated default import should not be treated as the trigger")
	}
}

func TestDetectSubstringFallbackOnBrokenSyntax(t *testing.T) {
	tr := newTestTransformer(t)

	// The raw text clearly calls the trigger even though the module is
	// syntactically degraded; both signals are authoritative.
	broken := []byte("const = ;\nrenderSSR(<Counter/>);\n")
	if !tr.Detect(broken, "/test/broken.test.tsx") {
		t.Error("substring fallback should have fired")
	}
}

func TestParseFailureLeavesFileUnchanged(t *testing.T) {
	tr := newTestTransformer(t)
	hook, err := NewHook(tr)
	if err != nil {
		t.Fatal(err)
	}

	broken := []byte("import { renderSSR } from \"x\"\nconst = renderSSR(<Counter/>;\n")
	result, err := hook.Transform(broken, "/test/broken.test.tsx")
	if err != nil {
		t.Fatalf("parse failures must degrade, not propagate: %v", err)
	}
	if result != nil {
		t.Error("degraded module must pass through unchanged")
	}
}
